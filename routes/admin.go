package routes

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

func userIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Could not parse user id."})
		return 0, false
	}
	return id, true
}

// GET /admin/users
func (d *deps) listUsers(c *gin.Context) {
	users, err := d.users.ListStudents()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not fetch users. Try again later."})
		return
	}
	c.JSON(http.StatusOK, users)
}

// GET /admin/users/:id
func (d *deps) getUser(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}

	user, err := d.users.GetByID(id)
	if err != nil {
		respondError(c, err)
		return
	}
	ids, err := d.regs.EventIDsByUser(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not fetch user. Try again later."})
		return
	}
	events, err := d.events.GetByIDs(ids)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not fetch user. Try again later."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": viewOf(user), "registeredEvents": events})
}

// DELETE /admin/users/:id
//
// Removing a user cascades through every event the user is registered for.
func (d *deps) deleteUser(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}

	if err := d.users.Delete(id); err != nil {
		respondError(c, err)
		return
	}

	d.inv.PurgeEvents(c)
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// PATCH /admin/users/:id/verify
func (d *deps) verifyUser(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}

	if err := d.users.SetVerified(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User verified successfully"})
}

// GET /admin/dashboard
func (d *deps) getDashboard(c *gin.Context) {
	totalUsers, verifiedUsers, err := d.users.CountStudents()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not fetch dashboard stats."})
		return
	}
	totalEvents, activeEvents, err := d.events.Counts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not fetch dashboard stats."})
		return
	}
	upcoming, err := d.events.FindUpcoming(time.Now(), 5)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not fetch dashboard stats."})
		return
	}
	recent, err := d.users.RecentStudents(5)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not fetch dashboard stats."})
		return
	}
	byCategory, err := d.events.CountByCategory()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not fetch dashboard stats."})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats": gin.H{
			"totalUsers":      totalUsers,
			"verifiedUsers":   verifiedUsers,
			"unverifiedUsers": totalUsers - verifiedUsers,
			"totalEvents":     totalEvents,
			"activeEvents":    activeEvents,
		},
		"upcomingEvents":   upcoming,
		"recentUsers":      recent,
		"eventsByCategory": byCategory,
	})
}

// GET /admin/events/:id/registrations
func (d *deps) getEventRegistrations(c *gin.Context) {
	eventID := c.Param("id")

	event, err := d.events.GetByID(eventID)
	if err != nil {
		respondError(c, err)
		return
	}
	roster, err := d.regs.ListByEvent(eventID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not fetch registrations. Try again later."})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"event": gin.H{
			"id":              event.ID,
			"title":           event.Title,
			"date":            event.Date,
			"maxParticipants": event.MaxParticipants,
		},
		"registrations":      roster,
		"totalRegistrations": len(roster),
	})
}
