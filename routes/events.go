package routes

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"campus-events/directory"
	"campus-events/metric"
	"campus-events/models"
	"campus-events/utils"
)

// eventSummary is what registration endpoints hand back: the event plus its
// current registration count.
type eventSummary struct {
	models.Event
	Registered int `json:"registered"`
}

func (d *deps) summarize(e models.Event) eventSummary {
	count, err := d.regs.Count(e.ID)
	if err != nil {
		count = 0
	}
	return eventSummary{Event: e, Registered: count}
}

/* -------------------- read side -------------------- */

// GET /events
func (d *deps) getEvents(c *gin.Context) {
	events, err := d.events.GetAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not fetch events. Try again later."})
		return
	}
	c.JSON(http.StatusOK, events)
}

// GET /events/:id
func (d *deps) getEvent(c *gin.Context) {
	event, err := d.events.GetByID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d.summarize(event))
}

// GET /events/grouped/:year
//
// Always returns 12 months; empty months carry an empty event list.
func (d *deps) getEventsGroupedByMonth(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year <= 0 {
		year = time.Now().Year()
	}

	from, to := directory.YearRange(year)
	events, err := d.events.FindBetween(from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not fetch events. Try again later."})
		return
	}
	c.JSON(http.StatusOK, directory.GroupByMonth(events, year))
}

// GET /events/month/:year/:month
func (d *deps) getEventsByMonth(c *gin.Context) {
	year, yerr := strconv.Atoi(c.Param("year"))
	month, merr := strconv.Atoi(c.Param("month"))
	if yerr != nil || merr != nil || year <= 0 || month < 1 || month > 12 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Could not parse year/month."})
		return
	}

	from, to := directory.MonthRange(year, month)
	events, err := d.events.FindBetween(from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not fetch events. Try again later."})
		return
	}
	c.JSON(http.StatusOK, events)
}

// GET /events/my-events
func (d *deps) getMyEvents(c *gin.Context) {
	ids, err := d.regs.EventIDsByUser(c.GetInt64("userId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not fetch your events. Try again later."})
		return
	}
	events, err := d.events.GetByIDs(ids)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not fetch your events. Try again later."})
		return
	}
	c.JSON(http.StatusOK, events)
}

/* -------------------- admin CRUD -------------------- */

// POST /events
func (d *deps) createEvent(c *gin.Context) {
	var req struct {
		Title           string    `json:"title" binding:"required"`
		Description     string    `json:"description" binding:"required"`
		Date            time.Time `json:"date" binding:"required"`
		Time            string    `json:"time"`
		Venue           string    `json:"venue" binding:"required"`
		Category        string    `json:"category"`
		MaxParticipants int       `json:"maxParticipants"`
		IsActive        *bool     `json:"isActive"`
		Image           string    `json:"image"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Could not parse request data."})
		return
	}
	if req.Category == "" {
		req.Category = "other"
	}
	if !models.ValidCategory(req.Category) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Unknown event category."})
		return
	}
	if req.MaxParticipants <= 0 {
		req.MaxParticipants = 100
	}

	event := models.Event{
		ID:              uuid.NewString(),
		Title:           req.Title,
		Description:     req.Description,
		Date:            req.Date,
		Time:            req.Time,
		Venue:           req.Venue,
		Category:        req.Category,
		MaxParticipants: req.MaxParticipants,
		IsActive:        true,
		Image:           req.Image,
	}
	if req.IsActive != nil {
		event.IsActive = *req.IsActive
	}

	if err := d.events.Create(&event); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not create event. Try again later."})
		return
	}
	if err := d.regs.InitCapacity(event.ID, event.MaxParticipants); err != nil {
		// No capacity counter means no registrations can ever commit, so the
		// document must not survive either.
		_ = d.events.Delete(event.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not create event. Try again later."})
		return
	}

	d.inv.PurgeEvents(c)
	c.JSON(http.StatusCreated, gin.H{"message": "Event created!", "event": event})
}

// PUT /events/:id
func (d *deps) updateEvent(c *gin.Context) {
	event, err := d.events.GetByID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	var req struct {
		Title           *string    `json:"title"`
		Description     *string    `json:"description"`
		Date            *time.Time `json:"date"`
		Time            *string    `json:"time"`
		Venue           *string    `json:"venue"`
		Category        *string    `json:"category"`
		MaxParticipants *int       `json:"maxParticipants"`
		IsActive        *bool      `json:"isActive"`
		Image           *string    `json:"image"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Could not parse request data."})
		return
	}

	if req.Title != nil {
		event.Title = *req.Title
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.Date != nil {
		event.Date = *req.Date
	}
	if req.Time != nil {
		event.Time = *req.Time
	}
	if req.Venue != nil {
		event.Venue = *req.Venue
	}
	if req.Category != nil {
		if !models.ValidCategory(*req.Category) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Unknown event category."})
			return
		}
		event.Category = *req.Category
	}
	if req.IsActive != nil {
		event.IsActive = *req.IsActive
	}
	if req.Image != nil {
		event.Image = *req.Image
	}
	if req.MaxParticipants != nil && *req.MaxParticipants != event.MaxParticipants {
		if *req.MaxParticipants <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "maxParticipants must be positive."})
			return
		}
		// Counter first: shrinking below the current registration count must
		// fail before the document is touched.
		if err := d.regs.SetCapacity(event.ID, *req.MaxParticipants); err != nil {
			respondError(c, err)
			return
		}
		event.MaxParticipants = *req.MaxParticipants
	}

	if err := d.events.Update(&event); err != nil {
		respondError(c, err)
		return
	}

	d.inv.PurgeEvents(c)
	c.JSON(http.StatusOK, gin.H{"message": "Event updated successfully!", "event": event})
}

// DELETE /events/:id
func (d *deps) deleteEvent(c *gin.Context) {
	id := c.Param("id")
	if _, err := d.events.GetByID(id); err != nil {
		respondError(c, err)
		return
	}

	// Relational side first: once registrations and feedback are gone the
	// event is just a document; a failed document delete leaves a visible
	// but empty event that a retry cleans up.
	if err := d.regs.RemoveEvent(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not delete the event."})
		return
	}
	if err := d.events.Delete(id); err != nil {
		respondError(c, err)
		return
	}

	d.inv.PurgeEvents(c)
	c.JSON(http.StatusOK, gin.H{"message": "Event deleted successfully!"})
}

/* -------------------- registration -------------------- */

// POST /events/:id/register
func (d *deps) registerForEvent(c *gin.Context) {
	userID := c.GetInt64("userId")
	eventID := c.Param("id")

	event, err := d.events.GetByID(eventID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !event.IsActive {
		metric.RegistrationsRejected.WithLabelValues("inactive").Inc()
		respondError(c, models.ErrInactiveEvent)
		return
	}

	if err := d.regs.Register(userID, eventID); err != nil {
		metric.RegistrationsRejected.WithLabelValues(rejectionReason(err)).Inc()
		respondError(c, err)
		return
	}
	metric.RegistrationsAccepted.Inc()

	// Best-effort confirmation mail; a failure never unwinds the
	// registration.
	if user, err := d.users.GetByID(userID); err == nil {
		go d.sendConfirmation(user, event)
	}

	d.inv.PurgeEvents(c)
	c.JSON(http.StatusCreated, gin.H{
		"message": "Successfully registered for event",
		"event":   d.summarize(event),
	})
}

// DELETE /events/:id/register
func (d *deps) cancelRegistration(c *gin.Context) {
	userID := c.GetInt64("userId")
	eventID := c.Param("id")

	if _, err := d.events.GetByID(eventID); err != nil {
		respondError(c, err)
		return
	}
	if err := d.regs.Cancel(userID, eventID); err != nil {
		respondError(c, err)
		return
	}
	metric.RegistrationsCancelled.Inc()

	d.inv.PurgeEvents(c)
	c.JSON(http.StatusOK, gin.H{"message": "Successfully unregistered from event"})
}

func (d *deps) sendConfirmation(user models.User, event models.Event) {
	metric.MailAttempted.Inc()
	subject, body := utils.RegistrationConfirmation(
		d.cfg.CollegeName, user.Name,
		event.Title, event.Date.Format(time.DateOnly), event.Time, event.Venue,
	)
	if err := d.mailer.Send(user.Email, subject, body); err != nil {
		metric.MailFailed.Inc()
		slog.Warn("confirmation mail failed", "user", user.ID, "event", event.ID, "error", err)
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, models.ErrAlreadyRegistered):
		return "already_registered"
	case errors.Is(err, models.ErrEventFull):
		return "event_full"
	case errors.Is(err, models.ErrEventNotFound):
		return "not_found"
	default:
		return "error"
	}
}

/* -------------------- feedback -------------------- */

// POST /events/:id/feedback
func (d *deps) submitFeedback(c *gin.Context) {
	userID := c.GetInt64("userId")
	eventID := c.Param("id")

	var req struct {
		Rating  int    `json:"rating" binding:"required"`
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Could not parse request data."})
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		respondError(c, models.ErrInvalidRating)
		return
	}

	event, err := d.events.GetByID(eventID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !event.Ended(time.Now()) {
		respondError(c, models.ErrEventNotEnded)
		return
	}

	entry := models.FeedbackEntry{
		EventID: eventID,
		UserID:  userID,
		Rating:  req.Rating,
		Comment: req.Comment,
	}
	if err := d.feedback.Submit(&entry); err != nil {
		respondError(c, err)
		return
	}
	metric.FeedbackRecorded.Inc()

	d.inv.PurgeEvents(c)
	c.JSON(http.StatusCreated, gin.H{"message": "Feedback submitted successfully"})
}

// GET /events/:id/feedback
func (d *deps) getEventFeedback(c *gin.Context) {
	eventID := c.Param("id")

	if _, err := d.events.GetByID(eventID); err != nil {
		respondError(c, err)
		return
	}
	entries, err := d.feedback.ListByEvent(eventID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not fetch feedback. Try again later."})
		return
	}
	summary, err := d.feedback.Summary(eventID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not fetch feedback. Try again later."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedback": entries, "summary": summary})
}
