package routes

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"campus-events/models"
	"campus-events/utils"
)

type userView struct {
	ID                 int64  `json:"id"`
	RegistrationNumber string `json:"registrationNumber"`
	Email              string `json:"email"`
	Name               string `json:"name"`
	IsVerified         bool   `json:"isVerified"`
	Role               string `json:"role"`
}

func viewOf(u models.User) userView {
	return userView{
		ID:                 u.ID,
		RegistrationNumber: u.RegistrationNumber,
		Email:              u.Email,
		Name:               u.Name,
		IsVerified:         u.IsVerified,
		Role:               u.Role,
	}
}

// POST /auth/signup
func (d *deps) signup(c *gin.Context) {
	var req struct {
		RegistrationNumber string `json:"registrationNumber" binding:"required"`
		Email              string `json:"email" binding:"required,email"`
		Password           string `json:"password" binding:"required,min=6"`
		Name               string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Could not parse request data."})
		return
	}
	if !d.regNum.MatchString(req.RegistrationNumber) {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": fmt.Sprintf("Registration number must be exactly %d digits", d.cfg.RegNumberDigits),
		})
		return
	}

	user := models.User{
		RegistrationNumber: req.RegistrationNumber,
		Email:              req.Email,
		Name:               req.Name,
		Password:           req.Password,
		IsVerified:         true,
		Role:               models.RoleStudent,
	}
	if err := d.users.Create(&user); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful! You can now login.",
		"user":    viewOf(user),
	})
}

// POST /auth/login
func (d *deps) login(c *gin.Context) {
	var req struct {
		RegistrationNumber string `json:"registrationNumber" binding:"required"`
		Password           string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Could not parse request data."})
		return
	}

	user, err := d.users.ValidateCredentials(req.RegistrationNumber, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid registration number or password"})
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Role, d.cfg.JWTSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not authenticate user."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": viewOf(user)})
}

// POST /auth/admin/login
//
// The bootstrap admin from the config is provisioned on first use; any other
// admin account authenticates normally by email.
func (d *deps) adminLogin(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Could not parse request data."})
		return
	}

	var (
		admin models.User
		err   error
	)
	if req.Email == d.cfg.AdminEmail && req.Password == d.cfg.AdminPassword {
		admin, err = d.users.EnsureAdmin(d.cfg.AdminEmail, d.cfg.AdminName, d.cfg.AdminPassword)
	} else {
		admin, err = d.users.ValidateAdminCredentials(req.Email, req.Password)
	}
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid admin credentials"})
		return
	}

	token, err := utils.GenerateToken(admin.ID, admin.Role, d.cfg.JWTSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not authenticate user."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": viewOf(admin)})
}

// GET /auth/profile
func (d *deps) getProfile(c *gin.Context) {
	user, err := d.users.GetByID(c.GetInt64("userId"))
	if err != nil {
		respondError(c, err)
		return
	}

	ids, err := d.regs.EventIDsByUser(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not fetch profile. Try again later."})
		return
	}
	events, err := d.events.GetByIDs(ids)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not fetch profile. Try again later."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": viewOf(user), "registeredEvents": events})
}
