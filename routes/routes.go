package routes

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"campus-events/config"
	"campus-events/middlewares"
	"campus-events/models"
	"campus-events/utils"
)

// deps is the dependency-injection container handlers hang off. Everything
// behind it is an interface, so tests can swap backends freely.
type deps struct {
	cfg      *config.Config
	users    models.UserRepository
	regs     models.RegistrationRepository
	events   models.EventRepository
	feedback models.FeedbackRepository
	mailer   utils.Mailer
	inv      *utils.CacheInvalidator
	regNum   *regexp.Regexp
}

// RegisterRoutes wires the route table. Repositories, Redis and the mailer
// come from main; routes never touch a concrete backend directly.
func RegisterRoutes(
	server *gin.Engine,
	cfg *config.Config,
	u models.UserRepository,
	r models.RegistrationRepository,
	e models.EventRepository,
	f models.FeedbackRepository,
	rdb *redis.Client,
	inv *utils.CacheInvalidator,
	mailer utils.Mailer,
) {
	d := &deps{
		cfg:      cfg,
		users:    u,
		regs:     r,
		events:   e,
		feedback: f,
		mailer:   mailer,
		inv:      inv,
		regNum:   regexp.MustCompile(fmt.Sprintf(`^\d{%d}$`, cfg.RegNumberDigits)),
	}

	// Global per-IP limit, generous enough for browsing.
	globalLimiter := middlewares.NewRateLimiter(middlewares.LimiterConfig{
		RPS:     20,
		Burst:   40,
		IdleTTL: 3 * time.Minute,
	})
	server.Use(globalLimiter.Middleware(func(c *gin.Context) string {
		return "ip:" + c.ClientIP()
	}))

	// Tighter bucket on credential endpoints.
	authLimiter := middlewares.NewRateLimiter(middlewares.LimiterConfig{
		RPS:     0.5,
		Burst:   5,
		IdleTTL: 10 * time.Minute,
	})
	server.POST("/auth/signup",
		authLimiter.Middleware(func(c *gin.Context) string { return "signup:" + c.ClientIP() }),
		d.signup,
	)
	server.POST("/auth/login",
		authLimiter.Middleware(func(c *gin.Context) string { return "login:" + c.ClientIP() }),
		d.login,
	)
	server.POST("/auth/admin/login",
		authLimiter.Middleware(func(c *gin.Context) string { return "admin-login:" + c.ClientIP() }),
		d.adminLogin,
	)

	// Public read side.
	server.GET("/events", d.getEvents)
	server.GET("/events/grouped/:year", d.getEventsGroupedByMonth)
	server.GET("/events/month/:year/:month", d.getEventsByMonth)
	server.GET("/events/:id", d.getEvent)
	server.GET("/events/:id/feedback", d.getEventFeedback)

	// Authenticated group: per-user burst limit plus a daily quota.
	auth := server.Group("/")
	auth.Use(middlewares.Authenticate(cfg.JWTSecret))

	userLimiter := middlewares.NewRateLimiter(middlewares.LimiterConfig{
		RPS:     5,
		Burst:   10,
		IdleTTL: 10 * time.Minute,
	})
	auth.Use(userLimiter.Middleware(func(c *gin.Context) string {
		return "u:" + strconv.FormatInt(c.GetInt64("userId"), 10)
	}))
	auth.Use(middlewares.Quota(rdb, middlewares.QuotaRule{
		Limit:  2000,
		Window: 24 * time.Hour,
		KeyFn: func(c *gin.Context) string {
			uid := c.GetInt64("userId")
			if uid == 0 {
				return ""
			}
			return fmt.Sprintf("quota:user:%d:day", uid)
		},
	}))

	auth.GET("/auth/profile", d.getProfile)
	auth.GET("/events/my-events", d.getMyEvents)
	auth.POST("/events/:id/register", d.registerForEvent)
	auth.DELETE("/events/:id/register", d.cancelRegistration)
	auth.POST("/events/:id/feedback", d.submitFeedback)

	admin := auth.Group("/")
	admin.Use(middlewares.RequireAdmin())

	admin.POST("/events", d.createEvent)
	admin.PUT("/events/:id", d.updateEvent)
	admin.DELETE("/events/:id", d.deleteEvent)

	admin.GET("/admin/users", d.listUsers)
	admin.GET("/admin/users/:id", d.getUser)
	admin.DELETE("/admin/users/:id", d.deleteUser)
	admin.PATCH("/admin/users/:id/verify", d.verifyUser)
	admin.GET("/admin/dashboard", d.getDashboard)
	admin.GET("/admin/events/:id/registrations", d.getEventRegistrations)
}

// respondError maps the models error taxonomy onto HTTP statuses. Anything
// unrecognized is a dependency failure and stays a generic 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrEventNotFound),
		errors.Is(err, models.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
	case errors.Is(err, models.ErrInvalidRating),
		errors.Is(err, models.ErrDuplicateUser),
		errors.Is(err, models.ErrAdminProtected):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, models.ErrInactiveEvent),
		errors.Is(err, models.ErrAlreadyRegistered),
		errors.Is(err, models.ErrEventFull),
		errors.Is(err, models.ErrNotRegistered),
		errors.Is(err, models.ErrEventNotEnded),
		errors.Is(err, models.ErrNotAParticipant),
		errors.Is(err, models.ErrDuplicateFeedback),
		errors.Is(err, models.ErrCapacityTooSmall):
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Something went wrong. Try again later."})
	}
}
