package models

import (
	"errors"
	"time"
)

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// Error taxonomy surfaced to handlers. State-based rejections carry a
// specific reason so the caller can render an actionable message; storage
// failures stay generic.
var (
	ErrEventNotFound     = errors.New("event not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrInactiveEvent     = errors.New("event is not active")
	ErrAlreadyRegistered = errors.New("already registered for this event")
	ErrEventFull         = errors.New("event is full")
	ErrNotRegistered     = errors.New("not registered for this event")
	ErrEventNotEnded     = errors.New("can only give feedback after the event ends")
	ErrNotAParticipant   = errors.New("only registered participants can give feedback")
	ErrDuplicateFeedback = errors.New("feedback already submitted for this event")
	ErrInvalidRating     = errors.New("rating must be an integer between 1 and 5")
	ErrDuplicateUser     = errors.New("registration number or email already in use")
	ErrAdminProtected    = errors.New("cannot delete admin user")
	ErrCapacityTooSmall  = errors.New("capacity below current registration count")
)

// EventCategories is the closed set of accepted event categories.
var EventCategories = []string{"technical", "cultural", "sports", "academic", "workshop", "seminar", "other"}

func ValidCategory(c string) bool {
	for _, v := range EventCategories {
		if v == c {
			return true
		}
	}
	return false
}

// Event is a scheduled campus activity. Stored in MongoDB keyed by a UUID
// string so the Postgres side can reference it. Note there is no registered
// users array on the document: the user<->event edge lives solely in the
// registrations join table, so the two sides can never disagree.
type Event struct {
	ID              string    `json:"id" bson:"id"`
	Title           string    `json:"title" bson:"title"`
	Description     string    `json:"description" bson:"description"`
	Date            time.Time `json:"date" bson:"date"`
	Time            string    `json:"time" bson:"time"`
	Venue           string    `json:"venue" bson:"venue"`
	Category        string    `json:"category" bson:"category"`
	MaxParticipants int       `json:"maxParticipants" bson:"maxParticipants"`
	IsActive        bool      `json:"isActive" bson:"isActive"`
	Image           string    `json:"image,omitempty" bson:"image,omitempty"`
	CreatedAt       time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Ended reports whether the event's scheduled time has passed, which gates
// feedback eligibility.
func (e Event) Ended(now time.Time) bool {
	return !e.Date.After(now)
}

type User struct {
	ID                 int64     `json:"id"`
	RegistrationNumber string    `json:"registrationNumber"`
	Email              string    `json:"email"`
	Name               string    `json:"name"`
	Password           string    `json:"-"`
	IsVerified         bool      `json:"isVerified"`
	Role               string    `json:"role"`
	CreatedAt          time.Time `json:"createdAt"`
}

// FeedbackEntry is immutable once created; at most one exists per
// (user, event) pair.
type FeedbackEntry struct {
	ID        int64     `json:"id"`
	EventID   string    `json:"eventId"`
	UserID    int64     `json:"userId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// FeedbackSummary is derived at read time. Average is rounded to one decimal
// place and absent when there are no entries.
type FeedbackSummary struct {
	Count   int      `json:"count"`
	Average *float64 `json:"averageRating,omitempty"`
}

type EventRepository interface {
	GetAll() ([]Event, error)
	GetByID(id string) (Event, error)
	GetByIDs(ids []string) ([]Event, error)
	FindBetween(from, to time.Time) ([]Event, error)
	FindUpcoming(after time.Time, limit int) ([]Event, error)
	Create(e *Event) error
	Update(e *Event) error
	Delete(id string) error
	Counts() (total, active int64, err error)
	CountByCategory() (map[string]int64, error)
}

type UserRepository interface {
	Create(u *User) error
	GetByID(id int64) (User, error)
	ValidateCredentials(registrationNumber, plain string) (User, error)
	ValidateAdminCredentials(email, plain string) (User, error)
	EnsureAdmin(email, name, plain string) (User, error)
	ListStudents() ([]User, error)
	RecentStudents(limit int) ([]User, error)
	SetVerified(id int64) error
	Delete(id int64) error
	CountStudents() (total, verified int64, err error)
}

// RegistrationRepository maintains the user<->event edge. Register and Cancel
// must keep |registrations(event)| <= capacity under concurrent calls; both
// sides of the edge become visible atomically or not at all.
type RegistrationRepository interface {
	Register(userID int64, eventID string) error
	Cancel(userID int64, eventID string) error
	IsRegistered(userID int64, eventID string) (bool, error)
	ListByEvent(eventID string) ([]User, error)
	EventIDsByUser(userID int64) ([]string, error)
	Count(eventID string) (int, error)
	InitCapacity(eventID string, capacity int) error
	SetCapacity(eventID string, capacity int) error
	RemoveEvent(eventID string) error
}

type FeedbackRepository interface {
	Submit(f *FeedbackEntry) error
	ListByEvent(eventID string) ([]FeedbackEntry, error)
	Summary(eventID string) (FeedbackSummary, error)
}
