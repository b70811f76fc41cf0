package models

import (
	"errors"
	"sort"
	"sync"
	"time"

	"campus-events/utils"
)

// MemoryStore is a self-contained backend for all four repositories. It
// backs local development (DEV_MEMORY_STORE=1) and the handler and property
// tests. A single mutex gives it the same serialization the SQL backend gets
// from the capacity row lock: the duplicate check, the capacity check and
// both writes happen as one step.
type MemoryStore struct {
	mu         sync.Mutex
	users      map[int64]User
	nextUserID int64
	events     map[string]Event
	caps       map[string]*memCapacity
	regs       map[string]map[int64]time.Time // eventID -> userID -> registered at
	feedback   map[string]map[int64]FeedbackEntry
	nextFbID   int64
}

type memCapacity struct {
	capacity   int
	registered int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    map[int64]User{},
		events:   map[string]Event{},
		caps:     map[string]*memCapacity{},
		regs:     map[string]map[int64]time.Time{},
		feedback: map[string]map[int64]FeedbackEntry{},
	}
}

func (s *MemoryStore) Users() UserRepository                 { return (*memUserRepo)(s) }
func (s *MemoryStore) Events() EventRepository               { return (*memEventRepo)(s) }
func (s *MemoryStore) Registrations() RegistrationRepository { return (*memRegistrationRepo)(s) }
func (s *MemoryStore) Feedback() FeedbackRepository          { return (*memFeedbackRepo)(s) }

/* ---------------- events ---------------- */

type memEventRepo MemoryStore

func sortEventsByDate(events []Event) {
	sort.Slice(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date) })
}

func (r *memEventRepo) GetAll() ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []Event{}
	for _, e := range r.events {
		if e.IsActive {
			out = append(out, e)
		}
	}
	sortEventsByDate(out)
	return out, nil
}

func (r *memEventRepo) GetByID(id string) (Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.events[id]
	if !ok {
		return Event{}, ErrEventNotFound
	}
	return e, nil
}

func (r *memEventRepo) GetByIDs(ids []string) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []Event{}
	for _, id := range ids {
		if e, ok := r.events[id]; ok {
			out = append(out, e)
		}
	}
	sortEventsByDate(out)
	return out, nil
}

func (r *memEventRepo) FindBetween(from, to time.Time) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []Event{}
	for _, e := range r.events {
		if e.IsActive && !e.Date.Before(from) && !e.Date.After(to) {
			out = append(out, e)
		}
	}
	sortEventsByDate(out)
	return out, nil
}

func (r *memEventRepo) FindUpcoming(after time.Time, limit int) ([]Event, error) {
	out, err := r.FindBetween(after, after.AddDate(100, 0, 0))
	if err != nil {
		return nil, err
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memEventRepo) Create(e *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	r.events[e.ID] = *e
	return nil
}

func (r *memEventRepo) Update(e *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.events[e.ID]; !ok {
		return ErrEventNotFound
	}
	e.UpdatedAt = time.Now().UTC()
	r.events[e.ID] = *e
	return nil
}

func (r *memEventRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.events[id]; !ok {
		return ErrEventNotFound
	}
	delete(r.events, id)
	return nil
}

func (r *memEventRepo) Counts() (int64, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var total, active int64
	for _, e := range r.events {
		total++
		if e.IsActive {
			active++
		}
	}
	return total, active, nil
}

func (r *memEventRepo) CountByCategory() (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := map[string]int64{}
	for _, e := range r.events {
		out[e.Category]++
	}
	return out, nil
}

/* ---------------- users ---------------- */

type memUserRepo MemoryStore

func (r *memUserRepo) Create(u *User) error {
	hashed, err := utils.HashPassword(u.Password)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.RegistrationNumber == u.RegistrationNumber || existing.Email == u.Email {
			return ErrDuplicateUser
		}
	}
	r.nextUserID++
	u.ID = r.nextUserID
	u.Password = hashed
	if u.Role == "" {
		u.Role = RoleStudent
	}
	u.CreatedAt = time.Now().UTC()
	r.users[u.ID] = *u
	return nil
}

func (r *memUserRepo) GetByID(id int64) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (r *memUserRepo) findLocked(match func(User) bool) (User, bool) {
	for _, u := range r.users {
		if match(u) {
			return u, true
		}
	}
	return User{}, false
}

func (r *memUserRepo) ValidateCredentials(registrationNumber, plain string) (User, error) {
	r.mu.Lock()
	u, ok := r.findLocked(func(u User) bool { return u.RegistrationNumber == registrationNumber })
	r.mu.Unlock()
	if !ok || !utils.CheckPasswordHash(plain, u.Password) {
		return User{}, errors.New("invalid credentials")
	}
	return u, nil
}

func (r *memUserRepo) ValidateAdminCredentials(email, plain string) (User, error) {
	r.mu.Lock()
	u, ok := r.findLocked(func(u User) bool { return u.Email == email && u.Role == RoleAdmin })
	r.mu.Unlock()
	if !ok || !utils.CheckPasswordHash(plain, u.Password) {
		return User{}, errors.New("invalid credentials")
	}
	return u, nil
}

func (r *memUserRepo) EnsureAdmin(email, name, plain string) (User, error) {
	r.mu.Lock()
	u, ok := r.findLocked(func(u User) bool { return u.Email == email && u.Role == RoleAdmin })
	r.mu.Unlock()
	if ok {
		return u, nil
	}

	admin := User{
		RegistrationNumber: "ADMIN001",
		Email:              email,
		Name:               name,
		Password:           plain,
		IsVerified:         true,
		Role:               RoleAdmin,
	}
	if err := r.Create(&admin); err != nil {
		return User{}, err
	}
	return admin, nil
}

func (r *memUserRepo) students() []User {
	out := []User{}
	for _, u := range r.users {
		if u.Role == RoleStudent {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *memUserRepo) ListStudents() ([]User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.students(), nil
}

func (r *memUserRepo) RecentStudents(limit int) ([]User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.students()
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memUserRepo) SetVerified(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.IsVerified = true
	r.users[id] = u
	return nil
}

func (r *memUserRepo) Delete(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}
	if u.Role == RoleAdmin {
		return ErrAdminProtected
	}

	for eventID, members := range r.regs {
		if _, registered := members[id]; registered {
			delete(members, id)
			if cap, ok := r.caps[eventID]; ok && cap.registered > 0 {
				cap.registered--
			}
		}
	}
	for _, entries := range r.feedback {
		delete(entries, id)
	}
	delete(r.users, id)
	return nil
}

func (r *memUserRepo) CountStudents() (int64, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var total, verified int64
	for _, u := range r.users {
		if u.Role != RoleStudent {
			continue
		}
		total++
		if u.IsVerified {
			verified++
		}
	}
	return total, verified, nil
}

/* ---------------- registrations ---------------- */

type memRegistrationRepo MemoryStore

func (r *memRegistrationRepo) Register(userID int64, eventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cap, ok := r.caps[eventID]
	if !ok {
		return ErrEventNotFound
	}
	members := r.regs[eventID]
	if members == nil {
		members = map[int64]time.Time{}
		r.regs[eventID] = members
	}
	if _, dup := members[userID]; dup {
		return ErrAlreadyRegistered
	}
	if cap.registered >= cap.capacity {
		return ErrEventFull
	}
	members[userID] = time.Now().UTC()
	cap.registered++
	return nil
}

func (r *memRegistrationRepo) Cancel(userID int64, eventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	members := r.regs[eventID]
	if _, ok := members[userID]; !ok {
		return ErrNotRegistered
	}
	delete(members, userID)
	if cap, ok := r.caps[eventID]; ok && cap.registered > 0 {
		cap.registered--
	}
	return nil
}

func (r *memRegistrationRepo) IsRegistered(userID int64, eventID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.regs[eventID][userID]
	return ok, nil
}

func (r *memRegistrationRepo) ListByEvent(eventID string) ([]User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	type member struct {
		user User
		at   time.Time
	}
	members := []member{}
	for uid, at := range r.regs[eventID] {
		if u, ok := r.users[uid]; ok {
			members = append(members, member{u, at})
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].at.Before(members[j].at) })

	out := make([]User, 0, len(members))
	for _, m := range members {
		out = append(out, m.user)
	}
	return out, nil
}

func (r *memRegistrationRepo) EventIDsByUser(userID int64) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	type entry struct {
		id string
		at time.Time
	}
	entries := []entry{}
	for eventID, members := range r.regs {
		if at, ok := members[userID]; ok {
			entries = append(entries, entry{eventID, at})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].at.Before(entries[j].at) })

	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.id)
	}
	return out, nil
}

func (r *memRegistrationRepo) Count(eventID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.regs[eventID]), nil
}

func (r *memRegistrationRepo) InitCapacity(eventID string, capacity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.caps[eventID] = &memCapacity{capacity: capacity}
	return nil
}

func (r *memRegistrationRepo) SetCapacity(eventID string, capacity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cap, ok := r.caps[eventID]
	if !ok {
		return ErrEventNotFound
	}
	if cap.registered > capacity {
		return ErrCapacityTooSmall
	}
	cap.capacity = capacity
	return nil
}

func (r *memRegistrationRepo) RemoveEvent(eventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.regs, eventID)
	delete(r.caps, eventID)
	delete(r.feedback, eventID)
	return nil
}

/* ---------------- feedback ---------------- */

type memFeedbackRepo MemoryStore

func (r *memFeedbackRepo) Submit(f *FeedbackEntry) error {
	if f.Rating < 1 || f.Rating > 5 {
		return ErrInvalidRating
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, registered := r.regs[f.EventID][f.UserID]; !registered {
		return ErrNotAParticipant
	}
	entries := r.feedback[f.EventID]
	if entries == nil {
		entries = map[int64]FeedbackEntry{}
		r.feedback[f.EventID] = entries
	}
	if _, dup := entries[f.UserID]; dup {
		return ErrDuplicateFeedback
	}
	r.nextFbID++
	f.ID = r.nextFbID
	f.CreatedAt = time.Now().UTC()
	entries[f.UserID] = *f
	return nil
}

func (r *memFeedbackRepo) ListByEvent(eventID string) ([]FeedbackEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []FeedbackEntry{}
	for _, f := range r.feedback[eventID] {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memFeedbackRepo) Summary(eventID string) (FeedbackSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.feedback[eventID]
	s := FeedbackSummary{Count: len(entries)}
	if len(entries) == 0 {
		return s, nil
	}
	sum := 0
	for _, f := range entries {
		sum += f.Rating
	}
	avg := float64(int(float64(sum)/float64(len(entries))*10+0.5)) / 10
	s.Average = &avg
	return s, nil
}
