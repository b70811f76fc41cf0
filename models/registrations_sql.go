package models

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

type sqlRegistrationRepo struct{ db *sql.DB }

func NewSQLRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &sqlRegistrationRepo{db}
}

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

func pqErrCode(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == code
}

// Register commits both sides of the user<->event edge in one transaction.
// The insert relies on UNIQUE(user_id, event_id) to reject duplicates; the
// conditional counter update takes a row lock on event_capacity, so of N
// concurrent registrations racing for the last slot exactly one commits and
// the rest roll back with ErrEventFull.
func (r *sqlRegistrationRepo) Register(userID int64, eventID string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO registrations(user_id, event_id) VALUES ($1, $2)`,
		userID, eventID,
	); err != nil {
		switch {
		case pqErrCode(err, pqUniqueViolation):
			return ErrAlreadyRegistered
		case pqErrCode(err, pqForeignKeyViolation):
			return ErrEventNotFound
		}
		return err
	}

	res, err := tx.Exec(
		`UPDATE event_capacity SET registered = registered + 1
		 WHERE event_id = $1 AND registered < capacity`,
		eventID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrEventFull
	}

	return tx.Commit()
}

func (r *sqlRegistrationRepo) Cancel(userID int64, eventID string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`DELETE FROM registrations WHERE user_id = $1 AND event_id = $2`,
		userID, eventID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotRegistered
	}

	if _, err := tx.Exec(
		`UPDATE event_capacity SET registered = registered - 1
		 WHERE event_id = $1 AND registered > 0`,
		eventID,
	); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *sqlRegistrationRepo) IsRegistered(userID int64, eventID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM registrations WHERE user_id = $1 AND event_id = $2)`,
		userID, eventID,
	).Scan(&exists)
	return exists, err
}

func (r *sqlRegistrationRepo) ListByEvent(eventID string) ([]User, error) {
	rows, err := r.db.Query(
		`SELECT u.id, u.registration_number, u.email, u.name, u.is_verified, u.role, u.created_at
		 FROM registrations r JOIN users u ON u.id = r.user_id
		 WHERE r.event_id = $1
		 ORDER BY r.created_at`,
		eventID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []User{}
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.RegistrationNumber, &u.Email, &u.Name, &u.IsVerified, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *sqlRegistrationRepo) EventIDsByUser(userID int64) ([]string, error) {
	rows, err := r.db.Query(
		`SELECT event_id FROM registrations WHERE user_id = $1 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *sqlRegistrationRepo) Count(eventID string) (int, error) {
	var n int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1`, eventID,
	).Scan(&n)
	return n, err
}

// InitCapacity creates the counter row that backs the capacity invariant for
// a newly created event.
func (r *sqlRegistrationRepo) InitCapacity(eventID string, capacity int) error {
	_, err := r.db.Exec(
		`INSERT INTO event_capacity(event_id, capacity) VALUES ($1, $2)`,
		eventID, capacity,
	)
	return err
}

// SetCapacity refuses to shrink an event below its current registration
// count; that would silently break the capacity invariant.
func (r *sqlRegistrationRepo) SetCapacity(eventID string, capacity int) error {
	res, err := r.db.Exec(
		`UPDATE event_capacity SET capacity = $2
		 WHERE event_id = $1 AND registered <= $2`,
		eventID, capacity,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists bool
		if err := r.db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM event_capacity WHERE event_id = $1)`, eventID,
		).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrEventNotFound
		}
		return ErrCapacityTooSmall
	}
	return nil
}

// RemoveEvent cascades an event deletion through the relational side:
// feedback first, then registrations, then the capacity row the others
// reference.
func (r *sqlRegistrationRepo) RemoveEvent(eventID string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM feedback WHERE event_id = $1`, eventID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM registrations WHERE event_id = $1`, eventID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM event_capacity WHERE event_id = $1`, eventID); err != nil {
		return err
	}
	return tx.Commit()
}
