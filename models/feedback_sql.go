package models

import (
	"database/sql"
)

type sqlFeedbackRepo struct{ db *sql.DB }

func NewSQLFeedbackRepository(db *sql.DB) FeedbackRepository {
	return &sqlFeedbackRepo{db}
}

// Submit records one immutable feedback entry per (user, event) pair. The
// participant check and the insert run in the same transaction so a
// concurrent unregister cannot slip between them; duplicates are rejected by
// the unique pair constraint.
func (r *sqlFeedbackRepo) Submit(f *FeedbackEntry) error {
	if f.Rating < 1 || f.Rating > 5 {
		return ErrInvalidRating
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var registered bool
	if err := tx.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM registrations WHERE user_id = $1 AND event_id = $2)`,
		f.UserID, f.EventID,
	).Scan(&registered); err != nil {
		return err
	}
	if !registered {
		return ErrNotAParticipant
	}

	if err := tx.QueryRow(
		`INSERT INTO feedback(user_id, event_id, rating, comment)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		f.UserID, f.EventID, f.Rating, f.Comment,
	).Scan(&f.ID, &f.CreatedAt); err != nil {
		if pqErrCode(err, pqUniqueViolation) {
			return ErrDuplicateFeedback
		}
		return err
	}

	return tx.Commit()
}

func (r *sqlFeedbackRepo) ListByEvent(eventID string) ([]FeedbackEntry, error) {
	rows, err := r.db.Query(
		`SELECT id, user_id, event_id, rating, comment, created_at
		 FROM feedback WHERE event_id = $1 ORDER BY created_at`,
		eventID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []FeedbackEntry{}
	for rows.Next() {
		var f FeedbackEntry
		if err := rows.Scan(&f.ID, &f.UserID, &f.EventID, &f.Rating, &f.Comment, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Summary derives the average rating at read time, rounded to one decimal
// place. The average is absent when no feedback exists.
func (r *sqlFeedbackRepo) Summary(eventID string) (FeedbackSummary, error) {
	var (
		count int
		avg   sql.NullFloat64
	)
	if err := r.db.QueryRow(
		`SELECT COUNT(*), ROUND(AVG(rating)::numeric, 1) FROM feedback WHERE event_id = $1`,
		eventID,
	).Scan(&count, &avg); err != nil {
		return FeedbackSummary{}, err
	}

	s := FeedbackSummary{Count: count}
	if avg.Valid {
		v := avg.Float64
		s.Average = &v
	}
	return s, nil
}
