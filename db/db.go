package db

import (
	"database/sql"

	_ "github.com/lib/pq"
)

// Open connects to Postgres and verifies the connection.
func Open(dsn string) (*sql.DB, error) {
	sqldb, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := sqldb.Ping(); err != nil {
		return nil, err
	}
	sqldb.SetMaxOpenConns(20)
	sqldb.SetMaxIdleConns(10)
	return sqldb, nil
}

// CreateTables bootstraps the relational schema. Events themselves live in
// MongoDB; Postgres owns identity, the user<->event registration edge and
// feedback. The registration edge is a single join table with a composite
// unique key, and event_capacity carries the counter whose row lock
// serializes concurrent registrations for the same event.
func CreateTables(sqldb *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			registration_number TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			password TEXT NOT NULL,
			is_verified BOOLEAN NOT NULL DEFAULT FALSE,
			role TEXT NOT NULL DEFAULT 'student',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS event_capacity (
			event_id UUID PRIMARY KEY,
			capacity INT NOT NULL,
			registered INT NOT NULL DEFAULT 0,
			CHECK (registered >= 0 AND registered <= capacity)
		);`,
		`CREATE TABLE IF NOT EXISTS registrations (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id),
			event_id UUID NOT NULL REFERENCES event_capacity(event_id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (user_id, event_id)
		);`,
		`CREATE TABLE IF NOT EXISTS feedback (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id),
			event_id UUID NOT NULL REFERENCES event_capacity(event_id),
			rating INT NOT NULL CHECK (rating BETWEEN 1 AND 5),
			comment TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (user_id, event_id)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := sqldb.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
