package models

import (
	"database/sql"
	"errors"

	"campus-events/utils"
)

type sqlUserRepo struct{ db *sql.DB }

func NewSQLUserRepository(db *sql.DB) UserRepository {
	return &sqlUserRepo{db}
}

const userColumns = `id, registration_number, email, name, password, is_verified, role, created_at`

func scanUser(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.RegistrationNumber, &u.Email, &u.Name, &u.Password, &u.IsVerified, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

func (r *sqlUserRepo) Create(u *User) error {
	hashed, err := utils.HashPassword(u.Password)
	if err != nil {
		return err
	}
	u.Password = hashed
	if u.Role == "" {
		u.Role = RoleStudent
	}

	err = r.db.QueryRow(
		`INSERT INTO users(registration_number, email, name, password, is_verified, role)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		u.RegistrationNumber, u.Email, u.Name, u.Password, u.IsVerified, u.Role,
	).Scan(&u.ID, &u.CreatedAt)
	if pqErrCode(err, pqUniqueViolation) {
		return ErrDuplicateUser
	}
	return err
}

func (r *sqlUserRepo) GetByID(id int64) (User, error) {
	return scanUser(r.db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *sqlUserRepo) ValidateCredentials(registrationNumber, plain string) (User, error) {
	u, err := scanUser(r.db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE registration_number = $1`, registrationNumber))
	if err != nil {
		return User{}, errors.New("invalid credentials")
	}
	if !utils.CheckPasswordHash(plain, u.Password) {
		return User{}, errors.New("invalid credentials")
	}
	return u, nil
}

func (r *sqlUserRepo) ValidateAdminCredentials(email, plain string) (User, error) {
	u, err := scanUser(r.db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE email = $1 AND role = $2`, email, RoleAdmin))
	if err != nil {
		return User{}, errors.New("invalid credentials")
	}
	if !utils.CheckPasswordHash(plain, u.Password) {
		return User{}, errors.New("invalid credentials")
	}
	return u, nil
}

// EnsureAdmin returns the bootstrap admin account, creating it on first use
// from the injected configuration.
func (r *sqlUserRepo) EnsureAdmin(email, name, plain string) (User, error) {
	u, err := scanUser(r.db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE email = $1 AND role = $2`, email, RoleAdmin))
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return User{}, err
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

func (r *sqlUserRepo) listStudents(query string, args ...any) ([]User, error) {
	rows, err := r.db.Query(query, args...)
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

func (r *sqlUserRepo) ListStudents() ([]User, error) {
	return r.listStudents(
		`SELECT id, registration_number, email, name, is_verified, role, created_at
		 FROM users WHERE role = $1 ORDER BY created_at DESC`, RoleStudent)
}

func (r *sqlUserRepo) RecentStudents(limit int) ([]User, error) {
	return r.listStudents(
		`SELECT id, registration_number, email, name, is_verified, role, created_at
		 FROM users WHERE role = $1 ORDER BY created_at DESC LIMIT $2`, RoleStudent, limit)
}

func (r *sqlUserRepo) SetVerified(id int64) error {
	res, err := r.db.Exec(`UPDATE users SET is_verified = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Delete removes a student and cascades the removal through every event the
// user is registered for, keeping the capacity counters in step. Admin
// accounts are protected.
func (r *sqlUserRepo) Delete(id int64) error {
	u, err := r.GetByID(id)
	if err != nil {
		return err
	}
	if u.Role == RoleAdmin {
		return ErrAdminProtected
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`UPDATE event_capacity SET registered = registered - 1
		 WHERE event_id IN (SELECT event_id FROM registrations WHERE user_id = $1)
		   AND registered > 0`, id,
	); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM feedback WHERE user_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM registrations WHERE user_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM users WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *sqlUserRepo) CountStudents() (int64, int64, error) {
	var total, verified int64
	err := r.db.QueryRow(
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE is_verified) FROM users WHERE role = $1`,
		RoleStudent,
	).Scan(&total, &verified)
	return total, verified, err
}
