// Package store provides database access methods for all application
// entities. Each store struct wraps a *sql.DB and exposes typed query methods.
package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"poptrack/internal/models"
)

// UserStore handles all user-related database operations.
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a new UserStore with the given database connection.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

const userColumns = `id, username, full_name, employee_code, password_hash, is_admin,
	totp_secret, totp_enabled, created_at, updated_at`

func scanUser(scanner interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	err := scanner.Scan(
		&u.ID, &u.Username, &u.FullName, &u.EmployeeCode, &u.PasswordHash, &u.IsAdmin,
		&u.TOTPSecret, &u.TOTPEnabled, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByUsername retrieves a user by username. Returns nil if not found.
func (s *UserStore) FindByUsername(username string) (*models.User, error) {
	row := s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	return u, nil
}

// FindByID retrieves a user by their UUID. Returns nil if not found.
func (s *UserStore) FindByID(id uuid.UUID) (*models.User, error) {
	row := s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

// List returns all users ordered by creation date, with the number of
// branches assigned to each.
func (s *UserStore) List() ([]models.User, error) {
	rows, err := s.db.Query(`
		SELECT u.id, u.username, u.full_name, u.employee_code, u.password_hash, u.is_admin,
		       u.totp_secret, u.totp_enabled, u.created_at, u.updated_at,
		       COUNT(ub.id) AS branch_count
		FROM users u
		LEFT JOIN user_branches ub ON ub.user_id = u.id
		GROUP BY u.id
		ORDER BY u.created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(
			&u.ID, &u.Username, &u.FullName, &u.EmployeeCode, &u.PasswordHash, &u.IsAdmin,
			&u.TOTPSecret, &u.TOTPEnabled, &u.CreatedAt, &u.UpdatedAt,
			&u.BranchCount,
		); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Create inserts a new user with a bcrypt-hashed password. Duplicate
// usernames or employee codes return ErrConflict.
func (s *UserStore) Create(username, password, employeeCode string, fullName *string, isAdmin bool) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	row := s.db.QueryRow(`
		INSERT INTO users (username, full_name, employee_code, password_hash, is_admin)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns,
		username, fullName, employeeCode, string(hash), isAdmin,
	)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", conflictOr(err))
	}
	return u, nil
}

// Update modifies a user's profile fields. The password is only changed when
// newPassword is non-empty.
func (s *UserStore) Update(id uuid.UUID, username, employeeCode string, fullName *string, isAdmin bool, newPassword string) error {
	if newPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		_, err = s.db.Exec(`
			UPDATE users SET username = $1, full_name = $2, employee_code = $3,
				is_admin = $4, password_hash = $5, updated_at = NOW()
			WHERE id = $6
		`, username, fullName, employeeCode, isAdmin, string(hash), id)
		if err != nil {
			return fmt.Errorf("update user: %w", conflictOr(err))
		}
		return nil
	}

	_, err := s.db.Exec(`
		UPDATE users SET username = $1, full_name = $2, employee_code = $3,
			is_admin = $4, updated_at = NOW()
		WHERE id = $5
	`, username, fullName, employeeCode, isAdmin, id)
	if err != nil {
		return fmt.Errorf("update user: %w", conflictOr(err))
	}
	return nil
}

// ChangePassword sets a new bcrypt-hashed password for a user.
func (s *UserStore) ChangePassword(id uuid.UUID, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	_, err = s.db.Exec(
		`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`, string(hash), id)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	return nil
}

// AdminCount returns the number of admin accounts. Deletion of the last
// admin is refused at the handler layer.
func (s *UserStore) AdminCount() (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM users WHERE is_admin = TRUE`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return count, nil
}

// SetTOTPSecret saves the TOTP secret for a user (during 2FA setup).
func (s *UserStore) SetTOTPSecret(userID uuid.UUID, secret string) error {
	_, err := s.db.Exec(
		`UPDATE users SET totp_secret = $1, updated_at = NOW() WHERE id = $2`, secret, userID)
	if err != nil {
		return fmt.Errorf("set totp secret: %w", err)
	}
	return nil
}

// EnableTOTP marks 2FA as active for a user (after successful code verification).
func (s *UserStore) EnableTOTP(userID uuid.UUID) error {
	_, err := s.db.Exec(
		`UPDATE users SET totp_enabled = TRUE, updated_at = NOW() WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("enable totp: %w", err)
	}
	return nil
}

// ResetTOTP clears the TOTP secret and disables 2FA for a user.
// The user will be forced to set up 2FA again on their next login.
func (s *UserStore) ResetTOTP(userID uuid.UUID) error {
	_, err := s.db.Exec(
		`UPDATE users SET totp_secret = NULL, totp_enabled = FALSE, updated_at = NOW() WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("reset totp: %w", err)
	}
	return nil
}

// Delete removes a user by ID. Branch assignments go with it via the
// foreign key; the user's registered branches and entries are cleaned up by
// the caller, which also removes entry image files.
func (s *UserStore) Delete(userID uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// CheckPassword verifies a plaintext password against the user's stored hash.
func (s *UserStore) CheckPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}
