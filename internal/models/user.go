// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents an application user. Field employees submit POP entries;
// admins manage the taxonomy, review entries, and run exports.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	FullName     *string   `json:"full_name"`
	EmployeeCode string    `json:"employee_code"`
	PasswordHash string    `json:"-"` // Never serialize the hash
	IsAdmin      bool      `json:"is_admin"`
	TOTPSecret   *string   `json:"-"` // Nullable; set during 2FA setup
	TOTPEnabled  bool      `json:"totp_enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Virtual field populated by store methods.
	BranchCount int `json:"branch_count,omitempty"`
}

// DisplayName returns the full name when present, otherwise the username.
// Reports record this as the employee name.
func (u *User) DisplayName() string {
	if u.FullName != nil && *u.FullName != "" {
		return *u.FullName
	}
	return u.Username
}

// Needs2FASetup returns true if the user has not completed 2FA enrollment.
// Admin accounts must set up 2FA on their first login.
func (u *User) Needs2FASetup() bool {
	return u.IsAdmin && !u.TOTPEnabled
}
