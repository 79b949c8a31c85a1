package models

import (
	"time"

	"github.com/google/uuid"
)

// Branch is a store branch known to one employee. The same branch name or
// shop code may be registered by different employees independently; within
// one employee's scope both must be unique.
type Branch struct {
	ID           uuid.UUID `json:"id"`
	BranchName   string    `json:"branch_name"`
	ShopCode     string    `json:"shop_code"`
	EmployeeCode string    `json:"employee_code"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserBranch assigns a branch name to a user, limiting which branches the
// user sees in the data-entry screens.
type UserBranch struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	BranchName string    `json:"branch_name"`
	CreatedAt  time.Time `json:"created_at"`
}

// ModelImage is the reference photo shown to field users so they can verify
// the POP setup for a model. One per (model, category).
type ModelImage struct {
	ID           uuid.UUID `json:"id"`
	ModelName    string    `json:"model_name"`
	CategoryName string    `json:"category_name"`
	Filename     string    `json:"filename"`
	CreatedAt    time.Time `json:"created_at"`
}
