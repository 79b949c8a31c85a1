// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"poptrack/internal/models"
)

// BranchStore manages the per-employee branch registry and the user-to-branch
// assignments that scope what field users can submit against.
type BranchStore struct {
	db *sql.DB
}

// NewBranchStore returns a new BranchStore.
func NewBranchStore(db *sql.DB) *BranchStore {
	return &BranchStore{db: db}
}

const branchColumns = `id, branch_name, shop_code, employee_code, created_at`

func scanBranch(scanner interface{ Scan(...any) error }) (*models.Branch, error) {
	var b models.Branch
	if err := scanner.Scan(&b.ID, &b.BranchName, &b.ShopCode, &b.EmployeeCode, &b.CreatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

// Save registers a branch for an employee, updating the shop code if the
// branch name is already known. A shop code already registered under a
// different branch name for the same employee returns ErrConflict.
func (s *BranchStore) Save(branchName, shopCode, employeeCode string) (*models.Branch, error) {
	// Reject a shop code that is already bound to another branch name for
	// this employee. The upsert below would otherwise trip the
	// (shop_code, employee_code) constraint with a less useful error.
	var existing string
	err := s.db.QueryRow(`
		SELECT branch_name FROM branches
		WHERE shop_code = $1 AND employee_code = $2 AND branch_name <> $3
	`, shopCode, employeeCode, branchName).Scan(&existing)
	if err == nil {
		return nil, fmt.Errorf("shop code %s already registered for branch %q: %w",
			shopCode, existing, ErrConflict)
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("check shop code: %w", err)
	}

	row := s.db.QueryRow(`
		INSERT INTO branches (branch_name, shop_code, employee_code)
		VALUES ($1, $2, $3)
		ON CONFLICT (branch_name, employee_code)
		DO UPDATE SET shop_code = EXCLUDED.shop_code
		RETURNING `+branchColumns,
		branchName, shopCode, employeeCode,
	)
	b, err := scanBranch(row)
	if err != nil {
		return nil, fmt.Errorf("save branch: %w", conflictOr(err))
	}
	return b, nil
}

// FindByShopCode looks up a branch for an employee by shop code. Returns nil
// if not found.
func (s *BranchStore) FindByShopCode(employeeCode, shopCode string) (*models.Branch, error) {
	row := s.db.QueryRow(
		`SELECT `+branchColumns+` FROM branches WHERE employee_code = $1 AND shop_code = $2`,
		employeeCode, shopCode)
	b, err := scanBranch(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find branch by shop code: %w", err)
	}
	return b, nil
}

// SearchForUser returns the branches assigned to a user whose names match
// the search term, joined with the employee's branch registry so shop codes
// come back too. An empty term returns all assigned branches.
func (s *BranchStore) SearchForUser(userID uuid.UUID, employeeCode, term string) ([]models.Branch, error) {
	rows, err := s.db.Query(`
		SELECT b.id, b.branch_name, b.shop_code, b.employee_code, b.created_at
		FROM user_branches ub
		JOIN branches b ON b.branch_name = ub.branch_name AND b.employee_code = $2
		WHERE ub.user_id = $1 AND ($3 = '' OR ub.branch_name ILIKE '%' || $3 || '%')
		ORDER BY b.branch_name
	`, userID, employeeCode, term)
	if err != nil {
		return nil, fmt.Errorf("search branches for user: %w", err)
	}
	defer rows.Close()

	var items []models.Branch
	for rows.Next() {
		b, err := scanBranch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan branch: %w", err)
		}
		items = append(items, *b)
	}
	return items, rows.Err()
}

// AssignmentsForUser returns the branch names assigned to a user.
func (s *BranchStore) AssignmentsForUser(userID uuid.UUID) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT branch_name FROM user_branches WHERE user_id = $1 ORDER BY branch_name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list branch assignments: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// Assign grants a user access to a branch name. Assigning twice is a no-op.
func (s *BranchStore) Assign(userID uuid.UUID, branchName string) error {
	_, err := s.db.Exec(`
		INSERT INTO user_branches (user_id, branch_name) VALUES ($1, $2)
		ON CONFLICT (user_id, branch_name) DO NOTHING
	`, userID, branchName)
	if err != nil {
		return fmt.Errorf("assign branch: %w", err)
	}
	return nil
}

// IsAssigned reports whether the user already has the branch name assigned.
func (s *BranchStore) IsAssigned(userID uuid.UUID, branchName string) (bool, error) {
	var one int
	err := s.db.QueryRow(
		`SELECT 1 FROM user_branches WHERE user_id = $1 AND lower(trim(branch_name)) = lower(trim($2))`,
		userID, branchName).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check branch assignment: %w", err)
	}
	return true, nil
}

// Unassign revokes a user's access to a branch name.
func (s *BranchStore) Unassign(userID uuid.UUID, branchName string) error {
	_, err := s.db.Exec(
		`DELETE FROM user_branches WHERE user_id = $1 AND branch_name = $2`, userID, branchName)
	if err != nil {
		return fmt.Errorf("unassign branch: %w", err)
	}
	return nil
}

// Delete removes one branch from an employee's registry.
func (s *BranchStore) Delete(branchName, employeeCode string) error {
	_, err := s.db.Exec(
		`DELETE FROM branches WHERE branch_name = $1 AND employee_code = $2`, branchName, employeeCode)
	if err != nil {
		return fmt.Errorf("delete branch: %w", err)
	}
	return nil
}

// DeleteByEmployeeCode removes all branches registered by an employee. Used
// when the user account is deleted.
func (s *BranchStore) DeleteByEmployeeCode(code string) error {
	_, err := s.db.Exec(`DELETE FROM branches WHERE employee_code = $1`, code)
	if err != nil {
		return fmt.Errorf("delete branches by employee: %w", err)
	}
	return nil
}
