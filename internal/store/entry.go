// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"poptrack/internal/models"
)

// EntryStore manages submitted POP deployment entries.
type EntryStore struct {
	db *sql.DB
}

// NewEntryStore returns a new EntryStore.
func NewEntryStore(db *sql.DB) *EntryStore {
	return &EntryStore{db: db}
}

const entryColumns = `id, employee_name, employee_code, branch, shop_code, model_label,
	display_type, selected_materials, unselected_materials, images, comment, created_at`

func scanEntry(scanner interface{ Scan(...any) error }) (*models.Entry, error) {
	var e models.Entry
	err := scanner.Scan(
		&e.ID, &e.EmployeeName, &e.EmployeeCode, &e.Branch, &e.ShopCode, &e.ModelLabel,
		&e.DisplayType, &e.SelectedMaterials, &e.UnselectedMaterials, &e.Images,
		&e.Comment, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Filter narrows an entry listing. Text fields are case-insensitive
// substring matches; empty fields are ignored. DateTo is inclusive of the
// whole named day.
type Filter struct {
	Employee string
	Branch   string
	Model    string
	DateFrom *time.Time
	DateTo   *time.Time
}

// where builds the WHERE clause and argument list for the filter.
func (f Filter) where() (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Employee != "" {
		add("employee_name ILIKE '%%' || $%d || '%%'", f.Employee)
	}
	if f.Branch != "" {
		add("branch ILIKE '%%' || $%d || '%%'", f.Branch)
	}
	if f.Model != "" {
		add("model_label ILIKE '%%' || $%d || '%%'", f.Model)
	}
	if f.DateFrom != nil {
		add("created_at >= $%d", *f.DateFrom)
	}
	if f.DateTo != nil {
		// Inclusive through the end of the named day.
		end := f.DateTo.Truncate(24 * time.Hour).Add(24 * time.Hour)
		add("created_at < $%d", end)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns entries matching the filter, newest first.
func (s *EntryStore) List(f Filter) ([]models.Entry, error) {
	where, args := f.where()
	rows, err := s.db.Query(
		`SELECT `+entryColumns+` FROM entries`+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var items []models.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		items = append(items, *e)
	}
	return items, rows.Err()
}

// Create inserts a new entry and returns it with its generated ID and
// timestamp.
func (s *EntryStore) Create(e *models.Entry) (*models.Entry, error) {
	row := s.db.QueryRow(`
		INSERT INTO entries (employee_name, employee_code, branch, shop_code, model_label,
			display_type, selected_materials, unselected_materials, images, comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+entryColumns,
		e.EmployeeName, e.EmployeeCode, e.Branch, e.ShopCode, e.ModelLabel,
		e.DisplayType, e.SelectedMaterials, e.UnselectedMaterials, e.Images, e.Comment,
	)
	created, err := scanEntry(row)
	if err != nil {
		return nil, fmt.Errorf("create entry: %w", err)
	}
	return created, nil
}

// FindByID retrieves an entry by ID. Returns nil if not found.
func (s *EntryStore) FindByID(id uuid.UUID) (*models.Entry, error) {
	row := s.db.QueryRow(`SELECT `+entryColumns+` FROM entries WHERE id = $1`, id)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find entry by id: %w", err)
	}
	return e, nil
}

// Delete removes an entry and returns the deleted row so the caller can
// clean up its image files. Returns nil if the entry did not exist.
func (s *EntryStore) Delete(id uuid.UUID) (*models.Entry, error) {
	row := s.db.QueryRow(`DELETE FROM entries WHERE id = $1 RETURNING `+entryColumns, id)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete entry: %w", err)
	}
	return e, nil
}

// DeleteByEmployeeCode removes all entries submitted under an employee code
// and returns them for image cleanup. Used when a user account is deleted.
func (s *EntryStore) DeleteByEmployeeCode(code string) ([]models.Entry, error) {
	rows, err := s.db.Query(
		`DELETE FROM entries WHERE employee_code = $1 RETURNING `+entryColumns, code)
	if err != nil {
		return nil, fmt.Errorf("delete entries by employee: %w", err)
	}
	defer rows.Close()

	var items []models.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deleted entry: %w", err)
		}
		items = append(items, *e)
	}
	return items, rows.Err()
}

// DistinctEmployees returns the distinct employee names appearing in
// entries, for the dashboard filter dropdown.
func (s *EntryStore) DistinctEmployees() ([]string, error) {
	return s.distinct("employee_name")
}

// DistinctBranches returns the distinct branch names appearing in entries.
func (s *EntryStore) DistinctBranches() ([]string, error) {
	return s.distinct("branch")
}

// DistinctModels returns the distinct composite model labels appearing in
// entries.
func (s *EntryStore) DistinctModels() ([]string, error) {
	return s.distinct("model_label")
}

func (s *EntryStore) distinct(column string) ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT ` + column + ` FROM entries ORDER BY ` + column)
	if err != nil {
		return nil, fmt.Errorf("distinct %s: %w", column, err)
	}
	defer rows.Close()

	var items []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan distinct %s: %w", column, err)
		}
		items = append(items, v)
	}
	return items, rows.Err()
}
