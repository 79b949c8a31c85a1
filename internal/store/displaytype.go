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

// DisplayTypeStore manages display types in the database.
type DisplayTypeStore struct {
	db *sql.DB
}

// NewDisplayTypeStore returns a new DisplayTypeStore.
func NewDisplayTypeStore(db *sql.DB) *DisplayTypeStore {
	return &DisplayTypeStore{db: db}
}

const displayTypeColumns = `id, name, category_name, created_at`

func scanDisplayType(scanner interface{ Scan(...any) error }) (*models.DisplayType, error) {
	var d models.DisplayType
	if err := scanner.Scan(&d.ID, &d.Name, &d.CategoryName, &d.CreatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

// List returns all display types ordered by category then name.
func (s *DisplayTypeStore) List() ([]models.DisplayType, error) {
	rows, err := s.db.Query(`SELECT ` + displayTypeColumns + ` FROM display_types ORDER BY category_name, name`)
	if err != nil {
		return nil, fmt.Errorf("list display types: %w", err)
	}
	defer rows.Close()
	return collectDisplayTypes(rows)
}

// ListByCategory returns the display types for one category, ordered by name.
func (s *DisplayTypeStore) ListByCategory(category string) ([]models.DisplayType, error) {
	rows, err := s.db.Query(
		`SELECT `+displayTypeColumns+` FROM display_types WHERE category_name = $1 ORDER BY name`, category)
	if err != nil {
		return nil, fmt.Errorf("list display types by category: %w", err)
	}
	defer rows.Close()
	return collectDisplayTypes(rows)
}

func collectDisplayTypes(rows *sql.Rows) ([]models.DisplayType, error) {
	var items []models.DisplayType
	for rows.Next() {
		d, err := scanDisplayType(rows)
		if err != nil {
			return nil, fmt.Errorf("scan display type: %w", err)
		}
		items = append(items, *d)
	}
	return items, rows.Err()
}

// FindByID retrieves a display type by ID. Returns nil if not found.
func (s *DisplayTypeStore) FindByID(id uuid.UUID) (*models.DisplayType, error) {
	row := s.db.QueryRow(`SELECT `+displayTypeColumns+` FROM display_types WHERE id = $1`, id)
	d, err := scanDisplayType(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find display type by id: %w", err)
	}
	return d, nil
}

// Create inserts a new display type and returns it. Duplicate
// (name, category) pairs return ErrConflict.
func (s *DisplayTypeStore) Create(name, category string) (*models.DisplayType, error) {
	row := s.db.QueryRow(`
		INSERT INTO display_types (name, category_name) VALUES ($1, $2)
		RETURNING `+displayTypeColumns, name, category)
	d, err := scanDisplayType(row)
	if err != nil {
		return nil, fmt.Errorf("create display type: %w", conflictOr(err))
	}
	return d, nil
}
