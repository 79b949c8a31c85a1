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

// ModelStore manages product models in the database.
type ModelStore struct {
	db *sql.DB
}

// NewModelStore returns a new ModelStore.
func NewModelStore(db *sql.DB) *ModelStore {
	return &ModelStore{db: db}
}

const modelColumns = `id, name, category_name, created_at`

func scanModel(scanner interface{ Scan(...any) error }) (*models.ProductModel, error) {
	var m models.ProductModel
	if err := scanner.Scan(&m.ID, &m.Name, &m.CategoryName, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns all models ordered by category then name.
func (s *ModelStore) List() ([]models.ProductModel, error) {
	rows, err := s.db.Query(`SELECT ` + modelColumns + ` FROM models ORDER BY category_name, name`)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	defer rows.Close()
	return collectModels(rows)
}

// ListByCategory returns the models belonging to one category, ordered by name.
func (s *ModelStore) ListByCategory(category string) ([]models.ProductModel, error) {
	rows, err := s.db.Query(
		`SELECT `+modelColumns+` FROM models WHERE category_name = $1 ORDER BY name`, category)
	if err != nil {
		return nil, fmt.Errorf("list models by category: %w", err)
	}
	defer rows.Close()
	return collectModels(rows)
}

func collectModels(rows *sql.Rows) ([]models.ProductModel, error) {
	var items []models.ProductModel
	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan model: %w", err)
		}
		items = append(items, *m)
	}
	return items, rows.Err()
}

// FindByID retrieves a model by ID. Returns nil if not found.
func (s *ModelStore) FindByID(id uuid.UUID) (*models.ProductModel, error) {
	row := s.db.QueryRow(`SELECT `+modelColumns+` FROM models WHERE id = $1`, id)
	m, err := scanModel(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find model by id: %w", err)
	}
	return m, nil
}

// Find retrieves a model by (name, category). Returns nil if not found.
func (s *ModelStore) Find(name, category string) (*models.ProductModel, error) {
	row := s.db.QueryRow(
		`SELECT `+modelColumns+` FROM models WHERE name = $1 AND category_name = $2`, name, category)
	m, err := scanModel(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find model: %w", err)
	}
	return m, nil
}

// Create inserts a new model and returns it. Duplicate (name, category)
// pairs return ErrConflict.
func (s *ModelStore) Create(name, category string) (*models.ProductModel, error) {
	row := s.db.QueryRow(`
		INSERT INTO models (name, category_name) VALUES ($1, $2)
		RETURNING `+modelColumns, name, category)
	m, err := scanModel(row)
	if err != nil {
		return nil, fmt.Errorf("create model: %w", conflictOr(err))
	}
	return m, nil
}
