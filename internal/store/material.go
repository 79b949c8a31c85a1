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

// MaterialStore manages POP materials in the database.
type MaterialStore struct {
	db *sql.DB
}

// NewMaterialStore returns a new MaterialStore.
func NewMaterialStore(db *sql.DB) *MaterialStore {
	return &MaterialStore{db: db}
}

const materialColumns = `id, name, model_name, category_name, created_at`

func scanMaterial(scanner interface{ Scan(...any) error }) (*models.Material, error) {
	var m models.Material
	if err := scanner.Scan(&m.ID, &m.Name, &m.ModelName, &m.CategoryName, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns all materials ordered by category, model, then name.
func (s *MaterialStore) List() ([]models.Material, error) {
	rows, err := s.db.Query(`SELECT ` + materialColumns + ` FROM materials ORDER BY category_name, model_name, name`)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	defer rows.Close()
	return collectMaterials(rows)
}

// ListByModel returns the materials catalogued for one model, in insertion
// order. The submission flow uses this ordering to compute the missing set.
func (s *MaterialStore) ListByModel(model string) ([]models.Material, error) {
	rows, err := s.db.Query(
		`SELECT `+materialColumns+` FROM materials WHERE model_name = $1 ORDER BY created_at, name`, model)
	if err != nil {
		return nil, fmt.Errorf("list materials by model: %w", err)
	}
	defer rows.Close()
	return collectMaterials(rows)
}

func collectMaterials(rows *sql.Rows) ([]models.Material, error) {
	var items []models.Material
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		items = append(items, *m)
	}
	return items, rows.Err()
}

// NamesByModel returns just the material names for a model, preserving the
// catalog order.
func (s *MaterialStore) NamesByModel(model string) ([]string, error) {
	items, err := s.ListByModel(model)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(items))
	for _, m := range items {
		names = append(names, m.Name)
	}
	return names, nil
}

// FindByID retrieves a material by ID. Returns nil if not found.
func (s *MaterialStore) FindByID(id uuid.UUID) (*models.Material, error) {
	row := s.db.QueryRow(`SELECT `+materialColumns+` FROM materials WHERE id = $1`, id)
	m, err := scanMaterial(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find material by id: %w", err)
	}
	return m, nil
}

// Create inserts a new material and returns it. Duplicate (name, model)
// pairs return ErrConflict.
func (s *MaterialStore) Create(name, model, category string) (*models.Material, error) {
	row := s.db.QueryRow(`
		INSERT INTO materials (name, model_name, category_name) VALUES ($1, $2, $3)
		RETURNING `+materialColumns, name, model, category)
	m, err := scanMaterial(row)
	if err != nil {
		return nil, fmt.Errorf("create material: %w", conflictOr(err))
	}
	return m, nil
}
