// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package taxonomy implements the cascading update engine for the product
// taxonomy. Renaming or deleting a category, model, display type, or
// material must keep the scoped taxonomy tables and the denormalized labels
// on historical entries consistent, so every mutation runs as a single
// database transaction: either every affected row changes or none do.
package taxonomy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when the target row does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a rename collides with an existing name.
var ErrConflict = errors.New("name already in use")

// Engine executes cascading taxonomy mutations.
type Engine struct {
	db *sql.DB
}

// NewEngine returns a new Engine.
func NewEngine(db *sql.DB) *Engine {
	return &Engine{db: db}
}

// conflictOr maps a unique constraint violation (SQLSTATE 23505) to
// ErrConflict.
func conflictOr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrConflict
	}
	return err
}

// RenameCategory renames a category everywhere it appears: the category row
// itself, the category_name columns of models, display types, and materials,
// and the "{category} - {model}" labels on entries.
//
// Entry labels are rewritten by replacing the prefix before " - " rather
// than substring replacement, so a category name that also appears inside a
// model name is left alone.
func (e *Engine) RenameCategory(ctx context.Context, id uuid.UUID, newName string) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("rename category begin: %w", err)
	}
	defer tx.Rollback()

	var oldName string
	err = tx.QueryRowContext(ctx,
		`SELECT name FROM categories WHERE id = $1`, id).Scan(&oldName)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("find category: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE categories SET name = $1 WHERE id = $2`, newName, id); err != nil {
		return fmt.Errorf("rename category: %w", conflictOr(err))
	}

	for _, table := range []string{"models", "display_types", "materials", "model_images"} {
		if _, err := tx.ExecContext(ctx,
			`UPDATE `+table+` SET category_name = $1 WHERE category_name = $2`,
			newName, oldName); err != nil {
			return fmt.Errorf("rename category in %s: %w", table, conflictOr(err))
		}
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE entries
		SET model_label = $1 || substring(model_label FROM length($2) + 1)
		WHERE model_label LIKE $2 || ' - %'
	`, newName, oldName)
	if err != nil {
		return fmt.Errorf("rename category in entries: %w", err)
	}
	rewritten, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("rename category commit: %w", err)
	}

	slog.Info("category renamed",
		"old", oldName, "new", newName, "entries_rewritten", rewritten)
	return nil
}

// RenameModel renames a model and optionally moves it to another category.
// The model row, its materials, and the entry labels matching the exact old
// composite label are all updated.
func (e *Engine) RenameModel(ctx context.Context, id uuid.UUID, newName, newCategory string) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("rename model begin: %w", err)
	}
	defer tx.Rollback()

	var oldName, oldCategory string
	err = tx.QueryRowContext(ctx,
		`SELECT name, category_name FROM models WHERE id = $1`, id).Scan(&oldName, &oldCategory)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("find model: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE models SET name = $1, category_name = $2 WHERE id = $3`,
		newName, newCategory, id); err != nil {
		return fmt.Errorf("rename model: %w", conflictOr(err))
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE materials SET model_name = $1, category_name = $2 WHERE model_name = $3`,
		newName, newCategory, oldName); err != nil {
		return fmt.Errorf("rename model in materials: %w", conflictOr(err))
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE model_images SET model_name = $1, category_name = $2
		 WHERE model_name = $3 AND category_name = $4`,
		newName, newCategory, oldName, oldCategory); err != nil {
		return fmt.Errorf("rename model in model_images: %w", conflictOr(err))
	}

	oldLabel := oldCategory + " - " + oldName
	newLabel := newCategory + " - " + newName
	res, err := tx.ExecContext(ctx,
		`UPDATE entries SET model_label = $1 WHERE model_label = $2`, newLabel, oldLabel)
	if err != nil {
		return fmt.Errorf("rename model in entries: %w", err)
	}
	rewritten, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("rename model commit: %w", err)
	}

	slog.Info("model renamed",
		"old", oldLabel, "new", newLabel, "entries_rewritten", rewritten)
	return nil
}

// RenameDisplayType renames a display type and updates entries carrying the
// old name.
//
// Entries store the display type as a bare name with no category, so the
// entry update matches every entry with that name even if another category
// defines a display type with the same name. That matches how the data has
// always been kept; fixing it would require entries to record the category
// of their display type.
func (e *Engine) RenameDisplayType(ctx context.Context, id uuid.UUID, newName, newCategory string) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("rename display type begin: %w", err)
	}
	defer tx.Rollback()

	var oldName string
	err = tx.QueryRowContext(ctx,
		`SELECT name FROM display_types WHERE id = $1`, id).Scan(&oldName)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("find display type: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE display_types SET name = $1, category_name = $2 WHERE id = $3`,
		newName, newCategory, id); err != nil {
		return fmt.Errorf("rename display type: %w", conflictOr(err))
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE entries SET display_type = $1 WHERE display_type = $2`, newName, oldName)
	if err != nil {
		return fmt.Errorf("rename display type in entries: %w", err)
	}
	rewritten, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("rename display type commit: %w", err)
	}

	slog.Info("display type renamed",
		"old", oldName, "new", newName, "entries_rewritten", rewritten)
	return nil
}

// RenameMaterial updates a material row in place. Entries keep the material
// names they recorded at submission time, so no entry rows are touched.
func (e *Engine) RenameMaterial(ctx context.Context, id uuid.UUID, newName, newModel, newCategory string) error {
	res, err := e.db.ExecContext(ctx,
		`UPDATE materials SET name = $1, model_name = $2, category_name = $3 WHERE id = $4`,
		newName, newModel, newCategory, id)
	if err != nil {
		return fmt.Errorf("rename material: %w", conflictOr(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCategory removes a category and everything scoped under it: its
// models, display types, materials, and guide images. Entries referencing
// the category keep their labels; history is never destroyed by taxonomy
// deletion.
func (e *Engine) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete category begin: %w", err)
	}
	defer tx.Rollback()

	var name string
	err = tx.QueryRowContext(ctx,
		`DELETE FROM categories WHERE id = $1 RETURNING name`, id).Scan(&name)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	for _, table := range []string{"models", "display_types", "materials", "model_images"} {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM `+table+` WHERE category_name = $1`, name); err != nil {
			return fmt.Errorf("delete category scope in %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete category commit: %w", err)
	}

	slog.Info("category deleted", "name", name)
	return nil
}

// DeleteModel removes a model and its materials. Entries are untouched.
func (e *Engine) DeleteModel(ctx context.Context, id uuid.UUID) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete model begin: %w", err)
	}
	defer tx.Rollback()

	var name, category string
	err = tx.QueryRowContext(ctx,
		`DELETE FROM models WHERE id = $1 RETURNING name, category_name`, id).Scan(&name, &category)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete model: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM materials WHERE model_name = $1`, name); err != nil {
		return fmt.Errorf("delete model materials: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM model_images WHERE model_name = $1 AND category_name = $2`, name, category); err != nil {
		return fmt.Errorf("delete model guide image: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete model commit: %w", err)
	}

	slog.Info("model deleted", "name", name, "category", category)
	return nil
}

// DeleteDisplayType removes a single display type row.
func (e *Engine) DeleteDisplayType(ctx context.Context, id uuid.UUID) error {
	return e.deleteRow(ctx, "display_types", id)
}

// DeleteMaterial removes a single material row.
func (e *Engine) DeleteMaterial(ctx context.Context, id uuid.UUID) error {
	return e.deleteRow(ctx, "materials", id)
}

func (e *Engine) deleteRow(ctx context.Context, table string, id uuid.UUID) error {
	res, err := e.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
