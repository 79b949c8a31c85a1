package store

import (
	"database/sql"
	"fmt"

	"poptrack/internal/models"
)

// ModelImageStore manages per-model guide images.
type ModelImageStore struct {
	db *sql.DB
}

// NewModelImageStore returns a new ModelImageStore.
func NewModelImageStore(db *sql.DB) *ModelImageStore {
	return &ModelImageStore{db: db}
}

const modelImageColumns = `id, model_name, category_name, filename, created_at`

func scanModelImage(scanner interface{ Scan(...any) error }) (*models.ModelImage, error) {
	var m models.ModelImage
	if err := scanner.Scan(&m.ID, &m.ModelName, &m.CategoryName, &m.Filename, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// Upsert stores the guide image for a (model, category) pair, replacing any
// previous one. The previous filename is returned so the caller can delete
// the old file from disk.
func (s *ModelImageStore) Upsert(model, category, filename string) (previous string, err error) {
	err = s.db.QueryRow(`
		SELECT filename FROM model_images WHERE model_name = $1 AND category_name = $2
	`, model, category).Scan(&previous)
	if err != nil && err != sql.ErrNoRows {
		return "", fmt.Errorf("find previous model image: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO model_images (model_name, category_name, filename)
		VALUES ($1, $2, $3)
		ON CONFLICT (model_name, category_name) DO UPDATE SET filename = EXCLUDED.filename
	`, model, category, filename)
	if err != nil {
		return "", fmt.Errorf("upsert model image: %w", err)
	}
	return previous, nil
}

// Find retrieves the guide image for a (model, category) pair. Returns nil
// if none has been uploaded.
func (s *ModelImageStore) Find(model, category string) (*models.ModelImage, error) {
	row := s.db.QueryRow(
		`SELECT `+modelImageColumns+` FROM model_images WHERE model_name = $1 AND category_name = $2`,
		model, category)
	m, err := scanModelImage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find model image: %w", err)
	}
	return m, nil
}

// Delete removes the guide image row for a (model, category) pair and
// returns the filename that was stored, or empty if none existed.
func (s *ModelImageStore) Delete(model, category string) (string, error) {
	var filename string
	err := s.db.QueryRow(`
		DELETE FROM model_images WHERE model_name = $1 AND category_name = $2
		RETURNING filename
	`, model, category).Scan(&filename)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("delete model image: %w", err)
	}
	return filename, nil
}
