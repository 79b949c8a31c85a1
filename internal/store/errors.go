package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrConflict is returned when an insert or update collides with a
// uniqueness constraint (duplicate category name, model per category, etc.).
var ErrConflict = errors.New("already exists")

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// conflictOr wraps a unique violation as ErrConflict, otherwise returns err.
func conflictOr(err error) error {
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}
