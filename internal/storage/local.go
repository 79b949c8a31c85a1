// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage provides local-disk file storage for uploaded entry
// photos and model guide images. Files live in a single flat directory;
// the Excel export reads them back from here when embedding previews.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

// Local stores uploaded files under a single directory with
// timestamp-prefixed, sanitized filenames.
type Local struct {
	dir string
	now func() time.Time
}

// NewLocal creates the upload directory if needed and returns a Local store.
func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{dir: dir, now: time.Now}, nil
}

// Save writes an uploaded file to disk and returns the generated filename.
// The name is the upload timestamp plus the sanitized original name, e.g.
// "20250614_153000_shelf_photo.jpg".
func (l *Local) Save(r io.Reader, originalName string) (string, error) {
	filename := l.now().Format("20060102_150405") + "_" + Sanitize(originalName)

	f, err := os.OpenFile(filepath.Join(l.dir, filename), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		// Same second, same name: disambiguate with nanoseconds.
		if os.IsExist(err) {
			filename = l.now().Format("20060102_150405.000000000") + "_" + Sanitize(originalName)
			f, err = os.OpenFile(filepath.Join(l.dir, filename), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		}
		if err != nil {
			return "", fmt.Errorf("create upload file: %w", err)
		}
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(filepath.Join(l.dir, filename))
		return "", fmt.Errorf("write upload file: %w", err)
	}
	return filename, nil
}

// Path returns the on-disk path for a stored filename, or an error if the
// name would escape the upload directory.
func (l *Local) Path(filename string) (string, error) {
	clean := filepath.Base(filepath.Clean(filename))
	if clean != filename || clean == "." || clean == ".." {
		return "", fmt.Errorf("invalid filename %q", filename)
	}
	return filepath.Join(l.dir, clean), nil
}

// Open opens a stored file for reading.
func (l *Local) Open(filename string) (*os.File, error) {
	path, err := l.Path(filename)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// ReadFile reads a stored file fully into memory.
func (l *Local) ReadFile(filename string) ([]byte, error) {
	path, err := l.Path(filename)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// Stat returns file info for a stored file.
func (l *Local) Stat(filename string) (os.FileInfo, error) {
	path, err := l.Path(filename)
	if err != nil {
		return nil, err
	}
	return os.Stat(path)
}

// Delete removes a stored file. Deleting a missing file is not an error;
// entry deletion must succeed even when images are already gone.
func (l *Local) Delete(filename string) error {
	path, err := l.Path(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete upload file: %w", err)
	}
	return nil
}

// Sanitize reduces an arbitrary client-supplied filename to a safe flat
// name: path components are stripped and anything outside letters, digits,
// dot, dash, and underscore becomes an underscore.
func Sanitize(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) && r < 128, unicode.IsDigit(r) && r < 128:
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	// Trim only edge dots: a name reduced entirely to underscores must
	// keep them (and its extension), or "x.jpg" and "y.jpg" would both
	// collapse to "jpg".
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "upload"
	}
	return out
}
