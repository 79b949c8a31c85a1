// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"poptrack/internal/report"
	"poptrack/internal/storage"
	"poptrack/internal/store"
)

// Admin groups the entry review and export handlers.
type Admin struct {
	entries *store.EntryStore
	files   *storage.Local
	reports *report.Generator
}

// NewAdmin creates a new Admin handler group.
func NewAdmin(entries *store.EntryStore, files *storage.Local, reports *report.Generator) *Admin {
	return &Admin{
		entries: entries,
		files:   files,
		reports: reports,
	}
}

// parseEntryFilter reads the shared filter query parameters. Dates use the
// date-picker format; a bad date is treated as unset.
func parseEntryFilter(r *http.Request) store.Filter {
	q := r.URL.Query()
	f := store.Filter{
		Employee: q.Get("employee"),
		Branch:   q.Get("branch"),
		Model:    q.Get("model"),
	}
	if v := q.Get("date_from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			f.DateFrom = &t
		}
	}
	if v := q.Get("date_to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			f.DateTo = &t
		}
	}
	return f
}

// Entries returns the filtered entry list plus the distinct values that
// populate the dashboard filter dropdowns.
func (a *Admin) Entries(w http.ResponseWriter, r *http.Request) {
	entries, err := a.entries.List(parseEntryFilter(r))
	if err != nil {
		serverError(w, "list entries", err)
		return
	}

	employees, err := a.entries.DistinctEmployees()
	if err != nil {
		serverError(w, "distinct employees", err)
		return
	}
	branches, err := a.entries.DistinctBranches()
	if err != nil {
		serverError(w, "distinct branches", err)
		return
	}
	models, err := a.entries.DistinctModels()
	if err != nil {
		serverError(w, "distinct models", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"entries": entries,
		"filters": map[string]any{
			"employees": employees,
			"branches":  branches,
			"models":    models,
		},
	})
}

// EntryDelete removes an entry and its stored photos.
func (a *Admin) EntryDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		fail(w, http.StatusBadRequest, "Invalid entry ID")
		return
	}

	entry, err := a.entries.Delete(id)
	if err != nil {
		serverError(w, "delete entry", err)
		return
	}
	if entry == nil {
		fail(w, http.StatusNotFound, "Entry not found")
		return
	}

	for _, name := range entry.ImageList() {
		if err := a.files.Delete(name); err != nil {
			slog.Warn("entry image cleanup failed", "file", name, "error", err)
		}
	}

	ok(w, "Entry deleted successfully")
}

// ExportSimple streams the formatted XLSX report without images.
func (a *Admin) ExportSimple(w http.ResponseWriter, r *http.Request) {
	entries, err := a.entries.List(parseEntryFilter(r))
	if err != nil {
		serverError(w, "list entries for export", err)
		return
	}

	buf, err := a.reports.BuildSimple(entries)
	if err != nil {
		if errors.Is(err, report.ErrNoEntries) {
			fail(w, http.StatusBadRequest, "No data to export with the selected filters")
			return
		}
		serverError(w, "build simple export", err)
		return
	}

	sendWorkbook(w, a.reports.SimpleFilename(), buf.Bytes())
}

// ExportEnhanced streams the XLSX report with embedded entry photos. Image
// loading respects the request context, so an abandoned download stops the
// work.
func (a *Admin) ExportEnhanced(w http.ResponseWriter, r *http.Request) {
	entries, err := a.entries.List(parseEntryFilter(r))
	if err != nil {
		serverError(w, "list entries for export", err)
		return
	}

	buf, err := a.reports.BuildEnhanced(r.Context(), entries)
	if err != nil {
		if errors.Is(err, report.ErrNoEntries) {
			fail(w, http.StatusBadRequest, "No data to export with the selected filters")
			return
		}
		serverError(w, "build enhanced export", err)
		return
	}

	sendWorkbook(w, a.reports.EnhancedFilename(), buf.Bytes())
}

// sendWorkbook writes an XLSX payload as an attachment download.
func sendWorkbook(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", report.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	if _, err := w.Write(data); err != nil {
		slog.Warn("export download aborted", "file", filename, "error", err)
	}
}
