// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"poptrack/internal/cache"
	"poptrack/internal/middleware"
	"poptrack/internal/models"
	"poptrack/internal/storage"
	"poptrack/internal/store"
)

// maxSubmissionBytes caps a multi-entry submission including photos.
const maxSubmissionBytes = 32 << 20

// Field groups the handlers used by field employees: catalog dropdowns,
// branch lookups, guide images, and entry submission.
type Field struct {
	categories   *store.CategoryStore
	models       *store.ModelStore
	displayTypes *store.DisplayTypeStore
	materials    *store.MaterialStore
	branches     *store.BranchStore
	entries      *store.EntryStore
	modelImages  *store.ModelImageStore
	catalog      *cache.Catalog
	files        *storage.Local
}

// NewField creates a new Field handler group.
func NewField(
	categories *store.CategoryStore,
	productModels *store.ModelStore,
	displayTypes *store.DisplayTypeStore,
	materials *store.MaterialStore,
	branches *store.BranchStore,
	entries *store.EntryStore,
	modelImages *store.ModelImageStore,
	catalog *cache.Catalog,
	files *storage.Local,
) *Field {
	return &Field{
		categories:   categories,
		models:       productModels,
		displayTypes: displayTypes,
		materials:    materials,
		branches:     branches,
		entries:      entries,
		modelImages:  modelImages,
		catalog:      catalog,
		files:        files,
	}
}

// Catalog serves the taxonomy dropdown payloads. Scoped lists (models per
// category, display types per category, materials per model) are cached in
// Valkey; taxonomy mutations invalidate the whole cache.
func (f *Field) Catalog(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	ctx := r.Context()

	switch kind {
	case "categories":
		f.cached(ctx, w, cache.CategoriesKey(), func() (any, error) {
			items, err := f.categories.List()
			if err != nil {
				return nil, err
			}
			names := make([]string, 0, len(items))
			for _, c := range items {
				names = append(names, c.Name)
			}
			return names, nil
		})

	case "models":
		category := r.URL.Query().Get("category")
		if category == "" {
			// Unscoped listing carries the category along; not cached
			// because the management screen is the only consumer.
			items, err := f.models.List()
			if err != nil {
				serverError(w, "list models", err)
				return
			}
			type pair struct {
				Name     string `json:"name"`
				Category string `json:"category"`
			}
			data := make([]pair, 0, len(items))
			for _, m := range items {
				data = append(data, pair{Name: m.Name, Category: m.CategoryName})
			}
			respondJSON(w, http.StatusOK, map[string]any{"success": true, "data": data})
			return
		}
		f.cached(ctx, w, cache.ModelsKey(category), func() (any, error) {
			items, err := f.models.ListByCategory(category)
			if err != nil {
				return nil, err
			}
			names := make([]string, 0, len(items))
			for _, m := range items {
				names = append(names, m.Name)
			}
			return names, nil
		})

	case "display_types":
		category := r.URL.Query().Get("category")
		if category == "" {
			respondJSON(w, http.StatusOK, map[string]any{"success": true, "data": []string{}})
			return
		}
		f.cached(ctx, w, cache.DisplayTypesKey(category), func() (any, error) {
			items, err := f.displayTypes.ListByCategory(category)
			if err != nil {
				return nil, err
			}
			names := make([]string, 0, len(items))
			for _, d := range items {
				names = append(names, d.Name)
			}
			return names, nil
		})

	case "materials":
		model := r.URL.Query().Get("model")
		if model == "" {
			respondJSON(w, http.StatusOK, map[string]any{"success": true, "data": []string{}})
			return
		}
		f.cached(ctx, w, cache.MaterialsKey(model), func() (any, error) {
			names, err := f.materials.NamesByModel(model)
			if err != nil {
				return nil, err
			}
			if names == nil {
				names = []string{}
			}
			return names, nil
		})

	default:
		fail(w, http.StatusBadRequest, "Invalid data type")
	}
}

// cached serves a catalog payload from Valkey, building and storing it on
// a miss.
func (f *Field) cached(ctx context.Context, w http.ResponseWriter, key string, build func() (any, error)) {
	if payload, hit := f.catalog.Get(ctx, key); hit {
		w.Header().Set("Content-Type", "application/json")
		w.Write(payload)
		return
	}

	data, err := build()
	if err != nil {
		serverError(w, "build catalog payload", err)
		return
	}

	body, err := json.Marshal(map[string]any{"success": true, "data": data})
	if err != nil {
		serverError(w, "marshal catalog payload", err)
		return
	}
	f.catalog.Set(ctx, key, body)

	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

// Branches returns the caller's assigned branches, optionally filtered by a
// search term. Shop codes come from the caller's own branch registry.
func (f *Field) Branches(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	term := strings.TrimSpace(r.URL.Query().Get("search"))

	items, err := f.branches.SearchForUser(sess.UserID, sess.EmployeeCode, term)
	if err != nil {
		serverError(w, "search branches", err)
		return
	}

	type branchInfo struct {
		Name string `json:"name"`
		Code string `json:"code"`
	}
	data := make([]branchInfo, 0, len(items))
	for _, b := range items {
		code := b.ShopCode
		if code == "" {
			code = "N/A"
		}
		data = append(data, branchInfo{Name: b.BranchName, Code: code})
	}

	respondJSON(w, http.StatusOK, map[string]any{"success": true, "branches": data})
}

// BranchByCode resolves a shop code to a branch name within the caller's
// own registry.
func (f *Field) BranchByCode(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	shopCode := strings.TrimSpace(r.URL.Query().Get("code"))
	if shopCode == "" {
		fail(w, http.StatusBadRequest, "Shop code is required")
		return
	}

	branch, err := f.branches.FindByShopCode(sess.EmployeeCode, shopCode)
	if err != nil {
		serverError(w, "find branch by shop code", err)
		return
	}
	if branch == nil {
		fail(w, http.StatusNotFound, "Branch not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"branch":  map[string]string{"name": branch.BranchName, "code": branch.ShopCode},
	})
}

// GuideImage returns the reference photo URL for a model, so field users
// can check the intended POP setup before submitting.
func (f *Field) GuideImage(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	model := chi.URLParam(r, "model")

	img, err := f.modelImages.Find(model, category)
	if err != nil {
		serverError(w, "find model image", err)
		return
	}
	if img == nil {
		fail(w, http.StatusNotFound, "No image found for this model")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"image_url": "/uploads/" + img.Filename,
	})
}

// SubmitEntries processes a multi-entry submission. The form carries
// indexed field groups (branch_0, model_0, pop_materials_0, images_0, ...);
// the loop runs until the first missing branch_{i}. Entries with missing
// required fields are skipped, not fatal, so one bad group doesn't lose
// the rest of a store visit.
func (f *Field) SubmitEntries(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	if err := r.ParseMultipartForm(maxSubmissionBytes); err != nil {
		fail(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	saved := 0
	for i := 0; ; i++ {
		if !r.Form.Has(fmt.Sprintf("branch_%d", i)) {
			break
		}

		branch := r.FormValue(fmt.Sprintf("branch_%d", i))
		shopCode := r.FormValue(fmt.Sprintf("shop_code_%d", i))
		category := r.FormValue(fmt.Sprintf("category_%d", i))
		model := r.FormValue(fmt.Sprintf("model_%d", i))
		displayType := r.FormValue(fmt.Sprintf("display_type_%d", i))
		comment := r.FormValue(fmt.Sprintf("comment_%d", i))

		if missing := missingEntryFields(branch, shopCode, category, model, displayType); len(missing) > 0 {
			slog.Warn("entry skipped, missing fields", "index", i, "missing", missing)
			continue
		}

		// Register the branch for this employee; an already-known branch
		// just refreshes its shop code, a conflicting shop code skips the
		// entry.
		if _, err := f.branches.Save(branch, shopCode, sess.EmployeeCode); err != nil {
			slog.Warn("entry skipped, branch save failed", "index", i, "error", err)
			continue
		}

		selected := r.Form[fmt.Sprintf("pop_materials_%d", i)]

		catalogNames, err := f.materials.NamesByModel(model)
		if err != nil {
			slog.Warn("entry skipped, materials lookup failed", "index", i, "error", err)
			continue
		}
		unselected := complement(catalogNames, selected)

		images := f.saveImages(r, fmt.Sprintf("images_%d", i))

		entry := &models.Entry{
			EmployeeName:        sess.EmployeeName(),
			EmployeeCode:        sess.EmployeeCode,
			Branch:              branch,
			ShopCode:            shopCode,
			ModelLabel:          models.CompositeLabel(category, model),
			DisplayType:         displayType,
			SelectedMaterials:   models.JoinList(selected),
			UnselectedMaterials: models.JoinList(unselected),
			Images:              models.JoinList(images),
			Comment:             comment,
		}
		if _, err := f.entries.Create(entry); err != nil {
			slog.Error("entry save failed", "index", i, "error", err)
			continue
		}
		saved++
	}

	if saved == 0 {
		fail(w, http.StatusBadRequest, "No valid model entries found to save. Please check your form data.")
		return
	}

	ok(w, fmt.Sprintf("%d model entries saved successfully!", saved))
}

// saveImages stores the uploaded photos for one form field, returning the
// stored filenames. Non-image uploads and save failures are skipped.
func (f *Field) saveImages(r *http.Request, field string) []string {
	if r.MultipartForm == nil {
		return nil
	}

	var names []string
	for _, hdr := range r.MultipartForm.File[field] {
		file, err := hdr.Open()
		if err != nil {
			slog.Warn("image open failed", "file", hdr.Filename, "error", err)
			continue
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			slog.Warn("image read failed", "file", hdr.Filename, "error", err)
			continue
		}

		if !strings.HasPrefix(http.DetectContentType(data), "image/") {
			slog.Warn("upload rejected, not an image", "file", hdr.Filename)
			continue
		}

		name, err := f.files.Save(bytes.NewReader(data), hdr.Filename)
		if err != nil {
			slog.Warn("image save failed", "file", hdr.Filename, "error", err)
			continue
		}
		names = append(names, name)
	}
	return names
}

// complement returns the catalog materials not selected, preserving catalog
// order. This is the point-in-time "missing materials" snapshot stored on
// the entry.
func complement(catalog, selected []string) []string {
	chosen := make(map[string]bool, len(selected))
	for _, s := range selected {
		chosen[s] = true
	}
	var out []string
	for _, name := range catalog {
		if !chosen[name] {
			out = append(out, name)
		}
	}
	return out
}
