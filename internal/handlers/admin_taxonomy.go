package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"poptrack/internal/cache"
	"poptrack/internal/store"
	"poptrack/internal/taxonomy"
)

// AdminTaxonomy groups the taxonomy management handlers. Renames and
// deletes go through the cascade engine; adds go straight to the stores.
type AdminTaxonomy struct {
	engine       *taxonomy.Engine
	categories   *store.CategoryStore
	models       *store.ModelStore
	displayTypes *store.DisplayTypeStore
	materials    *store.MaterialStore
	catalog      *cache.Catalog
}

// NewAdminTaxonomy creates a new AdminTaxonomy handler group.
func NewAdminTaxonomy(
	engine *taxonomy.Engine,
	categories *store.CategoryStore,
	productModels *store.ModelStore,
	displayTypes *store.DisplayTypeStore,
	materials *store.MaterialStore,
	catalog *cache.Catalog,
) *AdminTaxonomy {
	return &AdminTaxonomy{
		engine:       engine,
		categories:   categories,
		models:       productModels,
		displayTypes: displayTypes,
		materials:    materials,
		catalog:      catalog,
	}
}

// List returns the full rows for one taxonomy kind, for the management
// screen.
func (t *AdminTaxonomy) List(w http.ResponseWriter, r *http.Request) {
	var (
		data any
		err  error
	)
	switch kind := chi.URLParam(r, "kind"); kind {
	case "categories":
		data, err = t.categories.List()
	case "models":
		if category := r.URL.Query().Get("category"); category != "" {
			data, err = t.models.ListByCategory(category)
		} else {
			data, err = t.models.List()
		}
	case "display_types":
		if category := r.URL.Query().Get("category"); category != "" {
			data, err = t.displayTypes.ListByCategory(category)
		} else {
			data, err = t.displayTypes.List()
		}
	case "materials":
		if model := r.URL.Query().Get("model"); model != "" {
			data, err = t.materials.ListByModel(model)
		} else {
			data, err = t.materials.List()
		}
	default:
		fail(w, http.StatusBadRequest, "Invalid data type")
		return
	}
	if err != nil {
		serverError(w, "list taxonomy", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"success": true, "data": data})
}

// taxonomyRequest is the management mutation envelope.
type taxonomyRequest struct {
	Action   string `json:"action"` // add, edit, delete
	Type     string `json:"type"`   // categories, models, display_types, materials
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Model    string `json:"model"`
}

// Manage dispatches a taxonomy mutation. Every rename and delete runs as a
// single transaction inside the engine, so the denormalized entry labels
// can never drift from the taxonomy tables. The catalog cache is
// invalidated after any change.
func (t *AdminTaxonomy) Manage(w http.ResponseWriter, r *http.Request) {
	var req taxonomyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var err error
	switch req.Action {
	case "add":
		err = t.add(&req)
	case "edit":
		err = t.edit(r, &req)
	case "delete":
		err = t.remove(r, &req)
	default:
		fail(w, http.StatusBadRequest, "Invalid action")
		return
	}

	var reqErr *requestError
	switch {
	case err == nil:
	case errors.Is(err, errInvalidKind):
		fail(w, http.StatusBadRequest, "Invalid data type")
		return
	case errors.As(err, &reqErr):
		fail(w, http.StatusBadRequest, reqErr.msg)
		return
	case errors.Is(err, taxonomy.ErrNotFound):
		fail(w, http.StatusNotFound, "Not found")
		return
	case errors.Is(err, taxonomy.ErrConflict), errors.Is(err, store.ErrConflict):
		fail(w, http.StatusConflict, "An item with this name already exists")
		return
	default:
		serverError(w, "taxonomy mutation", err)
		return
	}

	t.catalog.InvalidateAll(r.Context())

	switch req.Action {
	case "add":
		ok(w, "Added successfully")
	case "edit":
		ok(w, "Updated successfully")
	default:
		ok(w, "Deleted successfully")
	}
}

var errInvalidKind = errors.New("invalid taxonomy kind")

// requestError carries a client-facing validation message.
type requestError struct{ msg string }

func (e *requestError) Error() string { return e.msg }

func (t *AdminTaxonomy) add(req *taxonomyRequest) error {
	if msg := validateTaxonomyName(req.Name); msg != "" {
		return badRequest(msg)
	}

	var err error
	switch req.Type {
	case "categories":
		_, err = t.categories.Create(req.Name)
	case "models":
		if req.Category == "" {
			return badRequest("Model name and category are required")
		}
		_, err = t.models.Create(req.Name, req.Category)
	case "display_types":
		if req.Category == "" {
			return badRequest("Display type name and category are required")
		}
		_, err = t.displayTypes.Create(req.Name, req.Category)
	case "materials":
		if req.Model == "" || req.Category == "" {
			return badRequest("Material name, model, and category are required")
		}
		_, err = t.materials.Create(req.Name, req.Model, req.Category)
	default:
		return errInvalidKind
	}
	return err
}

func (t *AdminTaxonomy) edit(r *http.Request, req *taxonomyRequest) error {
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return badRequest("Invalid ID")
	}
	if msg := validateTaxonomyName(req.Name); msg != "" {
		return badRequest(msg)
	}

	// A blank parent would flow into the cascade and blank out the
	// category/model columns, so edits require the same fields as adds.
	ctx := r.Context()
	switch req.Type {
	case "categories":
		return t.engine.RenameCategory(ctx, id, req.Name)
	case "models":
		if req.Category == "" {
			return badRequest("Model name and category are required")
		}
		return t.engine.RenameModel(ctx, id, req.Name, req.Category)
	case "display_types":
		if req.Category == "" {
			return badRequest("Display type name and category are required")
		}
		return t.engine.RenameDisplayType(ctx, id, req.Name, req.Category)
	case "materials":
		if req.Model == "" || req.Category == "" {
			return badRequest("Material name, model, and category are required")
		}
		return t.engine.RenameMaterial(ctx, id, req.Name, req.Model, req.Category)
	default:
		return errInvalidKind
	}
}

func (t *AdminTaxonomy) remove(r *http.Request, req *taxonomyRequest) error {
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return badRequest("Invalid ID")
	}

	ctx := r.Context()
	switch req.Type {
	case "categories":
		return t.engine.DeleteCategory(ctx, id)
	case "models":
		return t.engine.DeleteModel(ctx, id)
	case "display_types":
		return t.engine.DeleteDisplayType(ctx, id)
	case "materials":
		return t.engine.DeleteMaterial(ctx, id)
	default:
		return errInvalidKind
	}
}

// badRequest wraps a client-facing validation message as a 400 error.
func badRequest(msg string) error {
	return &requestError{msg: msg}
}
