// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"poptrack/internal/store"
)

// manageTaxonomy posts a taxonomy mutation.
func manageTaxonomy(t *testing.T, env *testEnv, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/api/admin/taxonomy", strings.NewReader(body))
	env.Taxonomy.Manage(w, r)
	return w
}

func TestTaxonomyManageInvalidAction(t *testing.T) {
	tx := &AdminTaxonomy{}

	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/api/admin/taxonomy", strings.NewReader(`{"action":"replace"}`))
	tx.Manage(w, r)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
	if body := decodeResponse(t, w); body["message"] != "Invalid action" {
		t.Errorf("message: got %q", body["message"])
	}
}

func TestTaxonomyListInvalidKind(t *testing.T) {
	tx := &AdminTaxonomy{}

	w := httptest.NewRecorder()
	r := withChiURLParam(httptest.NewRequest("GET", "/api/admin/taxonomy/bogus", nil), "kind", "bogus")
	tx.List(w, r)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
	if body := decodeResponse(t, w); body["message"] != "Invalid data type" {
		t.Errorf("message: got %q", body["message"])
	}
}

func TestTaxonomyAdd(t *testing.T) {
	env := newTestEnv(t)
	const category = "Taxonomy Add Test"
	cleanTaxonomy(t, env.DB, category)
	t.Cleanup(func() { cleanTaxonomy(t, env.DB, category) })

	// Category.
	w := manageTaxonomy(t, env, `{"action":"add","type":"categories","name":"`+category+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("add category: got %d, body %s", w.Code, w.Body.String())
	}
	if body := decodeResponse(t, w); body["message"] != "Added successfully" {
		t.Errorf("message: got %q", body["message"])
	}

	// Duplicate category conflicts.
	w = manageTaxonomy(t, env, `{"action":"add","type":"categories","name":"`+category+`"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate category: got %d, want 409", w.Code)
	}
	if body := decodeResponse(t, w); body["message"] != "An item with this name already exists" {
		t.Errorf("message: got %q", body["message"])
	}

	// Model under it.
	w = manageTaxonomy(t, env, `{"action":"add","type":"models","name":"TA-100","category":"`+category+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("add model: got %d, body %s", w.Code, w.Body.String())
	}

	// Model without a category is a validation error.
	w = manageTaxonomy(t, env, `{"action":"add","type":"models","name":"TA-101"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("model without category: got %d, want 400", w.Code)
	}
	if body := decodeResponse(t, w); body["message"] != "Model name and category are required" {
		t.Errorf("message: got %q", body["message"])
	}

	// Display type and material.
	w = manageTaxonomy(t, env, `{"action":"add","type":"display_types","name":"Endcap","category":"`+category+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("add display type: got %d, body %s", w.Code, w.Body.String())
	}
	w = manageTaxonomy(t, env, `{"action":"add","type":"materials","name":"Poster","model":"TA-100","category":"`+category+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("add material: got %d, body %s", w.Code, w.Body.String())
	}

	// Unknown kind.
	w = manageTaxonomy(t, env, `{"action":"add","type":"flavors","name":"x"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown kind: got %d, want 400", w.Code)
	}
	if body := decodeResponse(t, w); body["message"] != "Invalid data type" {
		t.Errorf("message: got %q", body["message"])
	}
}

func TestTaxonomyEditRequiresParentFields(t *testing.T) {
	// Edits must carry the same parent fields as adds: a rename with a
	// blank category or model would otherwise blank the parent columns
	// across the cascade. Validation rejects these before the engine runs.
	tx := &AdminTaxonomy{}
	id := uuid.NewString()

	tests := []struct {
		name string
		body string
		want string
	}{
		{
			"model without category",
			`{"action":"edit","type":"models","id":"` + id + `","name":"NewName"}`,
			"Model name and category are required",
		},
		{
			"display type without category",
			`{"action":"edit","type":"display_types","id":"` + id + `","name":"NewName"}`,
			"Display type name and category are required",
		},
		{
			"material without model",
			`{"action":"edit","type":"materials","id":"` + id + `","name":"NewName","category":"TVs"}`,
			"Material name, model, and category are required",
		},
		{
			"material without category",
			`{"action":"edit","type":"materials","id":"` + id + `","name":"NewName","model":"X-1"}`,
			"Material name, model, and category are required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest("POST", "/api/admin/taxonomy", strings.NewReader(tt.body))
			tx.Manage(w, r)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want 400", w.Code)
			}
			if body := decodeResponse(t, w); body["message"] != tt.want {
				t.Errorf("message: got %q, want %q", body["message"], tt.want)
			}
		})
	}
}

func TestTaxonomyRenameCascades(t *testing.T) {
	env := newTestEnv(t)
	const (
		category = "Taxonomy Rename Test"
		renamed  = "Taxonomy Renamed Test"
	)
	cleanTaxonomy(t, env.DB, category, renamed)
	t.Cleanup(func() { cleanTaxonomy(t, env.DB, category, renamed) })

	cat, err := env.Categories.Create(category)
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	if _, err := env.Models.Create("TR-100", category); err != nil {
		t.Fatalf("create model: %v", err)
	}
	if _, err := env.Materials.Create("Poster", "TR-100", category); err != nil {
		t.Fatalf("create material: %v", err)
	}

	// An entry recorded against the old composite label.
	entry := seedTestEntry(t, env, "Taxonomy Rename Branch", "TR-0001")
	if _, err := env.DB.Exec("UPDATE entries SET model_label = $1 WHERE id = $2",
		category+" - TR-100", entry.ID); err != nil {
		t.Fatalf("relabel entry: %v", err)
	}

	w := manageTaxonomy(t, env,
		`{"action":"edit","type":"categories","id":"`+cat.ID.String()+`","name":"`+renamed+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("rename status: got %d, body %s", w.Code, w.Body.String())
	}
	if body := decodeResponse(t, w); body["message"] != "Updated successfully" {
		t.Errorf("message: got %q", body["message"])
	}

	// The rename cascades into child tables and the denormalized entry label.
	updated, err := env.Entries.FindByID(entry.ID)
	if err != nil || updated == nil {
		t.Fatalf("find entry: %v", err)
	}
	if updated.ModelLabel != renamed+" - TR-100" {
		t.Errorf("entry label after rename: got %q", updated.ModelLabel)
	}
	productModels, err := env.Models.ListByCategory(renamed)
	if err != nil {
		t.Fatalf("list models: %v", err)
	}
	if len(productModels) != 1 {
		t.Errorf("models under renamed category: got %d, want 1", len(productModels))
	}
}

func TestTaxonomyDelete(t *testing.T) {
	env := newTestEnv(t)
	const category = "Taxonomy Delete Test"
	cleanTaxonomy(t, env.DB, category)
	t.Cleanup(func() { cleanTaxonomy(t, env.DB, category) })

	cat, err := env.Categories.Create(category)
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	if _, err := env.Models.Create("TD-100", category); err != nil {
		t.Fatalf("create model: %v", err)
	}

	w := manageTaxonomy(t, env,
		`{"action":"delete","type":"categories","id":"`+cat.ID.String()+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status: got %d, body %s", w.Code, w.Body.String())
	}
	if body := decodeResponse(t, w); body["message"] != "Deleted successfully" {
		t.Errorf("message: got %q", body["message"])
	}

	if got, _ := env.Categories.FindByName(category); got != nil {
		t.Error("category still present after delete")
	}
	productModels, err := env.Models.ListByCategory(category)
	if err != nil {
		t.Fatalf("list models: %v", err)
	}
	if len(productModels) != 0 {
		t.Errorf("models left behind after category delete: %d", len(productModels))
	}

	// Deleting again: the ID no longer exists.
	w = manageTaxonomy(t, env,
		`{"action":"delete","type":"categories","id":"`+cat.ID.String()+`"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("double delete: got %d, want 404", w.Code)
	}
	if body := decodeResponse(t, w); body["message"] != "Not found" {
		t.Errorf("message: got %q", body["message"])
	}
}

func TestTaxonomyList(t *testing.T) {
	env := newTestEnv(t)
	const category = "Taxonomy List Test"
	cleanTaxonomy(t, env.DB, category)
	t.Cleanup(func() { cleanTaxonomy(t, env.DB, category) })

	if _, err := env.Categories.Create(category); err != nil {
		t.Fatalf("create category: %v", err)
	}
	if _, err := env.Models.Create("TL-100", category); err != nil {
		t.Fatalf("create model: %v", err)
	}

	w := httptest.NewRecorder()
	r := withChiURLParam(
		httptest.NewRequest("GET", "/api/admin/taxonomy/models?category="+strings.ReplaceAll(category, " ", "+"), nil),
		"kind", "models")
	env.Taxonomy.List(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
	body := decodeResponse(t, w)
	data, _ := body["data"].([]any)
	if len(data) != 1 {
		t.Fatalf("models listed: got %d, want 1", len(data))
	}
	row, _ := data[0].(map[string]any)
	if row["name"] != "TL-100" {
		t.Errorf("model row: %v", row)
	}
}

// Keeps the conflict mapping honest at the store level too: a duplicate
// insert surfaces as ErrConflict, which the handler converts to a 409.
func TestTaxonomyConflictSource(t *testing.T) {
	env := newTestEnv(t)
	const category = "Taxonomy Conflict Test"
	cleanTaxonomy(t, env.DB, category)
	t.Cleanup(func() { cleanTaxonomy(t, env.DB, category) })

	if _, err := env.Categories.Create(category); err != nil {
		t.Fatalf("create category: %v", err)
	}
	_, err := env.Categories.Create(category)
	if !errors.Is(err, store.ErrConflict) {
		t.Errorf("duplicate create: got %v, want ErrConflict", err)
	}
}
