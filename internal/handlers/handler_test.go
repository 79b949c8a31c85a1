// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler integration
// tests. Tests are skipped when PostgreSQL or Valkey are unavailable.
package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"poptrack/internal/cache"
	"poptrack/internal/database"
	"poptrack/internal/middleware"
	"poptrack/internal/report"
	"poptrack/internal/session"
	"poptrack/internal/storage"
	"poptrack/internal/store"
	"poptrack/internal/taxonomy"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "poptrack")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "poptrack")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		for _, pattern := range []string{"session:*", "catalog:*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB           *sql.DB
	Valkey       *redis.Client
	Sessions     *session.Store
	Catalog      *cache.Catalog
	Files        *storage.Local
	Users        *store.UserStore
	Categories   *store.CategoryStore
	Models       *store.ModelStore
	DisplayTypes *store.DisplayTypeStore
	Materials    *store.MaterialStore
	Branches     *store.BranchStore
	Entries      *store.EntryStore
	ModelImages  *store.ModelImageStore
	Engine       *taxonomy.Engine
	Reports      *report.Generator

	Auth          *Auth
	Field         *Field
	Admin         *Admin
	Taxonomy      *AdminTaxonomy
	AdminUsers    *AdminUsers
	GuideImageMgr *AdminModelImages
}

// newTestEnv creates a complete test environment with all handler dependencies.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)

	files, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("storage.NewLocal: %v", err)
	}

	sessions := session.NewStore(vk, false)
	catalog := cache.NewCatalog(vk, 1*time.Minute)

	users := store.NewUserStore(db)
	categories := store.NewCategoryStore(db)
	productModels := store.NewModelStore(db)
	displayTypes := store.NewDisplayTypeStore(db)
	materials := store.NewMaterialStore(db)
	branches := store.NewBranchStore(db)
	entries := store.NewEntryStore(db)
	modelImages := store.NewModelImageStore(db)
	engine := taxonomy.NewEngine(db)
	reports := report.NewGenerator(files, 0)

	return &testEnv{
		DB:           db,
		Valkey:       vk,
		Sessions:     sessions,
		Catalog:      catalog,
		Files:        files,
		Users:        users,
		Categories:   categories,
		Models:       productModels,
		DisplayTypes: displayTypes,
		Materials:    materials,
		Branches:     branches,
		Entries:      entries,
		ModelImages:  modelImages,
		Engine:       engine,
		Reports:      reports,

		Auth:          NewAuth(sessions, users),
		Field:         NewField(categories, productModels, displayTypes, materials, branches, entries, modelImages, catalog, files),
		Admin:         NewAdmin(entries, files, reports),
		Taxonomy:      NewAdminTaxonomy(engine, categories, productModels, displayTypes, materials, catalog),
		AdminUsers:    NewAdminUsers(users, branches, entries, files),
		GuideImageMgr: NewAdminModelImages(modelImages, files),
	}
}

// ctxWithSession adds session data to a context using the middleware key.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, middleware.SessionKey, data)
}

// testSession creates a session.Data for testing.
func testSession(userID uuid.UUID, username, employeeCode string, isAdmin bool) *session.Data {
	return &session.Data{
		UserID:       userID,
		Username:     username,
		FullName:     "Test User",
		EmployeeCode: employeeCode,
		IsAdmin:      isAdmin,
		TwoFADone:    true,
	}
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	return withChiURLParams(r, key, value)
}

// withChiURLParams adds multiple chi URL parameters, given as key/value pairs.
func withChiURLParams(r *http.Request, pairs ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(pairs); i += 2 {
		rctx.URLParams.Add(pairs[i], pairs[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// decodeResponse decodes the JSON body of a recorded response.
func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

// createTestUser inserts a user directly through the store and schedules
// cleanup of the account and everything recorded under its employee code.
func createTestUser(t *testing.T, env *testEnv, username, password, employeeCode string, isAdmin bool) uuid.UUID {
	t.Helper()

	cleanUser(t, env.DB, username, employeeCode)
	user, err := env.Users.Create(username, password, employeeCode, nil, isAdmin)
	if err != nil {
		t.Fatalf("create test user %s: %v", username, err)
	}
	t.Cleanup(func() { cleanUser(t, env.DB, username, employeeCode) })
	return user.ID
}

// cleanUser removes a test account and its branches and entries.
func cleanUser(t *testing.T, db *sql.DB, username, employeeCode string) {
	t.Helper()
	db.Exec("DELETE FROM entries WHERE employee_code = $1", employeeCode)
	db.Exec("DELETE FROM branches WHERE employee_code = $1", employeeCode)
	db.Exec("DELETE FROM users WHERE username = $1 OR employee_code = $2", username, employeeCode)
}

// cleanTaxonomy removes test taxonomy rows by category name, cascading to
// models, display types, and materials created under it.
func cleanTaxonomy(t *testing.T, db *sql.DB, categories ...string) {
	t.Helper()
	for _, c := range categories {
		db.Exec("DELETE FROM materials WHERE category_name = $1", c)
		db.Exec("DELETE FROM display_types WHERE category_name = $1", c)
		db.Exec("DELETE FROM models WHERE category_name = $1", c)
		db.Exec("DELETE FROM categories WHERE name = $1", c)
	}
}

// cleanEntries removes test entries by branch name.
func cleanEntries(t *testing.T, db *sql.DB, branches ...string) {
	t.Helper()
	for _, b := range branches {
		db.Exec("DELETE FROM entries WHERE branch = $1", b)
	}
}
