// Package main is the entry point for the POP Track server. It loads
// configuration, connects to services, sets up routing, and starts the
// HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"poptrack/internal/cache"
	"poptrack/internal/config"
	"poptrack/internal/database"
	"poptrack/internal/handlers"
	"poptrack/internal/report"
	"poptrack/internal/router"
	"poptrack/internal/session"
	"poptrack/internal/storage"
	"poptrack/internal/store"
	"poptrack/internal/taxonomy"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load .env if present; real environment variables win.
	if err := godotenv.Load(); err == nil {
		slog.Debug(".env loaded")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed the default taxonomy and admin account. Each component is
	// applied once and tracked, so restarts never re-create renamed or
	// deleted rows.
	if err := database.Seed(db); err != nil {
		slog.Error("failed to seed database", "error", err)
		os.Exit(1)
	}

	// Connect to Valkey (sessions + catalog cache).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// In non-development environments, mark cookies as Secure (HTTPS-only).
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)
	catalogCache := cache.NewCatalog(valkeyClient, cache.DefaultCatalogTTL)

	// Local disk storage for entry photos and model guide images.
	files, err := storage.NewLocal(cfg.UploadDir)
	if err != nil {
		slog.Error("failed to initialize upload storage", "error", err)
		os.Exit(1)
	}
	slog.Info("upload storage ready", "dir", cfg.UploadDir)

	// Data stores.
	userStore := store.NewUserStore(db)
	categoryStore := store.NewCategoryStore(db)
	modelStore := store.NewModelStore(db)
	displayTypeStore := store.NewDisplayTypeStore(db)
	materialStore := store.NewMaterialStore(db)
	branchStore := store.NewBranchStore(db)
	entryStore := store.NewEntryStore(db)
	modelImageStore := store.NewModelImageStore(db)

	// The cascade engine keeps the denormalized entry labels consistent
	// with taxonomy renames and deletes.
	engine := taxonomy.NewEngine(db)

	// Excel report generator.
	reports := report.NewGenerator(files, cfg.ExportImageDelay)

	// Handler groups.
	authHandlers := handlers.NewAuth(sessionStore, userStore)
	fieldHandlers := handlers.NewField(categoryStore, modelStore, displayTypeStore,
		materialStore, branchStore, entryStore, modelImageStore, catalogCache, files)
	adminHandlers := handlers.NewAdmin(entryStore, files, reports)
	taxonomyHandlers := handlers.NewAdminTaxonomy(engine, categoryStore, modelStore,
		displayTypeStore, materialStore, catalogCache)
	userHandlers := handlers.NewAdminUsers(userStore, branchStore, entryStore, files)
	modelImageHandlers := handlers.NewAdminModelImages(modelImageStore, files)

	r := router.New(router.Deps{
		Sessions:    sessionStore,
		Files:       files,
		Auth:        authHandlers,
		Field:       fieldHandlers,
		Admin:       adminHandlers,
		Taxonomy:    taxonomyHandlers,
		Users:       userHandlers,
		ModelImages: modelImageHandlers,
		SecureCSRF:  secureCookies,
	})

	// WriteTimeout must accommodate enhanced exports, which read and embed
	// every entry photo in the filtered set.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
