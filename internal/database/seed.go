package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// Seed components tracked in the seed_status table. Each one runs at most
// once; re-running Seed against an initialized database is a no-op.
const (
	seedAdminUser    = "admin_user"
	seedCategories   = "default_categories"
	seedModels       = "default_models"
	seedDisplayTypes = "default_display_types"
	seedMaterials    = "default_materials"
)

var defaultCategories = []string{
	"OLED", "Neo QLED", "QLED", "UHD", "LTV", "BESPOKE COMBO",
	"BESPOKE Front", "Front", "TL", "SBS", "TMF", "BMF", "Local TMF",
}

var defaultModels = map[string][]string{
	"OLED":          {"S95F", "S90F", "S85F"},
	"Neo QLED":      {"QN90", "QN85F", "QN80F", "QN70F"},
	"QLED":          {"Q8F", "Q7F"},
	"UHD":           {"U8000", `100"/98"`},
	"LTV":           {"The Frame"},
	"BESPOKE COMBO": {"WD25DB8995", "WD21D6400"},
	"BESPOKE Front": {"WW11B1944DGB"},
	"Front":         {"WW11B1534D", "WW90CGC", "WW4040", "WW4020"},
	"TL":            {"WA19CG6886", "Local TL"},
	"SBS":           {"RS70F"},
	"TMF":           {"Bespoke", "TMF Non-Bespoke", "TMF"},
	"BMF":           {"(Bespoke, BMF)", "(Non-Bespoke, BMF)"},
	"Local TMF":     {"Local TMF"},
}

var tvDisplayTypes = []string{
	"Highlight Zone", "Fixtures", "Multi Brand Zone with Space", "SIS (Endcap)",
}

var applianceDisplayTypes = []string{"POP Out", "POP Inner", "POP"}

var tvCategories = map[string]bool{
	"OLED": true, "Neo QLED": true, "QLED": true, "UHD": true, "LTV": true,
}

// defaultMaterials holds curated material sets for the flagship models.
// Any model without an entry falls back to the generic set built by
// fallbackMaterials.
var defaultMaterials = map[string][]string{
	"S95F":  {"S95F Premium Topper", "S95F Gaming Features", "S95F Design POP", "Anti-Glare Technology", "AI topper"},
	"S90F":  {"S90F Smart Features", "S90F Connectivity POP", "S90F Performance Card", "AI topper"},
	"S85F":  {"S85F Essential Features", "S85F Value POP", "S85F Specs Display", "AI topper"},
	"QN90":  {"QN90 Neo Quantum", "QN90 Gaming Hub", "QN90 Premium Features", "Neo Quantum Processor 4K", "AI topper"},
	"QN85F": {"QN85F Neo Features", "QN85F Smart Hub", "QN85F Performance POP", "AI topper"},
	"QN80F": {"QN80F Neo Display", "QN80F Features Card", "QN80F Value POP", "AI topper"},
	"QN70F": {"QN70F Essential Neo", "QN70F Basic Features", "QN70F Entry POP", "AI topper"},
}

func fallbackMaterials(model string) []string {
	return []string{model + " Standard POP", model + " Features", "AI topper"}
}

// Seed populates the database with the default admin user and taxonomy.
// Every component is gated by a seed_status row so partial failures can be
// retried without duplicating data.
func Seed(db *sql.DB) error {
	if err := seedComponent(db, seedAdminUser, seedAdmin); err != nil {
		return err
	}
	if err := seedComponent(db, seedCategories, seedCategoryRows); err != nil {
		return err
	}
	if err := seedComponent(db, seedModels, seedModelRows); err != nil {
		return err
	}
	if err := seedComponent(db, seedDisplayTypes, seedDisplayTypeRows); err != nil {
		return err
	}
	if err := seedComponent(db, seedMaterials, seedMaterialRows); err != nil {
		return err
	}
	return nil
}

// seedComponent runs fn inside a transaction if the component has not been
// applied yet, then records it in seed_status.
func seedComponent(db *sql.DB, component string, fn func(tx *sql.Tx) error) error {
	var applied bool
	err := db.QueryRow("SELECT applied FROM seed_status WHERE component = $1", component).Scan(&applied)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("seed status %s: %w", component, err)
	}
	if applied {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin %s: %w", component, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return fmt.Errorf("seed %s: %w", component, err)
	}

	_, err = tx.Exec(`
		INSERT INTO seed_status (component, applied) VALUES ($1, TRUE)
		ON CONFLICT (component) DO UPDATE SET applied = TRUE, applied_at = now()
	`, component)
	if err != nil {
		return fmt.Errorf("seed mark %s: %w", component, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit %s: %w", component, err)
	}

	slog.Info("seed component applied", "component", component)
	return nil
}

func seedAdmin(tx *sql.Tx) error {
	var count int
	if err := tx.QueryRow("SELECT COUNT(*) FROM users WHERE is_admin = TRUE").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	// 2FA is not enabled here; the admin sets it up on first login.
	_, err = tx.Exec(`
		INSERT INTO users (username, full_name, employee_code, password_hash, is_admin)
		VALUES ($1, $2, $3, $4, TRUE)
	`, "Admin", "Administrator", "ADMIN", string(hash))
	if err != nil {
		return err
	}

	slog.Info("default admin user created", "username", "Admin")
	return nil
}

func seedCategoryRows(tx *sql.Tx) error {
	for _, name := range defaultCategories {
		if _, err := tx.Exec(
			"INSERT INTO categories (name) VALUES ($1) ON CONFLICT (name) DO NOTHING", name,
		); err != nil {
			return err
		}
	}
	return nil
}

func seedModelRows(tx *sql.Tx) error {
	for _, category := range defaultCategories {
		for _, model := range defaultModels[category] {
			if _, err := tx.Exec(`
				INSERT INTO models (name, category_name) VALUES ($1, $2)
				ON CONFLICT (name, category_name) DO NOTHING
			`, model, category); err != nil {
				return err
			}
		}
	}
	return nil
}

func seedDisplayTypeRows(tx *sql.Tx) error {
	for _, category := range defaultCategories {
		types := applianceDisplayTypes
		if tvCategories[category] {
			types = tvDisplayTypes
		}
		for _, dt := range types {
			if _, err := tx.Exec(`
				INSERT INTO display_types (name, category_name) VALUES ($1, $2)
				ON CONFLICT (name, category_name) DO NOTHING
			`, dt, category); err != nil {
				return err
			}
		}
	}
	return nil
}

func seedMaterialRows(tx *sql.Tx) error {
	for _, category := range defaultCategories {
		for _, model := range defaultModels[category] {
			materials, ok := defaultMaterials[model]
			if !ok {
				materials = fallbackMaterials(model)
			}
			for _, material := range materials {
				if _, err := tx.Exec(`
					INSERT INTO materials (name, model_name, category_name) VALUES ($1, $2, $3)
					ON CONFLICT (name, model_name) DO NOTHING
				`, material, model, category); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
