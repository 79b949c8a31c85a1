// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entry is one submitted POP deployment record: which materials were
// deployed for one product model at one branch visit. Entries are immutable
// snapshots; taxonomy renames rewrite their labels but nothing else is ever
// updated after submission.
type Entry struct {
	ID           uuid.UUID `json:"id"`
	EmployeeName string    `json:"employee_name"`
	EmployeeCode string    `json:"employee_code"`
	Branch       string    `json:"branch"`
	ShopCode     string    `json:"shop_code"`
	// ModelLabel is the composite "{category} - {model}" label.
	ModelLabel  string `json:"model_label"`
	DisplayType string `json:"display_type"`
	// Comma-joined lists, as captured at submission time.
	SelectedMaterials   string    `json:"selected_materials"`
	UnselectedMaterials string    `json:"unselected_materials"`
	Images              string    `json:"images"`
	Comment             string    `json:"comment"`
	CreatedAt           time.Time `json:"created_at"`
}

// SplitList splits a comma-joined list field into trimmed, non-empty items.
func SplitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JoinList joins items into the comma-joined storage format.
func JoinList(items []string) string {
	return strings.Join(items, ",")
}

// SelectedList returns the selected materials as a slice.
func (e *Entry) SelectedList() []string { return SplitList(e.SelectedMaterials) }

// UnselectedList returns the missing materials as a slice.
func (e *Entry) UnselectedList() []string { return SplitList(e.UnselectedMaterials) }

// ImageList returns the stored image filenames as a slice.
func (e *Entry) ImageList() []string { return SplitList(e.Images) }
