// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is the top level of the product taxonomy (e.g. "OLED", "SBS").
// Category names are globally unique.
type Category struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ProductModel is a product model within a category. Model names are unique
// per category; the same name may exist under different categories.
type ProductModel struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	CategoryName string    `json:"category_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// DisplayType describes how a model is presented in a store (e.g.
// "Highlight Zone", "POP Out"). Unique per category by name.
type DisplayType struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	CategoryName string    `json:"category_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// Material is a POP material that can be deployed for a model. Unique per
// model by name; the category is carried along for scoped queries.
type Material struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	ModelName    string    `json:"model_name"`
	CategoryName string    `json:"category_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// CompositeLabel builds the denormalized "{category} - {model}" label stored
// on entries. The " - " separator is load-bearing: the cascade engine and the
// entry filters match against it.
func CompositeLabel(category, model string) string {
	return category + " - " + model
}
