// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// catalog.go provides a Valkey-backed cache for taxonomy catalog payloads.
// Field devices poll the category/model/display-type/material dropdowns
// constantly; caching the JSON responses keeps those reads off PostgreSQL.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// catalogKeyPrefix is the Valkey key prefix for cached catalog payloads.
	catalogKeyPrefix = "catalog:"

	// DefaultCatalogTTL is how long a catalog payload stays cached. Every
	// taxonomy mutation invalidates the whole prefix anyway; the TTL is a
	// backstop.
	DefaultCatalogTTL = 5 * time.Minute
)

// Catalog caches rendered catalog JSON in Valkey.
type Catalog struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCatalog creates a catalog cache backed by the given Valkey client.
func NewCatalog(client *redis.Client, ttl time.Duration) *Catalog {
	if ttl == 0 {
		ttl = DefaultCatalogTTL
	}
	return &Catalog{client: client, ttl: ttl}
}

// Get retrieves a cached payload. Returns (nil, false) on miss.
func (c *Catalog) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, catalogKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("catalog cache get error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("catalog cache hit", "key", key)
	return val, true
}

// Set stores a payload for a catalog key with the configured TTL.
func (c *Catalog) Set(ctx context.Context, key string, payload []byte) {
	if err := c.client.Set(ctx, catalogKeyPrefix+key, payload, c.ttl).Err(); err != nil {
		slog.Warn("catalog cache set error", "key", key, "error", err)
	}
}

// InvalidateAll removes every cached catalog payload by scanning for the
// prefix. Called after any taxonomy mutation, since a single cascade can
// touch categories, models, display types, and materials at once.
func (c *Catalog) InvalidateAll(ctx context.Context) {
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := c.client.Scan(ctx, cursor, catalogKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("catalog cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("catalog cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Info("catalog cache cleared", "deleted", deleted)
	}
}

// CategoriesKey is the cache key for the category list payload.
func CategoriesKey() string {
	return "categories"
}

// ModelsKey returns the cache key for a category's model list payload.
func ModelsKey(category string) string {
	return fmt.Sprintf("models:%s", category)
}

// DisplayTypesKey returns the cache key for a category's display types.
func DisplayTypesKey(category string) string {
	return fmt.Sprintf("display_types:%s", category)
}

// MaterialsKey returns the cache key for a model's material list payload.
func MaterialsKey(model string) string {
	return fmt.Sprintf("materials:%s", model)
}
