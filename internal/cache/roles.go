// Copyright (c) 2026 Martin Kley
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/idgate-dev/idgate/internal/model"
	"github.com/idgate-dev/idgate/internal/store"
)

// roleTTL bounds staleness of cached roles. Roles are seeded reference
// data, so a long TTL is safe.
const roleTTL = 15 * time.Minute

// RoleDirectory serves role lookups through the cache. Every
// registration and first federated login resolves the default role, so
// this is the hot read path the cache exists for.
type RoleDirectory struct {
	cache   Cache
	queries *store.Queries
}

// NewRoleDirectory creates a cached role directory.
func NewRoleDirectory(c Cache, db *sql.DB) *RoleDirectory {
	return &RoleDirectory{cache: c, queries: store.New(db)}
}

// ByCode returns the role with the given code, from cache when possible.
// A database miss (sql.ErrNoRows) is returned unchanged so callers can
// treat an absent default role as a configuration fault.
func (d *RoleDirectory) ByCode(ctx context.Context, code string) (model.Role, error) {
	key := "role:" + code

	if raw, err := d.cache.Get(ctx, key); err == nil {
		var role model.Role
		if err := json.Unmarshal(raw, &role); err == nil {
			return role, nil
		}
		// Corrupt entry; fall through to the database.
		_ = d.cache.Delete(ctx, key)
	} else if !errors.Is(err, ErrCacheMiss) {
		slog.Warn("role cache read failed", "error", err, "code", code)
	}

	role, err := d.queries.GetRoleByCode(ctx, code)
	if err != nil {
		return model.Role{}, err
	}

	if raw, err := json.Marshal(role); err == nil {
		if err := d.cache.Set(ctx, key, raw, roleTTL); err != nil {
			slog.Warn("role cache write failed", "error", err, "code", code)
		}
	}

	return role, nil
}
