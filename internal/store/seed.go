// Copyright (c) 2026 Martin Kley
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/idgate-dev/idgate/internal/auth"
	"github.com/idgate-dev/idgate/internal/model"
)

// Bootstrap super admin credentials, created only when IDGATE_DO_SEED is set.
const (
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "changeme"
)

// roleSeeds is the closed role set. Registration cannot succeed until the
// default role exists, so role seeding always runs.
var roleSeeds = []struct {
	code  string
	label string
}{
	{model.RoleUser, "User"},
	{model.RoleAdmin, "Administrator"},
	{model.RoleSuperAdmin, "Super Administrator"},
}

// Seed creates the role directory and, when doSeed is true, a bootstrap
// super admin account. It is idempotent.
func Seed(ctx context.Context, db *sql.DB, doSeed bool) error {
	queries := New(db)

	for _, seed := range roleSeeds {
		_, err := queries.GetRoleByCode(ctx, seed.code)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("checking role %s: %w", seed.code, err)
		}
		if _, err := queries.CreateRole(ctx, CreateRoleParams{
			Code:      seed.code,
			Label:     seed.label,
			CreatedAt: time.Now(),
		}); err != nil {
			return fmt.Errorf("creating role %s: %w", seed.code, err)
		}
		slog.Info("created role", "code", seed.code)
	}

	if !doSeed {
		return nil
	}

	_, err := queries.GetAccountByEmail(ctx, DefaultAdminEmail)
	if err == nil {
		slog.Info("bootstrap admin already exists, skipping seed")
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for bootstrap admin: %w", err)
	}

	passwordHash, err := auth.HashPassword(DefaultAdminPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	role, err := queries.GetRoleByCode(ctx, model.RoleSuperAdmin)
	if err != nil {
		return fmt.Errorf("loading super admin role: %w", err)
	}

	now := time.Now()
	account, err := queries.CreateAccount(ctx, CreateAccountParams{
		Email:        DefaultAdminEmail,
		PasswordHash: sql.NullString{String: passwordHash, Valid: true},
		RoleID:       role.ID,
		Status:       model.StatusActive,
		Provider:     model.ProviderLocal,
		FirstName:    "Super",
		LastName:     "Admin",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("creating bootstrap admin: %w", err)
	}

	slog.Info("created bootstrap super admin",
		"id", account.ID,
		"email", account.Email,
		"password", DefaultAdminPassword,
	)

	return nil
}
