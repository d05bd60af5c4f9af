// Copyright (c) 2026 Martin Kley
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"

	"github.com/idgate-dev/idgate/internal/model"
)

// GetRoleByCode loads a role by its unique code.
func (q *Queries) GetRoleByCode(ctx context.Context, code string) (model.Role, error) {
	var r model.Role
	err := q.db.QueryRowContext(ctx,
		`SELECT id, code, label, created_at FROM roles WHERE code = ?`, code).
		Scan(&r.ID, &r.Code, &r.Label, &r.CreatedAt)
	return r, err
}

// ListRoles returns all roles ordered by id.
func (q *Queries) ListRoles(ctx context.Context) ([]model.Role, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, code, label, created_at FROM roles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var roles []model.Role
	for rows.Next() {
		var r model.Role
		if err := rows.Scan(&r.ID, &r.Code, &r.Label, &r.CreatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

// CreateRoleParams holds the fields for a new role.
type CreateRoleParams struct {
	Code      string
	Label     string
	CreatedAt time.Time
}

// CreateRole inserts a role. Roles are reference data; this is only
// called by seeding and tests.
func (q *Queries) CreateRole(ctx context.Context, arg CreateRoleParams) (model.Role, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO roles (code, label, created_at) VALUES (?, ?, ?)`,
		arg.Code, arg.Label, arg.CreatedAt)
	if err != nil {
		return model.Role{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Role{}, err
	}
	return model.Role{ID: id, Code: arg.Code, Label: arg.Label, CreatedAt: arg.CreatedAt}, nil
}
