// Copyright (c) 2026 Martin Kley
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Role codes. The set is closed; routes enumerate the codes they accept.
const (
	RoleUser       = "USER"
	RoleAdmin      = "ADMIN"
	RoleSuperAdmin = "SUPER_ADMIN"
)

// DefaultRoleCode is the role assigned on self-registration and on first
// federated login. It must exist before either operation can succeed.
const DefaultRoleCode = RoleUser

// Role is immutable reference data seeded out-of-band.
type Role struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"createdAt"`
}
