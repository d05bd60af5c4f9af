// Copyright (c) 2026 Martin Kley
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain models and types used throughout the
// application including Account, Role, and ActivityEvent.
package model

import (
	"database/sql"
	"time"
)

// Account lifecycle statuses.
const (
	StatusActive    = "ACTIVE"
	StatusSuspended = "SUSPENDED"
)

// Auth providers. A LOCAL account always carries a password hash; a
// FEDERATED account may not have one.
const (
	ProviderLocal     = "LOCAL"
	ProviderFederated = "FEDERATED"
)

// Account represents a principal known to the identity core. Exactly one
// row exists per email regardless of how the account was created; a local
// account that later signs in through Google is linked, never duplicated.
type Account struct {
	ID           int64
	Email        string
	PasswordHash sql.NullString // absent for federation-only accounts
	GoogleID     sql.NullString // unique when present
	RoleID       int64
	Role         Role
	Status       string
	Provider     string
	FirstName    string
	LastName     string
	AvatarURL    string
	Phone        string
	LastLoginAt  sql.NullTime
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsActive reports whether the account may authenticate.
func (a *Account) IsActive() bool {
	return a.Status == StatusActive
}

// HasPassword reports whether the account can log in with a password.
func (a *Account) HasPassword() bool {
	return a.PasswordHash.Valid && a.PasswordHash.String != ""
}

// SanitizedAccount is the client-safe representation of an Account.
// It never carries the password hash.
type SanitizedAccount struct {
	ID          int64      `json:"id"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	Provider    string     `json:"provider"`
	FirstName   string     `json:"firstName,omitempty"`
	LastName    string     `json:"lastName,omitempty"`
	AvatarURL   string     `json:"avatarUrl,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Sanitized strips the password hash and flattens the role for client use.
func (a *Account) Sanitized() SanitizedAccount {
	s := SanitizedAccount{
		ID:        a.ID,
		Email:     a.Email,
		Role:      a.Role.Code,
		Status:    a.Status,
		Provider:  a.Provider,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		AvatarURL: a.AvatarURL,
		Phone:     a.Phone,
		CreatedAt: a.CreatedAt,
	}
	if a.LastLoginAt.Valid {
		t := a.LastLoginAt.Time
		s.LastLoginAt = &t
	}
	return s
}
