// Copyright (c) 2026 Martin Kley
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service provides the business logic of the identity core:
// authentication orchestration and the activity trail.
package service

import "errors"

// Authentication failure taxonomy. Handlers map these to HTTP statuses;
// everything here except ErrDefaultRoleMissing is a caller error.
var (
	// ErrEmailTaken is returned when registering an email that already
	// has an account, whether caught by the pre-check or by the unique
	// index during a concurrent race.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials covers unknown email and wrong password.
	// The two cases are indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrGoogleAccountNoPassword is returned when a password login hits
	// a federation-only account. Deliberately distinguishable so the
	// client can point the user at the Google button.
	ErrGoogleAccountNoPassword = errors.New("account has no password, use Google sign-in")

	// ErrAccountInactive is returned after password verification when
	// the account status is not ACTIVE.
	ErrAccountInactive = errors.New("account is not active")

	// ErrDefaultRoleMissing means the role directory was never seeded.
	// A deployment fault, not a user error.
	ErrDefaultRoleMissing = errors.New("default role missing from role directory")
)

// Reason codes recorded in activity event metadata for login failures.
const (
	ReasonUserNotFound            = "USER_NOT_FOUND"
	ReasonGoogleAccountNoPassword = "GOOGLE_ACCOUNT_NO_PASSWORD"
	ReasonInvalidPassword         = "INVALID_PASSWORD"
	ReasonAccountInactive         = "ACCOUNT_INACTIVE"
)
