// Copyright (c) 2026 Martin Kley
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/idgate-dev/idgate/internal/model"
)

// accountColumns selects an account row with its role eagerly attached.
const accountColumns = `
	a.id, a.email, a.password_hash, a.google_id, a.role_id, a.status, a.provider,
	a.first_name, a.last_name, a.avatar_url, a.phone, a.last_login_at,
	a.created_at, a.updated_at,
	r.id, r.code, r.label, r.created_at
`

const accountSelect = `SELECT ` + accountColumns + `
	FROM accounts a JOIN roles r ON r.id = a.role_id`

func scanAccount(row *sql.Row) (model.Account, error) {
	var a model.Account
	err := row.Scan(
		&a.ID, &a.Email, &a.PasswordHash, &a.GoogleID, &a.RoleID, &a.Status, &a.Provider,
		&a.FirstName, &a.LastName, &a.AvatarURL, &a.Phone, &a.LastLoginAt,
		&a.CreatedAt, &a.UpdatedAt,
		&a.Role.ID, &a.Role.Code, &a.Role.Label, &a.Role.CreatedAt,
	)
	return a, err
}

// GetAccountByEmail loads an account by its unique email.
func (q *Queries) GetAccountByEmail(ctx context.Context, email string) (model.Account, error) {
	row := q.db.QueryRowContext(ctx, accountSelect+` WHERE a.email = ?`, email)
	return scanAccount(row)
}

// GetAccountByID loads an account by id.
func (q *Queries) GetAccountByID(ctx context.Context, id int64) (model.Account, error) {
	row := q.db.QueryRowContext(ctx, accountSelect+` WHERE a.id = ?`, id)
	return scanAccount(row)
}

// GetAccountByGoogleIDOrEmail loads an account matching either the
// federated subject id or the email. Either match identifies the same
// person; this is what keeps a local and a federated identity from
// splitting into two accounts.
func (q *Queries) GetAccountByGoogleIDOrEmail(ctx context.Context, googleID, email string) (model.Account, error) {
	row := q.db.QueryRowContext(ctx,
		accountSelect+` WHERE a.google_id = ? OR a.email = ? LIMIT 1`,
		googleID, email)
	return scanAccount(row)
}

// CreateAccountParams holds the fields for a new account row.
type CreateAccountParams struct {
	Email        string
	PasswordHash sql.NullString
	GoogleID     sql.NullString
	RoleID       int64
	Status       string
	Provider     string
	FirstName    string
	LastName     string
	AvatarURL    string
	Phone        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateAccount inserts a new account and returns it with its role attached.
func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) (model.Account, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO accounts (email, password_hash, google_id, role_id, status, provider,
			first_name, last_name, avatar_url, phone, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Email, arg.PasswordHash, arg.GoogleID, arg.RoleID, arg.Status, arg.Provider,
		arg.FirstName, arg.LastName, arg.AvatarURL, arg.Phone, arg.CreatedAt, arg.UpdatedAt,
	)
	if err != nil {
		return model.Account{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Account{}, err
	}
	return q.GetAccountByID(ctx, id)
}

// UpdateAccountLastLoginParams updates the last-login timestamp.
type UpdateAccountLastLoginParams struct {
	LastLoginAt sql.NullTime
	UpdatedAt   time.Time
	ID          int64
}

// UpdateAccountLastLogin records a successful login.
func (q *Queries) UpdateAccountLastLogin(ctx context.Context, arg UpdateAccountLastLoginParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE accounts SET last_login_at = ?, updated_at = ? WHERE id = ?`,
		arg.LastLoginAt, arg.UpdatedAt, arg.ID)
	return err
}

// UpdateAccountPasswordParams updates the stored password hash.
type UpdateAccountPasswordParams struct {
	PasswordHash string
	UpdatedAt    time.Time
	ID           int64
}

// UpdateAccountPassword replaces the password hash (used for rehashes).
func (q *Queries) UpdateAccountPassword(ctx context.Context, arg UpdateAccountPasswordParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE accounts SET password_hash = ?, updated_at = ? WHERE id = ?`,
		arg.PasswordHash, arg.UpdatedAt, arg.ID)
	return err
}

// LinkGoogleAccountParams links a federated identity onto an account.
type LinkGoogleAccountParams struct {
	GoogleID    sql.NullString
	Provider    string
	AvatarURL   string
	LastLoginAt sql.NullTime
	UpdatedAt   time.Time
	ID          int64
}

// LinkGoogleAccount sets the federated subject id, switches the provider
// tag, and refreshes avatar and last-login in one write.
func (q *Queries) LinkGoogleAccount(ctx context.Context, arg LinkGoogleAccountParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE accounts
		SET google_id = ?, provider = ?, avatar_url = ?, last_login_at = ?, updated_at = ?
		WHERE id = ?`,
		arg.GoogleID, arg.Provider, arg.AvatarURL, arg.LastLoginAt, arg.UpdatedAt, arg.ID)
	return err
}

// RefreshFederatedLoginParams refreshes profile data on a repeat
// federated login of an already-linked account.
type RefreshFederatedLoginParams struct {
	AvatarURL   string
	LastLoginAt sql.NullTime
	UpdatedAt   time.Time
	ID          int64
}

// RefreshFederatedLogin updates avatar and last-login without touching
// the federation linkage.
func (q *Queries) RefreshFederatedLogin(ctx context.Context, arg RefreshFederatedLoginParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE accounts
		SET avatar_url = ?, last_login_at = ?, updated_at = ?
		WHERE id = ?`,
		arg.AvatarURL, arg.LastLoginAt, arg.UpdatedAt, arg.ID)
	return err
}

// CountAccounts returns the number of accounts.
func (q *Queries) CountAccounts(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n)
	return n, err
}
