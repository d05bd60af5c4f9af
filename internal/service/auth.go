// Copyright (c) 2026 Martin Kley
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/idgate-dev/idgate/internal/auth"
	"github.com/idgate-dev/idgate/internal/cache"
	"github.com/idgate-dev/idgate/internal/model"
	"github.com/idgate-dev/idgate/internal/store"
	"github.com/idgate-dev/idgate/internal/token"
)

// AuthService orchestrates registration, login, federated login, and
// logout. All account invariants are enforced here before the store is
// touched; the unique indexes are only the backstop against races.
type AuthService struct {
	queries  *store.Queries
	roles    *cache.RoleDirectory
	activity *ActivityService
	issuer   *token.Issuer
	now      func() time.Time
}

// NewAuthService creates an AuthService.
func NewAuthService(db *sql.DB, roles *cache.RoleDirectory, activity *ActivityService, issuer *token.Issuer) *AuthService {
	return &AuthService{
		queries:  store.New(db),
		roles:    roles,
		activity: activity,
		issuer:   issuer,
		now:      time.Now,
	}
}

// AuthResult is returned by every successful authentication operation.
type AuthResult struct {
	Token   string
	Account model.Account
}

// FederatedProfile is the identity payload the external provider
// callback yields. The provider handshake itself happens outside the
// core.
type FederatedProfile struct {
	GoogleID  string
	Email     string
	FirstName string
	LastName  string
	AvatarURL string
}

// FederatedResult tags whether the federated login linked an existing
// account or created a new one.
type FederatedResult struct {
	AuthResult
	Created bool
}

// Register creates a LOCAL account. Password/confirmation equality is
// the caller's precondition. Fails with ErrEmailTaken when the email
// already has an account and with ErrDefaultRoleMissing when the role
// directory was never seeded.
func (s *AuthService) Register(ctx context.Context, email, password string) (AuthResult, error) {
	_, err := s.queries.GetAccountByEmail(ctx, email)
	if err == nil {
		return AuthResult{}, ErrEmailTaken
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return AuthResult{}, fmt.Errorf("checking email: %w", err)
	}

	role, err := s.defaultRole(ctx)
	if err != nil {
		return AuthResult{}, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hashing password: %w", err)
	}

	now := s.now()
	account, err := s.queries.CreateAccount(ctx, store.CreateAccountParams{
		Email:        email,
		PasswordHash: sql.NullString{String: hash, Valid: true},
		RoleID:       role.ID,
		Status:       model.StatusActive,
		Provider:     model.ProviderLocal,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		// A concurrent registration for the same email loses here and
		// surfaces the same Conflict as the pre-check path.
		if store.IsUniqueViolation(err) {
			return AuthResult{}, ErrEmailTaken
		}
		return AuthResult{}, fmt.Errorf("creating account: %w", err)
	}

	s.activity.Record(ctx, NewEvent{
		ActorType:  model.ActorTypeForRole(account.Role.Code),
		ActorID:    account.ID,
		Action:     model.ActionRegister,
		EntityType: model.EntityUser,
		EntityID:   account.ID,
		Metadata:   map[string]any{"email": account.Email, "role": account.Role.Code},
	})

	return s.result(account)
}

// Login authenticates a LOCAL account. The failure branches run in a
// fixed order (existence, provider capability, password, status) so a
// caller cannot learn whether an account is disabled without first
// presenting the right password. Every failure records one WARNING
// event with a reason code.
func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	account, err := s.queries.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.recordLoginFailure(ctx, nil, map[string]any{"email": email, "reason": ReasonUserNotFound})
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("loading account: %w", err)
	}

	if !account.HasPassword() {
		s.recordLoginFailure(ctx, &account, map[string]any{"email": email, "reason": ReasonGoogleAccountNoPassword})
		return AuthResult{}, ErrGoogleAccountNoPassword
	}

	valid, err := auth.CheckPassword(password, account.PasswordHash.String)
	if err != nil || !valid {
		if err != nil {
			slog.Error("password check error", "error", err, "account_id", account.ID)
		}
		s.recordLoginFailure(ctx, &account, map[string]any{"email": email, "reason": ReasonInvalidPassword})
		return AuthResult{}, ErrInvalidCredentials
	}

	if !account.IsActive() {
		s.recordLoginFailure(ctx, &account, map[string]any{
			"email":  email,
			"reason": ReasonAccountInactive,
			"status": account.Status,
		})
		return AuthResult{}, ErrAccountInactive
	}

	// Re-hash if the stored hash uses outdated cost parameters.
	if auth.NeedsRehash(account.PasswordHash.String) {
		newHash, err := auth.HashPassword(password)
		if err != nil {
			slog.Error("failed to re-hash password", "error", err, "account_id", account.ID)
		} else if err := s.queries.UpdateAccountPassword(ctx, store.UpdateAccountPasswordParams{
			PasswordHash: newHash,
			UpdatedAt:    s.now(),
			ID:           account.ID,
		}); err != nil {
			slog.Error("failed to store re-hashed password", "error", err, "account_id", account.ID)
		}
	}

	loginAt := s.now()
	if err := s.queries.UpdateAccountLastLogin(ctx, store.UpdateAccountLastLoginParams{
		LastLoginAt: sql.NullTime{Time: loginAt, Valid: true},
		UpdatedAt:   loginAt,
		ID:          account.ID,
	}); err != nil {
		return AuthResult{}, fmt.Errorf("updating last login: %w", err)
	}
	account.LastLoginAt = sql.NullTime{Time: loginAt, Valid: true}

	s.activity.Record(ctx, NewEvent{
		ActorType:  model.ActorTypeForRole(account.Role.Code),
		ActorID:    account.ID,
		Action:     model.ActionLogin,
		EntityType: model.EntityUser,
		EntityID:   account.ID,
		Metadata:   map[string]any{"email": account.Email},
	})

	return s.result(account)
}

// FederatedLogin authenticates through the external provider. The
// lookup matches on the provider subject id OR the email, so a local
// account that signs in with Google for the first time is linked rather
// than duplicated. The call is idempotent: a second login with the same
// identity updates the existing account and never creates another.
func (s *AuthService) FederatedLogin(ctx context.Context, profile FederatedProfile) (FederatedResult, error) {
	loginAt := s.now()

	account, err := s.queries.GetAccountByGoogleIDOrEmail(ctx, profile.GoogleID, profile.Email)
	switch {
	case err == nil:
		if !account.GoogleID.Valid {
			// First federated login of a local account: link it.
			if err := s.queries.LinkGoogleAccount(ctx, store.LinkGoogleAccountParams{
				GoogleID:    sql.NullString{String: profile.GoogleID, Valid: true},
				Provider:    model.ProviderFederated,
				AvatarURL:   profile.AvatarURL,
				LastLoginAt: sql.NullTime{Time: loginAt, Valid: true},
				UpdatedAt:   loginAt,
				ID:          account.ID,
			}); err != nil {
				if store.IsUniqueViolation(err) {
					return FederatedResult{}, ErrEmailTaken
				}
				return FederatedResult{}, fmt.Errorf("linking account: %w", err)
			}
		} else {
			if err := s.queries.RefreshFederatedLogin(ctx, store.RefreshFederatedLoginParams{
				AvatarURL:   profile.AvatarURL,
				LastLoginAt: sql.NullTime{Time: loginAt, Valid: true},
				UpdatedAt:   loginAt,
				ID:          account.ID,
			}); err != nil {
				return FederatedResult{}, fmt.Errorf("refreshing account: %w", err)
			}
		}

		account, err = s.queries.GetAccountByID(ctx, account.ID)
		if err != nil {
			return FederatedResult{}, fmt.Errorf("reloading account: %w", err)
		}

		s.recordFederatedLogin(ctx, account, false)

		res, err := s.result(account)
		return FederatedResult{AuthResult: res}, err

	case errors.Is(err, sql.ErrNoRows):
		role, err := s.defaultRole(ctx)
		if err != nil {
			return FederatedResult{}, err
		}

		account, err := s.queries.CreateAccount(ctx, store.CreateAccountParams{
			Email:     profile.Email,
			GoogleID:  sql.NullString{String: profile.GoogleID, Valid: true},
			RoleID:    role.ID,
			Status:    model.StatusActive,
			Provider:  model.ProviderFederated,
			FirstName: profile.FirstName,
			LastName:  profile.LastName,
			AvatarURL: profile.AvatarURL,
			CreatedAt: loginAt,
			UpdatedAt: loginAt,
		})
		if err != nil {
			if store.IsUniqueViolation(err) {
				return FederatedResult{}, ErrEmailTaken
			}
			return FederatedResult{}, fmt.Errorf("creating account: %w", err)
		}

		if err := s.queries.UpdateAccountLastLogin(ctx, store.UpdateAccountLastLoginParams{
			LastLoginAt: sql.NullTime{Time: loginAt, Valid: true},
			UpdatedAt:   loginAt,
			ID:          account.ID,
		}); err != nil {
			return FederatedResult{}, fmt.Errorf("updating last login: %w", err)
		}
		account.LastLoginAt = sql.NullTime{Time: loginAt, Valid: true}

		s.recordFederatedLogin(ctx, account, true)

		res, err := s.result(account)
		return FederatedResult{AuthResult: res, Created: true}, err

	default:
		return FederatedResult{}, fmt.Errorf("looking up account: %w", err)
	}
}

// Logout records the logout event. No server-side invalidation happens;
// the token stays valid until its embedded expiry and disposal is the
// client's job.
func (s *AuthService) Logout(ctx context.Context, account *model.Account) {
	s.activity.Record(ctx, NewEvent{
		ActorType:  model.ActorTypeForRole(account.Role.Code),
		ActorID:    account.ID,
		Action:     model.ActionLogout,
		EntityType: model.EntityUser,
		EntityID:   account.ID,
	})
}

// defaultRole resolves the self-registration role, translating absence
// into the configuration fault.
func (s *AuthService) defaultRole(ctx context.Context) (model.Role, error) {
	role, err := s.roles.ByCode(ctx, model.DefaultRoleCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Role{}, ErrDefaultRoleMissing
		}
		return model.Role{}, fmt.Errorf("loading default role: %w", err)
	}
	return role, nil
}

func (s *AuthService) result(account model.Account) (AuthResult, error) {
	signed, err := s.issuer.Sign(&account)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issuing token: %w", err)
	}
	return AuthResult{Token: signed, Account: account}, nil
}

// recordLoginFailure writes the WARNING event for a failed login. The
// event must be durable before the error is returned to the caller, so
// this is synchronous; its own failure is swallowed by Record.
func (s *AuthService) recordLoginFailure(ctx context.Context, account *model.Account, metadata map[string]any) {
	e := NewEvent{
		ActorType:  model.ActorGuest,
		Action:     model.ActionLoginFailed,
		EntityType: model.EntityUser,
		Severity:   model.SeverityWarning,
		Metadata:   metadata,
	}
	if account != nil {
		e.ActorID = account.ID
		e.EntityID = account.ID
	}
	s.activity.Record(ctx, e)
}

func (s *AuthService) recordFederatedLogin(ctx context.Context, account model.Account, created bool) {
	s.activity.Record(ctx, NewEvent{
		ActorType:  model.ActorTypeForRole(account.Role.Code),
		ActorID:    account.ID,
		Action:     model.ActionGoogleLogin,
		EntityType: model.EntityUser,
		EntityID:   account.ID,
		Metadata:   map[string]any{"email": account.Email, "created": created},
	})
}
