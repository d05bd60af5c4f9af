// Copyright (c) 2026 Martin Kley
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"

	"github.com/idgate-dev/idgate/internal/middleware"
	"github.com/idgate-dev/idgate/internal/model"
	"github.com/idgate-dev/idgate/internal/service"
)

// Externally visible authentication messages. Most login failures share
// one deliberately uninformative message; only the wrong-provider case
// is revealed, and the inactive case only ever surfaces after the
// password has been verified.
const (
	MsgInvalidCredentials = "Email ou mot de passe incorrect"
	MsgGoogleAccount      = "Ce compte a été créé avec Google. Veuillez vous connecter avec Google."
	MsgAccountInactive    = "Votre compte est désactivé. Contactez un administrateur."
	MsgLoggedOut          = "Déconnexion réussie"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// ProviderClient exchanges an authorization code with the external
// identity provider. The handshake lives outside the core; tests and
// deployments inject their own implementation.
type ProviderClient interface {
	Exchange(ctx context.Context, code string) (service.FederatedProfile, error)
}

// AuthHandler handles the /auth routes.
type AuthHandler struct {
	authService *service.AuthService
	provider    ProviderClient
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authService *service.AuthService, provider ProviderClient) *AuthHandler {
	return &AuthHandler{authService: authService, provider: provider}
}

type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	AccessToken string                 `json:"accessToken"`
	User        model.SanitizedAccount `json:"user"`
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	details := map[string]string{}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		details["email"] = "invalid email address"
	}
	if len(req.Password) < MinPasswordLength {
		details["password"] = "password must be at least 8 characters"
	}
	if req.ConfirmPassword != req.Password {
		details["confirmPassword"] = "passwords do not match"
	}
	if len(details) > 0 {
		WriteBadRequest(w, "Validation failed", details)
		return
	}

	result, err := h.authService.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			WriteConflict(w, "Un compte existe déjà avec cet email")
		case errors.Is(err, service.ErrDefaultRoleMissing):
			slog.Error("registration failed: role directory not seeded", "error", err)
			WriteInternalError(w, "Server configuration error")
		default:
			slog.Error("registration failed", "error", err)
			WriteInternalError(w, "Registration failed")
		}
		return
	}

	WriteJSON(w, http.StatusCreated, authResponse{
		AccessToken: result.Token,
		User:        result.Account.Sanitized(),
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if req.Email == "" || req.Password == "" {
		WriteBadRequest(w, "Email and password are required", nil)
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGoogleAccountNoPassword):
			WriteUnauthorized(w, MsgGoogleAccount)
		case errors.Is(err, service.ErrAccountInactive):
			WriteUnauthorized(w, MsgAccountInactive)
		case errors.Is(err, service.ErrInvalidCredentials):
			WriteUnauthorized(w, MsgInvalidCredentials)
		default:
			slog.Error("login failed", "error", err)
			WriteInternalError(w, "Login failed")
		}
		return
	}

	WriteJSON(w, http.StatusOK, authResponse{
		AccessToken: result.Token,
		User:        result.Account.Sanitized(),
	})
}

// Me handles GET /auth/me. Requires Authenticate middleware.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r)
	if account == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}
	WriteJSON(w, http.StatusOK, account.Sanitized())
}

// Logout handles POST /auth/logout. No server-side invalidation: the
// token remains valid until its expiry and the client discards it.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r)
	if account == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}

	h.authService.Logout(r.Context(), account)

	WriteJSON(w, http.StatusOK, map[string]string{"message": MsgLoggedOut})
}

// GoogleCallback handles GET /auth/google/callback. The provider client
// turns the authorization code into a verified profile; the core then
// links or creates the account.
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		WriteBadRequest(w, "Missing authorization code", nil)
		return
	}

	profile, err := h.provider.Exchange(r.Context(), code)
	if err != nil {
		slog.Warn("provider exchange failed", "error", err)
		WriteUnauthorized(w, "Authentification Google échouée")
		return
	}

	result, err := h.authService.FederatedLogin(r.Context(), profile)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDefaultRoleMissing):
			slog.Error("federated login failed: role directory not seeded", "error", err)
			WriteInternalError(w, "Server configuration error")
		case errors.Is(err, service.ErrEmailTaken):
			WriteConflict(w, "Un compte existe déjà avec cet email")
		default:
			slog.Error("federated login failed", "error", err)
			WriteInternalError(w, "Login failed")
		}
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	WriteJSON(w, status, authResponse{
		AccessToken: result.Token,
		User:        result.Account.Sanitized(),
	})
}
