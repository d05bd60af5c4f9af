// Copyright (c) 2026 Martin Kley
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// authorization, and request hardening.
package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/idgate-dev/idgate/internal/model"
	"github.com/idgate-dev/idgate/internal/store"
	"github.com/idgate-dev/idgate/internal/token"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// ContextKeyAccount is the context key for the authenticated account.
const ContextKeyAccount ContextKey = "account"

// APIError is the JSON error envelope written by middleware.
type APIError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// WriteAPIError writes a JSON error response.
func WriteAPIError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	apiErr := APIError{}
	apiErr.Error.Code = code
	apiErr.Error.Message = message
	_ = json.NewEncoder(w).Encode(apiErr)
}

// Authenticate creates middleware that requires a valid bearer token.
// The token subject is re-resolved against the credential registry on
// every request; the rest of the payload is never trusted. Fails closed
// with 401 on a missing, malformed, or expired token, and when the
// account no longer exists.
func Authenticate(issuer *token.Issuer, db *sql.DB) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Missing or malformed Authorization header")
				return
			}

			accountID, _, err := issuer.Parse(raw)
			if err != nil {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			account, err := queries.GetAccountByID(r.Context(), accountID)
			if err != nil {
				if !errors.Is(err, sql.ErrNoRows) {
					slog.Error("failed to resolve token subject", "error", err, "account_id", accountID)
				}
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyAccount, account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// GetAccount retrieves the authenticated account from the request
// context. Returns nil when the route ran without Authenticate.
func GetAccount(r *http.Request) *model.Account {
	account, ok := r.Context().Value(ContextKeyAccount).(model.Account)
	if !ok {
		return nil
	}
	return &account
}
