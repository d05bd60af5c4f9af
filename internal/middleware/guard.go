// Copyright (c) 2026 Martin Kley
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"

	"github.com/idgate-dev/idgate/internal/model"
	"github.com/idgate-dev/idgate/internal/service"
)

// RequireRoles creates middleware that allows the request only when the
// authenticated account's role code is one of the given codes. There is
// no role hierarchy; each route enumerates exactly what it accepts.
// Must run after Authenticate. Denials are recorded in the activity
// trail when an activity service is provided.
func RequireRoles(activity *service.ActivityService, codes ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		allowed[code] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account := GetAccount(r)
			if account == nil {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
				return
			}

			if _, ok := allowed[account.Role.Code]; !ok {
				slog.Warn("access denied",
					"status", http.StatusForbidden,
					"method", r.Method,
					"path", r.URL.Path,
					"account_id", account.ID,
					"role", account.Role.Code,
				)

				if activity != nil {
					activity.Record(r.Context(), service.NewEvent{
						ActorType:  model.ActorTypeForRole(account.Role.Code),
						ActorID:    account.ID,
						Action:     model.ActionAccessDenied,
						EntityType: model.EntityUser,
						EntityID:   account.ID,
						Severity:   model.SeverityWarning,
						Metadata: map[string]any{
							"method": r.Method,
							"path":   r.URL.Path,
							"role":   account.Role.Code,
						},
					})
				}

				WriteAPIError(w, http.StatusForbidden, "forbidden", "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
