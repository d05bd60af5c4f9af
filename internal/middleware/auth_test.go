package middleware_test

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idgate-dev/idgate/internal/middleware"
	"github.com/idgate-dev/idgate/internal/model"
	"github.com/idgate-dev/idgate/internal/service"
	"github.com/idgate-dev/idgate/internal/store"
	"github.com/idgate-dev/idgate/internal/testutil"
	"github.com/idgate-dev/idgate/internal/token"
)

var testSecret = []byte("Abc123!xyz-Abc123!xyz-Abc123!xyz")

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)
	require.NoError(t, store.Seed(context.Background(), db, false))
	return db
}

func createAccount(t *testing.T, db *sql.DB, email, roleCode string) model.Account {
	t.Helper()
	ctx := context.Background()
	q := store.New(db)

	role, err := q.GetRoleByCode(ctx, roleCode)
	require.NoError(t, err)

	now := time.Now()
	account, err := q.CreateAccount(ctx, store.CreateAccountParams{
		Email:     email,
		RoleID:    role.ID,
		Status:    model.StatusActive,
		Provider:  model.ProviderLocal,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
	return account
}

// echoAccount writes the authenticated account's email, proving the
// context was populated.
func echoAccount(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r)
	if account == nil {
		http.Error(w, "no account", http.StatusInternalServerError)
		return
	}
	_, _ = w.Write([]byte(account.Email))
}

func TestAuthenticate_ValidToken(t *testing.T) {
	db := setupDB(t)
	account := createAccount(t, db, "user@example.com", model.RoleUser)

	issuer := token.NewIssuer(testSecret, time.Hour)
	signed, err := issuer.Sign(&account)
	require.NoError(t, err)

	handler := middleware.Authenticate(issuer, db)(http.HandlerFunc(echoAccount))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user@example.com", rec.Body.String())
}

func TestAuthenticate_Rejections(t *testing.T) {
	db := setupDB(t)
	account := createAccount(t, db, "user@example.com", model.RoleUser)

	issuer := token.NewIssuer(testSecret, time.Hour)
	otherIssuer := token.NewIssuer([]byte("another-secret-another-secret-12"), time.Hour)

	signedOther, err := otherIssuer.Sign(&account)
	require.NoError(t, err)

	deleted := account
	deleted.ID = 99999
	signedGone, err := issuer.Sign(&deleted)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic dXNlcjpwYXNz"},
		{"empty token", "Bearer "},
		{"garbage token", "Bearer garbage"},
		{"wrong signature", "Bearer " + signedOther},
		{"unknown subject", "Bearer " + signedGone},
	}

	handler := middleware.Authenticate(issuer, db)(http.HandlerFunc(echoAccount))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRequireRoles(t *testing.T) {
	db := setupDB(t)
	issuer := token.NewIssuer(testSecret, time.Hour)
	activity := service.NewActivityService(db)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	chain := func(codes ...string) http.Handler {
		return middleware.Authenticate(issuer, db)(
			middleware.RequireRoles(activity, codes...)(next))
	}

	admin := createAccount(t, db, "admin@example.com", model.RoleAdmin)
	user := createAccount(t, db, "user@example.com", model.RoleUser)

	adminToken, err := issuer.Sign(&admin)
	require.NoError(t, err)
	userToken, err := issuer.Sign(&user)
	require.NoError(t, err)

	get := func(h http.Handler, bearer string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/activity-logs", nil)
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	guard := chain(model.RoleAdmin, model.RoleSuperAdmin)

	assert.Equal(t, http.StatusOK, get(guard, adminToken).Code)
	assert.Equal(t, http.StatusForbidden, get(guard, userToken).Code)
	assert.Equal(t, http.StatusUnauthorized, get(guard, "").Code)

	// Membership is exact: ADMIN is not implicitly allowed where only
	// SUPER_ADMIN is listed.
	superOnly := chain(model.RoleSuperAdmin)
	assert.Equal(t, http.StatusForbidden, get(superOnly, adminToken).Code)
}

func TestRequireRoles_RecordsDenial(t *testing.T) {
	db := setupDB(t)
	issuer := token.NewIssuer(testSecret, time.Hour)
	activity := service.NewActivityService(db)

	user := createAccount(t, db, "user@example.com", model.RoleUser)
	userToken, err := issuer.Sign(&user)
	require.NoError(t, err)

	handler := middleware.Authenticate(issuer, db)(
		middleware.RequireRoles(activity, model.RoleAdmin)(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))

	req := httptest.NewRequest(http.MethodGet, "/activity-logs", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	events, err := store.New(db).ListActivityEvents(context.Background(), store.ActivityFilter{
		Action: model.ActionAccessDenied,
	}, 10, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.SeverityWarning, events[0].Severity)
	require.NotNil(t, events[0].ActorID)
	assert.Equal(t, user.ID, *events[0].ActorID)
}

func TestSecurityHeaders(t *testing.T) {
	handler := middleware.SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}
