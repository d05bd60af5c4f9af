package model

import (
	"database/sql"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestAccount_IsActive(t *testing.T) {
	a := Account{Status: StatusActive}
	if !a.IsActive() {
		t.Error("ACTIVE account reported inactive")
	}
	a.Status = StatusSuspended
	if a.IsActive() {
		t.Error("SUSPENDED account reported active")
	}
}

func TestAccount_HasPassword(t *testing.T) {
	a := Account{}
	if a.HasPassword() {
		t.Error("account without hash reported as having a password")
	}
	a.PasswordHash = sql.NullString{String: "", Valid: true}
	if a.HasPassword() {
		t.Error("account with empty hash reported as having a password")
	}
	a.PasswordHash = sql.NullString{String: "$argon2id$...", Valid: true}
	if !a.HasPassword() {
		t.Error("account with hash reported as passwordless")
	}
}

func TestAccount_Sanitized(t *testing.T) {
	now := time.Now()
	a := Account{
		ID:           7,
		Email:        "user@example.com",
		PasswordHash: sql.NullString{String: "$argon2id$secret", Valid: true},
		GoogleID:     sql.NullString{String: "google-sub-123", Valid: true},
		Role:         Role{Code: RoleAdmin},
		Status:       StatusActive,
		Provider:     ProviderLocal,
		LastLoginAt:  sql.NullTime{Time: now, Valid: true},
		CreatedAt:    now,
	}

	s := a.Sanitized()
	if s.Role != RoleAdmin {
		t.Errorf("Role = %q", s.Role)
	}
	if s.LastLoginAt == nil || !s.LastLoginAt.Equal(now) {
		t.Errorf("LastLoginAt = %v", s.LastLoginAt)
	}

	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(raw)
	if strings.Contains(body, "argon2id") || strings.Contains(body, "google-sub-123") {
		t.Errorf("sanitized payload leaks credentials: %s", body)
	}
	if !strings.Contains(body, `"email":"user@example.com"`) {
		t.Errorf("sanitized payload missing email: %s", body)
	}
}
