// Copyright (c) 2026 Martin Kley
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Activity event severities.
const (
	SeverityInfo    = "INFO"
	SeverityWarning = "WARNING"
	SeverityError   = "ERROR"
)

// Actor types. Derived from the caller's role for authenticated writes,
// GUEST for unauthenticated ones, SYSTEM for internal telemetry.
const (
	ActorUser       = "USER"
	ActorGuest      = "GUEST"
	ActorSystem     = "SYSTEM"
	ActorAdmin      = "ADMIN"
	ActorSuperAdmin = "SUPERADMIN"
)

// Action types.
const (
	ActionRegister     = "REGISTER"
	ActionLogin        = "LOGIN"
	ActionLoginFailed  = "LOGIN_FAILED"
	ActionGoogleLogin  = "GOOGLE_LOGIN"
	ActionLogout       = "LOGOUT"
	ActionCreate       = "CREATE"
	ActionUpdate       = "UPDATE"
	ActionDelete       = "DELETE"
	ActionAccessDenied = "ACCESS_DENIED"
	ActionSystemError  = "SYSTEM_ERROR"
)

// Entity types an event can concern. The catalog types are written by
// the resource managers outside this core, which share the trail.
const (
	EntityUser     = "USER"
	EntityRole     = "ROLE"
	EntityProduct  = "PRODUCT"
	EntityVariant  = "VARIANT"
	EntityFormat   = "FORMAT"
	EntityMaterial = "MATERIAL"
	EntityTag      = "TAG"
	EntityImage    = "IMAGE"
	EntitySystem   = "SYSTEM"
)

// ActivityEvent is one immutable record in the audit trail. Events
// reference accounts by id only; the account may change later without
// invalidating the event.
type ActivityEvent struct {
	ID         int64     `json:"id"`
	ActorType  string    `json:"actorType"`
	ActorID    *int64    `json:"actorUserId,omitempty"` // nil for GUEST/SYSTEM events
	Action     string    `json:"actionType"`
	EntityType string    `json:"entityType"`
	EntityID   *int64    `json:"entityId,omitempty"`
	Severity   string    `json:"severity"`
	Metadata   string    `json:"metadata"` // JSON object, schema-less
	CreatedAt  time.Time `json:"createdAt"`

	// Resolved for display on entity-scoped listings; empty elsewhere.
	ActorEmail string `json:"actorEmail,omitempty"`
	ActorName  string `json:"actorName,omitempty"`
}

// ActorTypes returns the legal actor type filter values.
func ActorTypes() []string {
	return []string{ActorUser, ActorGuest, ActorSystem, ActorAdmin, ActorSuperAdmin}
}

// ActionTypes returns the legal action type filter values.
func ActionTypes() []string {
	return []string{
		ActionRegister, ActionLogin, ActionLoginFailed, ActionGoogleLogin,
		ActionLogout, ActionCreate, ActionUpdate, ActionDelete,
		ActionAccessDenied, ActionSystemError,
	}
}

// EntityTypes returns the legal entity type filter values.
func EntityTypes() []string {
	return []string{
		EntityUser, EntityRole, EntityProduct, EntityVariant,
		EntityFormat, EntityMaterial, EntityTag, EntityImage, EntitySystem,
	}
}

// Severities returns the legal severity filter values.
func Severities() []string {
	return []string{SeverityInfo, SeverityWarning, SeverityError}
}

// ActorTypeForRole maps a role code to the actor type recorded on audit
// events. Centralized here so every component derives it the same way.
func ActorTypeForRole(code string) string {
	switch code {
	case RoleSuperAdmin:
		return ActorSuperAdmin
	case RoleAdmin:
		return ActorAdmin
	default:
		return ActorUser
	}
}
