// Copyright (c) 2026 Martin Kley
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/idgate-dev/idgate/internal/model"
	"github.com/idgate-dev/idgate/internal/store"
)

// DefaultActivityLimit caps ByActor/ByEntity listings when the caller
// supplies no limit.
const DefaultActivityLimit = 50

// MaxActivityPageSize bounds offset pagination.
const MaxActivityPageSize = 100

// ActivityService owns the append-only activity trail.
type ActivityService struct {
	queries *store.Queries
	now     func() time.Time
}

// NewActivityService creates an ActivityService.
func NewActivityService(db *sql.DB) *ActivityService {
	return &ActivityService{queries: store.New(db), now: time.Now}
}

// NewEvent describes an event to record. Severity defaults to INFO and
// Metadata to an empty object.
type NewEvent struct {
	ActorType  string
	ActorID    int64
	Action     string
	EntityType string
	EntityID   int64
	Severity   string
	Metadata   map[string]any
}

// Record appends one event to the trail. It never returns an error:
// audit logging is best-effort telemetry and must not abort the business
// operation that triggered it. On storage failure the error is logged
// out-of-band and nil is returned.
func (s *ActivityService) Record(ctx context.Context, e NewEvent) *model.ActivityEvent {
	if e.Severity == "" {
		e.Severity = model.SeverityInfo
	}
	if e.ActorType == "" {
		e.ActorType = model.ActorSystem
	}
	if e.EntityType == "" {
		e.EntityType = model.EntitySystem
	}

	metadataJSON := "{}"
	if e.Metadata != nil {
		if raw, err := json.Marshal(e.Metadata); err == nil {
			metadataJSON = string(raw)
		}
	}

	event, err := s.queries.CreateActivityEvent(ctx, store.CreateActivityEventParams{
		ActorType:  e.ActorType,
		ActorID:    e.ActorID,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Severity:   e.Severity,
		Metadata:   metadataJSON,
		CreatedAt:  s.now(),
	})
	if err != nil {
		slog.Error("failed to record activity event",
			"error", err,
			"action", e.Action,
			"actor_id", e.ActorID,
		)
		return nil
	}

	return &event
}

// LogUserAction records an action a user performed on their own account;
// actor and entity are both the user.
func (s *ActivityService) LogUserAction(ctx context.Context, userID int64, actorType, action string, metadata map[string]any) *model.ActivityEvent {
	return s.Record(ctx, NewEvent{
		ActorType:  actorType,
		ActorID:    userID,
		Action:     action,
		EntityType: model.EntityUser,
		EntityID:   userID,
		Metadata:   metadata,
	})
}

// LogError records an error-severity event. The actor is SYSTEM unless
// an acting user id is supplied.
func (s *ActivityService) LogError(ctx context.Context, actorID int64, action string, metadata map[string]any) *model.ActivityEvent {
	actorType := model.ActorSystem
	if actorID != 0 {
		actorType = model.ActorUser
	}
	return s.Record(ctx, NewEvent{
		ActorType: actorType,
		ActorID:   actorID,
		Action:    action,
		Severity:  model.SeverityError,
		Metadata:  metadata,
	})
}

// Query returns one page of events matching the filter, newest first,
// along with the total match count for page computation. page starts at
// 1; pageSize is clamped to 1..MaxActivityPageSize.
func (s *ActivityService) Query(ctx context.Context, filter store.ActivityFilter, page, pageSize int64) ([]model.ActivityEvent, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > MaxActivityPageSize {
		pageSize = MaxActivityPageSize
	}

	total, err := s.queries.CountActivityEvents(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	events, err := s.queries.ListActivityEvents(ctx, filter, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

// ByActor returns the most recent events recorded for one account.
func (s *ActivityService) ByActor(ctx context.Context, actorID, limit int64) ([]model.ActivityEvent, error) {
	if limit < 1 || limit > MaxActivityPageSize {
		limit = DefaultActivityLimit
	}
	return s.queries.ListActivityEventsByActor(ctx, actorID, limit)
}

// ByEntity returns the most recent events concerning one entity, with
// the actor account resolved for display.
func (s *ActivityService) ByEntity(ctx context.Context, entityType string, entityID, limit int64) ([]model.ActivityEvent, error) {
	if limit < 1 || limit > MaxActivityPageSize {
		limit = DefaultActivityLimit
	}
	return s.queries.ListActivityEventsByEntity(ctx, entityType, entityID, limit)
}
