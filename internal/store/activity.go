// Copyright (c) 2026 Martin Kley
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/idgate-dev/idgate/internal/model"
)

// CreateActivityEventParams holds the fields for a new activity event.
type CreateActivityEventParams struct {
	ActorType  string
	ActorID    int64 // 0 means no actor
	Action     string
	EntityType string
	EntityID   int64 // 0 means no entity
	Severity   string
	Metadata   string
	CreatedAt  time.Time
}

// CreateActivityEvent appends one event to the trail and returns it.
func (q *Queries) CreateActivityEvent(ctx context.Context, arg CreateActivityEventParams) (model.ActivityEvent, error) {
	actorID := nullableID(arg.ActorID)
	entityID := nullableID(arg.EntityID)

	res, err := q.db.ExecContext(ctx, `
		INSERT INTO activity_events (actor_type, actor_id, action, entity_type, entity_id, severity, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.ActorType, actorID, arg.Action, arg.EntityType, entityID, arg.Severity, arg.Metadata, arg.CreatedAt)
	if err != nil {
		return model.ActivityEvent{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.ActivityEvent{}, err
	}

	return model.ActivityEvent{
		ID:         id,
		ActorType:  arg.ActorType,
		ActorID:    actorID,
		Action:     arg.Action,
		EntityType: arg.EntityType,
		EntityID:   entityID,
		Severity:   arg.Severity,
		Metadata:   arg.Metadata,
		CreatedAt:  arg.CreatedAt,
	}, nil
}

// ActivityFilter narrows an activity query. Zero-valued fields are
// ignored; set fields combine with AND.
type ActivityFilter struct {
	ActorType  string
	ActorID    int64
	Action     string
	EntityType string
	Severity   string
}

// where renders the filter as a WHERE clause and its arguments.
func (f ActivityFilter) where() (string, []any) {
	var conds []string
	var args []any

	if f.ActorType != "" {
		conds = append(conds, "actor_type = ?")
		args = append(args, f.ActorType)
	}
	if f.ActorID != 0 {
		conds = append(conds, "actor_id = ?")
		args = append(args, f.ActorID)
	}
	if f.Action != "" {
		conds = append(conds, "action = ?")
		args = append(args, f.Action)
	}
	if f.EntityType != "" {
		conds = append(conds, "entity_type = ?")
		args = append(args, f.EntityType)
	}
	if f.Severity != "" {
		conds = append(conds, "severity = ?")
		args = append(args, f.Severity)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

const activityColumns = `id, actor_type, actor_id, action, entity_type, entity_id, severity, metadata, created_at`

// ListActivityEvents returns one page of events matching the filter,
// newest first.
func (q *Queries) ListActivityEvents(ctx context.Context, filter ActivityFilter, limit, offset int64) ([]model.ActivityEvent, error) {
	where, args := filter.where()
	args = append(args, limit, offset)

	rows, err := q.db.QueryContext(ctx,
		`SELECT `+activityColumns+` FROM activity_events`+where+
			` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanActivityEvents(rows)
}

// CountActivityEvents returns the total number of events matching the
// filter, ignoring pagination.
func (q *Queries) CountActivityEvents(ctx context.Context, filter ActivityFilter) (int64, error) {
	where, args := filter.where()
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM activity_events`+where, args...).Scan(&n)
	return n, err
}

// ListActivityEventsByActor returns the most recent events recorded for
// one actor account.
func (q *Queries) ListActivityEventsByActor(ctx context.Context, actorID, limit int64) ([]model.ActivityEvent, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+activityColumns+` FROM activity_events
		 WHERE actor_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		actorID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanActivityEvents(rows)
}

// ListActivityEventsByEntity returns the most recent events concerning
// one entity, with the actor account resolved for display.
func (q *Queries) ListActivityEventsByEntity(ctx context.Context, entityType string, entityID, limit int64) ([]model.ActivityEvent, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT e.id, e.actor_type, e.actor_id, e.action, e.entity_type, e.entity_id,
		       e.severity, e.metadata, e.created_at,
		       COALESCE(a.email, ''), COALESCE(a.first_name || ' ' || a.last_name, '')
		FROM activity_events e
		LEFT JOIN accounts a ON a.id = e.actor_id
		WHERE e.entity_type = ? AND e.entity_id = ?
		ORDER BY e.created_at DESC, e.id DESC LIMIT ?`,
		entityType, entityID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var events []model.ActivityEvent
	for rows.Next() {
		var e model.ActivityEvent
		if err := rows.Scan(
			&e.ID, &e.ActorType, &e.ActorID, &e.Action, &e.EntityType, &e.EntityID,
			&e.Severity, &e.Metadata, &e.CreatedAt,
			&e.ActorEmail, &e.ActorName,
		); err != nil {
			return nil, err
		}
		e.ActorName = strings.TrimSpace(e.ActorName)
		events = append(events, e)
	}
	return events, rows.Err()
}

func scanActivityEvents(rows *sql.Rows) ([]model.ActivityEvent, error) {
	var events []model.ActivityEvent
	for rows.Next() {
		var e model.ActivityEvent
		if err := rows.Scan(
			&e.ID, &e.ActorType, &e.ActorID, &e.Action, &e.EntityType, &e.EntityID,
			&e.Severity, &e.Metadata, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
