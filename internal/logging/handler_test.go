package logging

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idgate-dev/idgate/internal/model"
	"github.com/idgate-dev/idgate/internal/store"
	"github.com/idgate-dev/idgate/internal/testutil"
)

func newTestLogger(t *testing.T) (*slog.Logger, *store.Queries) {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	inner := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(NewActivityLogHandler(inner, db)), store.New(db)
}

func trailEvents(t *testing.T, q *store.Queries) []model.ActivityEvent {
	t.Helper()
	events, err := q.ListActivityEvents(context.Background(), store.ActivityFilter{}, 10, 0)
	require.NoError(t, err)
	return events
}

func TestHandler_WarnReachesTrail(t *testing.T) {
	logger, q := newTestLogger(t)

	logger.Warn("cache degraded", "backend", "redis")

	events := trailEvents(t, q)
	require.Len(t, events, 1)
	assert.Equal(t, model.ActorSystem, events[0].ActorType)
	assert.Equal(t, model.ActionSystemError, events[0].Action)
	assert.Equal(t, model.SeverityWarning, events[0].Severity)
	assert.Contains(t, events[0].Metadata, "cache degraded")
	assert.Contains(t, events[0].Metadata, "redis")
}

func TestHandler_ErrorSeverity(t *testing.T) {
	logger, q := newTestLogger(t)

	logger.Error("migration failed")

	events := trailEvents(t, q)
	require.Len(t, events, 1)
	assert.Equal(t, model.SeverityError, events[0].Severity)
}

func TestHandler_InfoStaysOut(t *testing.T) {
	logger, q := newTestLogger(t)

	logger.Info("server started")
	logger.Debug("verbose detail")

	assert.Empty(t, trailEvents(t, q))
}

func TestHandler_WithAttrs(t *testing.T) {
	logger, q := newTestLogger(t)

	logger.With("request_id", "abc123").Warn("slow query")

	events := trailEvents(t, q)
	require.Len(t, events, 1)
}
