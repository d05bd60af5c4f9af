package service_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idgate-dev/idgate/internal/model"
	"github.com/idgate-dev/idgate/internal/service"
	"github.com/idgate-dev/idgate/internal/store"
	"github.com/idgate-dev/idgate/internal/testutil"
)

func TestMain(m *testing.M) {
	// Several tests drive failure paths on purpose; keep their log output
	// down to warnings and errors.
	slog.SetDefault(testutil.TestLogger())
	os.Exit(m.Run())
}

func TestRecord_Defaults(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	activity := service.NewActivityService(db)

	event := activity.Record(context.Background(), service.NewEvent{
		Action: model.ActionSystemError,
	})
	require.NotNil(t, event)

	assert.Equal(t, model.SeverityInfo, event.Severity)
	assert.Equal(t, model.ActorSystem, event.ActorType)
	assert.Equal(t, model.EntitySystem, event.EntityType)
	assert.Equal(t, "{}", event.Metadata)
	assert.Nil(t, event.ActorID)
}

func TestRecord_Metadata(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	activity := service.NewActivityService(db)

	event := activity.Record(context.Background(), service.NewEvent{
		ActorType:  model.ActorUser,
		ActorID:    5,
		Action:     model.ActionLogin,
		EntityType: model.EntityUser,
		EntityID:   5,
		Metadata:   map[string]any{"email": "user@example.com"},
	})
	require.NotNil(t, event)
	assert.Contains(t, event.Metadata, `"email":"user@example.com"`)
}

func TestRecord_NeverFails(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	activity := service.NewActivityService(db)
	cleanup() // close the database out from under the service

	event := activity.Record(context.Background(), service.NewEvent{
		Action: model.ActionLogin,
	})
	assert.Nil(t, event)
}

func TestLogUserAction(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	activity := service.NewActivityService(db)

	event := activity.LogUserAction(context.Background(), 7, model.ActorUser,
		model.ActionLogin, map[string]any{"email": "user@example.com"})
	require.NotNil(t, event)

	// The user acts on their own account: actor and entity are the same.
	require.NotNil(t, event.ActorID)
	require.NotNil(t, event.EntityID)
	assert.EqualValues(t, 7, *event.ActorID)
	assert.EqualValues(t, 7, *event.EntityID)
	assert.Equal(t, model.ActorUser, event.ActorType)
	assert.Equal(t, model.EntityUser, event.EntityType)
	assert.Equal(t, model.SeverityInfo, event.Severity)
	assert.Contains(t, event.Metadata, `"email":"user@example.com"`)
}

func TestLogError_ActorSelection(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	activity := service.NewActivityService(db)
	ctx := context.Background()

	event := activity.LogError(ctx, 0, model.ActionSystemError, nil)
	require.NotNil(t, event)
	assert.Equal(t, model.ActorSystem, event.ActorType)
	assert.Equal(t, model.SeverityError, event.Severity)

	event = activity.LogError(ctx, 9, model.ActionSystemError, nil)
	require.NotNil(t, event)
	assert.Equal(t, model.ActorUser, event.ActorType)
	require.NotNil(t, event.ActorID)
	assert.EqualValues(t, 9, *event.ActorID)
}

func TestQuery_Pagination(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	activity := service.NewActivityService(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	queries := store.New(db)
	for i := 0; i < 5; i++ {
		_, err := queries.CreateActivityEvent(ctx, store.CreateActivityEventParams{
			ActorType:  model.ActorUser,
			ActorID:    1,
			Action:     model.ActionLogin,
			EntityType: model.EntityUser,
			EntityID:   1,
			Severity:   model.SeverityInfo,
			Metadata:   "{}",
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	events, total, err := activity.Query(ctx, store.ActivityFilter{}, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, events, 2)

	events, _, err = activity.Query(ctx, store.ActivityFilter{}, 3, 2)
	require.NoError(t, err)
	assert.Len(t, events, 1)

	// Out-of-range values are clamped, not rejected.
	events, total, err = activity.Query(ctx, store.ActivityFilter{}, -1, 100000)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, events, 5)
}

func TestByActor_LimitClamp(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	activity := service.NewActivityService(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		activity.Record(ctx, service.NewEvent{
			ActorType: model.ActorUser, ActorID: 1,
			Action: model.ActionLogin, EntityType: model.EntityUser, EntityID: 1,
		})
	}

	events, err := activity.ByActor(ctx, 1, 0)
	require.NoError(t, err)
	assert.Len(t, events, 3)

	events, err = activity.ByActor(ctx, 1, 2)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}
