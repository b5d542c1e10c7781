package status

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/newsharvester/services/store"
)

func setupTestService(t *testing.T) *Service {
	t.Helper()
	s, err := store.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	svc := NewService(s.DB())
	require.NoError(t, svc.Init(context.Background()))
	return svc
}

func TestInitSeedsActivities(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, ActivityScraping, Success))
	// Init again must not reset existing rows
	require.NoError(t, svc.Init(ctx))

	entries, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ActivityExtracting, entries[0].Activity)
	assert.Equal(t, Idle, entries[0].Status)
	assert.Equal(t, ActivityScraping, entries[1].Activity)
	assert.Equal(t, Success, entries[1].Status)
	assert.False(t, entries[1].ModifiedAt.IsZero())
}

func TestTryStart(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	activity := SourceActivity("kontan")
	assert.Equal(t, "scraping:kontan", activity)

	started, err := svc.TryStart(ctx, activity)
	require.NoError(t, err)
	assert.True(t, started)

	started, err = svc.TryStart(ctx, activity)
	require.NoError(t, err)
	assert.False(t, started, "already running")

	require.NoError(t, svc.Set(ctx, activity, Failed))
	started, err = svc.TryStart(ctx, activity)
	require.NoError(t, err)
	assert.True(t, started)

	entry, err := svc.Get(ctx, activity)
	require.NoError(t, err)
	assert.Equal(t, Running, entry.Status)
}

func TestGetUnknownActivity(t *testing.T) {
	svc := setupTestService(t)

	entry, err := svc.Get(context.Background(), "scraping:nope")
	require.NoError(t, err)
	assert.Equal(t, Idle, entry.Status)
}
