package holiday

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tOgg1/autostamp/internal/db"
)

func TestCache_MemoryOnly(t *testing.T) {
	cache := NewCache(nil)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "2026-10-14")
	require.NoError(t, err)
	assert.False(t, ok)

	want := Result{Holiday: true, Reason: "休暇", Source: SourceCalendar}
	require.NoError(t, cache.Put(ctx, "2026-10-14", want))

	got, ok, err := cache.Get(ctx, "2026-10-14")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)
}

func TestCache_PromotesStoreHits(t *testing.T) {
	database, err := db.OpenInMemory()
	require.NoError(t, err)
	defer database.Close()
	repo := db.NewHolidayRepository(database)
	ctx := context.Background()

	require.NoError(t, NewCache(repo).Put(ctx, "2026-11-03", Result{
		Holiday: true, Reason: "文化の日", Source: SourceNational,
	}))

	cache := NewCache(repo)
	assert.Zero(t, cache.Len())

	got, ok, err := cache.Get(ctx, "2026-11-03")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "文化の日", got.Reason)
	assert.Equal(t, 1, cache.Len())
}
