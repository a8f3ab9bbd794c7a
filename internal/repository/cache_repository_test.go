package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/event-idea-marketplace/pkg/errors"
)

func newCacheRepo(t *testing.T) (*CacheRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := NewCacheRepository(client, "eim", nil)
	t.Cleanup(func() { _ = repo.Close() })
	return repo, mr
}

func TestCacheRoundTripAndExpiry(t *testing.T) {
	repo, mr := newCacheRepo(t)
	ctx := context.Background()

	payload := map[string]int{"events": 4}
	require.NoError(t, repo.Set(ctx, "analytics:dashboard", payload, time.Minute))
	assert.True(t, mr.Exists("eim:analytics:dashboard"))

	var got map[string]int
	require.NoError(t, repo.Get(ctx, "analytics:dashboard", &got))
	assert.Equal(t, 4, got["events"])

	mr.FastForward(2 * time.Minute)
	err := repo.Get(ctx, "analytics:dashboard", &got)
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
}

func TestCacheDeleteByPattern(t *testing.T) {
	repo, mr := newCacheRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "analytics:dashboard", 1, time.Minute))
	require.NoError(t, repo.Set(ctx, "analytics:clubs", 2, time.Minute))
	require.NoError(t, repo.Set(ctx, "halls:list", 3, time.Minute))

	require.NoError(t, repo.DeleteByPattern(ctx, "analytics:*"))
	assert.False(t, mr.Exists("eim:analytics:dashboard"))
	assert.False(t, mr.Exists("eim:analytics:clubs"))
	assert.True(t, mr.Exists("eim:halls:list"))
}

func TestCacheUndecodableEntryIsMiss(t *testing.T) {
	repo, mr := newCacheRepo(t)
	require.NoError(t, mr.Set("eim:analytics:dashboard", "not-json"))

	var got map[string]int
	err := repo.Get(context.Background(), "analytics:dashboard", &got)
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
	assert.False(t, mr.Exists("eim:analytics:dashboard"))
}

func TestNilClientIsAlwaysMiss(t *testing.T) {
	repo := NewCacheRepository(nil, "", nil)
	var got int
	assert.ErrorIs(t, repo.Get(context.Background(), "k", &got), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(context.Background(), "k", 1, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(context.Background(), "*"))
}
