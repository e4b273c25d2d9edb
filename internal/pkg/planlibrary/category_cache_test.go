package planlibrary

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dosreb/planlibrary/app/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCategoryCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cache := NewRedisCategoryCache(client, time.Minute)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	icon := "layers"
	require.NoError(t, cache.Set(ctx, []models.PlanCategory{
		{ID: "c1", Name: "Floor plans", Icon: &icon},
		{ID: "c2", Name: "Sections"},
	}))

	got, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, "Floor plans", got[0].Name)
	require.NotNil(t, got[0].Icon)
	assert.Equal(t, "layers", *got[0].Icon)

	assert.Equal(t, time.Minute, mr.TTL(categoryCacheKey))
	mr.FastForward(2 * time.Minute)
	_, ok, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, []models.PlanCategory{}))
	require.NoError(t, cache.Invalidate(ctx))
	_, ok, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCategoryCache_DefaultTTL(t *testing.T) {
	cache := NewRedisCategoryCache(nil, 0)
	assert.Equal(t, 5*time.Minute, cache.ttl)
}

func TestRedisCategoryCache_ServerDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	_, _, err = NewRedisCategoryCache(client, time.Minute).Get(context.Background())
	assert.Error(t, err)
}
