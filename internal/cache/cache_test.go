package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetGetExpire(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "questions:topic:1", []int{1, 2, 3}, 50*time.Millisecond))
	require.NoError(t, c.Set(ctx, "questions:topic:2", []int{4}, 0))

	var got []int
	require.NoError(t, c.Get(ctx, "questions:topic:1", &got))
	assert.Equal(t, []int{1, 2, 3}, got)

	require.Eventually(t, func() bool {
		return c.Get(ctx, "questions:topic:1", &got) == ErrCacheMiss
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, c.Get(ctx, "questions:topic:2", &got))
	assert.Equal(t, []int{4}, got)
}

func TestMemoryCache_ReturnsCopies(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	value := []string{"a", "b"}
	require.NoError(t, c.Set(ctx, "k", value, time.Minute))
	value[0] = "changed"

	var got []string
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestMemoryCache_DeletePattern(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "questions:topic:1", 1, 0))
	require.NoError(t, c.Set(ctx, "questions:topic:2", 2, 0))
	require.NoError(t, c.Set(ctx, "questions:section:1", 3, 0))

	require.NoError(t, c.DeletePattern(ctx, "questions:topic:*"))

	var v int
	assert.ErrorIs(t, c.Get(ctx, "questions:topic:1", &v), ErrCacheMiss)
	assert.ErrorIs(t, c.Get(ctx, "questions:topic:2", &v), ErrCacheMiss)
	require.NoError(t, c.Get(ctx, "questions:section:1", &v))
	assert.Equal(t, 3, v)

	require.NoError(t, c.Delete(ctx, "questions:section:1"))
	assert.ErrorIs(t, c.Get(ctx, "questions:section:1", &v), ErrCacheMiss)
}

func TestRedisCache_UnreachableIsNotAMiss(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	c := NewRedisCache(client, "quiz", slog.New(slog.NewTextHandler(io.Discard, nil)))

	var v int
	err := c.Get(context.Background(), "questions:topic:1", &v)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}
