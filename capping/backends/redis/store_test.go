package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	store := NewStoreWithClient(client, "vast.", 100*time.Millisecond)
	t.Cleanup(func() { store.Close() })
	return store, server
}

func TestGetSet(t *testing.T) {
	ctx := context.Background()
	store, server := newTestStore(t)

	value, err := store.Get(ctx, "totalCalls")
	require.NoError(t, err)
	assert.Equal(t, int64(0), value)

	require.NoError(t, store.Set(ctx, "totalCalls", 42))
	value, err = store.Get(ctx, "totalCalls")
	require.NoError(t, err)
	assert.Equal(t, int64(42), value)

	stored, err := server.Get("vast.totalCalls")
	require.NoError(t, err)
	assert.Equal(t, "42", stored)
	assert.NoError(t, store.Ping(ctx))
}

func TestCorruptedValue(t *testing.T) {
	store, server := newTestStore(t)
	server.Set("vast.totalCalls", "not-a-number")

	_, err := store.Get(context.Background(), "totalCalls")
	assert.Error(t, err)
}

func TestUnreachableServer(t *testing.T) {
	store, server := newTestStore(t)
	server.Close()

	_, err := store.Get(context.Background(), "totalCalls")
	assert.Error(t, err)
	assert.Error(t, store.Set(context.Background(), "totalCalls", 1))
}
