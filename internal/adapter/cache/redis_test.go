//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *RedisStore {
	t.Helper()
	ctx := context.Background()

	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(ctx) })

	endpoint, err := ctr.Endpoint(ctx, "")
	require.NoError(t, err)

	s := NewRedisStore(NewRedisClient(endpoint, "", 0))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRedisStore_RoundTrip(t *testing.T) {
	s := startRedis(t)
	ctx := context.Background()
	require.NoError(t, s.CheckReadiness(ctx))

	_, ok := mustGet(t, s, "a")
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, found("a")))
	require.NoError(t, s.Put(ctx, notFound("b")))

	e, ok := mustGet(t, s, "a")
	require.True(t, ok)
	assert.Equal(t, "a", e.Record.OneLine)

	e, ok = mustGet(t, s, "b")
	require.True(t, ok)
	assert.True(t, e.NotFound())
}

func TestRedisStore_CorruptValueIsError(t *testing.T) {
	s := startRedis(t)
	ctx := context.Background()
	require.NoError(t, s.client.Set(ctx, KeyPrefix+"bad", "not json", 0).Err())

	_, ok, err := s.Get(ctx, "bad")
	require.Error(t, err)
	assert.False(t, ok)
}

func TestRedisStore_Clear(t *testing.T) {
	s := startRedis(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, found("a")))
	require.NoError(t, s.Put(ctx, found("b")))
	require.NoError(t, s.client.Set(ctx, "unrelated", "x", 0).Err())

	require.NoError(t, s.Clear(ctx))

	_, ok := mustGet(t, s, "a")
	assert.False(t, ok)
	n, err := s.client.Exists(ctx, "unrelated").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
