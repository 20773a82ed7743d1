package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	return fmt.Sprintf("redis://%s/0", endpoint)
}

func TestVoterCache(t *testing.T) {
	url := setupRedis(t)
	ctx := context.Background()

	cache, err := NewVoterCache(ctx, url, time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	pollID := uuid.New()

	voted, err := cache.HasVoted(ctx, pollID, "alice")
	require.NoError(t, err)
	assert.False(t, voted)

	require.NoError(t, cache.MarkVoted(ctx, pollID, "alice"))
	require.NoError(t, cache.MarkVoted(ctx, pollID, "alice"))

	voted, err = cache.HasVoted(ctx, pollID, "alice")
	require.NoError(t, err)
	assert.True(t, voted)

	voted, err = cache.HasVoted(ctx, uuid.New(), "alice")
	require.NoError(t, err)
	assert.False(t, voted, "voter sets are per poll")

	members, err := cache.client.SCard(ctx, votersKey(pollID)).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), members)

	ttl, err := cache.client.TTL(ctx, votersKey(pollID)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Hour)
}

func TestNewVoterCache_Errors(t *testing.T) {
	_, err := NewVoterCache(context.Background(), "not a url", time.Hour)
	assert.Error(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, err = NewVoterCache(ctx, "redis://127.0.0.1:1/0", time.Hour)
	assert.Error(t, err)
}

func TestNewVoterCacheFromClient_DefaultTTL(t *testing.T) {
	c := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1"})
	defer c.Close()

	assert.Equal(t, defaultTTL, NewVoterCacheFromClient(c, 0).ttl)
}
