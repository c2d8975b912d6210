package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const defaultRedisTestURL = "redis://localhost:6380/0"

// GetRedisTestURL returns the Redis test URL, checking environment variable first.
func GetRedisTestURL() string {
	if url := os.Getenv("TEST_REDIS_URL"); url != "" {
		return url
	}
	return defaultRedisTestURL
}

// SetupRedis returns a client for the test Redis server, closed on test cleanup.
// The test is skipped when the server does not answer.
func SetupRedis(t *testing.T) *redis.Client {
	t.Helper()

	opts, err := redis.ParseURL(GetRedisTestURL())
	require.NoError(t, err, "failed to parse redis url")

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("redis not available: %v", err)
	}

	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}
