package redis_test

import (
	"context"
	"os"
	"testing"

	"github.com/oklog/ulid/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/intake/internal/storage"
	"github.com/slok/intake/internal/storage/redis"
	"github.com/slok/intake/internal/storage/storagetest"
)

const envAddr = "INTAKE_TEST_REDIS_ADDR"

func TestRepository(t *testing.T) {
	addr := os.Getenv(envAddr)
	if addr == "" {
		t.Skipf("%s not set, skipping redis tests", envAddr)
	}

	storagetest.TestRepository(t, func(t *testing.T) storage.Repository {
		client := goredis.NewClient(&goredis.Options{Addr: addr})
		t.Cleanup(func() { _ = client.Close() })

		// Random prefix per test, the database is never flushed.
		repo, err := redis.NewRepository(context.Background(), redis.RepositoryConfig{
			Client:    client,
			KeyPrefix: "intake-test:" + ulid.Make().String() + ":",
		})
		require.NoError(t, err)
		return repo
	})
}

func TestNewRepositoryRequiresClient(t *testing.T) {
	_, err := redis.NewRepository(context.Background(), redis.RepositoryConfig{})
	assert.Error(t, err)
}
