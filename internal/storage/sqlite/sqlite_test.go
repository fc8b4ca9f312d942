package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/intake/internal/log"
	"github.com/slok/intake/internal/storage"
	"github.com/slok/intake/internal/storage/sqlite"
	"github.com/slok/intake/internal/storage/storagetest"
)

func newRepo(t *testing.T) *sqlite.Repository {
	t.Helper()
	repo, err := sqlite.NewRepository(context.Background(), sqlite.RepositoryConfig{
		DBPath: filepath.Join(t.TempDir(), "test.db"),
		Logger: log.Noop,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestRepository(t *testing.T) {
	storagetest.TestRepository(t, func(t *testing.T) storage.Repository { return newRepo(t) })
}

func TestNewRepository(t *testing.T) {
	tests := map[string]struct {
		config func(t *testing.T) sqlite.RepositoryConfig
		expErr bool
	}{
		"Missing db path should fail.": {
			config: func(t *testing.T) sqlite.RepositoryConfig { return sqlite.RepositoryConfig{} },
			expErr: true,
		},

		"A missing directory should be created.": {
			config: func(t *testing.T) sqlite.RepositoryConfig {
				return sqlite.RepositoryConfig{DBPath: filepath.Join(t.TempDir(), "a", "b", "test.db")}
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			repo, err := sqlite.NewRepository(context.Background(), test.config(t))
			if test.expErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, repo.Close())
		})
	}
}

func TestRepositoryReopen(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{DBPath: path})
	require.NoError(err)
	require.NoError(repo.CreateDashboard(ctx, storagetest.NewDashboard("u1")))
	require.NoError(repo.Close())

	// Migrations on an up to date database are a no-op.
	repo, err = sqlite.NewRepository(ctx, sqlite.RepositoryConfig{DBPath: path})
	require.NoError(err)
	defer repo.Close()

	d, err := repo.GetDashboard(ctx, "u1")
	require.NoError(err)
	assert.Equal(t, "u1", d.UserID)
}
