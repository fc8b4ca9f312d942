package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/intake/internal/log"
	"github.com/slok/intake/internal/model"
	"github.com/slok/intake/internal/storage"
	"github.com/slok/intake/internal/storage/memory"
	"github.com/slok/intake/internal/storage/storagetest"
)

func newRepo(t *testing.T) *memory.Repository {
	t.Helper()
	repo, err := memory.NewRepository(memory.RepositoryConfig{Logger: log.Noop})
	require.NoError(t, err)
	return repo
}

func TestRepository(t *testing.T) {
	storagetest.TestRepository(t, func(t *testing.T) storage.Repository { return newRepo(t) })
}

func TestRepositoryCreateCopiesInput(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	d := storagetest.NewDashboard("u1")
	require.NoError(t, repo.CreateDashboard(ctx, d))

	// Mutating the caller's value after storing it must not leak in.
	d.Modules[0].Sections[0].Status = model.SectionStatusCompleted
	d.ProgressTracking.ModuleProgress["foundation"] = 100

	got, err := repo.GetDashboard(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.SectionStatusNotStarted, got.Modules[0].Sections[0].Status)
	assert.Equal(t, 0, got.ProgressTracking.ModuleProgress["foundation"])
}
