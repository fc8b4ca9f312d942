// Package storagetest has the behavior every storage.Repository implementation must have.
package storagetest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/intake/internal/model"
	"github.com/slok/intake/internal/storage"
)

// NewDashboard returns a small valid dashboard for the user.
func NewDashboard(userID string) model.Dashboard {
	now := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	return model.Dashboard{
		UserID:        userID,
		CreatedAt:     now,
		LastUpdatedAt: now,
		Modules: []model.Module{
			{
				ID:            "foundation",
				Title:         "Foundation",
				TotalSections: 2,
				Status:        model.ModuleStatusNotStarted,
				Unlocked:      true,
				Sections: []model.Section{
					{SectionID: "a", Order: 1, Title: "A", Status: model.SectionStatusNotStarted, Unlocked: true, Version: 1, LastEditedAt: now, Metadata: model.SectionMetadata{EditHistory: []model.EditEntry{}}},
					{SectionID: "b", Order: 2, Title: "B", Status: model.SectionStatusNotStarted, Version: 1, LastEditedAt: now, Metadata: model.SectionMetadata{EditHistory: []model.EditEntry{}}},
				},
			},
		},
		ProgressTracking: model.ProgressTracking{
			ModuleProgress: map[string]int{"foundation": 0},
			Milestones:     []model.Milestone{{ID: "foundation-done"}},
		},
	}
}

// TestRepository runs the repository contract against the repositories returned by newRepo,
// every call must return an empty repository.
func TestRepository(t *testing.T, newRepo func(t *testing.T) storage.Repository) {
	tests := map[string]struct {
		actions func(ctx context.Context, t *testing.T, repo storage.Repository) error
		expErr  error
	}{
		"Creating and getting a dashboard should work.": {
			actions: func(ctx context.Context, t *testing.T, repo storage.Repository) error {
				d := NewDashboard("u1")
				require.NoError(t, repo.CreateDashboard(ctx, d))

				got, err := repo.GetDashboard(ctx, "u1")
				require.NoError(t, err)
				assert.Equal(t, int64(0), got.Revision)
				assertSameDocument(t, d, *got)
				return nil
			},
		},

		"Getting a missing dashboard should fail.": {
			actions: func(ctx context.Context, t *testing.T, repo storage.Repository) error {
				_, err := repo.GetDashboard(ctx, "missing")
				return err
			},
			expErr: model.ErrNotFound,
		},

		"Creating a dashboard twice should fail.": {
			actions: func(ctx context.Context, t *testing.T, repo storage.Repository) error {
				require.NoError(t, repo.CreateDashboard(ctx, NewDashboard("u1")))
				return repo.CreateDashboard(ctx, NewDashboard("u1"))
			},
			expErr: model.ErrAlreadyExists,
		},

		"Updating a dashboard should store it with the next revision.": {
			actions: func(ctx context.Context, t *testing.T, repo storage.Repository) error {
				require.NoError(t, repo.CreateDashboard(ctx, NewDashboard("u1")))

				d, err := repo.GetDashboard(ctx, "u1")
				require.NoError(t, err)
				d.Modules[0].Sections[0].Data = json.RawMessage(`{"name":"acme"}`)
				d.Modules[0].Sections[0].Version = 2
				require.NoError(t, repo.UpdateDashboard(ctx, *d))

				got, err := repo.GetDashboard(ctx, "u1")
				require.NoError(t, err)
				assert.Equal(t, d.Revision+1, got.Revision)
				assert.Equal(t, 2, got.Modules[0].Sections[0].Version)
				assert.JSONEq(t, `{"name":"acme"}`, string(got.Modules[0].Sections[0].Data))
				return nil
			},
		},

		"Absent payloads should be read as nil.": {
			actions: func(ctx context.Context, t *testing.T, repo storage.Repository) error {
				d := NewDashboard("u1")
				d.Modules[0].Sections[0].Data = nil
				d.Modules[0].Sections[0].Metadata.EditHistory = []model.EditEntry{
					{Field: "name", NewValue: json.RawMessage(`"acme"`), EditedBy: "u1"},
				}
				require.NoError(t, repo.CreateDashboard(ctx, d))

				got, err := repo.GetDashboard(ctx, "u1")
				require.NoError(t, err)
				s := got.Modules[0].Sections[0]
				assert.Nil(t, s.Data)
				require.Len(t, s.Metadata.EditHistory, 1)
				assert.Nil(t, s.Metadata.EditHistory[0].PreviousValue)
				assert.JSONEq(t, `"acme"`, string(s.Metadata.EditHistory[0].NewValue))
				return nil
			},
		},

		"Updating with a stale revision should conflict.": {
			actions: func(ctx context.Context, t *testing.T, repo storage.Repository) error {
				require.NoError(t, repo.CreateDashboard(ctx, NewDashboard("u1")))

				d1, err := repo.GetDashboard(ctx, "u1")
				require.NoError(t, err)
				d2, err := repo.GetDashboard(ctx, "u1")
				require.NoError(t, err)

				require.NoError(t, repo.UpdateDashboard(ctx, *d1))
				return repo.UpdateDashboard(ctx, *d2)
			},
			expErr: model.ErrConflict,
		},

		"Updating a missing dashboard should fail.": {
			actions: func(ctx context.Context, t *testing.T, repo storage.Repository) error {
				return repo.UpdateDashboard(ctx, NewDashboard("missing"))
			},
			expErr: model.ErrNotFound,
		},

		"Changing a returned dashboard should not change the stored one.": {
			actions: func(ctx context.Context, t *testing.T, repo storage.Repository) error {
				require.NoError(t, repo.CreateDashboard(ctx, NewDashboard("u1")))

				d, err := repo.GetDashboard(ctx, "u1")
				require.NoError(t, err)
				d.Modules[0].Sections[0].Status = model.SectionStatusCompleted
				d.ProgressTracking.ModuleProgress["foundation"] = 50

				got, err := repo.GetDashboard(ctx, "u1")
				require.NoError(t, err)
				assert.Equal(t, model.SectionStatusNotStarted, got.Modules[0].Sections[0].Status)
				assert.Equal(t, 0, got.ProgressTracking.ModuleProgress["foundation"])
				return nil
			},
		},

		"Dashboards of different users should be independent.": {
			actions: func(ctx context.Context, t *testing.T, repo storage.Repository) error {
				require.NoError(t, repo.CreateDashboard(ctx, NewDashboard("u1")))
				require.NoError(t, repo.CreateDashboard(ctx, NewDashboard("u2")))

				d, err := repo.GetDashboard(ctx, "u1")
				require.NoError(t, err)
				d.Modules[0].Title = "changed"
				require.NoError(t, repo.UpdateDashboard(ctx, *d))

				got, err := repo.GetDashboard(ctx, "u2")
				require.NoError(t, err)
				assert.Equal(t, "Foundation", got.Modules[0].Title)
				assert.Equal(t, int64(0), got.Revision)
				return nil
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			repo := newRepo(t)

			err := test.actions(context.Background(), t, repo)
			if test.expErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, test.expErr), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	t.Run("Concurrent mutations should not lose updates.", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		require.NoError(t, repo.CreateDashboard(ctx, NewDashboard("u1")))

		const workers = 8
		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := storage.Mutate(ctx, repo, "u1", storage.MutateOptions{MaxAttempts: 100}, func(d *model.Dashboard) (bool, error) {
					s := &d.Modules[0].Sections[0]
					s.Metadata.EditHistory = append(s.Metadata.EditHistory, model.EditEntry{Field: fmt.Sprintf("f%d", i)})
					return true, nil
				})
				errs <- err
			}(i)
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}

		got, err := repo.GetDashboard(ctx, "u1")
		require.NoError(t, err)
		assert.Len(t, got.Modules[0].Sections[0].Metadata.EditHistory, workers)
		assert.Equal(t, int64(workers), got.Revision)
	})
}

// assertSameDocument compares the persisted shape of two dashboards, time zones and
// the store revision are not part of it.
func assertSameDocument(t *testing.T, exp, got model.Dashboard) {
	t.Helper()

	expJSON, err := json.Marshal(exp)
	require.NoError(t, err)
	gotJSON, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, string(expJSON), string(gotJSON))
}
