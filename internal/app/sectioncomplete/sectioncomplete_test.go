package sectioncomplete_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/intake/internal/app/sectioncomplete"
	"github.com/slok/intake/internal/model"
	"github.com/slok/intake/internal/progress"
	storageio "github.com/slok/intake/internal/storage/io"
	"github.com/slok/intake/internal/storage/memory"
)

func newService(t *testing.T, policy progress.SequencePolicy) (*sectioncomplete.Service, *memory.Repository) {
	t.Helper()
	ctx := context.Background()

	tpl, err := storageio.DefaultTemplate()
	require.NoError(t, err)
	e, err := progress.NewEngine(progress.EngineConfig{Milestones: tpl.Milestones, Policy: policy})
	require.NoError(t, err)
	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(t, err)
	require.NoError(t, repo.CreateDashboard(ctx, e.NewDashboard("u1", tpl)))

	svc, err := sectioncomplete.NewService(sectioncomplete.ServiceConfig{Engine: e, Repository: repo, MaxAttempts: 50})
	require.NoError(t, err)

	return svc, repo
}

func complete(sectionID string, data string) sectioncomplete.Request {
	req := sectioncomplete.Request{UserID: "u1", ModuleID: "business-foundation", SectionID: sectionID}
	if data != "" {
		req.Data = json.RawMessage(data)
	}
	return req
}

func TestService_RunModuleScenario(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	svc, repo := newService(t, progress.SequencePolicyUnlocked)

	tr, err := svc.Run(ctx, complete("company-profile", `{"name":"acme"}`))
	require.NoError(err)
	assert.Equal(33, tr.ModuleProgress)
	require.NotNil(tr.NextSection)
	assert.True(tr.NextSection.Unlocked)
	assert.Equal([]string{"foundation-started"}, tr.Achieved)

	tr, err = svc.Run(ctx, complete("target-audience", ""))
	require.NoError(err)
	assert.Equal(67, tr.ModuleProgress)
	assert.Equal([]string{"foundation-halfway"}, tr.Achieved)

	tr, err = svc.Run(ctx, complete("value-proposition", ""))
	require.NoError(err)
	assert.Equal(100, tr.ModuleProgress)
	assert.True(tr.ModuleCompleted)
	assert.Equal([]progress.Unlock{
		{ModuleID: "brand-identity"},
		{ModuleID: "brand-identity", SectionID: "brand-voice"},
	}, tr.Unlocked)

	d, err := repo.GetDashboard(ctx, "u1")
	require.NoError(err)
	assert.Equal(int64(3), d.Revision)
	assert.Equal(model.ModuleStatusCompleted, d.Modules[0].Status)
	assert.NotNil(d.Modules[0].CompletedAt)
	assert.True(d.Modules[1].Unlocked)
	assert.True(d.Modules[1].Sections[0].Unlocked)
	assert.JSONEq(`{"name":"acme"}`, string(d.Modules[0].Sections[0].Data))
	assert.Equal(30, d.ProgressTracking.OverallProgress)
}

func TestService_RunErrors(t *testing.T) {
	tests := map[string]struct {
		req    sectioncomplete.Request
		expErr error
	}{
		"completing a locked section should fail": {
			req:    complete("value-proposition", ""),
			expErr: model.ErrLocked,
		},
		"completing a missing section should fail": {
			req:    complete("missing", ""),
			expErr: model.ErrNotFound,
		},
		"completing without user should fail": {
			req:    sectioncomplete.Request{ModuleID: "business-foundation", SectionID: "company-profile"},
			expErr: model.ErrNotValid,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			svc, repo := newService(t, progress.SequencePolicyUnlocked)

			_, err := svc.Run(context.Background(), test.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, test.expErr))

			d, err := repo.GetDashboard(context.Background(), "u1")
			require.NoError(t, err)
			assert.Equal(t, int64(0), d.Revision)
		})
	}
}

func TestService_RunConcurrentCompletionsKeepAggregates(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t, progress.SequencePolicyNone)

	sections := []string{"company-profile", "target-audience", "value-proposition"}
	var wg sync.WaitGroup
	errs := make(chan error, len(sections))
	for _, id := range sections {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := svc.Run(ctx, complete(id, ""))
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	d, err := repo.GetDashboard(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, d.Modules[0].CompletedSections)
	assert.Equal(t, 100, d.Modules[0].ProgressPercentage)
	assert.Equal(t, model.ModuleStatusCompleted, d.Modules[0].Status)
	assert.True(t, d.Modules[1].Unlocked)
}
