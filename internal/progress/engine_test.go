package progress_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/intake/internal/model"
	"github.com/slok/intake/internal/progress"
)

func TestNewEngine(t *testing.T) {
	tests := map[string]struct {
		config progress.EngineConfig
		expErr bool
	}{
		"Empty config should use defaults.": {
			config: progress.EngineConfig{},
		},

		"An unknown policy should fail.": {
			config: progress.EngineConfig{Policy: "whatever"},
			expErr: true,
		},

		"An invalid milestone rule should fail.": {
			config: progress.EngineConfig{Milestones: []model.MilestoneRule{{ID: "x", Kind: "nope"}}},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := progress.NewEngine(test.config)
			if test.expErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewDashboard(t *testing.T) {
	assert := assert.New(t)

	d := progress.NewDashboard("u1", testTemplate(), t0)

	assert.Equal("u1", d.UserID)
	assert.Equal(t0, d.CreatedAt)
	require.Len(t, d.Modules, 2)

	assert.True(d.Modules[0].Unlocked)
	assert.True(d.Modules[0].Sections[0].Unlocked)
	assert.False(d.Modules[0].Sections[1].Unlocked)
	assert.False(d.Modules[1].Unlocked)
	assert.False(d.Modules[1].Sections[0].Unlocked)

	for _, m := range d.Modules {
		assert.Equal(model.ModuleStatusNotStarted, m.Status)
		assert.Equal(len(m.Sections), m.TotalSections)
		for i, s := range m.Sections {
			assert.Equal(i+1, s.Order)
			assert.Equal(1, s.Version)
			assert.Equal(model.SectionStatusNotStarted, s.Status)
		}
	}

	assert.Equal(map[string]int{"foundation": 0, "marketing": 0}, d.ProgressTracking.ModuleProgress)
	assert.Len(d.ProgressTracking.Milestones, 4)
	for _, m := range d.ProgressTracking.Milestones {
		assert.False(m.Achieved)
	}
}

func TestEngineCompleteScenario(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	e := newTestEngine(t, progress.SequencePolicyUnlocked)
	d := e.NewDashboard("u1", testTemplate())

	// A.
	tr, err := e.Complete(&d, "foundation", "a", json.RawMessage(`{"name":"acme"}`))
	require.NoError(err)
	assert.True(tr.Changed)
	assert.Equal(model.SectionStatusCompleted, tr.Section.Status)
	assert.Equal(2, tr.Section.Version)
	assert.Equal(33, tr.ModuleProgress)
	require.NotNil(tr.NextSection)
	assert.Equal("b", tr.NextSection.SectionID)
	assert.True(tr.NextSection.Unlocked)
	assert.Equal([]progress.Unlock{{ModuleID: "foundation", SectionID: "b"}}, tr.Unlocked)
	assert.False(tr.ModuleCompleted)
	assert.ElementsMatch([]string{"foundation-started"}, tr.Achieved)
	assert.Equal(model.ModuleStatusInProgress, d.Modules[0].Status)
	assert.NotNil(d.Modules[0].StartedAt)

	// B.
	tr, err = e.Complete(&d, "foundation", "b", nil)
	require.NoError(err)
	assert.Equal(67, tr.ModuleProgress)
	assert.ElementsMatch([]string{"foundation-half"}, tr.Achieved)
	assert.Equal(1, tr.Section.Version)

	// C.
	tr, err = e.Complete(&d, "foundation", "c", nil)
	require.NoError(err)
	assert.Equal(100, tr.ModuleProgress)
	assert.True(tr.ModuleCompleted)
	assert.Nil(tr.NextSection)
	assert.Equal([]progress.Unlock{
		{ModuleID: "marketing"},
		{ModuleID: "marketing", SectionID: "d"},
	}, tr.Unlocked)
	assert.ElementsMatch([]string{"foundation-done"}, tr.Achieved)

	m := d.Modules[0]
	assert.Equal(model.ModuleStatusCompleted, m.Status)
	assert.NotNil(m.CompletedAt)
	assert.Equal(3, m.CompletedSections)

	next := d.Modules[1]
	assert.True(next.Unlocked)
	assert.Equal(model.ModuleStatusNotStarted, next.Status)
	assert.True(next.Sections[0].Unlocked)
	assert.False(next.Sections[1].Unlocked)

	assert.Equal(60, d.ProgressTracking.OverallProgress)
	assert.Equal(100, d.ProgressTracking.ModuleProgress["foundation"])
}

func TestEngineCompleteTwice(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	e := newTestEngine(t, progress.SequencePolicyUnlocked)
	d := e.NewDashboard("u1", testTemplate())

	_, err := e.Complete(&d, "foundation", "a", json.RawMessage(`{"v":1}`))
	require.NoError(err)
	firstCompletedAt := *d.Modules[0].Sections[0].CompletedAt

	tr, err := e.Complete(&d, "foundation", "a", json.RawMessage(`{"v":2}`))
	require.NoError(err)

	assert.True(tr.Changed)
	assert.Empty(tr.Unlocked)
	assert.Empty(tr.Achieved)
	assert.JSONEq(`{"v":2}`, string(tr.Section.Data))
	assert.Equal(3, tr.Section.Version)
	assert.True(tr.Section.CompletedAt.After(firstCompletedAt))
	assert.Equal(1, d.Modules[0].CompletedSections)
	assert.Equal(33, d.Modules[0].ProgressPercentage)
}

func TestEngineCompleteModuleTwiceDoesNotCascadeAgain(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	e := newTestEngine(t, progress.SequencePolicyUnlocked)
	d := e.NewDashboard("u1", testTemplate())
	for _, id := range []string{"a", "b", "c"} {
		_, err := e.Complete(&d, "foundation", id, nil)
		require.NoError(err)
	}
	completedAt := *d.Modules[0].CompletedAt

	tr, err := e.Complete(&d, "foundation", "c", nil)
	require.NoError(err)
	assert.False(tr.ModuleCompleted)
	assert.Empty(tr.Unlocked)
	assert.Equal(completedAt, *d.Modules[0].CompletedAt)
}

func TestEngineStart(t *testing.T) {
	tests := map[string]struct {
		prepare    func(t *testing.T, e *progress.Engine, d *model.Dashboard)
		moduleID   string
		sectionID  string
		expErr     error
		expChanged bool
		expStatus  model.SectionStatus
	}{
		"Starting an unlocked section should move it to in progress.": {
			moduleID:   "foundation",
			sectionID:  "a",
			expChanged: true,
			expStatus:  model.SectionStatusInProgress,
		},

		"Starting an in progress section should be a no-op.": {
			prepare: func(t *testing.T, e *progress.Engine, d *model.Dashboard) {
				_, err := e.Start(d, "foundation", "a")
				require.NoError(t, err)
			},
			moduleID:   "foundation",
			sectionID:  "a",
			expChanged: false,
			expStatus:  model.SectionStatusInProgress,
		},

		"Starting a completed section should be a no-op.": {
			prepare: func(t *testing.T, e *progress.Engine, d *model.Dashboard) {
				_, err := e.Complete(d, "foundation", "a", nil)
				require.NoError(t, err)
			},
			moduleID:   "foundation",
			sectionID:  "a",
			expChanged: false,
			expStatus:  model.SectionStatusCompleted,
		},

		"Starting a locked section should fail.": {
			moduleID:  "foundation",
			sectionID: "b",
			expErr:    model.ErrLocked,
		},

		"Starting a section of a locked module should fail.": {
			moduleID:  "marketing",
			sectionID: "d",
			expErr:    model.ErrLocked,
		},

		"Starting a missing module should fail.": {
			moduleID:  "missing",
			sectionID: "a",
			expErr:    model.ErrNotFound,
		},

		"Starting a missing section should fail.": {
			moduleID:  "foundation",
			sectionID: "missing",
			expErr:    model.ErrNotFound,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			e := newTestEngine(t, progress.SequencePolicyUnlocked)
			d := e.NewDashboard("u1", testTemplate())
			if test.prepare != nil {
				test.prepare(t, e, &d)
			}

			tr, err := e.Start(&d, test.moduleID, test.sectionID)
			if test.expErr != nil {
				require.Error(err)
				assert.True(errors.Is(err, test.expErr))
				return
			}
			require.NoError(err)
			assert.Equal(test.expChanged, tr.Changed)
			assert.Equal(test.expStatus, tr.Section.Status)
		})
	}
}

func TestEngineStartSetsModuleStart(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	e := newTestEngine(t, progress.SequencePolicyUnlocked)
	d := e.NewDashboard("u1", testTemplate())

	tr, err := e.Start(&d, "foundation", "a")
	require.NoError(err)

	m := d.Modules[0]
	assert.NotNil(m.StartedAt)
	assert.NotNil(tr.Section.StartedAt)
	// Only completions count for the module status.
	assert.Equal(model.ModuleStatusNotStarted, m.Status)
	assert.Equal(0, tr.ModuleProgress)
	assert.Equal([]string{"foundation-started"}, tr.Achieved)
	assert.True(milestone(d, "foundation-started").Achieved)
}

func TestEngineSequencePolicies(t *testing.T) {
	tests := map[string]struct {
		policy progress.SequencePolicy
		ops    func(e *progress.Engine, d *model.Dashboard) error
		expErr error
	}{
		"None policy should allow completing a locked section.": {
			policy: progress.SequencePolicyNone,
			ops: func(e *progress.Engine, d *model.Dashboard) error {
				_, err := e.Complete(d, "foundation", "c", nil)
				return err
			},
		},

		"None policy should allow completing a section of a locked module.": {
			policy: progress.SequencePolicyNone,
			ops: func(e *progress.Engine, d *model.Dashboard) error {
				_, err := e.Complete(d, "marketing", "e", nil)
				return err
			},
		},

		"Unlocked policy should reject completing a locked section.": {
			policy: progress.SequencePolicyUnlocked,
			ops: func(e *progress.Engine, d *model.Dashboard) error {
				_, err := e.Complete(d, "foundation", "c", nil)
				return err
			},
			expErr: model.ErrLocked,
		},

		"Unlocked policy should allow skip-ahead on unlocked sections.": {
			policy: progress.SequencePolicyUnlocked,
			ops: func(e *progress.Engine, d *model.Dashboard) error {
				// Unlock c out of sequence, a is still not completed.
				d.Modules[0].Sections[2].Unlocked = true
				_, err := e.Complete(d, "foundation", "c", nil)
				return err
			},
		},

		"Strict policy should reject skip-ahead on unlocked sections.": {
			policy: progress.SequencePolicyStrict,
			ops: func(e *progress.Engine, d *model.Dashboard) error {
				d.Modules[0].Sections[2].Unlocked = true
				_, err := e.Complete(d, "foundation", "c", nil)
				return err
			},
			expErr: model.ErrLocked,
		},

		"Strict policy should allow completing in sequence.": {
			policy: progress.SequencePolicyStrict,
			ops: func(e *progress.Engine, d *model.Dashboard) error {
				for _, id := range []string{"a", "b", "c"} {
					if _, err := e.Complete(d, "foundation", id, nil); err != nil {
						return err
					}
				}
				_, err := e.Start(d, "marketing", "d")
				return err
			},
		},

		"Save should never be gated.": {
			policy: progress.SequencePolicyStrict,
			ops: func(e *progress.Engine, d *model.Dashboard) error {
				_, err := e.Save(d, "marketing", "e", json.RawMessage(`{}`))
				return err
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			e := newTestEngine(t, test.policy)
			d := e.NewDashboard("u1", testTemplate())

			err := test.ops(e, &d)
			if test.expErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, test.expErr))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEngineSave(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	e := newTestEngine(t, progress.SequencePolicyUnlocked)
	d := e.NewDashboard("u1", testTemplate())

	s, err := e.Save(&d, "foundation", "a", json.RawMessage(`{"name":"acme","size":10}`))
	require.NoError(err)
	assert.Equal(2, s.Version)
	assert.Equal(model.SectionStatusNotStarted, s.Status)

	s, err = e.Save(&d, "foundation", "a", json.RawMessage(`{"name":"acme2"}`))
	require.NoError(err)
	assert.Equal(3, s.Version)
	assert.JSONEq(`{"name":"acme2"}`, string(s.Data))
	assert.JSONEq(`{"name":"acme2"}`, string(d.Modules[0].Sections[0].Data))

	// The returned section must not alias the dashboard.
	s.Data[2] = 'X'
	assert.JSONEq(`{"name":"acme2"}`, string(d.Modules[0].Sections[0].Data))

	_, err = e.Save(&d, "foundation", "missing", json.RawMessage(`{}`))
	assert.True(errors.Is(err, model.ErrNotFound))
}

func TestEngineAddEditHistory(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	e := newTestEngine(t, progress.SequencePolicyUnlocked)
	d := e.NewDashboard("u1", testTemplate())

	err := e.AddEditHistory(&d, "foundation", "b", model.EditEntry{
		Field:         "name",
		PreviousValue: json.RawMessage(`"old"`),
		NewValue:      json.RawMessage(`"new"`),
		EditedBy:      "u1",
	})
	require.NoError(err)

	s := d.Modules[0].Sections[1]
	require.Len(s.Metadata.EditHistory, 1)
	assert.Equal("name", s.Metadata.EditHistory[0].Field)
	assert.False(s.Metadata.EditHistory[0].EditedAt.IsZero())
	assert.Equal(1, s.Version)

	err = e.AddEditHistory(&d, "missing", "b", model.EditEntry{})
	assert.True(errors.Is(err, model.ErrNotFound))
}
