package progress_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/slok/intake/internal/model"
	"github.com/slok/intake/internal/progress"
)

var t0 = time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

// tickingClock returns a clock that moves one second forward on every call.
func tickingClock() func() time.Time {
	now := t0
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func testTemplate() model.Template {
	return model.Template{
		Modules: []model.ModuleTemplate{
			{ID: "foundation", Title: "Foundation", Sections: []model.SectionTemplate{
				{ID: "a", Title: "A"}, {ID: "b", Title: "B"}, {ID: "c", Title: "C"},
			}},
			{ID: "marketing", Title: "Marketing", Sections: []model.SectionTemplate{
				{ID: "d", Title: "D"}, {ID: "e", Title: "E"},
			}},
		},
		Milestones: []model.MilestoneRule{
			{ID: "foundation-started", Kind: model.MilestoneKindModuleStarted, ModuleID: "foundation"},
			{ID: "foundation-half", Kind: model.MilestoneKindModuleProgress, ModuleID: "foundation", Threshold: 50},
			{ID: "foundation-done", Kind: model.MilestoneKindModuleCompleted, ModuleID: "foundation"},
			{ID: "all-done", Kind: model.MilestoneKindOverallProgress, Threshold: 100},
		},
	}
}

func newTestEngine(t *testing.T, policy progress.SequencePolicy) *progress.Engine {
	t.Helper()
	e, err := progress.NewEngine(progress.EngineConfig{
		Milestones: testTemplate().Milestones,
		Policy:     policy,
		Clock:      tickingClock(),
	})
	require.NoError(t, err)
	return e
}

func milestone(d model.Dashboard, id string) model.Milestone {
	for _, m := range d.ProgressTracking.Milestones {
		if m.ID == id {
			return m
		}
	}
	return model.Milestone{}
}
