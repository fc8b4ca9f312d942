package progress_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slok/intake/internal/model"
	"github.com/slok/intake/internal/progress"
)

func TestEvaluateMilestones(t *testing.T) {
	started := t0
	achievedAt := t0.Add(-1)

	tests := map[string]struct {
		rules       []model.MilestoneRule
		modules     []model.Module
		overall     int
		current     []model.Milestone
		expUpdated  []model.Milestone
		expAchieved []string
	}{
		"Nil current without rules should stay nil.": {
			current:    nil,
			expUpdated: nil,
		},

		"A started module should achieve the started milestone.": {
			rules:       []model.MilestoneRule{{ID: "s", Kind: model.MilestoneKindModuleStarted, ModuleID: "m1"}},
			modules:     []model.Module{{ID: "m1", StartedAt: &started}},
			current:     []model.Milestone{{ID: "s"}},
			expUpdated:  []model.Milestone{{ID: "s", Achieved: true, AchievedAt: &t0}},
			expAchieved: []string{"s"},
		},

		"A progress threshold below the module progress should not be achieved.": {
			rules:      []model.MilestoneRule{{ID: "p", Kind: model.MilestoneKindModuleProgress, ModuleID: "m1", Threshold: 50}},
			modules:    []model.Module{{ID: "m1", ProgressPercentage: 33}},
			current:    []model.Milestone{{ID: "p"}},
			expUpdated: []model.Milestone{{ID: "p"}},
		},

		"Rules on missing modules should not be achieved.": {
			rules:      []model.MilestoneRule{{ID: "c", Kind: model.MilestoneKindModuleCompleted, ModuleID: "missing"}},
			current:    []model.Milestone{},
			expUpdated: []model.Milestone{{ID: "c"}},
		},

		"Overall progress should use the document progress.": {
			rules:       []model.MilestoneRule{{ID: "o", Kind: model.MilestoneKindOverallProgress, Threshold: 50}},
			overall:     60,
			current:     []model.Milestone{},
			expUpdated:  []model.Milestone{{ID: "o", Achieved: true, AchievedAt: &t0}},
			expAchieved: []string{"o"},
		},

		"Achieved milestones should never be cleared nor reachieved.": {
			rules:      []model.MilestoneRule{{ID: "o", Kind: model.MilestoneKindOverallProgress, Threshold: 50}},
			overall:    0,
			current:    []model.Milestone{{ID: "o", Achieved: true, AchievedAt: &achievedAt}},
			expUpdated: []model.Milestone{{ID: "o", Achieved: true, AchievedAt: &achievedAt}},
		},

		"Entries without rules should be kept.": {
			current:    []model.Milestone{{ID: "legacy", Achieved: true, AchievedAt: &achievedAt}},
			expUpdated: []model.Milestone{{ID: "legacy", Achieved: true, AchievedAt: &achievedAt}},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			updated, achieved := progress.EvaluateMilestones(test.rules, test.modules, test.overall, test.current, t0)
			assert.Equal(test.expUpdated, updated)
			assert.Equal(test.expAchieved, achieved)
		})
	}
}

func TestEvaluateMilestonesDoesNotModifyInput(t *testing.T) {
	current := []model.Milestone{{ID: "o"}}
	rules := []model.MilestoneRule{{ID: "o", Kind: model.MilestoneKindOverallProgress, Threshold: 0}}

	_, achieved := progress.EvaluateMilestones(rules, nil, 0, current, t0)

	assert.Equal(t, []string{"o"}, achieved)
	assert.False(t, current[0].Achieved)
}
