package progress

import (
	"time"

	"github.com/slok/intake/internal/model"
)

// EvaluateMilestones returns the updated milestone list and the IDs achieved by this evaluation.
//
// Achieved milestones are never evaluated again nor cleared. Rules without an entry
// in current are appended, entries without a rule are kept as they are.
// The received slice is not modified.
func EvaluateMilestones(rules []model.MilestoneRule, modules []model.Module, overall int, current []model.Milestone, now time.Time) ([]model.Milestone, []string) {
	var updated []model.Milestone
	if current != nil {
		updated = make([]model.Milestone, 0, len(current))
	}
	index := map[string]int{}
	for _, m := range current {
		index[m.ID] = len(updated)
		updated = append(updated, m)
	}

	var achieved []string
	for _, r := range rules {
		i, ok := index[r.ID]
		if !ok {
			i = len(updated)
			index[r.ID] = i
			updated = append(updated, model.Milestone{ID: r.ID})
		}

		if updated[i].Achieved {
			continue
		}

		if !ruleHolds(r, modules, overall) {
			continue
		}

		at := now
		updated[i].Achieved = true
		updated[i].AchievedAt = &at
		achieved = append(achieved, r.ID)
	}

	return updated, achieved
}

func ruleHolds(r model.MilestoneRule, modules []model.Module, overall int) bool {
	if r.Kind == model.MilestoneKindOverallProgress {
		return overall >= r.Threshold
	}

	var target *model.Module
	for i := range modules {
		if modules[i].ID == r.ModuleID {
			target = &modules[i]
			break
		}
	}
	if target == nil {
		return false
	}

	switch r.Kind {
	case model.MilestoneKindModuleStarted:
		return target.StartedAt != nil
	case model.MilestoneKindModuleProgress:
		return target.ProgressPercentage >= r.Threshold
	case model.MilestoneKindModuleCompleted:
		return target.Status == model.ModuleStatusCompleted
	}

	return false
}

func evaluateMilestones(rules []model.MilestoneRule, d *model.Dashboard, now time.Time) []string {
	updated, achieved := EvaluateMilestones(rules, d.Modules, d.ProgressTracking.OverallProgress, d.ProgressTracking.Milestones, now)
	d.ProgressTracking.Milestones = updated
	return achieved
}
