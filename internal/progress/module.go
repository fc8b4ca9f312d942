package progress

import (
	"fmt"
	"math"

	"github.com/slok/intake/internal/model"
)

// moduleTransitions is the exhaustive module transition table, modules only move forward.
var moduleTransitions = map[model.ModuleStatus]map[model.ModuleStatus]bool{
	model.ModuleStatusNotStarted: {
		model.ModuleStatusInProgress: true,
		model.ModuleStatusCompleted:  true,
	},
	model.ModuleStatusInProgress: {
		model.ModuleStatusCompleted: true,
	},
	model.ModuleStatusCompleted: {},
}

// CanTransitionModule returns true when a module can move from one status to the other.
// Staying in the same status is always allowed.
func CanTransitionModule(from, to model.ModuleStatus) bool {
	if from == to {
		return true
	}
	return moduleTransitions[from][to]
}

// Percent returns round(completed/total*100), 0 when there is nothing to complete.
func Percent(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) * 100 / float64(total)))
}

func moduleStatusFor(completed, total int) model.ModuleStatus {
	switch {
	case completed == 0:
		return model.ModuleStatusNotStarted
	case completed >= total:
		return model.ModuleStatusCompleted
	default:
		return model.ModuleStatusInProgress
	}
}

// recount recomputes the module aggregates from its sections and returns the derived status.
// It doesn't touch the module status.
func recount(m *model.Module) model.ModuleStatus {
	completed := 0
	for _, s := range m.Sections {
		if s.Status == model.SectionStatusCompleted {
			completed++
		}
	}

	m.TotalSections = len(m.Sections)
	m.CompletedSections = completed
	m.ProgressPercentage = Percent(completed, m.TotalSections)

	return moduleStatusFor(completed, m.TotalSections)
}

// aggregateModule recounts the module and applies the derived status through the transition table.
// Returns true when the module moved into completed with this call.
func aggregateModule(m *model.Module) (bool, error) {
	prev := m.Status
	next := recount(m)
	if !CanTransitionModule(prev, next) {
		return false, fmt.Errorf("module %q can't move from %q to %q: %w", m.ID, prev, next, model.ErrInvalidTransition)
	}
	m.Status = next

	return prev != model.ModuleStatusCompleted && next == model.ModuleStatusCompleted, nil
}

// unlockModule opens a locked module and its first section, returns false when already unlocked.
func unlockModule(m *model.Module) bool {
	if m.Unlocked {
		return false
	}

	m.Unlocked = true
	if m.CompletedSections == 0 {
		m.Status = model.ModuleStatusNotStarted
	}
	if len(m.Sections) > 0 {
		m.Sections[0].Unlocked = true
	}

	return true
}

// updateTracking recomputes the document level aggregates.
func updateTracking(d *model.Dashboard) {
	completed, total := 0, 0
	if d.ProgressTracking.ModuleProgress == nil {
		d.ProgressTracking.ModuleProgress = map[string]int{}
	}

	for _, m := range d.Modules {
		completed += m.CompletedSections
		total += m.TotalSections
		d.ProgressTracking.ModuleProgress[m.ID] = m.ProgressPercentage
	}

	d.ProgressTracking.OverallProgress = Percent(completed, total)
}
