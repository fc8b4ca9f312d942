package progress

import (
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/slok/intake/internal/model"
)

// Report is the result of a reconciliation.
type Report struct {
	// Changed is true when the dashboard was modified and needs to be persisted.
	Changed bool
	// Healed describes the unlock drift that was fixed.
	Healed []string
	// Achieved are the milestones achieved while reconciling.
	Achieved []string
}

// Reconcile heals the dashboard unlock state and aggregates so they are consistent
// with the completed sections. It's idempotent, running it on a healthy dashboard
// doesn't change anything.
//
// Completion and milestone times filled by the heal are the stored last update time,
// the latest moment the drifted state could have been reached. LastUpdatedAt is set
// to now when the dashboard changes.
func Reconcile(d *model.Dashboard, rules []model.MilestoneRule, now time.Time) Report {
	r := View(d, rules, now)
	if r.Changed {
		d.LastUpdatedAt = now
	}
	return r
}

// View reconciles the dashboard like Reconcile but leaves LastUpdatedAt as stored,
// reconciling the same stored dashboard always gives the same result.
// Now is only used when the dashboard has never been updated.
func View(d *model.Dashboard, rules []model.MilestoneRule, now time.Time) Report {
	stamp := d.LastUpdatedAt
	if stamp.IsZero() {
		stamp = now
	}

	// Changed relies on Copy keeping nil and empty slices apart, so a stored
	// empty list is not reported as a change.
	before := d.Copy()
	var healed []string

	for i := range d.Modules {
		m := &d.Modules[i]
		sort.SliceStable(m.Sections, func(a, b int) bool { return m.Sections[a].Order < m.Sections[b].Order })
	}

	if len(d.Modules) > 0 {
		first := &d.Modules[0]
		if !first.Unlocked {
			first.Unlocked = true
			healed = append(healed, fmt.Sprintf("module %s unlocked", first.ID))
		}
		if len(first.Sections) > 0 && !first.Sections[0].Unlocked {
			first.Sections[0].Unlocked = true
			healed = append(healed, fmt.Sprintf("section %s/%s unlocked", first.ID, first.Sections[0].SectionID))
		}
	}

	for i := range d.Modules {
		m := &d.Modules[i]
		for j := 0; j+1 < len(m.Sections); j++ {
			if m.Sections[j].Status == model.SectionStatusCompleted && !m.Sections[j+1].Unlocked {
				m.Sections[j+1].Unlocked = true
				healed = append(healed, fmt.Sprintf("section %s/%s unlocked", m.ID, m.Sections[j+1].SectionID))
			}
		}

		// The count invariant wins over any stored status.
		m.Status = recount(m)
		if m.Status == model.ModuleStatusCompleted && m.CompletedAt == nil {
			at := stamp
			m.CompletedAt = &at
		}
	}

	for i := 0; i+1 < len(d.Modules); i++ {
		if d.Modules[i].Status != model.ModuleStatusCompleted {
			continue
		}
		next := &d.Modules[i+1]
		if len(next.Sections) == 0 {
			if unlockModule(next) {
				healed = append(healed, fmt.Sprintf("module %s unlocked", next.ID))
			}
			continue
		}

		firstLocked := !next.Sections[0].Unlocked
		if unlockModule(next) {
			healed = append(healed, fmt.Sprintf("module %s unlocked", next.ID))
		}
		if firstLocked {
			next.Sections[0].Unlocked = true
			healed = append(healed, fmt.Sprintf("section %s/%s unlocked", next.ID, next.Sections[0].SectionID))
		}
	}

	updateTracking(d)
	achieved := evaluateMilestones(rules, d, stamp)

	return Report{Changed: !reflect.DeepEqual(before, *d), Healed: healed, Achieved: achieved}
}
