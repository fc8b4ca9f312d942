package progress

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/slok/intake/internal/model"
)

// EngineConfig is the configuration of the engine.
type EngineConfig struct {
	// Milestones are the rules milestones are evaluated with.
	Milestones []model.MilestoneRule
	// Policy is the sequence policy, defaults to SequencePolicyUnlocked.
	Policy SequencePolicy
	// Clock returns the current time, defaults to UTC now.
	Clock func() time.Time
}

func (c *EngineConfig) defaults() error {
	if c.Policy == "" {
		c.Policy = SequencePolicyUnlocked
	}
	if !c.Policy.Valid() {
		return fmt.Errorf("unknown sequence policy %q: %w", c.Policy, model.ErrNotValid)
	}

	for _, r := range c.Milestones {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("invalid milestone rule: %w", err)
		}
	}

	if c.Clock == nil {
		c.Clock = func() time.Time { return time.Now().UTC() }
	}

	return nil
}

// Engine applies the section and module transitions on dashboards.
type Engine struct {
	rules  []model.MilestoneRule
	policy SequencePolicy
	clock  func() time.Time
}

// NewEngine returns a new engine.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Engine{
		rules:  cfg.Milestones,
		policy: cfg.Policy,
		clock:  cfg.Clock,
	}, nil
}

// Unlock is an unlock that happened as a side effect of a transition.
// SectionID is empty when the unlocked target is a module.
type Unlock struct {
	ModuleID  string
	SectionID string
}

// Transition is the result of starting or completing a section.
type Transition struct {
	// Changed is true when the dashboard needs to be persisted.
	Changed bool
	// Section is the section after the transition.
	Section model.Section
	// NextSection is the section that follows in the module, if any.
	NextSection *model.Section
	// ModuleProgress is the module progress percentage after the transition.
	ModuleProgress int
	// ModuleCompleted is true when this transition completed the module.
	ModuleCompleted bool
	// Unlocked are the modules and sections unlocked by this transition.
	Unlocked []Unlock
	// Achieved are the milestones achieved by this transition.
	Achieved []string
	// Healed is the reconciliation that ran before the transition.
	Healed Report
}

// NewDashboard creates a new dashboard for the user from the template.
func (e *Engine) NewDashboard(userID string, t model.Template) model.Dashboard {
	return NewDashboard(userID, t, e.clock())
}

// Reconcile heals the dashboard, see Reconcile.
func (e *Engine) Reconcile(d *model.Dashboard) Report {
	return Reconcile(d, e.rules, e.clock())
}

// View reconciles the dashboard for reading, see View.
func (e *Engine) View(d *model.Dashboard) Report {
	return View(d, e.rules, e.clock())
}

// Start moves a not started section into in progress. Starting a section that is
// already started or completed is a no-op.
func (e *Engine) Start(d *model.Dashboard, moduleID, sectionID string) (*Transition, error) {
	healed := e.Reconcile(d)
	mi, si, err := locate(d, moduleID, sectionID)
	if err != nil {
		return nil, err
	}
	m := &d.Modules[mi]

	if m.Sections[si].Status != model.SectionStatusNotStarted {
		return e.transition(d, mi, si, healed, healed.Changed), nil
	}

	if err := e.policy.check(m, si); err != nil {
		return nil, err
	}

	now := e.clock()
	if err := startSection(&m.Sections[si], now); err != nil {
		return nil, err
	}
	if m.StartedAt == nil {
		m.StartedAt = &now
	}
	if _, err := aggregateModule(m); err != nil {
		return nil, err
	}

	t := e.transition(d, mi, si, healed, true)
	t.Achieved = e.finish(d, now)
	return t, nil
}

// Complete moves a section into completed. Data replaces the section data when not nil.
//
// The unlock cascade only runs the first time a section is completed, completing
// an already completed section only updates its data and completion time.
func (e *Engine) Complete(d *model.Dashboard, moduleID, sectionID string, data json.RawMessage) (*Transition, error) {
	healed := e.Reconcile(d)
	mi, si, err := locate(d, moduleID, sectionID)
	if err != nil {
		return nil, err
	}
	m := &d.Modules[mi]

	if m.Sections[si].Status != model.SectionStatusCompleted {
		if err := e.policy.check(m, si); err != nil {
			return nil, err
		}
	}

	now := e.clock()
	first, err := completeSection(&m.Sections[si], data, now)
	if err != nil {
		return nil, err
	}
	if m.StartedAt == nil {
		m.StartedAt = &now
	}

	var unlocked []Unlock
	if first && si+1 < len(m.Sections) && !m.Sections[si+1].Unlocked {
		m.Sections[si+1].Unlocked = true
		unlocked = append(unlocked, Unlock{ModuleID: m.ID, SectionID: m.Sections[si+1].SectionID})
	}

	moduleCompleted, err := aggregateModule(m)
	if err != nil {
		return nil, err
	}
	if moduleCompleted {
		m.CompletedAt = &now
		if mi+1 < len(d.Modules) {
			next := &d.Modules[mi+1]
			if unlockModule(next) {
				unlocked = append(unlocked, Unlock{ModuleID: next.ID})
				if len(next.Sections) > 0 {
					unlocked = append(unlocked, Unlock{ModuleID: next.ID, SectionID: next.Sections[0].SectionID})
				}
			}
		}
	}

	t := e.transition(d, mi, si, healed, true)
	t.ModuleCompleted = moduleCompleted
	t.Unlocked = unlocked
	t.Achieved = e.finish(d, now)
	return t, nil
}

// Save replaces the section data wholesale and bumps its version, in any status.
func (e *Engine) Save(d *model.Dashboard, moduleID, sectionID string, data json.RawMessage) (*model.Section, error) {
	e.Reconcile(d)
	mi, si, err := locate(d, moduleID, sectionID)
	if err != nil {
		return nil, err
	}

	now := e.clock()
	s := &d.Modules[mi].Sections[si]
	saveSection(s, data, now)
	d.LastUpdatedAt = now

	res := s.Copy()
	return &res, nil
}

// AddEditHistory appends an audit entry to the section, it doesn't bump the version.
func (e *Engine) AddEditHistory(d *model.Dashboard, moduleID, sectionID string, entry model.EditEntry) error {
	mi, si, err := locate(d, moduleID, sectionID)
	if err != nil {
		return err
	}

	now := e.clock()
	if entry.EditedAt.IsZero() {
		entry.EditedAt = now
	}
	s := &d.Modules[mi].Sections[si]
	s.Metadata.EditHistory = append(s.Metadata.EditHistory, entry)
	d.LastUpdatedAt = now

	return nil
}

func (e *Engine) finish(d *model.Dashboard, now time.Time) []string {
	updateTracking(d)
	d.LastUpdatedAt = now
	return evaluateMilestones(e.rules, d, now)
}

func (e *Engine) transition(d *model.Dashboard, mi, si int, healed Report, changed bool) *Transition {
	m := d.Modules[mi]
	t := &Transition{
		Changed:        changed,
		Section:        m.Sections[si].Copy(),
		ModuleProgress: m.ProgressPercentage,
		Healed:         healed,
	}
	if si+1 < len(m.Sections) {
		next := m.Sections[si+1].Copy()
		t.NextSection = &next
	}

	return t
}

func locate(d *model.Dashboard, moduleID, sectionID string) (int, int, error) {
	mi, m := d.Module(moduleID)
	if m == nil {
		return 0, 0, fmt.Errorf("module %s: %w", moduleID, model.ErrNotFound)
	}
	si, s := m.Section(sectionID)
	if s == nil {
		return 0, 0, fmt.Errorf("section %s/%s: %w", moduleID, sectionID, model.ErrNotFound)
	}

	return mi, si, nil
}
