package model

import "fmt"

// Template is the fixed definition every new dashboard is created from.
type Template struct {
	Modules    []ModuleTemplate
	Milestones []MilestoneRule
}

// ModuleTemplate defines a module and its sections in order.
type ModuleTemplate struct {
	ID       string
	Title    string
	Sections []SectionTemplate
}

// SectionTemplate defines a section, its order is the position in the module.
type SectionTemplate struct {
	ID    string
	Title string
}

// MilestoneKind is the named condition a milestone is achieved on.
type MilestoneKind string

const (
	// MilestoneKindModuleStarted holds once the target module has a start time.
	MilestoneKindModuleStarted MilestoneKind = "module_started"
	// MilestoneKindModuleProgress holds once the target module progress reaches the threshold.
	MilestoneKindModuleProgress MilestoneKind = "module_progress"
	// MilestoneKindModuleCompleted holds once the target module is completed.
	MilestoneKindModuleCompleted MilestoneKind = "module_completed"
	// MilestoneKindOverallProgress holds once the overall progress reaches the threshold.
	MilestoneKindOverallProgress MilestoneKind = "overall_progress"
)

// MilestoneRule is the condition of a milestone.
type MilestoneRule struct {
	ID        string
	Kind      MilestoneKind
	ModuleID  string
	Threshold int
}

// Validate validates the template.
func (t Template) Validate() error {
	if len(t.Modules) == 0 {
		return fmt.Errorf("at least one module is required: %w", ErrNotValid)
	}

	moduleIDs := map[string]bool{}
	for _, m := range t.Modules {
		if m.ID == "" {
			return fmt.Errorf("module id is required: %w", ErrNotValid)
		}
		if moduleIDs[m.ID] {
			return fmt.Errorf("module %q is duplicated: %w", m.ID, ErrNotValid)
		}
		moduleIDs[m.ID] = true

		if len(m.Sections) == 0 {
			return fmt.Errorf("module %q requires at least one section: %w", m.ID, ErrNotValid)
		}

		sectionIDs := map[string]bool{}
		for _, s := range m.Sections {
			if s.ID == "" {
				return fmt.Errorf("module %q has a section without id: %w", m.ID, ErrNotValid)
			}
			if sectionIDs[s.ID] {
				return fmt.Errorf("module %q section %q is duplicated: %w", m.ID, s.ID, ErrNotValid)
			}
			sectionIDs[s.ID] = true
		}
	}

	milestoneIDs := map[string]bool{}
	for _, r := range t.Milestones {
		if err := r.Validate(); err != nil {
			return err
		}
		if milestoneIDs[r.ID] {
			return fmt.Errorf("milestone %q is duplicated: %w", r.ID, ErrNotValid)
		}
		milestoneIDs[r.ID] = true

		if r.Kind != MilestoneKindOverallProgress && !moduleIDs[r.ModuleID] {
			return fmt.Errorf("milestone %q targets unknown module %q: %w", r.ID, r.ModuleID, ErrNotValid)
		}
	}

	return nil
}

// Validate validates the milestone rule on its own.
func (r MilestoneRule) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("milestone id is required: %w", ErrNotValid)
	}

	switch r.Kind {
	case MilestoneKindModuleStarted, MilestoneKindModuleCompleted:
		if r.ModuleID == "" {
			return fmt.Errorf("milestone %q requires a module: %w", r.ID, ErrNotValid)
		}
	case MilestoneKindModuleProgress:
		if r.ModuleID == "" {
			return fmt.Errorf("milestone %q requires a module: %w", r.ID, ErrNotValid)
		}
		if r.Threshold < 0 || r.Threshold > 100 {
			return fmt.Errorf("milestone %q threshold must be between 0 and 100: %w", r.ID, ErrNotValid)
		}
	case MilestoneKindOverallProgress:
		if r.Threshold < 0 || r.Threshold > 100 {
			return fmt.Errorf("milestone %q threshold must be between 0 and 100: %w", r.ID, ErrNotValid)
		}
	default:
		return fmt.Errorf("milestone %q has unknown kind %q: %w", r.ID, r.Kind, ErrNotValid)
	}

	return nil
}
