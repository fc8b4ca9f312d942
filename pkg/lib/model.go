package lib

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/slok/intake/internal/model"
	"github.com/slok/intake/internal/progress"
)

// SequencePolicy decides which sections can be started or completed.
type SequencePolicy string

const (
	// SequencePolicyNone doesn't gate anything, locked sections can be completed.
	SequencePolicyNone SequencePolicy = "none"
	// SequencePolicyUnlocked requires the module and the section to be unlocked.
	SequencePolicyUnlocked SequencePolicy = "unlocked"
	// SequencePolicyStrict requires every earlier section of the module to be completed.
	SequencePolicyStrict SequencePolicy = "strict"
)

// SectionStatus represents the state of a section.
//
// The lifecycle is:
//
//	not_started -> in_progress -> completed
//
// A not started section can be completed directly, and completing a completed
// section again updates its data.
type SectionStatus string

const (
	// SectionStatusNotStarted indicates nobody has worked on the section yet.
	SectionStatusNotStarted SectionStatus = "not_started"
	// SectionStatusInProgress indicates the section has been started.
	SectionStatusInProgress SectionStatus = "in_progress"
	// SectionStatusCompleted indicates the section is done.
	SectionStatusCompleted SectionStatus = "completed"
)

// ModuleStatus represents the state of a module, derived from its sections.
type ModuleStatus string

const (
	// ModuleStatusNotStarted indicates no section of the module has been completed.
	ModuleStatusNotStarted ModuleStatus = "not_started"
	// ModuleStatusInProgress indicates some sections of the module are completed.
	ModuleStatusInProgress ModuleStatus = "in-progress"
	// ModuleStatusCompleted indicates every section of the module is completed.
	ModuleStatusCompleted ModuleStatus = "completed"
)

// Dashboard is the intake progress document of a user.
//
// This is a read-only snapshot of the dashboard at the time of the API call.
type Dashboard struct {
	UserID        string
	CreatedAt     time.Time
	LastUpdatedAt time.Time
	// Modules are ordered, the first one is always unlocked.
	Modules []Module
	// OverallProgress is the percentage of completed sections across all modules.
	OverallProgress int
	// ModuleProgress is the progress percentage by module ID.
	ModuleProgress map[string]int
	Milestones     []Milestone
}

// Module groups an ordered set of sections.
type Module struct {
	ID                 string
	Title              string
	Sections           []Section
	TotalSections      int
	CompletedSections  int
	ProgressPercentage int
	Status             ModuleStatus
	Unlocked           bool
	// StartedAt is when the first section of the module was started. Nil if never started.
	StartedAt *time.Time
	// CompletedAt is when the last section of the module was completed. Nil if not completed.
	CompletedAt *time.Time
}

// Section is a unit of intake work with opaque user data.
type Section struct {
	ID       string
	Order    int
	Title    string
	Status   SectionStatus
	Unlocked bool
	// Data is the opaque section data, stored as is.
	Data json.RawMessage
	// Version is increased on every data save or completion.
	Version      int
	LastEditedAt time.Time
	// StartedAt is when the section was started. Nil if never started.
	StartedAt *time.Time
	// CompletedAt is when the section was last completed. Nil if not completed.
	CompletedAt *time.Time
	EditHistory []EditEntry
}

// EditEntry is a recorded edit of a section field.
type EditEntry struct {
	EditedAt      time.Time
	Field         string
	PreviousValue json.RawMessage
	NewValue      json.RawMessage
	EditedBy      string
}

// Milestone is an achievement flag, once achieved it stays achieved.
type Milestone struct {
	ID         string
	Achieved   bool
	AchievedAt *time.Time
}

// Unlock is a module or section unlocked by a transition. SectionID is
// empty when a module was unlocked.
type Unlock struct {
	ModuleID  string
	SectionID string
}

// TransitionResult is the result of starting or completing a section.
type TransitionResult struct {
	// Success is true when the transition was applied.
	Success bool
	// Section is the section after the transition.
	Section Section
	// NextSection is the next section of the module. Nil for the last section.
	NextSection *Section
	// ModuleProgress is the module progress percentage after the transition.
	ModuleProgress int
	// ModuleCompleted is true when this transition completed the module.
	ModuleCompleted bool
	// Unlocked are the modules and sections unlocked by the transition.
	Unlocked []Unlock
	// Milestones are the milestones achieved by the transition.
	Milestones []string
}

// InitializeResult is the result of initializing a dashboard.
type InitializeResult struct {
	// AlreadyExists is true when the dashboard was not created but repaired.
	AlreadyExists bool
	// Healed describes the unlock drift fixed on an existing dashboard.
	Healed    []string
	Dashboard Dashboard
}

// RepairResult is the result of a dashboard repair.
type RepairResult struct {
	// Healed describes the unlock drift that was fixed. Empty when the dashboard was healthy.
	Healed []string
	// Milestones are the milestones achieved while repairing.
	Milestones []string
	Dashboard  Dashboard
}

// EditOpts describes an edit made on a section field.
type EditOpts struct {
	Field         string
	PreviousValue json.RawMessage
	NewValue      json.RawMessage
}

// Sentinel errors returned by SDK methods. Use [errors.Is] to check them.
var (
	// ErrNotFound is returned when a dashboard, module or section does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a dashboard already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotValid is returned when the input or transition is not valid.
	ErrNotValid = errors.New("not valid")
	// ErrLocked is returned when the sequence policy rejects the operation.
	ErrLocked = errors.New("locked")
	// ErrConflict is returned when the dashboard kept changing concurrently.
	ErrConflict = errors.New("conflict")
)

// --- Conversion helpers ---

func fromInternalDashboard(d model.Dashboard) Dashboard {
	res := Dashboard{
		UserID:          d.UserID,
		CreatedAt:       d.CreatedAt,
		LastUpdatedAt:   d.LastUpdatedAt,
		Modules:         make([]Module, 0, len(d.Modules)),
		OverallProgress: d.ProgressTracking.OverallProgress,
		ModuleProgress:  make(map[string]int, len(d.ProgressTracking.ModuleProgress)),
		Milestones:      make([]Milestone, 0, len(d.ProgressTracking.Milestones)),
	}

	for _, m := range d.Modules {
		res.Modules = append(res.Modules, fromInternalModule(m))
	}
	for id, p := range d.ProgressTracking.ModuleProgress {
		res.ModuleProgress[id] = p
	}
	for _, m := range d.ProgressTracking.Milestones {
		res.Milestones = append(res.Milestones, Milestone{
			ID:         m.ID,
			Achieved:   m.Achieved,
			AchievedAt: m.AchievedAt,
		})
	}

	return res
}

func fromInternalModule(m model.Module) Module {
	res := Module{
		ID:                 m.ID,
		Title:              m.Title,
		Sections:           make([]Section, 0, len(m.Sections)),
		TotalSections:      m.TotalSections,
		CompletedSections:  m.CompletedSections,
		ProgressPercentage: m.ProgressPercentage,
		Status:             ModuleStatus(m.Status),
		Unlocked:           m.Unlocked,
		StartedAt:          m.StartedAt,
		CompletedAt:        m.CompletedAt,
	}
	for _, s := range m.Sections {
		res.Sections = append(res.Sections, fromInternalSection(s))
	}
	return res
}

func fromInternalSection(s model.Section) Section {
	res := Section{
		ID:           s.SectionID,
		Order:        s.Order,
		Title:        s.Title,
		Status:       SectionStatus(s.Status),
		Unlocked:     s.Unlocked,
		Data:         s.Data,
		Version:      s.Version,
		LastEditedAt: s.LastEditedAt,
		StartedAt:    s.StartedAt,
		CompletedAt:  s.CompletedAt,
		EditHistory:  make([]EditEntry, 0, len(s.Metadata.EditHistory)),
	}
	for _, e := range s.Metadata.EditHistory {
		res.EditHistory = append(res.EditHistory, EditEntry{
			EditedAt:      e.EditedAt,
			Field:         e.Field,
			PreviousValue: e.PreviousValue,
			NewValue:      e.NewValue,
			EditedBy:      e.EditedBy,
		})
	}
	return res
}

func fromInternalTransition(t progress.Transition) TransitionResult {
	res := TransitionResult{
		Success:         true,
		Section:         fromInternalSection(t.Section),
		ModuleProgress:  t.ModuleProgress,
		ModuleCompleted: t.ModuleCompleted,
		Unlocked:        make([]Unlock, 0, len(t.Unlocked)),
		Milestones:      append(append([]string{}, t.Healed.Achieved...), t.Achieved...),
	}
	if t.NextSection != nil {
		next := fromInternalSection(*t.NextSection)
		res.NextSection = &next
	}
	for _, u := range t.Unlocked {
		res.Unlocked = append(res.Unlocked, Unlock{ModuleID: u.ModuleID, SectionID: u.SectionID})
	}
	return res
}

func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case isInternalError(err, model.ErrNotFound):
		return joinErrors(err, ErrNotFound)
	case isInternalError(err, model.ErrAlreadyExists):
		return joinErrors(err, ErrAlreadyExists)
	case isInternalError(err, model.ErrNotValid), isInternalError(err, model.ErrInvalidTransition):
		return joinErrors(err, ErrNotValid)
	case isInternalError(err, model.ErrLocked):
		return joinErrors(err, ErrLocked)
	case isInternalError(err, model.ErrConflict):
		return joinErrors(err, ErrConflict)
	default:
		return err
	}
}

func isInternalError(err, target error) bool {
	for {
		if err == target {
			return true
		}
		unwrapped := unwrapSingle(err)
		if unwrapped == nil {
			return false
		}
		err = unwrapped
	}
}

func unwrapSingle(err error) error {
	u, ok := err.(interface{ Unwrap() error })
	if !ok {
		return nil
	}
	return u.Unwrap()
}

func joinErrors(original, sentinel error) error {
	return &mappedError{original: original, sentinel: sentinel}
}

type mappedError struct {
	original error
	sentinel error
}

func (e *mappedError) Error() string { return e.original.Error() }

func (e *mappedError) Is(target error) bool {
	return target == e.sentinel
}

func (e *mappedError) Unwrap() error { return e.original }
