package model

// SectionStatus represents the state of a section.
//
//	not_started -> in_progress -> completed
//	not_started -> completed
type SectionStatus string

const (
	SectionStatusNotStarted SectionStatus = "not_started"
	SectionStatusInProgress SectionStatus = "in_progress"
	SectionStatusCompleted  SectionStatus = "completed"
)

// Valid returns true when the status is a known section status.
func (s SectionStatus) Valid() bool {
	switch s {
	case SectionStatusNotStarted, SectionStatusInProgress, SectionStatusCompleted:
		return true
	}
	return false
}

// ModuleStatus represents the aggregated state of a module.
// Note the persisted in progress value uses a hyphen, unlike sections.
type ModuleStatus string

const (
	ModuleStatusNotStarted ModuleStatus = "not_started"
	ModuleStatusInProgress ModuleStatus = "in-progress"
	ModuleStatusCompleted  ModuleStatus = "completed"
)

// Valid returns true when the status is a known module status.
func (s ModuleStatus) Valid() bool {
	switch s {
	case ModuleStatusNotStarted, ModuleStatusInProgress, ModuleStatusCompleted:
		return true
	}
	return false
}
