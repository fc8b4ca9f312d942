package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Dashboard is the per user workflow document. There is exactly one per user and
// it is always read and written as a whole.
type Dashboard struct {
	UserID           string           `json:"userId"`
	CreatedAt        time.Time        `json:"createdAt"`
	LastUpdatedAt    time.Time        `json:"lastUpdatedAt"`
	Modules          []Module         `json:"modules"`
	ProgressTracking ProgressTracking `json:"progressTracking"`

	// Revision is managed by the storage layer for conditional writes, it's not
	// part of the document body.
	Revision int64 `json:"-"`
}

// Module is an ordered group of sections.
type Module struct {
	ID                 string       `json:"id"`
	Title              string       `json:"title"`
	Sections           []Section    `json:"sections"`
	TotalSections      int          `json:"totalSections"`
	CompletedSections  int          `json:"completedSections"`
	ProgressPercentage int          `json:"progressPercentage"`
	Status             ModuleStatus `json:"status"`
	Unlocked           bool         `json:"unlocked"`
	StartedAt          *time.Time   `json:"startedAt,omitempty"`
	CompletedAt        *time.Time   `json:"completedAt,omitempty"`
}

// Section is the smallest unit of work. Data is opaque to this system.
type Section struct {
	SectionID    string          `json:"sectionId"`
	Order        int             `json:"order"`
	Title        string          `json:"title"`
	Status       SectionStatus   `json:"status"`
	Unlocked     bool            `json:"unlocked"`
	Data         json.RawMessage `json:"data"`
	Version      int             `json:"version"`
	LastEditedAt time.Time       `json:"lastEditedAt"`
	StartedAt    *time.Time      `json:"startedAt,omitempty"`
	CompletedAt  *time.Time      `json:"completedAt,omitempty"`
	Metadata     SectionMetadata `json:"metadata"`
}

// SectionMetadata holds section bookkeeping that is not user data.
type SectionMetadata struct {
	EditHistory []EditEntry `json:"editHistory"`
}

// EditEntry is a manually recorded audit entry of a field change.
type EditEntry struct {
	EditedAt      time.Time       `json:"editedAt"`
	Field         string          `json:"field"`
	PreviousValue json.RawMessage `json:"previousValue"`
	NewValue      json.RawMessage `json:"newValue"`
	EditedBy      string          `json:"editedBy"`
}

// ProgressTracking aggregates the progress of the whole document.
type ProgressTracking struct {
	OverallProgress int            `json:"overallProgress"`
	ModuleProgress  map[string]int `json:"moduleProgress"`
	Milestones      []Milestone    `json:"milestones"`
}

// Milestone is a one way achievement flag.
type Milestone struct {
	ID         string     `json:"id"`
	Achieved   bool       `json:"achieved"`
	AchievedAt *time.Time `json:"achievedAt,omitempty"`
}

// Module returns the index and a pointer to the module with the ID, index is -1 when missing.
func (d *Dashboard) Module(id string) (int, *Module) {
	for i := range d.Modules {
		if d.Modules[i].ID == id {
			return i, &d.Modules[i]
		}
	}
	return -1, nil
}

// Section returns the index and a pointer to the section with the ID, index is -1 when missing.
func (m *Module) Section(id string) (int, *Section) {
	for i := range m.Sections {
		if m.Sections[i].SectionID == id {
			return i, &m.Sections[i]
		}
	}
	return -1, nil
}

// Copy returns a deep copy of the dashboard.
func (d Dashboard) Copy() Dashboard {
	c := d
	c.Modules = nil
	if d.Modules != nil {
		c.Modules = make([]Module, len(d.Modules))
		for i, m := range d.Modules {
			c.Modules[i] = m.Copy()
		}
	}

	c.ProgressTracking.ModuleProgress = nil
	if d.ProgressTracking.ModuleProgress != nil {
		c.ProgressTracking.ModuleProgress = make(map[string]int, len(d.ProgressTracking.ModuleProgress))
		for k, v := range d.ProgressTracking.ModuleProgress {
			c.ProgressTracking.ModuleProgress[k] = v
		}
	}

	c.ProgressTracking.Milestones = nil
	if d.ProgressTracking.Milestones != nil {
		c.ProgressTracking.Milestones = make([]Milestone, len(d.ProgressTracking.Milestones))
		for i, m := range d.ProgressTracking.Milestones {
			m.AchievedAt = copyTime(m.AchievedAt)
			c.ProgressTracking.Milestones[i] = m
		}
	}

	return c
}

// Copy returns a deep copy of the module.
func (m Module) Copy() Module {
	c := m
	c.StartedAt = copyTime(m.StartedAt)
	c.CompletedAt = copyTime(m.CompletedAt)
	c.Sections = nil
	if m.Sections != nil {
		c.Sections = make([]Section, len(m.Sections))
		for i, s := range m.Sections {
			c.Sections[i] = s.Copy()
		}
	}
	return c
}

// Copy returns a deep copy of the section.
func (s Section) Copy() Section {
	c := s
	c.Data = CopyRaw(s.Data)
	c.StartedAt = copyTime(s.StartedAt)
	c.CompletedAt = copyTime(s.CompletedAt)
	c.Metadata.EditHistory = nil
	if s.Metadata.EditHistory != nil {
		c.Metadata.EditHistory = make([]EditEntry, len(s.Metadata.EditHistory))
		for i, e := range s.Metadata.EditHistory {
			e.PreviousValue = CopyRaw(e.PreviousValue)
			e.NewValue = CopyRaw(e.NewValue)
			c.Metadata.EditHistory[i] = e
		}
	}
	return c
}

// NormalizeRaw checks a raw JSON payload received from callers. Empty payloads and
// JSON null are returned as nil, so absent data is always nil.
func NormalizeRaw(r json.RawMessage) (json.RawMessage, error) {
	if isNullRaw(r) {
		return nil, nil
	}
	if !json.Valid(r) {
		return nil, fmt.Errorf("payload is not valid JSON: %w", ErrNotValid)
	}
	return CopyRaw(r), nil
}

// DecodeDashboard decodes a stored dashboard document, payloads stored as JSON null
// are decoded as nil.
func DecodeDashboard(doc []byte) (*Dashboard, error) {
	var d Dashboard
	if err := json.Unmarshal(doc, &d); err != nil {
		return nil, err
	}

	for i := range d.Modules {
		for j := range d.Modules[i].Sections {
			s := &d.Modules[i].Sections[j]
			s.Data = nilIfNull(s.Data)
			for k := range s.Metadata.EditHistory {
				e := &s.Metadata.EditHistory[k]
				e.PreviousValue = nilIfNull(e.PreviousValue)
				e.NewValue = nilIfNull(e.NewValue)
			}
		}
	}

	return &d, nil
}

func isNullRaw(r json.RawMessage) bool {
	t := bytes.TrimSpace(r)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

func nilIfNull(r json.RawMessage) json.RawMessage {
	if isNullRaw(r) {
		return nil
	}
	return r
}

// CopyRaw copies a raw JSON payload, nil stays nil.
func CopyRaw(r json.RawMessage) json.RawMessage {
	if r == nil {
		return nil
	}
	c := make(json.RawMessage, len(r))
	copy(c, r)
	return c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
