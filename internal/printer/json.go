package printer

import (
	"encoding/json"
	"io"

	"github.com/slok/intake/internal/model"
	"github.com/slok/intake/internal/progress"
)

// JSONPrinter prints intake progress information in JSON format.
// Dashboards and sections use their persisted document shape.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

type unlockOutput struct {
	ModuleID  string `json:"moduleId"`
	SectionID string `json:"sectionId,omitempty"`
}

type transitionOutput struct {
	Success         bool           `json:"success"`
	Changed         bool           `json:"changed"`
	Section         model.Section  `json:"section"`
	NextSection     *model.Section `json:"nextSection,omitempty"`
	ModuleProgress  int            `json:"moduleProgress"`
	ModuleCompleted bool           `json:"moduleCompleted"`
	Unlocked        []unlockOutput `json:"unlocked"`
	Milestones      []string       `json:"milestones"`
	Healed          []string       `json:"healed"`
}

type healedOutput struct {
	Healed []string `json:"healed"`
}

type messageOutput struct {
	Message string `json:"message"`
}

// PrintDashboard prints the full dashboard document.
func (j *JSONPrinter) PrintDashboard(d model.Dashboard) error {
	return j.encode(d)
}

// PrintSection prints a section.
func (j *JSONPrinter) PrintSection(s model.Section) error {
	return j.encode(s)
}

// PrintEditHistory prints the edit history entries of a section.
func (j *JSONPrinter) PrintEditHistory(s model.Section) error {
	entries := s.Metadata.EditHistory
	if entries == nil {
		entries = []model.EditEntry{}
	}
	return j.encode(entries)
}

// PrintTransition prints the result of starting or completing a section.
func (j *JSONPrinter) PrintTransition(t progress.Transition) error {
	output := transitionOutput{
		Success:         true,
		Changed:         t.Changed,
		Section:         t.Section,
		NextSection:     t.NextSection,
		ModuleProgress:  t.ModuleProgress,
		ModuleCompleted: t.ModuleCompleted,
		Unlocked:        []unlockOutput{},
		Milestones:      append(append([]string{}, t.Healed.Achieved...), t.Achieved...),
		Healed:          append([]string{}, t.Healed.Healed...),
	}
	for _, u := range t.Unlocked {
		output.Unlocked = append(output.Unlocked, unlockOutput{ModuleID: u.ModuleID, SectionID: u.SectionID})
	}

	return j.encode(output)
}

// PrintHealed prints the drift healed by a repair.
func (j *JSONPrinter) PrintHealed(healed []string) error {
	return j.encode(healedOutput{Healed: append([]string{}, healed...)})
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	return j.encode(messageOutput{Message: msg})
}

func (j *JSONPrinter) encode(v any) error {
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
