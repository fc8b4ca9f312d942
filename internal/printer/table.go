package printer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/slok/intake/internal/model"
	"github.com/slok/intake/internal/progress"
)

// TablePrinter prints intake progress information in a human friendly format.
type TablePrinter struct {
	writer io.Writer
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w}
}

// PrintDashboard prints the dashboard summary, its modules and milestones.
func (t *TablePrinter) PrintDashboard(d model.Dashboard) error {
	fmt.Fprintf(t.writer, "User:       %s\n", d.UserID)
	fmt.Fprintf(t.writer, "Progress:   %s\n", ProgressBar(d.ProgressTracking.OverallProgress))
	fmt.Fprintf(t.writer, "Created:    %s\n", FormatTimestamp(d.CreatedAt))
	fmt.Fprintf(t.writer, "Updated:    %s\n", TimeAgo(d.LastUpdatedAt))
	fmt.Fprintln(t.writer)

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MODULE\tSTATUS\tSECTIONS\tPROGRESS\tLOCKED")
	for _, m := range d.Modules {
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%s\t%s\n",
			m.ID,
			m.Status,
			m.CompletedSections,
			m.TotalSections,
			ProgressBar(m.ProgressPercentage),
			yesNo(!m.Unlocked),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(d.ProgressTracking.Milestones) == 0 {
		return nil
	}

	fmt.Fprintln(t.writer)
	tw = tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MILESTONE\tACHIEVED\tAT")
	for _, m := range d.ProgressTracking.Milestones {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", m.ID, yesNo(m.Achieved), FormatOptionalTimestamp(m.AchievedAt))
	}
	return tw.Flush()
}

// PrintSection prints the section state and its data.
func (t *TablePrinter) PrintSection(s model.Section) error {
	fmt.Fprintf(t.writer, "Section:    %s\n", s.SectionID)
	fmt.Fprintf(t.writer, "Title:      %s\n", s.Title)
	fmt.Fprintf(t.writer, "Order:      %d\n", s.Order)
	fmt.Fprintf(t.writer, "Status:     %s\n", s.Status)
	fmt.Fprintf(t.writer, "Locked:     %s\n", yesNo(!s.Unlocked))
	fmt.Fprintf(t.writer, "Version:    %d\n", s.Version)
	fmt.Fprintf(t.writer, "Edited:     %s\n", FormatTimestamp(s.LastEditedAt))
	fmt.Fprintf(t.writer, "Started:    %s\n", FormatOptionalTimestamp(s.StartedAt))
	fmt.Fprintf(t.writer, "Completed:  %s\n", FormatOptionalTimestamp(s.CompletedAt))
	fmt.Fprintf(t.writer, "Edits:      %d\n", len(s.Metadata.EditHistory))

	if len(s.Data) == 0 || string(s.Data) == "null" {
		return nil
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, s.Data, "", "  "); err != nil {
		pretty.Reset()
		pretty.Write(s.Data)
	}
	fmt.Fprintf(t.writer, "Data:\n%s\n", pretty.String())

	return nil
}

// PrintEditHistory prints the edit history of a section.
func (t *TablePrinter) PrintEditHistory(s model.Section) error {
	if len(s.Metadata.EditHistory) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "FIELD\tBY\tEDITED\tPREVIOUS\tNEW")
	for _, e := range s.Metadata.EditHistory {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.Field, e.EditedBy, TimeAgo(e.EditedAt), rawOrDash(e.PreviousValue), rawOrDash(e.NewValue))
	}

	return nil
}

// PrintTransition prints the section after a transition and its side effects.
func (t *TablePrinter) PrintTransition(tr progress.Transition) error {
	fmt.Fprintf(t.writer, "Section:    %s (%s, version %d)\n", tr.Section.SectionID, tr.Section.Status, tr.Section.Version)
	fmt.Fprintf(t.writer, "Module:     %s\n", ProgressBar(tr.ModuleProgress))
	if tr.NextSection != nil {
		fmt.Fprintf(t.writer, "Next:       %s (%s)\n", tr.NextSection.SectionID, lockedState(tr.NextSection.Unlocked))
	}
	if tr.ModuleCompleted {
		fmt.Fprintln(t.writer, "Module completed")
	}
	for _, u := range tr.Unlocked {
		if u.SectionID == "" {
			fmt.Fprintf(t.writer, "Unlocked:   module %s\n", u.ModuleID)
			continue
		}
		fmt.Fprintf(t.writer, "Unlocked:   section %s/%s\n", u.ModuleID, u.SectionID)
	}
	for _, id := range append(append([]string{}, tr.Healed.Achieved...), tr.Achieved...) {
		fmt.Fprintf(t.writer, "Milestone:  %s\n", id)
	}
	for _, h := range tr.Healed.Healed {
		fmt.Fprintf(t.writer, "Healed:     %s\n", h)
	}
	if !tr.Changed {
		fmt.Fprintln(t.writer, "Nothing changed")
	}

	return nil
}

// PrintHealed prints the drift healed by a repair.
func (t *TablePrinter) PrintHealed(healed []string) error {
	if len(healed) == 0 {
		fmt.Fprintln(t.writer, "Dashboard is healthy")
		return nil
	}

	for _, h := range healed {
		fmt.Fprintf(t.writer, "Healed:     %s\n", h)
	}
	return nil
}

// PrintMessage prints a simple text message.
func (t *TablePrinter) PrintMessage(msg string) error {
	fmt.Fprintln(t.writer, msg)
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func lockedState(unlocked bool) string {
	if unlocked {
		return "unlocked"
	}
	return "locked"
}

func rawOrDash(r json.RawMessage) string {
	if len(r) == 0 {
		return "-"
	}
	return string(r)
}
