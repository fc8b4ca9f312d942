package printer

import (
	"github.com/slok/intake/internal/model"
	"github.com/slok/intake/internal/progress"
)

// Printer knows how to print intake progress information in different formats.
type Printer interface {
	PrintDashboard(d model.Dashboard) error
	PrintSection(s model.Section) error
	PrintEditHistory(s model.Section) error
	PrintTransition(t progress.Transition) error
	PrintHealed(healed []string) error
	PrintMessage(msg string) error
}
