package progress

import (
	"time"

	"github.com/slok/intake/internal/model"
)

// NewDashboard creates the initial dashboard of a user from the template.
// Only the first module and its first section are unlocked.
func NewDashboard(userID string, t model.Template, now time.Time) model.Dashboard {
	d := model.Dashboard{
		UserID:        userID,
		CreatedAt:     now,
		LastUpdatedAt: now,
		Modules:       make([]model.Module, 0, len(t.Modules)),
		ProgressTracking: model.ProgressTracking{
			ModuleProgress: map[string]int{},
			Milestones:     []model.Milestone{},
		},
	}

	for i, mt := range t.Modules {
		m := model.Module{
			ID:       mt.ID,
			Title:    mt.Title,
			Sections: make([]model.Section, 0, len(mt.Sections)),
			Status:   model.ModuleStatusNotStarted,
			Unlocked: i == 0,
		}

		for j, st := range mt.Sections {
			m.Sections = append(m.Sections, model.Section{
				SectionID:    st.ID,
				Order:        j + 1,
				Title:        st.Title,
				Status:       model.SectionStatusNotStarted,
				Unlocked:     i == 0 && j == 0,
				Version:      1,
				LastEditedAt: now,
				Metadata:     model.SectionMetadata{EditHistory: []model.EditEntry{}},
			})
		}

		recount(&m)
		d.Modules = append(d.Modules, m)
	}

	for _, r := range t.Milestones {
		d.ProgressTracking.Milestones = append(d.ProgressTracking.Milestones, model.Milestone{ID: r.ID})
	}
	updateTracking(&d)
	evaluateMilestones(t.Milestones, &d, now)

	return d
}
