package progress

import (
	"fmt"

	"github.com/slok/intake/internal/model"
)

// SequencePolicy decides which sections can be started or completed.
type SequencePolicy string

const (
	// SequencePolicyNone doesn't gate anything, locked sections can be completed.
	SequencePolicyNone SequencePolicy = "none"
	// SequencePolicyUnlocked requires the module and the section to be unlocked.
	// Completing an unlocked section ahead of earlier ones (skip-ahead) is allowed.
	SequencePolicyUnlocked SequencePolicy = "unlocked"
	// SequencePolicyStrict requires the section to be unlocked and every earlier
	// section of the module to be completed.
	SequencePolicyStrict SequencePolicy = "strict"
)

// Valid returns true when the policy is known.
func (p SequencePolicy) Valid() bool {
	switch p {
	case SequencePolicyNone, SequencePolicyUnlocked, SequencePolicyStrict:
		return true
	}
	return false
}

func (p SequencePolicy) check(m *model.Module, sectionIdx int) error {
	if p == SequencePolicyNone {
		return nil
	}

	s := m.Sections[sectionIdx]
	if !m.Unlocked {
		return fmt.Errorf("module %s: %w", m.ID, model.ErrLocked)
	}
	if !s.Unlocked {
		return fmt.Errorf("section %s/%s: %w", m.ID, s.SectionID, model.ErrLocked)
	}

	if p == SequencePolicyStrict {
		for _, prev := range m.Sections[:sectionIdx] {
			if prev.Status != model.SectionStatusCompleted {
				return fmt.Errorf("section %s/%s requires %s to be completed first: %w", m.ID, s.SectionID, prev.SectionID, model.ErrLocked)
			}
		}
	}

	return nil
}
