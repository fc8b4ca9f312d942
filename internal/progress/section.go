package progress

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/slok/intake/internal/model"
)

// SectionEvent is an input of the section state machine.
type SectionEvent string

const (
	SectionEventStart    SectionEvent = "start"
	SectionEventComplete SectionEvent = "complete"
)

// sectionTransitions is the exhaustive section transition table, missing pairs are illegal.
var sectionTransitions = map[model.SectionStatus]map[SectionEvent]model.SectionStatus{
	model.SectionStatusNotStarted: {
		SectionEventStart:    model.SectionStatusInProgress,
		SectionEventComplete: model.SectionStatusCompleted,
	},
	model.SectionStatusInProgress: {
		SectionEventComplete: model.SectionStatusCompleted,
	},
	model.SectionStatusCompleted: {
		SectionEventComplete: model.SectionStatusCompleted,
	},
}

// NextSectionStatus returns the status a section moves to when receiving the event.
func NextSectionStatus(from model.SectionStatus, ev SectionEvent) (model.SectionStatus, error) {
	to, ok := sectionTransitions[from][ev]
	if !ok {
		return "", fmt.Errorf("section can't %s from %q: %w", ev, from, model.ErrInvalidTransition)
	}
	return to, nil
}

func startSection(s *model.Section, now time.Time) error {
	to, err := NextSectionStatus(s.Status, SectionEventStart)
	if err != nil {
		return err
	}

	s.Status = to
	s.StartedAt = &now
	return nil
}

// completeSection returns true when this call moved the section into completed.
func completeSection(s *model.Section, data json.RawMessage, now time.Time) (bool, error) {
	to, err := NextSectionStatus(s.Status, SectionEventComplete)
	if err != nil {
		return false, err
	}

	first := s.Status != model.SectionStatusCompleted
	s.Status = to
	s.CompletedAt = &now
	if data != nil {
		saveSection(s, data, now)
	}

	return first, nil
}

// saveSection replaces the data wholesale, fields missing in the new payload are gone.
func saveSection(s *model.Section, data json.RawMessage, now time.Time) {
	s.Data = model.CopyRaw(data)
	s.Version++
	s.LastEditedAt = now
}
