package lib

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/slok/intake/internal/app/edithistory"
	"github.com/slok/intake/internal/app/initialize"
	"github.com/slok/intake/internal/app/repair"
	"github.com/slok/intake/internal/app/section"
	"github.com/slok/intake/internal/app/sectioncomplete"
	"github.com/slok/intake/internal/app/sectionsave"
	"github.com/slok/intake/internal/app/sectionstart"
	"github.com/slok/intake/internal/app/state"
	"github.com/slok/intake/internal/model"
)

// InitializeDashboard creates the dashboard of the user from the template.
// When the dashboard already exists it is repaired and returned instead.
func (c *Client) InitializeDashboard(ctx context.Context, userID string) (*InitializeResult, error) {
	svc, err := initialize.NewService(initialize.ServiceConfig{
		Engine:      c.engine,
		Repository:  c.repo,
		Template:    c.template,
		MaxAttempts: c.maxAttempts,
		Logger:      c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	resp, err := svc.Run(ctx, initialize.Request{UserID: userID})
	if err != nil {
		return nil, mapError(err)
	}

	return &InitializeResult{
		AlreadyExists: resp.AlreadyExists,
		Healed:        append([]string{}, resp.Healed...),
		Dashboard:     fromInternalDashboard(*resp.Dashboard),
	}, nil
}

// GetDashboardState returns the dashboard of the user with the unlock drift healed.
// The stored dashboard is not modified. Returns nil without error when the user
// has no dashboard.
func (c *Client) GetDashboardState(ctx context.Context, userID string) (*Dashboard, error) {
	svc, err := state.NewService(state.ServiceConfig{
		Engine:     c.engine,
		Repository: c.repo,
		Logger:     c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	d, err := svc.Run(ctx, state.Request{UserID: userID})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, nil
		}
		return nil, mapError(err)
	}

	result := fromInternalDashboard(*d)
	return &result, nil
}

// GetSectionData returns a section of the user dashboard. Returns nil without error
// when the user has no dashboard or the section doesn't exist.
func (c *Client) GetSectionData(ctx context.Context, userID, moduleID, sectionID string) (*Section, error) {
	svc, err := section.NewService(section.ServiceConfig{
		Engine:     c.engine,
		Repository: c.repo,
		Logger:     c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	s, err := svc.Run(ctx, section.Request{
		UserID:    userID,
		ModuleID:  moduleID,
		SectionID: sectionID,
	})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, nil
		}
		return nil, mapError(err)
	}

	result := fromInternalSection(*s)
	return &result, nil
}

// StartSection moves a section into progress. Starting an already started or
// completed section changes nothing.
func (c *Client) StartSection(ctx context.Context, userID, moduleID, sectionID string) (*TransitionResult, error) {
	svc, err := sectionstart.NewService(sectionstart.ServiceConfig{
		Engine:      c.engine,
		Repository:  c.repo,
		MaxAttempts: c.maxAttempts,
		Logger:      c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	tr, err := svc.Run(ctx, sectionstart.Request{
		UserID:    userID,
		ModuleID:  moduleID,
		SectionID: sectionID,
	})
	if err != nil {
		return nil, mapError(err)
	}

	result := fromInternalTransition(*tr)
	return &result, nil
}

// CompleteSection completes a section, unlocking the next section and, when the
// module is completed, the next module. Nil data keeps the stored section data.
func (c *Client) CompleteSection(ctx context.Context, userID, moduleID, sectionID string, data json.RawMessage) (*TransitionResult, error) {
	svc, err := sectioncomplete.NewService(sectioncomplete.ServiceConfig{
		Engine:      c.engine,
		Repository:  c.repo,
		MaxAttempts: c.maxAttempts,
		Logger:      c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	tr, err := svc.Run(ctx, sectioncomplete.Request{
		UserID:    userID,
		ModuleID:  moduleID,
		SectionID: sectionID,
		Data:      data,
	})
	if err != nil {
		return nil, mapError(err)
	}

	result := fromInternalTransition(*tr)
	return &result, nil
}

// SaveSectionData replaces the section data and increases its version without
// changing its status.
func (c *Client) SaveSectionData(ctx context.Context, userID, moduleID, sectionID string, data json.RawMessage) (*Section, error) {
	svc, err := sectionsave.NewService(sectionsave.ServiceConfig{
		Engine:      c.engine,
		Repository:  c.repo,
		MaxAttempts: c.maxAttempts,
		Logger:      c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	s, err := svc.Run(ctx, sectionsave.Request{
		UserID:    userID,
		ModuleID:  moduleID,
		SectionID: sectionID,
		Data:      data,
	})
	if err != nil {
		return nil, mapError(err)
	}

	result := fromInternalSection(*s)
	return &result, nil
}

// AddEditHistory records an edit made by the user on a section field.
func (c *Client) AddEditHistory(ctx context.Context, userID, moduleID, sectionID string, opts EditOpts) error {
	svc, err := edithistory.NewService(edithistory.ServiceConfig{
		Engine:      c.engine,
		Repository:  c.repo,
		MaxAttempts: c.maxAttempts,
		Logger:      c.logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	err = svc.Run(ctx, edithistory.Request{
		UserID:        userID,
		ModuleID:      moduleID,
		SectionID:     sectionID,
		Field:         opts.Field,
		PreviousValue: opts.PreviousValue,
		NewValue:      opts.NewValue,
	})
	return mapError(err)
}

// RepairDashboard heals and stores the unlock drift of the user dashboard.
// A healthy dashboard is not written.
func (c *Client) RepairDashboard(ctx context.Context, userID string) (*RepairResult, error) {
	svc, err := repair.NewService(repair.ServiceConfig{
		Engine:      c.engine,
		Repository:  c.repo,
		MaxAttempts: c.maxAttempts,
		Logger:      c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	resp, err := svc.Run(ctx, repair.Request{UserID: userID})
	if err != nil {
		return nil, mapError(err)
	}

	return &RepairResult{
		Healed:     append([]string{}, resp.Healed...),
		Milestones: append([]string{}, resp.Achieved...),
		Dashboard:  fromInternalDashboard(*resp.Dashboard),
	}, nil
}
