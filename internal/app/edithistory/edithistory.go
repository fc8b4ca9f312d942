package edithistory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/slok/intake/internal/log"
	"github.com/slok/intake/internal/model"
	"github.com/slok/intake/internal/progress"
	"github.com/slok/intake/internal/storage"
)

// ServiceConfig is the configuration for the edit history service.
type ServiceConfig struct {
	Engine      *progress.Engine
	Repository  storage.Repository
	MaxAttempts int
	Logger      log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Engine == nil {
		return fmt.Errorf("engine is required")
	}

	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.EditHistory"})

	return nil
}

// Service appends audit entries to sections.
type Service struct {
	engine      *progress.Engine
	repo        storage.Repository
	maxAttempts int
	logger      log.Logger
}

// NewService creates a new edit history service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		engine:      cfg.Engine,
		repo:        cfg.Repository,
		maxAttempts: cfg.MaxAttempts,
		logger:      cfg.Logger,
	}, nil
}

// Request represents the edit history request parameters.
type Request struct {
	UserID        string
	ModuleID      string
	SectionID     string
	Field         string
	PreviousValue json.RawMessage
	NewValue      json.RawMessage
}

// Run appends an edit entry made by the user to the section history.
// The section version is not changed.
func (s *Service) Run(ctx context.Context, req Request) error {
	if req.UserID == "" {
		return fmt.Errorf("user id is required: %w", model.ErrNotValid)
	}
	prev, err := model.NormalizeRaw(req.PreviousValue)
	if err != nil {
		return fmt.Errorf("invalid previous value: %w", err)
	}
	next, err := model.NormalizeRaw(req.NewValue)
	if err != nil {
		return fmt.Errorf("invalid new value: %w", err)
	}
	logger := s.logger.WithValues(log.Kv{"user": req.UserID, "module": req.ModuleID, "section": req.SectionID})

	entry := model.EditEntry{
		Field:         req.Field,
		PreviousValue: prev,
		NewValue:      next,
		EditedBy:      req.UserID,
	}
	_, err = storage.Mutate(ctx, s.repo, req.UserID, storage.MutateOptions{MaxAttempts: s.maxAttempts, Logger: logger}, func(d *model.Dashboard) (bool, error) {
		if err := s.engine.AddEditHistory(d, req.ModuleID, req.SectionID, entry); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("could not add edit history: %w", err)
	}

	logger.Debugf("Edit of %q added to history", req.Field)
	return nil
}
