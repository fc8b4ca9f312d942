package sectionstart

import (
	"context"
	"fmt"

	"github.com/slok/intake/internal/log"
	"github.com/slok/intake/internal/model"
	"github.com/slok/intake/internal/progress"
	"github.com/slok/intake/internal/storage"
)

// ServiceConfig is the configuration for the section start service.
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.SectionStart"})

	return nil
}

// Service starts sections.
type Service struct {
	engine      *progress.Engine
	repo        storage.Repository
	maxAttempts int
	logger      log.Logger
}

// NewService creates a new section start service.
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

// Request represents the section start request parameters.
type Request struct {
	UserID    string
	ModuleID  string
	SectionID string
}

// Run moves the section into in progress. Starting an already started section is a no-op
// and doesn't write the dashboard.
func (s *Service) Run(ctx context.Context, req Request) (*progress.Transition, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("user id is required: %w", model.ErrNotValid)
	}
	logger := s.logger.WithValues(log.Kv{"user": req.UserID, "module": req.ModuleID, "section": req.SectionID})

	var t *progress.Transition
	_, err := storage.Mutate(ctx, s.repo, req.UserID, storage.MutateOptions{MaxAttempts: s.maxAttempts, Logger: logger}, func(d *model.Dashboard) (bool, error) {
		var err error
		t, err = s.engine.Start(d, req.ModuleID, req.SectionID)
		if err != nil {
			return false, err
		}
		return t.Changed, nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not start section: %w", err)
	}

	for _, h := range t.Healed.Healed {
		logger.Infof("Healed dashboard: %s", h)
	}
	for _, id := range append(t.Healed.Achieved, t.Achieved...) {
		logger.Infof("Milestone achieved: %s", id)
	}
	logger.Debugf("Section is %s, module progress %d%%", t.Section.Status, t.ModuleProgress)

	return t, nil
}
