package sectioncomplete

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/slok/intake/internal/log"
	"github.com/slok/intake/internal/model"
	"github.com/slok/intake/internal/progress"
	"github.com/slok/intake/internal/storage"
)

// ServiceConfig is the configuration for the section complete service.
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.SectionComplete"})

	return nil
}

// Service completes sections and runs the unlock cascade.
type Service struct {
	engine      *progress.Engine
	repo        storage.Repository
	maxAttempts int
	logger      log.Logger
}

// NewService creates a new section complete service.
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

// Request represents the section complete request parameters.
type Request struct {
	UserID    string
	ModuleID  string
	SectionID string
	// Data replaces the section data when it's JSON other than null.
	Data json.RawMessage
}

// Run completes the section, unlocking the next section and, when the module is
// completed, the next module.
func (s *Service) Run(ctx context.Context, req Request) (*progress.Transition, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("user id is required: %w", model.ErrNotValid)
	}
	data, err := model.NormalizeRaw(req.Data)
	if err != nil {
		return nil, fmt.Errorf("invalid section data: %w", err)
	}
	logger := s.logger.WithValues(log.Kv{"user": req.UserID, "module": req.ModuleID, "section": req.SectionID})

	var t *progress.Transition
	_, err = storage.Mutate(ctx, s.repo, req.UserID, storage.MutateOptions{MaxAttempts: s.maxAttempts, Logger: logger}, func(d *model.Dashboard) (bool, error) {
		var err error
		t, err = s.engine.Complete(d, req.ModuleID, req.SectionID, data)
		if err != nil {
			return false, err
		}
		return t.Changed, nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not complete section: %w", err)
	}

	for _, h := range t.Healed.Healed {
		logger.Infof("Healed dashboard: %s", h)
	}
	for _, u := range t.Unlocked {
		if u.SectionID == "" {
			logger.Infof("Module unlocked: %s", u.ModuleID)
			continue
		}
		logger.Infof("Section unlocked: %s/%s", u.ModuleID, u.SectionID)
	}
	if t.ModuleCompleted {
		logger.Infof("Module completed: %s", req.ModuleID)
	}
	for _, id := range append(t.Healed.Achieved, t.Achieved...) {
		logger.Infof("Milestone achieved: %s", id)
	}

	return t, nil
}
