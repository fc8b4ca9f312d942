package state

import (
	"context"
	"fmt"

	"github.com/slok/intake/internal/log"
	"github.com/slok/intake/internal/model"
	"github.com/slok/intake/internal/progress"
	"github.com/slok/intake/internal/storage"
)

// ServiceConfig is the configuration for the state service.
type ServiceConfig struct {
	Engine     *progress.Engine
	Repository storage.Repository
	Logger     log.Logger
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.State"})

	return nil
}

// Service returns the dashboard state of users.
type Service struct {
	engine *progress.Engine
	repo   storage.Repository
	logger log.Logger
}

// NewService creates a new state service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		engine: cfg.Engine,
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// Request represents the state request parameters.
type Request struct {
	UserID string
}

// Run returns the reconciled dashboard of the user, the stored dashboard is not modified.
func (s *Service) Run(ctx context.Context, req Request) (*model.Dashboard, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("user id is required: %w", model.ErrNotValid)
	}

	d, err := s.repo.GetDashboard(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("could not get dashboard: %w", err)
	}

	if r := s.engine.View(d); r.Changed {
		s.logger.WithValues(log.Kv{"user": req.UserID}).Debugf("Stored dashboard needs a repair: %v", r.Healed)
	}

	return d, nil
}
