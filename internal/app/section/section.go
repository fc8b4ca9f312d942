package section

import (
	"context"
	"fmt"

	"github.com/slok/intake/internal/log"
	"github.com/slok/intake/internal/model"
	"github.com/slok/intake/internal/progress"
	"github.com/slok/intake/internal/storage"
)

// ServiceConfig is the configuration for the section service.
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Section"})

	return nil
}

// Service returns single sections of user dashboards.
type Service struct {
	engine *progress.Engine
	repo   storage.Repository
	logger log.Logger
}

// NewService creates a new section service.
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

// Request represents the section request parameters.
type Request struct {
	UserID    string
	ModuleID  string
	SectionID string
}

// Run returns the section of the reconciled user dashboard, the stored dashboard is not modified.
func (s *Service) Run(ctx context.Context, req Request) (*model.Section, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("user id is required: %w", model.ErrNotValid)
	}

	d, err := s.repo.GetDashboard(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("could not get dashboard: %w", err)
	}
	s.engine.View(d)

	_, m := d.Module(req.ModuleID)
	if m == nil {
		return nil, fmt.Errorf("module %s: %w", req.ModuleID, model.ErrNotFound)
	}
	_, sec := m.Section(req.SectionID)
	if sec == nil {
		return nil, fmt.Errorf("section %s/%s: %w", req.ModuleID, req.SectionID, model.ErrNotFound)
	}

	res := sec.Copy()
	return &res, nil
}
