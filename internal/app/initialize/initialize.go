package initialize

import (
	"context"
	"errors"
	"fmt"

	"github.com/slok/intake/internal/app/repair"
	"github.com/slok/intake/internal/log"
	"github.com/slok/intake/internal/model"
	"github.com/slok/intake/internal/progress"
	"github.com/slok/intake/internal/storage"
)

// ServiceConfig is the configuration for the initialize service.
type ServiceConfig struct {
	Engine     *progress.Engine
	Repository storage.Repository
	// Template is the template new dashboards are created from.
	Template    model.Template
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

	if err := c.Template.Validate(); err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Initialize"})

	return nil
}

// Service creates the user dashboards and repairs the existing ones.
type Service struct {
	engine   *progress.Engine
	repo     storage.Repository
	template model.Template
	repair   *repair.Service
	logger   log.Logger
}

// NewService creates a new initialize service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	repairSvc, err := repair.NewService(repair.ServiceConfig{
		Engine:      cfg.Engine,
		Repository:  cfg.Repository,
		MaxAttempts: cfg.MaxAttempts,
		Logger:      cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create repair service: %w", err)
	}

	return &Service{
		engine:   cfg.Engine,
		repo:     cfg.Repository,
		template: cfg.Template,
		repair:   repairSvc,
		logger:   cfg.Logger,
	}, nil
}

// Request represents the initialize request parameters.
type Request struct {
	UserID string
}

// Response is the result of initializing a dashboard.
type Response struct {
	AlreadyExists bool
	// Healed is the drift fixed on an existing dashboard.
	Healed    []string
	Dashboard *model.Dashboard
}

// Run creates the dashboard of the user from the template when missing. When the
// dashboard already exists it runs the repair pass on it instead.
func (s *Service) Run(ctx context.Context, req Request) (*Response, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("user id is required: %w", model.ErrNotValid)
	}
	logger := s.logger.WithValues(log.Kv{"user": req.UserID})

	_, err := s.repo.GetDashboard(ctx, req.UserID)
	switch {
	case err == nil:
	case errors.Is(err, model.ErrNotFound):
		d := s.engine.NewDashboard(req.UserID, s.template)
		err := s.repo.CreateDashboard(ctx, d)
		if err == nil {
			logger.Infof("Dashboard created with %d modules", len(d.Modules))
			return &Response{Dashboard: &d}, nil
		}
		// Created by someone else in between, it's an existing dashboard now.
		if !errors.Is(err, model.ErrAlreadyExists) {
			return nil, fmt.Errorf("could not create dashboard: %w", err)
		}
	default:
		return nil, fmt.Errorf("could not get dashboard: %w", err)
	}

	res, err := s.repair.Run(ctx, repair.Request{UserID: req.UserID})
	if err != nil {
		return nil, err
	}

	return &Response{
		AlreadyExists: true,
		Healed:        res.Healed,
		Dashboard:     res.Dashboard,
	}, nil
}
