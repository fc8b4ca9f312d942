package repair

import (
	"context"
	"fmt"

	"github.com/slok/intake/internal/log"
	"github.com/slok/intake/internal/model"
	"github.com/slok/intake/internal/progress"
	"github.com/slok/intake/internal/storage"
)

// ServiceConfig is the configuration for the repair service.
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Repair"})

	return nil
}

// Service heals the unlock drift of stored dashboards.
type Service struct {
	engine      *progress.Engine
	repo        storage.Repository
	maxAttempts int
	logger      log.Logger
}

// NewService creates a new repair service.
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

// Request represents the repair request parameters.
type Request struct {
	UserID string
}

// Response is the result of a repair.
type Response struct {
	// Changed is true when the dashboard was rewritten.
	Changed  bool
	Healed   []string
	Achieved []string
	// Dashboard is the dashboard as it is stored after the repair.
	Dashboard *model.Dashboard
}

// Run reconciles the stored dashboard of the user and stores it when something was healed.
// A healthy dashboard is not written.
func (s *Service) Run(ctx context.Context, req Request) (*Response, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("user id is required: %w", model.ErrNotValid)
	}
	logger := s.logger.WithValues(log.Kv{"user": req.UserID})

	var report progress.Report
	d, err := storage.Mutate(ctx, s.repo, req.UserID, storage.MutateOptions{MaxAttempts: s.maxAttempts, Logger: logger}, func(d *model.Dashboard) (bool, error) {
		report = s.engine.Reconcile(d)
		return report.Changed, nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not repair dashboard: %w", err)
	}

	for _, h := range report.Healed {
		logger.Infof("Healed dashboard: %s", h)
	}
	for _, id := range report.Achieved {
		logger.Infof("Milestone achieved: %s", id)
	}
	if !report.Changed {
		logger.Debugf("Dashboard is healthy")
	}

	return &Response{
		Changed:   report.Changed,
		Healed:    report.Healed,
		Achieved:  report.Achieved,
		Dashboard: d,
	}, nil
}
