package doctor

import (
	"context"
	"errors"
	"fmt"

	"github.com/slok/intake/internal/log"
	"github.com/slok/intake/internal/model"
	"github.com/slok/intake/internal/progress"
	"github.com/slok/intake/internal/storage"
)

const probeUserID = "intake-doctor-probe"

// ServiceConfig is the configuration for the doctor service.
type ServiceConfig struct {
	Engine     *progress.Engine
	Repository storage.Repository
	Template   model.Template
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Doctor"})

	return nil
}

// Service runs health checks on the template, the store and optionally a user dashboard.
type Service struct {
	engine   *progress.Engine
	repo     storage.Repository
	template model.Template
	logger   log.Logger
}

// NewService creates a new doctor service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		engine:   cfg.Engine,
		repo:     cfg.Repository,
		template: cfg.Template,
		logger:   cfg.Logger,
	}, nil
}

// Request represents the doctor request parameters.
type Request struct {
	// UserID is the dashboard to check, the dashboard check is skipped when empty.
	UserID string
}

// Run runs the checks. Failed checks are results, not errors. Nothing is written.
func (s *Service) Run(ctx context.Context, req Request) []model.CheckResult {
	results := []model.CheckResult{
		s.checkTemplate(),
		s.checkStore(ctx),
	}
	if req.UserID != "" {
		results = append(results, s.checkDashboard(ctx, req.UserID))
	}

	sum := model.SummarizeChecks(results)
	s.logger.Debugf("Health checks finished: %d ok, %d warnings, %d errors", sum.OK, sum.Warnings, sum.Errors)

	return results
}

func (s *Service) checkTemplate() model.CheckResult {
	if err := s.template.Validate(); err != nil {
		return model.CheckResult{ID: "template", Status: model.CheckStatusError, Message: err.Error()}
	}

	sections := 0
	for _, m := range s.template.Modules {
		sections += len(m.Sections)
	}

	return model.CheckResult{
		ID:      "template",
		Status:  model.CheckStatusOK,
		Message: fmt.Sprintf("%d modules, %d sections, %d milestones", len(s.template.Modules), sections, len(s.template.Milestones)),
	}
}

func (s *Service) checkStore(ctx context.Context) model.CheckResult {
	_, err := s.repo.GetDashboard(ctx, probeUserID)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return model.CheckResult{ID: "store", Status: model.CheckStatusError, Message: err.Error()}
	}

	return model.CheckResult{ID: "store", Status: model.CheckStatusOK, Message: "reachable"}
}

func (s *Service) checkDashboard(ctx context.Context, userID string) model.CheckResult {
	d, err := s.repo.GetDashboard(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.CheckResult{ID: "dashboard", Status: model.CheckStatusWarning, Message: "no dashboard, run init"}
		}
		return model.CheckResult{ID: "dashboard", Status: model.CheckStatusError, Message: err.Error()}
	}

	report := s.engine.View(d)
	if report.Changed {
		return model.CheckResult{
			ID:      "dashboard",
			Status:  model.CheckStatusWarning,
			Message: fmt.Sprintf("%d drift issues and %d pending milestones, run repair", len(report.Healed), len(report.Achieved)),
		}
	}

	return model.CheckResult{ID: "dashboard", Status: model.CheckStatusOK, Message: "healthy"}
}
