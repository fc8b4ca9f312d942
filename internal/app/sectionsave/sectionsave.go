package sectionsave

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/slok/intake/internal/log"
	"github.com/slok/intake/internal/model"
	"github.com/slok/intake/internal/progress"
	"github.com/slok/intake/internal/storage"
)

// ServiceConfig is the configuration for the section save service.
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.SectionSave"})

	return nil
}

// Service saves section data.
type Service struct {
	engine      *progress.Engine
	repo        storage.Repository
	maxAttempts int
	logger      log.Logger
}

// NewService creates a new section save service.
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

// Request represents the section save request parameters.
type Request struct {
	UserID    string
	ModuleID  string
	SectionID string
	// Data is opaque JSON, it replaces the stored data wholesale. JSON null clears it.
	Data json.RawMessage
}

// Run replaces the section data and bumps its version, whatever the section status is.
func (s *Service) Run(ctx context.Context, req Request) (*model.Section, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("user id is required: %w", model.ErrNotValid)
	}
	data, err := model.NormalizeRaw(req.Data)
	if err != nil {
		return nil, fmt.Errorf("invalid section data: %w", err)
	}
	logger := s.logger.WithValues(log.Kv{"user": req.UserID, "module": req.ModuleID, "section": req.SectionID})

	var sec *model.Section
	_, err = storage.Mutate(ctx, s.repo, req.UserID, storage.MutateOptions{MaxAttempts: s.maxAttempts, Logger: logger}, func(d *model.Dashboard) (bool, error) {
		var err error
		sec, err = s.engine.Save(d, req.ModuleID, req.SectionID, data)
		if err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not save section: %w", err)
	}

	logger.Debugf("Section data saved at version %d", sec.Version)
	return sec, nil
}
