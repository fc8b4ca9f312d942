package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/slok/intake/internal/log"
	"github.com/slok/intake/internal/model"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

// Repository is an in-memory implementation of storage.Repository.
type Repository struct {
	dashboards map[string]model.Dashboard
	mu         sync.RWMutex
	logger     log.Logger
}

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{
		dashboards: make(map[string]model.Dashboard),
		logger:     cfg.Logger,
	}, nil
}

// CreateDashboard stores a new dashboard.
func (r *Repository) CreateDashboard(ctx context.Context, d model.Dashboard) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.dashboards[d.UserID]; ok {
		return fmt.Errorf("dashboard of %s: %w", d.UserID, model.ErrAlreadyExists)
	}

	r.dashboards[d.UserID] = d.Copy()
	r.logger.Debugf("Created dashboard in repository: %s", d.UserID)

	return nil
}

// GetDashboard retrieves the dashboard of a user.
func (r *Repository) GetDashboard(ctx context.Context, userID string) (*model.Dashboard, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.dashboards[userID]
	if !ok {
		return nil, fmt.Errorf("dashboard of %s: %w", userID, model.ErrNotFound)
	}

	c := d.Copy()
	return &c, nil
}

// UpdateDashboard replaces the dashboard when the stored revision is the same as d.Revision.
func (r *Repository) UpdateDashboard(ctx context.Context, d model.Dashboard) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.dashboards[d.UserID]
	if !ok {
		return fmt.Errorf("dashboard of %s: %w", d.UserID, model.ErrNotFound)
	}
	if stored.Revision != d.Revision {
		return fmt.Errorf("dashboard of %s at revision %d, got %d: %w", d.UserID, stored.Revision, d.Revision, model.ErrConflict)
	}

	c := d.Copy()
	c.Revision++
	r.dashboards[d.UserID] = c
	r.logger.Debugf("Updated dashboard in repository: %s (revision %d)", d.UserID, c.Revision)

	return nil
}
