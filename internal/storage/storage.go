package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/slok/intake/internal/log"
	"github.com/slok/intake/internal/model"
)

//go:generate mockery --case underscore --output storagemock --outpkg storagemock --name Repository

// Repository is the interface for dashboard document persistence.
//
// Every stored dashboard has a store managed revision, UpdateDashboard only succeeds
// when the stored revision is the same as the received one (compare and swap) and
// stores the dashboard with the next revision.
type Repository interface {
	// GetDashboard returns model.ErrNotFound when the user has no dashboard.
	GetDashboard(ctx context.Context, userID string) (*model.Dashboard, error)
	// CreateDashboard returns model.ErrAlreadyExists when the user already has a dashboard.
	CreateDashboard(ctx context.Context, d model.Dashboard) error
	// UpdateDashboard returns model.ErrConflict when the revision doesn't match
	// and model.ErrNotFound when the user has no dashboard.
	UpdateDashboard(ctx context.Context, d model.Dashboard) error
}

// MutateFunc changes the dashboard in place and returns true when it needs to be stored.
type MutateFunc func(d *model.Dashboard) (changed bool, err error)

// MutateOptions are the options of Mutate.
type MutateOptions struct {
	// MaxAttempts is the number of load and write cycles before giving up on conflicts.
	// Defaults to 5.
	MaxAttempts int
	Logger      log.Logger
}

func (o *MutateOptions) defaults() {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 5
	}
	if o.Logger == nil {
		o.Logger = log.Noop
	}
}

// Mutate loads the user dashboard, applies fn and stores the result only if the
// dashboard was not changed by someone else in between. On a revision conflict the
// whole cycle is retried from a fresh load, any other error is returned as it is.
//
// Returns the dashboard as it is stored after the mutation.
func Mutate(ctx context.Context, repo Repository, userID string, opts MutateOptions, fn MutateFunc) (*model.Dashboard, error) {
	opts.defaults()
	logger := opts.Logger.WithValues(log.Kv{"user": userID})

	for attempt := 1; ; attempt++ {
		d, err := repo.GetDashboard(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("could not get dashboard: %w", err)
		}

		changed, err := fn(d)
		if err != nil {
			return nil, err
		}
		if !changed {
			return d, nil
		}

		err = repo.UpdateDashboard(ctx, *d)
		if err == nil {
			d.Revision++
			return d, nil
		}

		if !errors.Is(err, model.ErrConflict) {
			return nil, fmt.Errorf("could not update dashboard: %w", err)
		}
		if attempt >= opts.MaxAttempts {
			return nil, fmt.Errorf("dashboard kept changing after %d attempts: %w", attempt, err)
		}

		logger.Debugf("Dashboard revision %d conflicted, retrying (attempt %d)", d.Revision, attempt)

		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
}
