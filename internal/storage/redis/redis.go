// Package redis is a Redis implementation of storage.Repository.
//
// Every dashboard is a hash with the revision and the JSON document, writes
// use WATCH/MULTI so a concurrent change aborts the transaction.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/slok/intake/internal/log"
	"github.com/slok/intake/internal/model"
)

const (
	fieldRevision = "revision"
	fieldDocument = "document"
)

// RepositoryConfig is the configuration for the Redis repository.
type RepositoryConfig struct {
	Client redis.UniversalClient
	// KeyPrefix namespaces the dashboard keys, defaults to "intake:dashboard:".
	KeyPrefix string
	Logger    log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Client == nil {
		return fmt.Errorf("redis client is required")
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "intake:dashboard:"
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Redis"})
	return nil
}

// Repository stores dashboards in Redis hashes.
type Repository struct {
	client redis.UniversalClient
	prefix string
	logger log.Logger
}

// NewRepository creates a new Redis repository, it checks the server is reachable.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if err := cfg.Client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("could not ping redis: %w", err)
	}

	return &Repository{
		client: cfg.Client,
		prefix: cfg.KeyPrefix,
		logger: cfg.Logger,
	}, nil
}

func (r *Repository) key(userID string) string { return r.prefix + userID }

// CreateDashboard stores a new dashboard.
func (r *Repository) CreateDashboard(ctx context.Context, d model.Dashboard) error {
	doc, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("could not marshal dashboard: %w", err)
	}

	key := r.key(d.UserID)
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("could not check dashboard: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("dashboard of %s: %w", d.UserID, model.ErrAlreadyExists)
		}

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, key, fieldRevision, d.Revision, fieldDocument, doc)
			return nil
		})
		return err
	}, key)
	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return fmt.Errorf("dashboard of %s: %w", d.UserID, model.ErrAlreadyExists)
		}
		return err
	}

	r.logger.Debugf("Created dashboard in repository: %s", d.UserID)
	return nil
}

// GetDashboard retrieves the dashboard of a user.
func (r *Repository) GetDashboard(ctx context.Context, userID string) (*model.Dashboard, error) {
	fields, err := r.client.HGetAll(ctx, r.key(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("could not get dashboard: %w", err)
	}

	return decode(userID, fields)
}

// UpdateDashboard replaces the dashboard when the stored revision is the same as d.Revision.
func (r *Repository) UpdateDashboard(ctx context.Context, d model.Dashboard) error {
	doc, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("could not marshal dashboard: %w", err)
	}

	key := r.key(d.UserID)
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.HGet(ctx, key, fieldRevision).Result()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("dashboard of %s: %w", d.UserID, model.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("could not get dashboard revision: %w", err)
		}

		revision, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid revision %q: %w", raw, err)
		}
		if revision != d.Revision {
			return fmt.Errorf("dashboard of %s at revision %d, got %d: %w", d.UserID, revision, d.Revision, model.ErrConflict)
		}

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, key, fieldRevision, revision+1, fieldDocument, doc)
			return nil
		})
		return err
	}, key)
	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return fmt.Errorf("dashboard of %s changed while writing: %w", d.UserID, model.ErrConflict)
		}
		return err
	}

	r.logger.Debugf("Updated dashboard in repository: %s (revision %d)", d.UserID, d.Revision+1)
	return nil
}

func decode(userID string, fields map[string]string) (*model.Dashboard, error) {
	doc, ok := fields[fieldDocument]
	if !ok {
		return nil, fmt.Errorf("dashboard of %s: %w", userID, model.ErrNotFound)
	}

	revision, err := strconv.ParseInt(fields[fieldRevision], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid revision of %s: %w", userID, err)
	}

	d, err := model.DecodeDashboard([]byte(doc))
	if err != nil {
		return nil, fmt.Errorf("could not unmarshal dashboard of %s: %w", userID, err)
	}
	d.Revision = revision

	return d, nil
}
