// Package postgres is a PostgreSQL implementation of storage.Repository.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/slok/intake/internal/log"
	"github.com/slok/intake/internal/model"
)

const uniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS intake_dashboards (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL UNIQUE,
    revision BIGINT NOT NULL DEFAULT 0,
    document JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
)`

// RepositoryConfig is the configuration for the PostgreSQL repository.
type RepositoryConfig struct {
	// DSN is the connection string, URL or key/value form.
	DSN      string
	MaxConns int32
	Logger   log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.DSN == "" {
		return fmt.Errorf("dsn is required")
	}
	if c.MaxConns <= 0 {
		c.MaxConns = 10
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Postgres"})
	return nil
}

// Repository stores dashboards as JSONB documents, one row per user.
type Repository struct {
	pool   *pgxpool.Pool
	logger log.Logger
}

// NewRepository connects to the database and creates the schema when missing.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("could not parse dsn: %w", err)
	}
	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("could not create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("could not ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("could not create schema: %w", err)
	}

	cfg.Logger.Debugf("Postgres repository initialized")

	return &Repository{pool: pool, logger: cfg.Logger}, nil
}

// Close closes the connection pool.
func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

// CreateDashboard stores a new dashboard.
func (r *Repository) CreateDashboard(ctx context.Context, d model.Dashboard) error {
	doc, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("could not marshal dashboard: %w", err)
	}

	query := `
		INSERT INTO intake_dashboards (id, user_id, revision, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = r.pool.Exec(ctx, query, ulid.Make().String(), d.UserID, d.Revision, doc, d.CreatedAt, d.LastUpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("dashboard of %s: %w", d.UserID, model.ErrAlreadyExists)
		}
		return fmt.Errorf("could not insert dashboard: %w", err)
	}

	r.logger.Debugf("Created dashboard in repository: %s", d.UserID)
	return nil
}

// GetDashboard retrieves the dashboard of a user.
func (r *Repository) GetDashboard(ctx context.Context, userID string) (*model.Dashboard, error) {
	var (
		revision int64
		doc      []byte
	)
	err := r.pool.QueryRow(ctx, `SELECT revision, document FROM intake_dashboards WHERE user_id = $1`, userID).Scan(&revision, &doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("dashboard of %s: %w", userID, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query dashboard: %w", err)
	}

	d, err := model.DecodeDashboard(doc)
	if err != nil {
		return nil, fmt.Errorf("could not unmarshal dashboard of %s: %w", userID, err)
	}
	d.Revision = revision

	return d, nil
}

// UpdateDashboard replaces the dashboard when the stored revision is the same as d.Revision.
func (r *Repository) UpdateDashboard(ctx context.Context, d model.Dashboard) error {
	doc, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("could not marshal dashboard: %w", err)
	}

	query := `
		UPDATE intake_dashboards
		SET revision = revision + 1, document = $1, updated_at = $2
		WHERE user_id = $3 AND revision = $4
	`
	tag, err := r.pool.Exec(ctx, query, doc, d.LastUpdatedAt, d.UserID, d.Revision)
	if err != nil {
		return fmt.Errorf("could not update dashboard: %w", err)
	}

	if tag.RowsAffected() == 0 {
		var revision int64
		err := r.pool.QueryRow(ctx, `SELECT revision FROM intake_dashboards WHERE user_id = $1`, d.UserID).Scan(&revision)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("dashboard of %s: %w", d.UserID, model.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("could not query dashboard: %w", err)
		}
		return fmt.Errorf("dashboard of %s at revision %d, got %d: %w", d.UserID, revision, d.Revision, model.ErrConflict)
	}

	r.logger.Debugf("Updated dashboard in repository: %s (revision %d)", d.UserID, d.Revision+1)
	return nil
}

// Truncate removes every stored dashboard.
func (r *Repository) Truncate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, `TRUNCATE intake_dashboards`); err != nil {
		return fmt.Errorf("could not truncate dashboards: %w", err)
	}
	return nil
}
