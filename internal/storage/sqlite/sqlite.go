package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/slok/intake/internal/log"
	"github.com/slok/intake/internal/model"
	"github.com/slok/intake/internal/storage/sqlite/migrations"
)

// RepositoryConfig is the configuration for the SQLite repository.
type RepositoryConfig struct {
	DBPath string
	Logger log.Logger
	// BusyTimeout is how long a write waits for the database lock, defaults to 5s.
	BusyTimeout time.Duration
}

func (c *RepositoryConfig) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLite"})

	if c.BusyTimeout <= 0 {
		c.BusyTimeout = 5 * time.Second
	}
	return nil
}

// Repository is a SQLite implementation of storage.Repository.
// Dashboards are stored as JSON documents, one row per user.
type Repository struct {
	db     *sql.DB
	logger log.Logger
}

// NewRepository creates a new SQLite repository.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)", cfg.DBPath, cfg.BusyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	migrator, err := migrations.NewMigrator(db, cfg.Logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create migrator: %w", err)
	}
	if err := migrator.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	cfg.Logger.Debugf("SQLite repository initialized at %s", cfg.DBPath)

	return &Repository{db: db, logger: cfg.Logger}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error { return r.db.Close() }

// CreateDashboard stores a new dashboard.
func (r *Repository) CreateDashboard(ctx context.Context, d model.Dashboard) error {
	doc, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("could not marshal dashboard: %w", err)
	}

	query := `
		INSERT INTO dashboards (id, user_id, revision, document, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		ulid.Make().String(),
		d.UserID,
		d.Revision,
		string(doc),
		d.CreatedAt.Unix(),
		d.LastUpdatedAt.Unix(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: dashboards.") {
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
		doc      string
	)
	err := r.db.QueryRowContext(ctx, `SELECT revision, document FROM dashboards WHERE user_id = ?`, userID).Scan(&revision, &doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("dashboard of %s: %w", userID, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query dashboard: %w", err)
	}

	d, err := model.DecodeDashboard([]byte(doc))
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
		UPDATE dashboards
		SET
			revision = revision + 1,
			document = ?,
			updated_at = ?
		WHERE user_id = ? AND revision = ?
	`

	result, err := r.db.ExecContext(ctx, query, string(doc), d.LastUpdatedAt.Unix(), d.UserID, d.Revision)
	if err != nil {
		return fmt.Errorf("could not update dashboard: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rows == 0 {
		return r.missingOrConflict(ctx, d)
	}

	r.logger.Debugf("Updated dashboard in repository: %s (revision %d)", d.UserID, d.Revision+1)
	return nil
}

func (r *Repository) missingOrConflict(ctx context.Context, d model.Dashboard) error {
	var revision int64
	err := r.db.QueryRowContext(ctx, `SELECT revision FROM dashboards WHERE user_id = ?`, d.UserID).Scan(&revision)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("dashboard of %s: %w", d.UserID, model.ErrNotFound)
		}
		return fmt.Errorf("could not query dashboard: %w", err)
	}

	return fmt.Errorf("dashboard of %s at revision %d, got %d: %w", d.UserID, revision, d.Revision, model.ErrConflict)
}
