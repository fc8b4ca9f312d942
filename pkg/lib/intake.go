package lib

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	goredis "github.com/redis/go-redis/v9"

	"github.com/slok/intake/internal/conventions"
	"github.com/slok/intake/internal/log"
	"github.com/slok/intake/internal/model"
	"github.com/slok/intake/internal/progress"
	"github.com/slok/intake/internal/storage"
	storageio "github.com/slok/intake/internal/storage/io"
	"github.com/slok/intake/internal/storage/memory"
	"github.com/slok/intake/internal/storage/postgres"
	storageredis "github.com/slok/intake/internal/storage/redis"
	"github.com/slok/intake/internal/storage/sqlite"
)

// StoreType identifies where dashboards are stored.
type StoreType string

const (
	// StoreSQLite stores dashboards in a SQLite database file.
	StoreSQLite StoreType = "sqlite"
	// StoreMemory stores dashboards in memory, they are lost when the client is closed.
	StoreMemory StoreType = "memory"
	// StorePostgres stores dashboards in a PostgreSQL database.
	StorePostgres StoreType = "postgres"
	// StoreRedis stores dashboards in Redis.
	StoreRedis StoreType = "redis"
)

// Config configures the SDK client.
//
// All fields are optional and have sensible defaults. At minimum, an empty
// Config{} will use ~/.intake/intake.db for storage and the default template.
type Config struct {
	// Store selects the dashboard store.
	// Default: [StoreSQLite].
	Store StoreType

	// DBPath is the SQLite database path.
	// Default: ~/.intake/intake.db.
	DBPath string

	// PostgresDSN is the PostgreSQL connection string, required by [StorePostgres].
	PostgresDSN string

	// RedisAddr is the Redis server address used by [StoreRedis].
	// Default: localhost:6379.
	RedisAddr string

	// RedisDB is the Redis database number used by [StoreRedis].
	RedisDB int

	// TemplatePath is a YAML template new dashboards are created from.
	// Default: the embedded business intake template.
	TemplatePath string

	// SequencePolicy decides which sections can be started or completed.
	// Default: [SequencePolicyUnlocked].
	SequencePolicy SequencePolicy

	// MaxAttempts is how many times an update is tried when the dashboard is
	// concurrently modified.
	// Default: 5.
	MaxAttempts int

	// Logger receives structured log output from the SDK.
	// Default: noop (silent). See the log sub-package for the interface.
	Logger log.Logger
}

func (c *Config) defaults() error {
	if c.Store == "" {
		c.Store = StoreSQLite
	}

	if c.Store == StoreSQLite && c.DBPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("could not get user home dir: %w", err)
		}
		c.DBPath = conventions.DefaultDBPath(home)
	}

	if c.Store == StorePostgres && c.PostgresDSN == "" {
		return fmt.Errorf("postgres dsn is required: %w", ErrNotValid)
	}

	if c.RedisAddr == "" {
		c.RedisAddr = "localhost:6379"
	}

	if c.SequencePolicy == "" {
		c.SequencePolicy = SequencePolicyUnlocked
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Client is the main SDK entry point for tracking intake progress programmatically.
//
// Create a Client with [New] and release its resources with [Client.Close].
// A Client is safe for concurrent use.
type Client struct {
	repo        storage.Repository
	engine      *progress.Engine
	template    model.Template
	maxAttempts int
	logger      log.Logger
	closeFn     func() error
}

// New creates a new SDK client.
//
// The caller must call [Client.Close] when done to release the database
// connection. Typically used with defer:
//
//	client, err := lib.New(ctx, lib.Config{})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	template, err := loadTemplate(ctx, cfg.TemplatePath)
	if err != nil {
		return nil, mapError(err)
	}

	engine, err := progress.NewEngine(progress.EngineConfig{
		Milestones: template.Milestones,
		Policy:     progress.SequencePolicy(cfg.SequencePolicy),
	})
	if err != nil {
		return nil, mapError(fmt.Errorf("invalid config: %w", err))
	}

	c := &Client{
		engine:      engine,
		template:    template,
		maxAttempts: cfg.MaxAttempts,
		logger:      cfg.Logger,
	}

	switch cfg.Store {
	case StoreMemory:
		repo, err := memory.NewRepository(memory.RepositoryConfig{Logger: cfg.Logger})
		if err != nil {
			return nil, fmt.Errorf("could not create repository: %w", err)
		}
		c.repo = repo
	case StoreSQLite:
		repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
			DBPath: cfg.DBPath,
			Logger: cfg.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("could not create repository: %w", err)
		}
		c.repo = repo
		c.closeFn = repo.Close
	case StorePostgres:
		repo, err := postgres.NewRepository(ctx, postgres.RepositoryConfig{
			DSN:    cfg.PostgresDSN,
			Logger: cfg.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("could not create repository: %w", err)
		}
		c.repo = repo
		c.closeFn = repo.Close
	case StoreRedis:
		client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		repo, err := storageredis.NewRepository(ctx, storageredis.RepositoryConfig{
			Client: client,
			Logger: cfg.Logger,
		})
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("could not create repository: %w", err)
		}
		c.repo = repo
		c.closeFn = client.Close
	default:
		return nil, fmt.Errorf("invalid config: unknown store %q: %w", cfg.Store, ErrNotValid)
	}

	return c, nil
}

// Close releases resources held by the client, including the database connection.
// After Close returns, the client must not be used.
func (c *Client) Close() error {
	if c.closeFn != nil {
		return c.closeFn()
	}
	return nil
}

func loadTemplate(ctx context.Context, path string) (model.Template, error) {
	if path == "" {
		return storageio.DefaultTemplate()
	}

	repo := storageio.NewTemplateYAMLRepository(os.DirFS(filepath.Dir(path)))
	t, err := repo.GetTemplate(ctx, filepath.Base(path))
	if err != nil {
		return model.Template{}, fmt.Errorf("could not load template %q: %w", path, err)
	}

	return t, nil
}
