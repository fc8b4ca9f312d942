package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"
	goredis "github.com/redis/go-redis/v9"
	"k8s.io/client-go/util/homedir"

	"github.com/slok/intake/internal/conventions"
	"github.com/slok/intake/internal/log"
	"github.com/slok/intake/internal/model"
	"github.com/slok/intake/internal/printer"
	"github.com/slok/intake/internal/progress"
	"github.com/slok/intake/internal/storage"
	storageio "github.com/slok/intake/internal/storage/io"
	"github.com/slok/intake/internal/storage/postgres"
	storageredis "github.com/slok/intake/internal/storage/redis"
	"github.com/slok/intake/internal/storage/sqlite"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"
)

const (
	// StoreSQLite is the local SQLite document store.
	StoreSQLite = "sqlite"
	// StorePostgres is the PostgreSQL document store.
	StorePostgres = "postgres"
	// StoreRedis is the Redis document store.
	StoreRedis = "redis"
)

// Command represents an application command, all commands that want to be executed
// should implement and setup on main.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// RootCommand represents the root command configuration and global configuration
// for all the commands.
type RootCommand struct {
	// Global flags.
	Debug          bool
	NoLog          bool
	NoColor        bool
	LoggerType     string
	Store          string
	DBPath         string
	PostgresDSN    string
	RedisAddr      string
	RedisDB        int
	TemplatePath   string
	UserID         string
	SequencePolicy string
	MaxAttempts    int

	// Global instances.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{}

	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-log", "Disable logger.").BoolVar(&c.NoLog)
	app.Flag("no-color", "Disable logger color.").BoolVar(&c.NoColor)
	app.Flag("logger", "Selects the logger type.").Default(LoggerTypeDefault).EnumVar(&c.LoggerType, LoggerTypeDefault, LoggerTypeJSON)

	app.Flag("store", "Document store backend.").Default(StoreSQLite).EnumVar(&c.Store, StoreSQLite, StorePostgres, StoreRedis)
	app.Flag("db-path", "Path to the SQLite database file.").Default(conventions.DefaultDBPath(homedir.HomeDir())).StringVar(&c.DBPath)
	app.Flag("postgres-dsn", "PostgreSQL connection string, used with the postgres store.").StringVar(&c.PostgresDSN)
	app.Flag("redis-addr", "Redis address, used with the redis store.").Default("localhost:6379").StringVar(&c.RedisAddr)
	app.Flag("redis-db", "Redis database number, used with the redis store.").Default("0").IntVar(&c.RedisDB)

	app.Flag("template", "Path to a YAML intake template, the embedded default template is used when empty.").StringVar(&c.TemplatePath)
	app.Flag("user", "User id that owns the dashboard.").Short('u').StringVar(&c.UserID)
	app.Flag("sequence-policy", "Which sections can be started or completed.").Default(string(progress.SequencePolicyUnlocked)).EnumVar(&c.SequencePolicy,
		string(progress.SequencePolicyNone), string(progress.SequencePolicyUnlocked), string(progress.SequencePolicyStrict))
	app.Flag("max-attempts", "Attempts of a dashboard update when it is concurrently modified.").Default("5").IntVar(&c.MaxAttempts)

	return c
}

// Template returns the intake template set by the flags.
func (r *RootCommand) Template(ctx context.Context) (model.Template, error) {
	if r.TemplatePath == "" {
		return storageio.DefaultTemplate()
	}

	repo := storageio.NewTemplateYAMLRepository(os.DirFS(filepath.Dir(r.TemplatePath)))
	t, err := repo.GetTemplate(ctx, filepath.Base(r.TemplatePath))
	if err != nil {
		return model.Template{}, fmt.Errorf("could not load template %q: %w", r.TemplatePath, err)
	}

	return t, nil
}

// Engine returns the progress engine set by the flags.
func (r *RootCommand) Engine(ctx context.Context) (*progress.Engine, error) {
	t, err := r.Template(ctx)
	if err != nil {
		return nil, err
	}

	engine, err := progress.NewEngine(progress.EngineConfig{
		Milestones: t.Milestones,
		Policy:     progress.SequencePolicy(r.SequencePolicy),
	})
	if err != nil {
		return nil, fmt.Errorf("could not create progress engine: %w", err)
	}

	return engine, nil
}

// Repository returns the document store set by the flags, the returned func releases it.
func (r *RootCommand) Repository(ctx context.Context) (storage.Repository, func() error, error) {
	switch r.Store {
	case StorePostgres:
		repo, err := postgres.NewRepository(ctx, postgres.RepositoryConfig{
			DSN:    r.PostgresDSN,
			Logger: r.Logger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("could not create postgres repository: %w", err)
		}
		return repo, repo.Close, nil

	case StoreRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr: r.RedisAddr,
			DB:   r.RedisDB,
		})
		repo, err := storageredis.NewRepository(ctx, storageredis.RepositoryConfig{
			Client: client,
			Logger: r.Logger,
		})
		if err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("could not create redis repository: %w", err)
		}
		return repo, client.Close, nil

	default:
		repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
			DBPath: r.DBPath,
			Logger: r.Logger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("could not create sqlite repository: %w", err)
		}
		return repo, repo.Close, nil
	}
}

func newPrinter(format string, w io.Writer) printer.Printer {
	switch format {
	case "json":
		return printer.NewJSONPrinter(w)
	default: // table
		return printer.NewTablePrinter(w)
	}
}

// readJSON returns the JSON document from the inline value or from the file, "-" reads stdin.
// Nothing set returns nil.
func readJSON(inline, file string, stdin io.Reader) (json.RawMessage, error) {
	if inline != "" && file != "" {
		return nil, fmt.Errorf("inline data and data file are mutually exclusive: %w", model.ErrNotValid)
	}

	var data []byte
	switch {
	case inline != "":
		data = []byte(inline)
	case file == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("could not read stdin: %w", err)
		}
		data = b
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("could not read data file: %w", err)
		}
		data = b
	default:
		return nil, nil
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("data is not valid JSON: %w", model.ErrNotValid)
	}

	return json.RawMessage(data), nil
}
