package conventions

import "path/filepath"

const (
	// DefaultDataDir is the default intake data directory name (relative to home).
	DefaultDataDir = ".intake"
	// DBFile is the SQLite database filename inside the data directory.
	DBFile = "intake.db"
	// EnvPrefix is the prefix of the environment variables the CLI flags are read from.
	EnvPrefix = "INTAKE"
)

// DefaultDBPath returns the SQLite database path for a home directory.
func DefaultDBPath(home string) string {
	return filepath.Join(home, DefaultDataDir, DBFile)
}
