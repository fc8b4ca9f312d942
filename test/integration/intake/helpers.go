package intake

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/slok/intake/test/integration/testutils"
)

// Config holds integration test configuration loaded from environment variables.
type Config struct {
	Binary string
}

func (c *Config) defaults() error {
	// go test changes the CWD to the test package directory, relative paths
	// would point to the wrong place.
	if !filepath.IsAbs(c.Binary) {
		return fmt.Errorf("INTAKE_INTEGRATION_BINARY must be an absolute path, got %q", c.Binary)
	}
	if _, err := os.Stat(c.Binary); err != nil {
		return fmt.Errorf("intake binary not found at %q: %w", c.Binary, err)
	}

	return nil
}

// NewConfig loads integration test configuration from environment variables.
// If the binary is not set or the config is invalid, the test is skipped.
func NewConfig(t *testing.T) Config {
	t.Helper()

	const envBinary = "INTAKE_INTEGRATION_BINARY"

	binary := os.Getenv(envBinary)
	if binary == "" {
		t.Skipf("Skipping integration test: %s is not set", envBinary)
	}

	c := Config{Binary: binary}
	if err := c.defaults(); err != nil {
		t.Skipf("Skipping due to invalid config: %s", err)
	}

	return c
}

// RunIntakeCmd runs an intake command for a user against a specific db path.
// It suppresses logging output for cleaner test output.
func RunIntakeCmd(ctx context.Context, config Config, dbPath, userID string, args ...string) (stdout, stderr []byte, err error) {
	fullArgs := append([]string{"--no-log", "--store", "sqlite", "--db-path", dbPath, "--user", userID}, args...)
	return testutils.RunIntakeArgs(ctx, nil, config.Binary, fullArgs, true)
}

// RunInit initializes the user dashboard.
func RunInit(ctx context.Context, config Config, dbPath, userID string) (stdout, stderr []byte, err error) {
	return RunIntakeCmd(ctx, config, dbPath, userID, "init", "--format", "json")
}

// RunState gets the user dashboard in JSON format.
func RunState(ctx context.Context, config Config, dbPath, userID string) (stdout, stderr []byte, err error) {
	return RunIntakeCmd(ctx, config, dbPath, userID, "state", "--format", "json")
}

// RunSection gets a section in JSON format.
func RunSection(ctx context.Context, config Config, dbPath, userID, moduleID, sectionID string) (stdout, stderr []byte, err error) {
	return RunIntakeCmd(ctx, config, dbPath, userID, "section", moduleID, sectionID, "--format", "json")
}

// RunStart starts a section.
func RunStart(ctx context.Context, config Config, dbPath, userID, moduleID, sectionID string) (stdout, stderr []byte, err error) {
	return RunIntakeCmd(ctx, config, dbPath, userID, "start", moduleID, sectionID, "--format", "json")
}

// RunComplete completes a section with optional JSON data.
func RunComplete(ctx context.Context, config Config, dbPath, userID, moduleID, sectionID, data string) (stdout, stderr []byte, err error) {
	args := []string{"complete", moduleID, sectionID, "--format", "json"}
	if data != "" {
		args = append(args, "--data", data)
	}
	return RunIntakeCmd(ctx, config, dbPath, userID, args...)
}

// RunSave saves section data.
func RunSave(ctx context.Context, config Config, dbPath, userID, moduleID, sectionID, data string) (stdout, stderr []byte, err error) {
	return RunIntakeCmd(ctx, config, dbPath, userID, "save", moduleID, sectionID, "--data", data, "--format", "json")
}

// RunRepair repairs the user dashboard.
func RunRepair(ctx context.Context, config Config, dbPath, userID string) (stdout, stderr []byte, err error) {
	return RunIntakeCmd(ctx, config, dbPath, userID, "repair", "--format", "json")
}
