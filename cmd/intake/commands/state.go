package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/intake/internal/app/state"
)

type StateCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	format string
}

// NewStateCommand returns the state command.
func NewStateCommand(rootCmd *RootCommand, app *kingpin.Application) *StateCommand {
	c := &StateCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("state", "Show the user dashboard progress.")
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c StateCommand) Name() string { return c.Cmd.FullCommand() }

func (c StateCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	engine, err := c.rootCmd.Engine(ctx)
	if err != nil {
		return err
	}

	repo, closeRepo, err := c.rootCmd.Repository(ctx)
	if err != nil {
		return err
	}
	defer closeRepo()

	svc, err := state.NewService(state.ServiceConfig{
		Engine:     engine,
		Repository: repo,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	d, err := svc.Run(ctx, state.Request{UserID: c.rootCmd.UserID})
	if err != nil {
		return fmt.Errorf("could not get dashboard state: %w", err)
	}

	if err := newPrinter(c.format, c.rootCmd.Stdout).PrintDashboard(*d); err != nil {
		return fmt.Errorf("could not print dashboard: %w", err)
	}

	return nil
}
