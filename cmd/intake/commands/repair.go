package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/intake/internal/app/repair"
)

type RepairCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	format string
}

// NewRepairCommand returns the repair command.
func NewRepairCommand(rootCmd *RootCommand, app *kingpin.Application) *RepairCommand {
	c := &RepairCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("repair", "Heal the unlock drift of the user dashboard.")
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c RepairCommand) Name() string { return c.Cmd.FullCommand() }

func (c RepairCommand) Run(ctx context.Context) error {
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

	svc, err := repair.NewService(repair.ServiceConfig{
		Engine:      engine,
		Repository:  repo,
		MaxAttempts: c.rootCmd.MaxAttempts,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	resp, err := svc.Run(ctx, repair.Request{UserID: c.rootCmd.UserID})
	if err != nil {
		return fmt.Errorf("could not repair dashboard: %w", err)
	}

	if err := newPrinter(c.format, c.rootCmd.Stdout).PrintHealed(resp.Healed); err != nil {
		return fmt.Errorf("could not print healed drift: %w", err)
	}

	return nil
}
