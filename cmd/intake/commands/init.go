package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/intake/internal/app/initialize"
)

type InitCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	format string
}

// NewInitCommand returns the init command.
func NewInitCommand(rootCmd *RootCommand, app *kingpin.Application) *InitCommand {
	c := &InitCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("init", "Create the user dashboard from the template, or repair it when it already exists.")
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c InitCommand) Name() string { return c.Cmd.FullCommand() }

func (c InitCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	template, err := c.rootCmd.Template(ctx)
	if err != nil {
		return err
	}

	engine, err := c.rootCmd.Engine(ctx)
	if err != nil {
		return err
	}

	repo, closeRepo, err := c.rootCmd.Repository(ctx)
	if err != nil {
		return err
	}
	defer closeRepo()

	svc, err := initialize.NewService(initialize.ServiceConfig{
		Engine:      engine,
		Repository:  repo,
		Template:    template,
		MaxAttempts: c.rootCmd.MaxAttempts,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	resp, err := svc.Run(ctx, initialize.Request{UserID: c.rootCmd.UserID})
	if err != nil {
		return fmt.Errorf("could not initialize dashboard: %w", err)
	}

	p := newPrinter(c.format, c.rootCmd.Stdout)
	if resp.AlreadyExists && c.format != "json" {
		if err := p.PrintHealed(resp.Healed); err != nil {
			return fmt.Errorf("could not print healed drift: %w", err)
		}
	}

	if err := p.PrintDashboard(*resp.Dashboard); err != nil {
		return fmt.Errorf("could not print dashboard: %w", err)
	}

	return nil
}
