package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/intake/internal/app/sectionstart"
)

type StartCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	moduleID  string
	sectionID string
	format    string
}

// NewStartCommand returns the start command.
func NewStartCommand(rootCmd *RootCommand, app *kingpin.Application) *StartCommand {
	c := &StartCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("start", "Start working on a section.")
	c.Cmd.Arg("module", "Module ID.").Required().StringVar(&c.moduleID)
	c.Cmd.Arg("section", "Section ID.").Required().StringVar(&c.sectionID)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c StartCommand) Name() string { return c.Cmd.FullCommand() }

func (c StartCommand) Run(ctx context.Context) error {
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

	svc, err := sectionstart.NewService(sectionstart.ServiceConfig{
		Engine:      engine,
		Repository:  repo,
		MaxAttempts: c.rootCmd.MaxAttempts,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	tr, err := svc.Run(ctx, sectionstart.Request{
		UserID:    c.rootCmd.UserID,
		ModuleID:  c.moduleID,
		SectionID: c.sectionID,
	})
	if err != nil {
		return fmt.Errorf("could not start section: %w", err)
	}

	if err := newPrinter(c.format, c.rootCmd.Stdout).PrintTransition(*tr); err != nil {
		return fmt.Errorf("could not print transition: %w", err)
	}

	return nil
}
