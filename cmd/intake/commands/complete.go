package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/intake/internal/app/sectioncomplete"
)

type CompleteCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	moduleID  string
	sectionID string
	data      string
	dataFile  string
	format    string
}

// NewCompleteCommand returns the complete command.
func NewCompleteCommand(rootCmd *RootCommand, app *kingpin.Application) *CompleteCommand {
	c := &CompleteCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("complete", "Complete a section, unlocking what comes next.")
	c.Cmd.Arg("module", "Module ID.").Required().StringVar(&c.moduleID)
	c.Cmd.Arg("section", "Section ID.").Required().StringVar(&c.sectionID)
	c.Cmd.Flag("data", "Final section data as JSON, the stored data is kept when not set.").StringVar(&c.data)
	c.Cmd.Flag("data-file", "File with the final section data as JSON, '-' reads stdin.").StringVar(&c.dataFile)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c CompleteCommand) Name() string { return c.Cmd.FullCommand() }

func (c CompleteCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	data, err := readJSON(c.data, c.dataFile, c.rootCmd.Stdin)
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

	svc, err := sectioncomplete.NewService(sectioncomplete.ServiceConfig{
		Engine:      engine,
		Repository:  repo,
		MaxAttempts: c.rootCmd.MaxAttempts,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	tr, err := svc.Run(ctx, sectioncomplete.Request{
		UserID:    c.rootCmd.UserID,
		ModuleID:  c.moduleID,
		SectionID: c.sectionID,
		Data:      data,
	})
	if err != nil {
		return fmt.Errorf("could not complete section: %w", err)
	}

	if err := newPrinter(c.format, c.rootCmd.Stdout).PrintTransition(*tr); err != nil {
		return fmt.Errorf("could not print transition: %w", err)
	}

	return nil
}
