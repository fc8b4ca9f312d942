package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/intake/internal/app/sectionsave"
	"github.com/slok/intake/internal/model"
)

type SaveCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	moduleID  string
	sectionID string
	data      string
	dataFile  string
	format    string
}

// NewSaveCommand returns the save command.
func NewSaveCommand(rootCmd *RootCommand, app *kingpin.Application) *SaveCommand {
	c := &SaveCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("save", "Save the section data without changing its status.")
	c.Cmd.Arg("module", "Module ID.").Required().StringVar(&c.moduleID)
	c.Cmd.Arg("section", "Section ID.").Required().StringVar(&c.sectionID)
	c.Cmd.Flag("data", "Section data as JSON.").StringVar(&c.data)
	c.Cmd.Flag("data-file", "File with the section data as JSON, '-' reads stdin.").StringVar(&c.dataFile)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c SaveCommand) Name() string { return c.Cmd.FullCommand() }

func (c SaveCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	data, err := readJSON(c.data, c.dataFile, c.rootCmd.Stdin)
	if err != nil {
		return err
	}
	if data == nil {
		return fmt.Errorf("data or data file is required: %w", model.ErrNotValid)
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

	svc, err := sectionsave.NewService(sectionsave.ServiceConfig{
		Engine:      engine,
		Repository:  repo,
		MaxAttempts: c.rootCmd.MaxAttempts,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	s, err := svc.Run(ctx, sectionsave.Request{
		UserID:    c.rootCmd.UserID,
		ModuleID:  c.moduleID,
		SectionID: c.sectionID,
		Data:      data,
	})
	if err != nil {
		return fmt.Errorf("could not save section: %w", err)
	}

	if err := newPrinter(c.format, c.rootCmd.Stdout).PrintSection(*s); err != nil {
		return fmt.Errorf("could not print section: %w", err)
	}

	return nil
}
