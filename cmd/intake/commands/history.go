package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/intake/internal/app/edithistory"
	"github.com/slok/intake/internal/app/section"
)

// NewHistoryCommand returns the history parent command.
func NewHistoryCommand(app *kingpin.Application) *kingpin.CmdClause {
	return app.Command("history", "Manage the edit history of sections.")
}

type HistoryAddCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	moduleID      string
	sectionID     string
	field         string
	previousValue string
	newValue      string
}

// NewHistoryAddCommand returns the history add command.
func NewHistoryAddCommand(rootCmd *RootCommand, historyCmd *kingpin.CmdClause) *HistoryAddCommand {
	c := &HistoryAddCommand{rootCmd: rootCmd}

	c.Cmd = historyCmd.Command("add", "Record an edit made on a section field.")
	c.Cmd.Arg("module", "Module ID.").Required().StringVar(&c.moduleID)
	c.Cmd.Arg("section", "Section ID.").Required().StringVar(&c.sectionID)
	c.Cmd.Arg("field", "Edited field.").Required().StringVar(&c.field)
	c.Cmd.Flag("previous", "Previous field value as JSON.").Default("null").StringVar(&c.previousValue)
	c.Cmd.Flag("new", "New field value as JSON.").Required().StringVar(&c.newValue)

	return c
}

func (c HistoryAddCommand) Name() string { return c.Cmd.FullCommand() }

func (c HistoryAddCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	previous, err := readJSON(c.previousValue, "", nil)
	if err != nil {
		return fmt.Errorf("invalid previous value: %w", err)
	}
	next, err := readJSON(c.newValue, "", nil)
	if err != nil {
		return fmt.Errorf("invalid new value: %w", err)
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

	svc, err := edithistory.NewService(edithistory.ServiceConfig{
		Engine:      engine,
		Repository:  repo,
		MaxAttempts: c.rootCmd.MaxAttempts,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	err = svc.Run(ctx, edithistory.Request{
		UserID:        c.rootCmd.UserID,
		ModuleID:      c.moduleID,
		SectionID:     c.sectionID,
		Field:         c.field,
		PreviousValue: previous,
		NewValue:      next,
	})
	if err != nil {
		return fmt.Errorf("could not add edit history: %w", err)
	}

	logger.Infof("Edit on %s/%s field %q recorded", c.moduleID, c.sectionID, c.field)

	return nil
}

type HistoryListCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	moduleID  string
	sectionID string
	format    string
}

// NewHistoryListCommand returns the history list command.
func NewHistoryListCommand(rootCmd *RootCommand, historyCmd *kingpin.CmdClause) *HistoryListCommand {
	c := &HistoryListCommand{rootCmd: rootCmd}

	c.Cmd = historyCmd.Command("list", "List the edit history of a section.").Alias("ls")
	c.Cmd.Arg("module", "Module ID.").Required().StringVar(&c.moduleID)
	c.Cmd.Arg("section", "Section ID.").Required().StringVar(&c.sectionID)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c HistoryListCommand) Name() string { return c.Cmd.FullCommand() }

func (c HistoryListCommand) Run(ctx context.Context) error {
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

	svc, err := section.NewService(section.ServiceConfig{
		Engine:     engine,
		Repository: repo,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	s, err := svc.Run(ctx, section.Request{
		UserID:    c.rootCmd.UserID,
		ModuleID:  c.moduleID,
		SectionID: c.sectionID,
	})
	if err != nil {
		return fmt.Errorf("could not get section: %w", err)
	}

	p := newPrinter(c.format, c.rootCmd.Stdout)
	if len(s.Metadata.EditHistory) == 0 && c.format != "json" {
		return p.PrintMessage("No edits recorded")
	}

	if err := p.PrintEditHistory(*s); err != nil {
		return fmt.Errorf("could not print edit history: %w", err)
	}

	return nil
}
