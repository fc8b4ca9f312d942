package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/intake/internal/app/section"
)

type SectionCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	moduleID  string
	sectionID string
	format    string
}

// NewSectionCommand returns the section command.
func NewSectionCommand(rootCmd *RootCommand, app *kingpin.Application) *SectionCommand {
	c := &SectionCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("section", "Show a section and its data.")
	c.Cmd.Arg("module", "Module ID.").Required().StringVar(&c.moduleID)
	c.Cmd.Arg("section", "Section ID.").Required().StringVar(&c.sectionID)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c SectionCommand) Name() string { return c.Cmd.FullCommand() }

func (c SectionCommand) Run(ctx context.Context) error {
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

	if err := newPrinter(c.format, c.rootCmd.Stdout).PrintSection(*s); err != nil {
		return fmt.Errorf("could not print section: %w", err)
	}

	return nil
}
