package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/intake/internal/app/doctor"
	"github.com/slok/intake/internal/model"
)

type DoctorCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand
}

// NewDoctorCommand returns the doctor command.
func NewDoctorCommand(rootCmd *RootCommand, app *kingpin.Application) *DoctorCommand {
	c := &DoctorCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("doctor", "Check the template, the store and, when a user is set, its dashboard.")

	return c
}

func (c DoctorCommand) Name() string { return c.Cmd.FullCommand() }

func (c DoctorCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger
	out := c.rootCmd.Stdout

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

	svc, err := doctor.NewService(doctor.ServiceConfig{
		Engine:     engine,
		Repository: repo,
		Template:   template,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	results := svc.Run(ctx, doctor.Request{UserID: c.rootCmd.UserID})

	fmt.Fprintf(out, "Checking %s store...\n", c.rootCmd.Store)
	for _, r := range results {
		fmt.Fprintf(out, "  %s %-12s %s\n", getStatusIcon(r.Status), r.ID, r.Message)
	}

	// Summary.
	sum := model.SummarizeChecks(results)
	fmt.Fprintln(out)
	if sum.Healthy() {
		fmt.Fprintln(out, "All checks passed!")
		return nil
	}

	var summary []string
	if sum.Errors > 0 {
		summary = append(summary, fmt.Sprintf("%d error(s)", sum.Errors))
	}
	if sum.Warnings > 0 {
		summary = append(summary, fmt.Sprintf("%d warning(s)", sum.Warnings))
	}
	fmt.Fprintln(out, strings.Join(summary, ", "))

	if sum.Errors > 0 {
		return fmt.Errorf("health checks failed with %d error(s)", sum.Errors)
	}

	return nil
}

func getStatusIcon(status model.CheckStatus) string {
	switch status {
	case model.CheckStatusOK:
		return "OK"
	case model.CheckStatusWarning:
		return "!!"
	case model.CheckStatusError:
		return "XX"
	default:
		return "??"
	}
}
