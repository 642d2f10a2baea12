package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskdeck/internal/app"
	"taskdeck/internal/config"
	"taskdeck/internal/exitcode"
	"taskdeck/internal/output"
)

func init() {
	Register(&StatsCmd{})
}

// StatsCmd prints derived counters for tasks and projects.
type StatsCmd struct{}

func (c *StatsCmd) Name() string      { return "stats" }
func (c *StatsCmd) Aliases() []string { return nil }
func (c *StatsCmd) Synopsis() string  { return "Show task and project counters" }
func (c *StatsCmd) Usage() string     { return "taskdeck stats" }
func (c *StatsCmd) NeedsAuth() bool   { return true }

func (c *StatsCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *StatsCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	if err := a.Tasks.Fetch(ctx); err != nil {
		return reportErr(errOut, a, err)
	}
	if err := a.Projects.Fetch(ctx); err != nil {
		return reportErr(errOut, a, err)
	}

	// Stats derive from the fetched collections; no further network access.
	output.FormatTaskStats(out, a.Tasks.Stats())
	fmt.Fprintln(out)
	output.FormatProjectStats(out, a.Projects.Stats())
	return exitcode.Success
}
