package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"

	"taskdeck/internal/app"
	"taskdeck/internal/config"
	"taskdeck/internal/exitcode"
)

func init() {
	Register(&MoveCmd{})
}

// MoveCmd reorders a task between 1-based list positions. This is the one
// optimistic operation: the local move happens before the server confirms,
// and a rejection is reconciled by refetching.
type MoveCmd struct{}

func (c *MoveCmd) Name() string      { return "move" }
func (c *MoveCmd) Aliases() []string { return []string{"mv"} }
func (c *MoveCmd) Synopsis() string  { return "Move a task to a new position" }
func (c *MoveCmd) Usage() string     { return "taskdeck move <from> <to>" }
func (c *MoveCmd) NeedsAuth() bool   { return true }

func (c *MoveCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *MoveCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	if len(args) != 2 {
		fmt.Fprintln(errOut, "error: from and to positions required")
		return exitcode.UserError
	}

	from, err1 := strconv.Atoi(args[0])
	to, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil || from < 1 || to < 1 {
		fmt.Fprintf(errOut, "error: invalid positions: %s %s\n", args[0], args[1])
		return exitcode.UserError
	}

	// Positions refer to the list as the server currently orders it.
	if err := a.Tasks.Fetch(ctx); err != nil {
		return reportErr(errOut, a, err)
	}

	if err := a.Tasks.Reorder(ctx, from-1, to-1); err != nil {
		return reportLookupErr(errOut, a, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
