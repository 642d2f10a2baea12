package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskdeck/internal/app"
	"taskdeck/internal/config"
	"taskdeck/internal/exitcode"
)

func init() {
	Register(&AccountRmCmd{})
}

// AccountRmCmd deletes the account. The explicit --yes flag is the user
// confirmation the deletion contract requires.
type AccountRmCmd struct {
	yes bool
}

func (c *AccountRmCmd) Name() string      { return "account-rm" }
func (c *AccountRmCmd) Aliases() []string { return nil }
func (c *AccountRmCmd) Synopsis() string  { return "Delete the account" }
func (c *AccountRmCmd) Usage() string     { return "taskdeck account-rm --yes" }
func (c *AccountRmCmd) NeedsAuth() bool   { return true }

func (c *AccountRmCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.yes, "yes", false, "")
}

func (c *AccountRmCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	if !c.yes {
		fmt.Fprintln(errOut, "error: account deletion requires --yes")
		return exitcode.UserError
	}

	if err := a.Session.DeleteAccount(ctx); err != nil {
		return reportErr(errOut, a, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "account deleted")
	}
	return exitcode.Success
}
