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
	Register(&WhoamiCmd{})
}

// WhoamiCmd prints the authenticated profile.
type WhoamiCmd struct {
	refresh bool
}

func (c *WhoamiCmd) Name() string      { return "whoami" }
func (c *WhoamiCmd) Aliases() []string { return []string{"profile"} }
func (c *WhoamiCmd) Synopsis() string  { return "Show the signed-in profile" }
func (c *WhoamiCmd) Usage() string     { return "taskdeck whoami [--refresh]" }
func (c *WhoamiCmd) NeedsAuth() bool   { return true }

func (c *WhoamiCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.refresh, "refresh", false, "")
}

func (c *WhoamiCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	user := a.Session.User()
	if c.refresh || user == nil {
		fetched, err := a.Session.FetchProfile(ctx)
		if err != nil {
			return reportErr(errOut, a, err)
		}
		user = fetched
	}

	output.FormatUser(out, *user)
	if !a.Session.Authenticated() {
		fmt.Fprintln(errOut, "warning: no access token stored; run: taskdeck login")
	}
	return exitcode.Success
}
