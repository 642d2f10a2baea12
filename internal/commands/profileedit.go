package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskdeck/internal/api"
	"taskdeck/internal/app"
	"taskdeck/internal/config"
	"taskdeck/internal/exitcode"
)

func init() {
	Register(&ProfileEditCmd{})
}

// ProfileEditCmd updates profile fields through the request-confirm path.
type ProfileEditCmd struct {
	name     string
	email    string
	bio      string
	phone    string
	location string
}

func (c *ProfileEditCmd) Name() string      { return "profile-edit" }
func (c *ProfileEditCmd) Aliases() []string { return nil }
func (c *ProfileEditCmd) Synopsis() string  { return "Update profile fields" }
func (c *ProfileEditCmd) Usage() string {
	return "taskdeck profile-edit [--name <n>] [--email <e>] [--bio <b>] [--phone <p>] [--location <l>]"
}
func (c *ProfileEditCmd) NeedsAuth() bool { return true }

func (c *ProfileEditCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.name, "name", "", "")
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.bio, "bio", "", "")
	fs.StringVar(&c.phone, "phone", "", "")
	fs.StringVar(&c.location, "location", "", "")
}

func (c *ProfileEditCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	patch := api.UserPatch{}
	touched := false
	if c.name != "" {
		patch.Name = api.String(c.name)
		touched = true
	}
	if c.email != "" {
		patch.Email = api.String(c.email)
		touched = true
	}
	if c.bio != "" {
		patch.Bio = api.String(c.bio)
		touched = true
	}
	if c.phone != "" {
		patch.Phone = api.String(c.phone)
		touched = true
	}
	if c.location != "" {
		patch.Location = api.String(c.location)
		touched = true
	}
	if !touched {
		fmt.Fprintln(errOut, "error: nothing to update")
		return exitcode.UserError
	}

	if err := a.Session.UpdateProfile(ctx, patch); err != nil {
		return reportErr(errOut, a, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
