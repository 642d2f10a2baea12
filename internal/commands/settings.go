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
	"taskdeck/internal/output"
)

func init() {
	Register(&SettingsCmd{})
}

// SettingsCmd shows settings, or updates them when flags are given.
type SettingsCmd struct {
	theme          string
	language       string
	timezone       string
	emailFrequency string
	compact        string
	emailNotif     string
	desktopNotif   string
}

func (c *SettingsCmd) Name() string      { return "settings" }
func (c *SettingsCmd) Aliases() []string { return nil }
func (c *SettingsCmd) Synopsis() string  { return "Show or update settings" }
func (c *SettingsCmd) Usage() string {
	return "taskdeck settings [--theme <t>] [--language <l>] [--timezone <tz>] [--email-frequency <f>] [--compact <bool>] [--email-notifications <bool>] [--desktop-notifications <bool>]"
}
func (c *SettingsCmd) NeedsAuth() bool { return true }

func (c *SettingsCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.theme, "theme", "", "")
	fs.StringVar(&c.language, "language", "", "")
	fs.StringVar(&c.timezone, "timezone", "", "")
	fs.StringVar(&c.emailFrequency, "email-frequency", "", "")
	fs.StringVar(&c.compact, "compact", "", "")
	fs.StringVar(&c.emailNotif, "email-notifications", "", "")
	fs.StringVar(&c.desktopNotif, "desktop-notifications", "", "")
}

func (c *SettingsCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	patch := api.SettingsPatch{}
	touched := false

	if c.theme != "" {
		patch.Theme = api.String(c.theme)
		touched = true
	}
	if c.language != "" {
		patch.Language = api.String(c.language)
		touched = true
	}
	if c.timezone != "" {
		patch.Timezone = api.String(c.timezone)
		touched = true
	}
	if c.emailFrequency != "" {
		patch.EmailFrequency = api.String(c.emailFrequency)
		touched = true
	}
	for _, b := range []struct {
		raw  string
		dest **bool
		name string
	}{
		{c.compact, &patch.CompactMode, "compact"},
		{c.emailNotif, &patch.EmailNotifications, "email-notifications"},
		{c.desktopNotif, &patch.DesktopNotifications, "desktop-notifications"},
	} {
		if b.raw == "" {
			continue
		}
		switch b.raw {
		case "true":
			*b.dest = api.Bool(true)
		case "false":
			*b.dest = api.Bool(false)
		default:
			fmt.Fprintf(errOut, "error: invalid value for --%s: %s\n", b.name, b.raw)
			return exitcode.UserError
		}
		touched = true
	}

	if touched {
		if err := a.Session.UpdateSettings(ctx, patch); err != nil {
			return reportErr(errOut, a, err)
		}
		if !cfg.Quiet {
			fmt.Fprintln(out, "ok")
		}
		return exitcode.Success
	}

	// Read path: show the authoritative settings.
	user, err := a.Session.FetchProfile(ctx)
	if err != nil {
		return reportErr(errOut, a, err)
	}
	output.FormatSettings(out, user.Settings)
	return exitcode.Success
}
