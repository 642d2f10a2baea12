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
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "taskdeck help" }
func (c *HelpCmd) NeedsAuth() bool   { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  taskdeck                                     List tasks
  taskdeck list [--pending]                    List tasks
  taskdeck add [flags] <title...>              Create a task
  taskdeck edit [flags] <ref>                  Update a task
  taskdeck done <ref>                          Mark a task completed
  taskdeck undone <ref>                        Reopen a completed task
  taskdeck rm <ref>                            Delete a task
  taskdeck move <from> <to>                    Move a task to a new position
  taskdeck stats                               Show task and project counters
  taskdeck board                               Open the interactive board
  taskdeck projects                            List projects
  taskdeck project-add [flags] <title...>      Create a project
  taskdeck project-edit [flags] <ref>          Update a project
  taskdeck project-rm <ref>                    Delete a project
  taskdeck login <email> <password>            Sign in
  taskdeck register <name> <email> <password>  Create an account
  taskdeck logout                              Remove stored credentials
  taskdeck whoami [--refresh]                  Show the signed-in profile
  taskdeck profile-edit [flags]                Update profile fields
  taskdeck settings [flags]                    Show or update settings
  taskdeck account-rm --yes                    Delete the account
  taskdeck help
  taskdeck version

A <ref> is either the 1-based number printed by list, or a unique id prefix.

Common flags:
  --config <dir>   Override config directory
  --api <url>      Override API base URL
  --quiet          Suppress informational output
`
