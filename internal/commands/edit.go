package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"taskdeck/internal/api"
	"taskdeck/internal/app"
	"taskdeck/internal/config"
	"taskdeck/internal/exitcode"
)

func init() {
	Register(&EditCmd{})
}

// EditCmd implements the edit command.
type EditCmd struct {
	title    string
	status   string
	priority string
	category string
	tags     string
	due      string
	notes    string
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return nil }
func (c *EditCmd) Synopsis() string  { return "Update a task" }
func (c *EditCmd) Usage() string {
	return "taskdeck edit [--title <t>] [--status <s>] [--priority <p>] [--category <c>] [--tags <a,b>] [--due <yyyy-mm-dd>] [--notes <text>] <ref>"
}
func (c *EditCmd) NeedsAuth() bool { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.title, "title", "", "")
	fs.StringVar(&c.status, "status", "", "")
	fs.StringVar(&c.priority, "priority", "", "")
	fs.StringVar(&c.category, "category", "", "")
	fs.StringVar(&c.tags, "tags", "", "")
	fs.StringVar(&c.due, "due", "", "")
	fs.StringVar(&c.notes, "notes", "", "")
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(errOut, "error: task reference required")
		return exitcode.UserError
	}

	draft := api.TaskDraft{}
	touched := false
	if c.title != "" {
		draft.Title = api.String(c.title)
		touched = true
	}
	if c.status != "" {
		draft.Status = api.String(c.status)
		touched = true
	}
	if c.priority != "" {
		draft.Priority = api.String(c.priority)
		touched = true
	}
	if c.category != "" {
		draft.Category = api.String(c.category)
		touched = true
	}
	if c.notes != "" {
		draft.Description = api.String(c.notes)
		touched = true
	}
	if c.tags != "" {
		for _, tag := range strings.Split(c.tags, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				draft.Tags = append(draft.Tags, tag)
			}
		}
		touched = true
	}
	if c.due != "" {
		due, err := time.Parse("2006-01-02", c.due)
		if err != nil {
			fmt.Fprintf(errOut, "error: invalid due date: %s\n", c.due)
			return exitcode.UserError
		}
		draft.DueDate = &due
		touched = true
	}
	if !touched {
		fmt.Fprintln(errOut, "error: nothing to update")
		return exitcode.UserError
	}

	task, err := resolveTask(ctx, a, args[0])
	if err != nil {
		return reportLookupErr(errOut, a, err)
	}

	if _, err := a.Tasks.Update(ctx, task.ID, draft); err != nil {
		return reportErr(errOut, a, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
