package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskdeck/internal/api"
	"taskdeck/internal/app"
	"taskdeck/internal/config"
	"taskdeck/internal/exitcode"
	"taskdeck/internal/output"
)

func init() {
	Register(&ProjectsCmd{})
	Register(&ProjectAddCmd{})
	Register(&ProjectEditCmd{})
	Register(&ProjectRmCmd{})
}

// ProjectsCmd lists projects.
type ProjectsCmd struct{}

func (c *ProjectsCmd) Name() string      { return "projects" }
func (c *ProjectsCmd) Aliases() []string { return nil }
func (c *ProjectsCmd) Synopsis() string  { return "List projects" }
func (c *ProjectsCmd) Usage() string     { return "taskdeck projects" }
func (c *ProjectsCmd) NeedsAuth() bool   { return true }

func (c *ProjectsCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ProjectsCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	if err := a.Projects.Fetch(ctx); err != nil {
		return reportErr(errOut, a, err)
	}

	projects := a.Projects.Projects()
	if len(projects) == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, "no projects found")
		}
		return exitcode.Success
	}
	for i, p := range projects {
		output.FormatProject(out, i+1, p)
	}
	return exitcode.Success
}

// ProjectAddCmd creates a project.
type ProjectAddCmd struct {
	status string
	icon   string
	color  string
	notes  string
}

func (c *ProjectAddCmd) Name() string      { return "project-add" }
func (c *ProjectAddCmd) Aliases() []string { return nil }
func (c *ProjectAddCmd) Synopsis() string  { return "Create a project" }
func (c *ProjectAddCmd) Usage() string {
	return "taskdeck project-add [--status <s>] [--icon <i>] [--color <c>] [--notes <text>] <title...>"
}
func (c *ProjectAddCmd) NeedsAuth() bool { return true }

func (c *ProjectAddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.status, "status", "", "")
	fs.StringVar(&c.icon, "icon", "", "")
	fs.StringVar(&c.color, "color", "", "")
	fs.StringVar(&c.notes, "notes", "", "")
}

func (c *ProjectAddCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	}

	draft := api.ProjectDraft{Title: api.String(title)}
	if c.status != "" {
		draft.Status = api.String(c.status)
	}
	if c.icon != "" {
		draft.Icon = api.String(c.icon)
	}
	if c.color != "" {
		draft.Color = api.String(c.color)
	}
	if c.notes != "" {
		draft.Description = api.String(c.notes)
	}

	created, err := a.Projects.Add(ctx, draft)
	if err != nil {
		return reportErr(errOut, a, err)
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "created %s\n", created.ID)
	}
	return exitcode.Success
}

// ProjectEditCmd updates a project.
type ProjectEditCmd struct {
	title  string
	status string
	icon   string
	color  string
	notes  string
}

func (c *ProjectEditCmd) Name() string      { return "project-edit" }
func (c *ProjectEditCmd) Aliases() []string { return nil }
func (c *ProjectEditCmd) Synopsis() string  { return "Update a project" }
func (c *ProjectEditCmd) Usage() string {
	return "taskdeck project-edit [--title <t>] [--status <s>] [--icon <i>] [--color <c>] [--notes <text>] <ref>"
}
func (c *ProjectEditCmd) NeedsAuth() bool { return true }

func (c *ProjectEditCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.title, "title", "", "")
	fs.StringVar(&c.status, "status", "", "")
	fs.StringVar(&c.icon, "icon", "", "")
	fs.StringVar(&c.color, "color", "", "")
	fs.StringVar(&c.notes, "notes", "", "")
}

func (c *ProjectEditCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(errOut, "error: project reference required")
		return exitcode.UserError
	}

	draft := api.ProjectDraft{}
	touched := false
	if c.title != "" {
		draft.Title = api.String(c.title)
		touched = true
	}
	if c.status != "" {
		draft.Status = api.String(c.status)
		touched = true
	}
	if c.icon != "" {
		draft.Icon = api.String(c.icon)
		touched = true
	}
	if c.color != "" {
		draft.Color = api.String(c.color)
		touched = true
	}
	if c.notes != "" {
		draft.Description = api.String(c.notes)
		touched = true
	}
	if !touched {
		fmt.Fprintln(errOut, "error: nothing to update")
		return exitcode.UserError
	}

	project, err := resolveProject(ctx, a, args[0])
	if err != nil {
		return reportLookupErr(errOut, a, err)
	}

	if _, err := a.Projects.Update(ctx, project.ID, draft); err != nil {
		return reportErr(errOut, a, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// ProjectRmCmd deletes a project.
type ProjectRmCmd struct{}

func (c *ProjectRmCmd) Name() string      { return "project-rm" }
func (c *ProjectRmCmd) Aliases() []string { return nil }
func (c *ProjectRmCmd) Synopsis() string  { return "Delete a project" }
func (c *ProjectRmCmd) Usage() string     { return "taskdeck project-rm <ref>" }
func (c *ProjectRmCmd) NeedsAuth() bool   { return true }

func (c *ProjectRmCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ProjectRmCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(errOut, "error: project reference required")
		return exitcode.UserError
	}

	project, err := resolveProject(ctx, a, args[0])
	if err != nil {
		return reportLookupErr(errOut, a, err)
	}

	if err := a.Projects.Delete(ctx, project.ID); err != nil {
		return reportErr(errOut, a, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
