package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"taskdeck/internal/api"
	"taskdeck/internal/app"
	"taskdeck/internal/exitcode"
)

// reportErr maps a store/API failure to an exit code and message.
func reportErr(errOut io.Writer, a *app.App, err error) int {
	if a != nil && a.AuthExpired {
		fmt.Fprintln(errOut, "error: session expired (run: taskdeck login)")
		return exitcode.AuthError
	}
	if api.IsAuthError(err) {
		fmt.Fprintf(errOut, "error: auth error: %v\n", err)
		return exitcode.AuthError
	}
	fmt.Fprintf(errOut, "error: backend error: %v\n", err)
	return exitcode.BackendError
}

// reportLookupErr distinguishes bad references (user error) from backend
// failures when a resolve helper fails.
func reportLookupErr(errOut io.Writer, a *app.App, err error) int {
	msg := err.Error()
	if strings.Contains(msg, "not found") || strings.Contains(msg, "ambiguous") || strings.Contains(msg, "out of range") {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	return reportErr(errOut, a, err)
}

// resolveTask turns a task reference into an entity from the store's
// collection. A reference is either a 1-based list number or a unique
// identifier prefix. The collection is fetched first so numbers line up
// with what `taskdeck list` printed.
func resolveTask(ctx context.Context, a *app.App, ref string) (api.Task, error) {
	if err := a.Tasks.Fetch(ctx); err != nil {
		return api.Task{}, err
	}
	tasks := a.Tasks.Tasks()

	if isAllDigits(ref) {
		num, err := strconv.Atoi(ref)
		if err != nil || num < 1 || num > len(tasks) {
			return api.Task{}, fmt.Errorf("task number out of range: %s", ref)
		}
		return tasks[num-1], nil
	}

	var matches []api.Task
	for _, t := range tasks {
		if t.ID == ref {
			return t, nil
		}
		if strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return api.Task{}, fmt.Errorf("task not found: %s", ref)
	case 1:
		return matches[0], nil
	default:
		return api.Task{}, fmt.Errorf("ambiguous task reference: %s", ref)
	}
}

// resolveProject is resolveTask for the project collection.
func resolveProject(ctx context.Context, a *app.App, ref string) (api.Project, error) {
	if err := a.Projects.Fetch(ctx); err != nil {
		return api.Project{}, err
	}
	projects := a.Projects.Projects()

	if isAllDigits(ref) {
		num, err := strconv.Atoi(ref)
		if err != nil || num < 1 || num > len(projects) {
			return api.Project{}, fmt.Errorf("project number out of range: %s", ref)
		}
		return projects[num-1], nil
	}

	var matches []api.Project
	for _, p := range projects {
		if p.ID == ref {
			return p, nil
		}
		if strings.HasPrefix(p.ID, ref) || strings.EqualFold(p.Title, ref) {
			matches = append(matches, p)
		}
	}
	switch len(matches) {
	case 0:
		return api.Project{}, fmt.Errorf("project not found: %s", ref)
	case 1:
		return matches[0], nil
	default:
		return api.Project{}, fmt.Errorf("ambiguous project reference: %s", ref)
	}
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
