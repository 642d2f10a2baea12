// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"taskdeck/internal/api"
	"taskdeck/internal/notify"
	"taskdeck/internal/store"
)

// Separator is the separator line for sections.
const Separator = "------------"

// FormatTask formats one task line.
// Format: "{N:>4}  [{x| }] {TITLE} ({priority}, {status})"
func FormatTask(w io.Writer, num int, task api.Task) {
	mark := " "
	if task.Done() {
		mark = "x"
	}
	title := normalizeTitle(task.Title)
	fmt.Fprintf(w, "%4d  [%s] %s (%s, %s)\n", num, mark, title, task.Priority, task.Status)
}

// FormatTaskDetail prints the full task record.
func FormatTaskDetail(w io.Writer, task api.Task) {
	fmt.Fprintln(w, Separator)
	fmt.Fprintln(w, normalizeTitle(task.Title))
	fmt.Fprintln(w, Separator)
	fmt.Fprintf(w, "id:        %s\n", task.ID)
	fmt.Fprintf(w, "status:    %s\n", task.Status)
	fmt.Fprintf(w, "priority:  %s\n", task.Priority)
	if task.Category != "" {
		fmt.Fprintf(w, "category:  %s\n", task.Category)
	}
	if len(task.Tags) > 0 {
		fmt.Fprintf(w, "tags:      %s\n", strings.Join(task.Tags, ", "))
	}
	if task.DueDate != nil {
		fmt.Fprintf(w, "due:       %s\n", task.DueDate.Format("2006-01-02"))
	}
	if task.Description != "" {
		fmt.Fprintf(w, "notes:     %s\n", normalizeTitle(task.Description))
	}
	for _, sub := range task.Subtasks {
		mark := " "
		if sub.Completed {
			mark = "x"
		}
		fmt.Fprintf(w, "  [%s] %s\n", mark, normalizeTitle(sub.Title))
	}
}

// FormatProject formats one project line.
// Format: "{N:>4}  {TITLE} ({status}, {progress}%, {done}/{total} tasks)"
func FormatProject(w io.Writer, num int, p api.Project) {
	title := normalizeTitle(p.Title)
	fmt.Fprintf(w, "%4d  %s (%s, %d%%, %d/%d tasks)\n", num, title, p.Status, p.Progress, p.CompletedTasks, p.TotalTasks)
}

// FormatTaskStats prints derived task counters.
func FormatTaskStats(w io.Writer, stats store.TaskStats) {
	fmt.Fprintf(w, "tasks:      %d\n", stats.Total)
	fmt.Fprintf(w, "completed:  %d\n", stats.Completed)
	fmt.Fprintf(w, "pending:    %d\n", stats.Pending)
	fmt.Fprintf(w, "completion: %d%%\n", stats.CompletionRate)
}

// FormatProjectStats prints derived project counters.
func FormatProjectStats(w io.Writer, stats store.ProjectStats) {
	fmt.Fprintf(w, "projects:   %d\n", stats.Total)
	fmt.Fprintf(w, "active:     %d\n", stats.Active)
	fmt.Fprintf(w, "finished:   %d\n", stats.Completed)
}

// FormatUser prints the profile record.
func FormatUser(w io.Writer, u api.User) {
	fmt.Fprintf(w, "name:      %s\n", u.Name)
	fmt.Fprintf(w, "email:     %s\n", u.Email)
	if u.Bio != "" {
		fmt.Fprintf(w, "bio:       %s\n", u.Bio)
	}
	if u.Phone != "" {
		fmt.Fprintf(w, "phone:     %s\n", u.Phone)
	}
	if u.Location != "" {
		fmt.Fprintf(w, "location:  %s\n", u.Location)
	}
}

// FormatSettings prints the settings record.
func FormatSettings(w io.Writer, s api.UserSettings) {
	fmt.Fprintf(w, "theme:                  %s\n", s.Theme)
	fmt.Fprintf(w, "compact mode:           %t\n", s.CompactMode)
	fmt.Fprintf(w, "desktop notifications:  %t\n", s.DesktopNotifications)
	fmt.Fprintf(w, "email notifications:    %t\n", s.EmailNotifications)
	fmt.Fprintf(w, "email frequency:        %s\n", s.EmailFrequency)
	fmt.Fprintf(w, "language:               %s\n", s.Language)
	fmt.Fprintf(w, "timezone:               %s\n", s.Timezone)
}

// FormatNotification formats one notification line.
func FormatNotification(w io.Writer, n notify.Notification) {
	mark := "*"
	if n.Read {
		mark = " "
	}
	line := n.Title
	if n.Message != "" {
		line += ": " + n.Message
	}
	fmt.Fprintf(w, "%s [%s] %s\n", mark, n.Type, normalizeTitle(line))
}

// normalizeTitle normalizes text for single-line display.
// - Empty or whitespace-only strings become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
