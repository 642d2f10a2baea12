package output_test

import (
	"bytes"
	"testing"
	"time"

	"taskdeck/internal/api"
	"taskdeck/internal/notify"
	"taskdeck/internal/output"
	"taskdeck/internal/store"
	"taskdeck/internal/testutil"
)

func TestFormatTaskList(t *testing.T) {
	var buf bytes.Buffer

	output.FormatTask(&buf, 1, api.Task{Title: "Write report", Priority: api.PriorityHigh, Status: api.StatusInProgress})
	output.FormatTask(&buf, 2, api.Task{Title: "Ship release", Priority: api.PriorityMedium, Status: api.StatusCompleted})
	output.FormatTask(&buf, 3, api.Task{Title: "  \n ", Priority: api.PriorityLow, Status: api.StatusTodo})

	testutil.GoldenString(t, "task_list", buf.String())
}

func TestFormatTaskDetail(t *testing.T) {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	task := api.Task{
		ID:          "t1",
		Title:       "Quarterly numbers",
		Description: "Check\nnumbers",
		Status:      api.StatusTodo,
		Priority:    api.PriorityLow,
		Category:    "work",
		Tags:        []string{"a", "b"},
		DueDate:     &due,
		Subtasks: []api.Subtask{
			{Title: "Collect data", Completed: true},
			{Title: "Draft summary"},
		},
	}

	var buf bytes.Buffer
	output.FormatTaskDetail(&buf, task)
	testutil.GoldenString(t, "task_detail", buf.String())
}

func TestFormatProjectLine(t *testing.T) {
	var buf bytes.Buffer
	output.FormatProject(&buf, 1, api.Project{
		Title:          "Website",
		Status:         api.ProjectInProgress,
		Progress:       40,
		CompletedTasks: 2,
		TotalTasks:     5,
	})

	want := "   1  Website (in-progress, 40%, 2/5 tasks)\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestFormatStats(t *testing.T) {
	var buf bytes.Buffer
	output.FormatTaskStats(&buf, store.TaskStats{Total: 4, Completed: 2, Pending: 2, CompletionRate: 50})
	output.FormatProjectStats(&buf, store.ProjectStats{Total: 3, Completed: 1, Active: 2})

	testutil.GoldenString(t, "stats", buf.String())
}

func TestFormatNotification(t *testing.T) {
	var buf bytes.Buffer
	output.FormatNotification(&buf, notify.Notification{
		Type:    notify.TypeError,
		Title:   "Request failed",
		Message: "server returned status 500",
	})
	output.FormatNotification(&buf, notify.Notification{
		Type:  notify.TypeSuccess,
		Title: "Task created",
		Read:  true,
	})

	want := "* [error] Request failed: server returned status 500\n" +
		"  [success] Task created\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}
