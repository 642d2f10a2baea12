// Package api implements the HTTP access layer for the taskdeck backend.
package api

import "time"

// Task statuses as stored by the backend.
const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusReview     = "review"
	StatusCompleted  = "completed"
	StatusArchived   = "archived"
	StatusCancelled  = "cancelled"
)

// Task priorities.
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// Project statuses.
const (
	ProjectPlanning   = "planning"
	ProjectInProgress = "in-progress"
	ProjectOnHold     = "on-hold"
	ProjectCompleted  = "completed"
)

// UserSettings holds per-user preferences returned by the settings endpoint.
type UserSettings struct {
	Theme                string `json:"theme"`
	CompactMode          bool   `json:"compactMode"`
	DesktopNotifications bool   `json:"desktopNotifications"`
	EmailNotifications   bool   `json:"emailNotifications"`
	EmailFrequency       string `json:"emailFrequency"`
	Language             string `json:"language"`
	Timezone             string `json:"timezone"`
}

// User is the authenticated account as returned by the auth endpoints.
type User struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Email     string       `json:"email"`
	Avatar    string       `json:"avatar,omitempty"`
	Bio       string       `json:"bio,omitempty"`
	Phone     string       `json:"phone,omitempty"`
	Location  string       `json:"location,omitempty"`
	Role      string       `json:"role,omitempty"`
	Settings  UserSettings `json:"settings"`
	CreatedAt time.Time    `json:"createdAt,omitempty"`
}

// TokenPair is the credential pair issued on login, registration and refresh.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// AuthPayload is the data payload of a successful login or registration.
type AuthPayload struct {
	User   User      `json:"user"`
	Tokens TokenPair `json:"tokens"`
}

// Subtask is a nested item of a task with its own completion flag and position.
type Subtask struct {
	ID        string `json:"_id,omitempty"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	Position  int    `json:"position"`
}

// Attachment is a file reference attached to a task.
type Attachment struct {
	URL        string    `json:"url"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Task is a single task as persisted by the backend. Identity and timestamps
// are assigned server-side; the client never fabricates them.
type Task struct {
	ID          string       `json:"_id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Status      string       `json:"status"`
	Priority    string       `json:"priority"`
	Category    string       `json:"category,omitempty"`
	Tags        []string     `json:"tags"`
	DueDate     *time.Time   `json:"dueDate,omitempty"`
	Completed   bool         `json:"completed"`
	Position    int          `json:"position"`
	Subtasks    []Subtask    `json:"subtasks,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// Done reports whether the task counts as finished. Status is the single
// source of truth; the completed flag is kept only because the wire format
// carries it.
func (t Task) Done() bool {
	return t.Status == StatusCompleted
}

// Project groups tasks with display metadata and aggregate counters.
type Project struct {
	ID             string    `json:"_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	Icon           string    `json:"icon,omitempty"`
	IconColor      string    `json:"iconColor,omitempty"`
	Color          string    `json:"color,omitempty"`
	Progress       int       `json:"progress"`
	Status         string    `json:"status"`
	CompletedTasks int       `json:"completedTasks"`
	TotalTasks     int       `json:"totalTasks"`
	CreatedAt      time.Time `json:"createdAt,omitempty"`
}

// TaskDraft is the client-supplied portion of a new or updated task. Nil
// fields are omitted from the request body so the server only touches what
// the caller set.
type TaskDraft struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Status      *string    `json:"status,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	Category    *string    `json:"category,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

// ProjectDraft is the client-supplied portion of a new or updated project.
type ProjectDraft struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Icon        *string `json:"icon,omitempty"`
	IconColor   *string `json:"iconColor,omitempty"`
	Color       *string `json:"color,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// UserPatch is a partial profile update.
type UserPatch struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Bio      *string `json:"bio,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Location *string `json:"location,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
}

// SettingsPatch is a partial settings update.
type SettingsPatch struct {
	Theme                *string `json:"theme,omitempty"`
	CompactMode          *bool   `json:"compactMode,omitempty"`
	DesktopNotifications *bool   `json:"desktopNotifications,omitempty"`
	EmailNotifications   *bool   `json:"emailNotifications,omitempty"`
	EmailFrequency       *string `json:"emailFrequency,omitempty"`
	Language             *string `json:"language,omitempty"`
	Timezone             *string `json:"timezone,omitempty"`
}

// String is a convenience for building draft pointer fields.
func String(s string) *string { return &s }

// Bool is a convenience for building draft pointer fields.
func Bool(b bool) *bool { return &b }
