package devserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskdeck/internal/api"
)

func validTaskStatus(s string) bool {
	switch s {
	case api.StatusTodo, api.StatusInProgress, api.StatusReview,
		api.StatusCompleted, api.StatusArchived, api.StatusCancelled:
		return true
	}
	return false
}

func validPriority(p string) bool {
	switch p {
	case api.PriorityLow, api.PriorityMedium, api.PriorityHigh, api.PriorityCritical:
		return true
	}
	return false
}

// ListTasks returns the user's tasks in position order.
func (s *Store) ListTasks(ctx context.Context, userID string) ([]api.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, description, status, priority, category, tags, due_date, position, created_at, updated_at
         FROM tasks WHERE user_id = ? ORDER BY position, created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []api.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (api.Task, error) {
	var t api.Task
	var tags string
	var due sql.NullTime
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&t.Category, &tags, &due, &t.Position, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return api.Task{}, fmt.Errorf("%w: task", ErrNotFound)
	}
	if err != nil {
		return api.Task{}, fmt.Errorf("scan task: %w", err)
	}
	if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil || t.Tags == nil {
		t.Tags = []string{}
	}
	if due.Valid {
		t.DueDate = &due.Time
	}
	t.Completed = t.Status == api.StatusCompleted
	return t, nil
}

// GetTask retrieves one of the user's tasks by id.
func (s *Store) GetTask(ctx context.Context, userID, id string) (api.Task, error) {
	return scanTask(s.db.QueryRowContext(ctx,
		`SELECT id, title, description, status, priority, category, tags, due_date, position, created_at, updated_at
         FROM tasks WHERE user_id = ? AND id = ?`, userID, id))
}

// CreateTask inserts a new task at the end of the user's list.
func (s *Store) CreateTask(ctx context.Context, userID string, draft api.TaskDraft) (api.Task, error) {
	if draft.Title == nil || strings.TrimSpace(*draft.Title) == "" {
		return api.Task{}, fmt.Errorf("%w: task title must not be empty", ErrInvalid)
	}

	status := api.StatusTodo
	if draft.Status != nil {
		if !validTaskStatus(*draft.Status) {
			return api.Task{}, fmt.Errorf("%w: unknown status %q", ErrInvalid, *draft.Status)
		}
		status = *draft.Status
	}
	priority := api.PriorityMedium
	if draft.Priority != nil {
		if !validPriority(*draft.Priority) {
			return api.Task{}, fmt.Errorf("%w: unknown priority %q", ErrInvalid, *draft.Priority)
		}
		priority = *draft.Priority
	}

	description := ""
	if draft.Description != nil {
		description = strings.TrimSpace(*draft.Description)
	}
	category := ""
	if draft.Category != nil {
		category = strings.TrimSpace(*draft.Category)
	}
	tags := draft.Tags
	if tags == nil {
		tags = []string{}
	}
	encodedTags, err := json.Marshal(tags)
	if err != nil {
		return api.Task{}, err
	}

	var due any
	if draft.DueDate != nil {
		due = draft.DueDate.UTC()
	}

	pos, err := s.nextTaskPosition(ctx, userID)
	if err != nil {
		return api.Task{}, err
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tasks(id, user_id, title, description, status, priority, category, tags, due_date, position)
         VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, userID, strings.TrimSpace(*draft.Title), description, status, priority, category, string(encodedTags), due, pos)
	if err != nil {
		return api.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return s.GetTask(ctx, userID, id)
}

// UpdateTask applies the draft's set fields and returns the full new entity.
func (s *Store) UpdateTask(ctx context.Context, userID, id string, draft api.TaskDraft) (api.Task, error) {
	current, err := s.GetTask(ctx, userID, id)
	if err != nil {
		return api.Task{}, err
	}

	if draft.Title != nil {
		if strings.TrimSpace(*draft.Title) == "" {
			return api.Task{}, fmt.Errorf("%w: task title must not be empty", ErrInvalid)
		}
		current.Title = strings.TrimSpace(*draft.Title)
	}
	if draft.Description != nil {
		current.Description = strings.TrimSpace(*draft.Description)
	}
	if draft.Status != nil {
		if !validTaskStatus(*draft.Status) {
			return api.Task{}, fmt.Errorf("%w: unknown status %q", ErrInvalid, *draft.Status)
		}
		current.Status = *draft.Status
	}
	if draft.Priority != nil {
		if !validPriority(*draft.Priority) {
			return api.Task{}, fmt.Errorf("%w: unknown priority %q", ErrInvalid, *draft.Priority)
		}
		current.Priority = *draft.Priority
	}
	if draft.Category != nil {
		current.Category = strings.TrimSpace(*draft.Category)
	}
	if draft.Tags != nil {
		current.Tags = draft.Tags
	}
	if draft.DueDate != nil {
		current.DueDate = draft.DueDate
	}

	encodedTags, err := json.Marshal(current.Tags)
	if err != nil {
		return api.Task{}, err
	}
	var due any
	if current.DueDate != nil {
		due = current.DueDate.UTC()
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE tasks SET title = ?, description = ?, status = ?, priority = ?, category = ?, tags = ?, due_date = ?, updated_at = ?
         WHERE user_id = ? AND id = ?`,
		current.Title, current.Description, current.Status, current.Priority, current.Category,
		string(encodedTags), due, time.Now().UTC(), userID, id)
	if err != nil {
		return api.Task{}, fmt.Errorf("update task: %w", err)
	}
	return s.GetTask(ctx, userID, id)
}

// ToggleTask flips a task between completed and todo.
func (s *Store) ToggleTask(ctx context.Context, userID, id string, completed bool) (api.Task, error) {
	current, err := s.GetTask(ctx, userID, id)
	if err != nil {
		return api.Task{}, err
	}

	status := current.Status
	if completed {
		status = api.StatusCompleted
	} else if current.Status == api.StatusCompleted {
		status = api.StatusTodo
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE tasks SET status = ?, updated_at = ? WHERE user_id = ? AND id = ?`,
		status, time.Now().UTC(), userID, id)
	if err != nil {
		return api.Task{}, fmt.Errorf("toggle task: %w", err)
	}
	return s.GetTask(ctx, userID, id)
}

// DeleteTask removes one of the user's tasks.
func (s *Store) DeleteTask(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: task", ErrNotFound)
	}
	return nil
}

// ReorderTasks moves the task at oldIndex to newIndex within the user's
// position-ordered list and renumbers everything.
func (s *Store) ReorderTasks(ctx context.Context, userID string, oldIndex, newIndex int) ([]api.Task, error) {
	tasks, err := s.ListTasks(ctx, userID)
	if err != nil {
		return nil, err
	}
	if oldIndex < 0 || oldIndex >= len(tasks) || newIndex < 0 || newIndex >= len(tasks) {
		return nil, fmt.Errorf("%w: reorder index out of range", ErrInvalid)
	}
	if oldIndex == newIndex {
		return tasks, nil
	}

	moved := tasks[oldIndex]
	rest := append([]api.Task{}, tasks[:oldIndex]...)
	rest = append(rest, tasks[oldIndex+1:]...)
	ordered := append(rest[:newIndex:newIndex], moved)
	ordered = append(ordered, rest[newIndex:]...)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	for i, t := range ordered {
		if _, err := tx.ExecContext(ctx,
			`UPDATE tasks SET position = ? WHERE user_id = ? AND id = ?`, i, userID, t.ID); err != nil {
			return nil, fmt.Errorf("renumber tasks: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.ListTasks(ctx, userID)
}

func (s *Store) nextTaskPosition(ctx context.Context, userID string) (int, error) {
	var position sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT MAX(position) FROM tasks WHERE user_id = ?`, userID).Scan(&position)
	if err != nil {
		return 0, fmt.Errorf("select position: %w", err)
	}
	if position.Valid {
		return int(position.Int64) + 1, nil
	}
	return 0, nil
}
