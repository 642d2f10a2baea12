package devserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"taskdeck/internal/api"
)

func validProjectStatus(s string) bool {
	switch s {
	case api.ProjectPlanning, api.ProjectInProgress, api.ProjectOnHold, api.ProjectCompleted:
		return true
	}
	return false
}

// ListProjects returns the user's projects with task counters filled in.
func (s *Store) ListProjects(ctx context.Context, userID string) ([]api.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, description, icon, icon_color, color, status, created_at
         FROM projects WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []api.Project
	for rows.Next() {
		var p api.Project
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.Icon, &p.IconColor, &p.Color, &p.Status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range projects {
		if err := s.fillCounters(ctx, userID, &projects[i]); err != nil {
			return nil, err
		}
	}
	return projects, nil
}

// GetProject fetches a single project by id.
func (s *Store) GetProject(ctx context.Context, userID, id string) (api.Project, error) {
	var p api.Project
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, icon, icon_color, color, status, created_at
         FROM projects WHERE user_id = ? AND id = ?`, userID, id).
		Scan(&p.ID, &p.Title, &p.Description, &p.Icon, &p.IconColor, &p.Color, &p.Status, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return api.Project{}, fmt.Errorf("%w: project", ErrNotFound)
	}
	if err != nil {
		return api.Project{}, fmt.Errorf("get project: %w", err)
	}
	if err := s.fillCounters(ctx, userID, &p); err != nil {
		return api.Project{}, err
	}
	return p, nil
}

// CreateProject persists a new project.
func (s *Store) CreateProject(ctx context.Context, userID string, draft api.ProjectDraft) (api.Project, error) {
	if draft.Title == nil || strings.TrimSpace(*draft.Title) == "" {
		return api.Project{}, fmt.Errorf("%w: project title must not be empty", ErrInvalid)
	}

	status := api.ProjectPlanning
	if draft.Status != nil {
		if !validProjectStatus(*draft.Status) {
			return api.Project{}, fmt.Errorf("%w: unknown status %q", ErrInvalid, *draft.Status)
		}
		status = *draft.Status
	}
	str := func(p *string) string {
		if p == nil {
			return ""
		}
		return strings.TrimSpace(*p)
	}

	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects(id, user_id, title, description, icon, icon_color, color, status)
         VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		id, userID, strings.TrimSpace(*draft.Title), str(draft.Description),
		str(draft.Icon), str(draft.IconColor), str(draft.Color), status)
	if err != nil {
		return api.Project{}, fmt.Errorf("insert project: %w", err)
	}
	return s.GetProject(ctx, userID, id)
}

// UpdateProject applies the draft's set fields and returns the new entity.
func (s *Store) UpdateProject(ctx context.Context, userID, id string, draft api.ProjectDraft) (api.Project, error) {
	current, err := s.GetProject(ctx, userID, id)
	if err != nil {
		return api.Project{}, err
	}

	if draft.Title != nil {
		if strings.TrimSpace(*draft.Title) == "" {
			return api.Project{}, fmt.Errorf("%w: project title must not be empty", ErrInvalid)
		}
		current.Title = strings.TrimSpace(*draft.Title)
	}
	if draft.Description != nil {
		current.Description = strings.TrimSpace(*draft.Description)
	}
	if draft.Icon != nil {
		current.Icon = strings.TrimSpace(*draft.Icon)
	}
	if draft.IconColor != nil {
		current.IconColor = strings.TrimSpace(*draft.IconColor)
	}
	if draft.Color != nil {
		current.Color = strings.TrimSpace(*draft.Color)
	}
	if draft.Status != nil {
		if !validProjectStatus(*draft.Status) {
			return api.Project{}, fmt.Errorf("%w: unknown status %q", ErrInvalid, *draft.Status)
		}
		current.Status = *draft.Status
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE projects SET title = ?, description = ?, icon = ?, icon_color = ?, color = ?, status = ?
         WHERE user_id = ? AND id = ?`,
		current.Title, current.Description, current.Icon, current.IconColor, current.Color, current.Status, userID, id)
	if err != nil {
		return api.Project{}, fmt.Errorf("update project: %w", err)
	}
	return s.GetProject(ctx, userID, id)
}

// DeleteProject removes one of the user's projects.
func (s *Store) DeleteProject(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: project", ErrNotFound)
	}
	return nil
}

// fillCounters derives the aggregate fields from tasks whose category matches
// the project title.
func (s *Store) fillCounters(ctx context.Context, userID string, p *api.Project) error {
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0)
         FROM tasks WHERE user_id = ? AND category = ?`,
		api.StatusCompleted, userID, p.Title).
		Scan(&p.TotalTasks, &p.CompletedTasks)
	if err != nil {
		return fmt.Errorf("project counters: %w", err)
	}
	if p.TotalTasks > 0 {
		p.Progress = p.CompletedTasks * 100 / p.TotalTasks
	}
	return nil
}
