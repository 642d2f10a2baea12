package store

import (
	"context"
	"sync"

	"taskdeck/internal/api"
	"taskdeck/internal/notify"
)

// ProjectStats is a pure derivation over the in-memory collection.
type ProjectStats struct {
	Total     int
	Completed int
	Active    int
}

// ProjectStore mirrors the TaskStore contract at project granularity.
type ProjectStore struct {
	client   *api.Client
	notifier notify.Notifier

	mu       sync.Mutex
	projects []api.Project
	loading  bool
	lastErr  error
}

// NewProjectStore creates an empty project store.
func NewProjectStore(client *api.Client, notifier notify.Notifier) *ProjectStore {
	return &ProjectStore{client: client, notifier: notifier}
}

// Projects returns a copy of the current collection in server order.
func (s *ProjectStore) Projects() []api.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.Project, len(s.projects))
	copy(out, s.projects)
	return out
}

// Get returns the project with the given identity.
func (s *ProjectStore) Get(id string) (api.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.projects {
		if p.ID == id {
			return p, true
		}
	}
	return api.Project{}, false
}

// Loading reports whether an operation is in flight.
func (s *ProjectStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the last recorded error.
func (s *ProjectStore) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Fetch replaces the whole collection with the server's result, leaving the
// previous collection intact on failure.
func (s *ProjectStore) Fetch(ctx context.Context) error {
	s.begin()

	var projects []api.Project
	if err := s.client.Get(ctx, "/projects", &projects); err != nil {
		s.fail(err)
		return err
	}

	s.mu.Lock()
	s.projects = projects
	s.loading = false
	s.lastErr = nil
	s.mu.Unlock()
	return nil
}

// Add creates a project server-side and appends the server-returned entity.
func (s *ProjectStore) Add(ctx context.Context, draft api.ProjectDraft) (api.Project, error) {
	s.begin()

	var created api.Project
	if err := s.client.Post(ctx, "/projects", draft, &created); err != nil {
		s.fail(err)
		return api.Project{}, err
	}

	s.mu.Lock()
	s.projects = append(s.projects, created)
	s.loading = false
	s.lastErr = nil
	s.mu.Unlock()

	s.notifier.Success("Project created", created.Title)
	return created, nil
}

// Update replaces the matching local project wholesale with the
// server-returned one.
func (s *ProjectStore) Update(ctx context.Context, id string, draft api.ProjectDraft) (api.Project, error) {
	s.begin()

	var updated api.Project
	if err := s.client.Put(ctx, "/projects/"+id, draft, &updated); err != nil {
		s.fail(err)
		return api.Project{}, err
	}

	s.mu.Lock()
	for i, p := range s.projects {
		if p.ID == id {
			s.projects[i] = updated
			break
		}
	}
	s.loading = false
	s.lastErr = nil
	s.mu.Unlock()

	s.notifier.Success("Project updated", updated.Title)
	return updated, nil
}

// Delete removes the project server-side, then from the collection.
func (s *ProjectStore) Delete(ctx context.Context, id string) error {
	s.begin()

	if err := s.client.Delete(ctx, "/projects/"+id, nil); err != nil {
		s.fail(err)
		return err
	}

	s.mu.Lock()
	for i, p := range s.projects {
		if p.ID == id {
			s.projects = append(s.projects[:i], s.projects[i+1:]...)
			break
		}
	}
	s.loading = false
	s.lastErr = nil
	s.mu.Unlock()

	s.notifier.Success("Project deleted", "")
	return nil
}

// Stats derives counters from the in-memory collection without touching the
// network.
func (s *ProjectStore) Stats() ProjectStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := ProjectStats{Total: len(s.projects)}
	for _, p := range s.projects {
		if p.Status == api.ProjectCompleted {
			stats.Completed++
		} else {
			stats.Active++
		}
	}
	return stats
}

func (s *ProjectStore) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = true
	s.lastErr = nil
}

func (s *ProjectStore) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	s.lastErr = err
}
