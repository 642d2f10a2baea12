// Package store holds the in-memory task and project collections and keeps
// them synchronized with the backend.
//
// Every mutation except Reorder follows a request-confirm pattern: local
// state changes only after the server confirms, and the server-returned
// entity replaces the local one wholesale. Reorder is the single optimistic
// operation; a rejected reorder is reconciled by refetching the collection
// rather than inverting the local move.
package store

import (
	"context"
	"fmt"
	"sync"

	"taskdeck/internal/api"
	"taskdeck/internal/notify"
)

// TaskStats is a pure derivation over the in-memory collection.
type TaskStats struct {
	Total          int
	Completed      int
	Pending        int
	CompletionRate int
}

// TaskStore is the ordered in-memory task collection.
type TaskStore struct {
	client   *api.Client
	notifier notify.Notifier

	mu      sync.Mutex
	tasks   []api.Task
	loading bool
	lastErr error
}

// NewTaskStore creates an empty task store.
func NewTaskStore(client *api.Client, notifier notify.Notifier) *TaskStore {
	return &TaskStore{client: client, notifier: notifier}
}

// Tasks returns a copy of the current collection in server order.
func (s *TaskStore) Tasks() []api.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Get returns the task with the given identity.
func (s *TaskStore) Get(id string) (api.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return api.Task{}, false
}

// Loading reports whether an operation is in flight.
func (s *TaskStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the last recorded error.
func (s *TaskStore) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Fetch replaces the whole collection with the server's result. On failure
// the previous collection stays intact and the error is recorded.
func (s *TaskStore) Fetch(ctx context.Context) error {
	s.begin()

	var tasks []api.Task
	if err := s.client.Get(ctx, "/tasks", &tasks); err != nil {
		s.fail(err)
		return err
	}

	s.mu.Lock()
	s.tasks = tasks
	s.loading = false
	s.lastErr = nil
	s.mu.Unlock()
	return nil
}

// Add creates a task server-side and appends the server-returned entity,
// with its assigned identity and timestamps, to the collection. Title
// validation happens before invocation; the store does not re-validate.
func (s *TaskStore) Add(ctx context.Context, draft api.TaskDraft) (api.Task, error) {
	s.begin()

	var created api.Task
	if err := s.client.Post(ctx, "/tasks", draft, &created); err != nil {
		s.fail(err)
		return api.Task{}, err
	}

	s.mu.Lock()
	s.tasks = append(s.tasks, created)
	s.loading = false
	s.lastErr = nil
	s.mu.Unlock()

	s.notifier.Success("Task created", created.Title)
	return created, nil
}

// Update sends a partial update and replaces the matching local entity
// wholesale with the server-returned one. The server response is
// authoritative; no field-level merging happens client-side.
func (s *TaskStore) Update(ctx context.Context, id string, draft api.TaskDraft) (api.Task, error) {
	s.begin()

	var updated api.Task
	if err := s.client.Put(ctx, "/tasks/"+id, draft, &updated); err != nil {
		s.fail(err)
		return api.Task{}, err
	}

	s.replace(id, updated)
	s.notifier.Success("Task updated", updated.Title)
	return updated, nil
}

// Delete removes the task server-side, then from the collection. On failure
// the entity remains.
func (s *TaskStore) Delete(ctx context.Context, id string) error {
	s.begin()

	if err := s.client.Delete(ctx, "/tasks/"+id, nil); err != nil {
		s.fail(err)
		return err
	}

	s.mu.Lock()
	for i, t := range s.tasks {
		if t.ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			break
		}
	}
	s.loading = false
	s.lastErr = nil
	s.mu.Unlock()

	s.notifier.Success("Task deleted", "")
	return nil
}

// ToggleCompletion flips only the completion flag, with the same
// replace-on-success contract as Update.
func (s *TaskStore) ToggleCompletion(ctx context.Context, id string, completed bool) (api.Task, error) {
	s.begin()

	body := map[string]bool{"completed": completed}
	var updated api.Task
	if err := s.client.Patch(ctx, "/tasks/"+id+"/toggle", body, &updated); err != nil {
		s.fail(err)
		return api.Task{}, err
	}

	s.replace(id, updated)
	if updated.Done() {
		s.notifier.Success("Task completed", updated.Title)
	} else {
		s.notifier.Success("Task reopened", updated.Title)
	}
	return updated, nil
}

// Reorder moves a task between positions. The local move is applied
// immediately so drag interactions feel instantaneous; the index pair is
// then sent to the server. A rejected reorder is not inverted locally —
// the collection is refetched so local state agrees with the server again.
func (s *TaskStore) Reorder(ctx context.Context, oldIndex, newIndex int) error {
	s.mu.Lock()
	if oldIndex < 0 || oldIndex >= len(s.tasks) || newIndex < 0 || newIndex >= len(s.tasks) {
		n := len(s.tasks)
		s.mu.Unlock()
		return fmt.Errorf("reorder indices out of range: %d -> %d with %d tasks", oldIndex, newIndex, n)
	}

	moved := s.tasks[oldIndex]
	s.tasks = append(s.tasks[:oldIndex], s.tasks[oldIndex+1:]...)
	rest := append([]api.Task{}, s.tasks[newIndex:]...)
	s.tasks = append(append(s.tasks[:newIndex:newIndex], moved), rest...)
	s.mu.Unlock()

	body := map[string]int{"oldIndex": oldIndex, "newIndex": newIndex}
	if err := s.client.Post(ctx, "/tasks/reorder", body, nil); err != nil {
		// Reconcile by refetch: the server's ordering wins.
		if fetchErr := s.Fetch(ctx); fetchErr != nil {
			s.fail(fetchErr)
		}
		s.recordErr(err)
		return err
	}
	return nil
}

// Stats derives counters from the in-memory collection without touching the
// network.
func (s *TaskStore) Stats() TaskStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := TaskStats{Total: len(s.tasks)}
	for _, t := range s.tasks {
		if t.Done() {
			stats.Completed++
		}
	}
	stats.Pending = stats.Total - stats.Completed
	if stats.Total > 0 {
		stats.CompletionRate = stats.Completed * 100 / stats.Total
	}
	return stats
}

func (s *TaskStore) replace(id string, updated api.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.tasks {
		if t.ID == id {
			s.tasks[i] = updated
			break
		}
	}
	s.loading = false
	s.lastErr = nil
}

func (s *TaskStore) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = true
	s.lastErr = nil
}

func (s *TaskStore) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	s.lastErr = err
}

func (s *TaskStore) recordErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
}
