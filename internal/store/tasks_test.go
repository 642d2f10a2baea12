package store_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"taskdeck/internal/api"
	"taskdeck/internal/credentials"
	"taskdeck/internal/notify"
	"taskdeck/internal/store"
)

func newClient(t *testing.T, baseURL string) *api.Client {
	t.Helper()
	creds := credentials.NewStore(filepath.Join(t.TempDir(), "credentials.json"))
	return api.New(baseURL, creds)
}

func writeSuccess(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "success",
		"data":    data,
		"message": "",
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "error",
		"message": message,
	})
}

func task(id, title, status string) api.Task {
	return api.Task{ID: id, Title: title, Status: status, Priority: api.PriorityMedium, Tags: []string{}}
}

func taskIDs(tasks []api.Task) []string {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}

func sameIDs(a []string, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFetchReplacesCollection(t *testing.T) {
	serverTasks := []api.Task{task("t1", "First", api.StatusTodo)}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeSuccess(w, http.StatusOK, serverTasks)
	}))
	defer ts.Close()

	s := store.NewTaskStore(newClient(t, ts.URL), notify.Discard{})

	if err := s.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got := s.Tasks(); len(got) != 1 || got[0].ID != "t1" {
		t.Fatalf("expected [t1], got %v", taskIDs(got))
	}

	serverTasks = []api.Task{task("t2", "Second", api.StatusTodo), task("t3", "Third", api.StatusTodo)}
	if err := s.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got := s.Tasks(); !sameIDs(taskIDs(got), []string{"t2", "t3"}) {
		t.Errorf("expected replacement with [t2 t3], got %v", taskIDs(got))
	}
}

func TestFetchFailureKeepsPreviousCollection(t *testing.T) {
	failing := false
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing {
			writeError(w, http.StatusInternalServerError, "database gone")
			return
		}
		writeSuccess(w, http.StatusOK, []api.Task{task("t1", "First", api.StatusTodo)})
	}))
	defer ts.Close()

	s := store.NewTaskStore(newClient(t, ts.URL), notify.Discard{})
	if err := s.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	failing = true
	if err := s.Fetch(context.Background()); err == nil {
		t.Fatal("expected fetch failure")
	}
	if got := s.Tasks(); !sameIDs(taskIDs(got), []string{"t1"}) {
		t.Errorf("failed fetch must keep previous collection, got %v", taskIDs(got))
	}
	if s.Err() == nil {
		t.Error("expected recorded error")
	}
}

func TestAddAppendsServerEntity(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var draft api.TaskDraft
		_ = json.NewDecoder(r.Body).Decode(&draft)
		created := task("server-id", *draft.Title, api.StatusTodo)
		writeSuccess(w, http.StatusCreated, created)
	}))
	defer ts.Close()

	s := store.NewTaskStore(newClient(t, ts.URL), notify.Discard{})
	created, err := s.Add(context.Background(), api.TaskDraft{Title: api.String("Write report")})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if created.ID != "server-id" {
		t.Errorf("expected server-assigned identity, got %q", created.ID)
	}
	got := s.Tasks()
	if len(got) != 1 || got[0].ID != "server-id" || got[0].Title != "Write report" {
		t.Errorf("expected appended server entity, got %+v", got)
	}
}

func TestFailedAddLeavesCollectionUntouched(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeSuccess(w, http.StatusOK, []api.Task{task("t1", "First", api.StatusTodo)})
		default:
			writeError(w, http.StatusBadRequest, "task title must not be empty")
		}
	}))
	defer ts.Close()

	s := store.NewTaskStore(newClient(t, ts.URL), notify.Discard{})
	if err := s.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if _, err := s.Add(context.Background(), api.TaskDraft{Title: api.String("")}); err == nil {
		t.Fatal("expected create to fail")
	}
	if got := s.Tasks(); !sameIDs(taskIDs(got), []string{"t1"}) {
		t.Errorf("failed create must not touch the collection, got %v", taskIDs(got))
	}
	if s.Err() == nil {
		t.Error("expected recorded error")
	}
}

func TestUpdateReplacesEntityWholesale(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeSuccess(w, http.StatusOK, []api.Task{task("t1", "Old title", api.StatusTodo)})
		case http.MethodPut:
			// The server changed more than the client asked for.
			updated := task("t1", "New title", api.StatusInProgress)
			updated.Category = "server-added"
			writeSuccess(w, http.StatusOK, updated)
		}
	}))
	defer ts.Close()

	s := store.NewTaskStore(newClient(t, ts.URL), notify.Discard{})
	if err := s.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if _, err := s.Update(context.Background(), "t1", api.TaskDraft{Title: api.String("New title")}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, ok := s.Get("t1")
	if !ok {
		t.Fatal("task t1 missing after update")
	}
	if got.Title != "New title" || got.Status != api.StatusInProgress || got.Category != "server-added" {
		t.Errorf("local entity must equal the server response wholesale, got %+v", got)
	}
}

func TestToggleCompletionReplacesEntity(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeSuccess(w, http.StatusOK, []api.Task{task("t1", "First", api.StatusTodo)})
		case http.MethodPatch:
			var body map[string]bool
			_ = json.NewDecoder(r.Body).Decode(&body)
			status := api.StatusTodo
			if body["completed"] {
				status = api.StatusCompleted
			}
			writeSuccess(w, http.StatusOK, task("t1", "First", status))
		}
	}))
	defer ts.Close()

	s := store.NewTaskStore(newClient(t, ts.URL), notify.Discard{})
	if err := s.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	updated, err := s.ToggleCompletion(context.Background(), "t1", true)
	if err != nil {
		t.Fatalf("ToggleCompletion: %v", err)
	}
	if !updated.Done() {
		t.Error("expected toggled task to count as done")
	}
	if got, _ := s.Get("t1"); got.Status != api.StatusCompleted {
		t.Errorf("expected local status completed, got %q", got.Status)
	}
}

func TestDeleteRemovesEntity(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeSuccess(w, http.StatusOK, []api.Task{
				task("t1", "First", api.StatusTodo),
				task("t2", "Second", api.StatusTodo),
			})
		case http.MethodDelete:
			writeSuccess(w, http.StatusOK, map[string]any{})
		}
	}))
	defer ts.Close()

	s := store.NewTaskStore(newClient(t, ts.URL), notify.Discard{})
	if err := s.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if err := s.Delete(context.Background(), "t1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := s.Tasks(); !sameIDs(taskIDs(got), []string{"t2"}) {
		t.Errorf("expected [t2] after delete, got %v", taskIDs(got))
	}
}

func TestReorderAppliesOptimistically(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			writeSuccess(w, http.StatusOK, []api.Task{
				task("a", "A", api.StatusTodo),
				task("b", "B", api.StatusTodo),
				task("c", "C", api.StatusTodo),
			})
		case r.URL.Path == "/tasks/reorder":
			writeSuccess(w, http.StatusOK, map[string]any{})
		}
	}))
	defer ts.Close()

	s := store.NewTaskStore(newClient(t, ts.URL), notify.Discard{})
	if err := s.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if err := s.Reorder(context.Background(), 0, 2); err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	if got := s.Tasks(); !sameIDs(taskIDs(got), []string{"b", "c", "a"}) {
		t.Errorf("expected [b c a], got %v", taskIDs(got))
	}
}

func TestRejectedReorderReconcilesByRefetch(t *testing.T) {
	var listCalls int
	canonical := []api.Task{
		task("a", "A", api.StatusTodo),
		task("b", "B", api.StatusTodo),
		task("c", "C", api.StatusTodo),
	}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			listCalls++
			writeSuccess(w, http.StatusOK, canonical)
		case r.URL.Path == "/tasks/reorder":
			writeError(w, http.StatusConflict, "stale ordering")
		}
	}))
	defer ts.Close()

	s := store.NewTaskStore(newClient(t, ts.URL), notify.Discard{})
	if err := s.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	err := s.Reorder(context.Background(), 0, 2)
	if err == nil {
		t.Fatal("expected rejected reorder to return the error")
	}
	// The optimistic move must not survive: local order agrees with the
	// server's canonical order again.
	if got := s.Tasks(); !sameIDs(taskIDs(got), []string{"a", "b", "c"}) {
		t.Errorf("expected reconciled order [a b c], got %v", taskIDs(got))
	}
	if listCalls != 2 {
		t.Errorf("expected initial fetch + reconcile refetch, got %d list calls", listCalls)
	}
	if s.Err() == nil {
		t.Error("expected the reorder error to be recorded after reconciliation")
	}
}

func TestReorderRejectsOutOfRangeIndices(t *testing.T) {
	var reorderCalls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			writeSuccess(w, http.StatusOK, []api.Task{task("a", "A", api.StatusTodo)})
		case r.URL.Path == "/tasks/reorder":
			reorderCalls++
			writeSuccess(w, http.StatusOK, map[string]any{})
		}
	}))
	defer ts.Close()

	s := store.NewTaskStore(newClient(t, ts.URL), notify.Discard{})
	if err := s.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if err := s.Reorder(context.Background(), 0, 5); err == nil {
		t.Fatal("expected out-of-range reorder to fail")
	}
	if reorderCalls != 0 {
		t.Errorf("expected no request for invalid indices, got %d", reorderCalls)
	}
}

func TestStatsDerivedFromStatus(t *testing.T) {
	done := task("a", "A", api.StatusCompleted)
	// A lying completed flag must not count: status is the source of truth.
	lying := task("b", "B", api.StatusTodo)
	lying.Completed = true
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeSuccess(w, http.StatusOK, []api.Task{done, lying, task("c", "C", api.StatusInProgress), task("d", "D", api.StatusCompleted)})
	}))
	defer ts.Close()

	s := store.NewTaskStore(newClient(t, ts.URL), notify.Discard{})
	if err := s.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	stats := s.Stats()
	if stats.Total != 4 || stats.Completed != 2 || stats.Pending != 2 || stats.CompletionRate != 50 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
