// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"taskdeck/internal/app"
	"taskdeck/internal/config"
	"taskdeck/internal/devserver"
)

// StartBackend runs a development backend on an in-memory database and
// returns its test server. Cleanup is registered on t.
func StartBackend(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := devserver.Open(":memory:", logger)
	if err != nil {
		t.Fatalf("open backend store: %v", err)
	}

	ts := httptest.NewServer(devserver.New(store, logger).Engine())
	t.Cleanup(func() {
		ts.Close()
		_ = store.Close()
	})
	return ts
}

// Harness is a fully wired client instance pointed at an in-memory backend.
type Harness struct {
	Cfg     *config.Config
	App     *app.App
	Backend *httptest.Server

	// Redirected counts redirect-to-login invocations.
	Redirected int
}

// NewHarness builds a client over a fresh backend with an isolated config
// directory.
func NewHarness(t *testing.T) *Harness {
	t.Helper()

	backend := StartBackend(t)
	cfg := &config.Config{
		Dir: t.TempDir(),
		Settings: config.Settings{
			BaseURL: backend.URL + "/api",
			Timeout: 5 * time.Second,
		},
	}

	h := &Harness{Cfg: cfg, Backend: backend}
	h.App = app.New(cfg, func() { h.Redirected++ })
	return h
}

// SignUp registers an account through the session store so the harness holds
// live credentials.
func (h *Harness) SignUp(t *testing.T, name, email, password string) {
	t.Helper()
	if err := h.App.Session.Register(context.Background(), name, email, password); err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
}
