package session_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"taskdeck/internal/api"
	"taskdeck/internal/credentials"
	"taskdeck/internal/notify"
	"taskdeck/internal/session"
)

type fixture struct {
	store      *session.Store
	creds      *credentials.Store
	profile    string
	redirected int
}

func newFixture(t *testing.T, baseURL string) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		creds:   credentials.NewStore(filepath.Join(dir, "credentials.json")),
		profile: filepath.Join(dir, "profile.json"),
	}
	client := api.New(baseURL, f.creds)
	f.store = session.New(client, f.creds, notify.Discard{}, func() { f.redirected++ }, f.profile)
	return f
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

func authPayload() api.AuthPayload {
	return api.AuthPayload{
		User:   api.User{ID: "u1", Name: "Dana", Email: "dana@example.com"},
		Tokens: api.TokenPair{Access: "access-1", Refresh: "refresh-1"},
	}
}

func TestLoginPersistsTokensAndProfile(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		writeSuccess(w, http.StatusOK, authPayload())
	}))
	defer ts.Close()

	f := newFixture(t, ts.URL)
	if err := f.store.Login(context.Background(), "dana@example.com", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	if !f.store.Authenticated() {
		t.Error("expected authenticated session after login")
	}
	if f.store.State() != session.Authenticated {
		t.Errorf("expected Authenticated state, got %v", f.store.State())
	}
	if f.creds.AccessToken() != "access-1" || f.creds.RefreshToken() != "refresh-1" {
		t.Errorf("tokens not persisted: access=%q refresh=%q", f.creds.AccessToken(), f.creds.RefreshToken())
	}
	if _, err := os.Stat(f.profile); err != nil {
		t.Errorf("expected cached profile on disk: %v", err)
	}
	if user := f.store.User(); user == nil || user.Email != "dana@example.com" {
		t.Errorf("unexpected user: %+v", user)
	}
}

func TestLoginFailureStaysAnonymous(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
	}))
	defer ts.Close()

	f := newFixture(t, ts.URL)
	if err := f.store.Login(context.Background(), "dana@example.com", "wrong"); err == nil {
		t.Fatal("expected login failure")
	}

	if f.store.Authenticated() {
		t.Error("expected anonymous session after failed login")
	}
	if f.store.State() != session.Errored {
		t.Errorf("expected Errored state, got %v", f.store.State())
	}
	if f.store.Err() == nil {
		t.Error("expected recorded error")
	}
	if f.creds.AccessToken() != "" {
		t.Error("expected no persisted tokens")
	}
}

func TestLoginRejectsPayloadWithoutTokens(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeSuccess(w, http.StatusOK, api.AuthPayload{
			User: api.User{ID: "u1", Name: "Dana", Email: "dana@example.com"},
		})
	}))
	defer ts.Close()

	f := newFixture(t, ts.URL)
	if err := f.store.Login(context.Background(), "dana@example.com", "secret"); err == nil {
		t.Fatal("expected payload without tokens to be rejected")
	}
	if f.store.Authenticated() {
		t.Error("expected anonymous session")
	}
	if f.creds.Exists() {
		t.Error("expected no credentials file")
	}
}

func TestLogoutNeverFails(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			writeSuccess(w, http.StatusOK, authPayload())
		default:
			// The backend refuses the logout call; teardown must proceed
			// regardless.
			writeError(w, http.StatusInternalServerError, "backend down")
		}
	}))
	defer ts.Close()

	f := newFixture(t, ts.URL)
	if err := f.store.Login(context.Background(), "dana@example.com", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	f.store.Logout(context.Background())

	if f.store.Authenticated() {
		t.Error("expected anonymous session after logout")
	}
	if f.store.User() != nil {
		t.Error("expected in-memory user to be cleared")
	}
	if f.creds.Exists() {
		t.Error("expected credentials file to be removed")
	}
	if _, err := os.Stat(f.profile); !os.IsNotExist(err) {
		t.Error("expected cached profile to be removed")
	}
	if f.redirected != 1 {
		t.Errorf("expected 1 redirect, got %d", f.redirected)
	}
}

func TestAuthenticatedRequiresUserAndToken(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeSuccess(w, http.StatusOK, authPayload())
	}))
	defer ts.Close()

	f := newFixture(t, ts.URL)
	if err := f.store.Login(context.Background(), "dana@example.com", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	// User still in memory but tokens gone: no longer authenticated.
	if err := f.creds.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if f.store.Authenticated() {
		t.Error("expected unauthenticated once tokens are gone, even with a user in memory")
	}
}

func TestCachedProfileSurvivesRestart(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeSuccess(w, http.StatusOK, authPayload())
	}))
	defer ts.Close()

	f := newFixture(t, ts.URL)
	if err := f.store.Login(context.Background(), "dana@example.com", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	// A new store over the same files is a client restart.
	client := api.New(ts.URL, f.creds)
	restarted := session.New(client, f.creds, notify.Discard{}, func() {}, f.profile)

	if !restarted.Authenticated() {
		t.Error("expected restarted client to stay authenticated")
	}
	if user := restarted.User(); user == nil || user.ID != "u1" {
		t.Errorf("expected cached profile, got %+v", user)
	}
}

func TestUpdateSettingsReplacesOnlySettingsBlock(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			writeSuccess(w, http.StatusOK, authPayload())
		case "/auth/settings":
			writeSuccess(w, http.StatusOK, api.UserSettings{
				Theme:          "dark",
				EmailFrequency: "weekly",
				Language:       "en",
				Timezone:       "UTC",
			})
		}
	}))
	defer ts.Close()

	f := newFixture(t, ts.URL)
	if err := f.store.Login(context.Background(), "dana@example.com", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	err := f.store.UpdateSettings(context.Background(), api.SettingsPatch{Theme: api.String("dark")})
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}

	user := f.store.User()
	if user == nil {
		t.Fatal("expected user")
	}
	if user.Settings.Theme != "dark" || user.Settings.EmailFrequency != "weekly" {
		t.Errorf("expected server settings block, got %+v", user.Settings)
	}
	if user.Name != "Dana" || user.Email != "dana@example.com" {
		t.Errorf("profile fields must be untouched, got %+v", user)
	}
}

func TestDeleteAccountClearsEverything(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			writeSuccess(w, http.StatusOK, authPayload())
		case "/auth/account":
			writeSuccess(w, http.StatusOK, map[string]any{})
		}
	}))
	defer ts.Close()

	f := newFixture(t, ts.URL)
	if err := f.store.Login(context.Background(), "dana@example.com", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := f.store.DeleteAccount(context.Background()); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}

	if f.store.Authenticated() {
		t.Error("expected anonymous session after account deletion")
	}
	if f.creds.Exists() {
		t.Error("expected credentials file to be removed")
	}
	if f.redirected != 1 {
		t.Errorf("expected 1 redirect, got %d", f.redirected)
	}
}
