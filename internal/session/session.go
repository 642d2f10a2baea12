// Package session holds the authenticated user and drives the auth
// lifecycle: login, registration, logout, profile and settings updates, and
// account deletion.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"taskdeck/internal/api"
	"taskdeck/internal/credentials"
	"taskdeck/internal/notify"
)

// State is the auth lifecycle position of the store.
type State int

const (
	Anonymous State = iota
	Authenticating
	Authenticated
	Errored
)

// deleteRedirectDelay keeps the deletion confirmation visible before the
// redirect fires.
const deleteRedirectDelay = 1500 * time.Millisecond

// Store is an explicit, dependency-injected session container. One store is
// active per client instance; it is never a package-level singleton.
type Store struct {
	client   *api.Client
	creds    *credentials.Store
	notifier notify.Notifier

	// redirect is the redirect-to-login primitive supplied by the
	// environment.
	redirect func()

	// profilePath caches the user profile across restarts; empty disables
	// caching.
	profilePath string

	// delay before the post-deletion redirect; overridable in tests.
	redirectDelay time.Duration

	mu      sync.Mutex
	user    *api.User
	state   State
	loading bool
	lastErr error
}

// New creates a session store. The cached profile, if any, is loaded so a
// restarted client stays authenticated as long as its tokens are intact.
func New(client *api.Client, creds *credentials.Store, notifier notify.Notifier, redirect func(), profilePath string) *Store {
	s := &Store{
		client:        client,
		creds:         creds,
		notifier:      notifier,
		redirect:      redirect,
		profilePath:   profilePath,
		redirectDelay: deleteRedirectDelay,
	}
	if user := s.loadCachedProfile(); user != nil && creds.AccessToken() != "" {
		s.user = user
		s.state = Authenticated
	}
	return s
}

// User returns a copy of the current user, or nil when anonymous.
func (s *Store) User() *api.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// State returns the current lifecycle state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Loading reports whether an operation is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the last recorded error.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Authenticated is true iff a non-nil user is held and an access token is
// stored.
func (s *Store) Authenticated() bool {
	s.mu.Lock()
	user := s.user
	s.mu.Unlock()
	return user != nil && s.creds.AccessToken() != ""
}

// Login authenticates with the backend and persists the issued token pair.
// Credential validation (non-empty email/password) is the caller's job.
func (s *Store) Login(ctx context.Context, email, password string) error {
	return s.authenticate(ctx, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "Logged in successfully")
}

// Register creates an account and signs in with the issued token pair.
func (s *Store) Register(ctx context.Context, name, email, password string) error {
	return s.authenticate(ctx, "/auth/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}, "Account created successfully")
}

func (s *Store) authenticate(ctx context.Context, path string, body map[string]string, successMsg string) error {
	s.begin()

	var payload api.AuthPayload
	if err := s.client.Post(ctx, path, body, &payload); err != nil {
		s.fail(err)
		return err
	}
	if payload.Tokens.Access == "" || payload.User.ID == "" {
		err := errors.New("invalid response format from server")
		s.fail(err)
		return err
	}

	if err := s.creds.Save(ctx, &oauth2.Token{
		AccessToken:  payload.Tokens.Access,
		RefreshToken: payload.Tokens.Refresh,
	}); err != nil {
		s.fail(err)
		return err
	}
	s.cacheProfile(&payload.User)

	s.mu.Lock()
	s.user = &payload.User
	s.state = Authenticated
	s.loading = false
	s.lastErr = nil
	s.mu.Unlock()

	s.notifier.Success(successMsg, "")
	return nil
}

// Logout notifies the backend on a best-effort basis, then unconditionally
// clears durable tokens and in-memory state and redirects to the login entry
// point. It never fails from the caller's perspective.
func (s *Store) Logout(ctx context.Context) {
	// Backend notification is optional; local teardown happens regardless.
	_ = s.client.Post(ctx, "/auth/logout", nil, nil)

	_ = s.creds.Clear()
	s.clearCachedProfile()

	s.mu.Lock()
	s.user = nil
	s.state = Anonymous
	s.loading = false
	s.lastErr = nil
	s.mu.Unlock()

	s.notifier.Success("Logged out successfully", "")
	s.redirect()
}

// FetchProfile reads the authoritative profile from the backend and replaces
// the in-memory user and the cached copy.
func (s *Store) FetchProfile(ctx context.Context) (*api.User, error) {
	s.begin()

	var payload struct {
		User api.User `json:"user"`
	}
	if err := s.client.Get(ctx, "/auth/profile", &payload); err != nil {
		s.fail(err)
		return nil, err
	}
	if payload.User.ID == "" {
		err := errors.New("invalid response format from server")
		s.fail(err)
		return nil, err
	}

	s.cacheProfile(&payload.User)
	s.mu.Lock()
	s.user = &payload.User
	s.state = Authenticated
	s.loading = false
	s.lastErr = nil
	s.mu.Unlock()

	user := payload.User
	return &user, nil
}

// UpdateProfile sends a partial profile update and replaces the in-memory
// user only with the server-confirmed object.
func (s *Store) UpdateProfile(ctx context.Context, patch api.UserPatch) error {
	s.begin()

	var updated struct {
		User api.User `json:"user"`
	}
	if err := s.client.Put(ctx, "/auth/profile", patch, &updated); err != nil {
		s.fail(err)
		return err
	}
	if updated.User.ID == "" {
		err := errors.New("invalid response format from server")
		s.fail(err)
		return err
	}

	s.cacheProfile(&updated.User)
	s.mu.Lock()
	s.user = &updated.User
	s.loading = false
	s.lastErr = nil
	s.mu.Unlock()

	s.notifier.Success("Profile updated successfully", "")
	return nil
}

// UpdateSettings sends a partial settings update; on confirmation only the
// settings block of the in-memory user is replaced with the server's copy.
func (s *Store) UpdateSettings(ctx context.Context, patch api.SettingsPatch) error {
	s.begin()

	var settings api.UserSettings
	if err := s.client.Put(ctx, "/auth/settings", patch, &settings); err != nil {
		s.fail(err)
		return err
	}

	s.mu.Lock()
	if s.user == nil {
		s.loading = false
		s.mu.Unlock()
		return errors.New("no active session")
	}
	s.user.Settings = settings
	user := *s.user
	s.loading = false
	s.lastErr = nil
	s.mu.Unlock()

	s.cacheProfile(&user)
	s.notifier.Success("Settings updated successfully", "")
	return nil
}

// DeleteAccount removes the account server-side, then clears all durable and
// in-memory session state and redirects to login after a short delay.
func (s *Store) DeleteAccount(ctx context.Context) error {
	s.begin()

	if err := s.client.Delete(ctx, "/auth/account", nil); err != nil {
		s.fail(err)
		return err
	}

	_ = s.creds.Clear()
	s.clearCachedProfile()

	s.mu.Lock()
	s.user = nil
	s.state = Anonymous
	s.loading = false
	s.lastErr = nil
	s.mu.Unlock()

	s.notifier.Success("Account deleted successfully", "")
	time.Sleep(s.redirectDelay)
	s.redirect()
	return nil
}

// ClearErr discards the last recorded error.
func (s *Store) ClearErr() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = nil
	if s.state == Errored {
		if s.user != nil {
			s.state = Authenticated
		} else {
			s.state = Anonymous
		}
	}
}

func (s *Store) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = true
	s.lastErr = nil
	if s.user == nil {
		s.state = Authenticating
	}
}

func (s *Store) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	s.lastErr = err
	s.state = Errored
}

func (s *Store) cacheProfile(user *api.User) {
	if s.profilePath == "" {
		return
	}
	data, err := json.MarshalIndent(user, "", "  ")
	if err != nil {
		return
	}
	// Best effort: a failed cache write only costs a profile fetch later.
	_ = os.WriteFile(s.profilePath, data, 0600)
}

func (s *Store) loadCachedProfile() *api.User {
	if s.profilePath == "" {
		return nil
	}
	data, err := os.ReadFile(s.profilePath)
	if err != nil {
		return nil
	}
	var user api.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil
	}
	if user.ID == "" {
		return nil
	}
	return &user
}

func (s *Store) clearCachedProfile() {
	if s.profilePath == "" {
		return
	}
	// A stale cache is harmless: with the tokens gone it is ignored on the
	// next start.
	_ = os.Remove(s.profilePath)
}
