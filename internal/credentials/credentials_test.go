package credentials_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/oauth2"

	"taskdeck/internal/credentials"
)

func newStore(t *testing.T) *credentials.Store {
	t.Helper()
	return credentials.NewStore(filepath.Join(t.TempDir(), "credentials.json"))
}

func TestSaveAndLoad(t *testing.T) {
	s := newStore(t)
	tok := &oauth2.Token{AccessToken: "access-1", RefreshToken: "refresh-1"}
	if err := s.Save(context.Background(), tok); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.AccessToken != "access-1" || loaded.RefreshToken != "refresh-1" {
		t.Errorf("unexpected token: %+v", loaded)
	}

	info, err := os.Stat(s.Path())
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("expected file mode 0600, got %o", perm)
	}
}

func TestLoadWithoutFileReturnsErrNoCredentials(t *testing.T) {
	s := newStore(t)
	if _, err := s.Load(); !errors.Is(err, credentials.ErrNoCredentials) {
		t.Errorf("expected ErrNoCredentials, got %v", err)
	}
	if s.AccessToken() != "" || s.RefreshToken() != "" {
		t.Error("expected empty tokens without a file")
	}
}

func TestSetAccessKeepsRefreshToken(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	if err := s.Save(ctx, &oauth2.Token{AccessToken: "old-access", RefreshToken: "refresh-1"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Refresh responses may omit the rotated refresh token.
	if err := s.SetAccess(ctx, "new-access", ""); err != nil {
		t.Fatalf("SetAccess: %v", err)
	}
	if s.AccessToken() != "new-access" {
		t.Errorf("expected new access token, got %q", s.AccessToken())
	}
	if s.RefreshToken() != "refresh-1" {
		t.Errorf("expected refresh token to survive, got %q", s.RefreshToken())
	}

	if err := s.SetAccess(ctx, "newer-access", "refresh-2"); err != nil {
		t.Fatalf("SetAccess: %v", err)
	}
	if s.RefreshToken() != "refresh-2" {
		t.Errorf("expected rotated refresh token, got %q", s.RefreshToken())
	}
}

func TestClearRemovesFile(t *testing.T) {
	s := newStore(t)
	if err := s.Save(context.Background(), &oauth2.Token{AccessToken: "access-1"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if s.Exists() {
		t.Error("expected credentials file to be gone")
	}
	if s.AccessToken() != "" {
		t.Error("expected no cached token after Clear")
	}

	// Clearing again is not an error.
	if err := s.Clear(); err != nil {
		t.Errorf("Clear on missing file: %v", err)
	}
}
