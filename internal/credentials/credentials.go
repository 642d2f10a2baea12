// Package credentials persists the access/refresh token pair between runs.
//
// Tokens are stored as an oauth2.Token JSON file with mode 0600. A file lock
// guards read-modify-write cycles so a refresh in one process cannot clobber
// a login in another.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/oauth2"
)

// ErrNoCredentials is returned by Load when no token file exists.
var ErrNoCredentials = errors.New("not logged in")

const lockRetryInterval = 50 * time.Millisecond

// Store reads and writes the token file.
type Store struct {
	path string

	mu     sync.Mutex
	cached *oauth2.Token
}

// NewStore creates a store for the given token file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the token file location.
func (s *Store) Path() string {
	return s.path
}

// Load returns the stored token pair, or ErrNoCredentials if none exists.
func (s *Store) Load() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil {
		tok := *s.cached
		return &tok, nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoCredentials
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("invalid credentials file: %w", err)
	}
	s.cached = &tok
	out := tok
	return &out, nil
}

// AccessToken returns the stored access token, or "" when not logged in.
func (s *Store) AccessToken() string {
	tok, err := s.Load()
	if err != nil {
		return ""
	}
	return tok.AccessToken
}

// RefreshToken returns the stored refresh token, or "" when not logged in.
func (s *Store) RefreshToken() string {
	tok, err := s.Load()
	if err != nil {
		return ""
	}
	return tok.RefreshToken
}

// Save writes the token pair to disk with mode 0600, holding the file lock
// for the duration of the write.
func (s *Store) Save(ctx context.Context, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}

	lock := flock.New(s.path + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetryInterval)
	if err != nil {
		return fmt.Errorf("lock credentials: %w", err)
	}
	if !locked {
		return errors.New("credentials file is locked by another process")
	}
	defer lock.Unlock()

	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}

	s.mu.Lock()
	copied := *tok
	s.cached = &copied
	s.mu.Unlock()
	return nil
}

// SetAccess replaces only the access token, keeping the refresh token. Used
// by the refresh path, which may receive a new access token alone.
func (s *Store) SetAccess(ctx context.Context, access, refresh string) error {
	tok, err := s.Load()
	if err != nil && !errors.Is(err, ErrNoCredentials) {
		return err
	}
	if tok == nil {
		tok = &oauth2.Token{}
	}
	tok.AccessToken = access
	if refresh != "" {
		tok.RefreshToken = refresh
	}
	return s.Save(ctx, tok)
}

// Clear removes the token file. Missing files are not an error.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}

// Exists reports whether a token file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}
