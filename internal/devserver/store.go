// Package devserver implements a self-contained development backend that
// speaks the same wire contract as the hosted taskdeck API.
package devserver

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"taskdeck/internal/api"
)

// Token lifetimes. Access tokens are deliberately short so the client's
// refresh path gets exercised during development.
const (
	accessTTL  = 15 * time.Minute
	refreshTTL = 7 * 24 * time.Hour
)

// Sentinel errors mapped to HTTP statuses by the handlers.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("already exists")
	ErrInvalid      = errors.New("invalid input")
)

// account is a user row including the credential columns the API never
// exposes.
type account struct {
	api.User
	passwordHash string
	salt         string
}

// Store wraps access to the SQLite database and exposes high level helpers.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open initializes a new SQLite store and runs the required migrations.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("empty database path")
	}
	if logger == nil {
		logger = slog.Default()
	}

	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=ON", dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	s := &Store{db: conn, logger: logger}
	if err := s.migrate(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            email TEXT NOT NULL UNIQUE,
            password_hash TEXT NOT NULL,
            salt TEXT NOT NULL,
            avatar TEXT NOT NULL DEFAULT '',
            bio TEXT NOT NULL DEFAULT '',
            phone TEXT NOT NULL DEFAULT '',
            location TEXT NOT NULL DEFAULT '',
            role TEXT NOT NULL DEFAULT 'member',
            settings TEXT NOT NULL DEFAULT '{}',
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS sessions (
            token TEXT PRIMARY KEY,
            user_id TEXT NOT NULL,
            kind TEXT NOT NULL,
            expires_at DATETIME NOT NULL,
            FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
        );`,
		`CREATE TABLE IF NOT EXISTS tasks (
            id TEXT PRIMARY KEY,
            user_id TEXT NOT NULL,
            title TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL DEFAULT 'todo',
            priority TEXT NOT NULL DEFAULT 'medium',
            category TEXT NOT NULL DEFAULT '',
            tags TEXT NOT NULL DEFAULT '[]',
            due_date DATETIME,
            position INTEGER NOT NULL DEFAULT 0,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
        );`,
		`CREATE TABLE IF NOT EXISTS projects (
            id TEXT PRIMARY KEY,
            user_id TEXT NOT NULL,
            title TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            icon TEXT NOT NULL DEFAULT '',
            icon_color TEXT NOT NULL DEFAULT '',
            color TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL DEFAULT 'planning',
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
        );`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id, position);`,
		`CREATE INDEX IF NOT EXISTS idx_projects_user ON projects(user_id);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// --- users ---

func defaultSettings() api.UserSettings {
	return api.UserSettings{
		Theme:              "system",
		EmailNotifications: true,
		EmailFrequency:     "daily",
		Language:           "en",
		Timezone:           "UTC",
	}
}

// CreateUser registers a new account with hashed credentials.
func (s *Store) CreateUser(ctx context.Context, name, email, password string) (api.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return api.User{}, fmt.Errorf("%w: name, email and password are required", ErrInvalid)
	}

	salt := randomToken(16)
	settings, err := json.Marshal(defaultSettings())
	if err != nil {
		return api.User{}, err
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users(id, name, email, password_hash, salt, settings) VALUES(?, ?, ?, ?, ?, ?)`,
		id, name, email, hashPassword(password, salt), salt, string(settings))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return api.User{}, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return api.User{}, fmt.Errorf("insert user: %w", err)
	}

	acct, err := s.userByID(ctx, id)
	if err != nil {
		return api.User{}, err
	}
	return acct.User, nil
}

// Authenticate verifies an email and password pair.
func (s *Store) Authenticate(ctx context.Context, email, password string) (api.User, error) {
	acct, err := s.userByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return api.User{}, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	}
	computed := hashPassword(password, acct.salt)
	if subtle.ConstantTimeCompare([]byte(computed), []byte(acct.passwordHash)) != 1 {
		return api.User{}, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	}
	return acct.User, nil
}

// UserByID fetches the public profile for an id.
func (s *Store) UserByID(ctx context.Context, id string) (api.User, error) {
	acct, err := s.userByID(ctx, id)
	if err != nil {
		return api.User{}, err
	}
	return acct.User, nil
}

func (s *Store) userByID(ctx context.Context, id string) (account, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, salt, avatar, bio, phone, location, role, settings, created_at
         FROM users WHERE id = ?`, id))
}

func (s *Store) userByEmail(ctx context.Context, email string) (account, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, salt, avatar, bio, phone, location, role, settings, created_at
         FROM users WHERE email = ?`, email))
}

func (s *Store) scanUser(row *sql.Row) (account, error) {
	var acct account
	var settings string
	err := row.Scan(&acct.ID, &acct.Name, &acct.Email, &acct.passwordHash, &acct.salt,
		&acct.Avatar, &acct.Bio, &acct.Phone, &acct.Location, &acct.Role, &settings, &acct.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return account{}, fmt.Errorf("%w: user", ErrNotFound)
	}
	if err != nil {
		return account{}, fmt.Errorf("scan user: %w", err)
	}
	if err := json.Unmarshal([]byte(settings), &acct.Settings); err != nil {
		acct.Settings = defaultSettings()
	}
	return acct, nil
}

// UpdateUser applies a partial profile update and returns the new profile.
func (s *Store) UpdateUser(ctx context.Context, id string, patch api.UserPatch) (api.User, error) {
	acct, err := s.userByID(ctx, id)
	if err != nil {
		return api.User{}, err
	}

	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	apply(&acct.Name, patch.Name)
	apply(&acct.Bio, patch.Bio)
	apply(&acct.Phone, patch.Phone)
	apply(&acct.Location, patch.Location)
	apply(&acct.Avatar, patch.Avatar)
	if patch.Email != nil {
		acct.Email = strings.ToLower(strings.TrimSpace(*patch.Email))
	}
	if acct.Name == "" || acct.Email == "" {
		return api.User{}, fmt.Errorf("%w: name and email must not be empty", ErrInvalid)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE users SET name = ?, email = ?, avatar = ?, bio = ?, phone = ?, location = ? WHERE id = ?`,
		acct.Name, acct.Email, acct.Avatar, acct.Bio, acct.Phone, acct.Location, id)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return api.User{}, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return api.User{}, fmt.Errorf("update user: %w", err)
	}
	return acct.User, nil
}

// UpdateSettings applies a partial settings update and returns the full
// settings block.
func (s *Store) UpdateSettings(ctx context.Context, id string, patch api.SettingsPatch) (api.UserSettings, error) {
	acct, err := s.userByID(ctx, id)
	if err != nil {
		return api.UserSettings{}, err
	}

	settings := acct.Settings
	if patch.Theme != nil {
		settings.Theme = *patch.Theme
	}
	if patch.CompactMode != nil {
		settings.CompactMode = *patch.CompactMode
	}
	if patch.DesktopNotifications != nil {
		settings.DesktopNotifications = *patch.DesktopNotifications
	}
	if patch.EmailNotifications != nil {
		settings.EmailNotifications = *patch.EmailNotifications
	}
	if patch.EmailFrequency != nil {
		settings.EmailFrequency = *patch.EmailFrequency
	}
	if patch.Language != nil {
		settings.Language = *patch.Language
	}
	if patch.Timezone != nil {
		settings.Timezone = *patch.Timezone
	}

	encoded, err := json.Marshal(settings)
	if err != nil {
		return api.UserSettings{}, err
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE users SET settings = ? WHERE id = ?`, string(encoded), id); err != nil {
		return api.UserSettings{}, fmt.Errorf("update settings: %w", err)
	}
	return settings, nil
}

// DeleteUser removes the account and everything owned by it.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: user", ErrNotFound)
	}
	return nil
}

// --- sessions ---

// IssueTokens mints a fresh access and refresh token pair for a user.
func (s *Store) IssueTokens(ctx context.Context, userID string) (api.TokenPair, error) {
	pair := api.TokenPair{
		Access:  randomToken(32),
		Refresh: randomToken(32),
	}
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return api.TokenPair{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sessions(token, user_id, kind, expires_at) VALUES(?, ?, 'access', ?)`,
		pair.Access, userID, now.Add(accessTTL)); err != nil {
		return api.TokenPair{}, fmt.Errorf("insert access token: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sessions(token, user_id, kind, expires_at) VALUES(?, ?, 'refresh', ?)`,
		pair.Refresh, userID, now.Add(refreshTTL)); err != nil {
		return api.TokenPair{}, fmt.Errorf("insert refresh token: %w", err)
	}
	return pair, tx.Commit()
}

// Rotate exchanges a refresh token for a fresh pair. The old refresh token is
// revoked so it can be used exactly once.
func (s *Store) Rotate(ctx context.Context, refreshToken string) (api.TokenPair, error) {
	var userID string
	var expires time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, expires_at FROM sessions WHERE token = ? AND kind = 'refresh'`, refreshToken).
		Scan(&userID, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return api.TokenPair{}, fmt.Errorf("%w: unknown refresh token", ErrUnauthorized)
	}
	if err != nil {
		return api.TokenPair{}, fmt.Errorf("lookup refresh token: %w", err)
	}
	if time.Now().After(expires) {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, refreshToken)
		return api.TokenPair{}, fmt.Errorf("%w: refresh token expired", ErrUnauthorized)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, refreshToken); err != nil {
		return api.TokenPair{}, fmt.Errorf("revoke refresh token: %w", err)
	}
	return s.IssueTokens(ctx, userID)
}

// UserForAccess resolves a bearer token to the owning user id.
func (s *Store) UserForAccess(ctx context.Context, token string) (string, error) {
	var userID string
	var expires time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, expires_at FROM sessions WHERE token = ? AND kind = 'access'`, token).
		Scan(&userID, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: unknown access token", ErrUnauthorized)
	}
	if err != nil {
		return "", fmt.Errorf("lookup access token: %w", err)
	}
	if time.Now().After(expires) {
		return "", fmt.Errorf("%w: access token expired", ErrUnauthorized)
	}
	return userID, nil
}

// RevokeSessions drops every session the user holds.
func (s *Store) RevokeSessions(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	return nil
}

// hashPassword is a salted digest good enough for a local development
// backend. TODO: swap in bcrypt if this server ever fronts shared data.
func hashPassword(password, salt string) string {
	sum := sha256.Sum256([]byte(salt + ":" + password))
	return hex.EncodeToString(sum[:])
}

func randomToken(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	return hex.EncodeToString(buf)
}
