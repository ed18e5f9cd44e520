// Package session holds the client-side login state.
//
// A [Session] replaces process-wide state: it is loaded once at startup, passed to
// whatever needs the token or theme color, and saved back when it changes.
package session

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/desertthunder/moody/internal/shared"
	"github.com/desertthunder/moody/internal/theme"
	"github.com/spf13/afero"
)

// Session is the persisted state of a logged in client.
type Session struct {
	Token     string    `toml:"token"`
	ExpiresAt time.Time `toml:"expires_at"`
	Email     string    `toml:"email"`
	Username  string    `toml:"username"`
	Color     string    `toml:"color"`
	BaseURL   string    `toml:"base_url"`
}

// LoggedIn reports whether the session carries an unexpired token.
func (s *Session) LoggedIn(now time.Time) bool {
	if s == nil || s.Token == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

// Theme derives the color theme from the session color.
func (s *Session) Theme() theme.Theme {
	if s == nil {
		return theme.Derive("")
	}
	return theme.Derive(s.Color)
}

// SetColor stores c in hex form.
func (s *Session) SetColor(c theme.Color) {
	s.Color = c.Hex()
}

// Logout clears the credentials and keeps the base URL and color.
func (s *Session) Logout() {
	s.Token = ""
	s.ExpiresAt = time.Time{}
	s.Email = ""
	s.Username = ""
}

// Store reads and writes a [Session] file.
type Store struct {
	fs   afero.Fs
	path string
}

// NewStore creates a [Store] for path on fsys. A nil fsys uses the OS filesystem.
func NewStore(fsys afero.Fs, path string) *Store {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Store{fs: fsys, path: shared.ExpandPath(path)}
}

// Path returns the session file location.
func (st *Store) Path() string { return st.path }

// Load reads the session. A missing file yields an empty session.
func (st *Store) Load() (*Session, error) {
	data, err := afero.ReadFile(st.fs, st.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Session{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var s Session
	if _, err := toml.Decode(string(data), &s); err != nil {
		return nil, fmt.Errorf("%w: session file %s: %v", shared.ErrInvalidConfig, st.path, err)
	}
	s.BaseURL = strings.TrimRight(s.BaseURL, "/")
	return &s, nil
}

// Save writes s with owner-only permissions.
func (st *Store) Save(s *Session) error {
	if err := st.fs.MkdirAll(filepath.Dir(st.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(s); err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := afero.WriteFile(st.fs, st.path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

// Clear removes the session file. Removing a missing file is not an error.
func (st *Store) Clear() error {
	if err := st.fs.Remove(st.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}
