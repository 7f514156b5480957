package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// CredentialStore keeps the signed-in session in a JSON file so the CLI
// stays authenticated across invocations. The file holds a refresh
// token, so it is created with owner-only permissions.
type CredentialStore struct {
	path string
}

// NewCredentialStore returns a store writing to path.
func NewCredentialStore(path string) *CredentialStore {
	return &CredentialStore{path: path}
}

// Path returns the file the store reads and writes.
func (c *CredentialStore) Path() string { return c.path }

// Load reads the stored session. A missing file is not an error; it
// returns (nil, nil) so callers can treat it as signed out.
func (c *CredentialStore) Load() (*Session, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse credentials %s: %w", c.path, err)
	}
	return &s, nil
}

// Save writes the session, creating parent directories as needed.
func (c *CredentialStore) Save(s Session) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

// Clear removes the stored session. Clearing an empty store is fine.
func (c *CredentialStore) Clear() error {
	err := os.Remove(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
