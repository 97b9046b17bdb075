// Package credentials persists the access/refresh token pair for the
// storefront client across sessions.
package credentials

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// TokenPair is the credential identifying an authenticated session.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Source provides the current credential, or nil when the session is
// anonymous. Implementations must never fail: unreadable or corrupt
// storage degrades to nil.
type Source interface {
	Load() *TokenPair
}

// FileStore persists the token pair as a JSON file.
type FileStore struct {
	path string
}

// DefaultPath returns the conventional credential location under the
// user's config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "crowrepuestos", "credentials.json"), nil
}

// NewFileStore creates a store backed by the given file path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the persisted token pair. It returns nil when the file is
// absent, unreadable, unparsable, or holds an empty access token.
func (s *FileStore) Load() *TokenPair {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}

	var pair TokenPair
	if err := json.Unmarshal(data, &pair); err != nil {
		return nil
	}
	if pair.AccessToken == "" {
		return nil
	}
	return &pair
}

// Save overwrites the persisted token pair. The write is atomic: the pair
// is written to a temp file in the same directory and renamed into place.
func (s *FileStore) Save(pair TokenPair) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}

	data, err := json.Marshal(pair)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".credentials-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, s.path)
}

// Clear removes the persisted token pair. A missing file is not an error.
func (s *FileStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
