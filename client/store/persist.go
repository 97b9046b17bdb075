package store

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/crowrepuestos/storefront/client/api"
)

// fileStorage persists an entry list as a JSON file so the store survives
// process restarts. It is used directly in local mode and as a durable
// cache of the last-known server state in remote mode.
type fileStorage struct {
	path   string
	logger *slog.Logger
}

// load reads the persisted entry list. Missing or corrupt files degrade to
// an empty list and are never surfaced to the caller.
func (f *fileStorage) load() []api.Entry {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if !os.IsNotExist(err) {
			f.logger.Debug("read persisted entries failed", slog.String("path", f.path), slog.String("error", err.Error()))
		}
		return nil
	}

	var entries []api.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		f.logger.Debug("persisted entries unparsable, starting empty", slog.String("path", f.path), slog.String("error", err.Error()))
		return nil
	}
	return entries
}

// save writes the entry list atomically (temp file + rename).
func (f *fileStorage) save(entries []api.Entry) error {
	if entries == nil {
		entries = []api.Entry{}
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".entries-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, f.path)
}

// DefaultCartPath returns the conventional cart persistence location.
func DefaultCartPath() (string, error) {
	return defaultPath("cart.json")
}

// DefaultWishlistPath returns the conventional wishlist persistence location.
func DefaultWishlistPath() (string, error) {
	return defaultPath("wishlist.json")
}

func defaultPath(name string) (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "crowrepuestos", name), nil
}
