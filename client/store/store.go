// Package store holds the client-side cart and wishlist state. Each store
// owns its entry list, decides between local and remote operation per call
// based on credential presence, and persists the list after every change.
package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/crowrepuestos/storefront/client/api"
	"github.com/crowrepuestos/storefront/client/credentials"
)

// Config carries the dependencies a store needs. All fields except OnChange
// are required.
type Config struct {
	// Credentials is consulted on every operation to decide local vs
	// remote mode.
	Credentials credentials.Source

	// API is the remote client used in remote mode.
	API *api.Client

	// FilePath is where the entry list is persisted between sessions.
	FilePath string

	Logger *slog.Logger

	// OnChange, if set, is invoked after each list replacement. It runs
	// outside the store's lock.
	OnChange func()
}

// resourceStore is the state container shared by CartStore and
// WishlistStore. The entry list is replaced atomically under the mutex, so
// readers observe either the pre- or post-mutation list, never a partial
// one. The sequence counter drops remote responses that resolve after a
// later operation was issued.
type resourceStore struct {
	mu      sync.Mutex
	entries []api.Entry
	seq     uint64

	name     string
	creds    credentials.Source
	local    Backend
	remote   func(token string) Backend
	storage  *fileStorage
	logger   *slog.Logger
	onChange func()
}

func newResourceStore(name string, cfg Config, local Backend, remote func(token string) Backend) *resourceStore {
	s := &resourceStore{
		name:     name,
		creds:    cfg.Credentials,
		local:    local,
		remote:   remote,
		storage:  &fileStorage{path: cfg.FilePath, logger: cfg.Logger},
		logger:   cfg.Logger,
		onChange: cfg.OnChange,
	}
	s.entries = s.storage.load()
	return s
}

// backend picks local or remote mode based on the current credential.
// Mode is re-evaluated on every call, never cached.
func (s *resourceStore) backend() (Backend, bool) {
	if pair := s.creds.Load(); pair != nil {
		return s.remote(pair.AccessToken), true
	}
	return s.local, false
}

// mutate runs one operation against the chosen backend and replaces the
// entry list with the result. The backend call happens outside the lock;
// the result is applied only if no later operation was issued meanwhile.
func (s *resourceStore) mutate(ctx context.Context, op string, fn func(b Backend, current []api.Entry) ([]api.Entry, error)) error {
	s.mu.Lock()
	s.seq++
	issued := s.seq
	current := s.snapshotLocked()
	backend, _ := s.backend()
	s.mu.Unlock()

	next, err := fn(backend, current)
	if err != nil {
		return err
	}

	s.apply(ctx, op, issued, next)
	return nil
}

func (s *resourceStore) apply(ctx context.Context, op string, issued uint64, next []api.Entry) {
	s.mu.Lock()
	if s.seq != issued {
		s.mu.Unlock()
		s.logger.DebugContext(ctx, "stale response dropped",
			slog.String("store", s.name),
			slog.String("operation", op),
		)
		return
	}
	s.entries = next
	if err := s.storage.save(next); err != nil {
		s.logger.WarnContext(ctx, "persist entries failed",
			slog.String("store", s.name),
			slog.String("error", err.Error()),
		)
	}
	s.mu.Unlock()

	if s.onChange != nil {
		s.onChange()
	}
}

func (s *resourceStore) snapshotLocked() []api.Entry {
	return append([]api.Entry(nil), s.entries...)
}

// load refreshes the list from the backend. In local mode the list is
// already resident so this is a no-op. Remote failures are swallowed and
// logged; the last-known list stays authoritative.
func (s *resourceStore) load(ctx context.Context) {
	s.mu.Lock()
	s.seq++
	issued := s.seq
	backend, isRemote := s.backend()
	s.mu.Unlock()

	if !isRemote {
		return
	}

	next, err := backend.Fetch(ctx, nil)
	if err != nil {
		s.logger.WarnContext(ctx, "load failed, keeping current list",
			slog.String("store", s.name),
			slog.String("error", err.Error()),
		)
		return
	}

	s.apply(ctx, "load", issued, next)
}

// pushLocal uploads the locally held entries to the backend and replaces
// the list with the server's final view. Used after login to carry an
// anonymous session's entries over; it is never triggered automatically.
func (s *resourceStore) pushLocal(ctx context.Context) error {
	pair := s.creds.Load()
	if pair == nil {
		return errLoginRequired
	}
	backend := s.remote(pair.AccessToken)

	s.mu.Lock()
	s.seq++
	issued := s.seq
	current := s.snapshotLocked()
	s.mu.Unlock()

	next, err := backend.Fetch(ctx, nil)
	if err != nil {
		return err
	}
	for _, entry := range current {
		next, err = backend.Add(ctx, next, entry.Product, entry.Quantity)
		if err != nil {
			return err
		}
	}

	s.apply(ctx, "push_local", issued, next)
	return nil
}

// Entries returns a copy of the current list.
func (s *resourceStore) Entries() []api.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// TotalPrice is the sum of unit price times quantity over all entries.
func (s *resourceStore) TotalPrice() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for _, entry := range s.entries {
		total += entry.Product.Price * int64(entry.Quantity)
	}
	return total
}

// TotalItems is the sum of quantities over all entries.
func (s *resourceStore) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int
	for _, entry := range s.entries {
		total += entry.Quantity
	}
	return total
}

// ItemQuantity returns the quantity of the matching entry, or 0.
func (s *resourceStore) ItemQuantity(productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range s.entries {
		if entry.Product.ID == productID {
			return entry.Quantity
		}
	}
	return 0
}

// Contains reports whether the product has an entry in the list.
func (s *resourceStore) Contains(productID string) bool {
	return s.ItemQuantity(productID) > 0
}
