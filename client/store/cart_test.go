package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crowrepuestos/storefront/client/api"
	"github.com/crowrepuestos/storefront/client/credentials"
	"github.com/crowrepuestos/storefront/pkg/httpclient"
)

// memCredentials is a swappable in-memory credential source.
type memCredentials struct {
	pair *credentials.TokenPair
}

func (m *memCredentials) Load() *credentials.TokenPair { return m.pair }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func testAPIClient(t *testing.T, baseURL string) *api.Client {
	t.Helper()
	// No retries so failure-path tests fail fast instead of backing off.
	cfg := httpclient.Config{
		Timeout:         5 * time.Second,
		MaxRetries:      0,
		MaxConnsPerHost: 10,
	}
	return api.NewWithDoer(baseURL, httpclient.New(cfg), discardLogger())
}

func newTestCart(t *testing.T, creds credentials.Source, apiClient *api.Client) *CartStore {
	t.Helper()
	return NewCart(Config{
		Credentials: creds,
		API:         apiClient,
		FilePath:    filepath.Join(t.TempDir(), "cart.json"),
		Logger:      discardLogger(),
	})
}

func product(id string, price int64) api.Product {
	return api.Product{ID: id, Name: "part " + id, Price: price, Stock: 10}
}

func writeCartJSON(t *testing.T, entries []api.Entry) string {
	t.Helper()
	data, err := json.Marshal(map[string]any{"data": map[string]any{"items": entries}})
	require.NoError(t, err)
	return string(data)
}

func TestCartAdd_SameProductIncrements(t *testing.T) {
	cart := newTestCart(t, &memCredentials{}, nil)
	ctx := context.Background()

	require.NoError(t, cart.Add(ctx, product("A", 1000), 1))
	require.NoError(t, cart.Add(ctx, product("A", 1000), 2))

	entries := cart.Entries()
	require.Len(t, entries, 1, "same product must never duplicate")
	assert.Equal(t, 3, entries[0].Quantity)
}

func TestCartUpdateQuantity_NonPositiveRemoves(t *testing.T) {
	cart := newTestCart(t, &memCredentials{}, nil)
	ctx := context.Background()

	require.NoError(t, cart.Add(ctx, product("A", 1000), 2))

	require.NoError(t, cart.UpdateQuantity(ctx, "A", 0))
	assert.Empty(t, cart.Entries())
	assert.Equal(t, 0, cart.ItemQuantity("A"))

	require.NoError(t, cart.Add(ctx, product("A", 1000), 2))
	require.NoError(t, cart.UpdateQuantity(ctx, "A", -5))
	assert.Empty(t, cart.Entries())
}

func TestCartScenario_AnonymousAddRemove(t *testing.T) {
	cart := newTestCart(t, &memCredentials{}, nil)
	ctx := context.Background()

	require.NoError(t, cart.Add(ctx, product("A", 85000), 1))
	require.Len(t, cart.Entries(), 1)
	assert.Equal(t, 1, cart.ItemQuantity("A"))

	require.NoError(t, cart.Add(ctx, product("A", 85000), 2))
	assert.Equal(t, 3, cart.ItemQuantity("A"))

	require.NoError(t, cart.UpdateQuantity(ctx, "A", 0))
	assert.Empty(t, cart.Entries())
}

func TestCartTotals(t *testing.T) {
	cart := newTestCart(t, &memCredentials{}, nil)
	ctx := context.Background()

	require.NoError(t, cart.Add(ctx, product("X", 50000), 2))
	require.NoError(t, cart.Add(ctx, product("Y", 15000), 1))

	assert.Equal(t, int64(115000), cart.TotalPrice())
	assert.Equal(t, 3, cart.TotalItems())
}

func TestCartTotalPrice_Invariant(t *testing.T) {
	cart := newTestCart(t, &memCredentials{}, nil)
	ctx := context.Background()

	require.NoError(t, cart.Add(ctx, product("brake-pad", 85000), 2))
	require.NoError(t, cart.Add(ctx, product("air-filter", 250000), 1))

	assert.Equal(t, int64(420000), cart.TotalPrice())
}

func TestCartLocalMode_NoNetworkCalls(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cart := newTestCart(t, &memCredentials{}, testAPIClient(t, server.URL))
	ctx := context.Background()

	cart.Load(ctx)
	require.NoError(t, cart.Add(ctx, product("A", 1000), 1))
	require.NoError(t, cart.UpdateQuantity(ctx, "A", 5))
	require.NoError(t, cart.Remove(ctx, "A"))
	require.NoError(t, cart.Clear(ctx))

	assert.Equal(t, int64(0), calls.Load(), "anonymous operations must not touch the network")
}

func TestCartRemoteMode_OneCallPerMutation(t *testing.T) {
	serverList := []api.Entry{
		{Product: product("S1", 70000), Quantity: 4},
		{Product: product("S2", 12000), Quantity: 1},
	}

	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, writeCartJSON(t, serverList))
	}))
	defer server.Close()

	creds := &memCredentials{pair: &credentials.TokenPair{AccessToken: "tok"}}
	cart := newTestCart(t, creds, testAPIClient(t, server.URL))
	ctx := context.Background()

	require.NoError(t, cart.Add(ctx, product("A", 1000), 1))
	assert.Equal(t, int64(1), calls.Load())

	// Replacement semantics: the list is exactly the server's response,
	// not a locally computed approximation.
	assert.Equal(t, serverList, cart.Entries())

	require.NoError(t, cart.UpdateQuantity(ctx, "S1", 2))
	assert.Equal(t, int64(2), calls.Load())

	require.NoError(t, cart.Remove(ctx, "S2"))
	assert.Equal(t, int64(3), calls.Load())
}

func TestCartModeSwitch_MidSession(t *testing.T) {
	serverList := []api.Entry{{Product: product("remote", 9000), Quantity: 1}}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, writeCartJSON(t, serverList))
	}))
	defer server.Close()

	creds := &memCredentials{}
	cart := newTestCart(t, creds, testAPIClient(t, server.URL))
	ctx := context.Background()

	require.NoError(t, cart.Add(ctx, product("local", 1000), 1))
	assert.Equal(t, 1, cart.ItemQuantity("local"))

	// Logging in mid-session flips subsequent operations to remote mode.
	creds.pair = &credentials.TokenPair{AccessToken: "tok"}

	require.NoError(t, cart.Add(ctx, product("remote", 9000), 1))
	assert.Equal(t, serverList, cart.Entries())
	assert.Equal(t, 0, cart.ItemQuantity("local"))
}

func TestCartRemoteFailure_KeepsLastKnownGood(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"error":{"code":"OUT_OF_STOCK","message":"product A has insufficient stock"}}`)
	}))
	defer server.Close()

	creds := &memCredentials{}
	cart := newTestCart(t, creds, testAPIClient(t, server.URL))
	ctx := context.Background()

	require.NoError(t, cart.Add(ctx, product("A", 1000), 1))
	before := cart.Entries()

	creds.pair = &credentials.TokenPair{AccessToken: "tok"}
	err := cart.Add(ctx, product("B", 2000), 1)
	require.Error(t, err, "mutation failures propagate to the caller")
	assert.Equal(t, before, cart.Entries(), "failed mutation leaves the list unchanged")
}

func TestCartLoad_SwallowsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	creds := &memCredentials{pair: &credentials.TokenPair{AccessToken: "tok"}}
	cart := newTestCart(t, creds, testAPIClient(t, server.URL))

	cart.Load(context.Background())
	assert.Empty(t, cart.Entries())
}

func TestCartPersistence_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.json")
	cfg := Config{
		Credentials: &memCredentials{},
		FilePath:    path,
		Logger:      discardLogger(),
	}
	ctx := context.Background()

	first := NewCart(cfg)
	require.NoError(t, first.Add(ctx, product("A", 85000), 2))
	require.NoError(t, first.Add(ctx, product("B", 250000), 1))

	second := NewCart(cfg)
	assert.Equal(t, first.Entries(), second.Entries())
	assert.Equal(t, int64(420000), second.TotalPrice())
}

func TestCartPersistence_EmptyRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.json")
	cfg := Config{
		Credentials: &memCredentials{},
		FilePath:    path,
		Logger:      discardLogger(),
	}
	ctx := context.Background()

	first := NewCart(cfg)
	require.NoError(t, first.Add(ctx, product("A", 1000), 1))
	require.NoError(t, first.Clear(ctx))

	second := NewCart(cfg)
	assert.Empty(t, second.Entries())
}

func TestCartPersistence_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.json")
	require.NoError(t, os.WriteFile(path, []byte("{{{not json"), 0o600))

	cart := NewCart(Config{
		Credentials: &memCredentials{},
		FilePath:    path,
		Logger:      discardLogger(),
	})
	assert.Empty(t, cart.Entries())
}

func TestCartPushLocal(t *testing.T) {
	serverEntries := []api.Entry{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			var body struct {
				ProductID string `json:"product_id"`
				Quantity  int    `json:"quantity"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			serverEntries = append(serverEntries, api.Entry{
				Product:  product(body.ProductID, 1000),
				Quantity: body.Quantity,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, writeCartJSON(t, serverEntries))
	}))
	defer server.Close()

	creds := &memCredentials{}
	cart := newTestCart(t, creds, testAPIClient(t, server.URL))
	ctx := context.Background()

	require.NoError(t, cart.Add(ctx, product("A", 1000), 2))
	require.NoError(t, cart.Add(ctx, product("B", 1000), 1))

	creds.pair = &credentials.TokenPair{AccessToken: "tok"}
	require.NoError(t, cart.PushLocal(ctx))

	entries := cart.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, 2, cart.ItemQuantity("A"))
	assert.Equal(t, 1, cart.ItemQuantity("B"))
}

func TestCartPushLocal_RequiresCredential(t *testing.T) {
	cart := newTestCart(t, &memCredentials{}, nil)
	assert.Error(t, cart.PushLocal(context.Background()))
}

func TestCartOnChange(t *testing.T) {
	var notified atomic.Int64
	cart := NewCart(Config{
		Credentials: &memCredentials{},
		FilePath:    filepath.Join(t.TempDir(), "cart.json"),
		Logger:      discardLogger(),
		OnChange:    func() { notified.Add(1) },
	})
	ctx := context.Background()

	require.NoError(t, cart.Add(ctx, product("A", 1000), 1))
	require.NoError(t, cart.Remove(ctx, "A"))
	assert.Equal(t, int64(2), notified.Load())
}

// blockingBackend lets a test hold one mutation's response until another
// operation has been issued. entered is closed when Add reaches the backend.
type blockingBackend struct {
	entered chan struct{}
	release chan struct{}
	result  []api.Entry
}

func (b *blockingBackend) Fetch(context.Context, []api.Entry) ([]api.Entry, error) {
	return b.result, nil
}

func (b *blockingBackend) Add(context.Context, []api.Entry, api.Product, int) ([]api.Entry, error) {
	if b.entered != nil {
		close(b.entered)
	}
	if b.release != nil {
		<-b.release
	}
	return b.result, nil
}

func (b *blockingBackend) UpdateQuantity(context.Context, []api.Entry, string, int) ([]api.Entry, error) {
	return b.result, nil
}

func (b *blockingBackend) Remove(context.Context, []api.Entry, string) ([]api.Entry, error) {
	return b.result, nil
}

func (b *blockingBackend) Clear(context.Context) ([]api.Entry, error) {
	return b.result, nil
}

func TestCartStaleResponseDropped(t *testing.T) {
	slow := &blockingBackend{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		result:  []api.Entry{{Product: product("stale", 1), Quantity: 1}},
	}
	fresh := []api.Entry{{Product: product("fresh", 1), Quantity: 9}}

	creds := &memCredentials{pair: &credentials.TokenPair{AccessToken: "tok"}}
	cart := newTestCart(t, creds, nil)

	backends := make(chan Backend, 2)
	backends <- slow
	backends <- &blockingBackend{result: fresh}
	cart.resourceStore.remote = func(string) Backend { return <-backends }

	ctx := context.Background()
	done := make(chan error, 1)
	go func() { done <- cart.Add(ctx, product("stale", 1), 1) }()
	<-slow.entered

	// A second operation is issued while the first is still in flight; its
	// response applies immediately.
	require.NoError(t, cart.Remove(ctx, "anything"))
	assert.Equal(t, fresh, cart.Entries())

	close(slow.release)
	require.NoError(t, <-done)

	// The first operation's response resolved last and must be dropped.
	assert.Equal(t, fresh, cart.Entries())
}
