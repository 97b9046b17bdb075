// Package api is the HTTP client for the storefront's cart and wishlist
// endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/crowrepuestos/storefront/pkg/httpclient"
)

// RequestError wraps a failed API call with the operation that issued it.
type RequestError struct {
	Op     string
	Status int
	Err    error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// doer abstracts the breaker-wrapped HTTP client so tests can stub transport.
type doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Client issues authenticated cart and wishlist calls against the
// storefront API.
type Client struct {
	baseURL string
	http    doer
	logger  *slog.Logger
}

// New creates a Client for the given base URL, wrapping transport in the
// pooled retrying client and a circuit breaker.
func New(baseURL string, logger *slog.Logger) *Client {
	inner := httpclient.New(httpclient.DefaultConfig())
	breaker := httpclient.NewCircuitBreakerClient(
		inner,
		httpclient.DefaultCircuitBreakerConfig("storefront-api"),
		logger,
	)
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    breaker,
		logger:  logger,
	}
}

// NewWithDoer creates a Client with a custom transport, used in tests.
func NewWithDoer(baseURL string, d doer, logger *slog.Logger) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: d, logger: logger}
}

// FetchCart returns the current server-side cart.
func (c *Client) FetchCart(ctx context.Context, token string) ([]Entry, error) {
	return c.cartCall(ctx, "cart fetch", http.MethodGet, "/api/v1/cart", token, nil)
}

// AddCartItem adds or increments a cart line and returns the canonical cart.
func (c *Client) AddCartItem(ctx context.Context, token, productID string, quantity int) ([]Entry, error) {
	body := map[string]any{"product_id": productID, "quantity": quantity}
	return c.cartCall(ctx, "cart add", http.MethodPost, "/api/v1/cart/items", token, body)
}

// UpdateCartItem sets a cart line's quantity and returns the canonical cart.
func (c *Client) UpdateCartItem(ctx context.Context, token, productID string, quantity int) ([]Entry, error) {
	body := map[string]any{"quantity": quantity}
	return c.cartCall(ctx, "cart update", http.MethodPatch, "/api/v1/cart/items/"+productID, token, body)
}

// RemoveCartItem deletes a cart line and returns the canonical cart.
func (c *Client) RemoveCartItem(ctx context.Context, token, productID string) ([]Entry, error) {
	return c.cartCall(ctx, "cart remove", http.MethodDelete, "/api/v1/cart/items/"+productID, token, nil)
}

// ClearCart empties the server-side cart.
func (c *Client) ClearCart(ctx context.Context, token string) error {
	resp, err := c.do(ctx, "cart clear", http.MethodDelete, "/api/v1/cart", token, nil)
	if err != nil {
		return err
	}
	drainBody(resp)
	return nil
}

// FetchWishlist returns the current server-side wishlist as entries.
func (c *Client) FetchWishlist(ctx context.Context, token string) ([]Entry, error) {
	return c.wishlistCall(ctx, "wishlist fetch", http.MethodGet, "/api/v1/wishlist", token, nil)
}

// AddWishlistItem adds a product to the wishlist. The add is idempotent
// server-side.
func (c *Client) AddWishlistItem(ctx context.Context, token, productID string) ([]Entry, error) {
	body := map[string]any{"product_id": productID}
	return c.wishlistCall(ctx, "wishlist add", http.MethodPost, "/api/v1/wishlist/items", token, body)
}

// RemoveWishlistItem deletes a wishlist entry and returns the canonical list.
func (c *Client) RemoveWishlistItem(ctx context.Context, token, productID string) ([]Entry, error) {
	return c.wishlistCall(ctx, "wishlist remove", http.MethodDelete, "/api/v1/wishlist/items/"+productID, token, nil)
}

// ClearWishlist empties the server-side wishlist.
func (c *Client) ClearWishlist(ctx context.Context, token string) error {
	resp, err := c.do(ctx, "wishlist clear", http.MethodDelete, "/api/v1/wishlist", token, nil)
	if err != nil {
		return err
	}
	drainBody(resp)
	return nil
}

// ContainsWishlist reports whether the product is on the wishlist.
func (c *Client) ContainsWishlist(ctx context.Context, token, productID string) (bool, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/wishlist/items/"+productID, token, nil)
	if err != nil {
		return false, &RequestError{Op: "wishlist contains", Err: err}
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return false, &RequestError{Op: "wishlist contains", Err: err}
	}

	if resp.StatusCode == http.StatusNotFound {
		drainBody(resp)
		return false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, &RequestError{
			Op:     "wishlist contains",
			Status: resp.StatusCode,
			Err:    httpclient.ParseResponseError(resp, "storefront"),
		}
	}
	drainBody(resp)
	return true, nil
}

func (c *Client) cartCall(ctx context.Context, op, method, path, token string, body any) ([]Entry, error) {
	resp, err := c.do(ctx, op, method, path, token, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope[cartPayload]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &RequestError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return env.Data.Items, nil
}

func (c *Client) wishlistCall(ctx context.Context, op, method, path, token string, body any) ([]Entry, error) {
	resp, err := c.do(ctx, op, method, path, token, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope[wishlistPayload]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &RequestError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return env.Data.entries(), nil
}

func (c *Client) do(ctx context.Context, op, method, path, token string, body any) (*http.Response, error) {
	req, err := c.newRequest(ctx, method, path, token, body)
	if err != nil {
		return nil, &RequestError{Op: op, Err: err}
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, &RequestError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RequestError{
			Op:     op,
			Status: resp.StatusCode,
			Err:    httpclient.ParseResponseError(resp, "storefront"),
		}
	}
	return resp, nil
}

func (c *Client) newRequest(ctx context.Context, method, path, token string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func drainBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	_ = resp.Body.Close()
}
