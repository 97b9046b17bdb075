package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

type productPage struct {
	Data       []Product `json:"data"`
	TotalCount int       `json:"total_count"`
}

// ListProducts returns one catalog page, optionally filtered by search text.
func (c *Client) ListProducts(ctx context.Context, search string, page, perPage int) ([]Product, int, error) {
	q := url.Values{}
	if search != "" {
		q.Set("search", search)
	}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if perPage > 0 {
		q.Set("per_page", strconv.Itoa(perPage))
	}
	path := "/api/v1/products"
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}

	resp, err := c.do(ctx, "products list", http.MethodGet, path, "", nil)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	var env envelope[productPage]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, 0, &RequestError{Op: "products list", Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return env.Data.Data, env.Data.TotalCount, nil
}

// GetProduct returns a single catalog product by ID.
func (c *Client) GetProduct(ctx context.Context, id string) (*Product, error) {
	resp, err := c.do(ctx, "product get", http.MethodGet, "/api/v1/products/"+id, "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope[Product]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &RequestError{Op: "product get", Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return &env.Data, nil
}
