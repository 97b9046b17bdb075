package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Tokens is the access/refresh pair returned by the auth endpoints.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type authPayload struct {
	Tokens Tokens `json:"tokens"`
}

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, email, password string) (*Tokens, error) {
	body := map[string]any{"email": email, "password": password}
	resp, err := c.do(ctx, "login", http.MethodPost, "/api/v1/auth/login", "", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope[authPayload]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &RequestError{Op: "login", Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return &env.Data.Tokens, nil
}

// Register creates an account and returns its token pair.
func (c *Client) Register(ctx context.Context, email, password, firstName, lastName string) (*Tokens, error) {
	body := map[string]any{
		"email":      email,
		"password":   password,
		"first_name": firstName,
		"last_name":  lastName,
	}
	resp, err := c.do(ctx, "register", http.MethodPost, "/api/v1/auth/register", "", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope[authPayload]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &RequestError{Op: "register", Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return &env.Data.Tokens, nil
}

// Refresh rotates the refresh token and returns a fresh pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	body := map[string]any{"refresh_token": refreshToken}
	resp, err := c.do(ctx, "refresh", http.MethodPost, "/api/v1/auth/refresh", "", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope[Tokens]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &RequestError{Op: "refresh", Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return &env.Data, nil
}

// Logout revokes the session's refresh tokens server-side.
func (c *Client) Logout(ctx context.Context, token string) error {
	resp, err := c.do(ctx, "logout", http.MethodPost, "/api/v1/auth/logout", token, nil)
	if err != nil {
		return err
	}
	drainBody(resp)
	return nil
}
