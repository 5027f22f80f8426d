// Package auth talks to the account service. The game only needs a bearer
// credential from it; everything else here exists to obtain and refresh
// that credential.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	ErrLoginRequired = errors.New("login required")
	ErrRejected      = errors.New("request rejected by auth service")
)

type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type Organization struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Me struct {
	ID            string         `json:"id"`
	Email         string         `json:"email"`
	Organizations []Organization `json:"organizations"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Login(ctx context.Context, email, password string) (Tokens, error) {
	var tokens Tokens
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", body, &tokens); err != nil {
		return Tokens{}, fmt.Errorf("login: %w", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		return Tokens{}, fmt.Errorf("login: %w: missing tokens", ErrRejected)
	}
	return tokens, nil
}

func (c *Client) Register(ctx context.Context, email, password string) error {
	body := map[string]any{"user": map[string]string{"email": email, "password": password}}
	if err := c.do(ctx, http.MethodPost, "/api/users", "", body, nil); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	return nil
}

// Refresh exchanges a refresh token for a new access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (string, error) {
	var out struct {
		AccessToken string `json:"accessToken"`
	}
	body := map[string]string{"refreshToken": refreshToken}
	if err := c.do(ctx, http.MethodPost, "/api/auth/access_token", "", body, &out); err != nil {
		return "", fmt.Errorf("refresh: %w", err)
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("refresh: %w: missing access token", ErrRejected)
	}
	return out.AccessToken, nil
}

func (c *Client) Me(ctx context.Context, accessToken string) (Me, error) {
	var me Me
	if err := c.do(ctx, http.MethodGet, "/api/users/me", accessToken, nil, &me); err != nil {
		return Me{}, fmt.Errorf("me: %w", err)
	}
	if me.ID == "" || me.Email == "" {
		return Me{}, fmt.Errorf("me: %w: incomplete profile", ErrRejected)
	}
	return me, nil
}

func (c *Client) Logout(ctx context.Context, accessToken, refreshToken string) error {
	body := map[string]string{"refresh_token": refreshToken}
	if err := c.do(ctx, http.MethodPost, "/api/auth/logout", accessToken, body, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path, bearer string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach auth service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Message == "" {
			apiErr.Message = resp.Status
		}
		return fmt.Errorf("%w: %s", ErrRejected, apiErr.Message)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: invalid response: %v", ErrRejected, err)
	}
	return nil
}
