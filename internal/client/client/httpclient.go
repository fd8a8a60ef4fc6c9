package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/common"
)

// maxResponseSize bounds how much of a response body is read.
const maxResponseSize = 1 << 20

type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu          sync.RWMutex
	accessToken string
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient returns a client for the API at baseURL. Each request is
// bounded by timeout.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

func (c *HTTPClient) setToken(t string) {
	c.mu.Lock()
	c.accessToken = t
	c.mu.Unlock()
}

// Authenticated reports whether a token is held.
func (c *HTTPClient) Authenticated() bool {
	return c.token() != ""
}

// do sends in as JSON and decodes a 2xx answer into out. When authed is set
// the stored token is attached and its absence fails early.
func (c *HTTPClient) do(ctx context.Context, method, path string, authed bool, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		t := c.token()
		if t == "" {
			return ErrNotAuthenticated
		}
		req.Header.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+t)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var eb models.ErrorBody
		_ = json.Unmarshal(data, &eb)
		return statusError(resp.StatusCode, eb)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", false, nil, nil)
}

func (c *HTTPClient) Register(ctx context.Context, r models.Registration) (*models.AuthResult, error) {
	var res models.AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/register", false, r, &res); err != nil {
		return nil, err
	}
	c.setToken(res.AccessToken)
	return &res, nil
}

func (c *HTTPClient) Login(ctx context.Context, email string, password []byte) (*models.AuthResult, error) {
	in := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{email, string(password)}

	var res models.AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", false, in, &res); err != nil {
		return nil, err
	}
	c.setToken(res.AccessToken)
	return &res, nil
}

func (c *HTTPClient) Verify(ctx context.Context) (*models.VerifyResult, error) {
	var res models.VerifyResult
	if err := c.do(ctx, http.MethodGet, "/auth/verify", true, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Refresh swaps the held token for a fresh one.
func (c *HTTPClient) Refresh(ctx context.Context) (*models.AuthResult, error) {
	var res models.AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", true, nil, &res); err != nil {
		return nil, err
	}
	c.setToken(res.AccessToken)
	return &res, nil
}

func (c *HTTPClient) Profile(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodGet, "/auth/profile", true, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *HTTPClient) ListUsers(ctx context.Context) ([]models.User, error) {
	var list []models.User
	if err := c.do(ctx, http.MethodGet, "/users", true, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) ChangePassword(ctx context.Context, current, next []byte) error {
	in := struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}{string(current), string(next)}

	return c.do(ctx, http.MethodPatch, "/users/me/password", true, in, nil)
}

// Logout tells the server and drops the token. The token is dropped even
// when the call fails, since the server keeps no session anyway.
func (c *HTTPClient) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout", true, nil, nil)
	c.setToken("")
	return err
}
