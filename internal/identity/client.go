// Package identity is the downstream side of the user service: it resolves a
// user's current role over HTTP for RoleGate.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spec-kit/support-mesh/internal/auth"
	"github.com/spec-kit/support-mesh/internal/domain"
)

// Client calls the identity service's internal lookup endpoints.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for baseURL. A nil httpClient gets a 5s default
// timeout; per-call deadlines come from the context.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

type lookupResponse struct {
	Data struct {
		Role  domain.Role `json:"role"`
		Email string      `json:"email"`
	} `json:"data"`
}

// RoleByUserID implements auth.RoleLookup. Unknown users are
// auth.ErrUserNotFound; every other failure is auth.ErrLookupUnavailable.
func (c *Client) RoleByUserID(ctx context.Context, userID string) (domain.Role, error) {
	resp, err := c.get(ctx, userID, "role")
	if err != nil {
		return "", err
	}
	if resp.Data.Role == "" {
		return "", fmt.Errorf("%w: empty role for user", auth.ErrLookupUnavailable)
	}
	return resp.Data.Role, nil
}

// EmailByUserID returns the user's email address.
func (c *Client) EmailByUserID(ctx context.Context, userID string) (string, error) {
	resp, err := c.get(ctx, userID, "email")
	if err != nil {
		return "", err
	}
	return resp.Data.Email, nil
}

func (c *Client) get(ctx context.Context, userID, field string) (*lookupResponse, error) {
	endpoint := fmt.Sprintf("%s/user/%s/%s", c.baseURL, url.PathEscape(userID), field)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrLookupUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrLookupUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, auth.ErrUserNotFound
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: lookup %s returned %d", auth.ErrLookupUnavailable, field, resp.StatusCode)
	}

	var out lookupResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", auth.ErrLookupUnavailable, field, err)
	}
	return &out, nil
}
