// Package directory resolves identities to public profiles held by the
// external user service.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/mmuslimabdulj/meet-signal/internal/domain"
)

// ErrNotFound is returned when the directory has no profile for an identity
var ErrNotFound = errors.New("directory: user not found")

// Directory looks up user profiles
type Directory interface {
	Lookup(ctx context.Context, id domain.Identity) (domain.Profile, error)
}

// HTTPDirectory queries the user service over HTTP:
// GET {BaseURL}/api/user/{id} -> {"success": true, "user": {...}}
type HTTPDirectory struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPDirectory creates a directory client with the given request timeout
func NewHTTPDirectory(baseURL string, timeout time.Duration) *HTTPDirectory {
	return &HTTPDirectory{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
	}
}

type userResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	User    domain.Profile `json:"user"`
}

// Lookup fetches the profile of id
func (d *HTTPDirectory) Lookup(ctx context.Context, id domain.Identity) (domain.Profile, error) {
	if id == "" {
		return domain.Profile{}, ErrNotFound
	}

	endpoint := d.BaseURL + "/api/user/" + url.PathEscape(string(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("directory: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.Client.Do(req)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("directory: lookup %s: %w", id, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.Profile{}, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return domain.Profile{}, fmt.Errorf("directory: lookup %s: unexpected status %d", id, resp.StatusCode)
	}

	var body userResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.Profile{}, fmt.Errorf("directory: decode response: %w", err)
	}
	if !body.Success {
		return domain.Profile{}, ErrNotFound
	}
	if body.User.ID == "" {
		body.User.ID = id
	}
	return body.User, nil
}

// Static is an in-memory directory keyed by identity
type Static map[domain.Identity]domain.Profile

// Lookup returns the stored profile of id
func (s Static) Lookup(_ context.Context, id domain.Identity) (domain.Profile, error) {
	p, ok := s[id]
	if !ok {
		return domain.Profile{}, ErrNotFound
	}
	return p, nil
}
