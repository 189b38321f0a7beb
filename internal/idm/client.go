// Package idm is a thin client for the external IDM core: read identities,
// validate/create email records, activate and merge identities. Every non-2xx
// response surfaces as ErrServiceFailure; there are no retries.
package idm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dropDatabas3/onboard/internal/metrics"
	"github.com/dropDatabas3/onboard/internal/observability/logger"
)

// Client talks to the IDM core.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Client for the given base URL, e.g.
// "https://idm-core.example.org/api/". A nil httpClient gets a 10 s timeout
// default.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/",
		http:    httpClient,
	}
}

// IdentityURL returns the canonical URL for an identity record.
func (c *Client) IdentityURL(identityID string) string {
	return fmt.Sprintf("%sidentity/%s/", c.baseURL, identityID)
}

// GetIdentity fetches an identity by id.
func (c *Client) GetIdentity(ctx context.Context, identityID string) (*Identity, error) {
	var envelope struct {
		Identity Identity `json:"identity"`
	}
	if err := c.do(ctx, "get_identity", http.MethodGet, c.IdentityURL(identityID), nil, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Identity, nil
}

// ValidateEmail marks an existing email record (by its resource URL) as
// validated.
func (c *Client) ValidateEmail(ctx context.Context, emailURL string) error {
	return c.do(ctx, "validate_email", http.MethodPatch, emailURL,
		map[string]any{"validated": true}, nil)
}

// CreateEmail attaches a new validated email record to an identity.
func (c *Client) CreateEmail(ctx context.Context, identityID, emailContext, value string) error {
	return c.do(ctx, "create_email", http.MethodPost, c.baseURL+"email/", map[string]any{
		"identity":  identityID,
		"context":   emailContext,
		"value":     value,
		"validated": true,
	}, nil)
}

// Activate posts an activation for the identity.
func (c *Client) Activate(ctx context.Context, identityID string) error {
	return c.do(ctx, "activate", http.MethodPost, c.IdentityURL(identityID)+"activate/", nil, nil)
}

// Merge merges identity `from` into identity `into`. The direction is
// explicit: `into` survives, `from` is absorbed.
func (c *Client) Merge(ctx context.Context, into, from string) error {
	return c.do(ctx, "merge", http.MethodPost, c.IdentityURL(into)+"merge/",
		map[string]any{"id": from}, nil)
}

func (c *Client) do(ctx context.Context, op, method, url string, body any, out any) error {
	start := time.Now()
	defer func() { metrics.ObserveIDMRequest(op, time.Since(start)) }()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("idm: marshal %s: %w", op, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("idm: build %s request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		logger.From(ctx).Warn("idm request failed",
			logger.Component("idm"), logger.Op(op), logger.Err(err))
		return fmt.Errorf("idm: %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.From(ctx).Warn("idm request rejected",
			logger.Component("idm"), logger.Op(op), logger.Status(resp.StatusCode))
		return &StatusError{Op: op, Status: resp.StatusCode}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("idm: decode %s response: %w", op, err)
		}
	}
	return nil
}
