// Package geoip resolves the city and country behind a node's IP address.
//
// Results name newly registered nodes and feed the per-country statistics
// view. Lookups go to ipapi.co first and fall back to ipinfo.io when the
// primary is rate limited. Failures degrade to the "Ghost" placeholder so
// naming never blocks a provisioning run.
package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Unknown is returned when no provider can resolve the address.
const Unknown = "Ghost"

const (
	primaryURL  = "https://ipapi.co/%s/json"
	fallbackURL = "https://ipinfo.io/%s/json"
)

// Resolver maps an IP literal to a "City (Country)" label.
type Resolver interface {
	Resolve(ctx context.Context, ip string) string
}

// Client is an HTTP-backed Resolver.
type Client struct {
	httpClient *http.Client
	primary    string
	fallback   string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithEndpoints overrides provider URL templates (used in tests).
func WithEndpoints(primary, fallback string) Option {
	return func(c *Client) {
		c.primary = primary
		c.fallback = fallback
	}
}

// NewClient creates a geo-IP client with a bounded request timeout.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		primary:    primaryURL,
		fallback:   fallbackURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type primaryResponse struct {
	City        string `json:"city"`
	CountryName string `json:"country_name"`
}

type fallbackResponse struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

// Resolve implements Resolver. It never returns an error: an unresolvable
// address yields Unknown.
func (c *Client) Resolve(ctx context.Context, ip string) string {
	status, body := c.get(ctx, fmt.Sprintf(c.primary, ip))
	switch status {
	case http.StatusOK:
		var r primaryResponse
		if json.Unmarshal(body, &r) == nil && r.City != "" {
			return fmt.Sprintf("%s (%s)", r.City, r.CountryName)
		}
	case http.StatusTooManyRequests:
		status, body = c.get(ctx, fmt.Sprintf(c.fallback, ip))
		if status == http.StatusOK {
			var r fallbackResponse
			if json.Unmarshal(body, &r) == nil && r.City != "" {
				return fmt.Sprintf("%s (%s)", r.City, r.Country)
			}
		}
	}
	return Unknown
}

func (c *Client) get(ctx context.Context, url string) (int, []byte) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, nil
	}
	return resp.StatusCode, body
}

// Static is a Resolver returning a fixed label, for tests and offline runs.
type Static string

// Resolve implements Resolver.
func (s Static) Resolve(context.Context, string) string { return string(s) }
