package marzban

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/imamik/nodeup/internal/metrics"
	"github.com/imamik/nodeup/internal/util/retry"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultMaxRetries     = 2
	defaultRetryBaseDelay = 1 * time.Second

	// Marzban admin tokens are long-lived; the cache expiry only bounds how
	// long a revoked token can linger before a proactive refresh.
	defaultTokenTTL = 30 * time.Minute
)

// RealClient implements Client against a live Marzban panel.
type RealClient struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	maxRetries int
	retryBase  time.Duration
	tokenTTL   time.Duration
	now        func() time.Time

	// mu guards the cached token. Holding it across a refresh makes
	// concurrent expired-token callers wait for one re-authentication
	// instead of issuing their own.
	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// ClientOption configures a RealClient.
type ClientOption func(*RealClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *RealClient) { c.httpClient = hc }
}

// WithRetryPolicy sets the transient-failure retry budget and base delay.
func WithRetryPolicy(maxRetries int, baseDelay time.Duration) ClientOption {
	return func(c *RealClient) {
		c.maxRetries = maxRetries
		c.retryBase = baseDelay
	}
}

// WithTokenTTL overrides the cached token lifetime.
func WithTokenTTL(ttl time.Duration) ClientOption {
	return func(c *RealClient) { c.tokenTTL = ttl }
}

// WithClock injects a clock for token-expiry tests.
func WithClock(now func() time.Time) ClientOption {
	return func(c *RealClient) { c.now = now }
}

// NewRealClient creates a client for the panel at baseURL.
func NewRealClient(baseURL, username, password string, opts ...ClientOption) *RealClient {
	c := &RealClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		username:   username,
		password:   password,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		maxRetries: defaultMaxRetries,
		retryBase:  defaultRetryBaseDelay,
		tokenTTL:   defaultTokenTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListNodes implements Client.
func (c *RealClient) ListNodes(ctx context.Context) ([]Node, error) {
	var nodes []Node
	err := c.call(ctx, "list_nodes", func(token string) error {
		return c.doJSON(ctx, http.MethodGet, "/api/nodes", token, nil, &nodes)
	})
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	return nodes, nil
}

// CreateNode implements Client.
func (c *RealClient) CreateNode(ctx context.Context, req CreateNodeRequest) (*Node, error) {
	if req.UsageCoefficient == 0 {
		req.UsageCoefficient = 1
	}
	var node Node
	err := c.call(ctx, "create_node", func(token string) error {
		return c.doJSON(ctx, http.MethodPost, "/api/node", token, req, &node)
	})
	if err != nil {
		return nil, fmt.Errorf("create node %s: %w", req.Address, err)
	}
	return &node, nil
}

// DeleteNode implements Client.
func (c *RealClient) DeleteNode(ctx context.Context, nodeID int64) error {
	err := c.call(ctx, "delete_node", func(token string) error {
		return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/node/%d", nodeID), token, nil, nil)
	})
	if err != nil {
		return fmt.Errorf("delete node %d: %w", nodeID, err)
	}
	return nil
}

// call runs fn with a valid token, re-authenticating once on ErrAuthFailed
// and retrying transient transport failures with exponential backoff.
func (c *RealClient) call(ctx context.Context, operation string, fn func(token string) error) error {
	attempt := 0
	return retry.Do(ctx, func() error {
		if attempt > 0 {
			metrics.APIRetries.WithLabelValues(operation).Inc()
		}
		attempt++

		token, err := c.currentToken(ctx)
		if err != nil {
			return classify(err)
		}

		err = fn(token)
		if IsAuthFailed(err) {
			// Token expired server-side; one refresh, one replay.
			c.invalidateToken(token)
			token, err = c.currentToken(ctx)
			if err != nil {
				return classify(err)
			}
			err = fn(token)
		}
		return classify(err)
	},
		retry.WithMaxRetries(c.maxRetries),
		retry.WithInitialDelay(c.retryBase),
		retry.WithMultiplier(2),
	)
}

// classify marks definitive API responses permanent so only transport
// failures consume the retry budget.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if isAPIError(err) {
		return retry.Permanent(err)
	}
	return err
}

// currentToken returns the cached token, authenticating when missing or
// expired.
func (c *RealClient) currentToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	token, err := c.authenticate(ctx)
	if err != nil {
		return "", err
	}
	c.token = token
	c.tokenExpiry = c.now().Add(c.tokenTTL)
	return token, nil
}

// invalidateToken drops the cached token if it is still the one that
// failed. A newer token installed by a concurrent refresh survives.
func (c *RealClient) invalidateToken(stale string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == stale {
		c.token = ""
		c.tokenExpiry = time.Time{}
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (c *RealClient) authenticate(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("username", c.username)
	form.Set("password", c.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/admin/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("authenticate: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrAuthFailed, resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrAuthFailed)
	}
	return tr.AccessToken, nil
}

// doJSON performs one authenticated request, decoding a 2xx response into
// out (when non-nil) and mapping error statuses to typed errors.
func (c *RealClient) doJSON(ctx context.Context, method, path, token string, in, out any) error {
	var payload io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil || len(body) == 0 {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s %s", ErrAuthFailed, method, path)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	case resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrConflict, strings.TrimSpace(string(body)))
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", ErrValidationRejected, strings.TrimSpace(string(body)))
	default:
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
}
