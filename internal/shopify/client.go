// Package shopify is a small client for the Shopify Admin API: customer
// search over REST and product listing over GraphQL.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/imanix/b2b-storefront/config"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const accessTokenHeader = "X-Shopify-Access-Token"

// ErrNotConfigured is returned by NewClient when no shop domain is set.
var ErrNotConfigured = errors.New("shopify: shop domain not configured")

// APIError is a non-2xx response or a GraphQL error list.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shopify: status %d: %s", e.StatusCode, e.Message)
}

// Client talks to one shop.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides https://<shop>/admin/api/<version>.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the instrumented default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a Client for cfg.ShopDomain.
func NewClient(cfg config.ShopifyConfig, opts ...Option) (*Client, error) {
	c := &Client{
		token: cfg.AccessToken,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   cfg.RequestTimeout,
		},
	}
	if cfg.ShopDomain != "" {
		c.baseURL = fmt.Sprintf("https://%s/admin/api/%s", cfg.ShopDomain, cfg.APIVersion)
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.baseURL == "" {
		return nil, ErrNotConfigured
	}
	return c, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("shopify: encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("shopify: build request: %w", err)
	}
	req.Header.Set(accessTokenHeader, c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("shopify: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("shopify: decode %s after %s: %w", path, time.Since(start), err)
	}
	return nil
}

func searchPath(email string) string {
	q := url.Values{}
	q.Set("query", "email:"+email)
	return "/customers/search.json?" + q.Encode()
}
