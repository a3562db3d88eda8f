// Package api is a typed client for the career document backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/careerkit/internal/logging"
)

const (
	headerContentType = "Content-Type"
	contentTypeJSON   = "application/json"

	pathProfile         = "/api/profile"
	pathGenerateResume  = "/api/generate-resume"
	pathGenerateLetter  = "/api/generate-cover-letter"
	pathRefine          = "/api/refine-resume"
	pathCreateCheckout  = "/api/billing/create-checkout-session"
	maxResponseBodySize = 8 << 20
)

// Transport sends a request on behalf of the signed-in user. The gateway
// implements it.
type Transport interface {
	Send(req *http.Request) (*http.Response, error)
}

type Option func(*Client)

func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.log = l }
}

// Client talks to the backend through an authorizing transport.
type Client struct {
	baseURL   string
	transport Transport
	log       logging.Logger
}

func New(baseURL string, transport Transport, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		transport: transport,
		log:       logging.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// doRequest sends body as JSON and decodes a 2xx response into result. It
// returns the raw body so callers can tell an empty document from a missing
// one.
func (c *Client) doRequest(ctx context.Context, method, path string, body, result any) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set(headerContentType, contentTypeJSON)
	}

	resp, err := c.transport.Send(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := parseError(resp.StatusCode, respBody)
		c.log.Debug(ctx, "backend error", "path", path, "status", resp.StatusCode, "detail", apiErr.Detail)
		return respBody, apiErr
	}

	if result != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return respBody, fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return respBody, nil
}

func (c *Client) get(ctx context.Context, path string, result any) ([]byte, error) {
	return c.doRequest(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) post(ctx context.Context, path string, body, result any) ([]byte, error) {
	return c.doRequest(ctx, http.MethodPost, path, body, result)
}
