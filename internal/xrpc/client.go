// Package xrpc is a minimal AT Protocol XRPC client covering the calls the
// monitor needs: describeServer, createSession, and read-only queries.
package xrpc

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
)

type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

type RawResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

func (r *RawResponse) Header(name string) string {
	if r == nil {
		return ""
	}
	return r.Headers.Get(name)
}

type Client struct {
	baseURL   string
	userAgent string
	accessJwt string
	client    *http.Client
}

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "pdswatch/1.0"
	}
	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Authenticated reports whether a session token is held from a prior Login.
func (c *Client) Authenticated() bool {
	return c.accessJwt != ""
}

func (c *Client) DescribeServer(ctx context.Context) (*DescribeServerResponse, *RawResponse, error) {
	raw, err := c.Query(ctx, "com.atproto.server.describeServer", nil)
	if err != nil {
		return nil, raw, err
	}

	var resp DescribeServerResponse
	if err := json.Unmarshal(raw.Body, &resp); err != nil {
		return nil, raw, fmt.Errorf("decode describeServer response: %w", err)
	}
	return &resp, raw, nil
}

// Login exchanges the identifier and app password for a session. On success
// the access token is attached to every subsequent request.
func (c *Client) Login(ctx context.Context, identifier, password string) (*SessionResponse, *RawResponse, error) {
	body := map[string]string{
		"identifier": strings.TrimPrefix(strings.TrimSpace(identifier), "@"),
		"password":   password,
	}
	raw, err := c.call(ctx, http.MethodPost, "com.atproto.server.createSession", nil, body)
	if err != nil {
		return nil, raw, err
	}

	var resp SessionResponse
	if err := json.Unmarshal(raw.Body, &resp); err != nil {
		return nil, raw, fmt.Errorf("decode createSession response: %w", err)
	}
	c.accessJwt = resp.AccessJwt
	return &resp, raw, nil
}

// Query performs a GET against /xrpc/<nsid> with the given query parameters.
// Non-2xx responses produce an *APIError carrying the status code.
func (c *Client) Query(ctx context.Context, nsid string, params map[string]string) (*RawResponse, error) {
	return c.call(ctx, http.MethodGet, nsid, params, nil)
}

func (c *Client) call(ctx context.Context, method, nsid string, params map[string]string, body any) (*RawResponse, error) {
	fullURL := c.baseURL + "/xrpc/" + nsid
	if len(params) > 0 {
		values := url.Values{}
		for key, value := range params {
			values.Set(key, value)
		}
		fullURL += "?" + values.Encode()
	}

	var reader io.Reader
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		payload = b
		reader = bytes.NewReader(payload)
	}

	request, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	request.Header.Set("Accept", "application/json")
	request.Header.Set("User-Agent", c.userAgent)
	if len(payload) > 0 {
		request.Header.Set("Content-Type", "application/json")
	}
	if c.accessJwt != "" {
		request.Header.Set("Authorization", "Bearer "+c.accessJwt)
	}

	start := time.Now()
	response, err := c.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer response.Body.Close()

	bodyBytes, readErr := io.ReadAll(response.Body)
	raw := &RawResponse{
		StatusCode: response.StatusCode,
		Headers:    response.Header.Clone(),
		Body:       bodyBytes,
		Duration:   time.Since(start),
	}
	if readErr != nil {
		return raw, fmt.Errorf("read response body: %w", readErr)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		envelope, _ := ParseAPIErrorEnvelope(bodyBytes)
		return raw, &APIError{
			StatusCode: response.StatusCode,
			Envelope:   envelope,
			Body:       bodyBytes,
		}
	}
	return raw, nil
}

func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
