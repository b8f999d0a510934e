package api

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

var (
	// ErrRemoteFailure is matched by every error this package returns.
	ErrRemoteFailure     = errors.New("remote request failed")
	ErrUnauthorized      = errors.New("remote request not authorized")
	ErrMalformedResponse = errors.New("malformed response")
)

const maxResponseBytes = 1 << 20

// APIError is a non-2xx answer from the marketplace API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrRemoteFailure:
		return true
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	default:
		return false
	}
}

type Client struct {
	baseURL *url.URL
	http    *http.Client
}

type Option func(*Client)

// WithHTTPClient uses a copy of hc, so later options never change the
// caller's client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			copied := *hc
			c.http = &copied
		}
	}
}

// WithTimeout sets the transport timeout. Zero leaves requests unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithRequestLogging logs one JSON line per request through the standard logger.
func WithRequestLogging() Option {
	return func(c *Client) {
		c.http.Transport = newLoggingTransport(c.http.Transport)
	}
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, errors.New("api: empty base url")
	}
	parsed, err := url.Parse(strings.TrimRight(trimmed, "/"))
	if err != nil {
		return nil, fmt.Errorf("api: invalid base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("api: unsupported scheme %q", parsed.Scheme)
	}

	c := &Client{
		baseURL: parsed,
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type response struct {
	status int
	body   []byte
}

func (c *Client) do(ctx context.Context, method, path, token string, payload any) (*response, error) {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrRemoteFailure, method, path, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s %s: %w", ErrRemoteFailure, method, path, err)
	}
	return &response{status: res.StatusCode, body: data}, nil
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

func (r *response) apiError() error {
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := ""
	if err := json.Unmarshal(r.body, &envelope); err == nil {
		msg = envelope.Error
		if msg == "" {
			msg = envelope.Message
		}
	}
	return &APIError{Status: r.status, Message: msg}
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %w: %s", ErrRemoteFailure, ErrMalformedResponse, fmt.Sprintf(format, args...))
}
