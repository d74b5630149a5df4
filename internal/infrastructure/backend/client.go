// Package backend is the REST client for the headless content/identity
// service that owns users, contacts and uploaded media.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/contactbook/contacts-gateway/internal/api/metrics"
	"github.com/contactbook/contacts-gateway/internal/core/domain"
)

// Config captures the settings for talking to the backend. It is injected
// into the client; nothing is read from the environment here.
type Config struct {
	BaseURL string
	// APIToken is the server-to-server credential used for writes and
	// unscoped reads. It may be empty in local development.
	APIToken string
	// Timeout bounds each round-trip. Zero means no timeout.
	Timeout time.Duration
}

// Client implements ports.Backend over HTTP.
type Client struct {
	cfg    Config
	http   *http.Client
	logger zerolog.Logger
}

// NewClient validates cfg and returns a ready client.
func NewClient(cfg Config, logger zerolog.Logger) (*Client, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return nil, errors.New("backend: base URL is required")
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("backend: invalid base URL: %w", err)
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}, nil
}

// BaseURL returns the normalized backend base URL.
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

// HasAPIToken reports whether a server credential is configured.
func (c *Client) HasAPIToken() bool {
	return c.cfg.APIToken != ""
}

// request describes one backend round-trip.
type request struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	// bearer overrides the server credential; empty means "use APIToken".
	bearer string
	// anonymous sends no Authorization header at all.
	anonymous bool
}

// do performs r and returns the status and the fully read body. Transport
// failures are returned as errors; HTTP statuses are left to the caller.
func (c *Client) do(ctx context.Context, r request) (int, []byte, error) {
	u := c.cfg.BaseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, r.body)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: build request: %w", r.op, err)
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	req.Header.Set("Accept", "application/json")
	if !r.anonymous {
		token := r.bearer
		if token == "" {
			token = c.cfg.APIToken
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.BackendRequestDuration.WithLabelValues(r.op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.BackendRequestsTotal.WithLabelValues(r.op, "error").Inc()
		return 0, nil, fmt.Errorf("%s: %w", r.op, err)
	}
	defer resp.Body.Close()

	metrics.BackendRequestsTotal.WithLabelValues(r.op, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%s: read body: %w", r.op, err)
	}

	c.logger.Debug().
		Str("op", r.op).
		Str("method", r.method).
		Str("path", r.path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("backend call")

	return resp.StatusCode, body, nil
}

// call performs r and decodes a 2xx JSON body into out (when out is non-nil).
func (c *Client) call(ctx context.Context, r request, out any) error {
	status, body, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return upstreamError(r.op, status, body)
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", r.op, err)
	}
	return nil
}

// jsonBody encodes v for a request body.
func jsonBody(v any) (io.Reader, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return strings.NewReader(string(b)), nil
}

// errorEnvelope is the backend's error payload:
// {"data": null, "error": {"status": 400, "name": "...", "message": "..."}}.
type errorEnvelope struct {
	Error struct {
		Status  int    `json:"status"`
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"error"`
}

func upstreamError(op string, status int, body []byte) error {
	ue := &domain.UpstreamError{Op: op, Status: status, Body: string(body)}
	var env errorEnvelope
	if json.Unmarshal(body, &env) == nil {
		ue.Message = env.Error.Message
	}
	return ue
}

// isStatus reports whether err is an upstream error with the given status.
func isStatus(err error, status int) bool {
	var ue *domain.UpstreamError
	return errors.As(err, &ue) && ue.Status == status
}
