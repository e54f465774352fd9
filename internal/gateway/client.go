package gateway

// Package gateway implements the HTTP client for the remote authentication
// backend. It attaches the stored bearer token to every outgoing request,
// performs exactly one refresh-then-retry on an authorization failure, maps
// backend failures onto the application error taxonomy, and normalizes
// role/permission payload shapes at the boundary.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/vitrinnea/admin-console/internal/errors"
	"github.com/vitrinnea/admin-console/internal/ports"
)

const defaultTimeout = 30 * time.Second

// Compile-time conformance to the backend ports.
var (
	_ ports.AuthBackend    = (*Client)(nil)
	_ ports.UserDirectory  = (*Client)(nil)
	_ ports.GroupDirectory = (*Client)(nil)
)

// Options groups dependencies for Client.
type Options struct {
	// BaseURL is the backend base URL, e.g. "https://auth.vitrinnea.com/api".
	BaseURL string
	// Store holds the bearer token attached to outgoing requests. Required.
	Store ports.SessionStore
	// HTTPClient is optional; a 30s-timeout client is used when nil. There
	// is no cancellation policy beyond the transport timeout and the
	// caller's context.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client is the API gateway for the remote backend.
type Client struct {
	baseURL    string
	store      ports.SessionStore
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient constructs a gateway Client.
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		store:      opts.Store,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// envelope is the backend's generic response shape for CRUD endpoints.
type envelope struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data,omitempty"`
	Message string              `json:"message,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
	Meta    *ports.PageMeta     `json:"meta,omitempty"`
}

// callOptions control per-request behavior of do.
type callOptions struct {
	// retried marks a request that already went through the one-shot
	// refresh-then-retry sequence. Retried requests never trigger a
	// second refresh.
	retried bool
	// noRefresh disables the refresh-on-401 interception entirely; used
	// for the auth endpoints themselves.
	noRefresh bool
}

// do issues one backend request and returns the raw response body for a
// successful status. It owns the refresh-on-401 interception: the
// refresh-then-retry sequence completes, with success or hard failure,
// before the caller observes a result.
func (c *Client) do(ctx context.Context, method, path string, body any, opts callOptions) ([]byte, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "Something went wrong. Please try again.")
		}
	}

	resp, err := c.send(ctx, method, path, payload)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeUnknown, "Could not reach the server. Please try again.")
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.WarnContext(ctx, "close response body failed", "path", path, "error", cerr)
		}
	}()

	if resp.StatusCode == http.StatusUnauthorized && !opts.noRefresh {
		// Drain the 401 body before retrying so the connection is reusable.
		_, _ = io.Copy(io.Discard, resp.Body)
		return c.refreshAndRetry(ctx, method, path, body, opts)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeUnknown, "Could not read the server response.")
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, c.mapFailure(ctx, resp.StatusCode, path, raw)
	}

	return raw, nil
}

// doEnvelope issues a request and decodes the backend's generic
// {success, data, ...} envelope.
func (c *Client) doEnvelope(ctx context.Context, method, path string, body any, opts callOptions) (*envelope, error) {
	raw, err := c.do(ctx, method, path, body, opts)
	if err != nil {
		return nil, err
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeUnknown, "The server returned an unexpected response.")
	}
	if !env.Success {
		return nil, c.mapFailure(ctx, http.StatusOK, path, raw)
	}
	return &env, nil
}

// send builds and executes a single HTTP request with JSON content
// negotiation and bearer attachment.
func (c *Client) send(ctx context.Context, method, path string, payload []byte) (*http.Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.store.GetToken(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "read token from store failed", "error", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.httpClient.Do(req)
}

// refreshAndRetry runs the one-shot refresh sequence for a request that hit
// a 401. A request already marked retried is a hard session failure:
// the store is cleared and the caller gets session-expired.
func (c *Client) refreshAndRetry(ctx context.Context, method, path string, body any, opts callOptions) ([]byte, error) {
	if opts.retried {
		return nil, c.expireSession(ctx, nil)
	}

	result, err := c.Refresh(ctx)
	if err != nil || result == nil || result.Token == "" {
		return nil, c.expireSession(ctx, err)
	}

	c.logger.InfoContext(ctx, "token refreshed, retrying request", "method", method, "path", path)
	opts.retried = true
	return c.do(ctx, method, path, body, opts)
}

// expireSession clears the store and returns the fatal session-expired
// failure. cause may be nil.
func (c *Client) expireSession(ctx context.Context, cause error) error {
	if err := c.store.Clear(ctx); err != nil {
		c.logger.ErrorContext(ctx, "clear session store failed", "error", err)
	}
	const msg = "Your session has expired. Please sign in again."
	if cause != nil {
		return apperrors.Wrap(cause, apperrors.ErrCodeSessionExpired, msg)
	}
	return apperrors.SessionExpired(msg)
}

// mapFailure maps a backend failure onto the error taxonomy. The raw body is
// preserved as the wrapped cause for logs; the surfaced message is always
// generic.
func (c *Client) mapFailure(ctx context.Context, status int, path string, raw []byte) error {
	cause := fmt.Errorf("backend %s returned status %d", path, status)
	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err == nil && env.Message != "" {
			cause = fmt.Errorf("backend %s returned status %d: %s", path, status, env.Message)
		}
	}
	c.logger.WarnContext(ctx, "backend request failed", "path", path, "status", status)

	switch {
	case status == http.StatusUnauthorized:
		return apperrors.Wrap(cause, apperrors.ErrCodeSessionExpired, "Your session has expired. Please sign in again.")
	case status == http.StatusForbidden:
		return apperrors.Wrap(cause, apperrors.ErrCodeForbidden, "You don't have permission to do that.")
	case status == http.StatusNotFound:
		return apperrors.Wrap(cause, apperrors.ErrCodeNotFound, "The requested resource was not found.")
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return apperrors.Wrap(cause, apperrors.ErrCodeInvalidInput, "The submitted data is invalid. Please check your input.")
	case status >= http.StatusInternalServerError:
		return apperrors.Wrap(cause, apperrors.ErrCodeServerError, "The server encountered an error. Please try again later.")
	default:
		return apperrors.Wrap(cause, apperrors.ErrCodeUnknown, "An unexpected error occurred. Please try again.")
	}
}

// decodeData unmarshals an envelope's data field into dst.
func decodeData(env *envelope, dst any) error {
	if len(env.Data) == 0 {
		return apperrors.Unknown("The server returned an empty response.")
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeUnknown, "The server returned an unexpected response.")
	}
	return nil
}
