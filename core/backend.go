/*
Backend client for the ticketing and knowledge API (core/backend.go).

This file implements the single HTTP transport used by every higher layer:
the enrichment engine, the staged-action coordinator and the agent tools all
go through Client.Call. The client owns URL construction, the session
correlation header, timeouts and the error taxonomy; callers only see typed
*BackendError values and raw JSON payloads.
*/
package core

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"
)

// apiPrefix is prepended to every backend path. The ticketing gateway
// mounts its agent-facing API under this prefix.
const apiPrefix = "/tool-server"

// sessionHeader carries the session identity to the backend so staged
// actions can be correlated with the conversation that produced them.
const sessionHeader = "X-Session-Id"

// BackendErrorKind classifies a backend failure into one of four outcomes.
// Callers branch on Kind rather than string-matching error text.
type BackendErrorKind string

const (
	ErrKindTimeout          BackendErrorKind = "timeout"
	ErrKindConnectionFailed BackendErrorKind = "connection_failed"
	ErrKindHTTPStatus       BackendErrorKind = "http_status"
	ErrKindUnexpected       BackendErrorKind = "unexpected"
)

// BackendError is the only error type Client returns. For HTTPStatus errors
// StatusCode and Body carry the response; for the other kinds Err wraps the
// underlying cause.
type BackendError struct {
	Kind       BackendErrorKind
	Op         string // "POST /incidents/search" etc., for log context
	StatusCode int    // Set when Kind is ErrKindHTTPStatus
	Body       string // Response body (possibly truncated) when Kind is ErrKindHTTPStatus
	Err        error  // Underlying cause for the non-HTTP kinds
}

func (e *BackendError) Error() string {
	switch e.Kind {
	case ErrKindTimeout:
		return fmt.Sprintf("backend %s: request timed out", e.Op)
	case ErrKindConnectionFailed:
		return fmt.Sprintf("backend %s: connection failed: %v", e.Op, e.Err)
	case ErrKindHTTPStatus:
		return fmt.Sprintf("backend %s: HTTP %d: %s", e.Op, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("backend %s: %v", e.Op, e.Err)
	}
}

func (e *BackendError) Unwrap() error { return e.Err }

// bodyLogLimit caps how much of an error response body is retained.
const bodyLogLimit = 2048

// Client is the HTTP client for the ticketing backend. It is safe for
// concurrent use; construct one per process and share it.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *logrus.Entry
}

// NewClient builds a backend client from the loaded configuration. TLS
// certificate verification stays on unless the operator explicitly opted
// out via TLS_INSECURE_SKIP_VERIFY.
func NewClient(config *Config, logger *logrus.Logger) *Client {
	transport := http.DefaultTransport
	if config.TLSInsecureSkipVerify {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		transport = t
		logger.Warn("TLS certificate verification disabled for backend connections")
	}

	return &Client{
		baseURL: config.APIURL,
		http: &http.Client{
			Timeout:   config.BackendTimeout,
			Transport: transport,
		},
		logger: logger.WithField("component", "backend"),
	}
}

// Call performs one backend request and returns the raw response body.
// body is JSON-encoded when non-nil; query parameters are appended when
// given; sessionID is sent as the correlation header when non-empty.
// Every failure is returned as a *BackendError; there are no retries here.
func (c *Client) Call(ctx context.Context, method, path string, body any, query url.Values, sessionID string) (json.RawMessage, error) {
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, &BackendError{Kind: ErrKindUnexpected, Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(encoded)
	}

	fullURL := c.baseURL + apiPrefix + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, &BackendError{Kind: ErrKindUnexpected, Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionID != "" {
		req.Header.Set(sessionHeader, sessionID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		kind := ErrKindConnectionFailed
		if urlErr, ok := err.(*url.Error); ok && urlErr.Timeout() {
			kind = ErrKindTimeout
		}
		c.logger.WithFields(logrus.Fields{
			"op":   op,
			"kind": kind,
		}).WithError(err).Warn("Backend request failed")
		return nil, &BackendError{Kind: kind, Op: op, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &BackendError{Kind: ErrKindUnexpected, Op: op, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(payload)
		if len(snippet) > bodyLogLimit {
			snippet = snippet[:bodyLogLimit]
		}
		c.logger.WithFields(logrus.Fields{
			"op":     op,
			"status": resp.StatusCode,
		}).Warn("Backend returned error status")
		return nil, &BackendError{Kind: ErrKindHTTPStatus, Op: op, StatusCode: resp.StatusCode, Body: snippet}
	}

	return json.RawMessage(payload), nil
}

// Get issues a GET request and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, sessionID string, out any) error {
	raw, err := c.Call(ctx, http.MethodGet, path, nil, query, sessionID)
	if err != nil {
		return err
	}
	return c.decode("GET "+path, raw, out)
}

// Post issues a POST request with a JSON body and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body any, sessionID string, out any) error {
	raw, err := c.Call(ctx, http.MethodPost, path, body, nil, sessionID)
	if err != nil {
		return err
	}
	return c.decode("POST "+path, raw, out)
}

// Put issues a PUT request with a JSON body and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, body any, sessionID string, out any) error {
	raw, err := c.Call(ctx, http.MethodPut, path, body, nil, sessionID)
	if err != nil {
		return err
	}
	return c.decode("PUT "+path, raw, out)
}

func (c *Client) decode(op string, raw json.RawMessage, out any) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &BackendError{Kind: ErrKindUnexpected, Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
