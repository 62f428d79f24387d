// Package backend is the HTTP client of the external REST backend. Every call
// to the backend goes through Client.Request, which owns URL building, JSON
// encoding, header and bearer-token wiring, and response classification.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/royavalet/valet-site/internal/core/domain"
	"github.com/royavalet/valet-site/internal/core/ports"
	"github.com/royavalet/valet-site/internal/pkg/metrics"
)

const maxResponseBytes = 4 << 20

// User-facing messages for requests that never completed.
const (
	MsgUnreachable = "Network error. Please check if the backend server is running."
	MsgTimeout     = "The server took too long to respond. Please try again."
	MsgCancelled   = "The request was cancelled."
	MsgBadResponse = "Unexpected response from the server."
	MsgTransport   = "Unable to complete the request. Please try again."
)

// Options configures a Client.
type Options struct {
	BaseURL string
	// Timeout bounds each call; zero leaves calls bounded only by ctx.
	Timeout time.Duration
	// Tokens supplies bearer tokens for IncludeAuth calls.
	Tokens ports.TokenSource
	// Transport defaults to an otelhttp-instrumented http.DefaultTransport.
	Transport http.RoundTripper
	Logger    zerolog.Logger
}

// Client talks to the REST backend.
type Client struct {
	baseURL string
	timeout time.Duration
	tokens  ports.TokenSource
	http    *http.Client
	log     zerolog.Logger
}

// NewClient builds a Client.
func NewClient(opts Options) *Client {
	transport := opts.Transport
	if transport == nil {
		transport = otelhttp.NewTransport(http.DefaultTransport)
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		timeout: opts.Timeout,
		tokens:  opts.Tokens,
		http:    &http.Client{Transport: transport},
		log:     opts.Logger,
	}
}

// BaseURL returns the resolved backend origin.
func (c *Client) BaseURL() string { return c.baseURL }

// Request sends one call to endpoint.
//
// A call that never completes comes back as a Response with Failure set and a
// nil error. Validation (400, 422), auth (401, 403) and conflict (409, 429)
// answers come back as a Response too. Any other non-2xx answer is returned as
// a *domain.ServerError. There are no retries.
func (c *Client) Request(ctx context.Context, endpoint string, opts ports.RequestOptions) (*ports.Response, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	label := metrics.EndpointLabel(endpoint)

	var body io.Reader
	if opts.Body != nil {
		b, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("backend %s %s: encode body: %w", method, label, err)
		}
		body = bytes.NewReader(b)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("backend %s %s: build request: %w", method, label, err)
	}
	for k, v := range opts.Headers {
		if strings.EqualFold(k, "Authorization") && !opts.IncludeAuth {
			continue
		}
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if opts.IncludeAuth && c.tokens != nil {
		if token, ok := c.tokens.Token(ctx); ok && token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		f := classifyTransport(err)
		c.observe(label, start, string(ports.CategoryUnreachable))
		c.log.Warn().Err(err).Str("method", method).Str("endpoint", label).
			Str("failure", string(f.Kind)).Msg("backend request did not complete")
		return &ports.Response{Failure: f}, nil
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		f := classifyTransport(err)
		c.observe(label, start, string(ports.CategoryUnreachable))
		c.log.Warn().Err(err).Str("method", method).Str("endpoint", label).Msg("backend response body unreadable")
		return &ports.Response{Failure: f}, nil
	}

	out := &ports.Response{Status: resp.StatusCode}
	decodeErr := decodeEnvelope(raw, &out.Envelope)
	ok := resp.StatusCode >= 200 && resp.StatusCode < 300

	if ok && decodeErr != nil {
		c.observe(label, start, string(ports.CategoryUnreachable))
		c.log.Warn().Err(decodeErr).Str("method", method).Str("endpoint", label).
			Int("status", resp.StatusCode).Msg("backend answered with a non-JSON body")
		return &ports.Response{Failure: &ports.Failure{Kind: ports.FailureTransport, Message: MsgBadResponse, Cause: decodeErr}}, nil
	}

	if !ok && !handledStatus(resp.StatusCode) {
		c.observe(label, start, "server_error")
		c.log.Error().Str("method", method).Str("endpoint", label).
			Int("status", resp.StatusCode).Str("message", out.Envelope.Message).Msg("backend error")
		return nil, &domain.ServerError{Status: resp.StatusCode, Message: out.Envelope.Message}
	}

	c.observe(label, start, string(out.Category()))
	c.log.Debug().Str("method", method).Str("endpoint", label).
		Int("status", resp.StatusCode).Dur("took", time.Since(start)).Msg("backend response")
	return out, nil
}

func (c *Client) observe(label string, start time.Time, category string) {
	metrics.BackendRequestsTotal.WithLabelValues(label, category).Inc()
	metrics.BackendRequestDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
}

func handledStatus(code int) bool {
	switch code {
	case http.StatusBadRequest, http.StatusUnprocessableEntity,
		http.StatusUnauthorized, http.StatusForbidden,
		http.StatusConflict, http.StatusTooManyRequests:
		return true
	}
	return false
}

func decodeEnvelope(raw []byte, env *ports.Envelope) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return errors.New("empty body")
	}
	return json.Unmarshal(raw, env)
}

// classifyTransport separates "server unreachable" from other failures.
func classifyTransport(err error) *ports.Failure {
	f := &ports.Failure{Kind: ports.FailureTransport, Message: MsgTransport, Cause: err}

	var netErr net.Error
	var opErr *net.OpError
	var dnsErr *net.DNSError
	switch {
	case errors.Is(err, context.Canceled):
		f.Message = MsgCancelled
	case errors.Is(err, context.DeadlineExceeded):
		f.Message = MsgTimeout
	case errors.As(err, &dnsErr),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, syscall.ENETUNREACH),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.As(err, &opErr) && opErr.Op == "dial":
		f.Kind = ports.FailureUnreachable
		f.Message = MsgUnreachable
	case errors.As(err, &netErr) && netErr.Timeout():
		f.Message = MsgTimeout
	}
	return f
}
