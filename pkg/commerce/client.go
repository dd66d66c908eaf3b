package commerce

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

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultTimeout                  = 10 * time.Second
	defaultBreakerFailures          = 10
	defaultBreakerOpenTimeout       = 30 * time.Second
	responseBodyReadLimit     int64 = 4096
	requestIDHeader                 = "X-Request-Id"
)

var errBaseURLRequired = errors.New("commerce api base url is required")

// TokenSource supplies the bearer credential for authenticated calls and is told when
// the backend rejects it.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate(reason string)
}

// BreakerSettings controls when the client stops calling a failing backend.
type BreakerSettings struct {
	MaxFailures uint32
	OpenTimeout time.Duration
}

// Client is the HTTP transport to the commerce backend. It holds no cart, order or
// payment state.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	settings   BreakerSettings
	metrics    *metrics.StorefrontMetrics
	logg       *logger.Logger
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client. Its transport is still wrapped for
// tracing.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTokenSource attaches the session credential.
func WithTokenSource(tokens TokenSource) Option {
	return func(c *Client) {
		c.tokens = tokens
	}
}

func WithBreaker(settings BreakerSettings) Option {
	return func(c *Client) {
		if settings.MaxFailures > 0 {
			c.settings.MaxFailures = settings.MaxFailures
		}
		if settings.OpenTimeout > 0 {
			c.settings.OpenTimeout = settings.OpenTimeout
		}
	}
}

func WithMetrics(m *metrics.StorefrontMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		if logg != nil {
			c.logg = logg
		}
	}
}

// NewClient builds the backend client for baseURL, e.g. https://shop.example.com/api.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	if _, err := url.ParseRequestURI(trimmed); err != nil {
		return nil, fmt.Errorf("parsing commerce api base url: %w", err)
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
		settings: BreakerSettings{
			MaxFailures: defaultBreakerFailures,
			OpenTimeout: defaultBreakerOpenTimeout,
		},
		logg: logger.Nop(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	base := client.httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	wrapped := *client.httpClient
	wrapped.Transport = otelhttp.NewTransport(base)
	client.httpClient = &wrapped

	maxFailures := client.settings.MaxFailures
	client.breaker = gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:    "commerce-api",
		Timeout: client.settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			client.logg.Warn(context.Background(), fmt.Sprintf("circuit %s moved from %s to %s", name, from, to))
		},
	})

	return client, nil
}

// call describes one backend request.
type call struct {
	operation     string
	method        string
	path          string
	query         url.Values
	body          any
	authenticated bool
}

// statusError carries a non-2xx backend answer through the breaker.
type statusError struct {
	status int
	detail string
}

func (e *statusError) Error() string {
	if e.detail == "" {
		return fmt.Sprintf("status %d", e.status)
	}
	return fmt.Sprintf("status %d: %s", e.status, e.detail)
}

// do executes c and decodes a 2xx JSON answer into out when out is non-nil.
func (c *Client) do(ctx context.Context, req call, out any) (err error) {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeTransport, "commerce client not configured")
	}
	started := time.Now()
	defer func() {
		c.metrics.ObserveRequest(req.operation, outcomeLabel(err), time.Since(started))
	}()

	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return err
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			defer func() { _ = resp.Body.Close() }()
			return nil, &statusError{status: resp.StatusCode, detail: readDetail(resp.Body)}
		}
		return resp, nil
	})
	if err != nil {
		var statusErr *statusError
		if errors.As(err, &statusErr) {
			return c.statusFailure(ctx, req, statusErr)
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return pkgerrors.Wrap(pkgerrors.CodeTransport, err, "commerce backend unavailable")
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeTransport, ctxErr, req.operation+" canceled")
		}
		c.logg.WarnErr(ctx, req.operation+" request failed", err)
		return pkgerrors.Wrap(pkgerrors.CodeTransport, err, req.operation+" request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return c.statusFailure(ctx, req, &statusError{status: resp.StatusCode, detail: readDetail(resp.Body)})
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTransport, err, "decode "+req.operation+" response")
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, req call) (*http.Request, error) {
	target := c.buildURL(req.path)
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal "+req.operation+" request")
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build "+req.operation+" request")
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(requestIDHeader, uuid.NewString())
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if req.authenticated {
		if c.tokens == nil {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthenticated, "please log in to continue")
		}
		token, err := c.tokens.Token(ctx)
		if err != nil {
			if pkgerrors.As(err) != nil {
				return nil, err
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthenticated, err, "please log in to continue")
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	return httpReq, nil
}

func (c *Client) statusFailure(ctx context.Context, req call, statusErr *statusError) error {
	code := pkgerrors.FromStatus(statusErr.status)
	if code == pkgerrors.CodeUnauthenticated && req.authenticated && c.tokens != nil {
		c.tokens.Invalidate(fmt.Sprintf("%s rejected the session token", req.operation))
	}
	message := statusErr.detail
	if message == "" {
		message = pkgerrors.MetadataFor(code).PublicMessage
	}
	if code == pkgerrors.CodeTransport {
		c.logg.WarnErr(ctx, req.operation+" returned an error status", statusErr)
	}
	return pkgerrors.Wrap(code, statusErr, message).WithDetails(pkgerrors.StatusDetails{
		Operation:  req.operation,
		HTTPStatus: statusErr.status,
		Detail:     statusErr.detail,
	})
}

func (c *Client) buildURL(path string) string {
	return fmt.Sprintf("%s/%s", c.baseURL, strings.TrimLeft(path, "/"))
}

// readDetail extracts the backend's {"detail": ...} message, falling back to the raw
// body.
func readDetail(body io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(body, responseBodyReadLimit))
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return ""
	}
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil || len(payload.Detail) == 0 {
		return trimmed
	}
	var text string
	if err := json.Unmarshal(payload.Detail, &text); err == nil {
		return text
	}
	return string(payload.Detail)
}

func outcomeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return strings.ToLower(string(pkgerrors.CodeOf(err)))
}
