package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/labinv/internal/core/domain"
	"github.com/custodia-labs/labinv/internal/logger"
)

const (
	// DefaultRetryDelay is the delay before the first retry. Later retries double it.
	DefaultRetryDelay = 500 * time.Millisecond

	// MaxRetryDelay caps the doubled delay between retries.
	MaxRetryDelay = 30 * time.Second

	// maxErrorBody bounds how much of an error response is kept in messages.
	maxErrorBody = 512

	headerRetryAfter = "Retry-After"
)

// QueryEncoder turns search parameters into their query string form.
type QueryEncoder interface {
	Encode(params domain.SearchParameters) url.Values
}

// Config configures a Client.
type Config struct {
	// BaseURL is the server root, e.g. https://eln.example.org.
	BaseURL string

	// Token is the API token.
	Token string

	// Timeout bounds a single attempt.
	Timeout time.Duration

	// MaxRetries is how often a retryable failure is retried.
	MaxRetries int

	// RetryDelay is the initial backoff.
	RetryDelay time.Duration

	// RateLimit is the sustained requests per second; zero disables limiting.
	RateLimit float64

	// Burst is the token bucket size.
	Burst int
}

// ConfigFromSettings builds a Config from application settings.
func ConfigFromSettings(s domain.AppSettings) Config {
	return Config{
		BaseURL:    s.Server.URL,
		Token:      s.Server.Token,
		Timeout:    s.HTTP.Timeout,
		MaxRetries: s.HTTP.MaxRetries,
		RetryDelay: DefaultRetryDelay,
		RateLimit:  s.HTTP.RateLimit,
		Burst:      s.HTTP.Burst,
	}
}

// Client talks to the inventory server.
type Client struct {
	base       *url.URL
	http       *http.Client
	limiter    *rate.Limiter
	encoder    QueryEncoder
	maxRetries int
	retryDelay time.Duration
}

// NewClient creates a client. The encoder renders search parameters.
func NewClient(cfg Config, encoder QueryEncoder) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: server url", domain.ErrNotConfigured)
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: server url %q", domain.ErrInvalidInput, cfg.BaseURL)
	}
	if encoder == nil {
		return nil, fmt.Errorf("%w: query encoder", domain.ErrNotConfigured)
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"})
		httpClient.Transport = &oauth2.Transport{Source: ts, Base: http.DefaultTransport}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}

	return &Client{
		base:       base,
		http:       httpClient,
		limiter:    limiter,
		encoder:    encoder,
		maxRetries: min(max(cfg.MaxRetries, 0), domain.MaxHTTPRetries),
		retryDelay: retryDelay,
	}, nil
}

// request describes one API call.
type request struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
}

// jsonRequest builds a request with a JSON body.
func jsonRequest(op, method, path string, payload any) (request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return request{}, fmt.Errorf("%s: encode body: %w", op, err)
	}
	return request{op: op, method: method, path: path, body: body, contentType: "application/json"}, nil
}

// formRequest builds a request with a form encoded body.
func formRequest(op, path string, form url.Values) request {
	return request{
		op:          op,
		method:      http.MethodPost,
		path:        path,
		body:        []byte(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
	}
}

// statusError is a non-2xx response.
type statusError struct {
	status     int
	message    string
	retryAfter time.Duration
}

func (e *statusError) Error() string {
	if e.message == "" {
		return fmt.Sprintf("server returned %d %s", e.status, http.StatusText(e.status))
	}
	return fmt.Sprintf("server returned %d: %s", e.status, e.message)
}

func (e *statusError) retryable() bool {
	return e.status == http.StatusTooManyRequests || e.status >= http.StatusInternalServerError
}

// backoff returns the delay before retry attempt, doubling from retryDelay
// up to MaxRetryDelay.
func (c *Client) backoff(attempt int) time.Duration {
	delay := c.retryDelay
	for i := 1; i < attempt && delay < MaxRetryDelay; i++ {
		delay *= 2
	}
	return min(delay, MaxRetryDelay)
}

// do executes req with rate limiting and retries, decoding a JSON response into out.
// Failures are returned as *domain.OperationError naming req.op.
func (c *Client) do(ctx context.Context, req request, out any) error {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff(attempt)
			var se *statusError
			if errors.As(lastErr, &se) && se.retryAfter > delay {
				delay = se.retryAfter
			}
			logger.Debug("rest: retrying %s in %s (attempt %d): %v", req.op, delay, attempt+1, lastErr)
			select {
			case <-ctx.Done():
				return &domain.OperationError{Op: req.op, Err: ctx.Err()}
			case <-time.After(delay):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return &domain.OperationError{Op: req.op, Err: err}
		}

		body, err := c.attempt(ctx, req)
		if err == nil {
			if out == nil || len(bytes.TrimSpace(body)) == 0 {
				return nil
			}
			if err := json.Unmarshal(body, out); err != nil {
				return &domain.OperationError{Op: req.op, Err: fmt.Errorf("decode response: %w", err)}
			}
			return nil
		}

		lastErr = err
		if !shouldRetry(ctx, err) {
			break
		}
	}

	return &domain.OperationError{Op: req.op, Err: classify(lastErr)}
}

// attempt performs a single request and returns the response body.
func (c *Client) attempt(ctx context.Context, req request) ([]byte, error) {
	u := c.base.JoinPath(req.path)
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		msg := strings.TrimSpace(string(data))
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody] + "..."
		}
		return nil, &statusError{
			status:     resp.StatusCode,
			message:    msg,
			retryAfter: parseRetryAfter(resp.Header.Get(headerRetryAfter)),
		}
	}
	return data, nil
}

// shouldRetry reports whether err is worth another attempt.
func shouldRetry(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.retryable()
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF)
}

// classify maps the final failure onto the domain sentinels.
func classify(err error) error {
	var se *statusError
	if errors.As(err, &se) {
		switch {
		case se.status == http.StatusUnauthorized || se.status == http.StatusForbidden:
			return fmt.Errorf("%w: %w", domain.ErrUnauthorized, se)
		case se.status == http.StatusNotFound:
			return fmt.Errorf("%w: %w", domain.ErrNotFound, se)
		case se.status == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %w", domain.ErrRateLimited, se)
		case se.status >= http.StatusInternalServerError:
			return fmt.Errorf("%w: %w", domain.ErrServerUnavailable, se)
		default:
			return fmt.Errorf("%w: %w", domain.ErrInvalidInput, se)
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrServerUnavailable, err)
}

// parseRetryAfter reads a Retry-After header given in seconds.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
