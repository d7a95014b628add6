package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/victoryapp/victory/internal/common"
	"github.com/victoryapp/victory/internal/logging"
)

// DefaultURL is the production REST root.
const DefaultURL = "https://victoryapp.net/api/v1"

type HTTPClient struct {
	baseURL string
	http    *retryablehttp.Client
	logger  logging.Logger
}

type Option func(*HTTPClient)

// WithMaxRetries sets how often a failed request is retried. The default is 0.
func WithMaxRetries(n int) Option {
	return func(c *HTTPClient) { c.http.RetryMax = n }
}

func WithRetryWait(minWait, maxWait time.Duration) Option {
	return func(c *HTTPClient) {
		c.http.RetryWaitMin = minWait
		c.http.RetryWaitMax = maxWait
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.http.HTTPClient.Timeout = d }
}

func WithTransport(t http.RoundTripper) Option {
	return func(c *HTTPClient) { c.http.HTTPClient.Transport = t }
}

func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) {
		c.logger = l
		c.http.Logger = retryablehttp.LeveledLogger(leveledLogger{inner: l.With("subsystem", "backend")})
	}
}

func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	rc := retryablehttp.NewClient()
	rc.HTTPClient = cleanhttp.DefaultPooledClient()
	rc.HTTPClient.Timeout = 15 * time.Second
	rc.RetryMax = 0
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.Logger = nil
	rc.CheckRetry = retryPolicy
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    rc,
		logger:  logging.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// retryPolicy leaves 4xx answers, 429 included, to the caller.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if err == nil && resp.StatusCode == http.StatusTooManyRequests {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

func (c *HTTPClient) Validate(ctx context.Context, pub string) bool {
	status, _, err := c.do(ctx, http.MethodPost, "/validate", map[string]any{"pub": pub})
	if err != nil {
		c.logger.Warn(ctx, "validate failed, assuming known", "error", err)
		return true
	}
	return status != http.StatusNotFound
}

func (c *HTTPClient) Register(ctx context.Context, pub, alias, email string) error {
	status, body, err := c.do(ctx, http.MethodPost, "/register", map[string]any{
		"pub":   pub,
		"alias": alias,
		"email": strings.ToLower(email),
	})
	if err != nil {
		return err
	}
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized:
		return ErrEmailProvider
	case status == http.StatusInternalServerError:
		return ErrServer
	case status == http.StatusConflict:
		return ErrEmailTaken
	default:
		return &StatusError{Op: "Registration", Status: status, Body: body}
	}
}

func (c *HTTPClient) VerifyRegistration(ctx context.Context, code int) error {
	status, _, err := c.do(ctx, http.MethodPost, "/verify-registration", map[string]any{"code": code})
	if err != nil {
		return err
	}
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusBadRequest:
		return ErrInvalidCode
	case status == http.StatusNotFound:
		return ErrCodeNotFound
	case status >= 500:
		return ErrVerifyInternal
	default:
		return ErrVerifyFailed
	}
}

func (c *HTTPClient) RequestUpdate(ctx context.Context, pub string, isAlias bool, value string) error {
	status, body, err := c.do(ctx, http.MethodPost, "/update", map[string]any{
		"pub":     pub,
		"isAlias": isAlias,
		"value":   value,
	})
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return &StatusError{Op: "Update", Status: status, Body: body}
	}
	return nil
}

func (c *HTTPClient) VerifyUpdate(ctx context.Context, code int) error {
	status, body, err := c.do(ctx, http.MethodPost, "/verify-update", map[string]any{"code": code})
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return &StatusError{Op: "Update verification", Status: status, Body: body}
	}
	return nil
}

func (c *HTTPClient) AliasForEmail(ctx context.Context, email string) (string, error) {
	q := url.Values{"email": {strings.ToLower(email)}}
	status, body, err := c.do(ctx, http.MethodGet, "/user?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", &StatusError{Op: "Alias lookup", Status: status, Body: body}
	}
	return strings.TrimSpace(body), nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload any) (int, string, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, "", fmt.Errorf("encode %s: %w", path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, "", fmt.Errorf("build %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	reqID := uuid.NewString()
	req.Header.Set(common.RequestIDHeaderName, reqID)

	resp, err := c.http.Do(req)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}
		return 0, "", fmt.Errorf("%w: %s %s: %v", common.ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return 0, "", fmt.Errorf("read %s: %w", path, err)
	}
	c.logger.Debug(ctx, "backend call", "method", method, "path", path, "status", resp.StatusCode, "request_id", reqID)
	return resp.StatusCode, string(raw), nil
}
