package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"LocalNewsMapper/internal/ports"
)

const (
	defaultTimeout   = 3050 * time.Millisecond
	defaultUserAgent = "Mozilla/5.0"
)

// ErrUnavailable is returned when a page could not be retrieved after the retry.
var ErrUnavailable = errors.New("page unavailable")

// Client downloads pages over HTTP with a short timeout and a single retry.
type Client struct {
	http   *resty.Client
	logger *slog.Logger
}

var _ ports.Fetcher = (*Client)(nil)

// Options tunes the transport; zero values fall back to the defaults.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	RetryWait time.Duration
}

// NewClient builds a resty-backed fetcher.
func NewClient(opts Options, logger *slog.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = 100 * time.Millisecond
	}

	httpClient := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", opts.UserAgent).
		SetRetryCount(1).
		SetRetryWaitTime(opts.RetryWait).
		SetRetryMaxWaitTime(opts.RetryWait)

	return &Client{http: httpClient, logger: logger}
}

// Fetch returns the body of url. Connection errors and timeouts are retried once;
// afterwards, and for HTTP error statuses, ErrUnavailable is returned.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.debug("fetch failed", "url", url, "error", err)
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, url, err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		c.debug("fetch returned error status", "url", url, "status", resp.Status())
		return nil, fmt.Errorf("%w: %s returned %s", ErrUnavailable, url, resp.Status())
	}

	return resp.Body(), nil
}

func (c *Client) debug(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
