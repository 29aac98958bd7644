// Package google talks to the Google Geocoding and Civic Information APIs.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// ErrRequestFailed is returned when an API call does not answer with HTTP 200.
var ErrRequestFailed = errors.New("google api request failed")

const defaultTimeout = 10 * time.Second

// Options configures one API client. A zero Limit allows one call per second.
type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Limit   rate.Limit
}

type apiClient struct {
	http     *resty.Client
	endpoint string
	key      string
	logger   *slog.Logger
}

func newAPIClient(opts Options, logger *slog.Logger) *apiClient {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Limit == 0 {
		opts.Limit = rate.Every(time.Second)
	}

	httpClient := resty.New().
		SetTimeout(opts.Timeout)

	// keep within the per-user quota of both APIs
	limiter := rate.NewLimiter(opts.Limit, 1)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return limiter.Wait(req.Context())
	})

	return &apiClient{http: httpClient, endpoint: opts.BaseURL, key: opts.APIKey, logger: logger}
}

func (c *apiClient) get(ctx context.Context, params map[string]string, multi map[string][]string) ([]byte, error) {
	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("key", c.key).
		SetQueryParams(params)
	if len(multi) > 0 {
		req.SetQueryParamsFromValues(multi)
	}

	resp, err := req.Get(c.endpoint)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if resp.StatusCode() != http.StatusOK {
		c.debug("api returned error status", "status", resp.Status(), "params", params)
		return nil, fmt.Errorf("%w: unexpected status %s", ErrRequestFailed, resp.Status())
	}
	return resp.Body(), nil
}

func (c *apiClient) debug(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
