package edgar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// EDGAR is the SEC's public filing archive. It requires a descriptive
// User-Agent on every request and asks clients to stay under 10 requests/second.
// https://www.sec.gov/os/accessing-edgar-data
const (
	defaultDataBaseURL    = "https://data.sec.gov"
	defaultArchiveBaseURL = "https://www.sec.gov"
	DefaultRateLimit      = 10
)

// RetryPolicy bounds the exponential backoff applied to transient failures
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy is five attempts starting at half a second, capped at 30s
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 5,
	BaseDelay:   500 * time.Millisecond,
	MaxDelay:    30 * time.Second,
}

// Client is an HTTP client for the EDGAR archive and submissions feed
type Client struct {
	userAgent      string
	dataBaseURL    string
	archiveBaseURL string
	httpClient     *http.Client
	limiter        *rate.Limiter
	retry          RetryPolicy
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithRetryPolicy overrides the default retry policy
func WithRetryPolicy(p RetryPolicy) ClientOption {
	return func(c *Client) {
		if p.MaxAttempts < 1 {
			p.MaxAttempts = 1
		}
		c.retry = p
	}
}

// WithRateLimit sets the sustained request rate shared by all callers
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout sets the per-attempt request timeout
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// NewClient creates a new EDGAR client
func NewClient(userAgent string, opts ...ClientOption) *Client {
	c := &Client{
		userAgent:      userAgent,
		dataBaseURL:    defaultDataBaseURL,
		archiveBaseURL: defaultArchiveBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		retry:   DefaultRetryPolicy,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientWithBaseURL creates a new EDGAR client that serves both the
// submissions feed and the archive from baseURL (for testing)
func NewClientWithBaseURL(userAgent, baseURL string, opts ...ClientOption) *Client {
	c := NewClient(userAgent, opts...)
	c.dataBaseURL = baseURL
	c.archiveBaseURL = baseURL
	return c
}

// FetchJSON fetches url and decodes the body into dest
func (c *Client) FetchJSON(ctx context.Context, url string, dest any) error {
	body, err := c.FetchBytes(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", url, err)
	}
	return nil
}

// FetchBytes fetches url under the retry policy. Transport errors, 429 and 5xx
// responses are retried with capped, jittered exponential backoff; any other
// non-2xx status fails immediately.
func (c *Client) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	attempts := 0
	op := func() ([]byte, error) {
		attempts++
		body, err := c.doRequest(ctx, url)
		if err == nil {
			return body, nil
		}
		var fe *FetchError
		if ctx.Err() != nil || (errors.As(err, &fe) && !fe.Transient) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	notify := func(err error, wait time.Duration) {
		log.Debugf("edgar: attempt %d for %s failed (%v), retrying in %v", attempts, url, err, wait)
	}

	body, err := backoff.RetryNotifyWithData(op, c.newBackOff(ctx), notify)
	if err != nil {
		var fe *FetchError
		if !errors.As(err, &fe) {
			fe = &FetchError{URL: url, Err: err}
		}
		fe.Attempts = attempts
		return nil, fe
	}
	return body, nil
}

func (c *Client) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retry.BaseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0.5
	b.MaxInterval = c.retry.MaxDelay
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.retry.MaxAttempts-1)), ctx)
}

// doRequest performs a single attempt
func (c *Client) doRequest(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Transient: true, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Transient:  isRetryableStatus(resp.StatusCode),
			Err:        fmt.Errorf("archive returned status %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Transient: true, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	return body, nil
}
