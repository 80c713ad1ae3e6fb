// Package library wraps the Spotify Web API as the data source and
// write-back target for library analysis. All HTTP and OAuth concerns
// live here; the analysis core only ever sees validated value types.
package library

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/time/rate"
)

const apiBaseURL = "https://api.spotify.com/v1"

// ErrReauthRequired indicates the access token was rejected. Callers
// surface this to the user as a prompt to log in again; it is never
// retried.
var ErrReauthRequired = errors.New("spotify authorization rejected, please log in again")

// Client wraps the Spotify API client with the operations the curation
// service needs. Remote calls are paced by a shared rate limiter so
// batch loops stay under Spotify's rate limit.
type Client struct {
	api     *spotify.Client
	http    *http.Client
	limiter *rate.Limiter
	logger  *log.Logger

	fetchAttempts int
	backoffBase   time.Duration
	backoffCap    time.Duration
	sleep         func(time.Duration)
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the logger used for fetch progress and retry noise.
func WithLogger(logger *log.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the pacing for remote calls, in requests per
// second. Non-positive rates keep the default.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithFetchRetry tunes the fetch retry loop: attempts per page and the
// starting backoff delay, which doubles per attempt up to a cap.
func WithFetchRetry(attempts int, base, maxDelay time.Duration) ClientOption {
	return func(c *Client) {
		if attempts > 0 {
			c.fetchAttempts = attempts
		}
		if base > 0 {
			c.backoffBase = base
		}
		if maxDelay > 0 {
			c.backoffCap = maxDelay
		}
	}
}

// WithSleep replaces the sleep function used between retries, so tests
// run without real delays.
func WithSleep(sleep func(time.Duration)) ClientOption {
	return func(c *Client) {
		c.sleep = sleep
	}
}

// New creates a Client. api must already be authenticated; httpClient
// must carry the same OAuth token and is used for the few endpoints the
// spotify package does not wrap.
func New(api *spotify.Client, httpClient *http.Client, opts ...ClientOption) *Client {
	c := &Client{
		api:           api,
		http:          httpClient,
		limiter:       rate.NewLimiter(rate.Limit(4), 1),
		logger:        log.New(io.Discard),
		fetchAttempts: 4,
		backoffBase:   500 * time.Millisecond,
		backoffCap:    8 * time.Second,
		sleep:         time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// isAuthError reports whether err is an authorization rejection from
// the Spotify API.
func isAuthError(err error) bool {
	var spotifyErr spotify.Error
	if errors.As(err, &spotifyErr) {
		return spotifyErr.Status == http.StatusUnauthorized || spotifyErr.Status == http.StatusForbidden
	}
	return false
}

// backoff returns the delay before retry number attempt (1-based),
// doubling from the base and capped.
func (c *Client) backoff(attempt int) time.Duration {
	d := c.backoffBase << (attempt - 1)
	if d > c.backoffCap {
		d = c.backoffCap
	}
	return d
}
