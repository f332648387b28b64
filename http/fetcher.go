// Package http provides the HTTP implementation of docdex.Fetcher: the sole
// network egress point of the pipeline. Every outbound request passes the
// robots.txt gate and the per-host rate limit before it departs.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/fwojciec/docdex"
	"github.com/fwojciec/docdex/crawl"
)

// DefaultFetchTimeout is the default timeout for HTTP requests.
const DefaultFetchTimeout = 60 * time.Second

// Accept header sent with document requests. Some servers vary the response
// on Accept; be explicit that we want documents.
const acceptHeader = "application/pdf,application/octet-stream,application/msword," +
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document," +
	"text/html,text/plain,*/*"

// Ensure Fetcher implements docdex.Fetcher at compile time.
var _ docdex.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves bytes over HTTP, enforcing the crawl policy it was
// configured with. Transient failures (transport errors, 429, 5xx) are
// retried with backoff; other 4xx are permanent.
type Fetcher struct {
	client      *http.Client
	limiter     docdex.HostLimiter
	robots      docdex.RobotsService
	userAgent   string
	retryDelays []time.Duration
	timeout     time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.timeout = d }
}

// WithRobots enables robots.txt evaluation before every fetch.
func WithRobots(r docdex.RobotsService) Option {
	return func(f *Fetcher) { f.robots = r }
}

// WithLimiter sets the per-host rate limiter.
func WithLimiter(l docdex.HostLimiter) Option {
	return func(f *Fetcher) { f.limiter = l }
}

// WithRetryDelays sets the backoff delays between attempts.
func WithRetryDelays(delays []time.Duration) Option {
	return func(f *Fetcher) { f.retryDelays = delays }
}

// NewFetcher creates a new Fetcher identified by userAgent.
func NewFetcher(userAgent string, opts ...Option) *Fetcher {
	f := &Fetcher{
		userAgent: userAgent,
		timeout:   DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.client = &http.Client{Timeout: f.timeout}
	return f
}

// Fetch retrieves the URL, honoring robots rules, per-host spacing and the
// retry budget. A 304 answer to a conditional request returns a response
// with NotModified set and no body.
func (f *Fetcher) Fetch(ctx context.Context, req docdex.FetchRequest) (*docdex.FetchResponse, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, docdex.Errorf(docdex.EINVALID, "invalid URL %q", req.URL)
	}

	if f.robots != nil {
		allowed, err := f.robots.Allowed(ctx, req.URL)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, docdex.Errorf(docdex.EPOLICY, "robots.txt disallows %s", req.URL)
		}
	}

	maxAttempts := len(f.retryDelays) + 1
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(crawl.Jitter(f.retryDelays[attempt-1])):
			}
		}

		if f.limiter != nil {
			if err := f.limiter.Wait(ctx, u.Host); err != nil {
				return nil, err
			}
		}

		resp, err := f.fetchOnce(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		var fe *docdex.FetchError
		if errors.As(err, &fe) && !fe.Transient {
			return nil, err
		}
		if !errors.As(err, &fe) {
			// Context cancellation and policy errors are not retryable.
			return nil, err
		}
	}

	return nil, lastErr
}

// fetchOnce performs a single GET attempt.
func (f *Fetcher) fetchOnce(ctx context.Context, req docdex.FetchRequest) (*docdex.FetchResponse, error) {
	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, docdex.Errorf(docdex.EINVALID, "invalid request for %q", req.URL)
	}
	hreq.Header.Set("User-Agent", f.userAgent)
	hreq.Header.Set("Accept", acceptHeader)
	if req.ETag != "" {
		hreq.Header.Set("If-None-Match", req.ETag)
	}
	if req.LastModified != "" {
		hreq.Header.Set("If-Modified-Since", req.LastModified)
	}

	resp, err := f.client.Do(hreq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &docdex.FetchError{URL: req.URL, Transient: true, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		return &docdex.FetchResponse{
			FinalURL:    finalURL(resp, req.URL),
			StatusCode:  resp.StatusCode,
			NotModified: true,
		}, nil

	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &docdex.FetchError{URL: req.URL, Transient: true, Err: err}
		}
		return &docdex.FetchResponse{
			Body:         body,
			FinalURL:     finalURL(resp, req.URL),
			StatusCode:   resp.StatusCode,
			ContentType:  resp.Header.Get("Content-Type"),
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}, nil

	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, &docdex.FetchError{
			URL:       req.URL,
			Status:    resp.StatusCode,
			Transient: true,
			Err:       fmt.Errorf("HTTP %d", resp.StatusCode),
		}

	default:
		return nil, &docdex.FetchError{
			URL:    req.URL,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	}
}

// finalURL reports the URL after redirects.
func finalURL(resp *http.Response, fallback string) string {
	if resp.Request != nil && resp.Request.URL != nil {
		return resp.Request.URL.String()
	}
	return fallback
}
