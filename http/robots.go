package http

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/benjaminestes/robots"
	"github.com/fwojciec/docdex"
)

// robotsFetchTimeout bounds the robots.txt request itself.
const robotsFetchTimeout = 20 * time.Second

// robotsTTL bounds how long cached rules are trusted; long-running sessions
// pick up rule changes on the next fetch past the deadline.
const robotsTTL = time.Hour

// Ensure RobotsCache implements docdex.RobotsService at compile time.
var _ docdex.RobotsService = (*RobotsCache)(nil)

// robotsEntry is one cached robots.txt. nil rules = unreachable, allow all.
type robotsEntry struct {
	rules     *robots.Robots
	fetchedAt time.Time
}

// RobotsCache fetches and caches robots.txt rules, one entry per robots URL.
// An unreachable or unparseable robots.txt permits everything, matching how
// the target site's absence of rules is treated. Entries expire after a TTL
// so rule changes reach sessions that outlive the cache.
type RobotsCache struct {
	client    *http.Client
	userAgent string
	ttl       time.Duration

	mu    sync.Mutex
	cache map[string]robotsEntry
}

// RobotsOption configures a RobotsCache.
type RobotsOption func(*RobotsCache)

// WithRobotsTTL overrides how long cached rules are trusted.
func WithRobotsTTL(ttl time.Duration) RobotsOption {
	return func(c *RobotsCache) { c.ttl = ttl }
}

// NewRobotsCache creates a RobotsCache identified by userAgent.
func NewRobotsCache(userAgent string, opts ...RobotsOption) *RobotsCache {
	c := &RobotsCache{
		client:    &http.Client{Timeout: robotsFetchTimeout},
		userAgent: userAgent,
		ttl:       robotsTTL,
		cache:     make(map[string]robotsEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Allowed reports whether robots rules permit fetching the URL.
func (c *RobotsCache) Allowed(ctx context.Context, rawURL string) (bool, error) {
	robotsURL, err := robots.Locate(rawURL)
	if err != nil {
		return false, docdex.Errorf(docdex.EINVALID, "invalid URL %q", rawURL)
	}

	r, err := c.get(ctx, robotsURL)
	if err != nil {
		return false, err
	}
	if r == nil {
		return true, nil
	}
	return r.Test(c.userAgent, rawURL), nil
}

// get returns the cached rules for a robots URL, fetching on first use or
// once the cached entry has expired.
func (c *RobotsCache) get(ctx context.Context, robotsURL string) (*robots.Robots, error) {
	c.mu.Lock()
	e, ok := c.cache[robotsURL]
	c.mu.Unlock()
	if ok && time.Since(e.fetchedAt) < c.ttl {
		return e.rules, nil
	}

	r := c.fetch(ctx, robotsURL)

	c.mu.Lock()
	c.cache[robotsURL] = robotsEntry{rules: r, fetchedAt: time.Now()}
	c.mu.Unlock()
	return r, nil
}

// fetch retrieves and parses robots.txt. Any failure yields nil (allow all).
func (c *RobotsCache) fetch(ctx context.Context, robotsURL string) *robots.Robots {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}

	r, err := robots.From(resp.StatusCode, bytes.NewReader(body))
	if err != nil {
		return nil
	}
	return r
}
