package docdex

import "time"

// DefaultUserAgent identifies the crawler to the target site.
const DefaultUserAgent = "docdex/1.0 (+https://github.com/fwojciec/docdex)"

// CrawlPolicy is the immutable per-session crawl configuration. A fresh
// policy requires a fresh session; nothing mutates it mid-crawl.
type CrawlPolicy struct {
	// UserAgent is sent on every request and matched against robots rules.
	UserAgent string

	// RequestInterval is the minimum spacing between requests to one host.
	RequestInterval time.Duration

	// MaxConcurrency bounds the per-stage worker pools.
	MaxConcurrency int

	// RespectRobots enables robots.txt evaluation before any fetch.
	RespectRobots bool

	// MaxPages caps listing pages visited (0 = unlimited).
	MaxPages int

	// MaxDocuments caps documents downloaded (0 = unlimited).
	MaxDocuments int

	// FollowDiscoveredPages follows all in-scope page links instead of only
	// pagination links.
	FollowDiscoveredPages bool

	// OCREnabled routes image-only documents through the OCR extractor.
	OCREnabled bool

	// SemanticEnabled computes and stores embeddings at index time and
	// permits semantic queries.
	SemanticEnabled bool

	// FuzzyMaxDistance is the maximum edit distance for fuzzy matching.
	FuzzyMaxDistance int

	// RetryDelays are the backoff delays between fetch attempts.
	RetryDelays []time.Duration
}

// DefaultPolicy returns a conservative policy suitable for public sites.
func DefaultPolicy() CrawlPolicy {
	return CrawlPolicy{
		UserAgent:        DefaultUserAgent,
		RequestInterval:  time.Second,
		MaxConcurrency:   4,
		RespectRobots:    true,
		FuzzyMaxDistance: 2,
		RetryDelays:      []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
	}
}

// Validate returns an error if the policy contains invalid fields.
func (p *CrawlPolicy) Validate() error {
	if p.UserAgent == "" {
		return Errorf(EINVALID, "policy user agent required")
	}
	if p.RequestInterval < 0 {
		return Errorf(EINVALID, "policy request interval must not be negative")
	}
	if p.MaxConcurrency < 1 {
		return Errorf(EINVALID, "policy max concurrency must be at least 1")
	}
	if p.FuzzyMaxDistance < 0 {
		return Errorf(EINVALID, "policy fuzzy max distance must not be negative")
	}
	return nil
}
