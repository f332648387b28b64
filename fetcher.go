package docdex

import "context"

// FetchRequest describes one outbound GET. ETag/LastModified, when set, are
// sent as conditional headers so unchanged content is not re-downloaded.
type FetchRequest struct {
	URL          string
	ETag         string
	LastModified string
}

// FetchResponse is the outcome of a successful fetch.
type FetchResponse struct {
	Body         []byte
	FinalURL     string
	StatusCode   int
	ContentType  string
	ETag         string
	LastModified string

	// NotModified is true when the server answered 304 to a conditional
	// request. Body is empty in that case.
	NotModified bool
}

// Fetcher is the sole network egress point of the pipeline. Implementations
// enforce the crawl policy: robots.txt rules (EPOLICY on denial), per-host
// request spacing, and bounded retries with backoff for transient failures.
type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest) (*FetchResponse, error)
}
