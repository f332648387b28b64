package docdex

import (
	"context"
	"time"
)

// EntryKind classifies a frontier URL.
type EntryKind string

// Frontier entry kinds.
const (
	KindPage     EntryKind = "page"     // listing/pagination page
	KindDocument EntryKind = "document" // downloadable document
)

// EntryStatus is the lifecycle state of a frontier entry.
type EntryStatus string

// Frontier entry statuses. Entries never regress from done/skipped to
// pending except through an explicit user-triggered reset.
const (
	EntryPending  EntryStatus = "pending"
	EntryFetching EntryStatus = "fetching"
	EntryDone     EntryStatus = "done"
	EntryFailed   EntryStatus = "failed"
	EntrySkipped  EntryStatus = "skipped"
)

// FrontierEntry is one discovered URL, unique by normalized URL. Entries are
// kept forever for resumability and auditing.
type FrontierEntry struct {
	URL           string      `json:"url"`
	Kind          EntryKind   `json:"kind"`
	Status        EntryStatus `json:"status"`
	Title         string      `json:"title"`
	Attempts      int         `json:"attempts"`
	Error         string      `json:"error"`
	DiscoveredAt  time.Time   `json:"discoveredAt"`
	LastAttemptAt time.Time   `json:"lastAttemptAt"`
}

// Validate returns an error if the entry contains invalid fields.
func (e *FrontierEntry) Validate() error {
	if e.URL == "" {
		return Errorf(EINVALID, "frontier entry URL required")
	}
	if e.Kind != KindPage && e.Kind != KindDocument {
		return Errorf(EINVALID, "frontier entry kind %q invalid", e.Kind)
	}
	return nil
}

// FrontierUpdate represents fields that can be updated on a frontier entry.
type FrontierUpdate struct {
	Status        *EntryStatus `json:"status"`
	Title         *string      `json:"title"`
	Error         *string      `json:"error"`
	IncrAttempts  bool         `json:"incrAttempts"`
	LastAttemptAt *time.Time   `json:"lastAttemptAt"`
}

// FrontierService persists frontier state so an interrupted crawl can resume
// without re-discovering or re-downloading unchanged content.
type FrontierService interface {
	// UpsertEntries inserts entries that are new and re-queues entries that
	// already exist. When preserveDone is true, entries already done or
	// skipped keep their status (documents are not re-downloaded); when
	// false they are re-queued as pending (listing pages may change between
	// runs).
	UpsertEntries(ctx context.Context, entries []*FrontierEntry, preserveDone bool) error

	// NextPending returns up to limit entries eligible for (re)processing
	// (0 = no limit): pending and previously failed entries, pages before
	// documents, oldest discovery first. Done and skipped entries are never
	// returned.
	NextPending(ctx context.Context, limit int) ([]*FrontierEntry, error)

	// FindEntry retrieves an entry by normalized URL.
	// Returns ENOTFOUND if the entry does not exist.
	FindEntry(ctx context.Context, url string) (*FrontierEntry, error)

	// UpdateEntry updates an existing entry.
	// Returns ENOTFOUND if the entry does not exist.
	UpdateEntry(ctx context.Context, url string, upd FrontierUpdate) error

	// ResetEntry re-queues a done/skipped/failed entry as pending. This is
	// the only path by which a terminal entry regresses.
	ResetEntry(ctx context.Context, url string) error

	// CountByStatus returns entry counts grouped by status.
	CountByStatus(ctx context.Context) (map[EntryStatus]int, error)
}

// Link is a discovered URL queued for processing within a single run.
type Link struct {
	URL      string
	Kind     EntryKind
	Priority int
}

// Link priorities. Listing pages are processed before documents so the
// frontier fans out early.
const (
	PriorityPage     = 10
	PriorityDocument = 0
)

// URLFrontier is the in-memory crawl queue with deduplication.
type URLFrontier interface {
	// Push adds a link to the frontier.
	// Returns false if the URL has already been seen.
	Push(link Link) bool

	// Pop returns the next link by priority.
	// Returns false if the frontier is empty.
	Pop() (Link, bool)

	// Len returns the number of links in the queue.
	Len() int

	// Seen returns true if the URL has been processed or queued.
	Seen(url string) bool
}

// HostLimiter provides per-host request spacing.
type HostLimiter interface {
	// Wait blocks until the rate limit allows a request to the host.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, host string) error
}

// RobotsService evaluates robots.txt rules for candidate URLs.
type RobotsService interface {
	// Allowed reports whether the crawl policy permits fetching the URL.
	// Rules are fetched once per host and cached; an unreachable robots.txt
	// permits everything.
	Allowed(ctx context.Context, rawURL string) (bool, error)
}
