package main

import (
	"context"
	"io"
	"time"

	"github.com/fwojciec/docdex"
	"github.com/fwojciec/docdex/crawl"
	"github.com/fwojciec/docdex/sqlite"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx         context.Context
	Stdout      io.Writer
	Stderr      io.Writer
	DB          *sqlite.DB
	Documents   docdex.DocumentService
	Frontier    docdex.FrontierService
	Texts       docdex.TextService
	Index       docdex.IndexService
	Blobs       docdex.BlobStore
	Matcher     docdex.Matcher
	Coordinator *crawl.Coordinator
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Verbose bool `short:"v" help:"Log every fetch and index operation"`

	Crawl   CrawlCmd   `cmd:"" help:"Run or resume a crawl from a seed URL"`
	Search  SearchCmd  `cmd:"" help:"Search indexed documents"`
	Docs    DocsCmd    `cmd:"" help:"List downloaded documents and their states"`
	Recrawl RecrawlCmd `cmd:"" help:"Re-queue a URL for the next crawl"`
}

// CrawlCmd is the "crawl" subcommand. Flags map onto the crawl policy.
type CrawlCmd struct {
	URL         string        `arg:"" help:"Seed URL (listing page to crawl from)"`
	Interval    time.Duration `default:"1s" help:"Minimum spacing between requests to one host"`
	Concurrency int           `short:"c" default:"4" help:"Concurrent download/parse workers"`
	MaxPages    int           `help:"Stop after visiting this many listing pages (0 = unlimited)"`
	MaxDocs     int           `help:"Stop after downloading this many documents (0 = unlimited)"`
	NoRobots    bool          `help:"Skip robots.txt checks"`
	FollowPages bool          `help:"Follow all in-scope page links, not just pagination"`
	OCR         bool          `help:"Recognize text in scanned documents (requires tesseract)"`
	Semantic    bool          `help:"Compute embeddings at index time (requires GEMINI_API_KEY)"`
	UserAgent   string        `default:"${default_user_agent}" help:"User-Agent header"`
}

// Policy converts the command's flags into a crawl policy.
func (c *CrawlCmd) Policy() docdex.CrawlPolicy {
	policy := docdex.DefaultPolicy()
	policy.UserAgent = c.UserAgent
	policy.RequestInterval = c.Interval
	policy.MaxConcurrency = c.Concurrency
	policy.RespectRobots = !c.NoRobots
	policy.MaxPages = c.MaxPages
	policy.MaxDocuments = c.MaxDocs
	policy.FollowDiscoveredPages = c.FollowPages
	policy.OCREnabled = c.OCR
	policy.SemanticEnabled = c.Semantic
	return policy
}

// SearchCmd is the "search" subcommand.
type SearchCmd struct {
	Query  string `arg:"" help:"Search query"`
	Mode   string `default:"keyword" enum:"keyword,regex,wildcard,fuzzy,semantic" help:"Match mode"`
	Limit  int    `default:"20" help:"Maximum results"`
	Offset int    `default:"0" help:"Skip this many results"`
}

// DocsCmd is the "docs" subcommand.
type DocsCmd struct {
	Status  string `help:"Filter by parse status (pending, success, failed)"`
	Limit   int    `default:"0" help:"Maximum documents to list (0 = all)"`
	Aliases bool   `help:"Show all known source URLs per document"`
}

// RecrawlCmd is the "recrawl" subcommand.
type RecrawlCmd struct {
	URL string `arg:"" help:"URL to re-queue"`
}
