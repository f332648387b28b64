// Package crawl orchestrates the crawl-to-index pipeline: frontier
// discovery, rate-limited downloading into content-addressed storage,
// format-aware text extraction, and incremental indexing. Stages run as
// bounded worker pools joined by bounded queues; a full downstream queue
// stalls upstream production instead of buffering without bound.
package crawl

import (
	"context"
	"net/url"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/docdex"
	"golang.org/x/sync/errgroup"
)

// defaultQueueSize bounds the inter-stage queues when no explicit size is
// configured.
const defaultQueueSize = 16

// Coordinator glues the pipeline stages together and owns all per-session
// state. One Coordinator runs one crawl session; a new policy requires a new
// Coordinator.
type Coordinator struct {
	Policy       docdex.CrawlPolicy
	Fetcher      docdex.Fetcher
	Frontier     docdex.FrontierService
	Documents    docdex.DocumentService
	Texts        docdex.TextService
	Index        docdex.IndexService
	Extractors   docdex.ExtractorRegistry
	Blobs        docdex.BlobStore
	DetectFormat docdex.FormatDetector

	// Optional semantic capability. Both must be set for embeddings to be
	// computed at index time.
	Embedder   docdex.Embedder
	Embeddings docdex.EmbeddingService

	// Events receives a progress event on every state transition.
	Events EventFunc

	// QueueSize bounds the inter-stage queues (0 = default).
	QueueSize int

	gate   *pauseGate
	cancel context.CancelFunc
	mu     sync.Mutex
}

// indexItem is one parsed document queued for index commit. The entry is the
// frontier entry being processed; it finishes only when the commit lands.
type indexItem struct {
	entry *docdex.FrontierEntry
	doc   *docdex.Document
	text  *docdex.ExtractedText
}

// Run crawls from the seed URL until the frontier is exhausted, a cap is
// reached, or the session is canceled, and returns the terminal summary.
// Frontier and document state are persisted as the run proceeds, so an
// interrupted session resumes by calling Run again with the same stores.
func (c *Coordinator) Run(ctx context.Context, seedURL string) (*Summary, error) {
	if err := c.Policy.Validate(); err != nil {
		return nil, err
	}

	seed, err := Normalize(seedURL, nil)
	if err != nil {
		return nil, docdex.Errorf(docdex.EINVALID, "invalid seed URL %q", seedURL)
	}
	disc, err := NewDiscoverer(seed, c.Policy.FollowDiscoveredPages)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	c.gate = newPauseGate()
	c.cancel = cancel
	c.mu.Unlock()

	// Seeds are always re-queued, even if a previous run finished them:
	// listing pages change between runs.
	now := time.Now().UTC()
	seedEntry := &docdex.FrontierEntry{URL: seed, Kind: docdex.KindPage, Status: docdex.EntryPending, DiscoveredAt: now}
	if err := c.Frontier.UpsertEntries(ctx, []*docdex.FrontierEntry{seedEntry}, false); err != nil {
		return nil, err
	}

	// Resume: pending and previously failed entries re-enter the queue;
	// done/skipped entries stay finished.
	queue := NewFrontier()
	queue.Push(docdex.Link{URL: seed, Kind: docdex.KindPage, Priority: docdex.PriorityPage})
	if err := c.enqueuePersisted(ctx, queue); err != nil {
		return nil, err
	}

	qsize := c.QueueSize
	if qsize <= 0 {
		qsize = defaultQueueSize
	}
	downloadCh := make(chan *docdex.FrontierEntry, qsize)
	indexCh := make(chan indexItem, qsize)

	summary := newSummary()
	claimed := make(map[string]bool) // document IDs already bound for the index this run
	var smu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)

	// Stage 1: discovery. Single producer; rate limiting dominates listing
	// fetches, so there is nothing to parallelize here.
	g.Go(func() error {
		defer close(downloadCh)
		return c.discoverLoop(gctx, disc, queue, downloadCh, summary, &smu)
	})

	// Stage 2+3: download and parse workers. Parsing is CPU-bound and
	// downloading is network-bound, so each worker takes a document through
	// both stages; the pool width still bounds total concurrency.
	var wg sync.WaitGroup
	for i := 0; i < c.Policy.MaxConcurrency; i++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			return c.documentWorker(gctx, downloadCh, indexCh, claimed, summary, &smu)
		})
	}
	g.Go(func() error {
		wg.Wait()
		close(indexCh)
		return nil
	})

	// Stage 4: a single index worker. Upserts for one document ID are
	// strictly ordered because nothing else writes the index.
	g.Go(func() error {
		return c.indexWorker(gctx, indexCh, summary, &smu)
	})

	err = g.Wait()
	c.emit(Event{Type: EventFinished, Summary: summary})
	if err != nil && err != context.Canceled {
		return summary, err
	}
	return summary, nil
}

// Pause suspends the pipeline at the next stage boundary. In-flight
// single-document work completes first.
func (c *Coordinator) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gate != nil {
		c.gate.Close()
	}
}

// Resume reopens a paused pipeline.
func (c *Coordinator) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gate != nil {
		c.gate.Open()
	}
}

// Cancel stops the session cooperatively: no new fetches start, in-flight
// work settles, and persisted state stays consistent for a later resume.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	if c.gate != nil {
		c.gate.Open() // a paused session must still observe the cancel
	}
}

// enqueuePersisted loads pending entries from the persisted frontier into
// the in-memory queue.
func (c *Coordinator) enqueuePersisted(ctx context.Context, queue *Frontier) error {
	entries, err := c.Frontier.NextPending(ctx, 0)
	if err != nil {
		return err
	}
	for _, e := range entries {
		prio := docdex.PriorityDocument
		if e.Kind == docdex.KindPage {
			prio = docdex.PriorityPage
		}
		queue.Push(docdex.Link{URL: e.URL, Kind: e.Kind, Priority: prio})
	}
	return nil
}

// discoverLoop is the frontier producer: it visits listing pages
// breadth-first, records discoveries, and feeds document entries to the
// download stage.
func (c *Coordinator) discoverLoop(ctx context.Context, disc *Discoverer, queue *Frontier, downloadCh chan<- *docdex.FrontierEntry, summary *Summary, smu *sync.Mutex) error {
	pagesVisited := 0
	docsEnqueued := 0
	seenPages := make(map[uint64]bool) // xxhash digests of listing bodies seen this run

	for {
		if err := c.wait(ctx); err != nil {
			return nil // canceled: remaining entries stay pending
		}

		link, ok := queue.Pop()
		if !ok {
			return nil
		}

		if link.Kind == docdex.KindDocument {
			if c.Policy.MaxDocuments > 0 && docsEnqueued >= c.Policy.MaxDocuments {
				c.markSkipped(ctx, link.URL, "document cap reached")
				c.count(smu, func() { summary.Skipped++ })
				continue
			}
			entry, err := c.Frontier.FindEntry(ctx, link.URL)
			if err != nil {
				continue
			}
			if entry.Status == docdex.EntryDone || entry.Status == docdex.EntrySkipped {
				continue
			}
			select {
			case downloadCh <- entry:
				docsEnqueued++
			case <-ctx.Done():
				return nil
			}
			continue
		}

		if c.Policy.MaxPages > 0 && pagesVisited >= c.Policy.MaxPages {
			c.markSkipped(ctx, link.URL, "page cap reached")
			continue
		}
		if c.visitPage(ctx, disc, queue, link.URL, seenPages, summary, smu) {
			pagesVisited++
		}
	}
}

// visitPage fetches one listing page and enqueues what it links to.
// Returns true when the page was fetched (successfully or not) so caps count
// attempts, not successes.
func (c *Coordinator) visitPage(ctx context.Context, disc *Discoverer, queue *Frontier, pageURL string, seenPages map[uint64]bool, summary *Summary, smu *sync.Mutex) bool {
	entry, err := c.Frontier.FindEntry(ctx, pageURL)
	if err != nil {
		return false
	}
	if entry.Status == docdex.EntryDone || entry.Status == docdex.EntrySkipped {
		return false
	}

	now := time.Now().UTC()
	c.updateEntry(ctx, pageURL, docdex.FrontierUpdate{Status: statusPtr(docdex.EntryFetching), IncrAttempts: true, LastAttemptAt: &now})

	resp, err := c.Fetcher.Fetch(ctx, docdex.FetchRequest{URL: pageURL})
	if err != nil {
		if ctx.Err() != nil {
			// Canceled mid-fetch: leave the page pending for resume. The reset
			// must outlive the session context or it would never be written.
			c.updateEntry(context.WithoutCancel(ctx), pageURL, docdex.FrontierUpdate{Status: statusPtr(docdex.EntryPending)})
			return false
		}
		// One bad page never aborts the crawl.
		c.failEntry(ctx, pageURL, err)
		c.count(smu, func() {
			summary.Failed++
			summary.FailedKinds[docdex.ErrorCode(err)]++
			summary.FailedURLs[pageURL] = err.Error()
		})
		c.emit(Event{Type: EventFailed, URL: pageURL, Err: err})
		return true
	}

	// Mirror URLs and tracking-parameter variants serve byte-identical
	// listings; parsing the copy would only re-discover the same links.
	digest := xxhash.Sum64(resp.Body)
	if seenPages[digest] {
		c.updateEntry(ctx, pageURL, docdex.FrontierUpdate{Status: statusPtr(docdex.EntryDone)})
		c.count(smu, func() { summary.PagesVisited++ })
		c.emit(Event{Type: EventPageVisited, URL: pageURL})
		return true
	}
	seenPages[digest] = true

	listing, err := disc.ParseListing(resp.FinalURL, resp.Body)
	if err != nil {
		c.failEntry(ctx, pageURL, err)
		c.emit(Event{Type: EventFailed, URL: pageURL, Err: err})
		return true
	}

	discovered := now
	var docEntries, pageEntries []*docdex.FrontierEntry
	for _, u := range listing.Documents {
		docEntries = append(docEntries, &docdex.FrontierEntry{URL: u, Kind: docdex.KindDocument, Status: docdex.EntryPending, DiscoveredAt: discovered})
	}
	for _, u := range listing.Pages {
		pageEntries = append(pageEntries, &docdex.FrontierEntry{URL: u, Kind: docdex.KindPage, Status: docdex.EntryPending, DiscoveredAt: discovered})
	}

	// Finished entries keep their status: a page visited earlier, this run or
	// a previous one, re-enters only through a new session's seed or an
	// explicit re-crawl.
	if len(docEntries) > 0 {
		if err := c.Frontier.UpsertEntries(ctx, docEntries, true); err != nil {
			c.failEntry(ctx, pageURL, err)
			return true
		}
	}
	if len(pageEntries) > 0 {
		if err := c.Frontier.UpsertEntries(ctx, pageEntries, true); err != nil {
			c.failEntry(ctx, pageURL, err)
			return true
		}
	}

	for _, u := range listing.Pages {
		queue.Push(docdex.Link{URL: u, Kind: docdex.KindPage, Priority: docdex.PriorityPage})
	}
	newDocs := 0
	for _, u := range listing.Documents {
		if queue.Push(docdex.Link{URL: u, Kind: docdex.KindDocument, Priority: docdex.PriorityDocument}) {
			newDocs++
		}
	}

	c.updateEntry(ctx, pageURL, docdex.FrontierUpdate{Status: statusPtr(docdex.EntryDone), Title: &listing.Title})
	c.count(smu, func() {
		summary.PagesVisited++
		summary.Discovered += newDocs
	})
	c.emit(Event{Type: EventPageVisited, URL: pageURL})
	return true
}

// documentWorker takes one document through download and parse, then hands
// it to the index stage.
func (c *Coordinator) documentWorker(ctx context.Context, downloadCh <-chan *docdex.FrontierEntry, indexCh chan<- indexItem, claimed map[string]bool, summary *Summary, smu *sync.Mutex) error {
	dl := &Downloader{Fetcher: c.Fetcher, Documents: c.Documents, Blobs: c.Blobs}

	for entry := range downloadCh {
		if err := c.wait(ctx); err != nil {
			continue // drain; entries stay pending for resume
		}

		c.emit(Event{Type: EventStateChanged, URL: entry.URL, State: StateDownloading})
		now := time.Now().UTC()
		c.updateEntry(ctx, entry.URL, docdex.FrontierUpdate{Status: statusPtr(docdex.EntryFetching), IncrAttempts: true, LastAttemptAt: &now})

		doc, reused, err := dl.Download(ctx, entry)
		if err != nil {
			c.handleDownloadError(ctx, entry, err, summary, smu)
			continue
		}

		c.count(smu, func() {
			if reused {
				summary.Reused++
			} else {
				summary.Downloaded++
			}
		})
		c.emit(Event{Type: EventStateChanged, URL: entry.URL, DocumentID: doc.ID, State: StateDownloaded})

		// The entry finishes only once the document is terminal: already
		// indexed, covered by a sibling worker's claim, parse failed, or
		// committed by the index stage downstream.
		if doc.Indexed {
			c.updateEntry(ctx, entry.URL, docdex.FrontierUpdate{Status: statusPtr(docdex.EntryDone)})
			continue
		}

		// Two URLs with identical bytes can land on sibling workers in the
		// same run; only the first claimant parses and indexes the content.
		smu.Lock()
		already := claimed[doc.ID]
		claimed[doc.ID] = true
		smu.Unlock()
		if already {
			// The claimant's entry tracks the content through to the index.
			c.updateEntry(ctx, entry.URL, docdex.FrontierUpdate{Status: statusPtr(docdex.EntryDone)})
			continue
		}

		text, err := c.parse(ctx, doc)
		if err != nil {
			if ctx.Err() != nil {
				// Canceled mid-parse: nothing terminal was recorded, so the
				// entry returns to pending for resume. The reset must outlive
				// the session context or it would never be written.
				c.updateEntry(context.WithoutCancel(ctx), entry.URL, docdex.FrontierUpdate{Status: statusPtr(docdex.EntryPending)})
				continue
			}
			c.updateEntry(ctx, entry.URL, docdex.FrontierUpdate{Status: statusPtr(docdex.EntryDone)})
			c.count(smu, func() {
				summary.Failed++
				summary.FailedKinds[docdex.ErrorCode(err)]++
				summary.FailedURLs[doc.SourceURL] = err.Error()
			})
			c.emit(Event{Type: EventFailed, URL: doc.SourceURL, DocumentID: doc.ID, State: StateFailed, Err: err})
			continue
		}
		c.emit(Event{Type: EventStateChanged, URL: doc.SourceURL, DocumentID: doc.ID, State: StateParsed})

		select {
		case indexCh <- indexItem{entry: entry, doc: doc, text: text}:
		case <-ctx.Done():
			// The parsed result never reached the index stage; re-queue.
			c.updateEntry(context.WithoutCancel(ctx), entry.URL, docdex.FrontierUpdate{Status: statusPtr(docdex.EntryPending)})
		}
	}
	return nil
}

// handleDownloadError records a failed download. Robots denials are policy
// skips, not failures; everything else marks the entry failed with its error
// retained for reporting.
func (c *Coordinator) handleDownloadError(ctx context.Context, entry *docdex.FrontierEntry, err error, summary *Summary, smu *sync.Mutex) {
	if ctx.Err() != nil {
		// Canceled mid-transfer: no partial Document exists, retry later. The
		// reset must outlive the session context or it would never be written.
		c.updateEntry(context.WithoutCancel(ctx), entry.URL, docdex.FrontierUpdate{Status: statusPtr(docdex.EntryPending)})
		return
	}

	if docdex.ErrorCode(err) == docdex.EPOLICY {
		c.markSkipped(ctx, entry.URL, err.Error())
		c.count(smu, func() { summary.Skipped++ })
		c.emit(Event{Type: EventStateChanged, URL: entry.URL, State: StateFailed, Err: err})
		return
	}

	c.failEntry(ctx, entry.URL, err)
	c.count(smu, func() {
		summary.Failed++
		summary.FailedKinds[docdex.ErrorCode(err)]++
		summary.FailedURLs[entry.URL] = err.Error()
	})
	c.emit(Event{Type: EventFailed, URL: entry.URL, State: StateFailed, Err: err})
}

// parse extracts text from a stored document and persists the result.
func (c *Coordinator) parse(ctx context.Context, doc *docdex.Document) (*docdex.ExtractedText, error) {
	c.emit(Event{Type: EventStateChanged, URL: doc.SourceURL, DocumentID: doc.ID, State: StateParsing})

	data, err := os.ReadFile(doc.LocalPath)
	if err != nil {
		perr := docdex.Errorf(docdex.EINTERNAL, "read stored blob: %v", err)
		c.markParseFailed(ctx, doc, perr)
		return nil, perr
	}

	format := c.DetectFormat(data, doc.ContentType)
	if err := sniffMismatch(doc.SourceURL, format); err != nil {
		c.markParseFailed(ctx, doc, err)
		return nil, err
	}
	extractor, err := c.Extractors.Get(format)
	if err != nil {
		c.markParseFailed(ctx, doc, err)
		return nil, err
	}

	text, err := extractor.Extract(ctx, data)
	if err != nil {
		c.markParseFailed(ctx, doc, err)
		return nil, err
	}
	text.DocumentID = doc.ID

	if err := c.Texts.SaveText(ctx, text); err != nil {
		c.markParseFailed(ctx, doc, err)
		return nil, err
	}

	upd := docdex.DocumentUpdate{ParseStatus: strPtr(docdex.StatusSuccess), Format: &format}
	if doc.Title == "" && text.Title != "" {
		upd.Title = &text.Title
	}
	updated, err := c.Documents.UpdateDocument(ctx, doc.ID, upd)
	if err != nil {
		return nil, err
	}
	*doc = *updated

	return text, nil
}

// sniffMismatch rejects an HTML body behind a URL that promises a binary
// document: that is a block page or interstitial, not the document itself.
func sniffMismatch(sourceURL string, format docdex.Format) error {
	if format != docdex.FormatHTML {
		return nil
	}
	u, err := url.Parse(sourceURL)
	if err != nil {
		return nil
	}
	switch strings.ToLower(path.Ext(u.Path)) {
	case ".pdf", ".doc", ".docx":
		return docdex.Errorf(docdex.EUNSUPPORTED, "%s served an HTML page instead of the document", sourceURL)
	}
	return nil
}

// markParseFailed records a per-document parse failure without blocking
// sibling documents.
func (c *Coordinator) markParseFailed(ctx context.Context, doc *docdex.Document, perr error) {
	if ctx.Err() != nil {
		return // canceled mid-parse; the entry re-queues and the parse reruns on resume
	}
	kind := docdex.ErrorCode(perr)
	_, _ = c.Documents.UpdateDocument(ctx, doc.ID, docdex.DocumentUpdate{
		ParseStatus: strPtr(docdex.StatusFailed),
		ParseError:  &kind,
	})
}

// indexWorker commits parsed text to the search index and, when the
// semantic capability is present, stores per-chunk embeddings.
func (c *Coordinator) indexWorker(ctx context.Context, indexCh <-chan indexItem, summary *Summary, smu *sync.Mutex) error {
	for item := range indexCh {
		cctx := ctx
		if err := c.wait(ctx); err != nil {
			// Canceled with parsed work still queued: dropping it would strand
			// the document between parsed and indexed, so the commit runs to
			// completion anyway.
			cctx = context.WithoutCancel(ctx)
		}

		if err := c.Index.Upsert(cctx, item.doc.ID, item.text.FullText); err != nil {
			c.failEntry(cctx, item.entry.URL, err)
			c.count(smu, func() {
				summary.Failed++
				summary.FailedKinds[docdex.ErrorCode(err)]++
				summary.FailedURLs[item.doc.SourceURL] = err.Error()
			})
			c.emit(Event{Type: EventFailed, URL: item.doc.SourceURL, DocumentID: item.doc.ID, Err: err})
			continue
		}

		indexed := true
		if _, err := c.Documents.UpdateDocument(cctx, item.doc.ID, docdex.DocumentUpdate{Indexed: &indexed}); err != nil {
			return err
		}

		// Embeddings are an enrichment; the document is searchable without
		// them, so a canceled session skips the network round trip.
		if c.Policy.SemanticEnabled && c.Embedder != nil && c.Embeddings != nil && ctx.Err() == nil {
			if err := c.embed(ctx, item.doc.ID, item.text.FullText); err != nil {
				c.emit(Event{Type: EventFailed, URL: item.doc.SourceURL, DocumentID: item.doc.ID, Err: err})
			}
		}

		c.updateEntry(cctx, item.entry.URL, docdex.FrontierUpdate{Status: statusPtr(docdex.EntryDone)})
		c.count(smu, func() { summary.Indexed++ })
		c.emit(Event{Type: EventStateChanged, URL: item.doc.SourceURL, DocumentID: item.doc.ID, State: StateIndexed})
	}
	return nil
}

// embed computes and stores per-chunk embeddings for a document.
func (c *Coordinator) embed(ctx context.Context, docID, fullText string) error {
	chunks := docdex.ChunkText(fullText, docdex.ChunkSize, docdex.ChunkOverlap)
	if len(chunks) == 0 {
		return nil
	}
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	vecs, err := c.Embedder.Embed(ctx, texts)
	if err != nil {
		return err
	}
	embs := make([]*docdex.Embedding, 0, len(vecs))
	for i, v := range vecs {
		embs = append(embs, &docdex.Embedding{
			DocumentID: docID,
			Chunk:      i,
			Model:      c.Embedder.Model(),
			Vector:     v,
			Norm:       docdex.VectorNorm(v),
		})
	}
	return c.Embeddings.SaveEmbeddings(ctx, embs)
}

// wait blocks while the session is paused and fails when it is canceled.
func (c *Coordinator) wait(ctx context.Context) error {
	c.mu.Lock()
	gate := c.gate
	c.mu.Unlock()
	if gate == nil {
		return ctx.Err()
	}
	return gate.Wait(ctx)
}

func (c *Coordinator) emit(ev Event) {
	if c.Events != nil {
		c.Events(ev)
	}
}

func (c *Coordinator) count(smu *sync.Mutex, fn func()) {
	smu.Lock()
	defer smu.Unlock()
	fn()
}

func (c *Coordinator) updateEntry(ctx context.Context, url string, upd docdex.FrontierUpdate) {
	_ = c.Frontier.UpdateEntry(ctx, url, upd)
}

func (c *Coordinator) failEntry(ctx context.Context, url string, err error) {
	msg := err.Error()
	c.updateEntry(ctx, url, docdex.FrontierUpdate{Status: statusPtr(docdex.EntryFailed), Error: &msg})
}

func (c *Coordinator) markSkipped(ctx context.Context, url, reason string) {
	c.updateEntry(ctx, url, docdex.FrontierUpdate{Status: statusPtr(docdex.EntrySkipped), Error: &reason})
}

func statusPtr(s docdex.EntryStatus) *docdex.EntryStatus { return &s }

func strPtr(s string) *string { return &s }

// pauseGate is a reopenable gate observed at stage boundaries.
type pauseGate struct {
	mu   sync.Mutex
	open chan struct{} // closed channel = gate open
}

func newPauseGate() *pauseGate {
	g := &pauseGate{}
	g.open = make(chan struct{})
	close(g.open)
	return g
}

// Close pauses callers of Wait.
func (g *pauseGate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	select {
	case <-g.open:
		g.open = make(chan struct{})
	default:
	}
}

// Open releases paused callers.
func (g *pauseGate) Open() {
	g.mu.Lock()
	defer g.mu.Unlock()
	select {
	case <-g.open:
	default:
		close(g.open)
	}
}

// Wait blocks until the gate is open or the context is canceled.
func (g *pauseGate) Wait(ctx context.Context) error {
	for {
		g.mu.Lock()
		ch := g.open
		g.mu.Unlock()
		select {
		case <-ch:
			return ctx.Err()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
