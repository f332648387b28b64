package crawl

import (
	"sync"

	"github.com/google/uuid"
)

// DocState is the pipeline state of one document URL.
type DocState string

// Per-document pipeline states. failed is reachable from downloading and
// parsing and carries the last error.
const (
	StateDiscovered  DocState = "discovered"
	StateDownloading DocState = "downloading"
	StateDownloaded  DocState = "downloaded"
	StateParsing     DocState = "parsing"
	StateParsed      DocState = "parsed"
	StateIndexed     DocState = "indexed"
	StateFailed      DocState = "failed"
)

// EventType indicates the type of progress event.
type EventType int

// Progress event types.
const (
	EventPageVisited EventType = iota
	EventStateChanged
	EventFailed
	EventFinished
)

// Event reports pipeline progress. One is emitted for every visited listing
// page, every per-document state transition, every failure, and once at the
// end carrying the terminal summary.
type Event struct {
	Type       EventType
	URL        string
	DocumentID string
	State      DocState
	Err        error
	Summary    *Summary // set on EventFinished only
}

// EventFunc is a callback for receiving progress events.
type EventFunc func(Event)

// Summary is the terminal report of a crawl: counts by final state plus the
// failed documents with their error kinds.
type Summary struct {
	// SessionID identifies the run that produced this summary.
	SessionID string

	PagesVisited int
	Discovered   int
	Downloaded   int
	Reused       int
	Indexed      int
	Skipped      int
	Failed       int

	// FailedKinds counts failures by docdex error code.
	FailedKinds map[string]int

	// FailedURLs maps each failed URL to its error message.
	FailedURLs map[string]string
}

func newSummary() *Summary {
	return &Summary{
		SessionID:   uuid.NewString(),
		FailedKinds: make(map[string]int),
		FailedURLs:  make(map[string]string),
	}
}

// Hub fans progress events out to subscribers. The GUI layer (out of scope
// here) subscribes through this; the pipeline publishes and never knows who
// listens.
type Hub struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan Event)}
}

// Subscribe registers a subscriber with the given buffer size and returns
// the event channel plus a cancel function that closes it.
func (h *Hub) Subscribe(buffer int) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.next
	h.next++
	ch := make(chan Event, buffer)
	h.subs[id] = ch

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if c, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(c)
		}
	}
}

// Publish delivers the event to all subscribers. A subscriber whose buffer
// is full misses the event rather than stalling the pipeline.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
