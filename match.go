package docdex

import "context"

// MatchMode selects the query semantics of a search.
type MatchMode string

// Supported match modes.
const (
	ModeKeyword  MatchMode = "keyword"
	ModeRegex    MatchMode = "regex"
	ModeWildcard MatchMode = "wildcard"
	ModeFuzzy    MatchMode = "fuzzy"
	ModeSemantic MatchMode = "semantic"
)

// Valid reports whether the mode is one of the supported modes.
func (m MatchMode) Valid() bool {
	switch m {
	case ModeKeyword, ModeRegex, ModeWildcard, ModeFuzzy, ModeSemantic:
		return true
	}
	return false
}

// Span is a matched byte range within a document's extracted text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// MatchResult is one query hit. Results are ephemeral: computed per query,
// never persisted.
type MatchResult struct {
	DocumentID string    `json:"documentId"`
	Mode       MatchMode `json:"mode"`
	Score      float64   `json:"score"`
	Snippet    string    `json:"snippet"`
	Page       int       `json:"page"`
	Spans      []Span    `json:"spans"`
}

// Matcher answers queries against committed index state. Results are ordered
// by descending score with ties broken by document ID for determinism.
type Matcher interface {
	Match(ctx context.Context, query string, mode MatchMode, limit, offset int) ([]*MatchResult, error)
}

// Embedder is the optional semantic-embedding capability. Absence is a
// normal, reportable state: callers surface EUNAVAILABLE, never a silent
// no-op.
type Embedder interface {
	// Embed returns one vector per input text.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Model identifies the embedding model, recorded with stored vectors.
	Model() string
}

// Embedding is one stored per-chunk document vector.
type Embedding struct {
	DocumentID string    `json:"documentId"`
	Chunk      int       `json:"chunk"`
	Model      string    `json:"model"`
	Vector     []float32 `json:"vector"`
	Norm       float64   `json:"norm"`
}

// EmbeddingService persists per-chunk document embeddings.
type EmbeddingService interface {
	// SaveEmbeddings replaces all stored vectors for a document and model.
	SaveEmbeddings(ctx context.Context, embs []*Embedding) error

	// FindEmbeddingsByDocument retrieves vectors for a document and model.
	FindEmbeddingsByDocument(ctx context.Context, documentID, model string) ([]*Embedding, error)

	// DeleteEmbeddingsByDocument removes all vectors for a document.
	DeleteEmbeddingsByDocument(ctx context.Context, documentID string) error
}
