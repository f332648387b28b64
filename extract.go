package docdex

import (
	"context"
	"sort"
)

// Format identifies a document format detected from content, not extension.
type Format string

// Detected document formats.
const (
	FormatPDF     Format = "pdf"
	FormatDOCX    Format = "docx"
	FormatHTML    Format = "html"
	FormatText    Format = "text"
	FormatImage   Format = "image"
	FormatUnknown Format = "unknown"
)

// PageOffset maps the character offset where a page begins, so a match
// offset can be reported back as a page number.
type PageOffset struct {
	Page  int `json:"page"`  // 1-based
	Start int `json:"start"` // rune-independent byte offset into FullText
}

// ExtractedText is the normalized text of one successfully parsed document.
// It is immutable once produced; re-parsing replaces it atomically.
type ExtractedText struct {
	DocumentID  string       `json:"documentId"`
	FullText    string       `json:"fullText"`
	PageOffsets []PageOffset `json:"pageOffsets"`
	Title       string       `json:"title"`
	OCRUsed     bool         `json:"ocrUsed"`
}

// Validate returns an error if the extracted text contains invalid fields.
func (t *ExtractedText) Validate() error {
	if t.DocumentID == "" {
		return Errorf(EINVALID, "extracted text document ID required")
	}
	return nil
}

// PageFor returns the 1-based page containing the given byte offset.
// Documents without page structure report page 1.
func (t *ExtractedText) PageFor(offset int) int {
	if len(t.PageOffsets) == 0 {
		return 1
	}
	i := sort.Search(len(t.PageOffsets), func(i int) bool {
		return t.PageOffsets[i].Start > offset
	})
	if i == 0 {
		return t.PageOffsets[0].Page
	}
	return t.PageOffsets[i-1].Page
}

// FormatDetector identifies a document's format from its leading bytes and
// the server-reported content type. Detection never trusts the file
// extension alone.
type FormatDetector func(data []byte, contentType string) Format

// Extractor extracts normalized text from raw document bytes.
// One implementation exists per Format; adding a format means registering a
// new variant, not touching dispatch sites.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (*ExtractedText, error)
}

// ExtractorRegistry selects the extractor variant for a detected format.
type ExtractorRegistry interface {
	// Get returns the extractor for a format.
	// Returns EUNSUPPORTED if no variant handles it.
	Get(format Format) (Extractor, error)

	// Register adds or replaces the variant for a format.
	Register(format Format, e Extractor)

	// Formats lists formats with a registered variant.
	Formats() []Format
}

// TextService persists extracted text alongside its document.
type TextService interface {
	// SaveText stores the extracted text, atomically replacing any prior
	// text for the same document.
	SaveText(ctx context.Context, text *ExtractedText) error

	// FindTextByDocument retrieves extracted text by document ID.
	// Returns ENOTFOUND if no text exists.
	FindTextByDocument(ctx context.Context, documentID string) (*ExtractedText, error)

	// DeleteTextByDocument removes extracted text for a document.
	DeleteTextByDocument(ctx context.Context, documentID string) error
}
