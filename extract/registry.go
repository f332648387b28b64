// Package extract provides format detection and per-format text extractors
// for downloaded documents. Extractors normalize every format to the same
// shape: full text plus page offsets, so search hits can be reported with a
// page number regardless of source format.
package extract

import (
	"bytes"
	"mime"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/fwojciec/docdex"
)

// Compile-time interface verification.
var _ docdex.ExtractorRegistry = (*Registry)(nil)

// Registry maps detected formats to extractor variants.
type Registry struct {
	mu         sync.RWMutex
	extractors map[docdex.Format]docdex.Extractor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{extractors: make(map[docdex.Format]docdex.Extractor)}
}

// Get returns the extractor for a format.
func (r *Registry) Get(format docdex.Format) (docdex.Extractor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.extractors[format]
	if !ok {
		return nil, docdex.Errorf(docdex.EUNSUPPORTED, "no extractor for format %q", format)
	}
	return e, nil
}

// Register adds or replaces the variant for a format.
func (r *Registry) Register(format docdex.Format, e docdex.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors[format] = e
}

// Formats lists formats with a registered variant.
func (r *Registry) Formats() []docdex.Format {
	r.mu.RLock()
	defer r.mu.RUnlock()

	formats := make([]docdex.Format, 0, len(r.extractors))
	for f := range r.extractors {
		formats = append(formats, f)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}

// DefaultRegistry returns a registry with every built-in extractor wired.
// With OCR enabled, image documents are handled directly and scanned PDFs
// fall back to recognition.
func DefaultRegistry(ocrEnabled bool) *Registry {
	r := NewRegistry()

	var ocr docdex.Extractor
	if ocrEnabled {
		o := NewOCRExtractor()
		r.Register(docdex.FormatImage, o)
		ocr = o
	}

	r.Register(docdex.FormatPDF, NewPDFExtractor(ocr))
	r.Register(docdex.FormatDOCX, NewDOCXExtractor())
	r.Register(docdex.FormatHTML, NewHTMLExtractor())
	r.Register(docdex.FormatText, NewTextExtractor())
	return r
}

// Magic byte prefixes for container formats.
var (
	magicPDF  = []byte("%PDF-")
	magicZIP  = []byte("PK\x03\x04")
	magicPNG  = []byte("\x89PNG\r\n\x1a\n")
	magicJPEG = []byte("\xff\xd8\xff")
	magicGIF  = []byte("GIF8")
	magicTIFF = [][]byte{[]byte("II*\x00"), []byte("MM\x00*")}
)

// DetectFormat identifies a document's format from its leading bytes, falling
// back to the server-reported content type. The file extension is never
// consulted: servers routinely mislabel disclosure documents.
func DetectFormat(data []byte, contentType string) docdex.Format {
	switch {
	case bytes.HasPrefix(data, magicPDF):
		return docdex.FormatPDF
	case bytes.HasPrefix(data, magicZIP):
		// DOCX is a ZIP container holding word/document.xml. Other OOXML
		// packages (xlsx, pptx) and plain archives stay unknown.
		if bytes.Contains(data, []byte("word/document.xml")) {
			return docdex.FormatDOCX
		}
		return docdex.FormatUnknown
	case bytes.HasPrefix(data, magicPNG),
		bytes.HasPrefix(data, magicJPEG),
		bytes.HasPrefix(data, magicGIF),
		bytes.HasPrefix(data, magicTIFF[0]),
		bytes.HasPrefix(data, magicTIFF[1]):
		return docdex.FormatImage
	}

	if looksLikeHTML(data) {
		return docdex.FormatHTML
	}

	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		switch {
		case mt == "application/pdf":
			return docdex.FormatPDF
		case mt == "text/html", mt == "application/xhtml+xml":
			return docdex.FormatHTML
		case strings.HasPrefix(mt, "image/"):
			return docdex.FormatImage
		case strings.HasPrefix(mt, "text/"):
			return docdex.FormatText
		}
	}

	if looksLikeText(data) {
		return docdex.FormatText
	}

	return docdex.FormatUnknown
}

// looksLikeHTML checks for an HTML document marker near the start.
func looksLikeHTML(data []byte) bool {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	lower := bytes.ToLower(head)
	return bytes.Contains(lower, []byte("<!doctype html")) ||
		bytes.Contains(lower, []byte("<html"))
}

// looksLikeText treats valid UTF-8 without NUL bytes as plain text.
func looksLikeText(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	head := data
	if len(head) > 4096 {
		// Truncate at a rune boundary so the validity check isn't tripped by
		// a split multi-byte sequence.
		head = head[:4096]
		for len(head) > 0 && !utf8.RuneStart(head[len(head)-1]) {
			head = head[:len(head)-1]
		}
		if len(head) > 0 {
			head = head[:len(head)-1]
		}
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return false
	}
	return utf8.Valid(head)
}
