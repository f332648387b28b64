package extract

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/fwojciec/docdex"
)

// Compile-time interface verification.
var _ docdex.Extractor = (*TextExtractor)(nil)

// TextExtractor handles plain-text documents. Line endings are normalized;
// the whole document counts as a single page.
type TextExtractor struct{}

// NewTextExtractor creates a TextExtractor.
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

// Extract normalizes the bytes and returns them as one page of text.
func (e *TextExtractor) Extract(ctx context.Context, data []byte) (*docdex.ExtractedText, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, docdex.Errorf(docdex.EUNSUPPORTED, "text document is not valid UTF-8")
	}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSpace(text)

	return &docdex.ExtractedText{
		FullText:    text,
		PageOffsets: []docdex.PageOffset{{Page: 1, Start: 0}},
	}, nil
}
