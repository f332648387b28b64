package extract

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/docdex"
	"github.com/markusmobius/go-trafilatura"
)

// Compile-time interface verification.
var _ docdex.Extractor = (*HTMLExtractor)(nil)

// HTMLExtractor extracts the main content of HTML documents using
// trafilatura, falling back to the stripped body text when boilerplate
// removal finds nothing. HTML documents have no page structure; everything
// reports as page 1.
type HTMLExtractor struct{}

// NewHTMLExtractor creates an HTMLExtractor.
func NewHTMLExtractor() *HTMLExtractor {
	return &HTMLExtractor{}
}

// Extract returns the main content text and the document title.
func (e *HTMLExtractor) Extract(ctx context.Context, data []byte) (*docdex.ExtractedText, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := trafilatura.Options{
		EnableFallback: true,
	}

	result, err := trafilatura.Extract(bytes.NewReader(data), opts)
	if err == nil && strings.TrimSpace(result.ContentText) != "" {
		return &docdex.ExtractedText{
			FullText:    strings.TrimSpace(result.ContentText),
			PageOffsets: []docdex.PageOffset{{Page: 1, Start: 0}},
			Title:       result.Metadata.Title,
		}, nil
	}

	// Boilerplate removal found no main content; fall back to the raw body
	// text so the document is still searchable.
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, docdex.Errorf(docdex.EUNSUPPORTED, "failed to parse HTML: %s", err)
	}

	doc.Find("script, style, noscript").Remove()
	text := strings.TrimSpace(doc.Find("body").Text())
	text = collapseWhitespace(text)

	return &docdex.ExtractedText{
		FullText:    text,
		PageOffsets: []docdex.PageOffset{{Page: 1, Start: 0}},
		Title:       strings.TrimSpace(doc.Find("title").First().Text()),
	}, nil
}

// collapseWhitespace squeezes runs of blank lines and intra-line whitespace
// left behind by stripped markup.
func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
