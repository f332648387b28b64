package extract

import (
	"context"
	"strings"

	"github.com/fwojciec/docdex"
	"github.com/otiai10/gosseract/v2"
)

// Compile-time interface verification.
var _ docdex.Extractor = (*OCRExtractor)(nil)

// OCRExtractor recognizes text in image documents using Tesseract. It backs
// the image format directly and serves as the fallback for scanned PDFs. It
// is registered only when OCR is enabled in the crawl policy.
type OCRExtractor struct {
	languages []string
}

// NewOCRExtractor creates an OCRExtractor. languages defaults to English.
func NewOCRExtractor(languages ...string) *OCRExtractor {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &OCRExtractor{languages: languages}
}

// Extract runs Tesseract over the image bytes.
func (e *OCRExtractor) Extract(ctx context.Context, data []byte) (*docdex.ExtractedText, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.languages...); err != nil {
		return nil, docdex.Errorf(docdex.EUNSUPPORTED, "failed to configure OCR languages: %s", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return nil, docdex.Errorf(docdex.EUNSUPPORTED, "OCR cannot read image: %s", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, docdex.Errorf(docdex.EUNSUPPORTED, "OCR failed: %s", err)
	}

	return &docdex.ExtractedText{
		FullText:    strings.TrimSpace(text),
		PageOffsets: []docdex.PageOffset{{Page: 1, Start: 0}},
		OCRUsed:     true,
	}, nil
}
