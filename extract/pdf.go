package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/fwojciec/docdex"
	"github.com/ledongthuc/pdf"
)

// Compile-time interface verification.
var _ docdex.Extractor = (*PDFExtractor)(nil)

// A page with fewer extracted characters than this is treated as image-only.
const scannedPageThreshold = 20

// PDFExtractor extracts per-page text from PDF documents. When most pages
// carry no text layer the document is treated as scanned and routed to the
// optional OCR extractor.
type PDFExtractor struct {
	ocr docdex.Extractor // nil when OCR is disabled
}

// NewPDFExtractor creates a PDFExtractor. ocr may be nil, in which case
// scanned documents fail with EUNSUPPORTED.
func NewPDFExtractor(ocr docdex.Extractor) *PDFExtractor {
	return &PDFExtractor{ocr: ocr}
}

// Extract returns the concatenated page texts with page-boundary offsets.
func (e *PDFExtractor) Extract(ctx context.Context, data []byte) (result *docdex.ExtractedText, err error) {
	// The underlying reader panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = docdex.Errorf(docdex.EUNSUPPORTED, "malformed PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, docdex.Errorf(docdex.EUNSUPPORTED, "failed to open PDF: %s", err)
	}

	numPages := reader.NumPage()
	if numPages == 0 {
		return nil, docdex.Errorf(docdex.EUNSUPPORTED, "PDF has no pages")
	}

	var sb strings.Builder
	var offsets []docdex.PageOffset
	emptyPages := 0

	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		offsets = append(offsets, docdex.PageOffset{Page: i, Start: sb.Len()})

		if page.V.IsNull() {
			emptyPages++
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to extract page %d: %w", i, err)
		}
		text = strings.TrimSpace(text)
		if len(text) < scannedPageThreshold {
			emptyPages++
		}

		sb.WriteString(text)
		if i < numPages {
			sb.WriteString("\n\n")
		}
	}

	// Most pages without a text layer means the document is a scan.
	if emptyPages*2 > numPages {
		if e.ocr == nil {
			return nil, docdex.Errorf(docdex.EUNSUPPORTED, "scanned PDF requires OCR, which is not enabled")
		}
		return e.ocr.Extract(ctx, data)
	}

	return &docdex.ExtractedText{
		FullText:    sb.String(),
		PageOffsets: offsets,
		Title:       pdfTitle(reader),
	}, nil
}

// pdfTitle reads the Title entry from the document info dictionary, if any.
func pdfTitle(reader *pdf.Reader) string {
	defer func() { recover() }()
	title := reader.Trailer().Key("Info").Key("Title").Text()
	return strings.TrimSpace(title)
}
