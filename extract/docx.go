package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/docdex"
)

// Compile-time interface verification.
var _ docdex.Extractor = (*DOCXExtractor)(nil)

// DOCXExtractor extracts text from DOCX (OOXML) documents. Page boundaries
// come from explicit page breaks and the renderer-recorded soft breaks, so
// page numbers are approximate for documents edited after their last render.
type DOCXExtractor struct{}

// NewDOCXExtractor creates a DOCXExtractor.
func NewDOCXExtractor() *DOCXExtractor {
	return &DOCXExtractor{}
}

// Extract unpacks word/document.xml and walks its runs in document order.
func (e *DOCXExtractor) Extract(ctx context.Context, data []byte) (*docdex.ExtractedText, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, docdex.Errorf(docdex.EUNSUPPORTED, "failed to open DOCX container: %s", err)
	}

	var docXML []byte
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			rc, err := f.Open()
			if err != nil {
				return nil, fmt.Errorf("failed to open document.xml: %w", err)
			}
			docXML, err = io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return nil, fmt.Errorf("failed to read document.xml: %w", err)
			}
			break
		}
	}
	if docXML == nil {
		return nil, docdex.Errorf(docdex.EUNSUPPORTED, "DOCX container has no word/document.xml")
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(docXML); err != nil {
		return nil, docdex.Errorf(docdex.EUNSUPPORTED, "failed to parse document XML: %s", err)
	}

	root := doc.Root()
	if root == nil {
		return nil, docdex.Errorf(docdex.EUNSUPPORTED, "empty document XML")
	}

	w := &docxWalker{page: 1}
	w.offsets = append(w.offsets, docdex.PageOffset{Page: 1, Start: 0})
	w.walk(root)

	return &docdex.ExtractedText{
		FullText:    strings.TrimRight(w.sb.String(), "\n"),
		PageOffsets: w.offsets,
	}, nil
}

// docxWalker accumulates text and page boundaries from a document tree.
type docxWalker struct {
	sb      strings.Builder
	offsets []docdex.PageOffset
	page    int
}

func (w *docxWalker) walk(el *etree.Element) {
	switch el.Tag {
	case "t":
		w.sb.WriteString(el.Text())
		return
	case "tab":
		w.sb.WriteString("\t")
		return
	case "br":
		if el.SelectAttrValue("type", "") == "page" {
			w.pageBreak()
		} else {
			w.sb.WriteString("\n")
		}
		return
	case "lastRenderedPageBreak":
		w.pageBreak()
		return
	}

	for _, child := range el.ChildElements() {
		w.walk(child)
	}

	// Paragraph boundary.
	if el.Tag == "p" {
		w.sb.WriteString("\n")
	}
}

func (w *docxWalker) pageBreak() {
	w.sb.WriteString("\n")
	w.page++
	w.offsets = append(w.offsets, docdex.PageOffset{Page: w.page, Start: w.sb.Len()})
}
