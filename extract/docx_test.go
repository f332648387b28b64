package extract_test

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/fwojciec/docdex"
	"github.com/fwojciec/docdex/extract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildDOCX packs a word/document.xml body into a minimal DOCX container.
func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)

	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDOCXExtractor_Extract(t *testing.T) {
	t.Parallel()

	t.Run("extracts paragraphs with page breaks", func(t *testing.T) {
		t.Parallel()

		data := buildDOCX(t, `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First page text</w:t></w:r></w:p>
    <w:p><w:r><w:br w:type="page"/><w:t>Second page text</w:t></w:r></w:p>
  </w:body>
</w:document>`)

		e := extract.NewDOCXExtractor()
		got, err := e.Extract(context.Background(), data)
		require.NoError(t, err)

		assert.Equal(t, "First page text\n\nSecond page text", got.FullText)
		assert.Equal(t, []docdex.PageOffset{{Page: 1, Start: 0}, {Page: 2, Start: 17}}, got.PageOffsets)
		assert.Equal(t, 2, got.PageFor(20))
	})

	t.Run("tabs and soft line breaks", func(t *testing.T) {
		t.Parallel()

		data := buildDOCX(t, `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Name</w:t><w:tab/><w:t>Value</w:t><w:br/><w:t>next line</w:t></w:r></w:p>
  </w:body>
</w:document>`)

		e := extract.NewDOCXExtractor()
		got, err := e.Extract(context.Background(), data)
		require.NoError(t, err)
		assert.Equal(t, "Name\tValue\nnext line", got.FullText)
	})

	t.Run("renderer-recorded page breaks", func(t *testing.T) {
		t.Parallel()

		data := buildDOCX(t, `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>before</w:t></w:r></w:p>
    <w:p><w:r><w:lastRenderedPageBreak/><w:t>after</w:t></w:r></w:p>
  </w:body>
</w:document>`)

		e := extract.NewDOCXExtractor()
		got, err := e.Extract(context.Background(), data)
		require.NoError(t, err)
		require.Len(t, got.PageOffsets, 2)
		assert.Equal(t, 2, got.PageOffsets[1].Page)
	})

	t.Run("rejects container without document.xml", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		zw := zip.NewWriter(&buf)
		w, err := zw.Create("other.txt")
		require.NoError(t, err)
		_, err = w.Write([]byte("not a docx"))
		require.NoError(t, err)
		require.NoError(t, zw.Close())

		e := extract.NewDOCXExtractor()
		_, err = e.Extract(context.Background(), buf.Bytes())
		require.Error(t, err)
		assert.Equal(t, docdex.EUNSUPPORTED, docdex.ErrorCode(err))
	})

	t.Run("rejects non-zip bytes", func(t *testing.T) {
		t.Parallel()

		e := extract.NewDOCXExtractor()
		_, err := e.Extract(context.Background(), []byte("plainly not a zip archive"))
		require.Error(t, err)
		assert.Equal(t, docdex.EUNSUPPORTED, docdex.ErrorCode(err))
	})
}
