package sqlite_test

import (
	"context"
	"testing"

	"github.com/fwojciec/docdex"
	"github.com/fwojciec/docdex/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextService_SaveText(t *testing.T) {
	t.Parallel()

	t.Run("saves and retrieves extracted text", func(t *testing.T) {
		t.Parallel()

		db := mustOpenDB(t)
		docs := sqlite.NewDocumentService(db)
		s := sqlite.NewTextService(db)
		ctx := context.Background()

		require.NoError(t, docs.CreateDocument(ctx, testDocument("hash1", "https://example.gov/a.pdf")))

		text := &docdex.ExtractedText{
			DocumentID:  "hash1",
			Title:       "Annual Report",
			FullText:    "page one text\n\npage two text",
			PageOffsets: []docdex.PageOffset{{Page: 1, Start: 0}, {Page: 2, Start: 15}},
			OCRUsed:     false,
		}
		require.NoError(t, s.SaveText(ctx, text))

		got, err := s.FindTextByDocument(ctx, "hash1")
		require.NoError(t, err)
		assert.Equal(t, "Annual Report", got.Title)
		assert.Equal(t, "page one text\n\npage two text", got.FullText)
		assert.Equal(t, []docdex.PageOffset{{Page: 1, Start: 0}, {Page: 2, Start: 15}}, got.PageOffsets)
		assert.False(t, got.OCRUsed)
	})

	t.Run("replaces prior text", func(t *testing.T) {
		t.Parallel()

		db := mustOpenDB(t)
		docs := sqlite.NewDocumentService(db)
		s := sqlite.NewTextService(db)
		ctx := context.Background()

		require.NoError(t, docs.CreateDocument(ctx, testDocument("hash1", "https://example.gov/a.pdf")))
		require.NoError(t, s.SaveText(ctx, &docdex.ExtractedText{DocumentID: "hash1", FullText: "first"}))
		require.NoError(t, s.SaveText(ctx, &docdex.ExtractedText{DocumentID: "hash1", FullText: "second", OCRUsed: true}))

		got, err := s.FindTextByDocument(ctx, "hash1")
		require.NoError(t, err)
		assert.Equal(t, "second", got.FullText)
		assert.True(t, got.OCRUsed)
	})

	t.Run("rejects missing document ID", func(t *testing.T) {
		t.Parallel()

		s := sqlite.NewTextService(mustOpenDB(t))
		err := s.SaveText(context.Background(), &docdex.ExtractedText{FullText: "orphan"})
		require.Error(t, err)
		assert.Equal(t, docdex.EINVALID, docdex.ErrorCode(err))
	})
}

func TestTextService_FindTextByDocument_NotFound(t *testing.T) {
	t.Parallel()

	s := sqlite.NewTextService(mustOpenDB(t))
	_, err := s.FindTextByDocument(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, docdex.ENOTFOUND, docdex.ErrorCode(err))
}

func TestTextService_DeleteTextByDocument(t *testing.T) {
	t.Parallel()

	db := mustOpenDB(t)
	docs := sqlite.NewDocumentService(db)
	s := sqlite.NewTextService(db)
	ctx := context.Background()

	require.NoError(t, docs.CreateDocument(ctx, testDocument("hash1", "https://example.gov/a.pdf")))
	require.NoError(t, s.SaveText(ctx, &docdex.ExtractedText{DocumentID: "hash1", FullText: "body"}))

	require.NoError(t, s.DeleteTextByDocument(ctx, "hash1"))
	_, err := s.FindTextByDocument(ctx, "hash1")
	assert.Equal(t, docdex.ENOTFOUND, docdex.ErrorCode(err))

	// Unknown IDs are a no-op.
	require.NoError(t, s.DeleteTextByDocument(ctx, "missing"))
}
