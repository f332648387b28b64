package extract_test

import (
	"context"
	"testing"

	"github.com/fwojciec/docdex"
	"github.com/fwojciec/docdex/extract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextExtractor_Extract(t *testing.T) {
	t.Parallel()

	t.Run("normalizes line endings", func(t *testing.T) {
		t.Parallel()

		e := extract.NewTextExtractor()
		got, err := e.Extract(context.Background(), []byte("line one\r\nline two\rline three\n"))
		require.NoError(t, err)
		assert.Equal(t, "line one\nline two\nline three", got.FullText)
		assert.Equal(t, []docdex.PageOffset{{Page: 1, Start: 0}}, got.PageOffsets)
		assert.False(t, got.OCRUsed)
	})

	t.Run("rejects invalid UTF-8", func(t *testing.T) {
		t.Parallel()

		e := extract.NewTextExtractor()
		_, err := e.Extract(context.Background(), []byte{0xff, 0xfe, 0x00})
		require.Error(t, err)
		assert.Equal(t, docdex.EUNSUPPORTED, docdex.ErrorCode(err))
	})

	t.Run("honors canceled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		e := extract.NewTextExtractor()
		_, err := e.Extract(ctx, []byte("text"))
		require.Error(t, err)
	})
}
