package extract_test

import (
	"context"
	"testing"

	"github.com/fwojciec/docdex"
	"github.com/fwojciec/docdex/extract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPDFExtractor_Extract(t *testing.T) {
	t.Parallel()

	t.Run("rejects non-PDF bytes", func(t *testing.T) {
		t.Parallel()

		e := extract.NewPDFExtractor(nil)
		_, err := e.Extract(context.Background(), []byte("not a pdf at all"))
		require.Error(t, err)
		assert.Equal(t, docdex.EUNSUPPORTED, docdex.ErrorCode(err))
	})

	t.Run("rejects truncated PDF", func(t *testing.T) {
		t.Parallel()

		e := extract.NewPDFExtractor(nil)
		_, err := e.Extract(context.Background(), []byte("%PDF-1.4\n1 0 obj\n<<"))
		require.Error(t, err)
		assert.Equal(t, docdex.EUNSUPPORTED, docdex.ErrorCode(err))
	})
}
