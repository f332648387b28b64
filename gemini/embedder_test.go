package gemini_test

import (
	"context"
	"testing"

	"github.com/fwojciec/docdex"
	"github.com/fwojciec/docdex/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedder_Embed_ReturnsErrorWhenNoTexts(t *testing.T) {
	t.Parallel()

	e := gemini.NewEmbedder(nil) // nil client ok for this test

	_, err := e.Embed(context.Background(), nil)

	require.Error(t, err)
	assert.Equal(t, docdex.EINVALID, docdex.ErrorCode(err))
	assert.Contains(t, docdex.ErrorMessage(err), "at least one text")
}

func TestEmbedder_Model(t *testing.T) {
	t.Parallel()

	e := gemini.NewEmbedder(nil)
	assert.Equal(t, "text-embedding-004", e.Model())
}
