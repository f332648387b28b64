package docdex_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/fwojciec/docdex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractedText_PageFor(t *testing.T) {
	t.Parallel()

	text := &docdex.ExtractedText{
		PageOffsets: []docdex.PageOffset{
			{Page: 1, Start: 0},
			{Page: 2, Start: 100},
			{Page: 3, Start: 250},
		},
	}

	assert.Equal(t, 1, text.PageFor(0))
	assert.Equal(t, 1, text.PageFor(99))
	assert.Equal(t, 2, text.PageFor(100))
	assert.Equal(t, 2, text.PageFor(249))
	assert.Equal(t, 3, text.PageFor(250))
	assert.Equal(t, 3, text.PageFor(10000))
}

func TestExtractedText_PageFor_NoOffsets(t *testing.T) {
	t.Parallel()

	text := &docdex.ExtractedText{}
	assert.Equal(t, 1, text.PageFor(500))
}

func TestChunkText(t *testing.T) {
	t.Parallel()

	t.Run("short text is one chunk", func(t *testing.T) {
		t.Parallel()

		chunks := docdex.ChunkText("hello world", 100, 10)
		require.Len(t, chunks, 1)
		assert.Equal(t, "hello world", chunks[0].Text)
		assert.Equal(t, 0, chunks[0].Start)
	})

	t.Run("long text overlaps", func(t *testing.T) {
		t.Parallel()

		text := strings.Repeat("a", 250)
		chunks := docdex.ChunkText(text, 100, 20)
		require.True(t, len(chunks) > 1)

		for i, ch := range chunks {
			assert.Equal(t, i, ch.Index)
			assert.LessOrEqual(t, len(ch.Text), 100)
			if i > 0 {
				prev := chunks[i-1]
				assert.Equal(t, prev.Start+100-20, ch.Start)
			}
		}

		last := chunks[len(chunks)-1]
		assert.Equal(t, len(text), last.Start+len(last.Text))
	})

	t.Run("empty text yields no chunks", func(t *testing.T) {
		t.Parallel()

		assert.Nil(t, docdex.ChunkText("", 100, 10))
	})

	t.Run("boundaries never split a rune", func(t *testing.T) {
		t.Parallel()

		// 2-byte runes with a max size that lands mid-rune.
		text := strings.Repeat("é", 40)
		chunks := docdex.ChunkText(text, 15, 4)
		require.True(t, len(chunks) > 1)

		for _, ch := range chunks {
			assert.True(t, utf8.ValidString(ch.Text), "chunk %d is not valid UTF-8", ch.Index)
			assert.True(t, utf8.RuneStart(text[ch.Start]), "chunk %d starts mid-rune", ch.Index)
		}

		last := chunks[len(chunks)-1]
		assert.Equal(t, len(text), last.Start+len(last.Text))
	})
}

func TestCosineSimilarity(t *testing.T) {
	t.Parallel()

	a := []float32{1, 0}
	b := []float32{0, 1}
	c := []float32{2, 0}

	na := docdex.VectorNorm(a)
	nb := docdex.VectorNorm(b)
	nc := docdex.VectorNorm(c)

	assert.InDelta(t, 0, docdex.CosineSimilarity(a, na, b, nb), 1e-9)
	assert.InDelta(t, 1, docdex.CosineSimilarity(a, na, c, nc), 1e-9)
	assert.Zero(t, docdex.CosineSimilarity(a, na, []float32{0, 0}, 0))
}

func TestCrawlPolicy_Validate(t *testing.T) {
	t.Parallel()

	t.Run("default policy is valid", func(t *testing.T) {
		t.Parallel()

		policy := docdex.DefaultPolicy()
		assert.NoError(t, policy.Validate())
	})

	t.Run("missing user agent", func(t *testing.T) {
		t.Parallel()

		policy := docdex.DefaultPolicy()
		policy.UserAgent = ""
		err := policy.Validate()
		assert.Equal(t, docdex.EINVALID, docdex.ErrorCode(err))
	})

	t.Run("zero concurrency", func(t *testing.T) {
		t.Parallel()

		policy := docdex.DefaultPolicy()
		policy.MaxConcurrency = 0
		err := policy.Validate()
		assert.Equal(t, docdex.EINVALID, docdex.ErrorCode(err))
	})
}

func TestDocument_Validate(t *testing.T) {
	t.Parallel()

	doc := &docdex.Document{ID: "abc123", SourceURL: "https://example.com/a.pdf"}
	assert.NoError(t, doc.Validate())

	doc = &docdex.Document{SourceURL: "https://example.com/a.pdf"}
	assert.Equal(t, docdex.EINVALID, docdex.ErrorCode(doc.Validate()))

	doc = &docdex.Document{ID: "abc123"}
	assert.Equal(t, docdex.EINVALID, docdex.ErrorCode(doc.Validate()))
}

func TestFrontierEntry_Validate(t *testing.T) {
	t.Parallel()

	entry := &docdex.FrontierEntry{URL: "https://example.com", Kind: docdex.KindPage}
	assert.NoError(t, entry.Validate())

	entry = &docdex.FrontierEntry{URL: "https://example.com", Kind: "bogus"}
	assert.Equal(t, docdex.EINVALID, docdex.ErrorCode(entry.Validate()))
}

func TestMatchMode_Valid(t *testing.T) {
	t.Parallel()

	for _, mode := range []docdex.MatchMode{
		docdex.ModeKeyword, docdex.ModeRegex, docdex.ModeWildcard,
		docdex.ModeFuzzy, docdex.ModeSemantic,
	} {
		assert.True(t, mode.Valid(), string(mode))
	}
	assert.False(t, docdex.MatchMode("exact").Valid())
}
