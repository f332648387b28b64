package match_test

import (
	"context"
	"testing"

	"github.com/fwojciec/docdex"
	"github.com/fwojciec/docdex/match"
	"github.com/fwojciec/docdex/mock"
	"github.com/fwojciec/docdex/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// engineEnv is a match engine over a seeded in-memory database.
type engineEnv struct {
	engine     *match.Engine
	documents  *sqlite.DocumentService
	texts      *sqlite.TextService
	index      *sqlite.IndexService
	embeddings *sqlite.EmbeddingService
}

func newEngineEnv(t *testing.T) *engineEnv {
	t.Helper()

	db := sqlite.NewDB(":memory:")
	require.NoError(t, db.Open())
	t.Cleanup(func() { db.Close() })

	env := &engineEnv{
		documents:  sqlite.NewDocumentService(db),
		texts:      sqlite.NewTextService(db),
		index:      sqlite.NewIndexService(db),
		embeddings: sqlite.NewEmbeddingService(db),
	}
	env.engine = &match.Engine{
		Documents: env.documents,
		Texts:     env.texts,
		Index:     env.index,
	}
	return env
}

// seed stores an indexed document with extracted text.
func (env *engineEnv) seed(t *testing.T, id, fullText string, offsets ...docdex.PageOffset) {
	t.Helper()
	ctx := context.Background()

	doc := &docdex.Document{
		ID:          id,
		SourceURL:   "https://example.gov/files/" + id + ".pdf",
		FetchStatus: docdex.StatusSuccess,
		ParseStatus: docdex.StatusSuccess,
		Indexed:     true,
	}
	require.NoError(t, env.documents.CreateDocument(ctx, doc))
	require.NoError(t, env.texts.SaveText(ctx, &docdex.ExtractedText{
		DocumentID:  id,
		FullText:    fullText,
		PageOffsets: offsets,
	}))
	require.NoError(t, env.index.Upsert(ctx, id, fullText))
}

func TestEngine_Match_Validation(t *testing.T) {
	t.Parallel()

	env := newEngineEnv(t)
	ctx := context.Background()

	_, err := env.engine.Match(ctx, "   ", docdex.ModeKeyword, 10, 0)
	assert.Equal(t, docdex.EINVALID, docdex.ErrorCode(err))

	_, err = env.engine.Match(ctx, "budget", docdex.MatchMode("nope"), 10, 0)
	assert.Equal(t, docdex.EINVALID, docdex.ErrorCode(err))
}

func TestEngine_Match_Keyword(t *testing.T) {
	t.Parallel()

	env := newEngineEnv(t)
	ctx := context.Background()

	env.seed(t, "dense", "budget review and budget outlook")
	env.seed(t, "sparse", "the annual budget was approved among many other agenda items that day")
	env.seed(t, "other", "personnel changes for the quarter")

	t.Run("scores by term density", func(t *testing.T) {
		results, err := env.engine.Match(ctx, "budget", docdex.ModeKeyword, 10, 0)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "dense", results[0].DocumentID)
		assert.Equal(t, "sparse", results[1].DocumentID)
		assert.Greater(t, results[0].Score, results[1].Score)
		assert.Contains(t, results[0].Snippet, "budget")
		assert.Equal(t, 1, results[0].Page)
		assert.NotEmpty(t, results[0].Spans)
	})

	t.Run("all terms must match", func(t *testing.T) {
		results, err := env.engine.Match(ctx, "annual budget", docdex.ModeKeyword, 10, 0)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "sparse", results[0].DocumentID)
	})

	t.Run("matching is case-insensitive", func(t *testing.T) {
		results, err := env.engine.Match(ctx, "BUDGET", docdex.ModeKeyword, 10, 0)
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})
}

func TestEngine_Match_KeywordReportsPage(t *testing.T) {
	t.Parallel()

	env := newEngineEnv(t)

	text := "introductory front matter\n\nprocurement award details"
	env.seed(t, "paged", text,
		docdex.PageOffset{Page: 1, Start: 0},
		docdex.PageOffset{Page: 2, Start: 27},
	)

	results, err := env.engine.Match(context.Background(), "procurement", docdex.ModeKeyword, 10, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].Page)
}

func TestEngine_Match_Regex(t *testing.T) {
	t.Parallel()

	env := newEngineEnv(t)
	ctx := context.Background()

	env.seed(t, "contracts", "awarded under contract no. 4711 in March")
	env.seed(t, "other", "no contract identifiers here")

	t.Run("matches pattern", func(t *testing.T) {
		results, err := env.engine.Match(ctx, `contract no\. \d+`, docdex.ModeRegex, 10, 0)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "contracts", results[0].DocumentID)
		assert.Equal(t, docdex.ModeRegex, results[0].Mode)
	})

	t.Run("rejects invalid pattern", func(t *testing.T) {
		_, err := env.engine.Match(ctx, `(unclosed`, docdex.ModeRegex, 10, 0)
		require.Error(t, err)
		assert.Equal(t, docdex.EINVALID, docdex.ErrorCode(err))
	})
}

func TestEngine_Match_Wildcard(t *testing.T) {
	t.Parallel()

	env := newEngineEnv(t)
	ctx := context.Background()

	env.seed(t, "a", "quarterly disclosures for procurement")
	env.seed(t, "b", "a single disclosure statement")
	env.seed(t, "c", "nothing relevant")

	results, err := env.engine.Match(ctx, "disclos*", docdex.ModeWildcard, 10, 0)
	require.NoError(t, err)
	require.Len(t, results, 2)

	ids := []string{results[0].DocumentID, results[1].DocumentID}
	assert.ElementsMatch(t, []string{"a", "b"}, ids)

	// ? matches exactly one character.
	results, err = env.engine.Match(ctx, "?uarterly", docdex.ModeWildcard, 10, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].DocumentID)
}

func TestEngine_Match_Fuzzy(t *testing.T) {
	t.Parallel()

	env := newEngineEnv(t)
	ctx := context.Background()

	env.seed(t, "a", "the budget was approved")
	env.seed(t, "b", "personnel changes only")

	t.Run("tolerates misspellings", func(t *testing.T) {
		// "bugdet" is two edits from "budget": keyword mode misses, fuzzy hits.
		results, err := env.engine.Match(ctx, "bugdet", docdex.ModeKeyword, 10, 0)
		require.NoError(t, err)
		assert.Empty(t, results)

		results, err = env.engine.Match(ctx, "bugdet", docdex.ModeFuzzy, 10, 0)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "a", results[0].DocumentID)
		assert.Less(t, results[0].Score, 1.0)
	})

	t.Run("exact token scores 1", func(t *testing.T) {
		results, err := env.engine.Match(ctx, "budget", docdex.ModeFuzzy, 10, 0)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, 1.0, results[0].Score)
	})

	t.Run("distance beyond the bound misses", func(t *testing.T) {
		results, err := env.engine.Match(ctx, "zzzzzz", docdex.ModeFuzzy, 10, 0)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestEngine_Match_Semantic(t *testing.T) {
	t.Parallel()

	t.Run("unconfigured returns EUNAVAILABLE", func(t *testing.T) {
		t.Parallel()

		env := newEngineEnv(t)
		_, err := env.engine.Match(context.Background(), "budget", docdex.ModeSemantic, 10, 0)
		require.Error(t, err)
		assert.Equal(t, docdex.EUNAVAILABLE, docdex.ErrorCode(err))
	})

	t.Run("ranks by cosine similarity", func(t *testing.T) {
		t.Parallel()

		env := newEngineEnv(t)
		ctx := context.Background()

		env.seed(t, "close", "fiscal appropriations overview")
		env.seed(t, "far", "cafeteria menu for the week")

		embedder := &mock.Embedder{
			EmbedFn: func(ctx context.Context, texts []string) ([][]float32, error) {
				vecs := make([][]float32, len(texts))
				for i := range texts {
					vecs[i] = []float32{1, 0}
				}
				return vecs, nil
			},
		}
		env.engine.Embedder = embedder
		env.engine.Embeddings = env.embeddings

		require.NoError(t, env.embeddings.SaveEmbeddings(ctx, []*docdex.Embedding{
			{DocumentID: "close", Chunk: 0, Model: embedder.Model(), Vector: []float32{1, 0}},
		}))
		require.NoError(t, env.embeddings.SaveEmbeddings(ctx, []*docdex.Embedding{
			{DocumentID: "far", Chunk: 0, Model: embedder.Model(), Vector: []float32{0, 1}},
		}))

		// No stored document shares a keyword with the query, so candidates
		// fall back to the full indexed corpus.
		results, err := env.engine.Match(ctx, "spending plan", docdex.ModeSemantic, 10, 0)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "close", results[0].DocumentID)
		assert.InDelta(t, 1.0, results[0].Score, 1e-6)
		assert.InDelta(t, 0.0, results[1].Score, 1e-6)
		assert.NotEmpty(t, results[0].Snippet)
	})
}

func TestEngine_Match_LimitOffset(t *testing.T) {
	t.Parallel()

	env := newEngineEnv(t)
	ctx := context.Background()

	env.seed(t, "a", "shared term alpha")
	env.seed(t, "b", "shared term beta")
	env.seed(t, "c", "shared term gamma")

	page1, err := env.engine.Match(ctx, "shared", docdex.ModeKeyword, 2, 0)
	require.NoError(t, err)
	require.Len(t, page1, 2)

	page2, err := env.engine.Match(ctx, "shared", docdex.ModeKeyword, 2, 2)
	require.NoError(t, err)
	require.Len(t, page2, 1)

	beyond, err := env.engine.Match(ctx, "shared", docdex.ModeKeyword, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, beyond)
}
