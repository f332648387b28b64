// Package match implements query evaluation over committed index state.
// Keyword queries lean on the FTS index for candidate selection; regex,
// wildcard and fuzzy queries scan extracted text directly; semantic queries
// re-rank FTS candidates by embedding similarity.
package match

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/fwojciec/docdex"
)

// Compile-time interface verification.
var _ docdex.Matcher = (*Engine)(nil)

const (
	defaultLimit  = 50
	maxCandidates = 500 // FTS prefilter width before re-ranking
	maxSpans      = 100 // spans reported per document
	snippetRadius = 60  // bytes of context on each side of a hit
)

// Engine implements docdex.Matcher against the stored index, extracted text
// and optional embeddings.
type Engine struct {
	Documents  docdex.DocumentService
	Texts      docdex.TextService
	Index      docdex.IndexService
	Embedder   docdex.Embedder // nil when semantic search is disabled
	Embeddings docdex.EmbeddingService

	// FuzzyMaxDistance is the largest edit distance fuzzy mode accepts.
	// Zero means the default of 2.
	FuzzyMaxDistance int
}

// Match evaluates a query in the given mode. Results are ordered by
// descending score with ties broken by document ID.
func (e *Engine) Match(ctx context.Context, query string, mode docdex.MatchMode, limit, offset int) ([]*docdex.MatchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, docdex.Errorf(docdex.EINVALID, "query required")
	}
	if !mode.Valid() {
		return nil, docdex.Errorf(docdex.EINVALID, "unknown match mode %q", mode)
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}

	var results []*docdex.MatchResult
	var err error
	switch mode {
	case docdex.ModeKeyword:
		results, err = e.keyword(ctx, query)
	case docdex.ModeRegex:
		results, err = e.regex(ctx, query)
	case docdex.ModeWildcard:
		results, err = e.wildcard(ctx, query)
	case docdex.ModeFuzzy:
		results, err = e.fuzzy(ctx, query)
	case docdex.ModeSemantic:
		results, err = e.semantic(ctx, query)
	}
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocumentID < results[j].DocumentID
	})

	if offset >= len(results) {
		return nil, nil
	}
	results = results[offset:]
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// keyword matches documents containing all query terms at word boundaries.
// The FTS index narrows candidates; scores are term frequency normalized by
// document length so short documents aren't drowned out by long ones.
func (e *Engine) keyword(ctx context.Context, query string) ([]*docdex.MatchResult, error) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil, docdex.Errorf(docdex.EINVALID, "query has no terms")
	}

	quoted := make([]string, len(terms))
	escaped := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
		escaped[i] = regexp.QuoteMeta(t)
	}

	records, err := e.Index.Search(ctx, strings.Join(quoted, " AND "), maxCandidates, 0)
	if err != nil {
		return nil, err
	}

	re := regexp.MustCompile(`(?i)\b(?:` + strings.Join(escaped, "|") + `)\b`)

	var results []*docdex.MatchResult
	for _, rec := range records {
		text, err := e.Texts.FindTextByDocument(ctx, rec.DocumentID)
		if err != nil {
			if docdex.ErrorCode(err) == docdex.ENOTFOUND {
				continue // index record without text; skip rather than fail the query
			}
			return nil, err
		}

		spans := findSpans(re, text.FullText)
		if len(spans) == 0 {
			continue
		}

		total := len(strings.Fields(text.FullText))
		if total == 0 {
			continue
		}

		results = append(results, &docdex.MatchResult{
			DocumentID: rec.DocumentID,
			Mode:       docdex.ModeKeyword,
			Score:      float64(len(spans)) / float64(total),
			Snippet:    snippetAround(text.FullText, spans[0]),
			Page:       text.PageFor(spans[0].Start),
			Spans:      spans,
		})
	}
	return results, nil
}

// regex matches documents against a user-supplied regular expression.
func (e *Engine) regex(ctx context.Context, query string) ([]*docdex.MatchResult, error) {
	re, err := regexp.Compile(query)
	if err != nil {
		return nil, docdex.Errorf(docdex.EINVALID, "invalid regular expression: %s", err)
	}
	return e.scan(ctx, docdex.ModeRegex, re)
}

// wildcard translates a glob pattern (* and ?) into a word-anchored regular
// expression and matches like regex mode.
func (e *Engine) wildcard(ctx context.Context, query string) ([]*docdex.MatchResult, error) {
	pattern, err := globToRegexp(query)
	if err != nil {
		return nil, err
	}
	return e.scan(ctx, docdex.ModeWildcard, pattern)
}

// scan evaluates a compiled pattern against every indexed document.
func (e *Engine) scan(ctx context.Context, mode docdex.MatchMode, re *regexp.Regexp) ([]*docdex.MatchResult, error) {
	indexed := true
	docs, err := e.Documents.FindDocuments(ctx, docdex.DocumentFilter{Indexed: &indexed})
	if err != nil {
		return nil, err
	}

	var results []*docdex.MatchResult
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := e.Texts.FindTextByDocument(ctx, doc.ID)
		if err != nil {
			if docdex.ErrorCode(err) == docdex.ENOTFOUND {
				continue
			}
			return nil, err
		}

		spans := findSpans(re, text.FullText)
		if len(spans) == 0 {
			continue
		}

		total := len(strings.Fields(text.FullText))
		if total == 0 {
			continue
		}

		results = append(results, &docdex.MatchResult{
			DocumentID: doc.ID,
			Mode:       mode,
			Score:      float64(len(spans)) / float64(total),
			Snippet:    snippetAround(text.FullText, spans[0]),
			Page:       text.PageFor(spans[0].Start),
			Spans:      spans,
		})
	}
	return results, nil
}

var wordRe = regexp.MustCompile(`[\pL\pN]+`)

// fuzzy matches query terms against document tokens within a bounded edit
// distance. A document matches when every query term has at least one token
// within the bound; its score is the mean closeness of the best match per
// term, where closeness is 1 - distance/len(term).
func (e *Engine) fuzzy(ctx context.Context, query string) ([]*docdex.MatchResult, error) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil, docdex.Errorf(docdex.EINVALID, "query has no terms")
	}

	maxDist := e.FuzzyMaxDistance
	if maxDist <= 0 {
		maxDist = 2
	}

	indexed := true
	docs, err := e.Documents.FindDocuments(ctx, docdex.DocumentFilter{Indexed: &indexed})
	if err != nil {
		return nil, err
	}

	var results []*docdex.MatchResult
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := e.Texts.FindTextByDocument(ctx, doc.ID)
		if err != nil {
			if docdex.ErrorCode(err) == docdex.ENOTFOUND {
				continue
			}
			return nil, err
		}

		tokens := wordRe.FindAllStringIndex(text.FullText, -1)

		var spans []docdex.Span
		var scoreSum float64
		matchedAll := true
		for _, term := range terms {
			best := -1.0
			var bestSpan docdex.Span
			for _, tok := range tokens {
				word := strings.ToLower(text.FullText[tok[0]:tok[1]])
				d := levenshtein.ComputeDistance(word, term)
				if d > maxDist {
					continue
				}
				score := 1 - float64(d)/float64(len([]rune(term)))
				if score > best {
					best = score
					bestSpan = docdex.Span{Start: tok[0], End: tok[1]}
				}
			}
			if best < 0 {
				matchedAll = false
				break
			}
			scoreSum += best
			if len(spans) < maxSpans {
				spans = append(spans, bestSpan)
			}
		}
		if !matchedAll {
			continue
		}

		sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
		results = append(results, &docdex.MatchResult{
			DocumentID: doc.ID,
			Mode:       docdex.ModeFuzzy,
			Score:      scoreSum / float64(len(terms)),
			Snippet:    snippetAround(text.FullText, spans[0]),
			Page:       text.PageFor(spans[0].Start),
			Spans:      spans,
		})
	}
	return results, nil
}

// semantic embeds the query and re-ranks FTS candidates by the best cosine
// similarity across their stored chunk vectors.
func (e *Engine) semantic(ctx context.Context, query string) ([]*docdex.MatchResult, error) {
	if e.Embedder == nil || e.Embeddings == nil {
		return nil, docdex.Errorf(docdex.EUNAVAILABLE, "semantic search is not configured")
	}

	vecs, err := e.Embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, docdex.Errorf(docdex.EUNAVAILABLE, "embedder returned no vector")
	}
	qvec := vecs[0]
	qnorm := docdex.VectorNorm(qvec)

	candidates, err := e.semanticCandidates(ctx, query)
	if err != nil {
		return nil, err
	}

	var results []*docdex.MatchResult
	for _, docID := range candidates {
		embs, err := e.Embeddings.FindEmbeddingsByDocument(ctx, docID, e.Embedder.Model())
		if err != nil {
			return nil, err
		}
		if len(embs) == 0 {
			continue
		}

		best := embs[0]
		bestScore := docdex.CosineSimilarity(qvec, qnorm, best.Vector, best.Norm)
		for _, emb := range embs[1:] {
			if s := docdex.CosineSimilarity(qvec, qnorm, emb.Vector, emb.Norm); s > bestScore {
				best, bestScore = emb, s
			}
		}

		result := &docdex.MatchResult{
			DocumentID: docID,
			Mode:       docdex.ModeSemantic,
			Score:      bestScore,
			Page:       1,
		}

		// Locate the winning chunk in the text for snippet and page.
		if text, err := e.Texts.FindTextByDocument(ctx, docID); err == nil {
			chunks := docdex.ChunkText(text.FullText, docdex.ChunkSize, docdex.ChunkOverlap)
			if best.Chunk < len(chunks) {
				ch := chunks[best.Chunk]
				end := ch.Start + len(ch.Text)
				result.Snippet = snippetAround(text.FullText, docdex.Span{Start: ch.Start, End: min(ch.Start+snippetRadius, end)})
				result.Page = text.PageFor(ch.Start)
				result.Spans = []docdex.Span{{Start: ch.Start, End: end}}
			}
		} else if docdex.ErrorCode(err) != docdex.ENOTFOUND {
			return nil, err
		}

		results = append(results, result)
	}
	return results, nil
}

// semanticCandidates narrows the corpus with an FTS OR-query over the query
// terms, falling back to every indexed document when nothing matches (the
// point of semantic mode is finding documents that share no keywords).
func (e *Engine) semanticCandidates(ctx context.Context, query string) ([]string, error) {
	terms := strings.Fields(strings.ToLower(query))
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}

	records, err := e.Index.Search(ctx, strings.Join(quoted, " OR "), maxCandidates, 0)
	if err == nil && len(records) > 0 {
		ids := make([]string, len(records))
		for i, rec := range records {
			ids[i] = rec.DocumentID
		}
		return ids, nil
	}

	indexed := true
	docs, err := e.Documents.FindDocuments(ctx, docdex.DocumentFilter{Indexed: &indexed})
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
	}
	return ids, nil
}

// globToRegexp compiles a wildcard pattern into a case-insensitive
// word-anchored regular expression. * matches any run of non-space
// characters, ? exactly one.
func globToRegexp(pattern string) (*regexp.Regexp, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, docdex.Errorf(docdex.EINVALID, "wildcard pattern required")
	}

	var sb strings.Builder
	sb.WriteString(`(?i)\b`)
	for _, r := range pattern {
		switch r {
		case '*':
			sb.WriteString(`\S*`)
		case '?':
			sb.WriteString(`\S`)
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString(`\b`)

	re, err := regexp.Compile(sb.String())
	if err != nil {
		return nil, docdex.Errorf(docdex.EINVALID, "invalid wildcard pattern: %s", err)
	}
	return re, nil
}

// findSpans returns up to maxSpans match ranges.
func findSpans(re *regexp.Regexp, text string) []docdex.Span {
	idx := re.FindAllStringIndex(text, maxSpans)
	spans := make([]docdex.Span, 0, len(idx))
	for _, m := range idx {
		if m[0] == m[1] {
			continue // empty matches carry no information
		}
		spans = append(spans, docdex.Span{Start: m[0], End: m[1]})
	}
	return spans
}

// snippetAround extracts the text surrounding a span, trimmed to word
// boundaries and collapsed to a single line.
func snippetAround(text string, span docdex.Span) string {
	start := span.Start - snippetRadius
	if start < 0 {
		start = 0
	}
	end := span.End + snippetRadius
	if end > len(text) {
		end = len(text)
	}

	// Advance to whitespace so the snippet doesn't open or close mid-word.
	if start > 0 {
		if i := strings.IndexAny(text[start:span.Start], " \t\n"); i >= 0 {
			start += i + 1
		}
	}
	if end < len(text) {
		if i := strings.LastIndexAny(text[span.End:end], " \t\n"); i >= 0 {
			end = span.End + i
		}
	}

	return strings.Join(strings.Fields(text[start:end]), " ")
}
