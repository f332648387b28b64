package docdex

import "unicode/utf8"

// Embedding chunk sizing. Overlap keeps phrases that straddle a boundary
// visible to both chunks.
const (
	ChunkSize    = 3000
	ChunkOverlap = 200
)

// Chunk is one embedding-sized slice of extracted text. Start is the byte
// offset of the slice in the source text, so a chunk-level match can be
// reported with a page number.
type Chunk struct {
	Index int    `json:"index"`
	Start int    `json:"start"`
	Text  string `json:"text"`
}

// ChunkText splits text into chunks of at most maxChars bytes with the given
// overlap between consecutive chunks.
func ChunkText(text string, maxChars, overlap int) []Chunk {
	if text == "" || maxChars <= 0 {
		return nil
	}
	if overlap >= maxChars {
		overlap = maxChars - 1
	}

	var chunks []Chunk
	start := 0
	for start < len(text) {
		end := start + maxChars
		if end >= len(text) {
			chunks = append(chunks, Chunk{Index: len(chunks), Start: start, Text: text[start:]})
			break
		}
		// Back the cut off to a rune boundary so no chunk ships a split
		// multi-byte sequence.
		for end > start && !utf8.RuneStart(text[end]) {
			end--
		}
		if end == start {
			end = start + maxChars
		}
		chunks = append(chunks, Chunk{Index: len(chunks), Start: start, Text: text[start:end]})
		start = end - overlap
		for start < len(text) && !utf8.RuneStart(text[start]) {
			start++
		}
		if start <= chunks[len(chunks)-1].Start {
			start = end
		}
	}
	return chunks
}
