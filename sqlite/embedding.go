package sqlite

import (
	"context"
	"encoding/binary"
	"math"

	"github.com/fwojciec/docdex"
)

// Compile-time interface verification.
var _ docdex.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService implements docdex.EmbeddingService using SQLite. Vectors
// are stored as little-endian float32 blobs with a precomputed norm.
type EmbeddingService struct {
	db *DB
}

// NewEmbeddingService creates a new EmbeddingService.
func NewEmbeddingService(db *DB) *EmbeddingService {
	return &EmbeddingService{db: db}
}

// SaveEmbeddings replaces all stored vectors for a document and model.
func (s *EmbeddingService) SaveEmbeddings(ctx context.Context, embs []*docdex.Embedding) error {
	if len(embs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM embeddings WHERE document_id = ? AND model = ?
	`, embs[0].DocumentID, embs[0].Model); err != nil {
		return err
	}

	for _, emb := range embs {
		if emb.DocumentID == "" {
			return docdex.Errorf(docdex.EINVALID, "embedding document ID required")
		}
		norm := emb.Norm
		if norm == 0 {
			norm = docdex.VectorNorm(emb.Vector)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO embeddings (document_id, chunk, model, vector, norm)
			VALUES (?, ?, ?, ?, ?)
		`, emb.DocumentID, emb.Chunk, emb.Model, encodeVector(emb.Vector), norm); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// FindEmbeddingsByDocument retrieves vectors for a document and model.
func (s *EmbeddingService) FindEmbeddingsByDocument(ctx context.Context, documentID, model string) ([]*docdex.Embedding, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, chunk, model, vector, norm
		FROM embeddings
		WHERE document_id = ? AND model = ?
		ORDER BY chunk ASC
	`, documentID, model)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var embs []*docdex.Embedding
	for rows.Next() {
		var emb docdex.Embedding
		var blob []byte
		if err := rows.Scan(&emb.DocumentID, &emb.Chunk, &emb.Model, &blob, &emb.Norm); err != nil {
			return nil, err
		}
		emb.Vector = decodeVector(blob)
		embs = append(embs, &emb)
	}

	return embs, rows.Err()
}

// DeleteEmbeddingsByDocument removes all vectors for a document.
func (s *EmbeddingService) DeleteEmbeddingsByDocument(ctx context.Context, documentID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM embeddings WHERE document_id = ?", documentID)
	return err
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, x := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(blob []byte) []float32 {
	vec := make([]float32, len(blob)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vec
}
