package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"skyroute-backend/internal/sequence"
)

// SequenceRepository owns the document_sequences counters.
type SequenceRepository struct {
	DB *pgxpool.Pool
}

func NewSequenceRepository(db *pgxpool.Pool) *SequenceRepository {
	return &SequenceRepository{DB: db}
}

// Increment implements sequence.Counter. The first call for a prefix seeds
// the row from the highest numeric suffix already in entries, so numbers
// issued before the counter existed are never handed out again.
func (r *SequenceRepository) Increment(ctx context.Context, docType sequence.DocType, prefix string) (int, error) {
	col := docType.Column()
	query := fmt.Sprintf(`
		INSERT INTO document_sequences (doc_type, prefix, last_value)
		VALUES ($1::text, $2::text, (
			SELECT COALESCE(MAX(CAST(SUBSTRING(%[1]s FROM 4) AS INTEGER)), 0) + 1
			FROM entries
			WHERE type = $3
			  AND %[1]s LIKE $2::text || '%%'
			  AND SUBSTRING(%[1]s FROM 4) ~ '^[0-9]{1,9}$'
		))
		ON CONFLICT (doc_type, prefix)
		DO UPDATE SET last_value = document_sequences.last_value + 1, updated_at = NOW()
		RETURNING last_value`, col)

	var seq int
	err := r.DB.QueryRow(ctx, query, string(docType), prefix, docType.OwnerType()).Scan(&seq)
	if err != nil {
		return 0, err
	}
	return seq, nil
}
