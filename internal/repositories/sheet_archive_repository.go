package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"skyroute-backend/internal/models"
)

type SheetArchiveRepository struct {
	DB *pgxpool.Pool
}

func NewSheetArchiveRepository(db *pgxpool.Pool) *SheetArchiveRepository {
	return &SheetArchiveRepository{DB: db}
}

func (r *SheetArchiveRepository) Create(ctx context.Context, a *models.SheetArchive) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO sheet_archives(entry_id, object_key, size_bytes, created_by)
         VALUES($1, $2, $3, NULLIF($4, ''))
         RETURNING id, created_at`,
		a.EntryID, a.ObjectKey, a.SizeBytes, a.CreatedBy,
	).Scan(&a.ID, &a.CreatedAt)
}
