package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagepath-app/sagepath/internal/domain"
)

// SearchLogRepository stores similarity-search logs for evaluation.
type SearchLogRepository struct {
	db dbtx
}

func NewSearchLogRepository(pool *pgxpool.Pool) *SearchLogRepository {
	return &SearchLogRepository{db: pool}
}

func (r *SearchLogRepository) Create(ctx context.Context, entry *domain.SearchLog) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO search_logs (id, user_id, query, result_count, fallback, duration_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, nullableString(entry.UserID), entry.Query, entry.ResultCount, entry.Fallback, entry.DurationMs, entry.CreatedAt,
	)
	return err
}
