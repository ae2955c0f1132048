package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagepath-app/sagepath/internal/domain"
)

type ProfileRepository struct {
	db dbtx
}

func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: pool}
}

func NewProfileRepositoryWithTx(tx pgx.Tx) *ProfileRepository {
	return &ProfileRepository{db: tx}
}

func (r *ProfileRepository) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	var p domain.Profile
	var goal, summary *string
	err := r.db.QueryRow(ctx,
		`SELECT user_id, goal, summary, updated_at FROM profiles WHERE user_id = $1`,
		userID,
	).Scan(&p.UserID, &goal, &summary, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}
	if goal != nil {
		p.Goal = *goal
	}
	if summary != nil {
		p.Summary = *summary
	}
	return &p, nil
}

func (r *ProfileRepository) Upsert(ctx context.Context, p *domain.Profile) error {
	p.UpdatedAt = time.Now().UTC()
	_, err := r.db.Exec(ctx,
		`INSERT INTO profiles (user_id, goal, summary, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id)
		 DO UPDATE SET goal = EXCLUDED.goal, summary = EXCLUDED.summary, updated_at = EXCLUDED.updated_at`,
		p.UserID, nullableString(p.Goal), nullableString(p.Summary), p.UpdatedAt,
	)
	return err
}
