package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagepath-app/sagepath/internal/domain"
)

type UserRepository struct {
	db dbtx
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: pool}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO users (id, email, created_at) VALUES ($1, $2, $3)`,
		u.ID, u.Email, u.CreatedAt,
	)
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx,
		`SELECT id, email, created_at FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Email, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx,
		`SELECT id, email, created_at FROM users WHERE email = $1`,
		email,
	).Scan(&u.ID, &u.Email, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

type SessionRepository struct {
	db dbtx
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: pool}
}

func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO sessions (id, user_id, access_token_hash, refresh_token_hash, refresh_used_at, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.UserID, s.AccessTokenHash, s.RefreshTokenHash, s.RefreshUsedAt, s.ExpiresAt, s.CreatedAt,
	)
	return err
}

func (r *SessionRepository) GetByAccessTokenHash(ctx context.Context, hash string) (*domain.Session, error) {
	return r.getByHashColumn(ctx, "access_token_hash", hash)
}

func (r *SessionRepository) GetByRefreshTokenHash(ctx context.Context, hash string) (*domain.Session, error) {
	return r.getByHashColumn(ctx, "refresh_token_hash", hash)
}

func (r *SessionRepository) getByHashColumn(ctx context.Context, column, hash string) (*domain.Session, error) {
	var s domain.Session
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, access_token_hash, refresh_token_hash, refresh_used_at, expires_at, created_at
		 FROM sessions WHERE `+column+` = $1`,
		hash,
	).Scan(&s.ID, &s.UserID, &s.AccessTokenHash, &s.RefreshTokenHash, &s.RefreshUsedAt, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

// MarkRefreshUsed spends the session's refresh token. Returns
// ErrRefreshTokenAlreadyUsed if it was already spent, so token rotation is
// race-safe at the storage level.
func (r *SessionRepository) MarkRefreshUsed(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE sessions SET refresh_used_at = $1 WHERE id = $2 AND refresh_used_at IS NULL`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrRefreshTokenAlreadyUsed
	}
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}
