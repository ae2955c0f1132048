//go:build integration

package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagepath-app/sagepath/internal/domain"
	"github.com/sagepath-app/sagepath/internal/testutil"
)

func createTestUser(ctx context.Context, t *testing.T, users *UserRepository) *domain.User {
	t.Helper()
	u := &domain.User{
		ID:        uuid.NewString(),
		Email:     uuid.NewString() + "@example.com",
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, users.Create(ctx, u))
	return u
}

func newTestSession(userID string) *domain.Session {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Session{
		ID:               uuid.NewString(),
		UserID:           userID,
		AccessTokenHash:  uuid.NewString(),
		RefreshTokenHash: uuid.NewString(),
		ExpiresAt:        now.Add(24 * time.Hour),
		CreatedAt:        now,
	}
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	users := NewUserRepository(pool)

	u := createTestUser(ctx, t, users)

	byID, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, byID.Email)

	byEmail, err := users.GetByEmail(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	_, err = users.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestSessionRepository_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	users := NewUserRepository(pool)
	sessions := NewSessionRepository(pool)

	u := createTestUser(ctx, t, users)
	s := newTestSession(u.ID)
	require.NoError(t, sessions.Create(ctx, s))

	byAccess, err := sessions.GetByAccessTokenHash(ctx, s.AccessTokenHash)
	require.NoError(t, err)
	assert.Equal(t, s.ID, byAccess.ID)
	assert.Nil(t, byAccess.RefreshUsedAt)

	byRefresh, err := sessions.GetByRefreshTokenHash(ctx, s.RefreshTokenHash)
	require.NoError(t, err)
	assert.Equal(t, s.ID, byRefresh.ID)

	_, err = sessions.GetByAccessTokenHash(ctx, "no-such-hash")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionRepository_MarkRefreshUsed(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	users := NewUserRepository(pool)
	sessions := NewSessionRepository(pool)

	u := createTestUser(ctx, t, users)

	t.Run("first spend succeeds second fails", func(t *testing.T) {
		s := newTestSession(u.ID)
		require.NoError(t, sessions.Create(ctx, s))

		require.NoError(t, sessions.MarkRefreshUsed(ctx, s.ID))

		stored, err := sessions.GetByRefreshTokenHash(ctx, s.RefreshTokenHash)
		require.NoError(t, err)
		assert.True(t, stored.RefreshUsed())

		err = sessions.MarkRefreshUsed(ctx, s.ID)
		assert.ErrorIs(t, err, domain.ErrRefreshTokenAlreadyUsed)
	})

	t.Run("concurrent spends let exactly one through", func(t *testing.T) {
		s := newTestSession(u.ID)
		require.NoError(t, sessions.Create(ctx, s))

		const attempts = 8
		errs := make([]error, attempts)
		var wg sync.WaitGroup
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = sessions.MarkRefreshUsed(ctx, s.ID)
			}(i)
		}
		wg.Wait()

		winners := 0
		for _, err := range errs {
			if err == nil {
				winners++
			} else {
				assert.ErrorIs(t, err, domain.ErrRefreshTokenAlreadyUsed)
			}
		}
		assert.Equal(t, 1, winners)
	})
}

func TestSessionRepository_Delete(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	users := NewUserRepository(pool)
	sessions := NewSessionRepository(pool)

	u := createTestUser(ctx, t, users)
	s := newTestSession(u.ID)
	require.NoError(t, sessions.Create(ctx, s))

	require.NoError(t, sessions.Delete(ctx, s.ID))

	_, err := sessions.GetByAccessTokenHash(ctx, s.AccessTokenHash)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
