package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/sagepath-app/sagepath/internal/domain"
)

const tokenPrefix = "sgp_"

// UserRepositoryInterface defines the repository interface for users
type UserRepositoryInterface interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// SessionRepositoryInterface defines the repository interface for sessions
type SessionRepositoryInterface interface {
	Create(ctx context.Context, s *domain.Session) error
	GetByAccessTokenHash(ctx context.Context, hash string) (*domain.Session, error)
	GetByRefreshTokenHash(ctx context.Context, hash string) (*domain.Session, error)
	MarkRefreshUsed(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// TokenPair is the plaintext access/refresh token pair handed to a client.
// Only hashes are stored.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthService issues bearer sessions with single-use refresh tokens.
type AuthService struct {
	users    UserRepositoryInterface
	sessions SessionRepositoryInterface
	uuidGen  UUIDGenerator
	ttl      time.Duration
}

func NewAuthService(users UserRepositoryInterface, sessions SessionRepositoryInterface, uuidGen UUIDGenerator, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{
		users:    users,
		sessions: sessions,
		uuidGen:  uuidGen,
		ttl:      ttl,
	}
}

func (s *AuthService) CreateUser(ctx context.Context, email string) (*domain.User, error) {
	if email == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "email is required")
	}

	user := &domain.User{
		ID:        s.uuidGen.NewString(),
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// IssueSession creates a new session for the user and returns the plaintext
// token pair.
func (s *AuthService) IssueSession(ctx context.Context, userID string) (*TokenPair, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	accessToken, err := generateToken()
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to generate access token", err)
	}
	refreshToken, err := generateToken()
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to generate refresh token", err)
	}

	now := time.Now().UTC()
	session := &domain.Session{
		ID:               s.uuidGen.NewString(),
		UserID:           userID,
		AccessTokenHash:  hashToken(accessToken),
		RefreshTokenHash: hashToken(refreshToken),
		ExpiresAt:        now.Add(s.ttl),
		CreatedAt:        now,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// ValidateAccessToken resolves a bearer token to a user ID.
func (s *AuthService) ValidateAccessToken(ctx context.Context, token string) (string, error) {
	if !IsValidToken(token) {
		return "", domain.ErrInvalidToken
	}

	session, err := s.sessions.GetByAccessTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return "", domain.ErrInvalidToken
		}
		return "", err
	}

	if session.Expired(time.Now().UTC()) {
		return "", domain.ErrInvalidToken
	}

	return session.UserID, nil
}

// Refresh exchanges a refresh token for a new token pair. Each refresh token
// may be spent exactly once; a second exchange surfaces
// ErrRefreshTokenAlreadyUsed so clients know to re-sync their stored pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if !IsValidToken(refreshToken) {
		return nil, domain.ErrInvalidToken
	}

	session, err := s.sessions.GetByRefreshTokenHash(ctx, hashToken(refreshToken))
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}

	if session.RefreshUsed() {
		return nil, domain.ErrRefreshTokenAlreadyUsed
	}

	// The conditional UPDATE makes rotation race-safe: two concurrent
	// refreshes of the same token cannot both win.
	if err := s.sessions.MarkRefreshUsed(ctx, session.ID); err != nil {
		return nil, err
	}

	return s.IssueSession(ctx, session.UserID)
}

// IsValidToken reports whether a token has the expected format
// (sgp_ prefix followed by 64 hex chars).
func IsValidToken(token string) bool {
	if !strings.HasPrefix(token, tokenPrefix) {
		return false
	}
	raw := strings.TrimPrefix(token, tokenPrefix)
	if len(raw) != 64 {
		return false
	}
	_, err := hex.DecodeString(raw)
	return err == nil
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return tokenPrefix + hex.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
