package domain

import "time"

// User is an account in the coaching app.
type User struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

// Session pairs a bearer access token with a single-use refresh token.
// Tokens are stored hashed. A refresh token may be exchanged exactly once;
// reusing it yields ErrRefreshTokenAlreadyUsed.
type Session struct {
	ID               string
	UserID           string
	AccessTokenHash  string
	RefreshTokenHash string
	RefreshUsedAt    *time.Time
	ExpiresAt        time.Time
	CreatedAt        time.Time
}

// RefreshUsed reports whether the session's refresh token was already spent.
func (s *Session) RefreshUsed() bool {
	return s.RefreshUsedAt != nil
}

// Expired reports whether the access token has passed its expiry.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
