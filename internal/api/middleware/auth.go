package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sagepath-app/sagepath/internal/api"
	"github.com/sagepath-app/sagepath/internal/domain"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// SessionValidator resolves a bearer access token to a user ID.
type SessionValidator interface {
	ValidateAccessToken(ctx context.Context, token string) (string, error)
}

// SessionAuth authenticates requests with a bearer session token.
func SessionAuth(validator SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				api.Error(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				api.Error(w, http.StatusUnauthorized, "invalid authorization format")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")

			userID, err := validator.ValidateAccessToken(r.Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrInvalidToken) {
					api.HandleError(w, err)
					return
				}
				api.Error(w, http.StatusUnauthorized, "invalid session token")
				return
			}

			if user, ok := r.Context().Value(sentryUserKey).(*sentryUser); ok {
				user.id = userID
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID returns the authenticated user ID from context.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}
