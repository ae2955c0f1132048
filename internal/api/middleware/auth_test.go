package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/sagepath-app/sagepath/internal/domain"
)

// MockSessionValidator is a mock implementation of SessionValidator
type MockSessionValidator struct {
	mock.Mock
}

func (m *MockSessionValidator) ValidateAccessToken(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

func TestSessionAuth(t *testing.T) {
	okHandler := func(gotUserID *string) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*gotUserID = GetUserID(r.Context())
			w.WriteHeader(http.StatusOK)
		})
	}

	t.Run("valid token puts the user in context", func(t *testing.T) {
		validator := new(MockSessionValidator)
		validator.On("ValidateAccessToken", mock.Anything, "sgp_valid").Return("user-1", nil)

		var gotUserID string
		req := httptest.NewRequest(http.MethodGet, "/api/questions", nil)
		req.Header.Set("Authorization", "Bearer sgp_valid")
		rec := httptest.NewRecorder()

		SessionAuth(validator)(okHandler(&gotUserID)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-1", gotUserID)
	})

	t.Run("missing header is a 401", func(t *testing.T) {
		validator := new(MockSessionValidator)

		var gotUserID string
		req := httptest.NewRequest(http.MethodGet, "/api/questions", nil)
		rec := httptest.NewRecorder()

		SessionAuth(validator)(okHandler(&gotUserID)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, gotUserID)
		validator.AssertNotCalled(t, "ValidateAccessToken", mock.Anything, mock.Anything)
	})

	t.Run("non-bearer header is a 401", func(t *testing.T) {
		validator := new(MockSessionValidator)

		var gotUserID string
		req := httptest.NewRequest(http.MethodGet, "/api/questions", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		rec := httptest.NewRecorder()

		SessionAuth(validator)(okHandler(&gotUserID)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		validator.AssertNotCalled(t, "ValidateAccessToken", mock.Anything, mock.Anything)
	})

	t.Run("fills the tracing user holder when present", func(t *testing.T) {
		validator := new(MockSessionValidator)
		validator.On("ValidateAccessToken", mock.Anything, "sgp_valid").Return("user-1", nil)

		user := &sentryUser{}
		var gotUserID string
		req := httptest.NewRequest(http.MethodGet, "/api/questions", nil)
		req = req.WithContext(context.WithValue(req.Context(), sentryUserKey, user))
		req.Header.Set("Authorization", "Bearer sgp_valid")
		rec := httptest.NewRecorder()

		SessionAuth(validator)(okHandler(&gotUserID)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-1", user.id)
	})

	t.Run("holder stays empty on rejected token", func(t *testing.T) {
		validator := new(MockSessionValidator)
		validator.On("ValidateAccessToken", mock.Anything, "sgp_bad").Return("", domain.ErrInvalidToken)

		user := &sentryUser{}
		var gotUserID string
		req := httptest.NewRequest(http.MethodGet, "/api/questions", nil)
		req = req.WithContext(context.WithValue(req.Context(), sentryUserKey, user))
		req.Header.Set("Authorization", "Bearer sgp_bad")
		rec := httptest.NewRecorder()

		SessionAuth(validator)(okHandler(&gotUserID)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, user.id)
	})

	t.Run("invalid token is a 401 with the domain message", func(t *testing.T) {
		validator := new(MockSessionValidator)
		validator.On("ValidateAccessToken", mock.Anything, "sgp_bad").Return("", domain.ErrInvalidToken)

		var gotUserID string
		req := httptest.NewRequest(http.MethodGet, "/api/questions", nil)
		req.Header.Set("Authorization", "Bearer sgp_bad")
		rec := httptest.NewRecorder()

		SessionAuth(validator)(okHandler(&gotUserID)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid or expired token")
		assert.Empty(t, gotUserID)
	})
}

func TestGetUserID(t *testing.T) {
	t.Run("empty without auth", func(t *testing.T) {
		assert.Empty(t, GetUserID(context.Background()))
	})

	t.Run("returns stored user", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), UserIDKey, "user-9")
		assert.Equal(t, "user-9", GetUserID(ctx))
	})
}
