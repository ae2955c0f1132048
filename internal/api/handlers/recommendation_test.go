package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sagepath-app/sagepath/internal/api"
	"github.com/sagepath-app/sagepath/internal/api/middleware"
	"github.com/sagepath-app/sagepath/internal/domain"
	"github.com/sagepath-app/sagepath/internal/service"
)

// MockRecommendationService is a mock implementation of RecommendationService
type MockRecommendationService struct {
	mock.Mock
}

func (m *MockRecommendationService) Recommend(ctx context.Context, userID string) (*service.RecommendationOutput, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RecommendationOutput), args.Error(1)
}

func recommendationRequest(userID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/recommendations", nil)
	if userID != "" {
		req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, userID))
	}
	return req
}

func TestRecommendationHandler_Recommendations(t *testing.T) {
	t.Run("returns matches for the authenticated user", func(t *testing.T) {
		mockSvc := new(MockRecommendationService)
		handler := NewRecommendationHandler(mockSvc)

		mockSvc.On("Recommend", mock.Anything, "user-1").Return(&service.RecommendationOutput{
			Matches: []*domain.SimilarityMatch{{ID: "q1", Similarity: 0.88}},
			Query:   "run a marathon",
		}, nil)

		rec := httptest.NewRecorder()
		handler.Recommendations(rec, recommendationRequest("user-1"))

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Data RecommendationResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Data.Fallback)
		assert.Equal(t, "run a marathon", resp.Data.Query)
		require.Len(t, resp.Data.Matches, 1)
		assert.Equal(t, "q1", resp.Data.Matches[0].ID)
	})

	t.Run("fallback flag survives the round trip", func(t *testing.T) {
		mockSvc := new(MockRecommendationService)
		handler := NewRecommendationHandler(mockSvc)

		mockSvc.On("Recommend", mock.Anything, "user-1").Return(&service.RecommendationOutput{
			Matches:  []*domain.SimilarityMatch{{ID: "q7"}},
			Fallback: true,
		}, nil)

		rec := httptest.NewRecorder()
		handler.Recommendations(rec, recommendationRequest("user-1"))

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Data RecommendationResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Data.Fallback)
	})

	t.Run("missing context is a 422", func(t *testing.T) {
		mockSvc := new(MockRecommendationService)
		handler := NewRecommendationHandler(mockSvc)

		mockSvc.On("Recommend", mock.Anything, "user-1").Return(nil, domain.ErrMissingContext)

		rec := httptest.NewRecorder()
		handler.Recommendations(rec, recommendationRequest("user-1"))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var resp api.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, domain.ErrCodeMissingContext, resp.Code)
	})

	t.Run("no user in context is a 401", func(t *testing.T) {
		mockSvc := new(MockRecommendationService)
		handler := NewRecommendationHandler(mockSvc)

		rec := httptest.NewRecorder()
		handler.Recommendations(rec, recommendationRequest(""))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		mockSvc.AssertNotCalled(t, "Recommend", mock.Anything, mock.Anything)
	})

	t.Run("nil matches serialize as empty array", func(t *testing.T) {
		mockSvc := new(MockRecommendationService)
		handler := NewRecommendationHandler(mockSvc)

		mockSvc.On("Recommend", mock.Anything, "user-1").Return(&service.RecommendationOutput{}, nil)

		rec := httptest.NewRecorder()
		handler.Recommendations(rec, recommendationRequest("user-1"))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"matches":[]`)
	})
}
