package handlers

import (
	"context"
	"net/http"

	"github.com/sagepath-app/sagepath/internal/api"
	"github.com/sagepath-app/sagepath/internal/api/middleware"
	"github.com/sagepath-app/sagepath/internal/domain"
	"github.com/sagepath-app/sagepath/internal/service"
)

type RecommendationService interface {
	Recommend(ctx context.Context, userID string) (*service.RecommendationOutput, error)
}

type RecommendationHandler struct {
	svc RecommendationService
}

func NewRecommendationHandler(svc RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{svc: svc}
}

type RecommendationResponse struct {
	Matches  []*domain.SimilarityMatch `json:"matches"`
	Fallback bool                      `json:"fallback"`
	Query    string                    `json:"query"`
}

// Recommendations handles GET /api/recommendations. The fallback flag tells
// clients the matches are a random sample rather than similarity results, so
// they can be labeled accordingly.
func (h *RecommendationHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	out, err := h.svc.Recommend(r.Context(), userID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	matches := out.Matches
	if matches == nil {
		matches = []*domain.SimilarityMatch{}
	}

	api.Success(w, http.StatusOK, RecommendationResponse{
		Matches:  matches,
		Fallback: out.Fallback,
		Query:    out.Query,
	})
}
