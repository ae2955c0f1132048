package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sagepath-app/sagepath/internal/api"
	"github.com/sagepath-app/sagepath/internal/api/middleware"
	"github.com/sagepath-app/sagepath/internal/domain"
	"github.com/sagepath-app/sagepath/internal/service"
)

type SearchService interface {
	Search(ctx context.Context, input service.SearchInput) ([]*domain.SimilarityMatch, error)
}

type SearchHandler struct {
	svc SearchService
}

func NewSearchHandler(svc SearchService) *SearchHandler {
	return &SearchHandler{svc: svc}
}

type SimilaritySearchRequest struct {
	Query      string `json:"query"`
	MatchCount int    `json:"match_count"`
}

type SimilaritySearchResponse struct {
	Matches []*domain.SimilarityMatch `json:"matches"`
	Count   int                       `json:"count"`
}

// SimilaritySearch handles POST /api/similarity-search. An empty match list
// is a successful response, not an error.
func (h *SearchHandler) SimilaritySearch(w http.ResponseWriter, r *http.Request) {
	var req SimilaritySearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.MatchCount < 0 {
		api.HandleError(w, domain.ErrInvalidMatchCount)
		return
	}

	matches, err := h.svc.Search(r.Context(), service.SearchInput{
		Query:      req.Query,
		MatchCount: req.MatchCount,
		UserID:     middleware.GetUserID(r.Context()),
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	if matches == nil {
		matches = []*domain.SimilarityMatch{}
	}

	api.Success(w, http.StatusOK, SimilaritySearchResponse{
		Matches: matches,
		Count:   len(matches),
	})
}
