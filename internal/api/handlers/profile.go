package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sagepath-app/sagepath/internal/api"
	"github.com/sagepath-app/sagepath/internal/api/middleware"
	"github.com/sagepath-app/sagepath/internal/domain"
)

type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*domain.Profile, error)
	Upsert(ctx context.Context, p *domain.Profile) error
}

type ProfileHandler struct {
	repo ProfileRepository
}

func NewProfileHandler(repo ProfileRepository) *ProfileHandler {
	return &ProfileHandler{repo: repo}
}

type ProfileResponse struct {
	Goal      string `json:"goal"`
	Summary   string `json:"summary"`
	UpdatedAt string `json:"updated_at"`
}

type UpdateProfileRequest struct {
	Goal    string `json:"goal"`
	Summary string `json:"summary"`
}

// Get handles GET /api/profile.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	profile, err := h.repo.Get(r.Context(), userID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, ProfileResponse{
		Goal:      profile.Goal,
		Summary:   profile.Summary,
		UpdatedAt: profile.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	})
}

// Update handles PUT /api/profile, creating the profile if it does not exist.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile := &domain.Profile{
		UserID:    userID,
		Goal:      req.Goal,
		Summary:   req.Summary,
		UpdatedAt: time.Now().UTC(),
	}

	if err := h.repo.Upsert(r.Context(), profile); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, ProfileResponse{
		Goal:      profile.Goal,
		Summary:   profile.Summary,
		UpdatedAt: profile.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	})
}
