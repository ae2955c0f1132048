package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sagepath-app/sagepath/internal/api"
	"github.com/sagepath-app/sagepath/internal/domain"
	"github.com/sagepath-app/sagepath/internal/pagination"
	"github.com/sagepath-app/sagepath/internal/service"
)

type QuestionRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Question, error)
	ListPage(ctx context.Context, filter service.QuestionFilter, offset, limit int) ([]*domain.Question, error)
	CountFiltered(ctx context.Context, filter service.QuestionFilter) (int, error)
}

type QuestionHandler struct {
	repo QuestionRepository
}

func NewQuestionHandler(repo QuestionRepository) *QuestionHandler {
	return &QuestionHandler{repo: repo}
}

type QuestionResponse struct {
	ID           string `json:"id"`
	Question     string `json:"question"`
	Learning     string `json:"learning"`
	Quote        string `json:"quote,omitempty"`
	Book         string `json:"book,omitempty"`
	Chapter      string `json:"chapter,omitempty"`
	Category     string `json:"category,omitempty"`
	HasEmbedding bool   `json:"has_embedding"`
	CreatedAt    string `json:"created_at"`
}

func questionToResponse(q *domain.Question) *QuestionResponse {
	return &QuestionResponse{
		ID:           q.ID,
		Question:     q.Question,
		Learning:     q.Learning,
		Quote:        q.Quote,
		Book:         q.Book,
		Chapter:      q.Chapter,
		Category:     q.Category,
		HasEmbedding: q.HasEmbedding,
		CreatedAt:    q.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// List handles GET /api/questions with optional category/book/search filters
// and offset pagination.
func (h *QuestionHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := pagination.ParsePage(r.URL.Query())
	if err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	filter := service.QuestionFilter{
		Category: r.URL.Query().Get("category"),
		Book:     r.URL.Query().Get("book"),
		Search:   r.URL.Query().Get("search"),
	}

	questions, err := h.repo.ListPage(r.Context(), filter, page.Offset, page.Limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	total, err := h.repo.CountFiltered(r.Context(), filter)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*QuestionResponse, 0, len(questions))
	for _, q := range questions {
		items = append(items, questionToResponse(q))
	}

	api.Success(w, http.StatusOK, pagination.NewPageResult(items, total, page))
}

// Get handles GET /api/questions/{id}.
func (h *QuestionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	question, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, questionToResponse(question))
}
