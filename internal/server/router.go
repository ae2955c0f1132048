package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sagepath-app/sagepath/internal/api"
	"github.com/sagepath-app/sagepath/internal/api/handlers"
	"github.com/sagepath-app/sagepath/internal/api/middleware"
)

type RouterConfig struct {
	SessionValidator      middleware.SessionValidator
	SearchHandler         *handlers.SearchHandler
	ChatHandler           *handlers.ChatHandler
	RecommendationHandler *handlers.RecommendationHandler
	QuestionHandler       *handlers.QuestionHandler
	ProfileHandler        *handlers.ProfileHandler
	AuthHandler           *handlers.AuthHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 1 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/auth/refresh", cfg.AuthHandler.Refresh)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionAuth(cfg.SessionValidator))

		r.Route("/api", func(r chi.Router) {
			r.Post("/similarity-search", cfg.SearchHandler.SimilaritySearch)
			r.Post("/chat", cfg.ChatHandler.Completion)
			r.Get("/recommendations", cfg.RecommendationHandler.Recommendations)

			r.Route("/questions", func(r chi.Router) {
				r.Get("/", cfg.QuestionHandler.List)
				r.Get("/{id}", cfg.QuestionHandler.Get)
			})

			r.Get("/profile", cfg.ProfileHandler.Get)
			r.Put("/profile", cfg.ProfileHandler.Update)
		})
	})

	return r
}
