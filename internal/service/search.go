package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/sagepath-app/sagepath/internal/domain"
	"github.com/sagepath-app/sagepath/internal/telemetry"
)

const (
	// MinQueryLength is the minimum trimmed query length accepted by Search.
	MinQueryLength = 3
	// MaxMatchCount caps how many rows a single search may request.
	MaxMatchCount = 50

	defaultMatchCount = 5
)

// QuestionFilter narrows keyword browsing of the question bank.
type QuestionFilter struct {
	Category string
	Book     string
	Search   string
}

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// MatchRepositoryInterface defines the nearest-neighbor query over stored
// question embeddings.
type MatchRepositoryInterface interface {
	MatchByEmbedding(ctx context.Context, embedding []float32, matchCount int) ([]*domain.SimilarityMatch, error)
}

// SearchLogRecorder persists search logs. Logging is best-effort; failures
// never fail the search itself.
type SearchLogRecorder interface {
	Create(ctx context.Context, entry *domain.SearchLog) error
}

// SearchInput represents one similarity-search request.
type SearchInput struct {
	Query      string
	MatchCount int
	UserID     string
}

// SearchService turns free text into ranked similarity matches against the
// question bank.
type SearchService struct {
	embedding  EmbeddingClient
	repo       MatchRepositoryInterface
	logs       SearchLogRecorder
	uuidGen    UUIDGenerator
	matchCount int
}

// NewSearchService creates a new SearchService instance. logs may be nil.
func NewSearchService(embedding EmbeddingClient, repo MatchRepositoryInterface, logs SearchLogRecorder, defaultCount int) *SearchService {
	if defaultCount <= 0 {
		defaultCount = defaultMatchCount
	}
	return &SearchService{
		embedding:  embedding,
		repo:       repo,
		logs:       logs,
		uuidGen:    &DefaultUUIDGenerator{},
		matchCount: defaultCount,
	}
}

// Search validates the query, embeds it and returns matches ordered by
// descending similarity. An empty result is not an error; upstream and
// storage failures are distinguished so callers can tell "no results" from
// "something went wrong".
func (s *SearchService) Search(ctx context.Context, input SearchInput) ([]*domain.SimilarityMatch, error) {
	ctx, span := telemetry.StartSpan(ctx, "SearchService.Search", telemetry.SpanAttributes{
		UserID:    input.UserID,
		Operation: "search",
	})
	defer span.End()

	query := strings.TrimSpace(input.Query)
	if len(query) < MinQueryLength {
		return nil, domain.ErrQueryTooShort
	}

	matchCount := input.MatchCount
	if matchCount <= 0 {
		matchCount = s.matchCount
	}
	if matchCount > MaxMatchCount {
		matchCount = MaxMatchCount
	}

	start := time.Now()

	embedding, err := s.embedding.GenerateEmbedding(ctx, query)
	if err != nil {
		telemetry.CaptureError(ctx, err)
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUpstream, "embedding request failed", err)
	}

	matches, err := s.repo.MatchByEmbedding(ctx, embedding, matchCount)
	if err != nil {
		telemetry.CaptureError(ctx, err)
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeStorage, "similarity query failed", err)
	}

	writeSearchLog(ctx, s.logs, s.uuidGen, input.UserID, query, len(matches), false, time.Since(start))

	return matches, nil
}

func writeSearchLog(ctx context.Context, logs SearchLogRecorder, uuidGen UUIDGenerator, userID, query string, resultCount int, fallback bool, elapsed time.Duration) {
	if logs == nil {
		return
	}
	entry := &domain.SearchLog{
		ID:          uuidGen.NewString(),
		UserID:      userID,
		Query:       query,
		ResultCount: resultCount,
		Fallback:    fallback,
		DurationMs:  elapsed.Milliseconds(),
		CreatedAt:   time.Now().UTC(),
	}
	if err := logs.Create(ctx, entry); err != nil {
		log.Printf("search log write failed: %v", err)
	}
}
