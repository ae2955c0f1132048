package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sagepath-app/sagepath/internal/domain"
	"github.com/sagepath-app/sagepath/internal/telemetry"
)

const defaultFallbackSampleSize = 5

// boilerplatePrefixes are stripped from stored goal/summary text before it is
// used as a search query.
var boilerplatePrefixes = []string{
	"my goal is to",
	"my goal is",
	"goal:",
	"summary:",
	"i want to",
}

// ProfileReader loads the stored coaching context for a user.
type ProfileReader interface {
	Get(ctx context.Context, userID string) (*domain.Profile, error)
}

// QuestionSampler provides the random fallback sample.
type QuestionSampler interface {
	RandomSample(ctx context.Context, n int) ([]*domain.Question, error)
}

// Searcher is the similarity-search dependency of the assembler.
type Searcher interface {
	Search(ctx context.Context, input SearchInput) ([]*domain.SimilarityMatch, error)
}

// RecommendationOutput carries the matches plus a flag telling the caller
// whether they are genuine similarity results or a random fallback sample.
// Fallback results must never be presented as similar.
type RecommendationOutput struct {
	Matches  []*domain.SimilarityMatch
	Fallback bool
	Query    string
}

// RecommendationService assembles a search query from the user's goal and
// running summary and returns similarity matches, falling back to a bounded
// random sample when nothing clears the similarity threshold.
type RecommendationService struct {
	profiles   ProfileReader
	sampler    QuestionSampler
	search     Searcher
	logs       SearchLogRecorder
	uuidGen    UUIDGenerator
	sampleSize int
}

// NewRecommendationService creates a new RecommendationService instance.
// logs may be nil.
func NewRecommendationService(profiles ProfileReader, sampler QuestionSampler, search Searcher, logs SearchLogRecorder, sampleSize int) *RecommendationService {
	if sampleSize <= 0 {
		sampleSize = defaultFallbackSampleSize
	}
	return &RecommendationService{
		profiles:   profiles,
		sampler:    sampler,
		search:     search,
		logs:       logs,
		uuidGen:    &DefaultUUIDGenerator{},
		sampleSize: sampleSize,
	}
}

// Recommend builds the query from profile state and runs the search. A user
// with no usable goal/summary gets ErrMissingContext, a signal to prompt for
// a goal rather than search on an empty string.
func (s *RecommendationService) Recommend(ctx context.Context, userID string) (*RecommendationOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "RecommendationService.Recommend", telemetry.SpanAttributes{
		UserID:    userID,
		Operation: "recommend",
	})
	defer span.End()

	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return nil, domain.ErrMissingContext
		}
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeStorage, "failed to load profile", err)
	}

	query := BuildRecommendationQuery(profile.Goal, profile.Summary)
	if query == "" {
		return nil, domain.ErrMissingContext
	}

	start := time.Now()

	matches, err := s.search.Search(ctx, SearchInput{Query: query, UserID: userID})
	if err != nil {
		return nil, err
	}

	if len(matches) > 0 {
		return &RecommendationOutput{Matches: matches, Query: query}, nil
	}

	sample, err := s.sampler.RandomSample(ctx, s.sampleSize)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeStorage, "fallback sample failed", err)
	}

	fallback := make([]*domain.SimilarityMatch, 0, len(sample))
	for _, q := range sample {
		fallback = append(fallback, &domain.SimilarityMatch{
			ID:         q.ID,
			Question:   q.Question,
			Learning:   q.Learning,
			Quote:      q.Quote,
			Category:   q.Category,
			Book:       q.Book,
			Chapter:    q.Chapter,
			Similarity: 0,
		})
	}

	// Record that this query was answered with a random sample, not
	// similarity results.
	writeSearchLog(ctx, s.logs, s.uuidGen, userID, query, len(fallback), true, time.Since(start))

	return &RecommendationOutput{Matches: fallback, Fallback: true, Query: query}, nil
}

// BuildRecommendationQuery concatenates goal and summary, stripping known
// boilerplate prefixes from each part. Returns "" when nothing usable
// remains.
func BuildRecommendationQuery(goal, summary string) string {
	parts := make([]string, 0, 2)
	for _, raw := range []string{goal, summary} {
		cleaned := stripBoilerplate(raw)
		if cleaned != "" {
			parts = append(parts, cleaned)
		}
	}
	return strings.Join(parts, " ")
}

func stripBoilerplate(text string) string {
	cleaned := strings.TrimSpace(text)
	lower := strings.ToLower(cleaned)
	for _, prefix := range boilerplatePrefixes {
		if strings.HasPrefix(lower, prefix) {
			cleaned = strings.TrimSpace(cleaned[len(prefix):])
			break
		}
	}
	return cleaned
}
