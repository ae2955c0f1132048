package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sagepath-app/sagepath/internal/domain"
)

// MockEmbeddingClient is a mock implementation of EmbeddingClient
type MockEmbeddingClient struct {
	mock.Mock
}

func (m *MockEmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

// MockMatchRepository is a mock implementation of MatchRepositoryInterface
type MockMatchRepository struct {
	mock.Mock
}

func (m *MockMatchRepository) MatchByEmbedding(ctx context.Context, embedding []float32, matchCount int) ([]*domain.SimilarityMatch, error) {
	args := m.Called(ctx, embedding, matchCount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.SimilarityMatch), args.Error(1)
}

// MockSearchLogRecorder is a mock implementation of SearchLogRecorder
type MockSearchLogRecorder struct {
	mock.Mock
}

func (m *MockSearchLogRecorder) Create(ctx context.Context, entry *domain.SearchLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func TestSearchService_Search_Validation(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects query shorter than minimum", func(t *testing.T) {
		mockEmbedding := new(MockEmbeddingClient)
		mockRepo := new(MockMatchRepository)
		svc := NewSearchService(mockEmbedding, mockRepo, nil, 5)

		_, err := svc.Search(ctx, SearchInput{Query: "ab"})

		assert.ErrorIs(t, err, domain.ErrQueryTooShort)
		mockEmbedding.AssertNotCalled(t, "GenerateEmbedding", mock.Anything, mock.Anything)
		mockRepo.AssertNotCalled(t, "MatchByEmbedding", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("trims whitespace before length check", func(t *testing.T) {
		mockEmbedding := new(MockEmbeddingClient)
		mockRepo := new(MockMatchRepository)
		svc := NewSearchService(mockEmbedding, mockRepo, nil, 5)

		_, err := svc.Search(ctx, SearchInput{Query: "   ab   "})

		assert.ErrorIs(t, err, domain.ErrQueryTooShort)
		mockEmbedding.AssertNotCalled(t, "GenerateEmbedding", mock.Anything, mock.Anything)
	})

	t.Run("embeds the trimmed query", func(t *testing.T) {
		mockEmbedding := new(MockEmbeddingClient)
		mockRepo := new(MockMatchRepository)
		svc := NewSearchService(mockEmbedding, mockRepo, nil, 5)

		embedding := []float32{0.1, 0.2}
		mockEmbedding.On("GenerateEmbedding", mock.Anything, "growth mindset").Return(embedding, nil)
		mockRepo.On("MatchByEmbedding", mock.Anything, embedding, 5).Return([]*domain.SimilarityMatch{}, nil)

		_, err := svc.Search(ctx, SearchInput{Query: "  growth mindset  "})

		require.NoError(t, err)
		mockEmbedding.AssertExpectations(t)
	})
}

func TestSearchService_Search_Results(t *testing.T) {
	ctx := context.Background()
	embedding := []float32{0.1, 0.2, 0.3}

	t.Run("returns matches from repository", func(t *testing.T) {
		mockEmbedding := new(MockEmbeddingClient)
		mockRepo := new(MockMatchRepository)
		svc := NewSearchService(mockEmbedding, mockRepo, nil, 5)

		expected := []*domain.SimilarityMatch{
			{ID: "q1", Question: "What did you learn today?", Similarity: 0.91},
			{ID: "q2", Question: "What would you do differently?", Similarity: 0.85},
		}
		mockEmbedding.On("GenerateEmbedding", mock.Anything, "daily reflection").Return(embedding, nil)
		mockRepo.On("MatchByEmbedding", mock.Anything, embedding, 5).Return(expected, nil)

		matches, err := svc.Search(ctx, SearchInput{Query: "daily reflection"})

		require.NoError(t, err)
		assert.Equal(t, expected, matches)
	})

	t.Run("empty result is not an error", func(t *testing.T) {
		mockEmbedding := new(MockEmbeddingClient)
		mockRepo := new(MockMatchRepository)
		svc := NewSearchService(mockEmbedding, mockRepo, nil, 5)

		mockEmbedding.On("GenerateEmbedding", mock.Anything, "obscure topic").Return(embedding, nil)
		mockRepo.On("MatchByEmbedding", mock.Anything, embedding, 5).Return([]*domain.SimilarityMatch{}, nil)

		matches, err := svc.Search(ctx, SearchInput{Query: "obscure topic"})

		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("caps match count", func(t *testing.T) {
		mockEmbedding := new(MockEmbeddingClient)
		mockRepo := new(MockMatchRepository)
		svc := NewSearchService(mockEmbedding, mockRepo, nil, 5)

		mockEmbedding.On("GenerateEmbedding", mock.Anything, "anything").Return(embedding, nil)
		mockRepo.On("MatchByEmbedding", mock.Anything, embedding, MaxMatchCount).Return([]*domain.SimilarityMatch{}, nil)

		_, err := svc.Search(ctx, SearchInput{Query: "anything", MatchCount: 500})

		require.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})
}

func TestSearchService_Search_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("embedding failure surfaces as upstream error", func(t *testing.T) {
		mockEmbedding := new(MockEmbeddingClient)
		mockRepo := new(MockMatchRepository)
		svc := NewSearchService(mockEmbedding, mockRepo, nil, 5)

		mockEmbedding.On("GenerateEmbedding", mock.Anything, "valid query").Return(nil, errors.New("rate limited"))

		_, err := svc.Search(ctx, SearchInput{Query: "valid query"})

		require.Error(t, err)
		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.ErrCodeUpstream, domainErr.Code)
		mockRepo.AssertNotCalled(t, "MatchByEmbedding", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("repository failure surfaces as storage error", func(t *testing.T) {
		mockEmbedding := new(MockEmbeddingClient)
		mockRepo := new(MockMatchRepository)
		svc := NewSearchService(mockEmbedding, mockRepo, nil, 5)

		embedding := []float32{0.5}
		mockEmbedding.On("GenerateEmbedding", mock.Anything, "valid query").Return(embedding, nil)
		mockRepo.On("MatchByEmbedding", mock.Anything, embedding, 5).Return(nil, errors.New("connection reset"))

		_, err := svc.Search(ctx, SearchInput{Query: "valid query"})

		require.Error(t, err)
		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.ErrCodeStorage, domainErr.Code)
	})
}

func TestSearchService_Search_Logging(t *testing.T) {
	ctx := context.Background()
	embedding := []float32{0.1}

	t.Run("records a search log entry", func(t *testing.T) {
		mockEmbedding := new(MockEmbeddingClient)
		mockRepo := new(MockMatchRepository)
		mockLogs := new(MockSearchLogRecorder)
		svc := NewSearchService(mockEmbedding, mockRepo, mockLogs, 5)

		mockEmbedding.On("GenerateEmbedding", mock.Anything, "confidence").Return(embedding, nil)
		mockRepo.On("MatchByEmbedding", mock.Anything, embedding, 5).Return([]*domain.SimilarityMatch{{ID: "q1"}}, nil)
		mockLogs.On("Create", mock.Anything, mock.MatchedBy(func(entry *domain.SearchLog) bool {
			return entry.Query == "confidence" && entry.ResultCount == 1 && entry.UserID == "user-1"
		})).Return(nil)

		_, err := svc.Search(ctx, SearchInput{Query: "confidence", UserID: "user-1"})

		require.NoError(t, err)
		mockLogs.AssertExpectations(t)
	})

	t.Run("log failure does not fail the search", func(t *testing.T) {
		mockEmbedding := new(MockEmbeddingClient)
		mockRepo := new(MockMatchRepository)
		mockLogs := new(MockSearchLogRecorder)
		svc := NewSearchService(mockEmbedding, mockRepo, mockLogs, 5)

		mockEmbedding.On("GenerateEmbedding", mock.Anything, "confidence").Return(embedding, nil)
		mockRepo.On("MatchByEmbedding", mock.Anything, embedding, 5).Return([]*domain.SimilarityMatch{}, nil)
		mockLogs.On("Create", mock.Anything, mock.Anything).Return(errors.New("table missing"))

		_, err := svc.Search(ctx, SearchInput{Query: "confidence"})

		assert.NoError(t, err)
	})
}
