package service

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sagepath-app/sagepath/internal/domain"
	"github.com/sagepath-app/sagepath/internal/telemetry"
)

// BackfillQuestionRepository defines the repository surface of the backfill
// job: find rows with null embeddings and fill them in.
type BackfillQuestionRepository interface {
	ListMissingEmbeddings(ctx context.Context) ([]*domain.Question, error)
	UpdateEmbedding(ctx context.Context, id string, embedding []float32) error
}

// BackfillConfig controls batching and retry behavior.
type BackfillConfig struct {
	BatchSize    int
	BatchDelay   time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

// DefaultBackfillConfig returns the default backfill configuration.
func DefaultBackfillConfig() BackfillConfig {
	return BackfillConfig{
		BatchSize:    10,
		BatchDelay:   2 * time.Second,
		MaxRetries:   3,
		RetryBackoff: 500 * time.Millisecond,
	}
}

// BackfillFailure records one question whose embedding could not be
// generated after all retries. The row stays null; it is reported, never
// dropped silently.
type BackfillFailure struct {
	QuestionID string
	Err        string
}

// BackfillReport summarizes one backfill run.
type BackfillReport struct {
	Scanned   int
	Succeeded int
	Failed    int
	Failures  []BackfillFailure
}

// BackfillService fills in missing question embeddings. Batches run
// serially with a fixed delay between them to respect upstream rate limits;
// items within a batch run concurrently since they are independent and
// idempotent.
type BackfillService struct {
	repo      BackfillQuestionRepository
	embedding EmbeddingClient
	cfg       BackfillConfig
}

func NewBackfillService(repo BackfillQuestionRepository, embedding EmbeddingClient) *BackfillService {
	return NewBackfillServiceWithConfig(repo, embedding, DefaultBackfillConfig())
}

func NewBackfillServiceWithConfig(repo BackfillQuestionRepository, embedding EmbeddingClient, cfg BackfillConfig) *BackfillService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &BackfillService{
		repo:      repo,
		embedding: embedding,
		cfg:       cfg,
	}
}

// Run scans for questions with null embeddings and fills them in. Re-running
// is safe: rows that already have an embedding are never touched, so a clean
// second run issues zero embedding requests.
func (s *BackfillService) Run(ctx context.Context) (*BackfillReport, error) {
	ctx, span := telemetry.StartSpan(ctx, "BackfillService.Run", telemetry.SpanAttributes{
		Operation: "backfill",
	})
	defer span.End()

	missing, err := s.repo.ListMissingEmbeddings(ctx)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeStorage, "failed to list questions missing embeddings", err)
	}

	report := &BackfillReport{Scanned: len(missing)}
	if len(missing) == 0 {
		return report, nil
	}

	log.Printf("backfill: %d questions missing embeddings", len(missing))

	var limiter *rate.Limiter
	if s.cfg.BatchDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(s.cfg.BatchDelay), 1)
	}

	var mu sync.Mutex
	for start := 0; start < len(missing); start += s.cfg.BatchSize {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return report, err
			}
		}

		end := start + s.cfg.BatchSize
		if end > len(missing) {
			end = len(missing)
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, q := range missing[start:end] {
			g.Go(func() error {
				err := s.processQuestion(gctx, q)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					report.Failed++
					report.Failures = append(report.Failures, BackfillFailure{QuestionID: q.ID, Err: err.Error()})
					log.Printf("backfill: question %s failed: %v", q.ID, err)
					return nil
				}
				report.Succeeded++
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return report, err
		}
		if gctx.Err() != nil {
			return report, gctx.Err()
		}
	}

	log.Printf("backfill: done, %d succeeded, %d failed", report.Succeeded, report.Failed)
	return report, nil
}

func (s *BackfillService) processQuestion(ctx context.Context, q *domain.Question) error {
	text := buildEmbeddingText(q)

	var lastErr error
	for attempt := 0; attempt < s.cfg.MaxRetries; attempt++ {
		if attempt > 0 && s.cfg.RetryBackoff > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.cfg.RetryBackoff):
			}
		}

		embedding, err := s.embedding.GenerateEmbedding(ctx, text)
		if err != nil {
			lastErr = err
			continue
		}

		if err := s.repo.UpdateEmbedding(ctx, q.ID, embedding); err != nil {
			return err
		}
		return nil
	}

	return domain.NewDomainErrorWithCause(domain.ErrCodeUpstream, "embedding retries exhausted", lastErr)
}

// buildEmbeddingText concatenates the semantically relevant fields of a
// question into the string that gets embedded.
func buildEmbeddingText(q *domain.Question) string {
	var parts []string

	if q.Question != "" {
		parts = append(parts, q.Question)
	}
	if q.Learning != "" {
		parts = append(parts, q.Learning)
	}
	if q.Category != "" {
		parts = append(parts, q.Category)
	}

	return strings.Join(parts, "\n\n")
}
