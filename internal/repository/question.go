package repository

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/sagepath-app/sagepath/internal/domain"
	"github.com/sagepath-app/sagepath/internal/service"
)

// QuestionRepository persists the coaching question bank and implements the
// vector-store nearest-neighbor query over its embedding column.
type QuestionRepository struct {
	db dbtx

	// matchThreshold is the minimum cosine similarity a row must clear to be
	// returned from MatchByEmbedding. Rows below it are treated as no match.
	matchThreshold float64
}

func NewQuestionRepository(pool *pgxpool.Pool, matchThreshold float64) *QuestionRepository {
	return &QuestionRepository{db: pool, matchThreshold: matchThreshold}
}

func NewQuestionRepositoryWithTx(tx pgx.Tx, matchThreshold float64) *QuestionRepository {
	return &QuestionRepository{db: tx, matchThreshold: matchThreshold}
}

func (r *QuestionRepository) Create(ctx context.Context, q *domain.Question) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO questions (id, question, learning, quote, book, chapter, category, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		q.ID, q.Question, nullableString(q.Learning), nullableString(q.Quote),
		nullableString(q.Book), nullableString(q.Chapter), nullableString(q.Category),
		q.CreatedAt, q.UpdatedAt,
	)
	return err
}

func (r *QuestionRepository) GetByID(ctx context.Context, id string) (*domain.Question, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, question, learning, quote, book, chapter, category, embedding IS NOT NULL, created_at, updated_at
		 FROM questions WHERE id = $1`,
		id,
	)
	q, err := scanQuestion(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrQuestionNotFound
		}
		return nil, err
	}
	return q, nil
}

// ListMissingEmbeddings returns every question whose embedding is null,
// ordered by id so backfill batches are deterministic.
func (r *QuestionRepository) ListMissingEmbeddings(ctx context.Context) ([]*domain.Question, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, question, learning, quote, book, chapter, category, embedding IS NOT NULL, created_at, updated_at
		 FROM questions WHERE embedding IS NULL ORDER BY id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQuestionRows(rows)
}

func (r *QuestionRepository) UpdateEmbedding(ctx context.Context, id string, embedding []float32) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE questions SET embedding = $1, updated_at = $2 WHERE id = $3`,
		pgvector.NewVector(embedding), time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

// MatchByEmbedding runs the nearest-neighbor query: cosine similarity against
// the query embedding, thresholded, ordered by descending similarity. Rows
// without an embedding are excluded from ranking.
func (r *QuestionRepository) MatchByEmbedding(ctx context.Context, embedding []float32, matchCount int) ([]*domain.SimilarityMatch, error) {
	if matchCount <= 0 {
		matchCount = 5
	}

	vec := pgvector.NewVector(embedding)

	rows, err := r.db.Query(ctx,
		`SELECT id, question, COALESCE(learning, ''), COALESCE(quote, ''), COALESCE(category, ''),
		        COALESCE(book, ''), COALESCE(chapter, ''),
		        1 - (embedding <=> $1) AS similarity
		 FROM questions
		 WHERE embedding IS NOT NULL
		   AND 1 - (embedding <=> $1) >= $2
		 ORDER BY embedding <=> $1 ASC
		 LIMIT $3`,
		vec, r.matchThreshold, matchCount,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*domain.SimilarityMatch, 0)
	for rows.Next() {
		var m domain.SimilarityMatch
		if err := rows.Scan(&m.ID, &m.Question, &m.Learning, &m.Quote, &m.Category, &m.Book, &m.Chapter, &m.Similarity); err != nil {
			return nil, err
		}
		matches = append(matches, &m)
	}
	return matches, rows.Err()
}

// RandomSample returns up to n questions in random order, used as the
// fallback result set when semantic search finds nothing.
func (r *QuestionRepository) RandomSample(ctx context.Context, n int) ([]*domain.Question, error) {
	if n <= 0 {
		n = 5
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, question, learning, quote, book, chapter, category, embedding IS NOT NULL, created_at, updated_at
		 FROM questions ORDER BY random() LIMIT $1`,
		n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQuestionRows(rows)
}

// ListPage returns one offset/limit page of questions matching the filter,
// ordered by id ascending for a stable pagination key.
func (r *QuestionRepository) ListPage(ctx context.Context, filter service.QuestionFilter, offset, limit int) ([]*domain.Question, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	where, args := buildQuestionFilter(filter)
	args = append(args, limit, offset)
	query := `SELECT id, question, learning, quote, book, chapter, category, embedding IS NOT NULL, created_at, updated_at
		 FROM questions` + where +
		` ORDER BY id ASC LIMIT $` + placeholder(len(args)-1) + ` OFFSET $` + placeholder(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQuestionRows(rows)
}

// CountFiltered returns the total number of questions matching the filter.
func (r *QuestionRepository) CountFiltered(ctx context.Context, filter service.QuestionFilter) (int, error) {
	where, args := buildQuestionFilter(filter)
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM questions`+where, args...).Scan(&count)
	return count, err
}

func buildQuestionFilter(filter service.QuestionFilter) (string, []any) {
	var clauses []string
	var args []any

	if filter.Category != "" {
		args = append(args, filter.Category)
		clauses = append(clauses, "category = $"+placeholder(len(args)))
	}
	if filter.Book != "" {
		args = append(args, filter.Book)
		clauses = append(clauses, "book = $"+placeholder(len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		clauses = append(clauses, "question ILIKE $"+placeholder(len(args)))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func placeholder(n int) string {
	return strconv.Itoa(n)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row rowScanner) (*domain.Question, error) {
	var q domain.Question
	var learning, quote, book, chapter, category *string
	if err := row.Scan(&q.ID, &q.Question, &learning, &quote, &book, &chapter, &category, &q.HasEmbedding, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return nil, err
	}
	if learning != nil {
		q.Learning = *learning
	}
	if quote != nil {
		q.Quote = *quote
	}
	if book != nil {
		q.Book = *book
	}
	if chapter != nil {
		q.Chapter = *chapter
	}
	if category != nil {
		q.Category = *category
	}
	return &q, nil
}

func scanQuestionRows(rows pgx.Rows) ([]*domain.Question, error) {
	var results []*domain.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, q)
	}
	return results, rows.Err()
}
