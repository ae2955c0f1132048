package domain

import "time"

// Question is a coaching question from the knowledge bank. The embedding
// column lives only in storage; HasEmbedding reports whether it is set.
type Question struct {
	ID           string
	Question     string
	Learning     string
	Quote        string
	Book         string
	Chapter      string
	Category     string
	HasEmbedding bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SimilarityMatch is a transient projection of a Question plus its cosine
// similarity to a query embedding. Produced per search, never persisted.
type SimilarityMatch struct {
	ID         string  `json:"id"`
	Question   string  `json:"question"`
	Learning   string  `json:"learning"`
	Quote      string  `json:"quote"`
	Category   string  `json:"category"`
	Book       string  `json:"book"`
	Chapter    string  `json:"chapter"`
	Similarity float32 `json:"similarity"`
}

// ValidateQuestion checks required fields before persistence
func ValidateQuestion(q *Question) error {
	if q.ID == "" {
		return NewDomainError(ErrCodeValidation, "question ID is required")
	}
	if q.Question == "" {
		return NewDomainError(ErrCodeValidation, "question text is required")
	}
	return nil
}
