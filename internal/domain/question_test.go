package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateQuestion(t *testing.T) {
	t.Run("valid question passes", func(t *testing.T) {
		q := &Question{
			ID:       "q-1",
			Question: "What did you learn today?",
		}
		assert.NoError(t, ValidateQuestion(q))
	})

	t.Run("missing ID is rejected", func(t *testing.T) {
		q := &Question{Question: "What did you learn today?"}
		err := ValidateQuestion(q)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "ID is required")
	})

	t.Run("missing question text is rejected", func(t *testing.T) {
		q := &Question{ID: "q-1"}
		err := ValidateQuestion(q)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "text is required")
	})
}
