package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSession_RefreshUsed(t *testing.T) {
	t.Run("fresh session is unspent", func(t *testing.T) {
		s := &Session{}
		assert.False(t, s.RefreshUsed())
	})

	t.Run("spent session reports used", func(t *testing.T) {
		usedAt := time.Now()
		s := &Session{RefreshUsedAt: &usedAt}
		assert.True(t, s.RefreshUsed())
	})
}

func TestSession_Expired(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	t.Run("future expiry is live", func(t *testing.T) {
		s := &Session{ExpiresAt: now.Add(time.Hour)}
		assert.False(t, s.Expired(now))
	})

	t.Run("past expiry is expired", func(t *testing.T) {
		s := &Session{ExpiresAt: now.Add(-time.Second)}
		assert.True(t, s.Expired(now))
	})

	t.Run("exact expiry instant is still live", func(t *testing.T) {
		s := &Session{ExpiresAt: now}
		assert.False(t, s.Expired(now))
	})
}
