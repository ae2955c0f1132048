// Package browse implements the stateful paginated question browser used by
// the client CLI. It accumulates pages, deduplicates repeated rows and
// serializes fetches so a slow page can never interleave with a newer one.
package browse

import (
	"context"
	"errors"
	"sync"

	"github.com/sagepath-app/sagepath/internal/domain"
	"github.com/sagepath-app/sagepath/internal/service"
)

// State is the lifecycle state of a browse session.
type State int

const (
	StateIdle State = iota
	StateFetching
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Mode selects how pages are fetched.
type Mode int

const (
	// ModeKeyword pages through the question bank with offset/limit filters.
	ModeKeyword Mode = iota
	// ModeSemantic ranks the bank against a free-text query.
	ModeSemantic
)

// ErrFetchInFlight is returned when LoadMore is called while a previous fetch
// has not finished. The newer call is dropped, not queued.
var ErrFetchInFlight = errors.New("fetch already in flight")

// Fetcher loads pages on behalf of a session.
type Fetcher interface {
	// FetchKeyword returns one page of questions plus the total row count
	// for the filter.
	FetchKeyword(ctx context.Context, filter service.QuestionFilter, offset, limit int) ([]*domain.SimilarityMatch, int, error)
	// FetchSemantic returns up to limit ranked matches for the query.
	FetchSemantic(ctx context.Context, query string, limit int) ([]*domain.SimilarityMatch, error)
}

// Session accumulates browse results across pages. All methods are safe for
// concurrent use; at most one fetch runs at a time.
type Session struct {
	mu       sync.Mutex
	fetcher  Fetcher
	pageSize int

	mode   Mode
	filter service.QuestionFilter
	query  string

	state   State
	lastErr error
	items   []*domain.SimilarityMatch
	seen    map[string]bool
	hasMore bool
	gen     int
}

func NewSession(fetcher Fetcher, pageSize int) *Session {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &Session{
		fetcher:  fetcher,
		pageSize: pageSize,
		state:    StateIdle,
		seen:     make(map[string]bool),
		hasMore:  true,
	}
}

// SetKeywordMode switches to keyword browsing with the given filter and
// resets accumulated results.
func (s *Session) SetKeywordMode(filter service.QuestionFilter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = ModeKeyword
	s.filter = filter
	s.resetLocked()
}

// SetSemanticMode switches to semantic browsing with the given query and
// resets accumulated results.
func (s *Session) SetSemanticMode(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = ModeSemantic
	s.query = query
	s.resetLocked()
}

// Reset clears accumulated results but keeps the current mode and filter.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

// resetLocked requires s.mu held. A fetch already in flight keeps running but
// its page is discarded when it lands, because the generation bump below
// invalidates it.
func (s *Session) resetLocked() {
	s.state = StateIdle
	s.lastErr = nil
	s.items = nil
	s.seen = make(map[string]bool)
	s.hasMore = true
	s.gen++
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error from the last failed fetch, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Items returns a copy of the accumulated results.
func (s *Session) Items() []*domain.SimilarityMatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.SimilarityMatch, len(s.items))
	copy(out, s.items)
	return out
}

// HasMore reports whether another page may be available.
func (s *Session) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasMore
}

// LoadMore fetches the next page and appends the rows not already seen.
// Calling it while a fetch is in flight returns ErrFetchInFlight without
// issuing a second request. A failed fetch moves the session to StateError;
// the next LoadMore retries the same page.
func (s *Session) LoadMore(ctx context.Context) ([]*domain.SimilarityMatch, error) {
	s.mu.Lock()
	if s.state == StateFetching {
		s.mu.Unlock()
		return nil, ErrFetchInFlight
	}
	if !s.hasMore {
		s.mu.Unlock()
		return nil, nil
	}
	s.state = StateFetching
	s.lastErr = nil
	mode := s.mode
	filter := s.filter
	query := s.query
	offset := len(s.items)
	limit := s.pageSize
	gen := s.gen
	s.mu.Unlock()

	var (
		page    []*domain.SimilarityMatch
		total   int
		hasMore bool
		err     error
	)
	switch mode {
	case ModeSemantic:
		// Ranked search has no server-side offset: ask for everything up
		// to the next page boundary and drop the rows already shown. As
		// long as a full request comes back there may be more.
		page, err = s.fetcher.FetchSemantic(ctx, query, offset+limit)
		hasMore = err == nil && len(page) == offset+limit
	default:
		page, total, err = s.fetcher.FetchKeyword(ctx, filter, offset, limit)
		hasMore = err == nil && offset+len(page) < total
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// A reset while the fetch ran invalidated this page; drop it.
	if s.gen != gen {
		return nil, nil
	}

	if err != nil {
		s.state = StateError
		s.lastErr = err
		return nil, err
	}

	var added []*domain.SimilarityMatch
	for _, item := range page {
		if s.seen[item.ID] {
			continue
		}
		s.seen[item.ID] = true
		s.items = append(s.items, item)
		added = append(added, item)
	}

	s.state = StateIdle
	s.hasMore = hasMore
	return added, nil
}
