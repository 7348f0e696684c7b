// Package search keeps the paged suggestion list behind the package input.
//
// [Suggestions] turns the registry's page-at-a-time search into an
// incrementally growing list: a new query replaces the list with page 1,
// and [Suggestions.More] appends the next page. A failed request leaves the
// list as it was and publishes a notification.
package search

import (
	"context"
	"slices"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pkgcompare/pkg/integrations/npm"
	"github.com/matzehuels/pkgcompare/pkg/notify"
	"github.com/matzehuels/pkgcompare/pkg/record"
)

// FailureMessage is the notification text for a failed search request.
const FailureMessage = "Failed to fetch package suggestions"

// Searcher returns one page of search results.
type Searcher interface {
	Search(ctx context.Context, query string, page int) (*npm.SearchPage, error)
}

// State is a point-in-time copy of the suggestion list.
type State struct {
	Query   string   `json:"query"`
	Items   []string `json:"items"`
	Page    int      `json:"page"`
	HasMore bool     `json:"hasMore"`
	Loading bool     `json:"loading"`
}

// Suggestions is the paged suggestion list. It is safe for concurrent use.
type Suggestions struct {
	searcher Searcher
	notifier notify.Notifier
	logger   *log.Logger

	mu       sync.Mutex
	query    string
	items    []string
	page     int
	hasMore  bool
	inflight int
	gen      uint64
}

// New creates an empty suggestion list. A nil notifier discards
// notifications; a nil logger uses log.Default().
func New(s Searcher, n notify.Notifier, logger *log.Logger) *Suggestions {
	if n == nil {
		n = notify.Discard
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Suggestions{searcher: s, notifier: n, logger: logger, page: 1}
}

// Query starts a new search. Queries shorter than [npm.MinQueryLength]
// characters clear the list without a request; otherwise page 1 replaces
// the list.
func (s *Suggestions) Query(ctx context.Context, q string) error {
	q = npm.NormalizeQuery(q)

	s.mu.Lock()
	s.gen++
	s.query = q
	if npm.QueryTooShort(q) {
		s.items = nil
		s.page = 1
		s.hasMore = false
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	return s.load(ctx, q, 1)
}

// More loads the next page and appends it. It is a no-op while a request
// is loading, when the last page was short, or when the query is too short.
func (s *Suggestions) More(ctx context.Context) error {
	s.mu.Lock()
	if s.inflight > 0 || !s.hasMore || npm.QueryTooShort(s.query) {
		s.mu.Unlock()
		return nil
	}
	q, next := s.query, s.page+1
	s.mu.Unlock()

	return s.load(ctx, q, next)
}

func (s *Suggestions) load(ctx context.Context, q string, page int) error {
	s.mu.Lock()
	gen := s.gen
	s.inflight++
	s.mu.Unlock()

	res, err := s.searcher.Search(ctx, q, page)

	s.mu.Lock()
	s.inflight--
	if gen != s.gen {
		// A newer query started while this one was in flight.
		s.mu.Unlock()
		return err
	}
	if err != nil {
		s.mu.Unlock()
		s.logger.Debug("search failed", "query", q, "page", page, "err", err)
		s.notifier.Notify(notify.Notification{
			Level:     notify.LevelError,
			Dimension: record.DimensionSuggestions,
			Message:   FailureMessage,
			Detail:    err.Error(),
		})
		return err
	}
	if page == 1 {
		s.items = slices.Clone(res.Names)
	} else {
		s.items = append(s.items, res.Names...)
	}
	s.page = page
	s.hasMore = res.HasMore()
	s.mu.Unlock()

	s.logger.Debug("loaded suggestions", "query", q, "page", page, "names", len(res.Names))
	return nil
}

// Clear empties the list and resets paging, as after a selection.
func (s *Suggestions) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.query = ""
	s.items = nil
	s.page = 1
	s.hasMore = false
}

// State returns a copy of the current list.
func (s *Suggestions) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Query:   s.query,
		Items:   slices.Clone(s.items),
		Page:    s.page,
		HasMore: s.hasMore,
		Loading: s.inflight > 0,
	}
}
