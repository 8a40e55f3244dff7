// Package search runs debounced story search where the latest query wins.
package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/testplan"
)

// DefaultDelay is the quiet period before a query is sent.
const DefaultDelay = 300 * time.Millisecond

// Ticket identifies one query change. Results are only accepted for the
// ticket of the current query.
type Ticket struct {
	Query string
	seq   uint64
}

// Session tracks the query being typed, the chosen story and the results
// of the latest search. It is safe for concurrent use.
type Session struct {
	mu       sync.Mutex
	query    string
	seq      uint64
	selected *testplan.Story
	results  []testplan.Story
	err      error
	delay    time.Duration
}

// NewSession creates a Session waiting delay before each search. A
// non-positive delay uses DefaultDelay.
func NewSession(delay time.Duration) *Session {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Session{delay: delay}
}

// Change records a new query. It reports false, clearing the results,
// when the query is blank or equals the selected story's title; no search
// should be made then.
func (s *Session) Change(q string) (Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.query = q
	t := Ticket{Query: q, seq: s.seq}
	if strings.TrimSpace(q) == "" || (s.selected != nil && s.selected.Title == q) {
		s.results = nil
		s.err = nil
		return t, false
	}
	return t, true
}

// Select chooses story, sets the query to its title and clears results.
func (s *Session) Select(story testplan.Story) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = &story
	s.seq++
	s.query = story.Title
	s.results = nil
	s.err = nil
}

// Selected returns the chosen story.
func (s *Session) Selected() (testplan.Story, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return testplan.Story{}, false
	}
	return *s.selected, true
}

// Due reports whether t is still the current query.
func (s *Session) Due(t Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return t.seq == s.seq
}

// Deliver stores results for t. It reports false, dropping them, when the
// query changed after t was issued.
func (s *Session) Deliver(t Ticket, results []testplan.Story, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.seq != s.seq || t.Query != s.query {
		return false
	}
	s.results = results
	s.err = err
	return true
}

// Query returns the current query.
func (s *Session) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Results returns the latest accepted results and search error.
func (s *Session) Results() ([]testplan.Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]testplan.Story(nil), s.results...), s.err
}

// Search waits for the quiet period and, if t is still current, queries
// searcher and delivers the results. It reports whether results were
// accepted.
func (s *Session) Search(ctx context.Context, t Ticket, searcher testplan.StorySearcher) bool {
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
	}
	if !s.Due(t) {
		return false
	}
	results, err := searcher.Search(ctx, t.Query)
	return s.Deliver(t, results, err)
}
