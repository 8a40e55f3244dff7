package mock

import (
	"context"

	"github.com/fwojciec/testplan"
)

// Compile-time interface verification.
var (
	_ testplan.StorySearcher = (*StorySearcher)(nil)
	_ testplan.StoryFetcher  = (*StoryFetcher)(nil)
)

// StorySearcher is a mock implementation of testplan.StorySearcher.
type StorySearcher struct {
	SearchFn func(ctx context.Context, query string) ([]testplan.Story, error)
}

func (s *StorySearcher) Search(ctx context.Context, query string) ([]testplan.Story, error) {
	return s.SearchFn(ctx, query)
}

// StoryFetcher is a mock implementation of testplan.StoryFetcher.
type StoryFetcher struct {
	StoryFn func(ctx context.Context, issueKey string) (*testplan.Story, error)
}

func (f *StoryFetcher) Story(ctx context.Context, issueKey string) (*testplan.Story, error) {
	return f.StoryFn(ctx, issueKey)
}
