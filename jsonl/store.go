package jsonl

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/fwojciec/testplan"
	"golang.org/x/sync/errgroup"
)

// Compile-time interface verification.
var (
	_ testplan.PlanClient = (*PlanStore)(nil)
	_ testplan.PlanLister = (*PlanStore)(nil)
)

const planExt = ".jsonl"

// PlanStore keeps each plan in <dir>/<issue key>.jsonl, one test case per
// line. It stands in for the backend when working offline.
type PlanStore struct {
	dir string
	mu  sync.Mutex
}

// NewPlanStore creates a PlanStore rooted at dir.
func NewPlanStore(dir string) *PlanStore {
	return &PlanStore{dir: dir}
}

// Dir returns the directory plans are stored in.
func (s *PlanStore) Dir() string { return s.dir }

func (s *PlanStore) path(issueKey string) (string, error) {
	if err := testplan.ValidateIssueKey(issueKey); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, issueKey+planExt), nil
}

// Get implements testplan.PlanClient.
func (s *PlanStore) Get(_ context.Context, issueKey string) ([]testplan.TestCase, error) {
	path, err := s.path(issueKey)
	if err != nil {
		return nil, err
	}
	cases, err := readLines[testplan.TestCase](path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, testplan.ErrNoPlan
	}
	if err != nil {
		return nil, err
	}
	if cases == nil {
		cases = []testplan.TestCase{}
	}
	return cases, nil
}

// Update implements testplan.PlanClient. The store cannot upload, so
// uploadImmediately and projectKey are ignored.
func (s *PlanStore) Update(_ context.Context, issueKey string, cases []testplan.TestCase, _ bool, _ string) (*testplan.UpdateResult, error) {
	path, err := s.path(issueKey)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeLines(path, cases); err != nil {
		return nil, err
	}
	return &testplan.UpdateResult{OK: true, Message: "Test plan updated"}, nil
}

// Delete implements testplan.PlanClient. Deleting a missing plan is not an
// error.
func (s *PlanStore) Delete(_ context.Context, issueKey string) error {
	path, err := s.path(issueKey)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// listConcurrency bounds how many plan files List reads at once.
const listConcurrency = 8

// List returns a summary of every stored plan, sorted by issue key. A
// missing directory means no plans.
func (s *PlanStore) List(ctx context.Context) ([]testplan.PlanSummary, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, planExt) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, planExt))
	}
	slices.Sort(keys)

	out := make([]testplan.PlanSummary, len(keys))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(listConcurrency)
	for i, key := range keys {
		g.Go(func() error {
			cases, err := s.Get(ctx, key)
			if err != nil {
				return err
			}
			out[i] = testplan.PlanSummary{IssueKey: key, Count: len(cases)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
