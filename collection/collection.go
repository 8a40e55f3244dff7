// Package collection holds the locally edited copy of a test plan and keeps
// it in sync with the PlanClient that owns the authoritative copy.
//
// Local structural changes are optimistic: a failed server call never rolls
// back a removal or an edit, it only changes which notice the user sees.
package collection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/fwojciec/testplan"
	"github.com/google/uuid"
)

// ErrNothingSelected is returned by bulk operations given no ids.
var ErrNothingSelected = errors.New("no test cases selected")

// Draft defaults.
const (
	DraftTitle     = "New Manual Test Case"
	DraftStepsText = "1. \n2. \n3. Verify Result: "
)

// Collection is an ordered sequence of test cases with unique ids, a
// current page, and the single-slot undo buffer for removals.
//
// Collection is safe for concurrent use. Server calls are made without
// holding the lock, so continuations always re-read the current state.
type Collection struct {
	mu sync.Mutex

	issueKey   string
	projectKey string
	cases      []testplan.TestCase
	page       int
	pageSize   int
	undo       testplan.UndoBuffer

	plans    testplan.PlanClient
	notifier testplan.Notifier
	logger   *slog.Logger
	newID    func() string
}

// Option configures a Collection.
type Option func(*Collection)

// WithPageSize sets the number of test cases per page.
func WithPageSize(n int) Option {
	return func(c *Collection) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithNotifier sets where user-visible notices are sent.
func WithNotifier(n testplan.Notifier) Option {
	return func(c *Collection) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Collection) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithProjectKey overrides the project key derived from the issue key.
func WithProjectKey(key string) Option {
	return func(c *Collection) {
		if key != "" {
			c.projectKey = key
		}
	}
}

// WithIDGenerator sets the function producing the unique part of draft ids.
func WithIDGenerator(fn func() string) Option {
	return func(c *Collection) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// New creates a Collection for issueKey holding cases. The cases are taken
// as-is; use testplan.FromServer to convert server data first.
func New(issueKey string, cases []testplan.TestCase, plans testplan.PlanClient, opts ...Option) *Collection {
	c := &Collection{
		issueKey:   issueKey,
		projectKey: testplan.ProjectKey(issueKey),
		cases:      testplan.CloneAll(cases),
		page:       1,
		pageSize:   testplan.DefaultPageSize,
		plans:      plans,
		notifier:   discardNotifier{},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IssueKey returns the issue the plan belongs to.
func (c *Collection) IssueKey() string { return c.issueKey }

// ProjectKey returns the project key used for server calls.
func (c *Collection) ProjectKey() string { return c.projectKey }

// Cases returns a copy of all test cases in order.
func (c *Collection) Cases() []testplan.TestCase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return testplan.CloneAll(c.cases)
}

// Len returns the number of test cases.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cases)
}

// Get returns a copy of the test case with id.
func (c *Collection) Get(id string) (testplan.TestCase, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return testplan.TestCase{}, false
	}
	return c.cases[i].Clone(), true
}

// Page returns the current page (1-based).
func (c *Collection) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// PageCount returns the number of pages, at least 1.
func (c *Collection) PageCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return testplan.PageCount(len(c.cases), c.pageSize)
}

// GoToPage moves to page p. It reports false, leaving the page unchanged,
// when p is outside [1, PageCount()].
func (c *Collection) GoToPage(p int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p < 1 || p > testplan.PageCount(len(c.cases), c.pageSize) {
		return false
	}
	c.page = p
	return true
}

// Visible returns copies of the test cases on the current page.
func (c *Collection) Visible() []testplan.TestCase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return testplan.CloneAll(c.visible())
}

func (c *Collection) visible() []testplan.TestCase {
	start, end := testplan.PageBounds(c.page, len(c.cases), c.pageSize)
	return c.cases[start:end]
}

// Selected returns copies of the selected test cases in collection order.
func (c *Collection) Selected() []testplan.TestCase {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []testplan.TestCase
	for _, tc := range c.cases {
		if tc.Selected {
			out = append(out, tc.Clone())
		}
	}
	return out
}

// SelectedIDs returns the ids of the selected test cases.
func (c *Collection) SelectedIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var ids []string
	for _, tc := range c.cases {
		if tc.Selected {
			ids = append(ids, tc.ID)
		}
	}
	return ids
}

// SelectedCount returns the number of selected test cases.
func (c *Collection) SelectedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, tc := range c.cases {
		if tc.Selected {
			n++
		}
	}
	return n
}

// AllSelected reports whether the collection is non-empty and every test
// case is selected.
func (c *Collection) AllSelected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.cases) == 0 {
		return false
	}
	for _, tc := range c.cases {
		if !tc.Selected {
			return false
		}
	}
	return true
}

// AllExpanded reports whether the current page is non-empty and every test
// case on it is expanded.
func (c *Collection) AllExpanded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.allExpanded()
}

func (c *Collection) allExpanded() bool {
	page := c.visible()
	if len(page) == 0 {
		return false
	}
	for _, tc := range page {
		if !tc.Expanded {
			return false
		}
	}
	return true
}

// AddDraft inserts a blank test case at the head of the collection and
// moves to the first page. Nothing is sent to the server until the draft
// is saved with Update.
func (c *Collection) AddDraft() testplan.TestCase {
	tc := testplan.TestCase{
		ID:        testplan.DraftPrefix + c.newID(),
		Title:     DraftTitle,
		StepsText: DraftStepsText,
		Steps:     testplan.DecodeSteps(DraftStepsText),
		Expanded:  true,
	}

	c.mu.Lock()
	c.cases = slices.Insert(c.cases, 0, tc)
	c.page = 1
	c.mu.Unlock()

	return tc.Clone()
}

// ToggleSelect flips the selection of the test case with id.
func (c *Collection) ToggleSelect(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(id); i >= 0 {
		c.cases[i].Selected = !c.cases[i].Selected
	}
}

// SelectAll selects every test case.
func (c *Collection) SelectAll() { c.setSelected(true) }

// UnselectAll clears the selection.
func (c *Collection) UnselectAll() { c.setSelected(false) }

func (c *Collection) setSelected(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.cases {
		c.cases[i].Selected = v
	}
}

// ToggleExpand flips the expansion of the test case with id.
func (c *Collection) ToggleExpand(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(id); i >= 0 {
		c.cases[i].Expanded = !c.cases[i].Expanded
	}
}

// ToggleExpandAll expands every test case unless every case on the current
// page is already expanded, in which case it collapses every test case.
func (c *Collection) ToggleExpandAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	expand := !c.allExpanded()
	for i := range c.cases {
		c.cases[i].Expanded = expand
	}
}

// RemoveUploaded removes the test cases with ids after the test-management
// system accepted them. No server update is made. It returns the number
// of test cases removed.
func (c *Collection) RemoveUploaded(ids []string) int {
	set := idSet(ids)

	c.mu.Lock()
	defer c.mu.Unlock()
	before := len(c.cases)
	c.cases = slices.DeleteFunc(c.cases, func(tc testplan.TestCase) bool {
		_, ok := set[tc.ID]
		return ok
	})
	c.page = testplan.ClampPage(c.page, len(c.cases), c.pageSize)
	return before - len(c.cases)
}

// push replaces the server copy of the plan with cases.
func (c *Collection) push(ctx context.Context, cases []testplan.TestCase) error {
	res, err := c.plans.Update(ctx, c.issueKey, cases, false, c.projectKey)
	if err != nil {
		return err
	}
	if res != nil && !res.OK {
		if res.Message != "" {
			return fmt.Errorf("update rejected: %s", res.Message)
		}
		return errors.New("update rejected")
	}
	c.logger.Debug("test plan saved", "issue", c.issueKey, "cases", len(cases))
	return nil
}

func (c *Collection) indexOf(id string) int {
	return slices.IndexFunc(c.cases, func(tc testplan.TestCase) bool { return tc.ID == id })
}

func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

type discardNotifier struct{}

func (discardNotifier) Notify(string, testplan.NotificationKind, func()) {}
