// Package upload exports reviewed test cases to the test-management system
// and removes them from the collection once the system accepts them.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/fwojciec/testplan"
)

// Errors returned by the Coordinator.
var (
	ErrInFlight        = errors.New("upload already in progress")
	ErrNothingSelected = errors.New("no test cases selected for upload")
	ErrNotFound        = errors.New("test case not found")
)

// Collection is the part of collection.Collection the Coordinator needs.
type Collection interface {
	Get(id string) (testplan.TestCase, bool)
	Selected() []testplan.TestCase
	RemoveUploaded(ids []string) int
	IssueKey() string
	ProjectKey() string
}

// Summary describes a completed upload.
type Summary struct {
	Count      int
	IDs        []string
	FolderPath string
	CycleKey   string
}

// Coordinator serializes uploads: one per card and one bulk upload at a
// time, with no card uploads while a bulk upload runs.
type Coordinator struct {
	mu    sync.Mutex
	bulk  bool
	cards map[string]bool

	collection Collection
	client     testplan.UploadClient
	notifier   testplan.Notifier
	folderID   string
	logger     *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithNotifier sets where notices are sent.
func WithNotifier(n testplan.Notifier) Option {
	return func(c *Coordinator) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithFolderID sets the target folder for plain uploads.
func WithFolderID(id string) Option {
	return func(c *Coordinator) {
		c.folderID = id
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCoordinator creates a Coordinator uploading from coll with client.
func NewCoordinator(coll Collection, client testplan.UploadClient, opts ...Option) *Coordinator {
	c := &Coordinator{
		cards:      make(map[string]bool),
		collection: coll,
		client:     client,
		notifier:   discardNotifier{},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Busy reports whether any upload is running.
func (c *Coordinator) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bulk || len(c.cards) > 0
}

// Uploading reports whether the test case with id is being uploaded.
func (c *Coordinator) Uploading(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bulk || c.cards[id]
}

// UploadOne uploads a single test case and removes it on success.
func (c *Coordinator) UploadOne(ctx context.Context, id string) (*Summary, error) {
	tc, ok := c.collection.Get(id)
	if !ok {
		c.notifier.Notify("Test case not found.", testplan.KindError, nil)
		return nil, ErrNotFound
	}

	c.mu.Lock()
	if c.bulk || c.cards[id] {
		c.mu.Unlock()
		c.notifier.Notify("An upload is already in progress.", testplan.KindError, nil)
		return nil, ErrInFlight
	}
	c.cards[id] = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.cards, id)
		c.mu.Unlock()
	}()

	res, err := c.client.UploadSubset(ctx, c.collection.IssueKey(), []testplan.TestCase{tc}, c.collection.ProjectKey(), c.folderID)
	if err != nil {
		c.logger.Warn("upload failed", "issue", c.collection.IssueKey(), "id", id, "error", err)
		c.notifier.Notify("Failed to upload test case.", testplan.KindError, nil)
		return nil, err
	}

	c.collection.RemoveUploaded([]string{id})
	sum := summarize(res, 1)
	c.notifier.Notify(fmt.Sprintf("Uploaded: %q (%d test cases)", tc.Title, len(sum.IDs)), testplan.KindSuccess, nil)
	return sum, nil
}

// UploadMany uploads all selected test cases and removes them on success.
func (c *Coordinator) UploadMany(ctx context.Context) (*Summary, error) {
	selected := c.collection.Selected()
	if len(selected) == 0 {
		c.notifier.Notify("No test cases selected for upload.", testplan.KindError, nil)
		return nil, ErrNothingSelected
	}
	if err := c.beginBulk(); err != nil {
		return nil, err
	}
	defer c.endBulk()

	res, err := c.client.UploadSubset(ctx, c.collection.IssueKey(), selected, c.collection.ProjectKey(), c.folderID)
	if err != nil {
		c.logger.Warn("bulk upload failed", "issue", c.collection.IssueKey(), "count", len(selected), "error", err)
		c.notifier.Notify("Failed to upload test cases. Please try again.", testplan.KindError, nil)
		return nil, err
	}

	c.collection.RemoveUploaded(caseIDs(selected))
	sum := summarize(res, len(selected))
	c.notifier.Notify(fmt.Sprintf("Uploaded %d test case%s.", sum.Count, plural(sum.Count)), testplan.KindSuccess, nil)
	return sum, nil
}

// UploadToCycle uploads cases into a new test cycle named cycleName under
// folderPath and removes them on success. A response with success=false
// is an error carrying the server's messages.
func (c *Coordinator) UploadToCycle(ctx context.Context, cases []testplan.TestCase, cycleName, folderPath string) (*Summary, error) {
	if len(cases) == 0 {
		c.notifier.Notify("No test cases selected for upload.", testplan.KindError, nil)
		return nil, ErrNothingSelected
	}
	if err := c.beginBulk(); err != nil {
		return nil, err
	}
	defer c.endBulk()

	res, err := c.client.UploadToCycle(ctx, c.collection.IssueKey(), cases, c.collection.ProjectKey(), cycleName, folderPath)
	if err == nil && res == nil {
		err = cycleError(nil)
	}
	if err == nil && !res.Success {
		err = cycleError(res.Errors)
	}
	if err != nil {
		c.logger.Warn("cycle upload failed", "issue", c.collection.IssueKey(), "cycle", cycleName, "error", err)
		c.notifier.Notify(err.Error(), testplan.KindError, nil)
		return nil, err
	}

	c.collection.RemoveUploaded(caseIDs(cases))
	sum := &Summary{
		Count:      len(cases),
		IDs:        res.IDs,
		FolderPath: folderPath,
		CycleKey:   res.CycleKey,
	}
	if len(res.IDs) > 0 {
		sum.Count = len(res.IDs)
	}
	c.notifier.Notify(fmt.Sprintf("Uploaded %d test case%s to cycle %s.", sum.Count, plural(sum.Count), res.CycleKey), testplan.KindSuccess, nil)
	return sum, nil
}

func (c *Coordinator) beginBulk() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bulk || len(c.cards) > 0 {
		c.notifier.Notify("An upload is already in progress.", testplan.KindError, nil)
		return ErrInFlight
	}
	c.bulk = true
	return nil
}

func (c *Coordinator) endBulk() {
	c.mu.Lock()
	c.bulk = false
	c.mu.Unlock()
}

// CycleError is returned when the server rejects a cycle upload.
type CycleError struct {
	Messages []string
}

func (e *CycleError) Error() string {
	if len(e.Messages) == 0 {
		return "Upload failed"
	}
	return strings.Join(e.Messages, ", ")
}

func cycleError(msgs []string) error {
	return &CycleError{Messages: msgs}
}

func summarize(res *testplan.UploadResult, sent int) *Summary {
	sum := &Summary{Count: sent}
	if res == nil {
		return sum
	}
	if res.Count > 0 {
		sum.Count = res.Count
	}
	sum.IDs = res.IDs
	sum.FolderPath = res.FolderPath
	return sum
}

func caseIDs(cases []testplan.TestCase) []string {
	ids := make([]string, len(cases))
	for i, tc := range cases {
		ids[i] = tc.ID
	}
	return ids
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

type discardNotifier struct{}

func (discardNotifier) Notify(string, testplan.NotificationKind, func()) {}
