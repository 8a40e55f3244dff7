// Package generation runs the single-flight test plan generation lifecycle.
package generation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/fwojciec/testplan"
)

// Errors returned by Start.
var (
	// ErrInFlight is returned when a generation is already running.
	ErrInFlight = errors.New("generation already in progress")
	// ErrStale is returned when the result arrived after the workflow was
	// cleared or restarted and was discarded.
	ErrStale = errors.New("generation result discarded")
)

// DefaultErrorMessage is recorded when a failure carries no message.
const DefaultErrorMessage = "Failed to generate test plan"

// Progress messages.
const (
	ProgressFetching   = "Fetching story context..."
	ProgressGenerating = "Generating test cases with AI..."
	ProgressComplete   = "Complete"
)

// State is the lifecycle state of a Workflow.
type State int

// Workflow states. A failed generation returns to StateIdle with Err set.
const (
	StateIdle State = iota
	StateGenerating
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateGenerating:
		return "generating"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Plan is the result of a completed generation.
type Plan struct {
	StoryTitle string
	IssueKey   string
	TestCases  []testplan.TestCase
	Upload     *testplan.UploadResult
}

// Snapshot is a point-in-time copy of the workflow state.
type Snapshot struct {
	State           State
	CurrentStory    string
	CurrentIssueKey string
	Progress        string
	Err             string
	Plan            *Plan
	ShowToast       bool
}

// Observer is told about lifecycle transitions. notify.Toast implements it.
type Observer interface {
	Started(story string)
	Completed(storyTitle string, count int)
	Failed(message string)
}

// Workflow owns the generation state machine. It is safe for concurrent use.
type Workflow struct {
	mu sync.Mutex

	state    State
	story    string
	issueKey string
	progress string
	err      string
	plan     *Plan
	toast    bool
	attempt  uint64

	client   testplan.GenerationClient
	observer Observer
	logger   *slog.Logger
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithObserver sets the lifecycle observer.
func WithObserver(o Observer) Option {
	return func(w *Workflow) {
		w.observer = o
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Workflow) {
		if l != nil {
			w.logger = l
		}
	}
}

// New creates a Workflow using client.
func New(client testplan.GenerationClient, opts ...Option) *Workflow {
	w := &Workflow{
		client: client,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start generates a test plan for req and blocks until the client returns.
//
// If a generation is already running, Start returns ErrInFlight at once
// and the running generation is unaffected. If Clear or another Start
// superseded this attempt while it ran, the result is discarded and
// ErrStale is returned.
func (w *Workflow) Start(ctx context.Context, req testplan.GenerateRequest) (*Plan, error) {
	if err := testplan.ValidateIssueKey(req.IssueKey); err != nil {
		return nil, err
	}
	if req.ProjectKey == "" {
		req.ProjectKey = testplan.ProjectKey(req.IssueKey)
	}

	w.mu.Lock()
	if w.state == StateGenerating {
		w.mu.Unlock()
		return nil, ErrInFlight
	}
	w.attempt++
	attempt := w.attempt
	w.state = StateGenerating
	w.story = req.StoryTitle
	w.issueKey = req.IssueKey
	w.progress = ProgressFetching
	w.err = ""
	w.plan = nil
	w.toast = false
	observer := w.observer
	w.mu.Unlock()

	if observer != nil {
		observer.Started(req.StoryTitle)
	}
	w.logger.Info("generation started", "issue", req.IssueKey, "upload", req.UploadImmediately)

	w.setProgress(attempt, ProgressGenerating)
	res, err := w.client.Generate(ctx, req)

	w.mu.Lock()
	if w.attempt != attempt || w.state != StateGenerating {
		w.mu.Unlock()
		w.logger.Warn("discarding stale generation result", "issue", req.IssueKey)
		return nil, ErrStale
	}
	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = DefaultErrorMessage
		}
		w.state = StateIdle
		w.progress = ""
		w.err = msg
		w.mu.Unlock()

		w.logger.Warn("generation failed", "issue", req.IssueKey, "error", err)
		if observer != nil {
			observer.Failed(msg)
		}
		return nil, err
	}

	plan := &Plan{
		StoryTitle: req.StoryTitle,
		IssueKey:   req.IssueKey,
		TestCases:  testplan.FromServer(req.IssueKey, res.TestCases),
		Upload:     res.Upload,
	}
	w.state = StateCompleted
	w.progress = ProgressComplete
	w.plan = plan
	w.toast = true
	w.mu.Unlock()

	w.logger.Info("generation completed", "issue", req.IssueKey, "cases", len(plan.TestCases))
	if observer != nil {
		observer.Completed(req.StoryTitle, len(plan.TestCases))
	}
	return clonePlan(plan), nil
}

func (w *Workflow) setProgress(attempt uint64, msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.attempt == attempt && w.state == StateGenerating {
		w.progress = msg
	}
}

// Clear resets the workflow to idle with no story, error or result and
// hides the toast. A generation still running is abandoned.
func (w *Workflow) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.attempt++
	w.state = StateIdle
	w.story = ""
	w.issueKey = ""
	w.progress = ""
	w.err = ""
	w.plan = nil
	w.toast = false
}

// DismissToast hides the completion toast.
func (w *Workflow) DismissToast() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.toast = false
}

// State returns the current state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Snapshot returns a copy of the current state.
func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Snapshot{
		State:           w.state,
		CurrentStory:    w.story,
		CurrentIssueKey: w.issueKey,
		Progress:        w.progress,
		Err:             w.err,
		Plan:            clonePlan(w.plan),
		ShowToast:       w.toast,
	}
}

func clonePlan(p *Plan) *Plan {
	if p == nil {
		return nil
	}
	c := *p
	c.TestCases = testplan.CloneAll(p.TestCases)
	return &c
}
