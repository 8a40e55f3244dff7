package generation_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/testplan"
	"github.com/fwojciec/testplan/generation"
	"github.com/fwojciec/testplan/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingClient returns a client whose Generate waits for release and
// signals entered once it has been called.
func blockingClient(entered chan<- struct{}, release <-chan struct{}, res *testplan.GenerateResult, err error) *mock.GenerationClient {
	return &mock.GenerationClient{
		GenerateFn: func(context.Context, testplan.GenerateRequest) (*testplan.GenerateResult, error) {
			entered <- struct{}{}
			<-release
			return res, err
		},
	}
}

type recordingObserver struct {
	mu     sync.Mutex
	events []string
}

func (o *recordingObserver) Started(story string) { o.add("started:" + story) }
func (o *recordingObserver) Completed(string, int) { o.add("completed") }
func (o *recordingObserver) Failed(msg string)     { o.add("failed:" + msg) }

func (o *recordingObserver) add(e string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *recordingObserver) Events() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.events...)
}

func TestWorkflow_Success(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{}
	client := &mock.GenerationClient{
		GenerateFn: func(_ context.Context, req testplan.GenerateRequest) (*testplan.GenerateResult, error) {
			assert.Equal(t, "PLAT", req.ProjectKey)
			return &testplan.GenerateResult{TestCases: []testplan.TestCase{{Title: "A"}, {Title: "B"}}}, nil
		},
	}
	w := generation.New(client, generation.WithObserver(obs))

	plan, err := w.Start(context.Background(), testplan.GenerateRequest{IssueKey: "PLAT-1", StoryTitle: "Login"})

	require.NoError(t, err)
	require.Len(t, plan.TestCases, 2)
	assert.Equal(t, "TC-PLAT-1-1", plan.TestCases[0].ID)
	assert.Equal(t, "Login", plan.StoryTitle)

	snap := w.Snapshot()
	assert.Equal(t, generation.StateCompleted, snap.State)
	assert.Equal(t, generation.ProgressComplete, snap.Progress)
	assert.True(t, snap.ShowToast)
	assert.Empty(t, snap.Err)
	assert.Equal(t, []string{"started:Login", "completed"}, obs.Events())

	w.DismissToast()
	assert.False(t, w.Snapshot().ShowToast)
}

func TestWorkflow_FailureReturnsToIdle(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{}
	boom := errors.New("model overloaded")
	client := &mock.GenerationClient{
		GenerateFn: func(context.Context, testplan.GenerateRequest) (*testplan.GenerateResult, error) {
			return nil, boom
		},
	}
	w := generation.New(client, generation.WithObserver(obs))

	_, err := w.Start(context.Background(), testplan.GenerateRequest{IssueKey: "PLAT-1"})

	require.ErrorIs(t, err, boom)
	snap := w.Snapshot()
	assert.Equal(t, generation.StateIdle, snap.State)
	assert.Equal(t, "model overloaded", snap.Err)
	assert.Nil(t, snap.Plan)
	assert.False(t, snap.ShowToast)
	assert.Equal(t, []string{"started:", "failed:model overloaded"}, obs.Events())

	// A retry clears the error.
	client.GenerateFn = func(context.Context, testplan.GenerateRequest) (*testplan.GenerateResult, error) {
		return &testplan.GenerateResult{TestCases: []testplan.TestCase{{Title: "A"}}}, nil
	}
	_, err = w.Start(context.Background(), testplan.GenerateRequest{IssueKey: "PLAT-1"})
	require.NoError(t, err)
	assert.Empty(t, w.Snapshot().Err)
}

func TestWorkflow_SingleFlight(t *testing.T) {
	t.Parallel()

	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	client := blockingClient(entered, release, &testplan.GenerateResult{TestCases: []testplan.TestCase{{Title: "A"}}}, nil)
	w := generation.New(client)

	done := make(chan error, 1)
	go func() {
		_, err := w.Start(context.Background(), testplan.GenerateRequest{IssueKey: "PLAT-1", StoryTitle: "First"})
		done <- err
	}()
	<-entered

	_, err := w.Start(context.Background(), testplan.GenerateRequest{IssueKey: "PLAT-2", StoryTitle: "Second"})

	require.ErrorIs(t, err, generation.ErrInFlight)
	snap := w.Snapshot()
	assert.Equal(t, generation.StateGenerating, snap.State)
	assert.Equal(t, "First", snap.CurrentStory)
	assert.Equal(t, "PLAT-1", snap.CurrentIssueKey)
	assert.Equal(t, generation.ProgressGenerating, snap.Progress)

	close(release)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("first generation did not finish")
	}
	snap = w.Snapshot()
	assert.Equal(t, generation.StateCompleted, snap.State)
	assert.Equal(t, "PLAT-1", snap.Plan.IssueKey)
}

func TestWorkflow_ClearDiscardsStaleResult(t *testing.T) {
	t.Parallel()

	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	client := blockingClient(entered, release, &testplan.GenerateResult{TestCases: []testplan.TestCase{{Title: "A"}}}, nil)
	w := generation.New(client)

	done := make(chan error, 1)
	go func() {
		_, err := w.Start(context.Background(), testplan.GenerateRequest{IssueKey: "PLAT-1"})
		done <- err
	}()
	<-entered

	w.Clear()
	close(release)

	require.ErrorIs(t, <-done, generation.ErrStale)
	snap := w.Snapshot()
	assert.Equal(t, generation.StateIdle, snap.State)
	assert.Nil(t, snap.Plan)
	assert.Empty(t, snap.CurrentStory)
}

func TestWorkflow_InvalidIssueKey(t *testing.T) {
	t.Parallel()

	w := generation.New(&mock.GenerationClient{})

	_, err := w.Start(context.Background(), testplan.GenerateRequest{IssueKey: ""})

	var verr testplan.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, generation.StateIdle, w.State())
}

func TestState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "idle", generation.StateIdle.String())
	assert.Equal(t, "generating", generation.StateGenerating.String())
	assert.Equal(t, "completed", generation.StateCompleted.String())
}
