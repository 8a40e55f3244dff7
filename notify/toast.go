package notify

import (
	"fmt"
	"sync"
	"time"
)

// Toast timings.
const (
	StartedDuration   = 2 * time.Second
	CompletedDuration = 8 * time.Second
)

// ToastState is what the generation toast currently shows.
type ToastState int

// Toast states.
const (
	ToastHidden ToastState = iota
	ToastStarted
	ToastCompleted
	ToastFailed
)

// Toast is the generation progress banner. A "started" pulse hides after
// StartedDuration, a "completed" banner after CompletedDuration unless
// dismissed first, and a failure stays until dismissed or until the next
// generation starts.
//
// Toast implements generation.Observer and is safe for concurrent use.
type Toast struct {
	mu        sync.Mutex
	state     ToastState
	message   string
	timer     *time.Timer
	seq       uint64
	started   time.Duration
	completed time.Duration
	onDismiss func()
	onChange  func()
}

// ToastOption configures a Toast.
type ToastOption func(*Toast)

// WithDurations overrides the started and completed durations.
func WithDurations(started, completed time.Duration) ToastOption {
	return func(t *Toast) {
		t.started = started
		t.completed = completed
	}
}

// WithOnDismiss registers a callback run when a completed banner is hidden,
// by timer or by Dismiss.
func WithOnDismiss(fn func()) ToastOption {
	return func(t *Toast) {
		t.onDismiss = fn
	}
}

// WithToastOnChange registers a callback run after the toast changes.
func WithToastOnChange(fn func()) ToastOption {
	return func(t *Toast) {
		t.onChange = fn
	}
}

// NewToast creates a hidden Toast.
func NewToast(opts ...ToastOption) *Toast {
	t := &Toast{
		started:   StartedDuration,
		completed: CompletedDuration,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Started shows the transient "started" pulse.
func (t *Toast) Started(story string) {
	msg := "Generating test plan..."
	if story != "" {
		msg = fmt.Sprintf("Generating test plan for %q...", story)
	}
	t.show(ToastStarted, msg, t.started)
}

// Completed shows the completion banner.
func (t *Toast) Completed(storyTitle string, count int) {
	msg := fmt.Sprintf("Generated %d test case%s", count, plural(count))
	if storyTitle != "" {
		msg += fmt.Sprintf(" for %q", storyTitle)
	}
	t.show(ToastCompleted, msg, t.completed)
}

// Failed shows a persistent error banner.
func (t *Toast) Failed(message string) {
	t.show(ToastFailed, message, 0)
}

func (t *Toast) show(state ToastState, msg string, d time.Duration) {
	t.mu.Lock()
	t.stop()
	t.seq++
	t.state = state
	t.message = msg
	if d > 0 {
		seq := t.seq
		t.timer = time.AfterFunc(d, func() { t.expire(seq) })
	}
	t.mu.Unlock()
	t.changed()
}

func (t *Toast) expire(seq uint64) {
	t.mu.Lock()
	if t.seq != seq {
		t.mu.Unlock()
		return
	}
	t.hideLocked()
}

// Dismiss hides the toast now.
func (t *Toast) Dismiss() {
	t.mu.Lock()
	if t.state == ToastHidden {
		t.mu.Unlock()
		return
	}
	t.stop()
	t.seq++
	t.hideLocked()
}

// hideLocked hides the toast and releases the lock before callbacks run.
func (t *Toast) hideLocked() {
	wasCompleted := t.state == ToastCompleted
	t.state = ToastHidden
	t.message = ""
	t.timer = nil
	t.mu.Unlock()

	if wasCompleted && t.onDismiss != nil {
		t.onDismiss()
	}
	t.changed()
}

// View returns the current state and message.
func (t *Toast) View() (ToastState, string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state, t.message
}

// Close stops the pending timer.
func (t *Toast) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stop()
}

func (t *Toast) stop() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *Toast) changed() {
	if t.onChange != nil {
		t.onChange()
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
