// Package notify implements the user-visible notification queue and the
// generation progress toast.
package notify

import (
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/fwojciec/testplan"
)

// DefaultDismissDelay is how long a notice without an undo action stays
// visible.
const DefaultDismissDelay = 4700 * time.Millisecond

// Compile-time interface verification.
var _ testplan.Notifier = (*Center)(nil)

// Notification is a queued notice.
type Notification struct {
	ID       int64
	Message  string
	Kind     testplan.NotificationKind
	Undoable bool
}

type entry struct {
	Notification
	undo  func()
	timer *time.Timer
}

// Center is a FIFO queue of notices. Notices without an undo action are
// dismissed automatically; undoable notices stay until dismissed, undone,
// or the optional undo delay elapses.
//
// Center is safe for concurrent use.
type Center struct {
	mu       sync.Mutex
	enabled  bool
	nextID   int64
	queue    []*entry
	delay    time.Duration
	undoWait time.Duration
	onChange func()
	logger   *slog.Logger
}

// Option configures a Center.
type Option func(*Center)

// WithDismissDelay sets the auto-dismiss delay for plain notices.
func WithDismissDelay(d time.Duration) Option {
	return func(c *Center) {
		c.delay = d
	}
}

// WithUndoDelay sets a longer auto-dismiss delay for undoable notices.
// Zero, the default, keeps them until the user acts.
func WithUndoDelay(d time.Duration) Option {
	return func(c *Center) {
		c.undoWait = d
	}
}

// WithOnChange registers a callback run after the queue changes. It is
// called without the lock held, possibly from a timer goroutine.
func WithOnChange(fn func()) Option {
	return func(c *Center) {
		c.onChange = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Center) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithEnabled sets whether notices are shown at all.
func WithEnabled(v bool) Option {
	return func(c *Center) {
		c.enabled = v
	}
}

// NewCenter creates an enabled Center.
func NewCenter(opts ...Option) *Center {
	c := &Center{
		enabled: true,
		delay:   DefaultDismissDelay,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Notify implements testplan.Notifier.
func (c *Center) Notify(message string, kind testplan.NotificationKind, undo func()) {
	c.Push(message, kind, undo)
}

// Push appends a notice and returns its id. ok is false, and nothing is
// queued, when notifications are disabled.
func (c *Center) Push(message string, kind testplan.NotificationKind, undo func()) (id int64, ok bool) {
	c.mu.Lock()
	if !c.enabled {
		c.mu.Unlock()
		return 0, false
	}
	c.nextID++
	e := &entry{
		Notification: Notification{
			ID:       c.nextID,
			Message:  message,
			Kind:     kind,
			Undoable: undo != nil,
		},
		undo: undo,
	}
	wait := c.delay
	if undo != nil {
		wait = c.undoWait
	}
	if wait > 0 {
		eid := e.ID
		e.timer = time.AfterFunc(wait, func() { c.Dismiss(eid) })
	}
	c.queue = append(c.queue, e)
	c.mu.Unlock()

	c.logger.Debug("notification", "id", e.ID, "kind", kind, "message", message)
	c.changed()
	return e.ID, true
}

// Dismiss removes the notice with id. It reports whether a notice was
// removed; dismissing an unknown or already removed notice is a no-op.
func (c *Center) Dismiss(id int64) bool {
	if c.take(id) == nil {
		return false
	}
	c.changed()
	return true
}

// InvokeUndo runs the undo action of the notice with id and removes it.
// It reports false if the notice is gone or not undoable.
func (c *Center) InvokeUndo(id int64) bool {
	c.mu.Lock()
	i := c.index(id)
	if i < 0 || c.queue[i].undo == nil {
		c.mu.Unlock()
		return false
	}
	e := c.removeAt(i)
	c.mu.Unlock()

	e.undo()
	c.changed()
	return true
}

// LatestUndoable returns the id of the newest undoable notice.
func (c *Center) LatestUndoable() (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.queue) - 1; i >= 0; i-- {
		if c.queue[i].undo != nil {
			return c.queue[i].ID, true
		}
	}
	return 0, false
}

// List returns the queued notices, oldest first.
func (c *Center) List() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.queue))
	for i, e := range c.queue {
		out[i] = e.Notification
	}
	return out
}

// SetEnabled turns notifications on or off. Turning them off clears the
// queue.
func (c *Center) SetEnabled(v bool) {
	c.mu.Lock()
	c.enabled = v
	cleared := false
	if !v && len(c.queue) > 0 {
		c.stopAll()
		cleared = true
	}
	c.mu.Unlock()
	if cleared {
		c.changed()
	}
}

// Enabled reports whether notifications are shown.
func (c *Center) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// Close stops all pending timers and clears the queue.
func (c *Center) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopAll()
}

func (c *Center) take(id int64) *entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(id)
	if i < 0 {
		return nil
	}
	return c.removeAt(i)
}

func (c *Center) index(id int64) int {
	return slices.IndexFunc(c.queue, func(e *entry) bool { return e.ID == id })
}

func (c *Center) removeAt(i int) *entry {
	e := c.queue[i]
	if e.timer != nil {
		e.timer.Stop()
	}
	c.queue = slices.Delete(c.queue, i, i+1)
	return e
}

func (c *Center) stopAll() {
	for _, e := range c.queue {
		if e.timer != nil {
			e.timer.Stop()
		}
	}
	c.queue = nil
}

func (c *Center) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}
