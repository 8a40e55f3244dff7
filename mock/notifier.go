package mock

import (
	"sync"

	"github.com/fwojciec/testplan"
)

// Compile-time interface verification.
var (
	_ testplan.Notifier  = (*Notifier)(nil)
	_ testplan.Clipboard = (*Clipboard)(nil)
	_ testplan.URLOpener = (*URLOpener)(nil)
	_ testplan.History   = (*History)(nil)
)

// Notice is a notification captured by Notifier.
type Notice struct {
	Message string
	Kind    testplan.NotificationKind
	Undo    func()
}

// Notifier records notifications. NotifyFn, when set, is called as well.
type Notifier struct {
	NotifyFn func(message string, kind testplan.NotificationKind, undo func())

	mu      sync.Mutex
	notices []Notice
}

func (n *Notifier) Notify(message string, kind testplan.NotificationKind, undo func()) {
	n.mu.Lock()
	n.notices = append(n.notices, Notice{Message: message, Kind: kind, Undo: undo})
	n.mu.Unlock()
	if n.NotifyFn != nil {
		n.NotifyFn(message, kind, undo)
	}
}

// Notices returns a copy of the recorded notifications.
func (n *Notifier) Notices() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Notice, len(n.notices))
	copy(out, n.notices)
	return out
}

// Last returns the most recent notification and whether there was one.
func (n *Notifier) Last() (Notice, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.notices) == 0 {
		return Notice{}, false
	}
	return n.notices[len(n.notices)-1], true
}

// Clipboard is a mock implementation of testplan.Clipboard.
type Clipboard struct {
	CopyFn func(content string) error
}

func (c *Clipboard) Copy(content string) error {
	return c.CopyFn(content)
}

// URLOpener is a mock implementation of testplan.URLOpener.
type URLOpener struct {
	OpenFn func(url string) error
}

func (o *URLOpener) Open(url string) error {
	return o.OpenFn(url)
}

// History is a mock implementation of testplan.History.
type History struct {
	AppendFn func(entry testplan.HistoryEntry) error
	LoadFn   func() ([]testplan.HistoryEntry, error)
}

func (h *History) Append(entry testplan.HistoryEntry) error {
	return h.AppendFn(entry)
}

func (h *History) Load() ([]testplan.HistoryEntry, error) {
	return h.LoadFn()
}
