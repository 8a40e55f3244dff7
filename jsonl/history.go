package jsonl

import (
	"errors"
	"io/fs"

	"github.com/fwojciec/testplan"
)

// Compile-time interface verification.
var _ testplan.History = (*HistoryLog)(nil)

// HistoryLog appends generation history entries to a single JSONL file.
type HistoryLog struct {
	path string
}

// NewHistoryLog creates a HistoryLog writing to path.
func NewHistoryLog(path string) *HistoryLog {
	return &HistoryLog{path: path}
}

// Append implements testplan.History.
func (h *HistoryLog) Append(entry testplan.HistoryEntry) error {
	return appendLine(h.path, entry)
}

// Load implements testplan.History. A missing file means no history.
func (h *HistoryLog) Load() ([]testplan.HistoryEntry, error) {
	entries, err := readLines[testplan.HistoryEntry](h.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return entries, err
}
