// Package clipboard provides clipboard operations for copying test cases.
package clipboard

import (
	"os/exec"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/fwojciec/testplan"
)

// Compile-time interface verification.
var (
	_ testplan.Clipboard = (*System)(nil)
	_ testplan.Clipboard = (*Command)(nil)
)

// System implements Clipboard using the platform clipboard.
type System struct{}

// Copy writes content to the system clipboard.
func (System) Copy(content string) error {
	return clipboard.WriteAll(content)
}

// Command implements Clipboard by piping content to an external command
// such as pbcopy or wl-copy.
type Command struct {
	Name string
	Args []string
}

// Copy writes content to the command's standard input.
func (c Command) Copy(content string) error {
	cmd := exec.Command(c.Name, c.Args...)
	cmd.Stdin = strings.NewReader(content)
	return cmd.Run()
}

// fallbacks are tried in order when the platform clipboard is unsupported.
var fallbacks = []Command{
	{Name: "pbcopy"},
	{Name: "wl-copy"},
	{Name: "xclip", Args: []string{"-selection", "clipboard"}},
}

// New returns the platform clipboard, or the first available copy command
// when the platform has none. Returns nil if nothing is available.
func New() testplan.Clipboard {
	if !clipboard.Unsupported {
		return System{}
	}
	for _, c := range fallbacks {
		if _, err := exec.LookPath(c.Name); err == nil {
			return c
		}
	}
	return nil
}
