// Package browser opens work items in the user's web browser.
package browser

import (
	"github.com/fwojciec/testplan"
	"github.com/pkg/browser"
)

// Compile-time interface verification.
var _ testplan.URLOpener = (*Opener)(nil)

// Opener implements URLOpener with the system browser.
type Opener struct{}

// Open launches url in the default browser.
func (Opener) Open(u string) error {
	return browser.OpenURL(u)
}
