package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Run displays m full screen and blocks until the user exits or ctx is
// done. It returns the final model.
func Run(ctx context.Context, m tea.Model) (tea.Model, error) {
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	return p.Run()
}
