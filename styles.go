package testplan

// ColorPair represents a foreground and background color combination.
// Colors should be hex strings in "#RRGGBB" format (e.g., "#ff0000" for red).
// Empty strings are valid and indicate no color override (use terminal default).
type ColorPair struct {
	Foreground string
	Background string
}

// Styles contains color pairs for all visual elements of the plan review UI.
type Styles struct {
	Header   ColorPair // Plan header and page indicator
	Title    ColorPair // Test case titles
	Cursor   ColorPair // Row under the cursor
	Selected ColorPair // Selection marker
	Draft    ColorPair // Unsaved draft badge
	Step     ColorPair // Step actions
	Expected ColorPair // Expected results
	Muted    ColorPair // Secondary text and help

	Success ColorPair // Success notices
	Error   ColorPair // Error notices
	Info    ColorPair // Informational notices
	Warning ColorPair // Warning notices
}

// Notice returns the color pair for a notification kind.
func (s Styles) Notice(kind NotificationKind) ColorPair {
	switch kind {
	case KindSuccess:
		return s.Success
	case KindError:
		return s.Error
	case KindWarning:
		return s.Warning
	default:
		return s.Info
	}
}

// Theme provides styles for rendering the review UI.
// Different implementations can provide light/dark variants.
type Theme interface {
	Styles() Styles
}
