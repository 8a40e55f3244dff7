// Package lipgloss provides theme implementations using the Lipgloss styling library.
package lipgloss

import (
	"fmt"

	"github.com/fwojciec/testplan"
)

// Compile-time interface verification.
var _ testplan.Theme = (*Theme)(nil)

// Theme implements testplan.Theme with Lipgloss-compatible colors.
type Theme struct {
	name   string
	styles testplan.Styles
}

// Name returns the theme name ("dark" or "light").
func (t *Theme) Name() string {
	return t.name
}

// Styles returns the color styles for this theme.
func (t *Theme) Styles() testplan.Styles {
	return t.styles
}

// DefaultTheme returns the default theme (dark background optimized).
func DefaultTheme() *Theme {
	return DarkTheme()
}

// ByName returns the theme called name.
func ByName(name string) (*Theme, error) {
	switch name {
	case "", "dark":
		return DarkTheme(), nil
	case "light":
		return LightTheme(), nil
	default:
		return nil, fmt.Errorf("unknown theme %q", name)
	}
}

// DarkTheme returns a theme optimized for dark terminal backgrounds
// (Catppuccin Mocha).
func DarkTheme() *Theme {
	return &Theme{
		name: "dark",
		styles: testplan.Styles{
			Header: testplan.ColorPair{
				Foreground: "#f9e2af", // Yellow
				Background: "#313244", // Dark surface
			},
			Title: testplan.ColorPair{
				Foreground: "#cdd6f4",
			},
			Cursor: testplan.ColorPair{
				Foreground: "#1e1e2e", // Dark text on bright background
				Background: "#89b4fa", // Blue
			},
			Selected: testplan.ColorPair{
				Foreground: "#a6e3a1", // Green
			},
			Draft: testplan.ColorPair{
				Foreground: "#1e1e2e",
				Background: "#fab387", // Peach
			},
			Step: testplan.ColorPair{
				Foreground: "#bac2de",
			},
			Expected: testplan.ColorPair{
				Foreground: "#89dceb", // Sky
			},
			Muted: testplan.ColorPair{
				Foreground: "#6c7086", // Muted gray
			},
			Success: testplan.ColorPair{
				Foreground: "#a6e3a1",
				Background: "#004000", // Very dark green
			},
			Error: testplan.ColorPair{
				Foreground: "#f38ba8",
				Background: "#3f0001", // Very dark red
			},
			Info: testplan.ColorPair{
				Foreground: "#89b4fa",
				Background: "#1e2a44",
			},
			Warning: testplan.ColorPair{
				Foreground: "#f9e2af",
				Background: "#3f3000",
			},
		},
	}
}

// LightTheme returns a theme optimized for light terminal backgrounds
// (Catppuccin Latte).
func LightTheme() *Theme {
	return &Theme{
		name: "light",
		styles: testplan.Styles{
			Header: testplan.ColorPair{
				Foreground: "#df8e1d", // Yellow
				Background: "#e6e9ef", // Light surface
			},
			Title: testplan.ColorPair{
				Foreground: "#4c4f69",
			},
			Cursor: testplan.ColorPair{
				Foreground: "#ffffff", // White text on dark background
				Background: "#1e66f5", // Blue
			},
			Selected: testplan.ColorPair{
				Foreground: "#40a02b", // Green
			},
			Draft: testplan.ColorPair{
				Foreground: "#ffffff",
				Background: "#fe640b", // Peach
			},
			Step: testplan.ColorPair{
				Foreground: "#5c5f77",
			},
			Expected: testplan.ColorPair{
				Foreground: "#04a5e5", // Sky
			},
			Muted: testplan.ColorPair{
				Foreground: "#9ca0b0", // Muted gray for light theme
			},
			Success: testplan.ColorPair{
				Foreground: "#40a02b",
				Background: "#d4f4d4", // Subtle green background
			},
			Error: testplan.ColorPair{
				Foreground: "#d20f39",
				Background: "#f4d4d4", // Subtle red background
			},
			Info: testplan.ColorPair{
				Foreground: "#1e66f5",
				Background: "#dce6fb",
			},
			Warning: testplan.ColorPair{
				Foreground: "#df8e1d",
				Background: "#f8ecd4",
			},
		},
	}
}
