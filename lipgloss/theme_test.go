package lipgloss_test

import (
	"regexp"
	"testing"

	"github.com/fwojciec/testplan"
	"github.com/fwojciec/testplan/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hexColor = regexp.MustCompile(`^#[0-9a-f]{6}$`)

func allPairs(s testplan.Styles) map[string]testplan.ColorPair {
	return map[string]testplan.ColorPair{
		"Header":   s.Header,
		"Title":    s.Title,
		"Cursor":   s.Cursor,
		"Selected": s.Selected,
		"Draft":    s.Draft,
		"Step":     s.Step,
		"Expected": s.Expected,
		"Muted":    s.Muted,
		"Success":  s.Success,
		"Error":    s.Error,
		"Info":     s.Info,
		"Warning":  s.Warning,
	}
}

func TestDefaultTheme(t *testing.T) {
	t.Parallel()

	t.Run("implements Theme interface", func(t *testing.T) {
		t.Parallel()

		var _ testplan.Theme = lipgloss.DefaultTheme()
	})

	t.Run("returns same styles as DarkTheme", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, lipgloss.DarkTheme().Styles(), lipgloss.DefaultTheme().Styles())
	})
}

func TestThemes_EveryElementHasValidForeground(t *testing.T) {
	t.Parallel()

	for _, theme := range []*lipgloss.Theme{lipgloss.DarkTheme(), lipgloss.LightTheme()} {
		t.Run(theme.Name(), func(t *testing.T) {
			t.Parallel()

			for name, pair := range allPairs(theme.Styles()) {
				assert.Regexp(t, hexColor, pair.Foreground, "%s foreground", name)
				if pair.Background != "" {
					assert.Regexp(t, hexColor, pair.Background, "%s background", name)
				}
			}
		})
	}
}

func TestThemes_NoticesHaveBackgrounds(t *testing.T) {
	t.Parallel()

	for _, theme := range []*lipgloss.Theme{lipgloss.DarkTheme(), lipgloss.LightTheme()} {
		styles := theme.Styles()
		for _, kind := range []testplan.NotificationKind{testplan.KindSuccess, testplan.KindError, testplan.KindInfo, testplan.KindWarning} {
			assert.NotEmpty(t, styles.Notice(kind).Background, "%s %s", theme.Name(), kind)
		}
	}
}

func TestLightTheme_DiffersFromDark(t *testing.T) {
	t.Parallel()

	assert.NotEqual(t, lipgloss.DarkTheme().Styles(), lipgloss.LightTheme().Styles())
}

func TestByName(t *testing.T) {
	t.Parallel()

	dark, err := lipgloss.ByName("dark")
	require.NoError(t, err)
	assert.Equal(t, "dark", dark.Name())

	def, err := lipgloss.ByName("")
	require.NoError(t, err)
	assert.Equal(t, "dark", def.Name())

	light, err := lipgloss.ByName("light")
	require.NoError(t, err)
	assert.Equal(t, "light", light.Name())

	_, err = lipgloss.ByName("neon")
	assert.Error(t, err)
}
