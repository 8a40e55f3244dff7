package bubbletea

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/testplan"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

const (
	tabWidth   = 8
	bodyIndent = 6
)

// ExpandTabs converts tab characters to spaces using 8-column tab stops.
// startCol is the column the string begins at.
func ExpandTabs(s string, startCol int) string {
	if !strings.Contains(s, "\t") {
		return s
	}

	var sb strings.Builder
	col := startCol
	for _, r := range s {
		switch r {
		case '\t':
			next := ((col / tabWidth) + 1) * tabWidth
			sb.WriteString(strings.Repeat(" ", next-col))
			col = next
		case '\n':
			sb.WriteRune(r)
			col = startCol
		default:
			sb.WriteRune(r)
			col += lipgloss.Width(string(r))
		}
	}
	return sb.String()
}

// wrapIndented word-wraps s to fit width after indenting it by n columns.
func wrapIndented(s string, width, n int) string {
	s = ExpandTabs(s, 0)
	if avail := width - n; avail > 10 {
		s = wordwrap.String(s, avail)
	}
	return indent.String(s, uint(n))
}

// styleFromColorPair creates a lipgloss style from a ColorPair.
// If renderer is nil, the default lipgloss renderer is used.
func styleFromColorPair(cp testplan.ColorPair, renderer *lipgloss.Renderer) lipgloss.Style {
	var style lipgloss.Style
	if renderer != nil {
		style = renderer.NewStyle()
	} else {
		style = lipgloss.NewStyle()
	}
	if cp.Foreground != "" {
		style = style.Foreground(lipgloss.Color(cp.Foreground))
	}
	if cp.Background != "" {
		style = style.Background(lipgloss.Color(cp.Background))
	}
	return style
}

// palette holds the lipgloss styles derived from a theme.
type palette struct {
	header   lipgloss.Style
	title    lipgloss.Style
	cursor   lipgloss.Style
	selected lipgloss.Style
	draft    lipgloss.Style
	step     lipgloss.Style
	expected lipgloss.Style
	muted    lipgloss.Style
	styles   testplan.Styles
	renderer *lipgloss.Renderer
}

func newPalette(styles testplan.Styles, r *lipgloss.Renderer) palette {
	return palette{
		header:   styleFromColorPair(styles.Header, r).Bold(true),
		title:    styleFromColorPair(styles.Title, r),
		cursor:   styleFromColorPair(styles.Cursor, r).Bold(true),
		selected: styleFromColorPair(styles.Selected, r),
		draft:    styleFromColorPair(styles.Draft, r),
		step:     styleFromColorPair(styles.Step, r),
		expected: styleFromColorPair(styles.Expected, r),
		muted:    styleFromColorPair(styles.Muted, r),
		styles:   styles,
		renderer: r,
	}
}

func (p palette) notice(kind testplan.NotificationKind) lipgloss.Style {
	return styleFromColorPair(p.styles.Notice(kind), p.renderer).Padding(0, 1)
}

// cardState is per-card UI state that does not live on the test case.
type cardState struct {
	cursor    bool
	uploading bool
}

// renderCard renders one test case. Collapsed cards are a single line.
func renderCard(tc testplan.TestCase, st cardState, p palette, width int) string {
	var b strings.Builder

	pointer := "  "
	if st.cursor {
		pointer = "› "
	}
	mark := p.muted.Render("[ ]")
	if tc.Selected {
		mark = p.selected.Render("[x]")
	}
	chevron := "▸"
	if tc.Expanded {
		chevron = "▾"
	}

	title := tc.Title
	if strings.TrimSpace(title) == "" {
		title = "(untitled)"
	}
	titleStyle := p.title
	if st.cursor {
		titleStyle = p.cursor
	}

	fmt.Fprintf(&b, "%s%s %s %s", pointer, mark, chevron, titleStyle.Render(title))
	if tc.ID != "" && !tc.IsDraft() {
		b.WriteString("  " + p.muted.Render(tc.ID))
	}
	if tc.IsDraft() {
		b.WriteString("  " + p.draft.Render(" DRAFT "))
	}
	if st.uploading {
		b.WriteString("  " + p.muted.Render("uploading…"))
	}
	b.WriteString("\n")

	if !tc.Expanded {
		return b.String()
	}

	if tc.Description != "" {
		b.WriteString(wrapIndented(tc.Description, width, bodyIndent))
		b.WriteString("\n")
	}
	if meta := metaLine(tc); meta != "" {
		b.WriteString(p.muted.Render(wrapIndented(meta, width, bodyIndent)))
		b.WriteString("\n")
	}
	if tc.Preconditions != "" {
		b.WriteString(wrapIndented("Preconditions: "+tc.Preconditions, width, bodyIndent))
		b.WriteString("\n")
	}
	for i, s := range tc.Steps {
		n := s.Number
		if n == 0 {
			n = i + 1
		}
		b.WriteString(p.step.Render(wrapIndented(fmt.Sprintf("%d. %s", n, s.Action), width, bodyIndent)))
		b.WriteString("\n")
		if s.ExpectedResult != "" {
			b.WriteString(p.expected.Render(wrapIndented("Expected: "+s.ExpectedResult, width, bodyIndent+3)))
			b.WriteString("\n")
		}
		if s.TestData != "" {
			b.WriteString(p.muted.Render(wrapIndented("Data: "+s.TestData, width, bodyIndent+3)))
			b.WriteString("\n")
		}
	}
	if tc.ExpectedResult != "" {
		b.WriteString(p.expected.Render(wrapIndented("Expected result: "+tc.ExpectedResult, width, bodyIndent)))
		b.WriteString("\n")
	}
	return b.String()
}

func metaLine(tc testplan.TestCase) string {
	var parts []string
	if tc.Priority != "" {
		parts = append(parts, "Priority: "+tc.Priority)
	}
	if tc.TestType != "" {
		parts = append(parts, "Type: "+tc.TestType)
	}
	if len(tc.Tags) > 0 {
		parts = append(parts, "Tags: "+strings.Join(tc.Tags, ", "))
	}
	return strings.Join(parts, " · ")
}

// renderNotices renders queued notifications, oldest first.
func renderNotices(list []noticeView, p palette) string {
	if len(list) == 0 {
		return ""
	}
	lines := make([]string, 0, len(list))
	for _, n := range list {
		msg := n.message
		if n.undoable {
			msg += "  (u: undo)"
		}
		lines = append(lines, p.notice(n.kind).Render(msg))
	}
	return strings.Join(lines, "\n")
}

// noticeView is the renderable part of a notification.
type noticeView struct {
	message  string
	kind     testplan.NotificationKind
	undoable bool
}
