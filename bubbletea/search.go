package bubbletea

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/testplan"
	"github.com/fwojciec/testplan/generation"
	"github.com/fwojciec/testplan/notify"
	"github.com/fwojciec/testplan/search"
)

type (
	searchDoneMsg struct{ ticket search.Ticket }
	generatedMsg  struct {
		plan *generation.Plan
		err  error
	}
)

// GenerateOptions are passed with every generation started from search.
type GenerateOptions struct {
	UploadImmediately bool
	ProjectKey        string
	FolderID          string
}

// SearchModel lets the user find a story and generate its test plan. The
// model quits once the user accepts a generated plan; Plan returns it.
type SearchModel struct {
	ctx      context.Context
	session  *search.Session
	searcher testplan.StorySearcher
	workflow *generation.Workflow
	toast    *notify.Toast
	opts     GenerateOptions

	input     textinput.Model
	spinner   spinner.Model
	pal       palette
	cursor    int
	searching bool
	plan      *generation.Plan
	accepted  bool
	width     int
	ready     bool
}

// SearchModelOption configures a SearchModel.
type SearchModelOption func(*SearchModel)

// WithToast shows generation progress from t. t should also observe the
// workflow.
func WithToast(t *notify.Toast) SearchModelOption {
	return func(m *SearchModel) {
		m.toast = t
	}
}

// WithGenerateOptions sets the options sent with each generation.
func WithGenerateOptions(o GenerateOptions) SearchModelOption {
	return func(m *SearchModel) {
		m.opts = o
	}
}

// WithSearchTheme sets the theme and renderer.
func WithSearchTheme(t testplan.Theme, r *lipgloss.Renderer) SearchModelOption {
	return func(m *SearchModel) {
		styles := defaultStyles()
		if t != nil {
			styles = t.Styles()
		}
		m.pal = newPalette(styles, r)
	}
}

// NewSearchModel creates a SearchModel.
func NewSearchModel(ctx context.Context, session *search.Session, searcher testplan.StorySearcher, wf *generation.Workflow, opts ...SearchModelOption) SearchModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	ti := textinput.New()
	ti.Placeholder = "Search stories..."
	ti.Prompt = "/ "
	ti.Focus()

	m := SearchModel{
		ctx:      ctx,
		session:  session,
		searcher: searcher,
		workflow: wf,
		input:    ti,
		spinner:  sp,
		pal:      newPalette(defaultStyles(), nil),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Plan returns the plan the user accepted, if any.
func (m SearchModel) Plan() (*generation.Plan, bool) {
	if !m.accepted || m.plan == nil {
		return nil, false
	}
	return m.plan, true
}

// Init implements tea.Model.
func (m SearchModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, tick())
}

// Update implements tea.Model.
func (m SearchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(10, msg.Width-4)
		m.ready = true
		return m, nil

	case tickMsg:
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case searchDoneMsg:
		if m.session.Due(msg.ticket) {
			m.searching = false
		}
		return m, nil

	case generatedMsg:
		switch {
		case msg.err == nil:
			m.plan = msg.plan
		case errors.Is(msg.err, generation.ErrInFlight), errors.Is(msg.err, generation.ErrStale):
			// The running or newer attempt reports for itself.
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m SearchModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.workflow.State() == generation.StateGenerating {
		if msg.String() == "esc" {
			m.workflow.Clear()
			m.dismissToast()
		}
		return m, nil
	}

	if m.plan != nil {
		switch msg.String() {
		case "enter":
			m.accepted = true
			return m, tea.Quit
		case "esc":
			m.plan = nil
			m.workflow.Clear()
			m.dismissToast()
		}
		return m, nil
	}

	results, _ := m.session.Results()
	switch msg.String() {
	case "esc":
		return m, tea.Quit
	case "up":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down":
		if m.cursor < len(results)-1 {
			m.cursor++
		}
		return m, nil
	case "enter":
		if m.cursor < len(results) {
			story := results[m.cursor]
			m.session.Select(story)
			m.input.SetValue(story.Title)
			m.cursor = 0
			m.searching = false
			return m, m.generate(story)
		}
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if v := m.input.Value(); v != before {
		m.cursor = 0
		ticket, ok := m.session.Change(v)
		m.searching = ok
		if ok {
			cmd = tea.Batch(cmd, m.searchCmd(ticket))
		}
	}
	return m, cmd
}

func (m SearchModel) searchCmd(t search.Ticket) tea.Cmd {
	ctx, session, searcher := m.ctx, m.session, m.searcher
	return func() tea.Msg {
		session.Search(ctx, t, searcher)
		return searchDoneMsg{ticket: t}
	}
}

func (m SearchModel) generate(story testplan.Story) tea.Cmd {
	ctx, wf := m.ctx, m.workflow
	req := testplan.GenerateRequest{
		IssueKey:          story.Key,
		StoryTitle:        story.Title,
		UploadImmediately: m.opts.UploadImmediately,
		ProjectKey:        m.opts.ProjectKey,
		FolderID:          m.opts.FolderID,
	}
	return func() tea.Msg {
		plan, err := wf.Start(ctx, req)
		return generatedMsg{plan: plan, err: err}
	}
}

func (m SearchModel) dismissToast() {
	m.workflow.DismissToast()
	if m.toast != nil {
		m.toast.Dismiss()
	}
}

// View implements tea.Model.
func (m SearchModel) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.pal.header.Render(" Generate a test plan "))
	b.WriteString("\n\n")

	if m.toast != nil {
		if state, msg := m.toast.View(); state != notify.ToastHidden {
			b.WriteString(m.pal.notice(toastKind(state)).Render(msg))
			b.WriteString("\n\n")
		}
	}

	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	snap := m.workflow.Snapshot()
	switch {
	case snap.State == generation.StateGenerating:
		fmt.Fprintf(&b, "%s %s %s\n", m.spinner.View(), snap.Progress, m.pal.muted.Render(snap.CurrentIssueKey+" "+snap.CurrentStory))
		b.WriteString("\n" + m.pal.muted.Render("esc: abandon"))
		return b.String()
	case m.plan != nil:
		n := len(m.plan.TestCases)
		fmt.Fprintf(&b, "Generated %d test case%s for %s.\n", n, pluralS(n), m.plan.IssueKey)
		if up := m.plan.Upload; up != nil {
			fmt.Fprintf(&b, "Uploaded %d test case%s.\n", up.Count, pluralS(up.Count))
		}
		b.WriteString("\n" + m.pal.muted.Render("enter: review  esc: search again"))
		return b.String()
	case snap.Err != "":
		b.WriteString(m.pal.notice(testplan.KindError).Render(snap.Err))
		b.WriteString("\n\n")
	}

	results, err := m.session.Results()
	switch {
	case m.searching:
		b.WriteString(m.spinner.View() + " Searching...\n")
	case err != nil:
		b.WriteString(m.pal.notice(testplan.KindError).Render("Search failed: " + err.Error()))
		b.WriteString("\n")
	case len(results) == 0 && strings.TrimSpace(m.input.Value()) != "":
		b.WriteString(m.pal.muted.Render("No stories found."))
		b.WriteString("\n")
	}
	for i, s := range results {
		line := fmt.Sprintf("%s  %s", s.Key, s.Title)
		if i == m.cursor {
			b.WriteString(m.pal.cursor.Render("› " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n" + m.pal.muted.Render("↑/↓: choose  enter: generate  esc: quit"))
	return b.String()
}

func toastKind(s notify.ToastState) testplan.NotificationKind {
	switch s {
	case notify.ToastCompleted:
		return testplan.KindSuccess
	case notify.ToastFailed:
		return testplan.KindError
	default:
		return testplan.KindInfo
	}
}
