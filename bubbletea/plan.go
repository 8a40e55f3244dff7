// Package bubbletea provides the terminal UI for reviewing test plans using
// the Bubble Tea framework.
package bubbletea

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/testplan"
	"github.com/fwojciec/testplan/collection"
	"github.com/fwojciec/testplan/notify"
	"github.com/fwojciec/testplan/upload"
)

// tickInterval is how often the screen refreshes so expiring notices and
// background results show up without a key press.
const tickInterval = 250 * time.Millisecond

type mode int

const (
	modeBrowse mode = iota
	modeEdit
	modeConfirm
	modeCycle
)

type (
	tickMsg   time.Time
	opDoneMsg struct{ err error }
	savedMsg  struct{ err error }
	folderMsg struct{ form *cycleForm }
	cycleMsg  struct{ err error }
)

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// PlanModel is the Bubble Tea model for reviewing one test plan. Server
// calls run as commands off the UI loop; the collection, notification
// center and upload coordinator are safe for that.
type PlanModel struct {
	ctx       context.Context
	coll      *collection.Collection
	center    *notify.Center
	uploader  *upload.Coordinator
	folders   testplan.FolderClient
	clipboard testplan.Clipboard
	opener    testplan.URLOpener
	browseURL string

	keymap   KeyMap
	editKeys EditKeyMap
	help     help.Model
	showHelp bool
	pal      palette

	mode       mode
	cursor     int
	editor     editor
	confirmIDs []string
	confirmOne *testplan.TestCase // single delete awaiting confirmation
	cycle      *cycleForm

	width, height int
	ready         bool
}

// PlanModelOption configures a PlanModel.
type PlanModelOption func(*planModelConfig)

type planModelConfig struct {
	renderer  *lipgloss.Renderer
	theme     testplan.Theme
	uploader  *upload.Coordinator
	folders   testplan.FolderClient
	clipboard testplan.Clipboard
	opener    testplan.URLOpener
	browseURL string
}

// WithRenderer sets a custom lipgloss renderer for the model.
func WithRenderer(r *lipgloss.Renderer) PlanModelOption {
	return func(cfg *planModelConfig) {
		cfg.renderer = r
	}
}

// WithTheme sets the theme for the model.
func WithTheme(t testplan.Theme) PlanModelOption {
	return func(cfg *planModelConfig) {
		cfg.theme = t
	}
}

// WithUploader enables uploading to the test-management system. folders
// is used by the cycle upload and may be nil to disable it.
func WithUploader(u *upload.Coordinator, folders testplan.FolderClient) PlanModelOption {
	return func(cfg *planModelConfig) {
		cfg.uploader = u
		cfg.folders = folders
	}
}

// WithClipboard enables copying test cases.
func WithClipboard(c testplan.Clipboard) PlanModelOption {
	return func(cfg *planModelConfig) {
		cfg.clipboard = c
	}
}

// WithOpener enables opening the issue at browseURL.
func WithOpener(o testplan.URLOpener, browseURL string) PlanModelOption {
	return func(cfg *planModelConfig) {
		cfg.opener = o
		cfg.browseURL = browseURL
	}
}

// NewPlanModel creates a PlanModel over coll. Notices from coll and the
// uploader must be sent to center for them to appear.
func NewPlanModel(ctx context.Context, coll *collection.Collection, center *notify.Center, opts ...PlanModelOption) PlanModel {
	cfg := &planModelConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	var styles testplan.Styles
	if cfg.theme != nil {
		styles = cfg.theme.Styles()
	} else {
		styles = defaultStyles()
	}

	return PlanModel{
		ctx:       ctx,
		coll:      coll,
		center:    center,
		uploader:  cfg.uploader,
		folders:   cfg.folders,
		clipboard: cfg.clipboard,
		opener:    cfg.opener,
		browseURL: cfg.browseURL,
		keymap:    DefaultKeyMap(),
		editKeys:  DefaultEditKeyMap(),
		help:      help.New(),
		pal:       newPalette(styles, cfg.renderer),
	}
}

// defaultStyles returns a minimal monochrome style set used without a theme.
func defaultStyles() testplan.Styles {
	return testplan.Styles{}
}

// Init implements tea.Model.
func (m PlanModel) Init() tea.Cmd {
	return tick()
}

// Update implements tea.Model.
func (m PlanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if m.mode == modeEdit {
			m.editor.resize(msg.Width, msg.Height)
		}
		m.ready = true
		return m, nil

	case tickMsg:
		return m, tick()

	case opDoneMsg:
		m.clampCursor()
		return m, nil

	case savedMsg:
		m.editor.saving = false
		if collection.IsValidation(msg.err) {
			return m, nil
		}
		m.mode = modeBrowse
		m.clampCursor()
		return m, nil

	case folderMsg:
		if m.cycle == msg.form {
			m.cycle.loaded()
		}
		return m, nil

	case cycleMsg:
		if m.cycle == nil {
			return m, nil
		}
		m.cycle.submitting = false
		if msg.err == nil {
			m.cycle = nil
			m.mode = modeBrowse
			m.clampCursor()
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeEdit:
			return m.updateEdit(msg)
		case modeConfirm:
			return m.updateConfirm(msg)
		case modeCycle:
			return m.updateCycle(msg)
		default:
			return m.updateBrowse(msg)
		}
	}

	// Cursor blink and similar component messages.
	switch m.mode {
	case modeEdit:
		var cmd tea.Cmd
		m.editor, cmd = m.editor.update(msg)
		return m, cmd
	case modeCycle:
		if m.cycle != nil && !m.cycle.loading && !m.cycle.submitting {
			return m, m.cycle.update(msg)
		}
	}
	return m, nil
}

// run executes fn as a command and reports back with opDoneMsg.
func (m PlanModel) run(fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{err: fn(ctx)}
	}
}

func (m PlanModel) current() (testplan.TestCase, bool) {
	visible := m.coll.Visible()
	if m.cursor < 0 || m.cursor >= len(visible) {
		return testplan.TestCase{}, false
	}
	return visible[m.cursor], true
}

func (m *PlanModel) clampCursor() {
	n := len(m.coll.Visible())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m PlanModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	coll := m.coll
	current, ok := m.current()

	switch {
	case key.Matches(msg, m.keymap.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keymap.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
	case key.Matches(msg, m.keymap.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keymap.Down):
		if m.cursor < len(coll.Visible())-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keymap.NextPage):
		if coll.GoToPage(coll.Page() + 1) {
			m.cursor = 0
		}
	case key.Matches(msg, m.keymap.PrevPage):
		if coll.GoToPage(coll.Page() - 1) {
			m.cursor = 0
		}
	case key.Matches(msg, m.keymap.Select):
		if ok {
			coll.ToggleSelect(current.ID)
		}
	case key.Matches(msg, m.keymap.SelectAll):
		if coll.AllSelected() {
			coll.UnselectAll()
		} else {
			coll.SelectAll()
		}
	case key.Matches(msg, m.keymap.Expand):
		if ok {
			coll.ToggleExpand(current.ID)
		}
	case key.Matches(msg, m.keymap.ExpandAll):
		coll.ToggleExpandAll()
	case key.Matches(msg, m.keymap.New):
		draft := coll.AddDraft()
		m.cursor = 0
		return m.startEdit(draft)
	case key.Matches(msg, m.keymap.Edit):
		if ok {
			return m.startEdit(current)
		}
	case key.Matches(msg, m.keymap.Delete):
		if ok {
			tc := current
			m.confirmOne = &tc
			m.mode = modeConfirm
		}
	case key.Matches(msg, m.keymap.DeleteSelected):
		ids := coll.SelectedIDs()
		if len(ids) == 0 {
			// Reports "nothing selected" without a server call.
			_, _ = coll.BulkRemove(m.ctx, nil)
			return m, nil
		}
		m.confirmIDs = ids
		m.mode = modeConfirm
	case key.Matches(msg, m.keymap.Undo):
		id, found := m.center.LatestUndoable()
		if !found {
			m.center.Notify("Nothing to undo.", testplan.KindInfo, nil)
			return m, nil
		}
		center := m.center
		return m, m.run(func(context.Context) error {
			center.InvokeUndo(id)
			return nil
		})
	case key.Matches(msg, m.keymap.Upload):
		if m.uploader == nil {
			m.center.Notify("Uploading is not configured.", testplan.KindError, nil)
			return m, nil
		}
		if ok {
			up, id := m.uploader, current.ID
			return m, m.run(func(ctx context.Context) error {
				_, err := up.UploadOne(ctx, id)
				return err
			})
		}
	case key.Matches(msg, m.keymap.UploadSelected):
		if m.uploader == nil {
			m.center.Notify("Uploading is not configured.", testplan.KindError, nil)
			return m, nil
		}
		up := m.uploader
		return m, m.run(func(ctx context.Context) error {
			_, err := up.UploadMany(ctx)
			return err
		})
	case key.Matches(msg, m.keymap.UploadCycle):
		return m.startCycle()
	case key.Matches(msg, m.keymap.Copy):
		if ok {
			m.copyCase(current)
		}
	case key.Matches(msg, m.keymap.Open):
		m.openIssue()
	case key.Matches(msg, m.keymap.Dismiss):
		if list := m.center.List(); len(list) > 0 {
			m.center.Dismiss(list[len(list)-1].ID)
		}
	}
	return m, nil
}

func (m PlanModel) startEdit(tc testplan.TestCase) (tea.Model, tea.Cmd) {
	m.editor = newEditor(tc, m.width, m.height)
	m.mode = modeEdit
	return m, nil
}

func (m PlanModel) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editor.saving {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.editKeys.Cancel):
		m.mode = modeBrowse
		m.clampCursor()
		return m, nil
	case key.Matches(msg, m.editKeys.Save):
		m.editor.saving = true
		coll, id, fields := m.coll, m.editor.id, m.editor.fields()
		ctx := m.ctx
		return m, func() tea.Msg {
			return savedMsg{err: coll.Update(ctx, id, fields)}
		}
	case key.Matches(msg, m.editKeys.NextField):
		step := 1
		if msg.String() == "shift+tab" {
			step = -1
		}
		return m, m.editor.next(step)
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.update(msg)
	return m, cmd
}

func (m PlanModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		coll, ids, one := m.coll, m.confirmIDs, m.confirmOne
		m.confirmIDs, m.confirmOne = nil, nil
		m.mode = modeBrowse
		if one != nil {
			id := one.ID
			return m, m.run(func(ctx context.Context) error { return coll.Remove(ctx, id) })
		}
		return m, m.run(func(ctx context.Context) error {
			_, err := coll.BulkRemove(ctx, ids)
			return err
		})
	case "n", "N", "esc", "q":
		m.confirmIDs, m.confirmOne = nil, nil
		m.mode = modeBrowse
	}
	return m, nil
}

func (m PlanModel) startCycle() (tea.Model, tea.Cmd) {
	if m.uploader == nil || m.folders == nil {
		m.center.Notify("Uploading is not configured.", testplan.KindError, nil)
		return m, nil
	}
	selected := m.coll.Selected()
	if len(selected) == 0 {
		m.center.Notify("No test cases selected for upload.", testplan.KindError, nil)
		return m, nil
	}

	form := newCycleForm(upload.NewWizard(m.coll.IssueKey(), m.coll.ProjectKey(), selected))
	m.cycle = form
	m.mode = modeCycle
	ctx, folders := m.ctx, m.folders
	return m, func() tea.Msg {
		// The listing error is kept on the wizard for display.
		_ = form.wizard.LoadFolders(ctx, folders)
		return folderMsg{form: form}
	}
}

func (m PlanModel) updateCycle(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.cycle
	if f == nil || f.submitting {
		return m, nil
	}
	if msg.String() == "esc" {
		m.cycle = nil
		m.mode = modeBrowse
		return m, nil
	}
	if f.loading {
		return m, nil
	}

	switch msg.String() {
	case "tab":
		f.cycleOption()
		return m, nil
	case "up", "down":
		delta := 1
		if msg.String() == "up" {
			delta = -1
		}
		switch f.wizard.Option() {
		case upload.FolderSelect:
			f.moveFolder(delta)
		case upload.FolderCreate:
			f.focusPath(!f.pathFocus)
		}
		return m, nil
	case "enter":
		if err := f.commit(); err != nil {
			return m, nil
		}
		f.submitting = true
		ctx, up := m.ctx, m.uploader
		return m, func() tea.Msg {
			_, err := f.wizard.Submit(ctx, up)
			return cycleMsg{err: err}
		}
	}
	return m, f.update(msg)
}

func (m PlanModel) copyCase(tc testplan.TestCase) {
	if m.clipboard == nil {
		m.center.Notify("Clipboard is not available.", testplan.KindError, nil)
		return
	}
	if err := m.clipboard.Copy(tc.PlainText()); err != nil {
		m.center.Notify("Failed to copy test case.", testplan.KindError, nil)
		return
	}
	m.center.Notify(fmt.Sprintf("Copied %q to clipboard.", tc.Title), testplan.KindSuccess, nil)
}

func (m PlanModel) openIssue() {
	url := testplan.IssueURL(m.browseURL, m.coll.IssueKey())
	if m.opener == nil || url == "" {
		m.center.Notify("No browse URL configured.", testplan.KindError, nil)
		return
	}
	if err := m.opener.Open(url); err != nil {
		m.center.Notify("Failed to open browser.", testplan.KindError, nil)
	}
}

// View implements tea.Model.
func (m PlanModel) View() string {
	if !m.ready {
		return "Loading..."
	}

	switch m.mode {
	case modeEdit:
		return lipgloss.JoinVertical(lipgloss.Left, m.editor.view(m.pal, m.editKeys, m.help), m.noticesView())
	case modeCycle:
		if m.cycle != nil {
			return lipgloss.JoinVertical(lipgloss.Left, m.cycle.view(m.pal), m.noticesView())
		}
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n\n")

	visible := m.coll.Visible()
	if len(visible) == 0 {
		b.WriteString(m.pal.muted.Render("  No test cases. Press n to add one."))
		b.WriteString("\n")
	}
	for i, tc := range visible {
		st := cardState{cursor: i == m.cursor}
		if m.uploader != nil {
			st.uploading = m.uploader.Uploading(tc.ID)
		}
		b.WriteString(renderCard(tc, st, m.pal, m.width))
	}

	if m.mode == modeConfirm {
		prompt := fmt.Sprintf("Delete %d selected test case%s? (y/n)", len(m.confirmIDs), pluralS(len(m.confirmIDs)))
		if m.confirmOne != nil {
			prompt = fmt.Sprintf("Delete test case %q? (y/n)", m.confirmOne.Title)
		}
		b.WriteString("\n")
		b.WriteString(m.pal.notice(testplan.KindWarning).Render(prompt))
		b.WriteString("\n")
	}

	if notices := m.noticesView(); notices != "" {
		b.WriteString("\n")
		b.WriteString(notices)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keymap))
	return b.String()
}

func (m PlanModel) headerView() string {
	n := m.coll.Len()
	parts := []string{
		m.coll.IssueKey(),
		fmt.Sprintf("%d test case%s", n, pluralS(n)),
	}
	if sel := m.coll.SelectedCount(); sel > 0 {
		parts = append(parts, fmt.Sprintf("%d selected", sel))
	}
	parts = append(parts, fmt.Sprintf("page %d/%d", m.coll.Page(), m.coll.PageCount()))
	return m.pal.header.Render(" " + strings.Join(parts, " · ") + " ")
}

func (m PlanModel) noticesView() string {
	list := m.center.List()
	views := make([]noticeView, len(list))
	for i, n := range list {
		views[i] = noticeView{message: n.Message, kind: n.Kind, undoable: n.Undoable}
	}
	return renderNotices(views, m.pal)
}
