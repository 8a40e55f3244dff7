package bubbletea

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/testplan"
	"github.com/fwojciec/testplan/upload"
)

// cycleForm drives an upload.Wizard. The wizard is not touched while
// folders load or the upload runs, since both happen off the UI loop.
type cycleForm struct {
	wizard     *upload.Wizard
	name       textinput.Model
	path       textinput.Model
	filter     textinput.Model
	pathFocus  bool
	folderIdx  int
	loading    bool
	submitting bool
	err        string
}

func newCycleForm(w *upload.Wizard) *cycleForm {
	name := textinput.New()
	name.Prompt = ""
	name.SetValue(w.CycleName())
	name.Focus()

	path := textinput.New()
	path.Prompt = ""
	path.Placeholder = "Regression/Sprint 12"

	filter := textinput.New()
	filter.Prompt = "/ "
	filter.Placeholder = "filter folders"

	return &cycleForm{
		wizard:  w,
		name:    name,
		path:    path,
		filter:  filter,
		loading: true,
	}
}

// loaded is called once folders are listed.
func (f *cycleForm) loaded() {
	f.loading = false
	if f.wizard.Option() == upload.FolderCreate {
		f.focusPath(false)
	}
}

// cycleOption moves to the next folder option the wizard can offer.
func (f *cycleForm) cycleOption() {
	order := []upload.FolderOption{upload.FolderLatest, upload.FolderSelect, upload.FolderCreate}
	cur := 0
	for i, o := range order {
		if o == f.wizard.Option() {
			cur = i
		}
	}
	for step := 1; step <= len(order); step++ {
		next := order[(cur+step)%len(order)]
		if err := f.wizard.SetOption(next); err == nil {
			break
		}
	}
	f.folderIdx = 0
	if f.wizard.Option() == upload.FolderSelect {
		f.filter.Focus()
		f.name.Blur()
		f.path.Blur()
		f.syncSelection()
		return
	}
	f.filter.Blur()
	f.focusPath(false)
}

func (f *cycleForm) focusPath(v bool) {
	f.pathFocus = v
	if v {
		f.name.Blur()
		f.path.Focus()
		return
	}
	f.path.Blur()
	f.name.Focus()
}

// moveFolder moves the highlighted folder in the filtered list.
func (f *cycleForm) moveFolder(delta int) {
	folders := f.wizard.Filtered()
	if len(folders) == 0 {
		return
	}
	f.folderIdx = max(0, min(len(folders)-1, f.folderIdx+delta))
	f.syncSelection()
}

func (f *cycleForm) syncSelection() {
	folders := f.wizard.Filtered()
	if len(folders) == 0 {
		return
	}
	f.folderIdx = min(f.folderIdx, len(folders)-1)
	_ = f.wizard.SelectFolder(folders[f.folderIdx].ID)
}

// commit copies the text inputs into the wizard and validates it.
func (f *cycleForm) commit() error {
	f.wizard.SetCycleName(f.name.Value())
	f.wizard.SetCustomPath(f.path.Value())
	if err := f.wizard.Validate(); err != nil {
		f.err = err.Error()
		return err
	}
	f.err = ""
	return nil
}

func (f *cycleForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch {
	case f.wizard.Option() == upload.FolderSelect && f.filter.Focused():
		before := f.filter.Value()
		f.filter, cmd = f.filter.Update(msg)
		if f.filter.Value() != before {
			f.wizard.SetSearch(f.filter.Value())
			f.folderIdx = 0
			f.syncSelection()
		}
	case f.pathFocus:
		f.path, cmd = f.path.Update(msg)
	default:
		f.name, cmd = f.name.Update(msg)
	}
	return cmd
}

func (f *cycleForm) view(p palette) string {
	var b strings.Builder
	b.WriteString(p.header.Render(" Upload to test cycle "))
	b.WriteString("\n\n")

	if f.loading {
		b.WriteString(p.muted.Render("Loading folders…"))
		return b.String()
	}
	if f.submitting {
		b.WriteString(p.muted.Render("Uploading…"))
		return b.String()
	}

	fmt.Fprintf(&b, "%d test case%s selected\n\n", len(f.wizard.Cases()), pluralS(len(f.wizard.Cases())))
	if msg := f.wizard.LoadError(); msg != "" {
		b.WriteString(p.notice(testplan.KindWarning).Render(msg))
		b.WriteString("\n\n")
	}

	b.WriteString(p.muted.Render("Cycle name") + "\n" + f.name.View() + "\n\n")

	option := func(o upload.FolderOption, label string) string {
		mark := "( )"
		if f.wizard.Option() == o {
			mark = "(•)"
		}
		return mark + " " + label
	}

	latest := "Latest folder"
	if l, ok := f.wizard.Latest(); ok {
		latest += ": " + l.Path
	}
	b.WriteString(p.muted.Render("Folder") + "\n")
	b.WriteString(option(upload.FolderLatest, latest) + "\n")
	b.WriteString(option(upload.FolderSelect, "Choose a folder") + "\n")
	if f.wizard.Option() == upload.FolderSelect {
		b.WriteString("    " + f.filter.View() + "\n")
		for i, folder := range f.wizard.Filtered() {
			line := "    " + folder.Path
			if folder.ID == f.wizard.SelectedFolderID() && i == f.folderIdx {
				line = p.cursor.Render(line)
			}
			b.WriteString(line + "\n")
		}
	}
	b.WriteString(option(upload.FolderCreate, "Create a new folder") + "\n")
	if f.wizard.Option() == upload.FolderCreate {
		b.WriteString("    " + f.path.View() + "\n")
	}

	if f.err != "" {
		b.WriteString("\n" + p.notice(testplan.KindError).Render(f.err) + "\n")
	} else if msg := f.wizard.Err(); msg != "" {
		b.WriteString("\n" + p.notice(testplan.KindError).Render(msg) + "\n")
	}

	b.WriteString("\n" + p.muted.Render("tab: folder option  ↑/↓: move  enter: upload  esc: cancel"))
	return b.String()
}

func pluralS(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
