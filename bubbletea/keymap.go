package bubbletea

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings for the plan review screen.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	NextPage key.Binding
	PrevPage key.Binding

	Select    key.Binding
	SelectAll key.Binding
	Expand    key.Binding
	ExpandAll key.Binding

	New            key.Binding
	Edit           key.Binding
	Delete         key.Binding
	DeleteSelected key.Binding
	Undo           key.Binding

	Upload         key.Binding
	UploadSelected key.Binding
	UploadCycle    key.Binding

	Copy    key.Binding
	Open    key.Binding
	Dismiss key.Binding
	Help    key.Binding
	Quit    key.Binding
}

// DefaultKeyMap returns the default vim-style key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("]", "right", "l"),
			key.WithHelp("]", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("[", "left", "h"),
			key.WithHelp("[", "previous page"),
		),
		Select: key.NewBinding(
			key.WithKeys("x", " "),
			key.WithHelp("x/space", "select"),
		),
		SelectAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "select all/none"),
		),
		Expand: key.NewBinding(
			key.WithKeys("enter", "tab"),
			key.WithHelp("enter", "expand"),
		),
		ExpandAll: key.NewBinding(
			key.WithKeys("z"),
			key.WithHelp("z", "expand all/none"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new test case"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		DeleteSelected: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "delete selected"),
		),
		Undo: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "undo"),
		),
		Upload: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "upload"),
		),
		UploadSelected: key.NewBinding(
			key.WithKeys("P"),
			key.WithHelp("P", "upload selected"),
		),
		UploadCycle: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "upload selected to cycle"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy"),
		),
		Open: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open issue"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "dismiss notice"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns key bindings to be shown in the mini help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.Expand, k.Edit, k.Delete, k.Undo, k.Upload, k.Help, k.Quit}
}

// FullHelp returns key bindings for the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.NextPage, k.PrevPage},
		{k.Select, k.SelectAll, k.Expand, k.ExpandAll},
		{k.New, k.Edit, k.Delete, k.DeleteSelected, k.Undo},
		{k.Upload, k.UploadSelected, k.UploadCycle},
		{k.Copy, k.Open, k.Dismiss, k.Help, k.Quit},
	}
}

// EditKeyMap defines the key bindings while editing a test case.
type EditKeyMap struct {
	Save      key.Binding
	Cancel    key.Binding
	NextField key.Binding
}

// DefaultEditKeyMap returns the default editor key bindings.
func DefaultEditKeyMap() EditKeyMap {
	return EditKeyMap{
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "shift+tab"),
			key.WithHelp("tab", "switch field"),
		),
	}
}

// ShortHelp returns key bindings to be shown in the mini help view.
func (k EditKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Save, k.Cancel, k.NextField}
}

// FullHelp returns key bindings for the expanded help view.
func (k EditKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
