package bubbletea

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/testplan"
	"github.com/fwojciec/testplan/collection"
)

// Editor fields in focus order.
const (
	fieldTitle = iota
	fieldPreconditions
	fieldSteps
	fieldExpected
	fieldCount
)

// editor is the form for editing one test case. Steps are edited as text
// and re-parsed into structured steps when saved.
type editor struct {
	id            string
	draft         bool
	title         textinput.Model
	preconditions textinput.Model
	expected      textinput.Model
	steps         textarea.Model
	focus         int
	saving        bool
}

func newEditor(tc testplan.TestCase, width, height int) editor {
	newInput := func(placeholder, value string) textinput.Model {
		ti := textinput.New()
		ti.Placeholder = placeholder
		ti.Prompt = ""
		ti.SetValue(value)
		return ti
	}

	stepsText := tc.StepsText
	if stepsText == "" {
		stepsText = testplan.EncodeSteps(tc.Steps)
	}
	ta := textarea.New()
	ta.Placeholder = "1. Action\n   Expected: Result"
	ta.ShowLineNumbers = false
	ta.SetValue(stepsText)

	e := editor{
		id:            tc.ID,
		draft:         tc.IsDraft(),
		title:         newInput("Title", tc.Title),
		preconditions: newInput("Preconditions", tc.Preconditions),
		expected:      newInput("Expected result", tc.ExpectedResult),
		steps:         ta,
	}
	e.resize(width, height)
	e.title.Focus()
	return e
}

func (e *editor) resize(width, height int) {
	w := width - 4
	if w < 20 {
		w = 20
	}
	e.title.Width = w
	e.preconditions.Width = w
	e.expected.Width = w
	e.steps.SetWidth(w)
	h := height - 14
	if h < 3 {
		h = 3
	}
	e.steps.SetHeight(h)
}

// next moves focus to the following field, wrapping around.
func (e *editor) next(step int) tea.Cmd {
	e.blurAll()
	e.focus = (e.focus + step + fieldCount) % fieldCount
	switch e.focus {
	case fieldTitle:
		return e.title.Focus()
	case fieldPreconditions:
		return e.preconditions.Focus()
	case fieldSteps:
		return e.steps.Focus()
	default:
		return e.expected.Focus()
	}
}

func (e *editor) blurAll() {
	e.title.Blur()
	e.preconditions.Blur()
	e.steps.Blur()
	e.expected.Blur()
}

// fields returns the edited values as a partial update.
func (e editor) fields() collection.Fields {
	title := e.title.Value()
	pre := e.preconditions.Value()
	steps := e.steps.Value()
	expected := e.expected.Value()
	return collection.Fields{
		Title:          &title,
		Preconditions:  &pre,
		StepsText:      &steps,
		ExpectedResult: &expected,
	}
}

func (e editor) update(msg tea.Msg) (editor, tea.Cmd) {
	var cmd tea.Cmd
	switch e.focus {
	case fieldTitle:
		e.title, cmd = e.title.Update(msg)
	case fieldPreconditions:
		e.preconditions, cmd = e.preconditions.Update(msg)
	case fieldSteps:
		e.steps, cmd = e.steps.Update(msg)
	default:
		e.expected, cmd = e.expected.Update(msg)
	}
	return e, cmd
}

func (e editor) view(p palette, keys EditKeyMap, h help.Model) string {
	var b strings.Builder

	heading := "Edit test case"
	if e.draft {
		heading = "New test case"
	}
	b.WriteString(p.header.Render(" " + heading + " "))
	b.WriteString("\n\n")

	label := func(name string, field int) string {
		if e.focus == field {
			return p.cursor.Render(name)
		}
		return p.muted.Render(name)
	}
	b.WriteString(label("Title", fieldTitle) + "\n" + e.title.View() + "\n\n")
	b.WriteString(label("Preconditions", fieldPreconditions) + "\n" + e.preconditions.View() + "\n\n")
	b.WriteString(label("Steps", fieldSteps) + "\n" + e.steps.View() + "\n\n")
	b.WriteString(label("Expected result", fieldExpected) + "\n" + e.expected.View() + "\n\n")

	if e.saving {
		b.WriteString(p.muted.Render("Saving…"))
	} else {
		b.WriteString(h.View(keys))
	}
	return b.String()
}
