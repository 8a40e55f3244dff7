package bubbletea_test

import (
	"io"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/testplan"
	"github.com/fwojciec/testplan/bubbletea"
	"github.com/fwojciec/testplan/collection"
	tplipgloss "github.com/fwojciec/testplan/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestExpandTabs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		in       string
		startCol int
		want     string
	}{
		{name: "no tabs", in: "plain", want: "plain"},
		{name: "leading tab", in: "\tx", want: "        x"},
		{name: "tab after text", in: "ab\tc", want: "ab      c"},
		{name: "start column", in: "\tx", startCol: 3, want: "     x"},
		{name: "newline resets column", in: "abc\n\tx", want: "abc\n        x"},
		{name: "wide runes", in: "日本\tx", want: "日本    x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, bubbletea.ExpandTabs(tt.in, tt.startCol))
		})
	}
}

func TestPlanModel_ExpandedCardDetails(t *testing.T) {
	t.Parallel()

	f := fixtureWith([]testplan.TestCase{{
		ID:             "TC-PLAT-1-1",
		Title:          "Checkout",
		Description:    "Pay with a saved card.",
		Preconditions:  "Cart has one item",
		ExpectedResult: "Order is placed",
		Priority:       "High",
		TestType:       "functional",
		Tags:           []string{"payments", "smoke"},
		Steps: []testplan.Step{
			{Number: 1, Action: "Open checkout", ExpectedResult: "Summary shows", TestData: "card 4242"},
		},
		Expanded: true,
	}})
	f.coll.AddDraft()
	view := f.model().View()

	assert.Contains(t, view, "Pay with a saved card.")
	assert.Contains(t, view, "Priority: High · Type: functional · Tags: payments, smoke")
	assert.Contains(t, view, "Preconditions: Cart has one item")
	assert.Contains(t, view, "1. Open checkout")
	assert.Contains(t, view, "Expected: Summary shows")
	assert.Contains(t, view, "Data: card 4242")
	assert.Contains(t, view, "Expected result: Order is placed")
	assert.Contains(t, view, collection.DraftTitle)
	assert.Contains(t, view, " DRAFT ")
}

func TestPlanModel_TrueColorTheme(t *testing.T) {
	t.Parallel()

	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.TrueColor)

	m := newFixture(1).model(bubbletea.WithRenderer(r), bubbletea.WithTheme(tplipgloss.DarkTheme()))

	assert.Contains(t, m.View(), "\x1b[38;2;", "foreground colors are rendered as true-color sequences")
}
