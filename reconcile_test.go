package testplan_test

import (
	"testing"

	"github.com/fwojciec/testplan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile(t *testing.T) {
	t.Parallel()

	t.Run("keeps flags of items matched by id", func(t *testing.T) {
		t.Parallel()

		local := []testplan.TestCase{
			{ID: "A", Title: "First", Selected: true},
			{ID: "B", Title: "Second", Expanded: true},
		}
		server := []testplan.TestCase{
			{ID: "B", Title: "Second (edited)"},
			{ID: "A", Title: "First"},
		}

		got := testplan.Reconcile("PLAT-1", server, local)

		require.Len(t, got, 2)
		assert.Equal(t, "B", got[0].ID)
		assert.Equal(t, "Second (edited)", got[0].Title)
		assert.True(t, got[0].Expanded)
		assert.False(t, got[0].Selected)
		assert.True(t, got[1].Selected)
	})

	t.Run("assigns positional ids and matches local items by them", func(t *testing.T) {
		t.Parallel()

		local := []testplan.TestCase{
			{ID: "TC-PLAT-1-1", Title: "Old title", Selected: true},
		}
		server := []testplan.TestCase{
			{Title: "New title"},
			{Title: "Another"},
		}

		got := testplan.Reconcile("PLAT-1", server, local)

		require.Len(t, got, 2)
		assert.Equal(t, "TC-PLAT-1-1", got[0].ID)
		assert.True(t, got[0].Selected)
		assert.Equal(t, "TC-PLAT-1-2", got[1].ID)
		assert.False(t, got[1].Selected)
	})

	t.Run("falls back to title for server items without id", func(t *testing.T) {
		t.Parallel()

		local := []testplan.TestCase{
			{ID: "TC-MANUAL-abc", Title: "Draft case", Expanded: true},
		}
		server := []testplan.TestCase{
			{ID: "X", Title: "Unrelated"},
			{Title: "Draft case"},
		}

		got := testplan.Reconcile("PLAT-1", server, local)

		require.Len(t, got, 2)
		assert.False(t, got[0].Expanded)
		assert.Equal(t, "TC-PLAT-1-2", got[1].ID)
		assert.True(t, got[1].Expanded)
	})

	t.Run("each local item matches at most once", func(t *testing.T) {
		t.Parallel()

		local := []testplan.TestCase{{ID: "Z", Title: "Dup", Selected: true}}
		server := []testplan.TestCase{{Title: "Dup"}, {Title: "Dup"}}

		got := testplan.Reconcile("PLAT-1", server, local)

		require.Len(t, got, 2)
		assert.True(t, got[0].Selected)
		assert.False(t, got[1].Selected)
	})

	t.Run("does not match by title when server item has an id", func(t *testing.T) {
		t.Parallel()

		local := []testplan.TestCase{{ID: "L", Title: "Same", Selected: true}}
		server := []testplan.TestCase{{ID: "S", Title: "Same"}}

		got := testplan.Reconcile("PLAT-1", server, local)

		require.Len(t, got, 1)
		assert.False(t, got[0].Selected)
	})

	t.Run("re-encodes steps text from structured steps", func(t *testing.T) {
		t.Parallel()

		server := []testplan.TestCase{{
			ID:    "A",
			Steps: []testplan.Step{{Number: 1, Action: "Open", ExpectedResult: "Opened"}},
		}}
		local := []testplan.TestCase{{ID: "A", StepsText: "stale"}}

		got := testplan.Reconcile("PLAT-1", server, local)

		assert.Equal(t, "1. Open\n   Expected: Opened", got[0].StepsText)
	})

	t.Run("empty server list yields empty collection", func(t *testing.T) {
		t.Parallel()

		got := testplan.Reconcile("PLAT-1", nil, []testplan.TestCase{{ID: "A"}})

		assert.Empty(t, got)
	})
}

func TestFromServer(t *testing.T) {
	t.Parallel()

	got := testplan.FromServer("QA-7", []testplan.TestCase{{Title: "One"}, {ID: "kept", Title: "Two"}})

	require.Len(t, got, 2)
	assert.Equal(t, "TC-QA-7-1", got[0].ID)
	assert.Equal(t, "kept", got[1].ID)
	for _, tc := range got {
		assert.False(t, tc.Selected)
		assert.False(t, tc.Expanded)
	}
}
