package collection_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fwojciec/testplan"
	"github.com/fwojciec/testplan/collection"
	"github.com/fwojciec/testplan/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

// serverPlans stores whatever is pushed and returns it on Get, dropping ids
// the way a backend that assigns positional ids does.
type serverPlans struct {
	stored   []testplan.TestCase
	dropIDs  bool
	getErr   error
	pushErr  error
	getCalls int
}

func (s *serverPlans) client() *mock.PlanClient {
	return &mock.PlanClient{
		UpdateFn: func(_ context.Context, _ string, cs []testplan.TestCase, _ bool, _ string) (*testplan.UpdateResult, error) {
			if s.pushErr != nil {
				return nil, s.pushErr
			}
			s.stored = testplan.CloneAll(cs)
			return &testplan.UpdateResult{OK: true}, nil
		},
		GetFn: func(context.Context, string) ([]testplan.TestCase, error) {
			s.getCalls++
			if s.getErr != nil {
				return nil, s.getErr
			}
			out := testplan.CloneAll(s.stored)
			for i := range out {
				out[i].Selected = false
				out[i].Expanded = false
				out[i].StepsText = ""
				if s.dropIDs {
					out[i].ID = ""
				}
			}
			return out, nil
		},
		DeleteFn: func(context.Context, string) error { return nil },
	}
}

func TestCollection_Update(t *testing.T) {
	t.Parallel()

	t.Run("pushes whole collection and reconciles flags", func(t *testing.T) {
		t.Parallel()

		srv := &serverPlans{}
		n := &mock.Notifier{}
		c := collection.New("PLAT-1", cases(3), srv.client(), collection.WithNotifier(n))
		c.ToggleSelect("TC-PLAT-1-1")
		c.ToggleExpand("TC-PLAT-1-2")

		err := c.Update(context.Background(), "TC-PLAT-1-2", collection.Fields{
			Title:     ptr("Renamed"),
			StepsText: ptr("1. Open page\n2. Click X\n   Expected: Y appears"),
		})

		require.NoError(t, err)
		assert.Len(t, srv.stored, 3)
		assert.Equal(t, 1, srv.getCalls)

		got := c.Cases()
		require.Len(t, got, 3)
		assert.True(t, got[0].Selected)
		assert.Equal(t, "Renamed", got[1].Title)
		assert.True(t, got[1].Expanded)
		require.Len(t, got[1].Steps, 2)
		assert.Equal(t, "Y appears", got[1].Steps[1].ExpectedResult)
		assert.Equal(t, "1. Open page\n2. Click X\n   Expected: Y appears", got[1].StepsText)

		last, _ := n.Last()
		assert.Equal(t, testplan.KindSuccess, last.Kind)
		assert.Equal(t, "Test case updated and test plan saved.", last.Message)
	})

	t.Run("saving a draft adopts the positional id", func(t *testing.T) {
		t.Parallel()

		srv := &serverPlans{dropIDs: true}
		c := collection.New("PLAT-1", cases(1), srv.client())
		draft := c.AddDraft()

		require.NoError(t, c.Update(context.Background(), draft.ID, collection.Fields{Title: ptr("Saved draft")}))

		got := c.Cases()
		require.Len(t, got, 2)
		assert.Equal(t, "TC-PLAT-1-1", got[0].ID)
		assert.Equal(t, "Saved draft", got[0].Title)
		assert.False(t, got[0].IsDraft())
	})

	t.Run("unparseable steps keep previous structured steps", func(t *testing.T) {
		t.Parallel()

		srv := &serverPlans{}
		c := collection.New("PLAT-1", cases(1), srv.client())

		require.NoError(t, c.Update(context.Background(), "TC-PLAT-1-1", collection.Fields{StepsText: ptr("no numbers at all")}))

		require.Len(t, srv.stored[0].Steps, 1)
		assert.Equal(t, "Do", srv.stored[0].Steps[0].Action)
	})

	t.Run("empty title is rejected before any server call", func(t *testing.T) {
		t.Parallel()

		n := &mock.Notifier{}
		c := collection.New("PLAT-1", cases(1), &mock.PlanClient{}, collection.WithNotifier(n))

		err := c.Update(context.Background(), "TC-PLAT-1-1", collection.Fields{Title: ptr("  ")})

		require.Error(t, err)
		assert.True(t, collection.IsValidation(err))
		assert.Equal(t, "Case 1", c.Cases()[0].Title)
		last, _ := n.Last()
		assert.Equal(t, testplan.KindError, last.Kind)
	})

	t.Run("reload failure falls back to local merge with warning", func(t *testing.T) {
		t.Parallel()

		srv := &serverPlans{getErr: errors.New("timeout")}
		n := &mock.Notifier{}
		c := collection.New("PLAT-1", cases(2), srv.client(), collection.WithNotifier(n))
		c.ToggleSelect("TC-PLAT-1-2")

		require.NoError(t, c.Update(context.Background(), "TC-PLAT-1-2", collection.Fields{Title: ptr("Local")}))

		got := c.Cases()
		assert.Equal(t, "Local", got[1].Title)
		assert.True(t, got[1].Selected)
		last, _ := n.Last()
		assert.Equal(t, testplan.KindWarning, last.Kind)
		assert.Equal(t, "Test case updated, but failed to reload from server.", last.Message)
	})

	t.Run("empty reload is treated as malformed", func(t *testing.T) {
		t.Parallel()

		plans := okPlans()
		plans.GetFn = func(context.Context, string) ([]testplan.TestCase, error) { return nil, nil }
		n := &mock.Notifier{}
		c := collection.New("PLAT-1", cases(2), plans, collection.WithNotifier(n))

		require.NoError(t, c.Update(context.Background(), "TC-PLAT-1-1", collection.Fields{Title: ptr("Kept")}))

		assert.Equal(t, 2, c.Len())
		last, _ := n.Last()
		assert.Equal(t, testplan.KindWarning, last.Kind)
	})

	t.Run("push failure keeps the local merge", func(t *testing.T) {
		t.Parallel()

		srv := &serverPlans{pushErr: errors.New("down")}
		n := &mock.Notifier{}
		c := collection.New("PLAT-1", cases(1), srv.client(), collection.WithNotifier(n))

		err := c.Update(context.Background(), "TC-PLAT-1-1", collection.Fields{Title: ptr("Edited")})

		require.Error(t, err)
		assert.Equal(t, 0, srv.getCalls)
		assert.Equal(t, "Edited", c.Cases()[0].Title)
		last, _ := n.Last()
		assert.Equal(t, testplan.KindError, last.Kind)
	})

	t.Run("merges optional fields and tags", func(t *testing.T) {
		t.Parallel()

		srv := &serverPlans{}
		c := collection.New("PLAT-1", cases(1), srv.client())

		require.NoError(t, c.Update(context.Background(), "TC-PLAT-1-1", collection.Fields{
			Priority: ptr("High"),
			Tags:     []string{"smoke"},
		}))

		got := c.Cases()[0]
		assert.Equal(t, "High", got.Priority)
		assert.Equal(t, []string{"smoke"}, got.Tags)
		assert.Equal(t, "Case 1", got.Title)
	})

	t.Run("unknown id is a no-op", func(t *testing.T) {
		t.Parallel()

		c := collection.New("PLAT-1", cases(1), &mock.PlanClient{})

		assert.NoError(t, c.Update(context.Background(), "missing", collection.Fields{Title: ptr("x")}))
	})
}
