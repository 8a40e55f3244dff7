package collection

import (
	"context"
	"fmt"
	"slices"

	"github.com/fwojciec/testplan"
)

// Remove deletes the test case with id, remembers it for Undo and pushes
// the remaining plan to the server. The local removal stands when the push
// fails; the returned error is the server error. Both outcomes produce an
// undoable notice. Unknown ids are ignored.
func (c *Collection) Remove(ctx context.Context, id string) error {
	c.mu.Lock()
	i := c.indexOf(id)
	if i < 0 {
		c.mu.Unlock()
		return nil
	}
	removed := c.cases[i]
	c.undo.Remember(removed, i)
	c.cases = slices.Delete(c.cases, i, i+1)
	if c.page > 1 && (c.page-1)*c.pageSize >= len(c.cases) {
		c.page--
	}
	snapshot := testplan.CloneAll(c.cases)
	c.mu.Unlock()

	// A later removal overwrites the slot, so this notice's undo must not
	// restore whatever case was removed after it.
	undo := func() { c.undoRemoved(context.WithoutCancel(ctx), id) }

	if err := c.push(ctx, snapshot); err != nil {
		c.logger.Warn("failed to update test plan after removal", "issue", c.issueKey, "id", id, "error", err)
		c.notifier.Notify(fmt.Sprintf("Removed: %q locally, but failed to update test plan on server.", removed.Title), testplan.KindError, undo)
		return err
	}
	c.notifier.Notify(fmt.Sprintf("Removed: %q and updated test plan.", removed.Title), testplan.KindInfo, undo)
	return nil
}

// Undo restores the most recently removed test case at its original index,
// clamped to the current length, and pushes the plan to the server. It
// reports whether anything was restored. A remembered case whose id has
// reappeared in the meantime is dropped.
func (c *Collection) Undo(ctx context.Context) bool {
	return c.restore(ctx, func(b *testplan.UndoBuffer) (testplan.TestCase, int, bool) {
		return b.Consume()
	})
}

// undoRemoved is Undo for the case with id only. It does nothing once a
// later removal has replaced id in the slot.
func (c *Collection) undoRemoved(ctx context.Context, id string) bool {
	return c.restore(ctx, func(b *testplan.UndoBuffer) (testplan.TestCase, int, bool) {
		return b.ConsumeIf(id)
	})
}

func (c *Collection) restore(ctx context.Context, take func(*testplan.UndoBuffer) (testplan.TestCase, int, bool)) bool {
	c.mu.Lock()
	tc, index, ok := take(&c.undo)
	if !ok || c.indexOf(tc.ID) >= 0 {
		c.mu.Unlock()
		return false
	}
	index = min(index, len(c.cases))
	c.cases = slices.Insert(c.cases, index, tc)
	snapshot := testplan.CloneAll(c.cases)
	c.mu.Unlock()

	if err := c.push(ctx, snapshot); err != nil {
		c.logger.Warn("failed to update test plan after undo", "issue", c.issueKey, "id", tc.ID, "error", err)
		c.notifier.Notify(fmt.Sprintf("Restored: %q locally, but failed to update test plan on server.", tc.Title), testplan.KindError, nil)
	}
	return true
}

// BulkResult reports the outcome of BulkRemove.
type BulkResult struct {
	Removed     int
	PlanDeleted bool // the collection became empty and the plan was deleted
}

// BulkRemove deletes the test cases with ids. When no case remains the
// whole plan is deleted on the server and the caller should navigate away;
// otherwise the remaining cases are pushed as a partial update.
func (c *Collection) BulkRemove(ctx context.Context, ids []string) (BulkResult, error) {
	if len(ids) == 0 {
		c.notifier.Notify("No test cases selected for deletion.", testplan.KindError, nil)
		return BulkResult{}, ErrNothingSelected
	}
	set := idSet(ids)

	c.mu.Lock()
	before := len(c.cases)
	c.cases = slices.DeleteFunc(c.cases, func(tc testplan.TestCase) bool {
		_, ok := set[tc.ID]
		return ok
	})
	removed := before - len(c.cases)
	if removed == 0 {
		c.mu.Unlock()
		return BulkResult{}, nil
	}
	c.page = testplan.ClampPage(c.page, len(c.cases), c.pageSize)
	snapshot := testplan.CloneAll(c.cases)
	c.mu.Unlock()

	res := BulkResult{Removed: removed}
	noun := fmt.Sprintf("%d test case%s", removed, plural(removed))

	if len(snapshot) == 0 {
		if err := c.plans.Delete(ctx, c.issueKey); err != nil {
			c.logger.Warn("failed to delete test plan", "issue", c.issueKey, "error", err)
			c.notifier.Notify(fmt.Sprintf("Deleted %s locally, but failed to delete test plan on server.", noun), testplan.KindError, nil)
			return res, err
		}
		res.PlanDeleted = true
		c.notifier.Notify(fmt.Sprintf("Deleted %s and removed the test plan.", noun), testplan.KindSuccess, nil)
		return res, nil
	}

	if err := c.push(ctx, snapshot); err != nil {
		c.logger.Warn("failed to update test plan after bulk removal", "issue", c.issueKey, "removed", removed, "error", err)
		c.notifier.Notify(fmt.Sprintf("Deleted %s locally, but failed to update test plan on server.", noun), testplan.KindError, nil)
		return res, err
	}
	c.notifier.Notify(fmt.Sprintf("Deleted %s and updated test plan.", noun), testplan.KindSuccess, nil)
	return res, nil
}
