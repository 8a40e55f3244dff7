package collection

import (
	"context"
	"errors"
	"slices"

	"github.com/fwojciec/testplan"
)

// Fields is a partial set of test case fields. Nil fields are left
// unchanged.
type Fields struct {
	Title          *string
	StepsText      *string
	Description    *string
	Preconditions  *string
	ExpectedResult *string
	Priority       *string
	TestType       *string
	Tags           []string
}

func (f Fields) apply(tc testplan.TestCase) testplan.TestCase {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&tc.Title, f.Title)
	set(&tc.Description, f.Description)
	set(&tc.Preconditions, f.Preconditions)
	set(&tc.ExpectedResult, f.ExpectedResult)
	set(&tc.Priority, f.Priority)
	set(&tc.TestType, f.TestType)
	if f.Tags != nil {
		tc.Tags = slices.Clone(f.Tags)
	}
	if f.StepsText != nil {
		tc.StepsText = *f.StepsText
		tc.Steps = testplan.RederiveSteps(tc.Steps, tc.StepsText)
	}
	return tc
}

// Update merges fields into the test case with id, pushes the entire
// collection to the server and reloads it.
//
// A successful reload is reconciled against the current local cases so
// selection and expansion survive. When the reload fails or comes back
// empty, the local merge is kept and a warning notice is shown. A failed
// push keeps the local merge and returns the server error. Unknown ids are
// ignored; validation failures return a testplan.ValidationError before any
// server call.
func (c *Collection) Update(ctx context.Context, id string, fields Fields) error {
	c.mu.Lock()
	i := c.indexOf(id)
	if i < 0 {
		c.mu.Unlock()
		return nil
	}
	merged := fields.apply(c.cases[i].Clone())
	if err := testplan.ValidateTestCase(merged); err != nil {
		c.mu.Unlock()
		c.notifier.Notify("Test case title cannot be empty.", testplan.KindError, nil)
		return err
	}
	c.cases[i] = merged
	snapshot := testplan.CloneAll(c.cases)
	c.mu.Unlock()

	if err := c.push(ctx, snapshot); err != nil {
		c.logger.Warn("failed to save test plan", "issue", c.issueKey, "id", id, "error", err)
		c.notifier.Notify("Failed to update test case.", testplan.KindError, nil)
		return err
	}

	server, err := c.plans.Get(ctx, c.issueKey)
	if err == nil && len(server) == 0 && len(snapshot) > 0 {
		err = testplan.ErrMalformedPlan
	}
	if err != nil {
		// The push succeeded, so the local merge is what the server holds
		// as far as we know.
		c.logger.Warn("failed to reload test plan, keeping local merge", "issue", c.issueKey, "error", err)
		c.notifier.Notify("Test case updated, but failed to reload from server.", testplan.KindWarning, nil)
		return nil
	}

	c.mu.Lock()
	c.cases = testplan.Reconcile(c.issueKey, server, c.cases)
	c.page = testplan.ClampPage(c.page, len(c.cases), c.pageSize)
	c.mu.Unlock()

	c.notifier.Notify("Test case updated and test plan saved.", testplan.KindSuccess, nil)
	return nil
}

// IsValidation reports whether err is a testplan.ValidationError.
func IsValidation(err error) bool {
	var verr testplan.ValidationError
	return errors.As(err, &verr)
}
