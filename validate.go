package testplan

import (
	"errors"
	"fmt"
	"strings"
)

// Plan lookup errors returned by PlanClient implementations.
var (
	ErrNoPlan        = errors.New("no test plan for issue")
	ErrMalformedPlan = errors.New("unexpected test plan shape")
)

// ValidationReason identifies why a value was rejected.
type ValidationReason string

// Validation reasons.
const (
	ReasonRequired ValidationReason = "required"
	ReasonInvalid  ValidationReason = "invalid"
)

// ValidationError describes a user input that blocks an action before any
// server call is made.
type ValidationError struct {
	Field  string
	Reason ValidationReason
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	switch e.Reason {
	case ReasonRequired:
		return fmt.Sprintf("%s is required", e.Field)
	case ReasonInvalid:
		return fmt.Sprintf("%s is invalid", e.Field)
	default:
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
}

// ValidateTestCase checks the fields a test case cannot be saved without.
func ValidateTestCase(tc TestCase) error {
	if strings.TrimSpace(tc.Title) == "" {
		return ValidationError{Field: "title", Reason: ReasonRequired}
	}
	return nil
}

// ValidateIssueKey checks that key is usable as an issue key.
func ValidateIssueKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ValidationError{Field: "issue key", Reason: ReasonRequired}
	}
	if strings.ContainsAny(key, `/\ `) || strings.Contains(key, "..") {
		return ValidationError{Field: "issue key", Reason: ReasonInvalid}
	}
	return nil
}
