// Package testplan provides domain types for reviewing AI-generated test plans
// and keeping a locally edited plan in sync with the backend that owns it.
package testplan

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// DraftPrefix marks test cases created locally that have never been saved.
const DraftPrefix = "TC-MANUAL-"

// Step is one structured step of a test case.
type Step struct {
	Number         int    `json:"step_number"`
	Action         string `json:"action"`
	ExpectedResult string `json:"expected_result"`
	TestData       string `json:"test_data,omitempty"`
}

// TestCase is one reviewable unit of a test plan.
//
// Steps and StepsText are two views of the same data: StepsText is what the
// text editor shows, Steps is what the backend stores. Selected and Expanded
// are UI state and are never serialized.
type TestCase struct {
	ID             string   `json:"id,omitempty"`
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	Preconditions  string   `json:"preconditions,omitempty"`
	ExpectedResult string   `json:"expected_result,omitempty"`
	Priority       string   `json:"priority,omitempty"`
	TestType       string   `json:"test_type,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	Steps          []Step   `json:"steps"`

	StepsText string `json:"-"`
	Selected  bool   `json:"-"`
	Expanded  bool   `json:"-"`
}

// IsDraft reports whether the test case was created locally and not yet saved.
func (tc TestCase) IsDraft() bool {
	return strings.HasPrefix(tc.ID, DraftPrefix)
}

// SameTags reports whether both test cases carry the same set of tags,
// ignoring order and duplicates.
func (tc TestCase) SameTags(other TestCase) bool {
	a := tagSet(tc.Tags)
	b := tagSet(other.Tags)
	if len(a) != len(b) {
		return false
	}
	for t := range a {
		if _, ok := b[t]; !ok {
			return false
		}
	}
	return true
}

func tagSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return set
}

// Clone returns a deep copy of the test case.
func (tc TestCase) Clone() TestCase {
	tc.Tags = slices.Clone(tc.Tags)
	tc.Steps = slices.Clone(tc.Steps)
	return tc
}

// CloneAll returns a deep copy of a slice of test cases.
func CloneAll(cases []TestCase) []TestCase {
	if cases == nil {
		return nil
	}
	out := make([]TestCase, len(cases))
	for i, tc := range cases {
		out[i] = tc.Clone()
	}
	return out
}

// PositionalID returns the id the backend assigns to the test case at index
// (0-based) when it stores a plan without explicit ids.
func PositionalID(issueKey string, index int) string {
	return fmt.Sprintf("TC-%s-%d", issueKey, index+1)
}

// ProjectKey derives the project key from an issue key ("PLAT-12" -> "PLAT").
func ProjectKey(issueKey string) string {
	key, _, _ := strings.Cut(issueKey, "-")
	return key
}

// Story is a work item that test plans are generated for.
type Story struct {
	Key         string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Updated     string `json:"updated,omitempty"`
}

// GenerateRequest describes a single test plan generation.
type GenerateRequest struct {
	IssueKey          string
	StoryTitle        string
	UploadImmediately bool
	ProjectKey        string // optional
	FolderID          string // optional
}

// GenerateResult is what a GenerationClient returns on success.
type GenerateResult struct {
	TestCases []TestCase
	Upload    *UploadResult // set when the plan was uploaded as part of generation
}

// UploadResult reports test cases accepted by the test-management system.
type UploadResult struct {
	IDs        []string `json:"test_case_ids"`
	Count      int      `json:"uploaded_count"`
	FolderPath string   `json:"folder_path,omitempty"`
}

// CycleUploadResult reports the outcome of uploading into a test cycle.
type CycleUploadResult struct {
	Success  bool     `json:"success"`
	IDs      []string `json:"test_case_ids"`
	CycleKey string   `json:"cycle_key"`
	Errors   []string `json:"errors,omitempty"`
}

// UpdateResult is the backend's acknowledgement of a plan update.
type UpdateResult struct {
	OK      bool   `json:"success"`
	Message string `json:"message"`
}

// FolderKind selects which folder tree of the test-management system to list.
type FolderKind string

// Folder kinds.
const (
	FolderTestCase  FolderKind = "TEST_CASE"
	FolderTestCycle FolderKind = "TEST_CYCLE"
)

// Folder is a folder in the test-management system.
type Folder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`
}

// NotificationKind classifies a user-visible notice.
type NotificationKind string

// Notification kinds.
const (
	KindSuccess NotificationKind = "success"
	KindError   NotificationKind = "error"
	KindInfo    NotificationKind = "info"
	KindWarning NotificationKind = "warning"
)

// GenerationClient produces test cases for a work item.
type GenerationClient interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
}

// PlanClient stores the authoritative copy of a test plan.
type PlanClient interface {
	// Get returns the stored test cases. Returns ErrNoPlan if there is none
	// and ErrMalformedPlan if the stored plan has an unexpected shape.
	Get(ctx context.Context, issueKey string) ([]TestCase, error)
	// Update replaces the stored plan with cases.
	Update(ctx context.Context, issueKey string, cases []TestCase, uploadImmediately bool, projectKey string) (*UpdateResult, error)
	// Delete removes the stored plan entirely.
	Delete(ctx context.Context, issueKey string) error
}

// PlanSummary describes a stored plan.
type PlanSummary struct {
	IssueKey string
	Count    int
}

// PlanLister enumerates stored plans.
type PlanLister interface {
	List(ctx context.Context) ([]PlanSummary, error)
}

// UploadClient exports test cases to the test-management system.
type UploadClient interface {
	UploadSubset(ctx context.Context, issueKey string, cases []TestCase, projectKey, folderID string) (*UploadResult, error)
	UploadToCycle(ctx context.Context, issueKey string, cases []TestCase, projectKey, cycleName, folderPath string) (*CycleUploadResult, error)
}

// FolderClient lists folders of the test-management system.
type FolderClient interface {
	ListFolders(ctx context.Context, projectKey string, kind FolderKind) ([]Folder, error)
}

// StorySearcher finds work items by free-text query.
type StorySearcher interface {
	Search(ctx context.Context, query string) ([]Story, error)
}

// StoryFetcher loads a single work item.
type StoryFetcher interface {
	Story(ctx context.Context, issueKey string) (*Story, error)
}

// Notifier surfaces a notice to the user. A non-nil undo makes the notice
// undoable.
type Notifier interface {
	Notify(message string, kind NotificationKind, undo func())
}

// Clipboard provides copy-to-clipboard functionality.
type Clipboard interface {
	Copy(content string) error
}

// URLOpener opens a URL outside the application.
type URLOpener interface {
	Open(url string) error
}

// PlainText renders the test case as plain text for pasting elsewhere.
func (tc TestCase) PlainText() string {
	var sb strings.Builder
	sb.WriteString(tc.Title)
	sb.WriteString("\n")
	if tc.Preconditions != "" {
		sb.WriteString("\nPreconditions: ")
		sb.WriteString(tc.Preconditions)
		sb.WriteString("\n")
	}
	steps := tc.StepsText
	if steps == "" {
		steps = EncodeSteps(tc.Steps)
	}
	if steps != "" {
		sb.WriteString("\n")
		sb.WriteString(steps)
		sb.WriteString("\n")
	}
	if tc.ExpectedResult != "" {
		sb.WriteString("\nExpected result: ")
		sb.WriteString(tc.ExpectedResult)
		sb.WriteString("\n")
	}
	return sb.String()
}

// IssueURL returns the browse URL of an issue, for example
// "https://jira.example.com/browse/PLAT-12". Returns "" when base or
// issueKey is empty.
func IssueURL(base, issueKey string) string {
	if base == "" || issueKey == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + "/browse/" + url.PathEscape(issueKey)
}
