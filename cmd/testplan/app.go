package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/testplan"
	"github.com/fwojciec/testplan/bubbletea"
	"github.com/fwojciec/testplan/collection"
	"github.com/fwojciec/testplan/config"
	"github.com/fwojciec/testplan/generation"
	"github.com/fwojciec/testplan/notify"
	"github.com/fwojciec/testplan/search"
	"github.com/fwojciec/testplan/upload"
	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/sync/errgroup"
)

// ErrListUnsupported is returned by List when the configured store cannot
// enumerate plans.
var ErrListUnsupported = errors.New("listing plans requires the jsonl or postgres store")

// App holds the wired dependencies of every command.
type App struct {
	Config config.Config
	Logger *slog.Logger
	Stdout io.Writer

	Plans     testplan.PlanClient
	Lister    testplan.PlanLister // nil when the store cannot list
	Generator testplan.GenerationClient
	Searcher  testplan.StorySearcher
	Stories   testplan.StoryFetcher
	Uploader  testplan.UploadClient
	Folders   testplan.FolderClient
	History   testplan.History
	Clipboard testplan.Clipboard
	Opener    testplan.URLOpener
	Theme     testplan.Theme

	// GeneratorStores is set when the generator persists the plans it
	// creates, as the backend does.
	GeneratorStores bool

	// RunTUI runs a full-screen model. Defaults to bubbletea.Run.
	RunTUI func(ctx context.Context, m tea.Model) (tea.Model, error)

	Upload   bool
	FolderID string

	closers []func()
}

// Close releases resources acquired while wiring, in reverse order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

func (a *App) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return a.Logger
}

func (a *App) runTUI(ctx context.Context, m tea.Model) (tea.Model, error) {
	if a.RunTUI != nil {
		return a.RunTUI(ctx, m)
	}
	return bubbletea.Run(ctx, m)
}

func (a *App) projectKey(issueKey string) string {
	if a.Config.ProjectKey != "" {
		return a.Config.ProjectKey
	}
	return testplan.ProjectKey(issueKey)
}

func (a *App) table(header ...string) *tablewriter.Table {
	t := tablewriter.NewWriter(a.Stdout)
	t.SetHeader(header)
	t.SetAutoWrapText(false)
	return t
}

// Search prints the stories matching query.
func (a *App) Search(ctx context.Context, query string) error {
	stories, err := a.Searcher.Search(ctx, query)
	if err != nil {
		return fmt.Errorf("search stories: %w", err)
	}
	if len(stories) == 0 {
		fmt.Fprintln(a.Stdout, "No stories found.")
		return nil
	}
	t := a.table("KEY", "TITLE", "UPDATED")
	for _, s := range stories {
		t.Append([]string{s.Key, s.Title, s.Updated})
	}
	t.Render()
	return nil
}

func (a *App) request(issueKey, title string) testplan.GenerateRequest {
	return testplan.GenerateRequest{
		IssueKey:          issueKey,
		StoryTitle:        title,
		UploadImmediately: a.Upload,
		ProjectKey:        a.projectKey(issueKey),
		FolderID:          a.FolderID,
	}
}

// Generate creates the test plan for issueKey, stores it and records the
// attempt in the history.
func (a *App) Generate(ctx context.Context, issueKey string) (*generation.Plan, error) {
	if err := testplan.ValidateIssueKey(issueKey); err != nil {
		return nil, err
	}
	title := ""
	if a.Stories != nil {
		if s, err := a.Stories.Story(ctx, issueKey); err == nil {
			title = s.Title
		} else {
			a.logger().Warn("failed to fetch story title", "issue", issueKey, "error", err)
		}
	}

	wf := generation.New(a.recording(), generation.WithLogger(a.logger()))
	plan, err := wf.Start(ctx, a.request(issueKey, title))
	if err != nil {
		return nil, fmt.Errorf("generate test plan: %w", err)
	}
	if err := a.store(ctx, plan); err != nil {
		return nil, err
	}
	a.printSummary(plan)
	return plan, nil
}

// store persists a generated plan unless the generator did.
func (a *App) store(ctx context.Context, plan *generation.Plan) error {
	if a.GeneratorStores {
		return nil
	}
	if _, err := a.Plans.Update(ctx, plan.IssueKey, plan.TestCases, false, a.projectKey(plan.IssueKey)); err != nil {
		return fmt.Errorf("store test plan: %w", err)
	}
	return nil
}

// recording wraps the generator so every attempt lands in the history.
func (a *App) recording() testplan.GenerationClient {
	if a.History == nil {
		return a.Generator
	}
	return &recordingClient{inner: a.Generator, history: a.History, logger: a.logger()}
}

type recordingClient struct {
	inner   testplan.GenerationClient
	history testplan.History
	logger  *slog.Logger
}

func (c *recordingClient) Generate(ctx context.Context, req testplan.GenerateRequest) (*testplan.GenerateResult, error) {
	started := time.Now()
	res, err := c.inner.Generate(ctx, req)

	entry := testplan.HistoryEntry{
		ID:        uuid.NewString(),
		IssueKey:  req.IssueKey,
		CreatedAt: started.UTC(),
		Duration:  time.Since(started),
		Status:    testplan.HistoryCompleted,
	}
	if err != nil {
		entry.Status = testplan.HistoryFailed
		entry.Error = err.Error()
	}
	if res != nil {
		entry.TestCount = len(res.TestCases)
		if res.Upload != nil {
			entry.UploadIDs = res.Upload.IDs
		}
	}
	if herr := c.history.Append(entry); herr != nil {
		c.logger.Warn("failed to record generation history", "issue", req.IssueKey, "error", herr)
	}
	return res, err
}

func (a *App) printSummary(plan *generation.Plan) {
	n := len(plan.TestCases)
	fmt.Fprintf(a.Stdout, "Generated %d test case%s for %s.\n", n, plural(n), plan.IssueKey)
	if up := plan.Upload; up != nil {
		fmt.Fprintf(a.Stdout, "Uploaded %d test case%s", up.Count, plural(up.Count))
		if up.FolderPath != "" {
			fmt.Fprintf(a.Stdout, " to %s", up.FolderPath)
		}
		fmt.Fprintln(a.Stdout, ".")
	}
}

// Show prints the stored plan for issueKey.
func (a *App) Show(ctx context.Context, issueKey string) error {
	if err := testplan.ValidateIssueKey(issueKey); err != nil {
		return err
	}

	var (
		cases []testplan.TestCase
		story *testplan.Story
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cases, err = a.Plans.Get(gctx, issueKey)
		return err
	})
	if a.Stories != nil {
		g.Go(func() error {
			s, err := a.Stories.Story(gctx, issueKey)
			if err != nil {
				// The title is decoration; the plan is what was asked for.
				a.logger().Warn("failed to fetch story", "issue", issueKey, "error", err)
				return nil
			}
			story = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return planError(issueKey, err)
	}

	if story != nil {
		fmt.Fprintf(a.Stdout, "%s: %s\n\n", issueKey, story.Title)
	}
	cases = testplan.FromServer(issueKey, cases)
	t := a.table("ID", "TITLE", "PRIORITY", "TYPE", "STEPS")
	for _, tc := range cases {
		t.Append([]string{tc.ID, tc.Title, tc.Priority, tc.TestType, strconv.Itoa(len(tc.Steps))})
	}
	t.Render()
	return nil
}

// List prints the stored plans.
func (a *App) List(ctx context.Context) error {
	if a.Lister == nil {
		return ErrListUnsupported
	}
	plans, err := a.Lister.List(ctx)
	if err != nil {
		return fmt.Errorf("list test plans: %w", err)
	}
	if len(plans) == 0 {
		fmt.Fprintln(a.Stdout, "No stored test plans.")
		return nil
	}
	t := a.table("ISSUE", "TEST CASES")
	for _, p := range plans {
		t.Append([]string{p.IssueKey, strconv.Itoa(p.Count)})
	}
	t.Render()
	return nil
}

// Delete removes the stored plan for issueKey.
func (a *App) Delete(ctx context.Context, issueKey string) error {
	if err := testplan.ValidateIssueKey(issueKey); err != nil {
		return err
	}
	if err := a.Plans.Delete(ctx, issueKey); err != nil {
		return fmt.Errorf("delete test plan: %w", err)
	}
	fmt.Fprintf(a.Stdout, "Deleted test plan for %s.\n", issueKey)
	return nil
}

// ShowHistory prints recorded generation attempts, newest first.
func (a *App) ShowHistory() error {
	if a.History == nil {
		return errors.New("no history store configured")
	}
	entries, err := a.History.Load()
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.Stdout, "No generation history.")
		return nil
	}
	t := a.table("WHEN", "ISSUE", "STATUS", "CASES", "DURATION", "ERROR")
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		t.Append([]string{
			e.CreatedAt.Local().Format(time.DateTime),
			e.IssueKey,
			e.Status,
			strconv.Itoa(e.TestCount),
			e.Duration.Round(time.Millisecond).String(),
			e.Error,
		})
	}
	t.Render()
	return nil
}

// Review opens the review screen for the stored plan of issueKey.
func (a *App) Review(ctx context.Context, issueKey string) error {
	if err := testplan.ValidateIssueKey(issueKey); err != nil {
		return err
	}
	cases, err := a.Plans.Get(ctx, issueKey)
	if err != nil {
		return planError(issueKey, err)
	}
	return a.review(ctx, issueKey, testplan.FromServer(issueKey, cases))
}

func (a *App) review(ctx context.Context, issueKey string, cases []testplan.TestCase) error {
	logger := a.logger()
	center := notify.NewCenter(
		notify.WithEnabled(a.Config.Notifications),
		notify.WithLogger(logger),
	)
	defer center.Close()

	coll := collection.New(issueKey, cases, a.Plans,
		collection.WithPageSize(a.Config.PageSize),
		collection.WithNotifier(center),
		collection.WithLogger(logger),
		collection.WithProjectKey(a.projectKey(issueKey)),
	)

	opts := []bubbletea.PlanModelOption{
		bubbletea.WithTheme(a.Theme),
		bubbletea.WithClipboard(a.Clipboard),
		bubbletea.WithOpener(a.Opener, a.Config.BrowseURL),
	}
	if a.Uploader != nil {
		up := upload.NewCoordinator(coll, a.Uploader,
			upload.WithNotifier(center),
			upload.WithFolderID(a.FolderID),
			upload.WithLogger(logger),
		)
		opts = append(opts, bubbletea.WithUploader(up, a.Folders))
	}

	_, err := a.runTUI(ctx, bubbletea.NewPlanModel(ctx, coll, center, opts...))
	return err
}

// Interactive runs the search screen and, once a plan is generated and
// accepted, stores it and opens the review screen.
func (a *App) Interactive(ctx context.Context) error {
	toast := notify.NewToast()
	defer toast.Close()
	wf := generation.New(a.recording(),
		generation.WithObserver(toast),
		generation.WithLogger(a.logger()),
	)

	m := bubbletea.NewSearchModel(ctx, search.NewSession(search.DefaultDelay), a.Searcher, wf,
		bubbletea.WithToast(toast),
		bubbletea.WithSearchTheme(a.Theme, nil),
		bubbletea.WithGenerateOptions(bubbletea.GenerateOptions{
			UploadImmediately: a.Upload,
			ProjectKey:        a.Config.ProjectKey,
			FolderID:          a.FolderID,
		}),
	)
	final, err := a.runTUI(ctx, m)
	if err != nil {
		return err
	}
	sm, ok := final.(bubbletea.SearchModel)
	if !ok {
		return nil
	}
	plan, ok := sm.Plan()
	if !ok {
		return nil
	}
	if err := a.store(ctx, plan); err != nil {
		return err
	}
	return a.review(ctx, plan.IssueKey, plan.TestCases)
}

func planError(issueKey string, err error) error {
	if errors.Is(err, testplan.ErrNoPlan) {
		return fmt.Errorf("no test plan for %s; run 'testplan generate %s' first", issueKey, issueKey)
	}
	return fmt.Errorf("load test plan: %w", err)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
