package gemini

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fwojciec/testplan"
)

// Compile-time interface verification.
var _ testplan.GenerationClient = (*Generator)(nil)

// DefaultTimeout bounds a single generation call.
const DefaultTimeout = 120 * time.Second

// DefaultMaxOutputTokens caps the reply; large plans past this are
// reported as ErrTruncated.
const DefaultMaxOutputTokens = 16384

// DefaultRetries is how many times a retryable API error is retried.
const DefaultRetries = 2

// ErrTruncated is returned when the model stopped at its output limit
// before finishing the plan.
var ErrTruncated = errors.New("gemini: response truncated at the output token limit")

// Generator implements testplan.GenerationClient using Google Gemini. It
// fetches the story, asks the model for a plan and parses the JSON reply.
type Generator struct {
	client  GenerativeClient
	stories testplan.StoryFetcher
	model   string
	timeout time.Duration
	retries int
	backoff time.Duration
}

// Option configures a Generator.
type Option func(*Generator)

// WithTimeout sets the timeout for API calls.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) {
		g.timeout = d
	}
}

// WithRetries sets how often retryable API errors (rate limits, server
// errors) are retried, waiting backoff times the attempt number between
// tries.
func WithRetries(n int, backoff time.Duration) Option {
	return func(g *Generator) {
		g.retries = max(n, 0)
		g.backoff = backoff
	}
}

// WithModel overrides DefaultModel.
func WithModel(model string) Option {
	return func(g *Generator) {
		if model != "" {
			g.model = model
		}
	}
}

// NewGenerator creates a new Generator. stories may be nil, in which case
// the prompt carries only the request's issue key and title.
func NewGenerator(client GenerativeClient, stories testplan.StoryFetcher, opts ...Option) *Generator {
	g := &Generator{
		client:  client,
		stories: stories,
		model:   DefaultModel,
		timeout: DefaultTimeout,
		retries: DefaultRetries,
		backoff: time.Second,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate implements testplan.GenerationClient. Uploads are not handled
// here; wrap the Generator in generation.UploadingClient for that.
func (g *Generator) Generate(ctx context.Context, req testplan.GenerateRequest) (*testplan.GenerateResult, error) {
	story := testplan.Story{Key: req.IssueKey, Title: req.StoryTitle}
	if g.stories != nil {
		s, err := g.stories.Story(ctx, req.IssueKey)
		if err != nil {
			return nil, fmt.Errorf("gemini: failed to fetch story %s: %w", req.IssueKey, err)
		}
		story = *s
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	contents := []*Content{{
		Parts: []*Part{{Text: testplan.BuildPlanPrompt(story)}},
	}}

	resp, err := g.generate(ctx, contents)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, errors.New("gemini: returned nil response")
	}
	if resp.FinishReason == FinishMaxTokens {
		return nil, ErrTruncated
	}

	cases, err := testplan.ParsePlan(resp.Text)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return &testplan.GenerateResult{TestCases: cases}, nil
}

func (g *Generator) generate(ctx context.Context, contents []*Content) (*GenerateContentResponse, error) {
	for attempt := 0; ; attempt++ {
		resp, err := g.client.GenerateContent(ctx, g.model, contents, BuildConfig())
		var apiErr *APIError
		if err == nil || attempt >= g.retries || !errors.As(err, &apiErr) || !apiErr.Retryable() {
			return resp, err
		}
		select {
		case <-ctx.Done():
			return nil, err
		case <-time.After(g.backoff * time.Duration(attempt+1)):
		}
	}
}

// BuildConfig returns the GenerateContentConfig for plan generation.
func BuildConfig() *GenerateContentConfig {
	temp := float32(0.4)
	return &GenerateContentConfig{
		SystemInstruction: &Content{
			Parts: []*Part{{Text: testplan.PlanSystemInstruction}},
		},
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
		ResponseSchema:   PlanSchema(),
		MaxOutputTokens:  DefaultMaxOutputTokens,
	}
}

// PlanSchema describes the {"test_cases": [...]} reply.
func PlanSchema() *Schema {
	str := func(desc string) *Schema { return &Schema{Type: "STRING", Description: desc} }
	step := &Schema{
		Type: "OBJECT",
		Properties: map[string]*Schema{
			"step_number":     {Type: "INTEGER"},
			"action":          str("What the tester does"),
			"expected_result": str("What the tester should observe"),
			"test_data":       str("Input values, if any"),
		},
		Required:         []string{"step_number", "action", "expected_result"},
		PropertyOrdering: []string{"step_number", "action", "expected_result", "test_data"},
	}
	testCase := &Schema{
		Type: "OBJECT",
		Properties: map[string]*Schema{
			"title":           str("Short imperative title"),
			"description":     str("What the test verifies"),
			"preconditions":   str("State required before the first step"),
			"expected_result": str("Overall outcome"),
			"priority":        {Type: "STRING", Enum: []string{"High", "Medium", "Low"}},
			"test_type":       {Type: "STRING", Enum: []string{"functional", "negative", "edge", "integration"}},
			"tags":            {Type: "ARRAY", Items: &Schema{Type: "STRING"}},
			"steps":           {Type: "ARRAY", Items: step},
		},
		Required: []string{"title", "steps"},
		PropertyOrdering: []string{
			"title", "description", "preconditions", "expected_result",
			"priority", "test_type", "tags", "steps",
		},
	}
	return &Schema{
		Type: "OBJECT",
		Properties: map[string]*Schema{
			"test_cases": {Type: "ARRAY", Items: testCase},
		},
		Required: []string{"test_cases"},
	}
}
