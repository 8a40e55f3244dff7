// Package llm generates test plans with any langchaingo model, so OpenAI
// compatible endpoints and local Ollama models can stand in for Gemini.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/fwojciec/testplan"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Compile-time interface verification.
var _ testplan.GenerationClient = (*Generator)(nil)

// DefaultTemperature is the sampling temperature for plan generation.
const DefaultTemperature = 0.4

// Provider names a langchaingo backend.
type Provider string

// Supported providers.
const (
	ProviderOpenAI Provider = "openai"
	ProviderOllama Provider = "ollama"
	ProviderGemini Provider = "googleai"
)

// ModelConfig selects and configures a model.
type ModelConfig struct {
	Provider Provider
	Model    string
	BaseURL  string
	APIKey   string
}

// NewModel creates the langchaingo model described by cfg.
func NewModel(ctx context.Context, cfg ModelConfig) (llms.Model, error) {
	provider := Provider(strings.ToLower(string(cfg.Provider)))
	if cfg.Model == "" {
		return nil, fmt.Errorf("llm: missing model for provider %q", provider)
	}

	switch provider {
	case ProviderOpenAI:
		opts := []openai.Option{openai.WithModel(cfg.Model)}
		if strings.TrimSpace(cfg.BaseURL) != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		if cfg.APIKey != "" {
			opts = append(opts, openai.WithToken(cfg.APIKey))
		}
		m, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("llm: openai init: %w", err)
		}
		return m, nil

	case ProviderOllama:
		opts := []ollama.Option{ollama.WithModel(cfg.Model)}
		if strings.TrimSpace(cfg.BaseURL) != "" {
			opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
		}
		m, err := ollama.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("llm: ollama init: %w", err)
		}
		return m, nil

	case ProviderGemini:
		opts := []googleai.Option{googleai.WithDefaultModel(cfg.Model)}
		if cfg.APIKey != "" {
			opts = append(opts, googleai.WithAPIKey(cfg.APIKey))
		}
		m, err := googleai.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("llm: googleai init: %w", err)
		}
		return m, nil

	default:
		return nil, fmt.Errorf("llm: unsupported provider %q", cfg.Provider)
	}
}

// Generator implements testplan.GenerationClient over a langchaingo model.
type Generator struct {
	model       llms.Model
	stories     testplan.StoryFetcher
	temperature float64
	jsonMode    bool
}

// Option configures a Generator.
type Option func(*Generator)

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(g *Generator) {
		g.temperature = t
	}
}

// WithJSONMode asks the provider for a JSON-only reply. Not every provider
// honours it; the reply is parsed leniently either way.
func WithJSONMode(v bool) Option {
	return func(g *Generator) {
		g.jsonMode = v
	}
}

// NewGenerator creates a Generator. stories may be nil.
func NewGenerator(model llms.Model, stories testplan.StoryFetcher, opts ...Option) *Generator {
	g := &Generator{
		model:       model,
		stories:     stories,
		temperature: DefaultTemperature,
		jsonMode:    true,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate implements testplan.GenerationClient.
func (g *Generator) Generate(ctx context.Context, req testplan.GenerateRequest) (*testplan.GenerateResult, error) {
	story := testplan.Story{Key: req.IssueKey, Title: req.StoryTitle}
	if g.stories != nil {
		s, err := g.stories.Story(ctx, req.IssueKey)
		if err != nil {
			return nil, fmt.Errorf("llm: failed to fetch story %s: %w", req.IssueKey, err)
		}
		story = *s
	}

	opts := []llms.CallOption{llms.WithTemperature(g.temperature)}
	if g.jsonMode {
		opts = append(opts, llms.WithJSONMode())
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, testplan.PlanSystemInstruction),
		llms.TextParts(llms.ChatMessageTypeHuman, testplan.BuildPlanPrompt(story)),
	}
	resp, err := g.model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return nil, fmt.Errorf("llm: generation failed: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, fmt.Errorf("llm: empty response from model")
	}

	cases, err := testplan.ParsePlan(resp.Choices[0].Content)
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}
	return &testplan.GenerateResult{TestCases: cases}, nil
}
