package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-3-flash-preview"

var _ GenerativeClient = (*Client)(nil)

// Client adapts genai.Client to GenerativeClient.
type Client struct {
	models *genai.Models
}

// ClientOption configures NewClient.
type ClientOption func(*genai.ClientConfig)

// WithBaseURL points the client at a proxy or a regional endpoint.
func WithBaseURL(url string) ClientOption {
	return func(cc *genai.ClientConfig) {
		cc.HTTPOptions.BaseURL = url
	}
}

// NewClient connects to the Gemini API with apiKey.
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	cc := &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}
	for _, opt := range opts {
		opt(cc)
	}
	gc, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to create client: %w", err)
	}
	return &Client{models: gc.Models}, nil
}

// GenerateContent sends contents as user turns and returns the first
// candidate's text.
func (c *Client) GenerateContent(ctx context.Context, model string, contents []*Content, config *GenerateContentConfig) (*GenerateContentResponse, error) {
	turns := make([]*genai.Content, 0, len(contents))
	for _, content := range contents {
		turns = append(turns, content.genai("user"))
	}

	result, err := c.models.GenerateContent(ctx, model, turns, config.genai())
	if err != nil {
		var apiErr *genai.APIError
		if errors.As(err, &apiErr) {
			return nil, &APIError{
				StatusCode: apiErr.Code,
				Message:    fmt.Sprintf("gemini API error (HTTP %d): %s", apiErr.Code, apiErr.Message),
			}
		}
		return nil, err
	}

	resp := &GenerateContentResponse{Text: result.Text()}
	if len(result.Candidates) > 0 && result.Candidates[0] != nil {
		resp.FinishReason = string(result.Candidates[0].FinishReason)
	}
	return resp, nil
}

func (c *Content) genai(role string) *genai.Content {
	out := &genai.Content{Role: role}
	for _, p := range c.Parts {
		out.Parts = append(out.Parts, genai.NewPartFromText(p.Text))
	}
	return out
}

func (c *GenerateContentConfig) genai() *genai.GenerateContentConfig {
	if c == nil {
		return nil
	}
	out := &genai.GenerateContentConfig{
		Temperature:      c.Temperature,
		ResponseMIMEType: c.ResponseMIMEType,
		MaxOutputTokens:  c.MaxOutputTokens,
		ResponseSchema:   c.ResponseSchema.genai(),
	}
	if c.SystemInstruction != nil {
		out.SystemInstruction = c.SystemInstruction.genai("")
	}
	return out
}

func (s *Schema) genai() *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:             genai.Type(s.Type),
		Description:      s.Description,
		Enum:             s.Enum,
		Items:            s.Items.genai(),
		Required:         s.Required,
		PropertyOrdering: s.PropertyOrdering,
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = prop.genai()
		}
	}
	return out
}
