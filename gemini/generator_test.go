package gemini_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fwojciec/testplan"
	"github.com/fwojciec/testplan/gemini"
	"github.com/fwojciec/testplan/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const planJSON = `{"test_cases":[{"title":"Reset with valid email","priority":"High","steps":[{"step_number":1,"action":"Request reset","expected_result":"Email sent"}]}]}`

func TestGenerator_Generate(t *testing.T) {
	t.Parallel()

	stories := &mock.StoryFetcher{
		StoryFn: func(_ context.Context, key string) (*testplan.Story, error) {
			assert.Equal(t, "PLAT-9", key)
			return &testplan.Story{Key: key, Title: "Password reset", Description: "Users reset by email."}, nil
		},
	}
	client := &gemini.MockGenerativeClient{
		GenerateContentFn: func(_ context.Context, model string, contents []*gemini.Content, config *gemini.GenerateContentConfig) (*gemini.GenerateContentResponse, error) {
			assert.Equal(t, "custom-model", model)
			require.Len(t, contents, 1)
			assert.Contains(t, contents[0].Parts[0].Text, "Users reset by email.")
			assert.Equal(t, "application/json", config.ResponseMIMEType)
			require.NotNil(t, config.ResponseSchema)
			assert.EqualValues(t, gemini.DefaultMaxOutputTokens, config.MaxOutputTokens)
			return &gemini.GenerateContentResponse{Text: planJSON}, nil
		},
	}
	gen := gemini.NewGenerator(client, stories, gemini.WithModel("custom-model"))

	res, err := gen.Generate(context.Background(), testplan.GenerateRequest{IssueKey: "PLAT-9"})

	require.NoError(t, err)
	require.Len(t, res.TestCases, 1)
	assert.Equal(t, "Reset with valid email", res.TestCases[0].Title)
	assert.Nil(t, res.Upload)
}

func TestGenerator_Generate_WithoutStoryFetcher(t *testing.T) {
	t.Parallel()

	client := &gemini.MockGenerativeClient{
		GenerateContentFn: func(_ context.Context, model string, contents []*gemini.Content, _ *gemini.GenerateContentConfig) (*gemini.GenerateContentResponse, error) {
			assert.Equal(t, gemini.DefaultModel, model)
			assert.Contains(t, contents[0].Parts[0].Text, "Title: Login")
			return &gemini.GenerateContentResponse{Text: planJSON}, nil
		},
	}
	gen := gemini.NewGenerator(client, nil)

	_, err := gen.Generate(context.Background(), testplan.GenerateRequest{IssueKey: "PLAT-1", StoryTitle: "Login"})

	require.NoError(t, err)
}

func TestGenerator_Generate_AppliesTimeout(t *testing.T) {
	t.Parallel()

	client := &gemini.MockGenerativeClient{
		GenerateContentFn: func(ctx context.Context, _ string, _ []*gemini.Content, _ *gemini.GenerateContentConfig) (*gemini.GenerateContentResponse, error) {
			_, ok := ctx.Deadline()
			assert.True(t, ok)
			return &gemini.GenerateContentResponse{Text: planJSON}, nil
		},
	}
	gen := gemini.NewGenerator(client, nil, gemini.WithTimeout(time.Minute))

	_, err := gen.Generate(context.Background(), testplan.GenerateRequest{IssueKey: "PLAT-1"})

	require.NoError(t, err)
}

func TestGenerator_Generate_Errors(t *testing.T) {
	t.Parallel()

	t.Run("story fetch failure", func(t *testing.T) {
		t.Parallel()

		stories := &mock.StoryFetcher{
			StoryFn: func(context.Context, string) (*testplan.Story, error) { return nil, errors.New("jira down") },
		}
		gen := gemini.NewGenerator(&gemini.MockGenerativeClient{}, stories)

		_, err := gen.Generate(context.Background(), testplan.GenerateRequest{IssueKey: "PLAT-1"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to fetch story")
	})

	t.Run("API error passes through", func(t *testing.T) {
		t.Parallel()

		client := &gemini.MockGenerativeClient{
			GenerateContentFn: func(context.Context, string, []*gemini.Content, *gemini.GenerateContentConfig) (*gemini.GenerateContentResponse, error) {
				return nil, &gemini.APIError{StatusCode: 429, Message: "rate limited"}
			},
		}
		gen := gemini.NewGenerator(client, nil, gemini.WithRetries(0, 0))

		_, err := gen.Generate(context.Background(), testplan.GenerateRequest{IssueKey: "PLAT-1"})

		var apiErr *gemini.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.True(t, apiErr.Retryable())
	})

	t.Run("nil response", func(t *testing.T) {
		t.Parallel()

		client := &gemini.MockGenerativeClient{
			GenerateContentFn: func(context.Context, string, []*gemini.Content, *gemini.GenerateContentConfig) (*gemini.GenerateContentResponse, error) {
				return nil, nil
			},
		}
		gen := gemini.NewGenerator(client, nil)

		_, err := gen.Generate(context.Background(), testplan.GenerateRequest{IssueKey: "PLAT-1"})

		require.EqualError(t, err, "gemini: returned nil response")
	})

	t.Run("empty plan", func(t *testing.T) {
		t.Parallel()

		client := &gemini.MockGenerativeClient{
			GenerateContentFn: func(context.Context, string, []*gemini.Content, *gemini.GenerateContentConfig) (*gemini.GenerateContentResponse, error) {
				return &gemini.GenerateContentResponse{Text: `{"test_cases":[]}`}, nil
			},
		}
		gen := gemini.NewGenerator(client, nil)

		_, err := gen.Generate(context.Background(), testplan.GenerateRequest{IssueKey: "PLAT-1"})

		require.ErrorIs(t, err, testplan.ErrEmptyPlan)
	})
}

func TestPlanSchema(t *testing.T) {
	t.Parallel()

	s := gemini.PlanSchema()

	require.Contains(t, s.Properties, "test_cases")
	items := s.Properties["test_cases"].Items
	require.NotNil(t, items)
	assert.Contains(t, items.Required, "title")
	assert.Equal(t, "ARRAY", items.Properties["steps"].Type)
}

func TestGenerator_Generate_RetriesRetryableErrors(t *testing.T) {
	t.Parallel()

	calls := 0
	client := &gemini.MockGenerativeClient{
		GenerateContentFn: func(context.Context, string, []*gemini.Content, *gemini.GenerateContentConfig) (*gemini.GenerateContentResponse, error) {
			calls++
			if calls < 3 {
				return nil, &gemini.APIError{StatusCode: 503, Message: "overloaded"}
			}
			return &gemini.GenerateContentResponse{Text: planJSON}, nil
		},
	}
	gen := gemini.NewGenerator(client, nil, gemini.WithRetries(2, time.Millisecond))

	res, err := gen.Generate(context.Background(), testplan.GenerateRequest{IssueKey: "PLAT-1"})

	require.NoError(t, err)
	assert.Len(t, res.TestCases, 1)
	assert.Equal(t, 3, calls)
}

func TestGenerator_Generate_DoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	calls := 0
	client := &gemini.MockGenerativeClient{
		GenerateContentFn: func(context.Context, string, []*gemini.Content, *gemini.GenerateContentConfig) (*gemini.GenerateContentResponse, error) {
			calls++
			return nil, &gemini.APIError{StatusCode: 400, Message: "bad request"}
		},
	}
	gen := gemini.NewGenerator(client, nil, gemini.WithRetries(3, time.Millisecond))

	_, err := gen.Generate(context.Background(), testplan.GenerateRequest{IssueKey: "PLAT-1"})

	var apiErr *gemini.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.StatusCode)
	assert.Equal(t, 1, calls)
}

func TestGenerator_Generate_Truncated(t *testing.T) {
	t.Parallel()

	client := &gemini.MockGenerativeClient{
		GenerateContentFn: func(context.Context, string, []*gemini.Content, *gemini.GenerateContentConfig) (*gemini.GenerateContentResponse, error) {
			return &gemini.GenerateContentResponse{Text: `{"test_cases":[{"title":"Cut`, FinishReason: gemini.FinishMaxTokens}, nil
		},
	}
	gen := gemini.NewGenerator(client, nil)

	_, err := gen.Generate(context.Background(), testplan.GenerateRequest{IssueKey: "PLAT-1"})

	assert.ErrorIs(t, err, gemini.ErrTruncated)
}
