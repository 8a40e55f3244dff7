package http

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/fwojciec/testplan"
)

type planEnvelope struct {
	TestPlan *struct {
		TestCases []testplan.TestCase `json:"test_cases"`
	} `json:"test_plan"`
	ZephyrResults *testplan.UploadResult `json:"zephyr_results,omitempty"`
}

type updateRequest struct {
	TestCases         []testplan.TestCase `json:"test_cases"`
	UploadImmediately bool                `json:"upload_immediately"`
	ProjectKey        string              `json:"project_key,omitempty"`
}

// Get implements testplan.PlanClient.
func (c *Client) Get(ctx context.Context, issueKey string) ([]testplan.TestCase, error) {
	var env planEnvelope
	err := c.do(ctx, http.MethodGet, "/api/test-plans/"+url.PathEscape(issueKey), nil, nil, &env, true)
	if isNotFound(err) {
		return nil, testplan.ErrNoPlan
	}
	if err != nil {
		return nil, err
	}
	if env.TestPlan == nil || env.TestPlan.TestCases == nil {
		return nil, testplan.ErrMalformedPlan
	}
	return env.TestPlan.TestCases, nil
}

// Update implements testplan.PlanClient.
func (c *Client) Update(ctx context.Context, issueKey string, cases []testplan.TestCase, uploadImmediately bool, projectKey string) (*testplan.UpdateResult, error) {
	req := updateRequest{
		TestCases:         cases,
		UploadImmediately: uploadImmediately,
		ProjectKey:        projectKey,
	}
	var res testplan.UpdateResult
	if err := c.do(ctx, http.MethodPut, "/api/test-plans/"+url.PathEscape(issueKey), nil, req, &res, true); err != nil {
		return nil, err
	}
	return &res, nil
}

// Delete implements testplan.PlanClient. Deleting a plan that does not
// exist is not an error.
func (c *Client) Delete(ctx context.Context, issueKey string) error {
	err := c.do(ctx, http.MethodDelete, "/api/test-plans/"+url.PathEscape(issueKey), nil, nil, nil, true)
	if isNotFound(err) {
		return nil
	}
	return err
}

type generateRequest struct {
	StoryKey          string `json:"story_key"`
	UploadImmediately bool   `json:"upload_to_zephyr"`
	ProjectKey        string `json:"project_key,omitempty"`
	FolderID          string `json:"folder_id,omitempty"`
}

// Generate implements testplan.GenerationClient with the backend's own
// generator, which also stores the plan and uploads when asked.
func (c *Client) Generate(ctx context.Context, req testplan.GenerateRequest) (*testplan.GenerateResult, error) {
	body := generateRequest{
		StoryKey:          req.IssueKey,
		UploadImmediately: req.UploadImmediately,
		ProjectKey:        req.ProjectKey,
		FolderID:          req.FolderID,
	}
	var env planEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/test-plans/generate", nil, body, &env, false); err != nil {
		return nil, err
	}
	if env.TestPlan == nil {
		return nil, fmt.Errorf("http: generate: %w", testplan.ErrMalformedPlan)
	}
	return &testplan.GenerateResult{
		TestCases: env.TestPlan.TestCases,
		Upload:    env.ZephyrResults,
	}, nil
}
