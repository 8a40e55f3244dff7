package http

import (
	"context"
	"net/http"
	"net/url"

	"github.com/fwojciec/testplan"
)

type uploadRequest struct {
	StoryKey   string              `json:"story_key"`
	TestCases  []testplan.TestCase `json:"test_cases"`
	ProjectKey string              `json:"project_key"`
	FolderID   string              `json:"folder_id,omitempty"`
}

type uploadResponse struct {
	ZephyrResults testplan.UploadResult `json:"zephyr_results"`
}

// UploadSubset implements testplan.UploadClient.
func (c *Client) UploadSubset(ctx context.Context, issueKey string, cases []testplan.TestCase, projectKey, folderID string) (*testplan.UploadResult, error) {
	req := uploadRequest{
		StoryKey:   issueKey,
		TestCases:  cases,
		ProjectKey: projectKey,
		FolderID:   folderID,
	}
	var res uploadResponse
	if err := c.do(ctx, http.MethodPost, "/api/zephyr/upload", nil, req, &res, false); err != nil {
		return nil, err
	}
	return &res.ZephyrResults, nil
}

type cycleRequest struct {
	StoryKey   string              `json:"story_key"`
	TestCases  []testplan.TestCase `json:"test_cases"`
	ProjectKey string              `json:"project_key"`
	CycleName  string              `json:"cycle_name"`
	FolderPath string              `json:"folder_path,omitempty"`
}

// UploadToCycle implements testplan.UploadClient. A response with
// success=false is returned as-is for the caller to report.
func (c *Client) UploadToCycle(ctx context.Context, issueKey string, cases []testplan.TestCase, projectKey, cycleName, folderPath string) (*testplan.CycleUploadResult, error) {
	req := cycleRequest{
		StoryKey:   issueKey,
		TestCases:  cases,
		ProjectKey: projectKey,
		CycleName:  cycleName,
		FolderPath: folderPath,
	}
	var res testplan.CycleUploadResult
	if err := c.do(ctx, http.MethodPost, "/api/zephyr/upload-to-cycle", nil, req, &res, false); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListFolders implements testplan.FolderClient.
func (c *Client) ListFolders(ctx context.Context, projectKey string, kind testplan.FolderKind) ([]testplan.Folder, error) {
	q := url.Values{}
	q.Set("project_key", projectKey)
	q.Set("folder_type", string(kind))
	var res struct {
		Folders []testplan.Folder `json:"folders"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/zephyr/folders", q, nil, &res, true); err != nil {
		return nil, err
	}
	return res.Folders, nil
}
