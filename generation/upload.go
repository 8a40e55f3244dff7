package generation

import (
	"context"
	"fmt"

	"github.com/fwojciec/testplan"
)

// Compile-time interface verification.
var _ testplan.GenerationClient = (*UploadingClient)(nil)

// UploadingClient decorates a GenerationClient that cannot upload by
// itself. When a request asks for an immediate upload and the wrapped
// client did not report one, the generated cases are uploaded with the
// UploadClient.
type UploadingClient struct {
	inner    testplan.GenerationClient
	uploader testplan.UploadClient
}

// NewUploadingClient creates an UploadingClient.
func NewUploadingClient(inner testplan.GenerationClient, uploader testplan.UploadClient) *UploadingClient {
	return &UploadingClient{inner: inner, uploader: uploader}
}

// Generate implements testplan.GenerationClient.
func (c *UploadingClient) Generate(ctx context.Context, req testplan.GenerateRequest) (*testplan.GenerateResult, error) {
	res, err := c.inner.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	if !req.UploadImmediately || res.Upload != nil || len(res.TestCases) == 0 {
		return res, nil
	}
	projectKey := req.ProjectKey
	if projectKey == "" {
		projectKey = testplan.ProjectKey(req.IssueKey)
	}
	up, err := c.uploader.UploadSubset(ctx, req.IssueKey, res.TestCases, projectKey, req.FolderID)
	if err != nil {
		return nil, fmt.Errorf("generated %d test cases but upload failed: %w", len(res.TestCases), err)
	}
	res.Upload = up
	return res, nil
}
