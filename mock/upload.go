package mock

import (
	"context"

	"github.com/fwojciec/testplan"
)

// Compile-time interface verification.
var (
	_ testplan.UploadClient = (*UploadClient)(nil)
	_ testplan.FolderClient = (*FolderClient)(nil)
)

// UploadClient is a mock implementation of testplan.UploadClient.
type UploadClient struct {
	UploadSubsetFn  func(ctx context.Context, issueKey string, cases []testplan.TestCase, projectKey, folderID string) (*testplan.UploadResult, error)
	UploadToCycleFn func(ctx context.Context, issueKey string, cases []testplan.TestCase, projectKey, cycleName, folderPath string) (*testplan.CycleUploadResult, error)
}

func (c *UploadClient) UploadSubset(ctx context.Context, issueKey string, cases []testplan.TestCase, projectKey, folderID string) (*testplan.UploadResult, error) {
	return c.UploadSubsetFn(ctx, issueKey, cases, projectKey, folderID)
}

func (c *UploadClient) UploadToCycle(ctx context.Context, issueKey string, cases []testplan.TestCase, projectKey, cycleName, folderPath string) (*testplan.CycleUploadResult, error) {
	return c.UploadToCycleFn(ctx, issueKey, cases, projectKey, cycleName, folderPath)
}

// FolderClient is a mock implementation of testplan.FolderClient.
type FolderClient struct {
	ListFoldersFn func(ctx context.Context, projectKey string, kind testplan.FolderKind) ([]testplan.Folder, error)
}

func (c *FolderClient) ListFolders(ctx context.Context, projectKey string, kind testplan.FolderKind) ([]testplan.Folder, error) {
	return c.ListFoldersFn(ctx, projectKey, kind)
}
