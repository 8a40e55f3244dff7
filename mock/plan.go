package mock

import (
	"context"

	"github.com/fwojciec/testplan"
)

// Compile-time interface verification.
var (
	_ testplan.PlanClient       = (*PlanClient)(nil)
	_ testplan.GenerationClient = (*GenerationClient)(nil)
	_ testplan.PlanLister       = (*PlanLister)(nil)
)

// PlanClient is a mock implementation of testplan.PlanClient.
type PlanClient struct {
	GetFn    func(ctx context.Context, issueKey string) ([]testplan.TestCase, error)
	UpdateFn func(ctx context.Context, issueKey string, cases []testplan.TestCase, uploadImmediately bool, projectKey string) (*testplan.UpdateResult, error)
	DeleteFn func(ctx context.Context, issueKey string) error
}

func (c *PlanClient) Get(ctx context.Context, issueKey string) ([]testplan.TestCase, error) {
	return c.GetFn(ctx, issueKey)
}

func (c *PlanClient) Update(ctx context.Context, issueKey string, cases []testplan.TestCase, uploadImmediately bool, projectKey string) (*testplan.UpdateResult, error) {
	return c.UpdateFn(ctx, issueKey, cases, uploadImmediately, projectKey)
}

func (c *PlanClient) Delete(ctx context.Context, issueKey string) error {
	return c.DeleteFn(ctx, issueKey)
}

// GenerationClient is a mock implementation of testplan.GenerationClient.
type GenerationClient struct {
	GenerateFn func(ctx context.Context, req testplan.GenerateRequest) (*testplan.GenerateResult, error)
}

func (c *GenerationClient) Generate(ctx context.Context, req testplan.GenerateRequest) (*testplan.GenerateResult, error) {
	return c.GenerateFn(ctx, req)
}

// PlanLister is a mock implementation of testplan.PlanLister.
type PlanLister struct {
	ListFn func(ctx context.Context) ([]testplan.PlanSummary, error)
}

func (l *PlanLister) List(ctx context.Context) ([]testplan.PlanSummary, error) {
	return l.ListFn(ctx)
}
