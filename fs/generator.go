package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/fwojciec/testplan"
)

// Compile-time interface verification.
var _ testplan.GenerationClient = (*Generator)(nil)

// Generator wraps a GenerationClient with file-based caching. Requests that
// upload immediately always reach the inner client, since the upload is a
// side effect a cached plan cannot replay.
type Generator struct {
	inner    testplan.GenerationClient
	cacheDir string
}

// NewGenerator creates a new caching generator.
func NewGenerator(inner testplan.GenerationClient, cacheDir string) *Generator {
	return &Generator{
		inner:    inner,
		cacheDir: cacheDir,
	}
}

type cachedPlan struct {
	TestCases []testplan.TestCase `json:"test_cases"`
}

// Generate returns a cached plan or delegates to the inner client.
func (g *Generator) Generate(ctx context.Context, req testplan.GenerateRequest) (*testplan.GenerateResult, error) {
	if req.UploadImmediately {
		return g.inner.Generate(ctx, req)
	}

	hash := g.hashRequest(req)

	if cached, err := g.loadFromCache(hash); err == nil {
		return &testplan.GenerateResult{TestCases: cached.TestCases}, nil
	}

	result, err := g.inner.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	// Best-effort.
	_ = g.saveToCache(hash, cachedPlan{TestCases: result.TestCases})

	return result, nil
}

// Invalidate drops any cached plan for req.
func (g *Generator) Invalidate(req testplan.GenerateRequest) error {
	err := os.Remove(g.cachePath(g.hashRequest(req)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (g *Generator) hashRequest(req testplan.GenerateRequest) string {
	data, _ := json.Marshal(req)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (g *Generator) cachePath(hash string) string {
	return filepath.Join(g.cacheDir, hash+".json")
}

func (g *Generator) loadFromCache(hash string) (*cachedPlan, error) {
	data, err := os.ReadFile(g.cachePath(hash))
	if err != nil {
		return nil, err
	}

	var plan cachedPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, err
	}
	if len(plan.TestCases) == 0 {
		return nil, testplan.ErrEmptyPlan
	}

	return &plan, nil
}

func (g *Generator) saveToCache(hash string, plan cachedPlan) error {
	if err := os.MkdirAll(g.cacheDir, 0755); err != nil {
		return err
	}

	data, err := json.Marshal(plan)
	if err != nil {
		return err
	}

	return os.WriteFile(g.cachePath(hash), data, 0644)
}
