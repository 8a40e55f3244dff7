// Package postgres stores test plans in PostgreSQL using pgx.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/testplan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Compile-time interface verification.
var (
	_ testplan.PlanClient = (*PlanStore)(nil)
	_ testplan.PlanLister = (*PlanStore)(nil)
)

// pingTimeout bounds the connectivity check in Open.
const pingTimeout = 5 * time.Second

// Open connects to the database at dsn and verifies connectivity.
func Open(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the required tables if they do not exist.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS test_plans (
            issue_key TEXT PRIMARY KEY,
            created TIMESTAMPTZ NOT NULL DEFAULT now(),
            updated TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
		`CREATE TABLE IF NOT EXISTS test_cases (
            issue_key TEXT NOT NULL REFERENCES test_plans(issue_key) ON DELETE CASCADE,
            position INT NOT NULL,
            body JSONB NOT NULL,
            PRIMARY KEY (issue_key, position)
        )`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(ctx, s); err != nil {
			return fmt.Errorf("postgres: ensure schema: %w", err)
		}
	}
	return nil
}

// PlanStore implements testplan.PlanClient with one row per test case,
// ordered by position.
type PlanStore struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// Option configures a PlanStore.
type Option func(*PlanStore)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *PlanStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewPlanStore creates a PlanStore over db. Call EnsureSchema first.
func NewPlanStore(db *pgxpool.Pool, opts ...Option) *PlanStore {
	s := &PlanStore{
		db:     db,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get implements testplan.PlanClient.
func (s *PlanStore) Get(ctx context.Context, issueKey string) ([]testplan.TestCase, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM test_plans WHERE issue_key=$1)`, issueKey).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("postgres: get plan %s: %w", issueKey, err)
	}
	if !exists {
		return nil, testplan.ErrNoPlan
	}

	rows, err := s.db.Query(ctx, `SELECT body FROM test_cases WHERE issue_key=$1 ORDER BY position`, issueKey)
	if err != nil {
		return nil, fmt.Errorf("postgres: get plan %s: %w", issueKey, err)
	}
	defer rows.Close()

	cases := []testplan.TestCase{}
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var tc testplan.TestCase
		if err := json.Unmarshal(body, &tc); err != nil {
			s.logger.Warn("stored test case is not valid JSON", "issue", issueKey, "error", err)
			return nil, fmt.Errorf("%w: %v", testplan.ErrMalformedPlan, err)
		}
		cases = append(cases, tc)
	}
	return cases, rows.Err()
}

// Update implements testplan.PlanClient. The plan is replaced in a single
// transaction. The store cannot upload, so uploadImmediately and projectKey
// are ignored.
func (s *PlanStore) Update(ctx context.Context, issueKey string, cases []testplan.TestCase, _ bool, _ string) (*testplan.UpdateResult, error) {
	bodies := make([][]byte, len(cases))
	for i, tc := range cases {
		b, err := json.Marshal(tc)
		if err != nil {
			return nil, err
		}
		bodies[i] = b
	}

	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `INSERT INTO test_plans (issue_key) VALUES ($1)
            ON CONFLICT (issue_key) DO UPDATE SET updated=now()`, issueKey); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM test_cases WHERE issue_key=$1`, issueKey); err != nil {
			return err
		}
		batch := &pgx.Batch{}
		for i, b := range bodies {
			batch.Queue(`INSERT INTO test_cases (issue_key, position, body) VALUES ($1, $2, $3)`, issueKey, i, b)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: update plan %s: %w", issueKey, err)
	}
	s.logger.Debug("plan stored", "issue", issueKey, "count", len(cases))
	return &testplan.UpdateResult{OK: true, Message: "Test plan updated"}, nil
}

// Delete implements testplan.PlanClient. Deleting a missing plan is not an
// error.
func (s *PlanStore) Delete(ctx context.Context, issueKey string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM test_plans WHERE issue_key=$1`, issueKey); err != nil {
		return fmt.Errorf("postgres: delete plan %s: %w", issueKey, err)
	}
	return nil
}

// List implements testplan.PlanLister.
func (s *PlanStore) List(ctx context.Context) ([]testplan.PlanSummary, error) {
	rows, err := s.db.Query(ctx, `SELECT p.issue_key, count(c.position)
        FROM test_plans p LEFT JOIN test_cases c ON c.issue_key = p.issue_key
        GROUP BY p.issue_key ORDER BY p.issue_key`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list plans: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (testplan.PlanSummary, error) {
		var ps testplan.PlanSummary
		err := row.Scan(&ps.IssueKey, &ps.Count)
		return ps, err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: list plans: %w", err)
	}
	return out, nil
}
