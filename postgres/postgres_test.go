package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/fwojciec/testplan"
	"github.com/fwojciec/testplan/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB connects to TESTPLAN_TEST_DATABASE_URL or skips the test.
func openTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TESTPLAN_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TESTPLAN_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := postgres.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, postgres.EnsureSchema(ctx, db))
	return db
}

// uniqueKey returns an issue key no other test uses.
func uniqueKey() string {
	return "PGT-" + uuid.NewString()[:8]
}

func TestPlanStore_RoundTrip(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	ctx := context.Background()
	store := postgres.NewPlanStore(db)
	key := uniqueKey()
	t.Cleanup(func() { _ = store.Delete(context.Background(), key) })

	cases := []testplan.TestCase{
		{ID: "TC-1", Title: "First", Tags: []string{"smoke"}, Steps: []testplan.Step{{Number: 1, Action: "Open", ExpectedResult: "Opened"}}},
		{ID: "TC-2", Title: "Second", Steps: []testplan.Step{}},
	}
	res, err := store.Update(ctx, key, cases, false, "")
	require.NoError(t, err)
	assert.True(t, res.OK)

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "TC-1", got[0].ID)
	assert.Equal(t, "Opened", got[0].Steps[0].ExpectedResult)
	assert.Equal(t, "Second", got[1].Title)

	// Replacing keeps only the new cases, in order.
	_, err = store.Update(ctx, key, cases[1:], false, "")
	require.NoError(t, err)
	got, err = store.Get(ctx, key)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "TC-2", got[0].ID)
}

func TestPlanStore_EmptyPlanExists(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	ctx := context.Background()
	store := postgres.NewPlanStore(db)
	key := uniqueKey()
	t.Cleanup(func() { _ = store.Delete(context.Background(), key) })

	_, err := store.Update(ctx, key, nil, false, "")
	require.NoError(t, err)

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPlanStore_Delete(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	ctx := context.Background()
	store := postgres.NewPlanStore(db)
	key := uniqueKey()

	_, err := store.Update(ctx, key, []testplan.TestCase{{ID: "TC-1", Title: "Only"}}, false, "")
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, key))

	_, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, testplan.ErrNoPlan)
	assert.NoError(t, store.Delete(ctx, key))
}

func TestPlanStore_List(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	ctx := context.Background()
	store := postgres.NewPlanStore(db)
	key := uniqueKey()
	t.Cleanup(func() { _ = store.Delete(context.Background(), key) })

	_, err := store.Update(ctx, key, []testplan.TestCase{{Title: "A"}, {Title: "B"}, {Title: "C"}}, false, "")
	require.NoError(t, err)

	got, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, got, testplan.PlanSummary{IssueKey: key, Count: 3})
}

func TestOpen_InvalidDSN(t *testing.T) {
	t.Parallel()

	_, err := postgres.Open(context.Background(), "postgres://%zz")
	assert.Error(t, err)
}
