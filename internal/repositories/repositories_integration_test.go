//go:build integration

package repositories_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skyroute-backend/internal/database"
	"skyroute-backend/internal/models"
	"skyroute-backend/internal/repositories"
	"skyroute-backend/internal/sequence"
	"skyroute-backend/migrations"
	"skyroute-backend/pkg/logger"
)

// Run with: SKYROUTE_TEST_DSN=postgres://... go test -tags integration ./internal/repositories/
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("SKYROUTE_TEST_DSN")
	if dsn == "" {
		t.Skip("SKYROUTE_TEST_DSN not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = database.NewMigrator(pool, migrations.FS, ".", logger.NewNop()).RunMigrations(ctx)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `TRUNCATE entries, document_sequences, sheet_archives RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return pool
}

func ramp(c209 string) *models.Entry {
	return &models.Entry{Type: models.EntryTypeRamp, C209Number: c209, MonthYear: "FEB-26", ContainerCode: "TA2009"}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	pool := testPool(t)
	applied, err := database.NewMigrator(pool, migrations.FS, ".", logger.NewNop()).RunMigrations(context.Background())
	require.NoError(t, err)
	assert.Zero(t, applied)
}

func TestEntryCreateGetDelete(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewEntryRepository(testPool(t))

	pieces := 3
	e := ramp("FEB0001")
	e.Pieces = &pieces
	require.NoError(t, repo.Create(ctx, e))
	assert.NotZero(t, e.ID)
	assert.WithinDuration(t, time.Now(), e.CreatedAt, time.Minute)

	got, err := repo.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "FEB0001", got.C209Number)
	assert.Equal(t, 3, *got.Pieces)
	assert.Empty(t, got.C208Number)

	found, err := repo.FindRampByC209(ctx, "feb0001")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, e.ID, found.ID)

	deleted, err := repo.Delete(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(ctx, e.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	got, err = repo.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestBackdatedCreatedAtIsKept(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewEntryRepository(testPool(t))

	when := time.Date(2026, time.January, 20, 9, 30, 0, 0, time.UTC)
	e := ramp("JAN0001")
	e.CreatedAt = when
	require.NoError(t, repo.Create(ctx, e))
	assert.True(t, e.CreatedAt.Equal(when))
}

func TestDuplicateRampNumberIsRejected(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewEntryRepository(testPool(t))

	require.NoError(t, repo.Create(ctx, ramp("FEB0001")))
	err := repo.Create(ctx, ramp("FEB0001"))
	assert.ErrorIs(t, err, repositories.ErrDuplicateNumber)

	// A logistic entry references the ramp C209 and is not a duplicate
	logistic := &models.Entry{Type: models.EntryTypeLogistic, C209Number: "FEB0001", C208Number: "FEB0001", MonthYear: "FEB-26"}
	require.NoError(t, repo.Create(ctx, logistic))

	again := &models.Entry{Type: models.EntryTypeLogistic, C209Number: "FEB0001", C208Number: "FEB0001", MonthYear: "FEB-26"}
	assert.ErrorIs(t, repo.Create(ctx, again), repositories.ErrDuplicateNumber)
}

func TestMaxNumberOrdersNumerically(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewEntryRepository(testPool(t))

	for _, n := range []string{"FEB0009", "FEB0010", "FEB10000", "FEBXXXX", "MAR0050"} {
		require.NoError(t, repo.Create(ctx, ramp(n)))
	}

	max, ok, err := repo.MaxNumber(ctx, sequence.C209, "FEB")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "FEB10000", max, "non-numeric suffixes are skipped")

	_, ok, err = repo.MaxNumber(ctx, sequence.C208, "FEB")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMaxNumberIgnoresNonNumericOnlyPrefix(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewEntryRepository(testPool(t))
	require.NoError(t, repo.Create(ctx, ramp("APRXXXX")))

	_, ok, err := repo.MaxNumber(ctx, sequence.C209, "APR")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListSearchAndLimit(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewEntryRepository(testPool(t))

	a := ramp("FEB0001")
	a.FlightNumber = "TOM123"
	b := ramp("FEB0002")
	b.ContainerCode = "EZ_50%"
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	rows, err := repo.List(ctx, models.EntryFilter{Search: "tom1", Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "FEB0001", rows[0].C209Number)

	rows, err = repo.List(ctx, models.EntryFilter{Search: "_50%", Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 1, "LIKE wildcards in the search are literal")
	assert.Equal(t, "FEB0002", rows[0].C209Number)

	rows, err = repo.List(ctx, models.EntryFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "FEB0002", rows[0].C209Number, "newest first")

	rows, err = repo.List(ctx, models.EntryFilter{Type: models.EntryTypeLogistic, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCounterSeedsFromExistingEntries(t *testing.T) {
	ctx := context.Background()
	pool := testPool(t)
	entries := repositories.NewEntryRepository(pool)
	counter := repositories.NewSequenceRepository(pool)

	require.NoError(t, entries.Create(ctx, ramp("FEB0007")))
	require.NoError(t, entries.Create(ctx, ramp("FEBXXXX")))

	n, err := counter.Increment(ctx, sequence.C209, "FEB")
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	n, err = counter.Increment(ctx, sequence.C209, "FEB")
	require.NoError(t, err)
	assert.Equal(t, 9, n)

	n, err = counter.Increment(ctx, sequence.C208, "FEB")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCounterIsAtomicUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	alloc := sequence.NewCounterAllocator(repositories.NewSequenceRepository(testPool(t)))
	ref := time.Date(2026, time.February, 14, 12, 0, 0, 0, time.UTC)

	const workers = 20
	var mu sync.Mutex
	seen := map[string]bool{}
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := alloc.Next(ctx, sequence.C209, ref)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			seen[n.String()] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers)
	assert.True(t, seen["FEB0001"])
	assert.True(t, seen["FEB0020"])
}

func TestOperatorsAndLoginLogs(t *testing.T) {
	ctx := context.Background()
	pool := testPool(t)
	_, err := pool.Exec(ctx, `TRUNCATE operators RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	ops := repositories.NewOperatorRepository(pool)
	logs := repositories.NewLoginLogRepository(pool)

	op := &models.Operator{Username: "JDoe", DisplayName: "J Doe", Initials: "JD", PasswordHash: "x"}
	require.NoError(t, ops.Create(ctx, op))
	assert.True(t, op.IsActive)

	got, err := ops.GetByUsername(ctx, "jdoe")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, op.ID, got.ID)

	missing, err := ops.GetByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = logs.CreateLoginLog(ctx, op.ID, "10.0.0.1", "test")
	require.NoError(t, err)
	require.NoError(t, logs.UpdateLogoutTimeByOperator(ctx, op.ID))
}
