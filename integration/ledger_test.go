//go:build integration

package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/stepmigrate/internal/ledger"
)

func TestLedger_postgres_lifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := OpenPostgres(t)
	l := ledger.New(db)

	require.NoError(t, l.EnsureTable(ctx))
	require.NoError(t, l.EnsureTable(ctx))

	require.NoError(t, l.Record(ctx, nil, "001_users.sql", "0_init"))
	require.NoError(t, l.Record(ctx, nil, "001_seed.sql", "1_seed"))

	err := l.Record(ctx, nil, "001_users.sql", "1_seed")
	require.ErrorIs(t, err, ledger.ErrDuplicateMigration)

	records, err := l.ListApplied(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "001_users.sql", records[0].Filename)
	assert.False(t, records[0].AppliedAt.IsZero())
}

func TestLedger_postgres_resetDropsDependentObjects(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := OpenPostgres(t)
	l := ledger.New(db)
	require.NoError(t, l.EnsureTable(ctx))

	for _, stmt := range []string{
		"CREATE TABLE parents (id INT PRIMARY KEY)",
		"CREATE TABLE children (id INT PRIMARY KEY, parent_id INT REFERENCES parents(id))",
		"CREATE VIEW child_ids AS SELECT id FROM children",
	} {
		_, err := db.SQL.ExecContext(ctx, stmt)
		require.NoError(t, err, stmt)
	}

	require.NoError(t, l.Reset(ctx))

	var n int
	require.NoError(t, db.SQL.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema()`).Scan(&n))
	assert.Equal(t, 1, n, "only the ledger remains")
}
