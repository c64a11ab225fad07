//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/stepmigrate/internal/database"
)

func TestOpen_postgres_connectsAndClassifies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := OpenPostgres(t)

	assert.Equal(t, database.DriverPostgres, db.Dialect.Name())

	_, err := db.SQL.ExecContext(ctx, "CREATE TABLE t (id INT PRIMARY KEY, code TEXT UNIQUE)")
	require.NoError(t, err)
	_, err = db.SQL.ExecContext(ctx, "INSERT INTO t (id, code) VALUES (1, 'a')")
	require.NoError(t, err)

	tests := []struct {
		name string
		stmt string
		want database.ErrorKind
	}{
		{name: "table exists", stmt: "CREATE TABLE t (id INT)", want: database.KindObjectExists},
		{name: "column exists", stmt: "ALTER TABLE t ADD COLUMN code TEXT", want: database.KindObjectExists},
		{name: "schema exists", stmt: "CREATE SCHEMA public", want: database.KindObjectExists},
		{name: "duplicate key", stmt: "INSERT INTO t (id, code) VALUES (1, 'b')", want: database.KindUniqueViolation},
		{name: "missing relation", stmt: "INSERT INTO nowhere VALUES (1)", want: database.KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.SQL.ExecContext(ctx, tt.stmt)
			require.Error(t, err)
			assert.Equal(t, tt.want, db.Dialect.Classify(err), err.Error())
		})
	}
}

func TestConfigureTx_setsLocalTimeouts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := OpenPostgres(t)

	tx, err := db.SQL.BeginTx(ctx, nil)
	require.NoError(t, err)

	defer tx.Rollback() //nolint:errcheck // test cleanup

	require.NoError(t, db.Dialect.ConfigureTx(ctx, tx, database.TxSettings{
		LockTimeout:      3 * time.Second,
		StatementTimeout: 7 * time.Second,
	}))

	var lock, stmt string
	require.NoError(t, tx.QueryRowContext(ctx, "SHOW lock_timeout").Scan(&lock))
	require.NoError(t, tx.QueryRowContext(ctx, "SHOW statement_timeout").Scan(&stmt))

	assert.Equal(t, "3s", lock)
	assert.Equal(t, "7s", stmt)
}
