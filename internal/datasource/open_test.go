package datasource

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/rptrun/internal/model"
	"github.com/ashita-ai/rptrun/internal/testutil"
)

func TestOpenSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "r.db")
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	src := Source{Name: "local", Driver: DriverSQLite, DSN: path}

	db, err := Open(ctx, src)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = db.ExecContext(ctx, "CREATE TABLE t (n INTEGER)")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, "INSERT INTO t VALUES (?)", 7)
	require.NoError(t, err)

	var n int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT n FROM t").Scan(&n))
	assert.Equal(t, 7, n)
}

func TestOpenSQLiteMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "typo.db")

	_, err := Open(context.Background(), Source{Name: "typo", Driver: DriverSQLite, DSN: path})
	assert.ErrorContains(t, err, "datasource: ping typo")
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "open must not create the database")
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "file:/data/sales.db?mode=rw", sqliteDSN("/data/sales.db"))
	assert.Equal(t, "file:/data/q%3f%23%25.db?mode=rw", sqliteDSN("/data/q?#%.db"))
	assert.Equal(t, "file:shared.db?cache=shared", sqliteDSN("file:shared.db?cache=shared"))
	assert.Equal(t, ":memory:", sqliteDSN(":memory:"))
}

func TestOpenUnsupported(t *testing.T) {
	_, err := Open(context.Background(), Source{Name: "x", Driver: "odbc"})
	assert.True(t, errors.Is(err, ErrUnsupportedDriver))
}

func TestOpenPostgresBadDSN(t *testing.T) {
	_, err := Open(context.Background(), Source{Name: "bad", Driver: DriverPostgres, DSN: "postgres://%zz"})
	assert.ErrorContains(t, err, "datasource: parse bad")
}

func TestOpenPostgres(t *testing.T) {
	pg := testutil.StartPostgres(t)
	reg, err := LoadRegistry(nil, testutil.TestLogger())
	require.NoError(t, err)

	src, err := reg.Resolve(model.ConnectionInfo{ServerName: pg.URL()})
	require.NoError(t, err)

	db, err := Open(context.Background(), src)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var one int
	require.NoError(t, db.QueryRow("SELECT 1").Scan(&one))
	assert.Equal(t, 1, one)
}
