package sqlreport

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/rptrun/internal/datasource"
)

func TestExpand(t *testing.T) {
	values := map[string]any{"A": 1.0, "B": "x"}
	lookup := func(name string) (any, error) {
		v, ok := values[name]
		if !ok {
			return nil, errors.New("unknown " + name)
		}
		return v, nil
	}

	q := "SELECT * FROM t WHERE a = {?A} AND b = {? B } OR a > {?A}"

	sql, args, err := expand(q, datasource.DriverPostgres, lookup)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2 OR a > $3", sql)
	assert.Equal(t, []any{1.0, "x", 1.0}, args)

	sql, args, err = expand(q, datasource.DriverSQLite, lookup)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t WHERE a = ? AND b = ? OR a > ?", sql)
	assert.Len(t, args, 3)

	_, _, err = expand("SELECT {?C}", datasource.DriverSQLite, lookup)
	assert.ErrorContains(t, err, "unknown C")

	sql, args, err = expand("SELECT '{literal}'", datasource.DriverSQLite, lookup)
	require.NoError(t, err)
	assert.Equal(t, "SELECT '{literal}'", sql)
	assert.Empty(t, args)
}

func TestReferences(t *testing.T) {
	assert.Equal(t, []string{"A", "B"}, references("{?A} {?B} {?a}"))
	assert.Empty(t, references("SELECT 1"))
}
