package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Open connects to src and pings it before returning.
func Open(ctx context.Context, src Source) (*sql.DB, error) {
	var db *sql.DB
	switch src.Driver {
	case DriverPostgres:
		cfg, err := pgx.ParseConfig(src.DSN)
		if err != nil {
			return nil, fmt.Errorf("datasource: parse %s: %w", src.Name, err)
		}
		db = stdlib.OpenDB(*cfg)
	case DriverSQLite:
		var err error
		db, err = sql.Open(string(DriverSQLite), sqliteDSN(src.DSN))
		if err != nil {
			return nil, fmt.Errorf("datasource: open %s: %w", src.Name, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, src.Driver)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("datasource: ping %s: %w", src.Name, err)
	}
	return db, nil
}

var uriEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// sqliteDSN opens a plain database path read-write without creating it, so
// a misspelled Database fails at the ping. file: URIs and :memory: are used
// as given.
func sqliteDSN(dsn string) string {
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return dsn
	}
	return "file:" + uriEscaper.Replace(filepath.ToSlash(dsn)) + "?mode=rw"
}
