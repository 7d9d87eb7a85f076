package datasource

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Retry describes how often and on which errors an operation is repeated.
// Attempts counts the retries after the first call.
type Retry struct {
	Attempts  int
	Delay     time.Duration
	Retryable func(error) bool
}

// QueryRetry repeats a report query that lost a serialization conflict or
// a deadlock.
var QueryRetry = Retry{Attempts: 2, Delay: 200 * time.Millisecond, Retryable: IsConflict}

// ConnectRetry repeats opening a data source while the server is still
// starting up or recovering.
var ConnectRetry = Retry{Attempts: 3, Delay: 500 * time.Millisecond, Retryable: IsStarting}

// IsConflict reports a serialization failure or a deadlock.
func IsConflict(err error) bool {
	switch sqlState(err) {
	case "40001", "40P01":
		return true
	}
	return false
}

// IsStarting reports a server that does not accept connections yet.
func IsStarting(err error) bool {
	return sqlState(err) == "57P03"
}

func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// Do calls fn until it succeeds, fails with an error Retryable rejects, or
// the attempts are used up. The delay doubles after every retry and carries
// up to one delay of jitter.
func (r Retry) Do(ctx context.Context, fn func() error) error {
	delay := r.Delay
	err := fn()
	for attempt := 0; attempt < r.Attempts && err != nil; attempt++ {
		if r.Retryable == nil || !r.Retryable(err) {
			return err
		}
		wait := delay
		if delay > 0 {
			wait += time.Duration(rand.Int63n(int64(delay))) //nolint:gosec // jitter
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		delay *= 2
		err = fn()
	}
	return err
}
