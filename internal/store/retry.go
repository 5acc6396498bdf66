package store

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/mattn/go-sqlite3"
)

// Lock contention retry policy. busy_timeout already waits inside SQLite;
// these retries cover a lock that outlives it, e.g. a second CLI process
// checkpointing the WAL.
const (
	busyAttempts = 5
	busyDelay    = 50 * time.Millisecond
)

// withBusyRetry runs fn until it succeeds, fails with an error other than
// SQLITE_BUSY/SQLITE_LOCKED, runs out of attempts, or ctx is done.
func withBusyRetry(ctx context.Context, fn func() error) error {
	return retry.Do(fn,
		retry.Context(ctx),
		retry.Attempts(busyAttempts),
		retry.Delay(busyDelay),
		retry.RetryIf(isBusy),
		retry.LastErrorOnly(true),
	)
}

// isBusy reports whether err is SQLite lock contention.
func isBusy(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
}
