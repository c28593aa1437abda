package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/coursetrack/internal/pkg/logger"
)

// Lock keyspace discriminator; courses share one advisory lock namespace.
// XORed into the high bits of the course ID so the mapping from course to
// lock key stays bijective over the full int64 range.
const courseLockSeed int64 = 1001 << 32

func courseLockKey(courseID int64) int64 {
	return courseLockSeed ^ courseID
}

// AdvisoryLocker serializes operations on a per-course basis using
// PostgreSQL session advisory locks. The lock is held on a dedicated pooled
// connection for the duration of the callback and released on every exit
// path, so concurrent renumbering runs for the same course queue up instead
// of interleaving.
type AdvisoryLocker struct {
	pool *pgxpool.Pool
}

// NewAdvisoryLocker creates a new AdvisoryLocker over the given pool.
func NewAdvisoryLocker(pool *pgxpool.Pool) *AdvisoryLocker {
	return &AdvisoryLocker{pool: pool}
}

// WithCourseLock runs fn while holding the advisory lock for courseID.
// Acquisition blocks until the lock is available or ctx is done.
func (l *AdvisoryLocker) WithCourseLock(ctx context.Context, courseID int64, fn func(ctx context.Context) error) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection for course lock: %w", err)
	}
	defer conn.Release()

	key := courseLockKey(courseID)
	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", key); err != nil {
		return fmt.Errorf("failed to acquire course lock: %w", err)
	}

	defer func() {
		// Unlock must run even when ctx was cancelled mid-callback,
		// otherwise the session keeps the lock until the conn is destroyed.
		unlockCtx := context.WithoutCancel(ctx)
		if _, err := conn.Exec(unlockCtx, "SELECT pg_advisory_unlock($1)", key); err != nil {
			logger.Error().Err(err).Int64("courseID", courseID).Msg("Failed to release course advisory lock")
		}
	}()

	return fn(ctx)
}
