package postgres

import (
	"context"
	"fmt"

	"recording-oracle/database"
)

// AdvisoryLock implements database.AdvisoryLocker on top of Postgres
// session-level advisory locks. The lock key space is shared by every
// oracle instance pointed at the same database.
type AdvisoryLock struct {
	pool *Pool
}

func NewAdvisoryLock(pool *Pool) *AdvisoryLock {
	return &AdvisoryLock{pool: pool}
}

var _ database.AdvisoryLocker = (*AdvisoryLock)(nil)

// WithLock tries to take the lock without blocking. The lock lives on a
// dedicated pooled connection that stays checked out until fn returns,
// since session locks are bound to the connection that took them.
func (l *AdvisoryLock) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) (acquired bool, err error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire lock connection: %w", err)
	}
	defer conn.Release()

	err = conn.QueryRow(ctx, `SELECT pg_try_advisory_lock(hashtext($1))`, key).Scan(&acquired)
	if err != nil {
		return false, fmt.Errorf("try advisory lock: %w", err)
	}

	if !acquired {
		return false, nil
	}

	defer func() {
		// unlock on the same connection, even when ctx is done
		_, unlockErr := conn.Exec(context.Background(), `SELECT pg_advisory_unlock(hashtext($1))`, key)
		if unlockErr != nil && err == nil {
			err = fmt.Errorf("advisory unlock: %w", unlockErr)
		}
	}()

	err = fn(ctx)

	return true, err
}
