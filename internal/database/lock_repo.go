package database

import (
	"context"
	"fmt"
	"time"
)

// AcquireSyncLock takes the per-account sync lock. The lock lives in a
// table rather than process memory so it survives restarts and holds
// across horizontally scaled instances; a crashed run frees its lock
// when the TTL expires. Returns false when another run holds it.
// Timestamps are stored as unix milliseconds so the expiry comparison
// is numeric, independent of the writer's UTC offset.
func (db *DB) AcquireSyncLock(ctx context.Context, accountID int64, ttl time.Duration) (bool, error) {
	now := time.Now()
	query := `
		INSERT INTO sync_locks (account_id, locked_at, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(account_id) DO UPDATE
		SET locked_at = excluded.locked_at, expires_at = excluded.expires_at
		WHERE sync_locks.expires_at < ?
	`
	result, err := db.ExecContext(ctx, query, accountID, now.UnixMilli(), now.Add(ttl).UnixMilli(), now.UnixMilli())
	if err != nil {
		return false, fmt.Errorf("failed to acquire sync lock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// ReleaseSyncLock releases the per-account sync lock.
func (db *DB) ReleaseSyncLock(ctx context.Context, accountID int64) error {
	query := `DELETE FROM sync_locks WHERE account_id = ?`
	_, err := db.ExecContext(ctx, query, accountID)
	if err != nil {
		return fmt.Errorf("failed to release sync lock: %w", err)
	}
	return nil
}
