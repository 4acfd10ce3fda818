package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncLockStoresEpochMillis(t *testing.T) {
	db, err := NewInMemory()
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()
	require.NoError(t, db.Migrate(ctx))

	before := time.Now().UnixMilli()
	locked, err := db.AcquireSyncLock(ctx, 7, time.Minute)
	require.NoError(t, err)
	require.True(t, locked)

	// The expiry must be a plain epoch number, never offset-carrying
	// text that compares lexicographically.
	var expires int64
	require.NoError(t, db.GetContext(ctx, &expires, `SELECT expires_at FROM sync_locks WHERE account_id = 7`))
	assert.GreaterOrEqual(t, expires, before+time.Minute.Milliseconds())
	assert.LessOrEqual(t, expires, time.Now().UnixMilli()+time.Minute.Milliseconds())
}
