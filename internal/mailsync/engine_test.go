package mailsync

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omnidesk/mailsync/internal/database"
	"github.com/omnidesk/mailsync/internal/mailconn"
	"github.com/omnidesk/mailsync/pkg/models"
)

func TestDecideIMAPRangeIncremental(t *testing.T) {
	now := time.Now()
	r := decideIMAPRange(4120, 987, 987, now, 7*24*time.Hour)

	assert.True(t, r.Incremental)
	assert.Equal(t, uint32(4121), r.FromUID)
	assert.False(t, r.UIDValidityChanged)
}

func TestDecideIMAPRangeFirstSync(t *testing.T) {
	now := time.Now()
	r := decideIMAPRange(0, 0, 987, now, 7*24*time.Hour)

	assert.False(t, r.Incremental)
	assert.False(t, r.UIDValidityChanged, "first sync is not a renumbering")
	assert.WithinDuration(t, now.Add(-7*24*time.Hour), r.Since, time.Second)
}

func TestDecideIMAPRangeUIDValidityReset(t *testing.T) {
	now := time.Now()
	r := decideIMAPRange(4120, 987, 988, now, 48*time.Hour)

	assert.False(t, r.Incremental, "a renumbered mailbox must not fetch by stale UIDs")
	assert.True(t, r.UIDValidityChanged)
	assert.WithinDuration(t, now.Add(-48*time.Hour), r.Since, time.Second)
}

func TestCapUIDsKeepsNewestAscending(t *testing.T) {
	uids := []uint32{50, 10, 99, 3, 75, 42}

	capped := capUIDs(uids, 3)
	assert.Equal(t, []uint32{50, 75, 99}, capped)

	// Under the cap everything survives, sorted.
	all := capUIDs([]uint32{9, 1, 5}, 100)
	assert.Equal(t, []uint32{1, 5, 9}, all)
}

func TestSelectNewUIDLs(t *testing.T) {
	entries := []mailconn.UIDLEntry{
		{Seq: 1, UIDL: "aaa-001"},
		{Seq: 2, UIDL: "aaa-002"},
		{Seq: 3, UIDL: "aaa-003"},
	}

	fresh := selectNewUIDLs(entries, "aaa-002")
	require.Len(t, fresh, 1)
	assert.Equal(t, "aaa-003", fresh[0].UIDL)

	// Empty bookmark means everything is new.
	assert.Len(t, selectNewUIDLs(entries, ""), 3)

	// Bookmark past the end means nothing is new.
	assert.Empty(t, selectNewUIDLs(entries, "aaa-999"))
}

func TestSyncLockIsExclusivePerAccount(t *testing.T) {
	db, err := database.NewInMemory()
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()
	require.NoError(t, db.Migrate(ctx))

	locked, err := db.AcquireSyncLock(ctx, 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, locked)

	// Second acquire on the same account loses.
	locked, err = db.AcquireSyncLock(ctx, 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, locked)

	// A different account is unaffected.
	locked, err = db.AcquireSyncLock(ctx, 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, locked)

	// Release frees it for the next run.
	require.NoError(t, db.ReleaseSyncLock(ctx, 1))
	locked, err = db.AcquireSyncLock(ctx, 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, locked)
}

func TestSyncLockExpiresAfterTTL(t *testing.T) {
	db, err := database.NewInMemory()
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()
	require.NoError(t, db.Migrate(ctx))

	locked, err := db.AcquireSyncLock(ctx, 1, -time.Second)
	require.NoError(t, err)
	assert.True(t, locked)

	// The first lock is already expired, so a new run can steal it.
	locked, err = db.AcquireSyncLock(ctx, 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, locked, "an expired lock must be reclaimable")
}

func TestSyncDue(t *testing.T) {
	e := &Engine{opts: Options{}}

	never := &models.MailAccount{SyncIntervalMinutes: 5}
	assert.True(t, e.syncDue(never), "an account never synced is always due")

	recent := &models.MailAccount{
		SyncIntervalMinutes: 5,
		LastSyncAt:          sql.NullTime{Time: time.Now().Add(-time.Minute), Valid: true},
	}
	assert.False(t, e.syncDue(recent))

	stale := &models.MailAccount{
		SyncIntervalMinutes: 5,
		LastSyncAt:          sql.NullTime{Time: time.Now().Add(-10 * time.Minute), Valid: true},
	}
	assert.True(t, e.syncDue(stale))

	noInterval := &models.MailAccount{
		LastSyncAt: sql.NullTime{Time: time.Now(), Valid: true},
	}
	assert.True(t, e.syncDue(noInterval), "no interval configured means always due")
}
