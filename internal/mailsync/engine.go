// Package mailsync runs incremental mailbox synchronization: it decides
// the fetch range from persisted bookmarks, fetches, hands messages to
// the ingestion pipeline and advances the bookmark once the batch is
// done.
package mailsync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/omnidesk/mailsync/internal/database"
	"github.com/omnidesk/mailsync/internal/ingest"
	"github.com/omnidesk/mailsync/internal/notify"
	"github.com/omnidesk/mailsync/internal/oplog"
	"github.com/omnidesk/mailsync/internal/syncerr"
	"github.com/omnidesk/mailsync/pkg/models"
)

// Options tune the engine. Zero values fall back to the defaults
// below.
type Options struct {
	LockTTL        time.Duration
	ResyncWindow   time.Duration
	FetchCap       int
	ConnectTimeout time.Duration
}

const (
	defaultLockTTL      = 15 * time.Minute
	defaultResyncWindow = 7 * 24 * time.Hour
	defaultFetchCap     = 100
)

// Result summarizes one account's sync run. Processed can be lower
// than Fetched when individual messages failed to parse or ingest.
type Result struct {
	AccountID   int64          `json:"account_id"`
	Fetched     int            `json:"fetched"`
	Processed   int            `json:"processed"`
	Diagnostics map[string]any `json:"diagnostics"`
}

// AccountOutcome is one entry of an auto-sync run.
type AccountOutcome struct {
	AccountID int64  `json:"account_id"`
	Email     string `json:"email"`
	Fetched   int    `json:"fetched"`
	Processed int    `json:"processed"`
	Skipped   bool   `json:"skipped,omitempty"`
	Error     string `json:"error,omitempty"`
	Code      string `json:"code,omitempty"`
}

// Engine coordinates sync runs across accounts.
type Engine struct {
	db       *database.DB
	pipeline *ingest.Pipeline
	notifier notify.Notifier
	logger   *slog.Logger
	opts     Options
}

// NewEngine creates a sync engine.
func NewEngine(db *database.DB, pipeline *ingest.Pipeline, notifier notify.Notifier, logger *slog.Logger, opts Options) *Engine {
	if opts.LockTTL <= 0 {
		opts.LockTTL = defaultLockTTL
	}
	if opts.ResyncWindow <= 0 {
		opts.ResyncWindow = defaultResyncWindow
	}
	if opts.FetchCap <= 0 {
		opts.FetchCap = defaultFetchCap
	}
	return &Engine{
		db:       db,
		pipeline: pipeline,
		notifier: notifier,
		logger:   logger.With("component", "mailsync"),
		opts:     opts,
	}
}

// SyncAccount runs one sync for one account. A run already in progress
// for the same account returns CodeSyncInProgress immediately; callers
// retry on the next cron tick instead of queuing.
func (e *Engine) SyncAccount(ctx context.Context, accountID int64) (*Result, error) {
	account, err := e.db.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account %d: %w", accountID, err)
	}
	if !account.IsActive {
		return nil, syncerr.New(syncerr.CodeNoActiveAccount, "account is not active")
	}

	locked, err := e.db.AcquireSyncLock(ctx, accountID, e.opts.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire sync lock: %w", err)
	}
	if !locked {
		return nil, syncerr.New(syncerr.CodeSyncInProgress, "sync already in progress for this account")
	}
	defer func() {
		if err := e.db.ReleaseSyncLock(context.WithoutCancel(ctx), accountID); err != nil {
			e.logger.Error("failed to release sync lock", "account_id", accountID, "error", err)
		}
	}()

	op := oplog.Start(ctx, e.db, e.logger, accountID, models.OpTypeSync)

	var result *Result
	switch account.InboundMethod {
	case models.InboundPOP3:
		result, err = e.syncPOP3(ctx, account, op)
	default:
		result, err = e.syncIMAP(ctx, account, op)
	}
	if err != nil {
		op.LogError(ctx, "sync_failed", syncerr.CodeOf(err), err.Error())
		return nil, err
	}

	op.LogSuccess(ctx, "sync_completed", map[string]any{
		"fetched":     result.Fetched,
		"processed":   result.Processed,
		"duration_ms": op.DurationMs(),
	})

	if result.Processed > 0 {
		if err := e.notifier.NewEmails(ctx, accountID, result.Processed); err != nil {
			e.logger.Warn("notification dispatch failed", "account_id", accountID, "error", err)
		}
	}

	return result, nil
}

// SyncAll fans out over every active, sync-enabled account, one at a
// time, in process. Each account's outcome is independent; one failing
// does not stop the rest.
func (e *Engine) SyncAll(ctx context.Context) ([]AccountOutcome, error) {
	accounts, err := e.db.GetSyncableAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list syncable accounts: %w", err)
	}

	outcomes := make([]AccountOutcome, 0, len(accounts))
	for _, account := range accounts {
		outcome := AccountOutcome{AccountID: account.ID, Email: account.Email}

		if !e.syncDue(account) {
			outcome.Skipped = true
			outcomes = append(outcomes, outcome)
			continue
		}

		result, err := e.SyncAccount(ctx, account.ID)
		if err != nil {
			outcome.Error = err.Error()
			outcome.Code = string(syncerr.CodeOf(err))
		} else {
			outcome.Fetched = result.Fetched
			outcome.Processed = result.Processed
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// syncDue checks the account's own sync interval against its last run.
func (e *Engine) syncDue(account *models.MailAccount) bool {
	if !account.LastSyncAt.Valid || account.SyncIntervalMinutes <= 0 {
		return true
	}
	interval := time.Duration(account.SyncIntervalMinutes) * time.Minute
	return time.Since(account.LastSyncAt.Time) >= interval
}
