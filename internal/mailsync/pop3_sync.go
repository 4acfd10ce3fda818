package mailsync

import (
	"context"
	"fmt"

	"github.com/omnidesk/mailsync/internal/ingest"
	"github.com/omnidesk/mailsync/internal/mailconn"
	"github.com/omnidesk/mailsync/internal/oplog"
	"github.com/omnidesk/mailsync/internal/syncerr"
	"github.com/omnidesk/mailsync/pkg/models"
)

// selectNewUIDLs keeps the entries whose UIDL sorts after the stored
// bookmark. Treating server-assigned UIDLs as string-comparable and
// monotonic is a simplifying assumption, not a protocol guarantee; a
// server that reuses or reorders UIDLs will confuse this.
func selectNewUIDLs(entries []mailconn.UIDLEntry, lastUIDL string) []mailconn.UIDLEntry {
	if lastUIDL == "" {
		return entries
	}
	var fresh []mailconn.UIDLEntry
	for _, entry := range entries {
		if entry.UIDL > lastUIDL {
			fresh = append(fresh, entry)
		}
	}
	return fresh
}

func (e *Engine) syncPOP3(ctx context.Context, account *models.MailAccount, op *oplog.Operation) (*Result, error) {
	session, err := mailconn.ConnectPOP3(ctx, mailconn.Config{
		Host:     account.POP3Host,
		Port:     account.POP3Port,
		Username: account.POP3Username,
		Password: account.POP3Password,
		UseTLS:   account.POP3UseTLS,
		Timeout:  e.opts.ConnectTimeout,
	}, op)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := session.Quit(); err != nil {
			e.logger.Warn("POP3 quit failed", "account_id", account.ID, "error", err)
		}
	}()

	entries, err := session.UIDL()
	if err != nil {
		return nil, syncerr.Wrap(syncerr.CodeFetchFailed, "UIDL listing failed", err)
	}

	fresh := selectNewUIDLs(entries, account.LastPOP3UIDL)
	op.LogSuccess(ctx, "list_uidl", map[string]any{"total": len(entries), "new": len(fresh)})

	if len(fresh) == 0 {
		if err := e.db.TouchLastSyncAt(ctx, account.ID); err != nil {
			return nil, fmt.Errorf("failed to record sync time: %w", err)
		}
		return &Result{AccountID: account.ID, Diagnostics: map[string]any{"mailbox_size": len(entries)}}, nil
	}

	var fetched, processed int
	var lastUIDL string
	for _, entry := range fresh {
		raw, err := session.Retr(entry.Seq)
		if err != nil {
			// A failed RETR usually means the connection is in a bad
			// state. Stop here; the bookmark stays at the last message
			// actually fetched so this one is retried next run.
			op.LogWarning(ctx, "fetch_message", map[string]any{"uidl": entry.UIDL}, err.Error())
			break
		}
		fetched++
		lastUIDL = entry.UIDL

		fm, err := ingest.ParseRaw(raw)
		if err != nil {
			op.LogWarning(ctx, "parse_message", map[string]any{"uidl": entry.UIDL}, err.Error())
			continue
		}
		fm.UIDL = entry.UIDL

		created, err := e.pipeline.Ingest(ctx, account, fm)
		if err != nil {
			op.LogWarning(ctx, "ingest_message", map[string]any{"uidl": entry.UIDL, "external_id": fm.ExternalID}, err.Error())
			continue
		}
		if created {
			processed++
		}

		if account.DeleteAfterSync {
			if err := session.Dele(entry.Seq); err != nil {
				op.LogWarning(ctx, "delete_message", map[string]any{"uidl": entry.UIDL}, err.Error())
			}
		}
	}

	if lastUIDL != "" {
		if err := e.db.UpdatePOP3Bookmark(ctx, account.ID, lastUIDL); err != nil {
			return nil, fmt.Errorf("failed to advance bookmark: %w", err)
		}
		op.LogSuccess(ctx, "bookmark_advanced", map[string]any{"last_pop3_uidl": lastUIDL})
	} else if err := e.db.TouchLastSyncAt(ctx, account.ID); err != nil {
		return nil, fmt.Errorf("failed to record sync time: %w", err)
	}

	return &Result{
		AccountID: account.ID,
		Fetched:   fetched,
		Processed: processed,
		Diagnostics: map[string]any{
			"mailbox_size": len(entries),
			"last_uidl":    lastUIDL,
		},
	}, nil
}
