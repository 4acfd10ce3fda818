package mailsync

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/emersion/go-imap"

	"github.com/omnidesk/mailsync/internal/ingest"
	"github.com/omnidesk/mailsync/internal/mailconn"
	"github.com/omnidesk/mailsync/internal/oplog"
	"github.com/omnidesk/mailsync/internal/syncerr"
	"github.com/omnidesk/mailsync/pkg/models"
)

// imapRange is the outcome of the range decision: either a pure
// incremental UID range or a bounded SINCE window.
type imapRange struct {
	Incremental        bool
	FromUID            uint32    // first UID to fetch when incremental
	Since              time.Time // window start when not incremental
	UIDValidityChanged bool
}

// decideIMAPRange picks the search range from the persisted bookmark.
// A matching UIDVALIDITY with a set bookmark means incremental
// fetching; anything else (first sync, or the server renumbered its
// mailbox) falls back to a bounded window so a reset never re-ingests
// the entire mailbox history.
func decideIMAPRange(lastUID, lastValidity, serverValidity uint32, now time.Time, window time.Duration) imapRange {
	if lastValidity == serverValidity && lastUID > 0 {
		return imapRange{Incremental: true, FromUID: lastUID + 1}
	}
	return imapRange{
		Incremental:        false,
		Since:              now.Add(-window),
		UIDValidityChanged: lastValidity != 0 && lastValidity != serverValidity,
	}
}

// capUIDs keeps the most recent max UIDs, returned oldest-first so the
// fetch stays chronological within the cap.
func capUIDs(uids []uint32, max int) []uint32 {
	sorted := make([]uint32, len(uids))
	copy(sorted, uids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	if len(sorted) > max {
		sorted = sorted[len(sorted)-max:]
	}
	return sorted
}

func (e *Engine) syncIMAP(ctx context.Context, account *models.MailAccount, op *oplog.Operation) (*Result, error) {
	session, err := mailconn.ConnectIMAP(ctx, mailconn.Config{
		Host:     account.IMAPHost,
		Port:     account.IMAPPort,
		Username: account.IMAPUsername,
		Password: account.IMAPPassword,
		UseTLS:   account.IMAPUseTLS,
		Timeout:  e.opts.ConnectTimeout,
	}, op)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	serverValidity := session.Mailbox.UidValidity
	r := decideIMAPRange(account.LastIMAPUID, account.LastIMAPUIDValidity, serverValidity, time.Now(), e.opts.ResyncWindow)

	if r.UIDValidityChanged {
		op.LogStep(ctx, "uidvalidity_changed", models.StatusWarning, map[string]any{
			"stored": account.LastIMAPUIDValidity,
			"server": serverValidity,
		}, syncerr.CodeUIDValidityChanged, "server renumbered the mailbox, falling back to bounded resync")
	}

	criteria := imap.NewSearchCriteria()
	if r.Incremental {
		uidRange := new(imap.SeqSet)
		uidRange.AddRange(r.FromUID, 0)
		criteria.Uid = uidRange
		op.LogStep(ctx, "decide_range", models.StatusInProgress, map[string]any{
			"mode": "incremental", "from_uid": r.FromUID,
		}, "", "")
	} else {
		criteria.Since = r.Since
		op.LogStep(ctx, "decide_range", models.StatusInProgress, map[string]any{
			"mode": "window", "since": r.Since.Format(time.RFC3339),
		}, "", "")
	}

	uids, err := session.Client.UidSearch(criteria)
	if err != nil {
		return nil, syncerr.Wrap(syncerr.CodeFetchFailed, "UID search failed", err)
	}

	if len(uids) == 0 {
		op.LogSuccess(ctx, "search", map[string]any{"matched": 0})
		if err := e.db.TouchLastSyncAt(ctx, account.ID); err != nil {
			return nil, fmt.Errorf("failed to record sync time: %w", err)
		}
		return &Result{
			AccountID:   account.ID,
			Diagnostics: map[string]any{"uidvalidity": serverValidity},
		}, nil
	}

	capped := capUIDs(uids, e.opts.FetchCap)
	op.LogSuccess(ctx, "search", map[string]any{"matched": len(uids), "fetching": len(capped)})

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(capped...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- session.Client.UidFetch(seqSet, items, messages)
	}()

	var fetched, processed int
	var maxUID uint32
	for msg := range messages {
		fetched++
		if msg.Uid > maxUID {
			maxUID = msg.Uid
		}

		// Parse/ingest failures drop the message with a warning; they
		// never block the rest of the batch or the bookmark.
		body := msg.GetBody(section)
		if body == nil {
			op.LogWarning(ctx, "fetch_message", map[string]any{"uid": msg.Uid}, "server returned no body section")
			continue
		}
		raw, err := io.ReadAll(body)
		if err != nil {
			op.LogWarning(ctx, "fetch_message", map[string]any{"uid": msg.Uid}, err.Error())
			continue
		}

		fm, err := ingest.ParseRaw(raw)
		if err != nil {
			op.LogWarning(ctx, "parse_message", map[string]any{"uid": msg.Uid}, err.Error())
			continue
		}
		fm.UID = msg.Uid

		created, err := e.pipeline.Ingest(ctx, account, fm)
		if err != nil {
			op.LogWarning(ctx, "ingest_message", map[string]any{"uid": msg.Uid, "external_id": fm.ExternalID}, err.Error())
			continue
		}
		if created {
			processed++
		}
	}

	if err := <-done; err != nil {
		return nil, syncerr.Wrap(syncerr.CodeFetchFailed, "UID fetch failed", err)
	}

	// Advance the bookmark only now that the whole batch is done.
	if maxUID > 0 {
		if err := e.db.UpdateIMAPBookmark(ctx, account.ID, maxUID, serverValidity); err != nil {
			return nil, fmt.Errorf("failed to advance bookmark: %w", err)
		}
		op.LogSuccess(ctx, "bookmark_advanced", map[string]any{
			"last_imap_uid": maxUID, "uidvalidity": serverValidity,
		})
	} else if err := e.db.TouchLastSyncAt(ctx, account.ID); err != nil {
		return nil, fmt.Errorf("failed to record sync time: %w", err)
	}

	return &Result{
		AccountID: account.ID,
		Fetched:   fetched,
		Processed: processed,
		Diagnostics: map[string]any{
			"uidvalidity": serverValidity,
			"max_uid":     maxUID,
			"incremental": r.Incremental,
		},
	}, nil
}
