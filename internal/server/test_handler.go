package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/omnidesk/mailsync/internal/database"
	"github.com/omnidesk/mailsync/internal/mailconn"
	"github.com/omnidesk/mailsync/internal/oplog"
	"github.com/omnidesk/mailsync/internal/probe"
	"github.com/omnidesk/mailsync/internal/sanitize"
	"github.com/omnidesk/mailsync/pkg/models"
)

// TestHandler runs the deep test over configuration variants.
type TestHandler struct {
	db     *database.DB
	prober *probe.Prober
	logger *slog.Logger
}

type deepTestRequest struct {
	// Either a stored account...
	AccountID int64 `json:"account_id"`
	// ...or a standalone configuration not tied to one.
	Hostname string `json:"hostname"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	UseTLS   bool   `json:"use_tls"`
}

// consoleOnlyStore drops log rows. Standalone deep tests have no
// account to attach rows to, so their trail goes to the console only.
type consoleOnlyStore struct{}

func (consoleOnlyStore) CreateSyncLog(ctx context.Context, entry *models.SyncOperationLog) error {
	return nil
}

// HandleDeepTest probes the candidate matrix and, for stored accounts,
// persists the first working configuration as authoritative.
func (h *TestHandler) HandleDeepTest(w http.ResponseWriter, r *http.Request) {
	var req deepTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	if req.AccountID != 0 {
		account, err := h.db.GetAccountByID(ctx, req.AccountID)
		if errors.Is(err, database.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "account not found"})
			return
		}
		if err != nil {
			writeError(w, err)
			return
		}

		op := oplog.Start(ctx, h.db, h.logger, account.ID, models.OpTypeDeepTest)
		report := h.prober.DeepTest(ctx, mailconn.Config{
			Host:     account.IMAPHost,
			Port:     account.IMAPPort,
			Username: account.IMAPUsername,
			Password: account.IMAPPassword,
			UseTLS:   account.IMAPUseTLS,
		}, op)

		if report.OK {
			working := report.WorkingConfig
			err := h.db.UpdateAccountConfig(ctx, account.ID,
				sanitize.Hostname(working.Host), working.Port, working.Username, working.UseTLS)
			if err != nil {
				h.logger.Error("failed to persist working config", "account_id", account.ID, "error", err)
			}
		}

		writeJSON(w, http.StatusOK, report)
		return
	}

	if req.Hostname == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "hostname or account_id is required"})
		return
	}

	op := oplog.Start(ctx, consoleOnlyStore{}, h.logger, 0, models.OpTypeDeepTest)
	report := h.prober.DeepTest(ctx, mailconn.Config{
		Host:     req.Hostname,
		Port:     req.Port,
		Username: req.Username,
		Password: req.Password,
		UseTLS:   req.UseTLS,
	}, op)

	writeJSON(w, http.StatusOK, report)
}
