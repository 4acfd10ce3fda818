package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/omnidesk/mailsync/internal/mailsync"
)

// SyncHandler triggers sync runs.
type SyncHandler struct {
	engine *mailsync.Engine
	logger *slog.Logger
}

type syncRequest struct {
	AccountID int64 `json:"account_id"`
	AutoSync  bool  `json:"auto_sync"`
}

type syncResponse struct {
	Success     bool           `json:"success"`
	Fetched     int            `json:"fetched"`
	Processed   int            `json:"processed"`
	Diagnostics map[string]any `json:"diagnostics,omitempty"`
}

type autoSyncResponse struct {
	Success  bool                      `json:"success"`
	Accounts []mailsync.AccountOutcome `json:"accounts"`
}

// HandleSync runs one account sync, or fans out over all syncable
// accounts when auto_sync is set (the cron entrypoint).
func (h *SyncHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if req.AutoSync {
		outcomes, err := h.engine.SyncAll(r.Context())
		if err != nil {
			h.logger.Error("auto sync failed", "error", err)
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, autoSyncResponse{Success: true, Accounts: outcomes})
		return
	}

	if req.AccountID == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "account_id is required"})
		return
	}

	result, err := h.engine.SyncAccount(r.Context(), req.AccountID)
	if err != nil {
		h.logger.Error("sync failed", "account_id", req.AccountID, "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, syncResponse{
		Success:     true,
		Fetched:     result.Fetched,
		Processed:   result.Processed,
		Diagnostics: result.Diagnostics,
	})
}
