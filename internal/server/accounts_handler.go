package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/omnidesk/mailsync/internal/database"
	"github.com/omnidesk/mailsync/internal/resolver"
	"github.com/omnidesk/mailsync/internal/sanitize"
	"github.com/omnidesk/mailsync/pkg/models"
)

// AccountsHandler is the minimal account/log surface the settings UI
// drives the engine through.
type AccountsHandler struct {
	db     *database.DB
	logger *slog.Logger
}

// HandleCreate creates a mail account. Hosts are sanitized before
// storage so later connects never see schemes or embedded ports.
func (h *AccountsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var account models.MailAccount
	if err := json.NewDecoder(r.Body).Decode(&account); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if account.BusinessID == 0 || account.Email == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "business_id and email are required"})
		return
	}
	if account.InboundMethod == "" {
		account.InboundMethod = models.InboundIMAP
	}
	if account.InboundMethod != models.InboundIMAP && account.InboundMethod != models.InboundPOP3 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "inbound_method must be imap or pop3"})
		return
	}

	account.IMAPHost = sanitize.Hostname(account.IMAPHost)
	account.POP3Host = sanitize.Hostname(account.POP3Host)
	account.SMTPHost = sanitize.Hostname(account.SMTPHost)

	// New accounts start active and syncable; deactivation is a separate
	// call.
	account.IsActive = true
	account.SyncEnabled = true
	if account.SyncIntervalMinutes <= 0 {
		account.SyncIntervalMinutes = 5
	}
	if account.IMAPPort == 0 {
		account.IMAPPort = 993
	}
	if account.POP3Port == 0 {
		account.POP3Port = 995
	}
	if account.SMTPPort == 0 {
		account.SMTPPort = 587
	}

	if err := h.db.CreateAccount(r.Context(), &account); err != nil {
		h.logger.Error("failed to create account", "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, &account)
}

// HandleList lists accounts for a business.
func (h *AccountsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	businessID, err := strconv.ParseInt(r.URL.Query().Get("business_id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "business_id query parameter is required"})
		return
	}

	accounts, err := h.db.GetAccountsByBusinessID(r.Context(), businessID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

// HandleGet returns one account.
func (h *AccountsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid account id"})
		return
	}

	account, err := h.db.GetAccountByID(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "account not found"})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// HandleSetActive enables or disables an account. Disabled accounts
// are skipped by auto-sync and refuse manual syncs.
func (h *AccountsHandler) HandleSetActive(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid account id"})
		return
	}

	var req struct {
		IsActive *bool `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IsActive == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "is_active is required"})
		return
	}

	if _, err := h.db.GetAccountByID(r.Context(), id); errors.Is(err, database.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "account not found"})
		return
	} else if err != nil {
		writeError(w, err)
		return
	}

	if err := h.db.SetAccountActive(r.Context(), id, *req.IsActive); err != nil {
		writeError(w, err)
		return
	}

	account, err := h.db.GetAccountByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// HandleDelete removes an account; its operation logs cascade with it.
func (h *AccountsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid account id"})
		return
	}

	if _, err := h.db.GetAccountByID(r.Context(), id); errors.Is(err, database.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "account not found"})
		return
	} else if err != nil {
		writeError(w, err)
		return
	}

	if err := h.db.DeleteAccount(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleLogs returns the account's operation log rows, newest first.
// The settings UI polls this while a sync or deep test is running.
func (h *AccountsHandler) HandleLogs(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid account id"})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	operationType := r.URL.Query().Get("operation")

	logs, err := h.db.GetSyncLogs(r.Context(), id, operationType, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// HandleResolve suggests IMAP settings for an email address.
func (h *AccountsHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "email query parameter is required"})
		return
	}

	suggestion, err := resolver.SuggestIMAP(email)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, suggestion)
}
