// Package oplog records an append-only, step-numbered audit trail of
// every network operation the sync engine performs. Each step is
// persisted and mirrored to the process console, so a user debugging a
// broken mail account can see the exact point of failure.
package oplog

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/omnidesk/mailsync/internal/syncerr"
	"github.com/omnidesk/mailsync/pkg/models"
)

// Store persists log rows. Implemented by *database.DB.
type Store interface {
	CreateSyncLog(ctx context.Context, entry *models.SyncOperationLog) error
}

// Operation is a live audit trail for one sync/test run. All steps
// logged through it share a strictly increasing step counter and a
// common start time.
type Operation struct {
	store     Store
	logger    *slog.Logger
	accountID int64
	opType    string
	startedAt time.Time

	mu   sync.Mutex
	step int
}

// Start begins a new operation trail and records its first step.
func Start(ctx context.Context, store Store, logger *slog.Logger, accountID int64, opType string) *Operation {
	op := &Operation{
		store:     store,
		logger:    logger.With("component", "oplog", "account_id", accountID, "operation", opType),
		accountID: accountID,
		opType:    opType,
		startedAt: time.Now(),
	}
	op.LogStep(ctx, "operation_started", models.StatusStarted, nil, "", "")
	return op
}

// LogStep persists one step row and mirrors it to the console. A
// persistence failure is itself only console-logged: a logging outage
// must never abort a sync.
func (op *Operation) LogStep(ctx context.Context, stepName, status string, details map[string]any, errorCode syncerr.Code, errorMessage string) {
	op.mu.Lock()
	op.step++
	step := op.step
	op.mu.Unlock()

	detailsJSON := ""
	if len(details) > 0 {
		if b, err := json.Marshal(details); err == nil {
			detailsJSON = string(b)
		}
	}

	entry := &models.SyncOperationLog{
		AccountID:     op.accountID,
		OperationType: op.opType,
		StepNumber:    step,
		StepName:      stepName,
		Status:        status,
		Details:       detailsJSON,
		ErrorCode:     string(errorCode),
		ErrorMessage:  errorMessage,
		DurationMs:    op.DurationMs(),
	}

	if err := op.store.CreateSyncLog(ctx, entry); err != nil {
		op.logger.Error("failed to persist operation log", "step", stepName, "error", err)
	}

	attrs := []any{"step", step, "name", stepName, "status", status}
	if errorCode != "" {
		attrs = append(attrs, "code", string(errorCode))
	}
	if errorMessage != "" {
		attrs = append(attrs, "error", errorMessage)
	}
	if detailsJSON != "" {
		attrs = append(attrs, "details", detailsJSON)
	}

	switch status {
	case models.StatusError:
		op.logger.Error("operation step", attrs...)
	case models.StatusWarning:
		op.logger.Warn("operation step", attrs...)
	default:
		op.logger.Info("operation step", attrs...)
	}
}

// LogSuccess records a successful step.
func (op *Operation) LogSuccess(ctx context.Context, stepName string, details map[string]any) {
	op.LogStep(ctx, stepName, models.StatusSuccess, details, "", "")
}

// LogWarning records a non-fatal problem.
func (op *Operation) LogWarning(ctx context.Context, stepName string, details map[string]any, errorMessage string) {
	op.LogStep(ctx, stepName, models.StatusWarning, details, "", errorMessage)
}

// LogError records a failed step with its classified code.
func (op *Operation) LogError(ctx context.Context, stepName string, errorCode syncerr.Code, errorMessage string) {
	op.LogStep(ctx, stepName, models.StatusError, nil, errorCode, errorMessage)
}

// DurationMs returns the elapsed time since the operation started.
func (op *Operation) DurationMs() int64 {
	return time.Since(op.startedAt).Milliseconds()
}
