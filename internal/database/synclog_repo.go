package database

import (
	"context"
	"fmt"
	"time"

	"github.com/omnidesk/mailsync/pkg/models"
)

// CreateSyncLog appends one operation log row. Logs are append-only;
// nothing in the sync engine updates or deletes them.
func (db *DB) CreateSyncLog(ctx context.Context, entry *models.SyncOperationLog) error {
	query := `
		INSERT INTO sync_operation_logs (account_id, operation_type, step_number, step_name, status, details, error_code, error_message, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		entry.AccountID,
		entry.OperationType,
		entry.StepNumber,
		entry.StepName,
		entry.Status,
		entry.Details,
		entry.ErrorCode,
		entry.ErrorMessage,
		entry.DurationMs,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create sync log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	entry.ID = id
	entry.CreatedAt = now
	return nil
}

// GetSyncLogs returns the most recent log rows for an account, newest
// first, optionally filtered by operation type.
func (db *DB) GetSyncLogs(ctx context.Context, accountID int64, operationType string, limit int) ([]*models.SyncOperationLog, error) {
	if limit <= 0 {
		limit = 100
	}

	var logs []*models.SyncOperationLog
	var err error
	if operationType != "" {
		query := `
			SELECT * FROM sync_operation_logs
			WHERE account_id = ? AND operation_type = ?
			ORDER BY id DESC LIMIT ?
		`
		err = db.SelectContext(ctx, &logs, query, accountID, operationType, limit)
	} else {
		query := `
			SELECT * FROM sync_operation_logs
			WHERE account_id = ?
			ORDER BY id DESC LIMIT ?
		`
		err = db.SelectContext(ctx, &logs, query, accountID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync logs: %w", err)
	}
	return logs, nil
}
