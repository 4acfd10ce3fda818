package models

import "time"

// Operation types recorded in the sync operation log.
const (
	OpTypeSync     = "sync"
	OpTypeAutoSync = "auto_sync"
	OpTypeDeepTest = "deep_test"
	OpTypeTest     = "connection_test"
)

// Step statuses. The logger mirrors them to the console: error goes to
// the error level, warning to warn, everything else to info.
const (
	StatusStarted    = "started"
	StatusInProgress = "in_progress"
	StatusSuccess    = "success"
	StatusWarning    = "warning"
	StatusError      = "error"
)

// SyncOperationLog is one row per discrete step of a sync/test run.
// Rows are append-only; the sync engine never mutates or deletes them.
// StepNumber is strictly increasing within one operation instance.
type SyncOperationLog struct {
	ID            int64     `db:"id" json:"id"`
	AccountID     int64     `db:"account_id" json:"account_id"`
	OperationType string    `db:"operation_type" json:"operation_type"`
	StepNumber    int       `db:"step_number" json:"step_number"`
	StepName      string    `db:"step_name" json:"step_name"`
	Status        string    `db:"status" json:"status"`
	Details       string    `db:"details" json:"details,omitempty"`
	ErrorCode     string    `db:"error_code" json:"error_code,omitempty"`
	ErrorMessage  string    `db:"error_message" json:"error_message,omitempty"`
	DurationMs    int64     `db:"duration_ms" json:"duration_ms"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
