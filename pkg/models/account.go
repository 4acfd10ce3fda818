package models

import (
	"database/sql"
	"time"
)

// Inbound protocols supported by a mail account. Exactly one is active
// per account at a time.
const (
	InboundIMAP = "imap"
	InboundPOP3 = "pop3"
)

// MailAccount represents one inbound/outbound mail configuration owned
// by a business. The sync bookmarks (LastIMAPUID, LastIMAPUIDValidity,
// LastPOP3UIDL) are mutated only by the sync engine after a successful
// batch.
type MailAccount struct {
	ID         int64  `db:"id" json:"id"`
	BusinessID int64  `db:"business_id" json:"business_id"`
	Email      string `db:"email" json:"email"`

	InboundMethod string `db:"inbound_method" json:"inbound_method"`

	IMAPHost     string `db:"imap_host" json:"imap_host"`
	IMAPPort     int    `db:"imap_port" json:"imap_port"`
	IMAPUsername string `db:"imap_username" json:"imap_username"`
	IMAPPassword string `db:"imap_password" json:"-"`
	IMAPUseTLS   bool   `db:"imap_use_tls" json:"imap_use_tls"`

	POP3Host     string `db:"pop3_host" json:"pop3_host"`
	POP3Port     int    `db:"pop3_port" json:"pop3_port"`
	POP3Username string `db:"pop3_username" json:"pop3_username"`
	POP3Password string `db:"pop3_password" json:"-"`
	POP3UseTLS   bool   `db:"pop3_use_tls" json:"pop3_use_tls"`

	SMTPHost     string `db:"smtp_host" json:"smtp_host"`
	SMTPPort     int    `db:"smtp_port" json:"smtp_port"`
	SMTPUsername string `db:"smtp_username" json:"smtp_username"`
	SMTPPassword string `db:"smtp_password" json:"-"`
	SMTPUseTLS   bool   `db:"smtp_use_tls" json:"smtp_use_tls"`

	IsActive            bool         `db:"is_active" json:"is_active"`
	SyncEnabled         bool         `db:"sync_enabled" json:"sync_enabled"`
	SyncIntervalMinutes int          `db:"sync_interval_minutes" json:"sync_interval_minutes"`
	DeleteAfterSync     bool         `db:"delete_after_sync" json:"delete_after_sync"`
	LastSyncAt          sql.NullTime `db:"last_sync_at" json:"last_sync_at"`

	// Sync bookmarks. LastIMAPUID is only meaningful within the
	// LastIMAPUIDValidity epoch; a UIDVALIDITY change on the server
	// invalidates it and forces a bounded-window resync.
	LastIMAPUID         uint32 `db:"last_imap_uid" json:"last_imap_uid"`
	LastIMAPUIDValidity uint32 `db:"last_imap_uidvalidity" json:"last_imap_uidvalidity"`
	LastPOP3UIDL        string `db:"last_pop3_uidl" json:"last_pop3_uidl"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
