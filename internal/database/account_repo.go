package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/omnidesk/mailsync/pkg/models"
)

// CreateAccount creates a new mail account
func (db *DB) CreateAccount(ctx context.Context, account *models.MailAccount) error {
	query := `
		INSERT INTO mail_accounts (
			business_id, email, inbound_method,
			imap_host, imap_port, imap_username, imap_password, imap_use_tls,
			pop3_host, pop3_port, pop3_username, pop3_password, pop3_use_tls,
			smtp_host, smtp_port, smtp_username, smtp_password, smtp_use_tls,
			is_active, sync_enabled, sync_interval_minutes, delete_after_sync,
			last_imap_uid, last_imap_uidvalidity, last_pop3_uidl,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		account.BusinessID, account.Email, account.InboundMethod,
		account.IMAPHost, account.IMAPPort, account.IMAPUsername, account.IMAPPassword, account.IMAPUseTLS,
		account.POP3Host, account.POP3Port, account.POP3Username, account.POP3Password, account.POP3UseTLS,
		account.SMTPHost, account.SMTPPort, account.SMTPUsername, account.SMTPPassword, account.SMTPUseTLS,
		account.IsActive, account.SyncEnabled, account.SyncIntervalMinutes, account.DeleteAfterSync,
		account.LastIMAPUID, account.LastIMAPUIDValidity, account.LastPOP3UIDL,
		now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	account.ID = id
	account.CreatedAt = now
	account.UpdatedAt = now
	return nil
}

// GetAccountByID returns an account by ID
func (db *DB) GetAccountByID(ctx context.Context, id int64) (*models.MailAccount, error) {
	var account models.MailAccount
	query := `SELECT * FROM mail_accounts WHERE id = ?`
	err := db.GetContext(ctx, &account, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// GetAccountsByBusinessID returns all accounts for a business
func (db *DB) GetAccountsByBusinessID(ctx context.Context, businessID int64) ([]*models.MailAccount, error) {
	var accounts []*models.MailAccount
	query := `SELECT * FROM mail_accounts WHERE business_id = ? ORDER BY created_at DESC`
	err := db.SelectContext(ctx, &accounts, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to get accounts: %w", err)
	}
	return accounts, nil
}

// GetSyncableAccounts returns all active accounts with sync enabled
func (db *DB) GetSyncableAccounts(ctx context.Context) ([]*models.MailAccount, error) {
	var accounts []*models.MailAccount
	query := `SELECT * FROM mail_accounts WHERE is_active = true AND sync_enabled = true`
	err := db.SelectContext(ctx, &accounts, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get syncable accounts: %w", err)
	}
	return accounts, nil
}

// UpdateIMAPBookmark persists the IMAP sync bookmark. Called by the
// sync engine only after a full batch completed.
func (db *DB) UpdateIMAPBookmark(ctx context.Context, id int64, uid, uidValidity uint32) error {
	query := `
		UPDATE mail_accounts
		SET last_imap_uid = ?, last_imap_uidvalidity = ?, last_sync_at = ?, updated_at = ?
		WHERE id = ?
	`
	now := time.Now()
	_, err := db.ExecContext(ctx, query, uid, uidValidity, now, now, id)
	if err != nil {
		return fmt.Errorf("failed to update imap bookmark: %w", err)
	}
	return nil
}

// UpdatePOP3Bookmark persists the POP3 sync bookmark.
func (db *DB) UpdatePOP3Bookmark(ctx context.Context, id int64, uidl string) error {
	query := `
		UPDATE mail_accounts
		SET last_pop3_uidl = ?, last_sync_at = ?, updated_at = ?
		WHERE id = ?
	`
	now := time.Now()
	_, err := db.ExecContext(ctx, query, uidl, now, now, id)
	if err != nil {
		return fmt.Errorf("failed to update pop3 bookmark: %w", err)
	}
	return nil
}

// TouchLastSyncAt records a completed sync run that moved no bookmark.
func (db *DB) TouchLastSyncAt(ctx context.Context, id int64) error {
	query := `UPDATE mail_accounts SET last_sync_at = ?, updated_at = ? WHERE id = ?`
	now := time.Now()
	_, err := db.ExecContext(ctx, query, now, now, id)
	if err != nil {
		return fmt.Errorf("failed to update last sync time: %w", err)
	}
	return nil
}

// UpdateAccountConfig persists a working configuration discovered by the
// deep test, so the next sync uses it directly.
func (db *DB) UpdateAccountConfig(ctx context.Context, id int64, host string, port int, username string, useTLS bool) error {
	query := `
		UPDATE mail_accounts
		SET imap_host = ?, imap_port = ?, imap_username = ?, imap_use_tls = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := db.ExecContext(ctx, query, host, port, username, useTLS, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update account config: %w", err)
	}
	return nil
}

// SetAccountActive sets the active status of an account
func (db *DB) SetAccountActive(ctx context.Context, id int64, active bool) error {
	query := `UPDATE mail_accounts SET is_active = ?, updated_at = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, active, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set account active: %w", err)
	}
	return nil
}

// DeleteAccount deletes an account and cascades to its logs
func (db *DB) DeleteAccount(ctx context.Context, id int64) error {
	query := `DELETE FROM mail_accounts WHERE id = ?`
	_, err := db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}
