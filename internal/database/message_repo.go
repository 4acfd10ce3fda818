package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/omnidesk/mailsync/pkg/models"
)

// CreateMessage creates a new message. Returns ErrAlreadyExists when a
// message with the same external_message_id was ingested before.
func (db *DB) CreateMessage(ctx context.Context, msg *models.Message) error {
	query := `
		INSERT OR IGNORE INTO messages (business_id, conversation_id, customer_id, direction, channel, subject, content, external_message_id, in_reply_to, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	createdAt := msg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	result, err := db.ExecContext(ctx, query,
		msg.BusinessID,
		msg.ConversationID,
		msg.CustomerID,
		msg.Direction,
		msg.Channel,
		msg.Subject,
		msg.Content,
		msg.ExternalMessageID,
		msg.InReplyTo,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	// Check if row was actually inserted (not ignored due to duplicate)
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrAlreadyExists
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	msg.ID = id
	msg.CreatedAt = createdAt
	return nil
}

// GetMessageByExternalID returns a message by its external message id
func (db *DB) GetMessageByExternalID(ctx context.Context, externalID string) (*models.Message, error) {
	var msg models.Message
	query := `SELECT * FROM messages WHERE external_message_id = ?`
	err := db.GetContext(ctx, &msg, query, externalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return &msg, nil
}

// GetMessagesByConversation returns all messages of a conversation in
// chronological order.
func (db *DB) GetMessagesByConversation(ctx context.Context, conversationID int64) ([]*models.Message, error) {
	var msgs []*models.Message
	query := `SELECT * FROM messages WHERE conversation_id = ? ORDER BY created_at ASC`
	err := db.SelectContext(ctx, &msgs, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	return msgs, nil
}

// CreateAttachment records an uploaded attachment for a message
func (db *DB) CreateAttachment(ctx context.Context, att *models.MessageAttachment) error {
	query := `
		INSERT INTO message_attachments (message_id, filename, mime_type, size_bytes, url, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		att.MessageID,
		att.Filename,
		att.MimeType,
		att.SizeBytes,
		att.URL,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create attachment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	att.ID = id
	att.CreatedAt = now
	return nil
}

// GetAttachmentsByMessage returns the attachments of a message
func (db *DB) GetAttachmentsByMessage(ctx context.Context, messageID int64) ([]*models.MessageAttachment, error) {
	var atts []*models.MessageAttachment
	query := `SELECT * FROM message_attachments WHERE message_id = ? ORDER BY id ASC`
	err := db.SelectContext(ctx, &atts, query, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get attachments: %w", err)
	}
	return atts, nil
}
