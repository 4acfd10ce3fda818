package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/omnidesk/mailsync/pkg/models"
)

// CreateConversation creates a new conversation
func (db *DB) CreateConversation(ctx context.Context, conv *models.Conversation) error {
	if conv.Status == "" {
		conv.Status = models.ConversationActive
	}
	if conv.Channel == "" {
		conv.Channel = models.ChannelEmail
	}
	query := `
		INSERT INTO conversations (business_id, customer_id, channel, status, thread_id, last_message_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	if conv.LastMessageAt.IsZero() {
		conv.LastMessageAt = now
	}
	result, err := db.ExecContext(ctx, query,
		conv.BusinessID,
		conv.CustomerID,
		conv.Channel,
		conv.Status,
		conv.ThreadID,
		conv.LastMessageAt,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	conv.ID = id
	conv.CreatedAt = now
	conv.UpdatedAt = now
	return nil
}

// GetConversationByID returns a conversation by ID
func (db *DB) GetConversationByID(ctx context.Context, id int64) (*models.Conversation, error) {
	var conv models.Conversation
	query := `SELECT * FROM conversations WHERE id = ?`
	err := db.GetContext(ctx, &conv, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &conv, nil
}

// GetLatestActiveConversation returns the customer's most recently
// updated conversation with status active.
func (db *DB) GetLatestActiveConversation(ctx context.Context, customerID int64) (*models.Conversation, error) {
	var conv models.Conversation
	query := `
		SELECT * FROM conversations
		WHERE customer_id = ? AND status = ?
		ORDER BY updated_at DESC
		LIMIT 1
	`
	err := db.GetContext(ctx, &conv, query, customerID, models.ConversationActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active conversation: %w", err)
	}
	return &conv, nil
}

// TouchConversation bumps a conversation's last message and update times.
func (db *DB) TouchConversation(ctx context.Context, id int64, lastMessageAt time.Time) error {
	query := `UPDATE conversations SET last_message_at = ?, updated_at = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, lastMessageAt, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}
	return nil
}
