package models

import "time"

// Conversation statuses.
const (
	ConversationActive = "active"
	ConversationClosed = "closed"
)

// Conversation groups messages with one customer on one channel. The
// ingestion pipeline reuses the customer's most recently updated active
// conversation before creating a new one.
type Conversation struct {
	ID            int64     `db:"id" json:"id"`
	BusinessID    int64     `db:"business_id" json:"business_id"`
	CustomerID    int64     `db:"customer_id" json:"customer_id"`
	Channel       string    `db:"channel" json:"channel"`
	Status        string    `db:"status" json:"status"`
	ThreadID      string    `db:"thread_id" json:"thread_id"`
	LastMessageAt time.Time `db:"last_message_at" json:"last_message_at"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
