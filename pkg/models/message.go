package models

import "time"

// Message directions and channels.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"

	ChannelEmail = "email"
)

// Message is one message inside a conversation. ExternalMessageID is
// unique across all messages; it is how the ingestion pipeline
// deduplicates redelivered mail.
type Message struct {
	ID                int64     `db:"id" json:"id"`
	BusinessID        int64     `db:"business_id" json:"business_id"`
	ConversationID    int64     `db:"conversation_id" json:"conversation_id"`
	CustomerID        int64     `db:"customer_id" json:"customer_id"`
	Direction         string    `db:"direction" json:"direction"`
	Channel           string    `db:"channel" json:"channel"`
	Subject           string    `db:"subject" json:"subject"`
	Content           string    `db:"content" json:"content"`
	ExternalMessageID string    `db:"external_message_id" json:"external_message_id"`
	InReplyTo         string    `db:"in_reply_to" json:"in_reply_to"`
	// CreatedAt carries the message's Date header, not ingestion time,
	// so email sorts chronologically against other channels.
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// MessageAttachment references an uploaded attachment blob.
type MessageAttachment struct {
	ID        int64     `db:"id" json:"id"`
	MessageID int64     `db:"message_id" json:"message_id"`
	Filename  string    `db:"filename" json:"filename"`
	MimeType  string    `db:"mime_type" json:"mime_type"`
	SizeBytes int64     `db:"size_bytes" json:"size_bytes"`
	URL       string    `db:"url" json:"url"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
