// Package ingest turns fetched raw mail into customer, conversation and
// message records.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/omnidesk/mailsync/internal/blob"
	"github.com/omnidesk/mailsync/internal/database"
	"github.com/omnidesk/mailsync/internal/htmltext"
	"github.com/omnidesk/mailsync/pkg/models"
)

// Pipeline persists fetched messages. Per-message failures are the
// caller's problem to log; per-attachment failures are swallowed here
// and never fail the parent message.
type Pipeline struct {
	db     *database.DB
	blobs  blob.Store
	html   *htmltext.Converter
	logger *slog.Logger
}

// New creates an ingestion pipeline.
func New(db *database.DB, blobs blob.Store, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		db:     db,
		blobs:  blobs,
		html:   htmltext.NewConverter(),
		logger: logger.With("component", "ingest"),
	}
}

// Ingest maps one fetched message into the shared data model. Returns
// false when the message was already ingested (idempotent no-op).
func (p *Pipeline) Ingest(ctx context.Context, account *models.MailAccount, fm *FetchedMessage) (bool, error) {
	// Dedupe before any other work.
	if _, err := p.db.GetMessageByExternalID(ctx, fm.ExternalID); err == nil {
		p.logger.Debug("skipping duplicate message", "external_id", fm.ExternalID)
		return false, nil
	} else if !errors.Is(err, database.ErrNotFound) {
		return false, fmt.Errorf("failed to check for duplicate: %w", err)
	}

	customer, err := p.resolveCustomer(ctx, account, fm)
	if err != nil {
		return false, err
	}

	conv, err := p.resolveConversation(ctx, account, customer, fm)
	if err != nil {
		return false, err
	}

	content := fm.Text
	if content == "" {
		content = p.html.Convert(fm.HTML)
	}

	msg := &models.Message{
		BusinessID:        account.BusinessID,
		ConversationID:    conv.ID,
		CustomerID:        customer.ID,
		Direction:         models.DirectionInbound,
		Channel:           models.ChannelEmail,
		Subject:           fm.Subject,
		Content:           content,
		ExternalMessageID: fm.ExternalID,
		InReplyTo:         fm.InReplyTo,
		CreatedAt:         fm.Date,
	}
	if err := p.db.CreateMessage(ctx, msg); err != nil {
		if errors.Is(err, database.ErrAlreadyExists) {
			return false, nil
		}
		return false, fmt.Errorf("failed to persist message: %w", err)
	}

	if err := p.db.TouchConversation(ctx, conv.ID, fm.Date); err != nil {
		p.logger.Warn("failed to touch conversation", "conversation_id", conv.ID, "error", err)
	}

	p.storeAttachments(ctx, account, customer, msg, fm)

	return true, nil
}

// resolveCustomer matches by sender address (primary or alternate
// email) and creates a customer from the From display name when no
// match exists.
func (p *Pipeline) resolveCustomer(ctx context.Context, account *models.MailAccount, fm *FetchedMessage) (*models.Customer, error) {
	if fm.FromAddr == "" {
		return nil, fmt.Errorf("message %s has no sender address", fm.ExternalID)
	}

	customer, err := p.db.GetCustomerByEmail(ctx, account.BusinessID, fm.FromAddr)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up customer: %w", err)
	}

	first, last := splitDisplayName(fm.FromName, fm.FromAddr)
	customer = &models.Customer{
		BusinessID: account.BusinessID,
		Email:      fm.FromAddr,
		FirstName:  first,
		LastName:   last,
	}
	if err := p.db.CreateCustomer(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	p.logger.Info("created customer", "customer_id", customer.ID, "email", customer.Email)
	return customer, nil
}

// resolveConversation threads by In-Reply-To first, then falls back to
// the customer's most recently updated active conversation, then
// creates a new one.
func (p *Pipeline) resolveConversation(ctx context.Context, account *models.MailAccount, customer *models.Customer, fm *FetchedMessage) (*models.Conversation, error) {
	if fm.InReplyTo != "" {
		if prior, err := p.db.GetMessageByExternalID(ctx, fm.InReplyTo); err == nil {
			conv, err := p.db.GetConversationByID(ctx, prior.ConversationID)
			if err == nil {
				return conv, nil
			}
			if !errors.Is(err, database.ErrNotFound) {
				return nil, fmt.Errorf("failed to load threaded conversation: %w", err)
			}
		} else if !errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("failed to resolve reply target: %w", err)
		}
	}

	conv, err := p.db.GetLatestActiveConversation(ctx, customer.ID)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up active conversation: %w", err)
	}

	conv = &models.Conversation{
		BusinessID:    account.BusinessID,
		CustomerID:    customer.ID,
		Channel:       models.ChannelEmail,
		Status:        models.ConversationActive,
		ThreadID:      fm.ExternalID,
		LastMessageAt: fm.Date,
	}
	if err := p.db.CreateConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	p.logger.Info("created conversation", "conversation_id", conv.ID, "customer_id", customer.ID)
	return conv, nil
}

// storeAttachments uploads each attachment and records it. Failures
// are logged and skipped per attachment; they never fail the message.
func (p *Pipeline) storeAttachments(ctx context.Context, account *models.MailAccount, customer *models.Customer, msg *models.Message, fm *FetchedMessage) {
	for _, att := range fm.Attachments {
		blobPath := path.Join(
			fmt.Sprintf("business/%d", account.BusinessID),
			fmt.Sprintf("customers/%d", customer.ID),
			fmt.Sprintf("%04d/%02d", fm.Date.Year(), int(fm.Date.Month())),
			safeFilename(att.Filename),
		)

		url, err := p.blobs.Upload(ctx, blobPath, att.Data, att.MimeType)
		if err != nil {
			p.logger.Warn("attachment upload failed",
				"message_id", msg.ID, "filename", att.Filename, "error", err)
			continue
		}

		record := &models.MessageAttachment{
			MessageID: msg.ID,
			Filename:  att.Filename,
			MimeType:  att.MimeType,
			SizeBytes: int64(len(att.Data)),
			URL:       url,
		}
		if err := p.db.CreateAttachment(ctx, record); err != nil {
			p.logger.Warn("attachment record failed",
				"message_id", msg.ID, "filename", att.Filename, "error", err)
		}
	}
}

func safeFilename(name string) string {
	name = path.Base(name)
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if name == "" || name == "." {
		name = "attachment"
	}
	return name
}
