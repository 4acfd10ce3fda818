package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omnidesk/mailsync/internal/database"
	"github.com/omnidesk/mailsync/pkg/models"
)

// memBlobs keeps uploads in memory; failing simulates a broken store.
type memBlobs struct {
	uploads map[string][]byte
	failing bool
}

func (b *memBlobs) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	if b.failing {
		return "", errors.New("blob store unavailable")
	}
	if b.uploads == nil {
		b.uploads = make(map[string][]byte)
	}
	b.uploads[path] = data
	return "http://blobs.local/" + path, nil
}

func newTestPipeline(t *testing.T) (*Pipeline, *database.DB, *memBlobs) {
	t.Helper()
	db, err := database.NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(context.Background()))

	blobs := &memBlobs{}
	return New(db, blobs, slog.New(slog.DiscardHandler)), db, blobs
}

func testAccount() *models.MailAccount {
	return &models.MailAccount{ID: 1, BusinessID: 42, Email: "support@acme.test"}
}

func fetched(externalID, fromAddr string) *FetchedMessage {
	return &FetchedMessage{
		ExternalID: externalID,
		FromAddr:   fromAddr,
		FromName:   "Jane Doe",
		Subject:    "hello",
		Text:       "body text",
		Date:       time.Now(),
	}
}

func TestIngestIsIdempotent(t *testing.T) {
	p, db, _ := newTestPipeline(t)
	ctx := context.Background()
	account := testAccount()

	created, err := p.Ingest(ctx, account, fetched("<m1@example.com>", "jane@example.com"))
	require.NoError(t, err)
	assert.True(t, created)

	// Same external ID again is a silent no-op.
	created, err = p.Ingest(ctx, account, fetched("<m1@example.com>", "jane@example.com"))
	require.NoError(t, err)
	assert.False(t, created)

	msg, err := db.GetMessageByExternalID(ctx, "<m1@example.com>")
	require.NoError(t, err)
	msgs, err := db.GetMessagesByConversation(ctx, msg.ConversationID)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestIngestCreatesCustomerFromSender(t *testing.T) {
	p, db, _ := newTestPipeline(t)
	ctx := context.Background()

	_, err := p.Ingest(ctx, testAccount(), fetched("<m1@example.com>", "jane@example.com"))
	require.NoError(t, err)

	customer, err := db.GetCustomerByEmail(ctx, 42, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Jane", customer.FirstName)
	assert.Equal(t, "Doe", customer.LastName)
}

func TestIngestMatchesAlternateEmail(t *testing.T) {
	p, db, _ := newTestPipeline(t)
	ctx := context.Background()

	existing := &models.Customer{
		BusinessID:      42,
		Email:           "jane@example.com",
		AlternateEmails: `["jane.doe@personal.test"]`,
		FirstName:       "Jane",
	}
	require.NoError(t, db.CreateCustomer(ctx, existing))

	_, err := p.Ingest(ctx, testAccount(), fetched("<m1@example.com>", "jane.doe@personal.test"))
	require.NoError(t, err)

	// The message attaches to the existing customer, no new record.
	msg, err := db.GetMessageByExternalID(ctx, "<m1@example.com>")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, msg.CustomerID)

	_, err = db.GetCustomerByEmail(ctx, 42, "jane.doe@personal.test")
	require.NoError(t, err, "alternate email resolves to the existing customer")
}

func TestIngestThreadsByInReplyTo(t *testing.T) {
	p, db, _ := newTestPipeline(t)
	ctx := context.Background()
	account := testAccount()

	_, err := p.Ingest(ctx, account, fetched("<root@example.com>", "jane@example.com"))
	require.NoError(t, err)
	root, err := db.GetMessageByExternalID(ctx, "<root@example.com>")
	require.NoError(t, err)

	// A reply from a different sender still lands in the root's
	// conversation.
	reply := fetched("<reply@example.com>", "colleague@example.com")
	reply.InReplyTo = "<root@example.com>"
	_, err = p.Ingest(ctx, account, reply)
	require.NoError(t, err)

	got, err := db.GetMessageByExternalID(ctx, "<reply@example.com>")
	require.NoError(t, err)
	assert.Equal(t, root.ConversationID, got.ConversationID)
}

func TestIngestReusesActiveConversation(t *testing.T) {
	p, db, _ := newTestPipeline(t)
	ctx := context.Background()
	account := testAccount()

	_, err := p.Ingest(ctx, account, fetched("<m1@example.com>", "jane@example.com"))
	require.NoError(t, err)
	first, err := db.GetMessageByExternalID(ctx, "<m1@example.com>")
	require.NoError(t, err)

	// No In-Reply-To, but the customer has an open conversation.
	_, err = p.Ingest(ctx, account, fetched("<m2@example.com>", "jane@example.com"))
	require.NoError(t, err)
	second, err := db.GetMessageByExternalID(ctx, "<m2@example.com>")
	require.NoError(t, err)

	assert.Equal(t, first.ConversationID, second.ConversationID)
}

func TestIngestStoresAttachments(t *testing.T) {
	p, db, blobs := newTestPipeline(t)
	ctx := context.Background()

	fm := fetched("<m1@example.com>", "jane@example.com")
	fm.Date = time.Date(2026, 6, 2, 10, 0, 0, 0, time.UTC)
	fm.Attachments = []Attachment{
		{Filename: "invoice.pdf", MimeType: "application/pdf", Data: []byte("pdf bytes")},
	}

	created, err := p.Ingest(ctx, testAccount(), fm)
	require.NoError(t, err)
	assert.True(t, created)

	msg, err := db.GetMessageByExternalID(ctx, "<m1@example.com>")
	require.NoError(t, err)
	atts, err := db.GetAttachmentsByMessage(ctx, msg.ID)
	require.NoError(t, err)
	require.Len(t, atts, 1)
	assert.Equal(t, "invoice.pdf", atts[0].Filename)
	assert.Equal(t, int64(len("pdf bytes")), atts[0].SizeBytes)

	expectedPath := fmt.Sprintf("business/42/customers/%d/2026/06/invoice.pdf", msg.CustomerID)
	assert.Contains(t, blobs.uploads, expectedPath)
	assert.Equal(t, "http://blobs.local/"+expectedPath, atts[0].URL)
}

func TestIngestSurvivesAttachmentFailure(t *testing.T) {
	p, db, blobs := newTestPipeline(t)
	blobs.failing = true
	ctx := context.Background()

	fm := fetched("<m1@example.com>", "jane@example.com")
	fm.Attachments = []Attachment{
		{Filename: "invoice.pdf", MimeType: "application/pdf", Data: []byte("pdf bytes")},
	}

	created, err := p.Ingest(ctx, testAccount(), fm)
	require.NoError(t, err, "a broken blob store must not fail the message")
	assert.True(t, created)

	msg, err := db.GetMessageByExternalID(ctx, "<m1@example.com>")
	require.NoError(t, err)
	atts, err := db.GetAttachmentsByMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.Empty(t, atts)
}

func TestIngestFallsBackToHTMLContent(t *testing.T) {
	p, db, _ := newTestPipeline(t)
	ctx := context.Background()

	fm := fetched("<m1@example.com>", "jane@example.com")
	fm.Text = ""
	fm.HTML = "<p>Hello from <b>HTML</b></p>"

	_, err := p.Ingest(ctx, testAccount(), fm)
	require.NoError(t, err)

	msg, err := db.GetMessageByExternalID(ctx, "<m1@example.com>")
	require.NoError(t, err)
	assert.Contains(t, msg.Content, "Hello from HTML")
	assert.NotContains(t, msg.Content, "<p>")
}

func TestIngestRejectsMissingSender(t *testing.T) {
	p, _, _ := newTestPipeline(t)

	fm := fetched("<m1@example.com>", "")
	_, err := p.Ingest(context.Background(), testAccount(), fm)
	assert.Error(t, err)
}
