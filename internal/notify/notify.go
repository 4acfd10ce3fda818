// Package notify delivers fire-and-forget push notifications about
// newly synced mail. Delivery failures are logged by callers, never
// propagated into the sync result.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Notifier announces new inbound email for an account.
type Notifier interface {
	NewEmails(ctx context.Context, accountID int64, count int) error
}

// Noop is used when no webhook is configured.
type Noop struct{}

func (Noop) NewEmails(ctx context.Context, accountID int64, count int) error { return nil }

// Webhook posts notifications to an HTTP endpoint.
type Webhook struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

// NewWebhook creates a webhook notifier.
func NewWebhook(url, apiKey string) *Webhook {
	return &Webhook{
		url:    url,
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type newEmailsPayload struct {
	AccountID int64  `json:"account_id"`
	NewEmails int    `json:"new_emails"`
	Message   string `json:"message"`
}

// NewEmails posts an "N new emails" notification.
func (w *Webhook) NewEmails(ctx context.Context, accountID int64, count int) error {
	payload := newEmailsPayload{
		AccountID: accountID,
		NewEmails: count,
		Message:   fmt.Sprintf("%d new emails", count),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if w.apiKey != "" {
		req.Header.Set("X-API-Key", w.apiKey)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("notification endpoint answered %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
