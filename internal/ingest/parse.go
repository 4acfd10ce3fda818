package ingest

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
)

// Attachment is one decoded MIME attachment.
type Attachment struct {
	Filename string
	MimeType string
	Data     []byte
}

// FetchedMessage is the result of parsing one raw mail payload. It is
// transient: the pipeline maps it into a Message row, it is never
// stored as-is. UID or UIDL carries the protocol-level identifier used
// for bookmarking.
type FetchedMessage struct {
	ExternalID  string
	FromName    string
	FromAddr    string
	To          []string
	Subject     string
	Date        time.Time
	Text        string
	HTML        string
	InReplyTo   string
	References  []string
	Attachments []Attachment

	UID  uint32
	UIDL string
}

// ParseRaw MIME-parses one raw RFC 5322 message. A missing Message-ID
// is replaced with a content hash so deduplication still works for
// servers that redeliver such messages byte-identically.
func ParseRaw(raw []byte) (*FetchedMessage, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to open mail reader: %w", err)
	}

	fm := &FetchedMessage{}

	header := mr.Header
	if id, err := header.MessageID(); err == nil && id != "" {
		fm.ExternalID = id
	} else {
		sum := sha256.Sum256(raw)
		fm.ExternalID = fmt.Sprintf("%x@content.hash", sum[:12])
	}

	if subject, err := header.Subject(); err == nil {
		fm.Subject = subject
	}

	if date, err := header.Date(); err == nil && !date.IsZero() {
		fm.Date = date
	} else {
		fm.Date = time.Now()
	}

	if from, err := header.AddressList("From"); err == nil && len(from) > 0 {
		fm.FromName = from[0].Name
		fm.FromAddr = strings.ToLower(from[0].Address)
	}

	if to, err := header.AddressList("To"); err == nil {
		for _, addr := range to {
			fm.To = append(fm.To, strings.ToLower(addr.Address))
		}
	}

	if ids, err := header.MsgIDList("In-Reply-To"); err == nil && len(ids) > 0 {
		fm.InReplyTo = ids[0]
	}
	if ids, err := header.MsgIDList("References"); err == nil {
		fm.References = ids
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A broken part does not invalidate what was already
			// decoded.
			break
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			ct, _, _ := h.ContentType()
			body, err := io.ReadAll(part.Body)
			if err != nil {
				continue
			}
			switch {
			case strings.HasPrefix(ct, "text/plain"):
				if fm.Text == "" {
					fm.Text = string(body)
				}
			case strings.HasPrefix(ct, "text/html"):
				if fm.HTML == "" {
					fm.HTML = string(body)
				}
			}

		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			if filename == "" {
				filename = "attachment"
			}
			ct, _, _ := h.ContentType()
			data, err := io.ReadAll(part.Body)
			if err != nil {
				continue
			}
			fm.Attachments = append(fm.Attachments, Attachment{
				Filename: filename,
				MimeType: ct,
				Data:     data,
			})
		}
	}

	return fm, nil
}

// splitDisplayName splits a From display name into first and last name
// for newly created customers.
func splitDisplayName(name, fallbackEmail string) (string, string) {
	name = strings.TrimSpace(name)
	if name == "" {
		// Use the local part of the address when there is no display
		// name at all.
		if i := strings.Index(fallbackEmail, "@"); i > 0 {
			return fallbackEmail[:i], ""
		}
		return fallbackEmail, ""
	}

	parts := strings.Fields(name)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
