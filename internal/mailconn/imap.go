package mailconn

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"

	"github.com/omnidesk/mailsync/internal/oplog"
	"github.com/omnidesk/mailsync/internal/sanitize"
)

// IMAPSession is an authenticated IMAP connection with INBOX selected.
type IMAPSession struct {
	Client  *client.Client
	Mailbox *imap.MailboxStatus
}

// Close logs out, ignoring errors; the session is done either way.
func (s *IMAPSession) Close() {
	if s.Client != nil {
		_ = s.Client.Logout()
	}
}

// ConnectIMAP opens an authenticated IMAP session and selects INBOX.
// Every step is logged through op. On failure the returned error
// carries a classified taxonomy code; priority is auth >
// mailbox-not-found > TLS > connect > timeout > unknown.
func ConnectIMAP(ctx context.Context, cfg Config, op *oplog.Operation) (*IMAPSession, error) {
	if cerr := cfg.validate(); cerr != nil {
		op.LogError(ctx, "validate_config", cerr.Code, cerr.Message)
		return nil, cerr
	}

	host := sanitize.Hostname(cfg.Host)
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", cfg.Port))

	// Best-effort DNS check. Some resolvers lie, so a failure here is
	// only a warning; the dial below is authoritative.
	if addrs, err := net.DefaultResolver.LookupHost(ctx, host); err != nil {
		op.LogWarning(ctx, "resolve_dns", map[string]any{"host": host}, err.Error())
	} else {
		op.LogSuccess(ctx, "resolve_dns", map[string]any{"host": host, "addresses": len(addrs)})
	}

	dialer := &net.Dialer{Timeout: cfg.connectTimeout()}

	var c *client.Client
	var err error
	if cfg.UseTLS {
		c, err = client.DialWithDialerTLS(dialer, addr, &tls.Config{ServerName: host})
	} else {
		c, err = client.DialWithDialer(dialer, addr)
	}
	if err != nil {
		cerr := classifyDialError(err, cfg.UseTLS)
		op.LogError(ctx, "connect_socket", cerr.Code, cerr.Error())
		return nil, cerr
	}
	op.LogSuccess(ctx, "connect_socket", map[string]any{"address": addr, "tls": cfg.UseTLS})

	c.Timeout = commandTimeout

	// Best-effort capability probe, useful in the audit trail when a
	// server turns out to not support what we need.
	if caps, err := c.Capability(); err != nil {
		op.LogWarning(ctx, "capability", nil, err.Error())
	} else {
		names := make([]string, 0, len(caps))
		for name := range caps {
			names = append(names, name)
		}
		op.LogSuccess(ctx, "capability", map[string]any{"capabilities": names})
	}

	if err := c.Login(cfg.Username, cfg.Password); err != nil {
		cerr := classifyIMAPLoginError(err)
		op.LogError(ctx, "login", cerr.Code, cerr.Error())
		_ = c.Logout()
		return nil, cerr
	}
	op.LogSuccess(ctx, "login", map[string]any{"username": cfg.Username})

	mbox, err := c.Select("INBOX", false)
	if err != nil {
		cerr := classifyIMAPSelectError(err)
		op.LogError(ctx, "select_inbox", cerr.Code, cerr.Error())
		_ = c.Logout()
		return nil, cerr
	}
	op.LogSuccess(ctx, "select_inbox", map[string]any{
		"messages":    mbox.Messages,
		"uidvalidity": mbox.UidValidity,
	})

	return &IMAPSession{Client: c, Mailbox: mbox}, nil
}
