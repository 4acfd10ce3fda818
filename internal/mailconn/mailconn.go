// Package mailconn establishes authenticated sessions against mail
// servers and classifies the many ways that can fail. It speaks IMAP
// through emersion/go-imap and POP3 over a raw line-oriented socket.
package mailconn

import (
	"time"

	"github.com/omnidesk/mailsync/internal/sanitize"
	"github.com/omnidesk/mailsync/internal/syncerr"
)

// Default hard ceiling on the initial connect. Deep testing uses a
// longer one because misconfigured servers are the expected case there.
const (
	DefaultConnectTimeout  = 10 * time.Second
	DeepTestConnectTimeout = 15 * time.Second

	commandTimeout = 30 * time.Second
)

// Config identifies one server endpoint and credential pair.
type Config struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	UseTLS   bool   `json:"use_tls"`

	// Timeout bounds the initial connect. Zero means
	// DefaultConnectTimeout.
	Timeout time.Duration `json:"-"`
}

func (c Config) connectTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultConnectTimeout
}

// validate fails fast on configuration problems, before any network
// call is attempted.
func (c Config) validate() *syncerr.Error {
	if sanitize.Hostname(c.Host) == "" {
		return syncerr.New(syncerr.CodeInvalidHostname, "server hostname is empty")
	}
	if c.Port < 1 || c.Port > 65535 {
		return syncerr.New(syncerr.CodeInvalidPort, "server port is out of range")
	}
	if c.Username == "" || c.Password == "" {
		return syncerr.New(syncerr.CodeMissingCredentials, "username or password is empty")
	}
	return nil
}
