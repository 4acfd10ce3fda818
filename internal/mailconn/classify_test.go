package mailconn

import (
	"errors"
	"net"
	"testing"

	"github.com/emersion/go-imap"
	"github.com/stretchr/testify/assert"

	"github.com/omnidesk/mailsync/internal/syncerr"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "dial tcp: i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestClassifyDialError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		useTLS bool
		want   syncerr.Code
	}{
		{"timeout beats everything", timeoutError{}, true, syncerr.CodeConnectionTimeout},
		{"dns error", &net.DNSError{Err: "no such host", Name: "mail.example.com"}, false, syncerr.CodeDNSLookupFailed},
		{"tls handshake", errors.New("tls: first record does not look like a TLS handshake"), true, syncerr.CodeTLSHandshakeFailed},
		{"bad certificate", errors.New("x509: certificate signed by unknown authority"), true, syncerr.CodeTLSHandshakeFailed},
		{"plain refusal", errors.New("connect: connection refused"), false, syncerr.CodeConnectionFailed},
		{"tls text without tls mode stays generic", errors.New("tls something"), false, syncerr.CodeConnectionFailed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classifyDialError(tc.err, tc.useTLS)
			assert.Equal(t, tc.want, got.Code)
			assert.ErrorIs(t, got, tc.err)
		})
	}
}

func TestClassifyIMAPSelectError(t *testing.T) {
	t.Run("structured auth code wins over mailbox missing", func(t *testing.T) {
		resp := &imap.StatusResp{
			Type: imap.StatusRespNo,
			Code: "AUTHENTICATIONFAILED",
			Info: "Invalid credentials (Failure)",
		}
		got := classifyIMAPSelectError(resp)
		assert.Equal(t, syncerr.CodeIMAPAuthFailed, got.Code)
		assert.Equal(t, syncerr.ReasonAuthRejected, got.Reason)
	})

	t.Run("auth text fallback", func(t *testing.T) {
		got := classifyIMAPSelectError(errors.New("NO [ALERT] Authentication failed"))
		assert.Equal(t, syncerr.CodeIMAPAuthFailed, got.Code)
	})

	t.Run("anything else is mailbox not found", func(t *testing.T) {
		got := classifyIMAPSelectError(errors.New("NO Mailbox doesn't exist: INBOX"))
		assert.Equal(t, syncerr.CodeMailboxNotFound, got.Code)
		assert.Equal(t, syncerr.ReasonMailboxMissing, got.Reason)
	})
}

func TestClassifyIMAPLoginError(t *testing.T) {
	t.Run("plain rejection", func(t *testing.T) {
		got := classifyIMAPLoginError(errors.New("NO LOGIN failed"))
		assert.Equal(t, syncerr.CodeIMAPAuthFailed, got.Code)
		assert.Equal(t, syncerr.ReasonAuthRejected, got.Reason)
	})

	t.Run("app password hint", func(t *testing.T) {
		got := classifyIMAPLoginError(errors.New("NO Application-specific password required"))
		assert.Equal(t, syncerr.CodeAppPasswordRequired, got.Code)
	})
}

func TestClassifyPOP3AuthError(t *testing.T) {
	got := classifyPOP3AuthError("-ERR [AUTH] Username and password not accepted")
	assert.Equal(t, syncerr.CodePOP3AuthFailed, got.Code)
	assert.Equal(t, syncerr.ReasonAuthRejected, got.Reason)
}

func TestConfigValidate(t *testing.T) {
	base := Config{Host: "mail.example.com", Port: 993, Username: "u", Password: "p"}

	cases := []struct {
		name   string
		mutate func(*Config)
		want   syncerr.Code
	}{
		{"empty host", func(c *Config) { c.Host = "" }, syncerr.CodeInvalidHostname},
		{"zero port", func(c *Config) { c.Port = 0 }, syncerr.CodeInvalidPort},
		{"huge port", func(c *Config) { c.Port = 70000 }, syncerr.CodeInvalidPort},
		{"no password", func(c *Config) { c.Password = "" }, syncerr.CodeMissingCredentials},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			got := cfg.validate()
			assert.NotNil(t, got)
			assert.Equal(t, tc.want, got.Code)
		})
	}

	assert.Nil(t, base.validate())
}
