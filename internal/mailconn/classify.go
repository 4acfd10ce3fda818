package mailconn

import (
	"errors"
	"net"
	"strings"

	"github.com/emersion/go-imap"

	"github.com/omnidesk/mailsync/internal/syncerr"
)

// Classification priority, highest first: authentication error,
// mailbox-not-found, TLS/handshake failure, TCP connection failure,
// timeout, unknown. Structured errors are preferred; substring
// matching on server text lives only in this file so the heuristics
// stay easy to update.

// classifyDialError classifies a failure to open the socket.
func classifyDialError(err error, useTLS bool) *syncerr.Error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return syncerr.Wrap(syncerr.CodeConnectionTimeout, "connection timed out", err)
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return syncerr.Wrap(syncerr.CodeDNSLookupFailed, "hostname could not be resolved", err)
	}

	if useTLS && isTLSHandshakeError(err) {
		return syncerr.Wrap(syncerr.CodeTLSHandshakeFailed, "TLS handshake failed", err)
	}

	return syncerr.Wrap(syncerr.CodeConnectionFailed, "could not connect to server", err)
}

// classifyIMAPLoginError classifies a rejected LOGIN.
func classifyIMAPLoginError(err error) *syncerr.Error {
	if isAppPasswordError(err) {
		return syncerr.Wrap(syncerr.CodeAppPasswordRequired, "server requires an app-specific password", err).
			WithReason(syncerr.ReasonAuthRejected)
	}
	return syncerr.Wrap(syncerr.CodeIMAPAuthFailed, "server rejected credentials", err).
		WithReason(syncerr.ReasonAuthRejected)
}

// classifyIMAPSelectError classifies a failed SELECT INBOX. Selecting
// is the last step of session setup, so a failure here usually means
// the mailbox is missing, unless the server response is an auth
// rejection, which takes priority.
func classifyIMAPSelectError(err error) *syncerr.Error {
	if isAuthRejection(err) {
		return classifyIMAPLoginError(err)
	}
	return syncerr.Wrap(syncerr.CodeMailboxNotFound, "INBOX could not be selected", err).
		WithReason(syncerr.ReasonMailboxMissing)
}

// classifyPOP3AuthError classifies a non-+OK response to PASS.
func classifyPOP3AuthError(line string) *syncerr.Error {
	err := errors.New(line)
	if isAppPasswordError(err) {
		return syncerr.Wrap(syncerr.CodeAppPasswordRequired, "server requires an app-specific password", err).
			WithReason(syncerr.ReasonAuthRejected)
	}
	return syncerr.Wrap(syncerr.CodePOP3AuthFailed, "server rejected credentials", err).
		WithReason(syncerr.ReasonAuthRejected)
}

// isAuthRejection checks the structured IMAP response code first and
// falls back to matching the server's error text.
func isAuthRejection(err error) bool {
	var status *imap.StatusResp
	if errors.As(err, &status) {
		switch status.Code {
		case "AUTHENTICATIONFAILED", "AUTHORIZATIONFAILED", "PRIVACYREQUIRED":
			return true
		}
		return authRejectedText(status.Info)
	}
	return authRejectedText(err.Error())
}

// authRejectedText is the substring fallback for servers that send no
// response code.
func authRejectedText(msg string) bool {
	lower := strings.ToLower(msg)
	for _, marker := range []string{
		"authenticationfailed",
		"authentication failed",
		"invalid credentials",
		"login failed",
		"username and password not accepted",
	} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func isAppPasswordError(err error) bool {
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "app password") ||
		strings.Contains(lower, "app-specific password") ||
		strings.Contains(lower, "application-specific password")
}

func isTLSHandshakeError(err error) bool {
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "tls") ||
		strings.Contains(lower, "handshake") ||
		strings.Contains(lower, "certificate") ||
		strings.Contains(lower, "x509")
}
