package syncerr

// Code identifies one entry of the closed error taxonomy. Consumers
// match on these values, so they are part of the API surface and must
// stay stable.
type Code string

const (
	// Authentication failures.
	CodeIMAPAuthFailed      Code = "IMAP_AUTH_FAILED"
	CodePOP3AuthFailed      Code = "POP3_AUTH_FAILED"
	CodeSMTPAuthFailed      Code = "SMTP_AUTH_FAILED"
	CodeAppPasswordRequired Code = "APP_PASSWORD_REQUIRED"

	// Connection failures.
	CodeDNSLookupFailed    Code = "DNS_LOOKUP_FAILED"
	CodeConnectionFailed   Code = "CONNECTION_FAILED"
	CodeTLSHandshakeFailed Code = "TLS_HANDSHAKE_FAILED"
	CodeConnectionTimeout  Code = "CONNECTION_TIMEOUT"

	// Configuration failures, detected before any network call.
	CodeInvalidHostname    Code = "INVALID_HOSTNAME"
	CodeInvalidPort        Code = "INVALID_PORT"
	CodeMissingCredentials Code = "MISSING_CREDENTIALS"
	CodeIncompleteConfig   Code = "INCOMPLETE_CONFIG"

	// Sync failures.
	CodeMailboxNotFound    Code = "MAILBOX_NOT_FOUND"
	CodeUIDValidityChanged Code = "UIDVALIDITY_CHANGED"
	CodeDuplicateMessage   Code = "DUPLICATE_MESSAGE"
	CodeFetchFailed        Code = "FETCH_FAILED"
	CodeSyncInProgress     Code = "SYNC_IN_PROGRESS"

	// Send failures (outbound paths).
	CodeNoActiveAccount  Code = "NO_ACTIVE_ACCOUNT"
	CodeTemplateNotFound Code = "TEMPLATE_NOT_FOUND"
	CodeCustomerNotFound Code = "CUSTOMER_NOT_FOUND"
	CodeSendFailed       Code = "SEND_FAILED"

	CodeUnknown Code = "UNKNOWN"
)

// Reason disambiguates codes that can have more than one cause. The
// IMAP negotiator authenticates implicitly while opening the mailbox,
// so a failed open needs a tag to tell "credentials rejected" apart
// from "INBOX missing".
type Reason string

const (
	ReasonNone           Reason = ""
	ReasonAuthRejected   Reason = "auth_rejected"
	ReasonMailboxMissing Reason = "mailbox_missing"
)

// IsAuth reports whether the code is an authentication failure.
func (c Code) IsAuth() bool {
	switch c {
	case CodeIMAPAuthFailed, CodePOP3AuthFailed, CodeSMTPAuthFailed, CodeAppPasswordRequired:
		return true
	}
	return false
}

// IsConfig reports whether the code is a configuration/validation
// failure the client can correct.
func (c Code) IsConfig() bool {
	switch c {
	case CodeInvalidHostname, CodeInvalidPort, CodeMissingCredentials, CodeIncompleteConfig:
		return true
	}
	return false
}
