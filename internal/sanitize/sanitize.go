// Package sanitize normalizes user-supplied server configuration before
// any network call is made with it.
package sanitize

import (
	"strings"
)

var schemePrefixes = []string{
	"imaps://",
	"imap://",
	"pop3s://",
	"pop3://",
	"smtps://",
	"smtp://",
	"https://",
	"http://",
}

// Hostname strips a leading scheme, an embedded port and any path from
// a user-entered server address. It is a pure function and never fails:
// malformed input comes back unchanged, favoring a clear downstream
// connection error over an opaque parse error here.
func Hostname(raw string) string {
	host := strings.TrimSpace(raw)
	if host == "" {
		return host
	}

	lower := strings.ToLower(host)
	for _, prefix := range schemePrefixes {
		if strings.HasPrefix(lower, prefix) {
			host = host[len(prefix):]
			break
		}
	}

	if i := strings.IndexAny(host, "/:"); i >= 0 {
		host = host[:i]
	}

	return host
}
