// Package resolver suggests IMAP settings for an email address, used
// to prefill account forms. Suggestions are guesses; the deep test is
// what verifies them.
package resolver

import (
	"fmt"
	"strings"
)

// Suggestion is a candidate IMAP endpoint for an address.
type Suggestion struct {
	Host   string `json:"host"`
	Port   int    `json:"port"`
	UseTLS bool   `json:"use_tls"`
	Known  bool   `json:"known"` // true when the provider is in the curated map
}

// Common IMAP servers for popular email providers
var knownIMAPServers = map[string]string{
	"gmail.com":      "imap.gmail.com",
	"googlemail.com": "imap.gmail.com",
	"outlook.com":    "outlook.office365.com",
	"hotmail.com":    "outlook.office365.com",
	"live.com":       "outlook.office365.com",
	"msn.com":        "outlook.office365.com",
	"yahoo.com":      "imap.mail.yahoo.com",
	"yahoo.co.uk":    "imap.mail.yahoo.com",
	"yandex.ru":      "imap.yandex.ru",
	"yandex.com":     "imap.yandex.com",
	"mail.ru":        "imap.mail.ru",
	"icloud.com":     "imap.mail.me.com",
	"me.com":         "imap.mail.me.com",
	"mac.com":        "imap.mail.me.com",
	"aol.com":        "imap.aol.com",
	"zoho.com":       "imap.zoho.com",
	"fastmail.com":   "imap.fastmail.com",
	"gmx.com":        "imap.gmx.com",
	"gmx.de":         "imap.gmx.net",
	"web.de":         "imap.web.de",
	"t-online.de":    "secureimap.t-online.de",
}

// SuggestIMAP returns the best guess for an address's IMAP endpoint:
// the curated provider map first, then the common imap.<domain>
// convention.
func SuggestIMAP(email string) (*Suggestion, error) {
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[1] == "" {
		return nil, fmt.Errorf("invalid email format")
	}
	domain := strings.ToLower(parts[1])

	if host, ok := knownIMAPServers[domain]; ok {
		return &Suggestion{Host: host, Port: 993, UseTLS: true, Known: true}, nil
	}

	return &Suggestion{Host: "imap." + domain, Port: 993, UseTLS: true}, nil
}
