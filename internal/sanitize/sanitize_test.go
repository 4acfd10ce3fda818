package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHostname(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain host", "mail.example.com", "mail.example.com"},
		{"imaps scheme with port and path", "imaps://mail.example.com:993/path", "mail.example.com"},
		{"imap scheme", "imap://mail.example.com", "mail.example.com"},
		{"smtp scheme", "smtp://smtp.example.com", "smtp.example.com"},
		{"https scheme", "https://mail.example.com/webmail", "mail.example.com"},
		{"embedded port", "mail.example.com:143", "mail.example.com"},
		{"trailing path", "mail.example.com/inbox", "mail.example.com"},
		{"surrounding whitespace", "  mail.example.com  ", "mail.example.com"},
		{"uppercase scheme", "IMAPS://Mail.Example.com", "Mail.Example.com"},
		{"empty", "", ""},
		{"garbage survives unchanged", "not a hostname at all", "not a hostname at all"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Hostname(tc.in))
		})
	}
}
