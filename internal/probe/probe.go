// Package probe implements the "deep test": a systematic walk over a
// fixed matrix of plausible misconfigurations ({port, TLS mode,
// username form}) to discover a working setup when the primary one
// fails. It is configuration discovery, not a retry loop: the
// candidate list is deterministic and each candidate is tried once.
package probe

import (
	"context"
	"strings"
	"time"

	"github.com/omnidesk/mailsync/internal/mailconn"
	"github.com/omnidesk/mailsync/internal/oplog"
	"github.com/omnidesk/mailsync/internal/syncerr"
)

// Hint returned when every variant fails.
const RemediationHint = "check password; some providers require app-specific passwords"

// Variant is one candidate configuration with a stable label.
type Variant struct {
	Name   string          `json:"name"`
	Config mailconn.Config `json:"config"`
}

// Attempt is the outcome of trying one variant.
type Attempt struct {
	Variant string          `json:"variant"`
	Config  mailconn.Config `json:"config"`
	OK      bool            `json:"ok"`
	Code    syncerr.Code    `json:"code,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Report is the result of a deep test run.
type Report struct {
	OK             bool             `json:"ok"`
	WorkingVariant string           `json:"working_variant,omitempty"`
	WorkingConfig  *mailconn.Config `json:"working_config,omitempty"`
	Attempts       []Attempt        `json:"all_results"`
	DurationMs     int64            `json:"duration_ms"`
	Hint           string           `json:"hint,omitempty"`
}

// BuildVariants expands the primary configuration into the candidate
// list, in the order they are tried:
//
//  1. the original configuration as given,
//  2. the local part of the username, when it is a full address (some
//     servers reject full-email usernames),
//  3. for port 993, the STARTTLS-style port 143 without implicit TLS,
//     combined with the local-part form when applicable,
//  4. symmetrically, for port 143, port 993 with TLS on.
func BuildVariants(primary mailconn.Config) []Variant {
	variants := []Variant{{Name: "original", Config: primary}}

	localPart := ""
	if i := strings.Index(primary.Username, "@"); i > 0 {
		localPart = primary.Username[:i]
	}

	if localPart != "" {
		v := primary
		v.Username = localPart
		variants = append(variants, Variant{Name: "local_part_username", Config: v})
	}

	switch primary.Port {
	case 993:
		alt := primary
		alt.Port = 143
		alt.UseTLS = false
		variants = append(variants, Variant{Name: "port_143_no_tls", Config: alt})
		if localPart != "" {
			combo := alt
			combo.Username = localPart
			variants = append(variants, Variant{Name: "port_143_no_tls_local_part", Config: combo})
		}
	case 143:
		alt := primary
		alt.Port = 993
		alt.UseTLS = true
		variants = append(variants, Variant{Name: "port_993_tls", Config: alt})
		if localPart != "" {
			combo := alt
			combo.Username = localPart
			variants = append(variants, Variant{Name: "port_993_tls_local_part", Config: combo})
		}
	}

	return variants
}

// connectFunc lets tests substitute the negotiator.
type connectFunc func(ctx context.Context, cfg mailconn.Config, op *oplog.Operation) (*mailconn.IMAPSession, error)

// Prober runs deep tests.
type Prober struct {
	connect connectFunc
}

// New creates a prober backed by the real IMAP negotiator.
func New() *Prober {
	return &Prober{connect: mailconn.ConnectIMAP}
}

// DeepTest tries every variant in order and stops at the first that
// connects. The winning configuration is reported back so the caller
// can persist it as authoritative.
func (p *Prober) DeepTest(ctx context.Context, primary mailconn.Config, op *oplog.Operation) *Report {
	started := time.Now()

	if primary.Timeout <= 0 {
		primary.Timeout = mailconn.DeepTestConnectTimeout
	}

	report := &Report{}
	for _, variant := range BuildVariants(primary) {
		op.LogStep(ctx, "variant_attempt", "in_progress", map[string]any{
			"variant": variant.Name,
			"host":    variant.Config.Host,
			"port":    variant.Config.Port,
			"tls":     variant.Config.UseTLS,
		}, "", "")

		session, err := p.connect(ctx, variant.Config, op)
		if err != nil {
			report.Attempts = append(report.Attempts, Attempt{
				Variant: variant.Name,
				Config:  redacted(variant.Config),
				Code:    syncerr.CodeOf(err),
				Error:   err.Error(),
			})
			continue
		}
		session.Close()

		report.Attempts = append(report.Attempts, Attempt{
			Variant: variant.Name,
			Config:  redacted(variant.Config),
			OK:      true,
		})
		report.OK = true
		report.WorkingVariant = variant.Name
		working := redacted(variant.Config)
		report.WorkingConfig = &working
		op.LogSuccess(ctx, "variant_succeeded", map[string]any{"variant": variant.Name})
		break
	}

	if !report.OK {
		report.Hint = RemediationHint
		op.LogError(ctx, "all_variants_failed", syncerr.CodeConnectionFailed, RemediationHint)
	}

	report.DurationMs = time.Since(started).Milliseconds()
	return report
}

// redacted strips the password before a config is surfaced in results.
func redacted(cfg mailconn.Config) mailconn.Config {
	cfg.Password = ""
	return cfg
}
