package mailconn

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strings"

	"github.com/omnidesk/mailsync/internal/oplog"
	"github.com/omnidesk/mailsync/internal/sanitize"
	"github.com/omnidesk/mailsync/internal/syncerr"
)

// POP3Session is an authenticated POP3 connection. The protocol is
// strictly write-then-blocking-read; no pipelining.
type POP3Session struct {
	conn   net.Conn
	reader *bufio.Reader
}

// UIDLEntry pairs a message's sequence number in this session with its
// server-assigned UIDL.
type UIDLEntry struct {
	Seq  int
	UIDL string
}

// ConnectPOP3 opens an authenticated POP3 session: greeting, USER,
// PASS. A response not starting with +OK on PASS is an authentication
// failure.
func ConnectPOP3(ctx context.Context, cfg Config, op *oplog.Operation) (*POP3Session, error) {
	if cerr := cfg.validate(); cerr != nil {
		op.LogError(ctx, "validate_config", cerr.Code, cerr.Message)
		return nil, cerr
	}

	host := sanitize.Hostname(cfg.Host)
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", cfg.Port))

	dialer := &net.Dialer{Timeout: cfg.connectTimeout()}

	var conn net.Conn
	var err error
	if cfg.UseTLS {
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{ServerName: host})
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		cerr := classifyDialError(err, cfg.UseTLS)
		op.LogError(ctx, "connect_socket", cerr.Code, cerr.Error())
		return nil, cerr
	}
	op.LogSuccess(ctx, "connect_socket", map[string]any{"address": addr, "tls": cfg.UseTLS})

	s := &POP3Session{conn: conn, reader: bufio.NewReader(conn)}

	greeting, err := s.readLine()
	if err != nil || !strings.HasPrefix(greeting, "+OK") {
		conn.Close()
		cerr := syncerr.Wrap(syncerr.CodeConnectionFailed, "server sent no POP3 greeting", err)
		op.LogError(ctx, "read_greeting", cerr.Code, cerr.Error())
		return nil, cerr
	}
	op.LogSuccess(ctx, "read_greeting", map[string]any{"greeting": greeting})

	if _, err := s.command("USER %s", cfg.Username); err != nil {
		conn.Close()
		cerr := syncerr.Wrap(syncerr.CodePOP3AuthFailed, "server rejected username", err).
			WithReason(syncerr.ReasonAuthRejected)
		op.LogError(ctx, "send_user", cerr.Code, cerr.Error())
		return nil, cerr
	}

	if line, err := s.command("PASS %s", cfg.Password); err != nil {
		conn.Close()
		cerr := classifyPOP3AuthError(line)
		op.LogError(ctx, "send_pass", cerr.Code, cerr.Error())
		return nil, cerr
	}
	op.LogSuccess(ctx, "authenticate", map[string]any{"username": cfg.Username})

	return s, nil
}

// UIDL lists all messages with their server-assigned identifiers.
func (s *POP3Session) UIDL() ([]UIDLEntry, error) {
	if _, err := s.command("UIDL"); err != nil {
		return nil, fmt.Errorf("UIDL: %w", err)
	}

	var entries []UIDLEntry
	for {
		line, err := s.readLine()
		if err != nil {
			return nil, fmt.Errorf("UIDL response: %w", err)
		}
		if line == "." {
			break
		}
		var seq int
		var uidl string
		if _, err := fmt.Sscanf(line, "%d %s", &seq, &uidl); err != nil {
			continue
		}
		entries = append(entries, UIDLEntry{Seq: seq, UIDL: uidl})
	}
	return entries, nil
}

// Retr downloads one raw message, undoing POP3 byte stuffing.
func (s *POP3Session) Retr(seq int) ([]byte, error) {
	if _, err := s.command("RETR %d", seq); err != nil {
		return nil, fmt.Errorf("RETR %d: %w", seq, err)
	}

	var data []byte
	for {
		line, err := s.readLine()
		if err != nil {
			return nil, fmt.Errorf("RETR %d response: %w", seq, err)
		}
		if line == "." {
			break
		}
		if strings.HasPrefix(line, "..") {
			line = line[1:]
		}
		data = append(data, []byte(line+"\r\n")...)
	}
	return data, nil
}

// Dele marks one message for deletion; the server drops it at QUIT.
func (s *POP3Session) Dele(seq int) error {
	if _, err := s.command("DELE %d", seq); err != nil {
		return fmt.Errorf("DELE %d: %w", seq, err)
	}
	return nil
}

// Quit ends the session cleanly and closes the socket.
func (s *POP3Session) Quit() error {
	_, err := s.command("QUIT")
	s.conn.Close()
	return err
}

// Close drops the socket without QUIT.
func (s *POP3Session) Close() {
	s.conn.Close()
}

// command writes one command and reads its single status line. The
// returned line is also returned on error so callers can classify it.
func (s *POP3Session) command(format string, args ...any) (string, error) {
	cmd := fmt.Sprintf(format, args...) + "\r\n"
	if _, err := s.conn.Write([]byte(cmd)); err != nil {
		return "", err
	}
	line, err := s.readLine()
	if err != nil {
		return line, err
	}
	if !strings.HasPrefix(line, "+OK") {
		return line, fmt.Errorf("POP3 error: %s", line)
	}
	return line, nil
}

func (s *POP3Session) readLine() (string, error) {
	line, err := s.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
