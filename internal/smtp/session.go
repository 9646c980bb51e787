package smtp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/emersion/go-smtp"

	"github.com/inboxkit/inboxkit/internal/repository"
)

// Session implements the go-smtp Session interface
type Session struct {
	backend    *Backend
	from       string
	recipients []string
}

// NewSession creates a new SMTP session
func NewSession(backend *Backend) *Session {
	return &Session{
		backend:    backend,
		recipients: make([]string, 0),
	}
}

// AuthPlain handles PLAIN authentication (not required for receiving)
func (s *Session) AuthPlain(username, password string) error {
	return nil
}

// Mail handles the MAIL FROM command
func (s *Session) Mail(from string, opts *smtp.MailOptions) error {
	s.from = normalizeAddress(from)
	if s.backend.logger != nil {
		s.backend.logger.Debug("MAIL FROM", slog.String("from", s.from))
	}
	return nil
}

// Rcpt handles the RCPT TO command. Only provisioned inbox addresses
// are accepted; everything else is rejected at the envelope stage.
func (s *Session) Rcpt(to string, opts *smtp.RcptOptions) error {
	address := normalizeAddress(to)
	if !strings.Contains(address, "@") {
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 1, 1},
			Message:      "Invalid recipient address",
		}
	}

	ctx := context.Background()
	if _, err := s.backend.inboxes.GetByEmail(ctx, address); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &smtp.SMTPError{
				Code:         550,
				EnhancedCode: smtp.EnhancedCode{5, 1, 1},
				Message:      "No such inbox",
			}
		}
		return &smtp.SMTPError{
			Code:         451,
			EnhancedCode: smtp.EnhancedCode{4, 3, 0},
			Message:      "Temporary error",
		}
	}

	s.recipients = append(s.recipients, address)
	if s.backend.logger != nil {
		s.backend.logger.Debug("RCPT TO", slog.String("to", address))
	}
	return nil
}

// Data handles the DATA command. The raw MIME is handed to the inbound
// pipeline; per-recipient processing failures do not bounce the mail.
func (s *Session) Data(r io.Reader) error {
	if len(s.recipients) == 0 {
		return &smtp.SMTPError{
			Code:         503,
			EnhancedCode: smtp.EnhancedCode{5, 5, 1},
			Message:      "No recipients specified",
		}
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return &smtp.SMTPError{
			Code:         451,
			EnhancedCode: smtp.EnhancedCode{4, 3, 0},
			Message:      "Failed to read message",
		}
	}

	// Archiving is best effort: a full disk must not bounce mail.
	var archivePath string
	if s.backend.archive != nil {
		path, err := s.backend.archive.Store(raw)
		if err != nil {
			if s.backend.logger != nil {
				s.backend.logger.Error("failed to archive raw message",
					slog.String("from", s.from),
					slog.String("error", err.Error()))
			}
		} else {
			archivePath = path
		}
	}

	s.backend.ingestor.IngestRaw(context.Background(), s.from, s.recipients, raw)

	if s.backend.logger != nil {
		s.backend.logger.Info("email received",
			slog.String("from", s.from),
			slog.Int("recipients", len(s.recipients)),
			slog.Int("size_bytes", len(raw)),
			slog.String("archive_path", archivePath))
	}

	return nil
}

// Reset resets the session state
func (s *Session) Reset() {
	s.from = ""
	s.recipients = make([]string, 0)
}

// Logout handles the end of the session
func (s *Session) Logout() error {
	return nil
}

// normalizeAddress strips envelope angle brackets and lowercases.
func normalizeAddress(address string) string {
	address = strings.TrimPrefix(address, "<")
	address = strings.TrimSuffix(address, ">")
	return strings.ToLower(strings.TrimSpace(address))
}
