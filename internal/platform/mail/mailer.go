// Package mail implements the outbound notification collaborator. The
// reminder scheduler depends only on the Mailer interface; SMTP is one
// implementation of it.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/cmaloney/taskward/internal/config"
)

// Mailer sends a single message to a recipient. Implementations may fail;
// callers own retry and error policy.
type Mailer interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// SMTPMailer implements Mailer over plain SMTP with STARTTLS auth.
type SMTPMailer struct {
	cfg     config.MailConfig
	logger  *slog.Logger
	timeout time.Duration
}

var _ Mailer = (*SMTPMailer)(nil)

// NewSMTPMailer creates an SMTPMailer from configuration.
func NewSMTPMailer(cfg config.MailConfig, logger *slog.Logger) *SMTPMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPMailer{
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "mailer")),
		timeout: 10 * time.Second,
	}
}

// Send implements Mailer. When mail is disabled in configuration the send
// is logged and skipped, which keeps development environments working
// without SMTP credentials.
func (m *SMTPMailer) Send(ctx context.Context, recipient, subject, body string) error {
	if !m.cfg.Enabled {
		m.logger.Info("mail disabled, skipping send", "recipient", recipient, "subject", subject)
		return nil
	}

	msg := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + recipient,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="utf-8"`,
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)

	// net/smtp has no context support, so the send runs in a goroutine and
	// the caller's deadline (plus a local ceiling) bounds the wait.
	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, m.cfg.From, []string{recipient}, []byte(msg))
	}()

	timer := time.NewTimer(m.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send canceled: %w", ctx.Err())
	case <-timer.C:
		return fmt.Errorf("smtp send timed out after %s", m.timeout)
	}
}
