// File: internal/infra/notify/email.go
package notify

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/rs/zerolog"

	"course-marketplace/internal/config"
	"course-marketplace/internal/domain/ports/adapter"
	"course-marketplace/internal/infra/logging"
	"course-marketplace/internal/infra/metrics"
)

var _ adapter.Mailer = (*SMTPMailer)(nil)

// SMTPMailer sends plain-text mail through a single SMTP relay. Delivery is
// best effort; the dispatcher logs and moves on when Send fails.
type SMTPMailer struct {
	addr string
	auth smtp.Auth
	from string
	log  *zerolog.Logger
}

func NewSMTPMailer(cfg config.SMTPConfig, logger *zerolog.Logger) *SMTPMailer {
	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
	}
	return &SMTPMailer{
		addr: cfg.Host + ":" + cfg.Port,
		auth: auth,
		from: cfg.From,
		log:  logger,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		m.from, to, subject, body)
	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg)); err != nil {
		metrics.IncNotification("email", "error")
		m.log.Error().Err(err).Str("to", logging.Redact(to, false)).Msg("smtp send failed")
		return err
	}
	metrics.IncNotification("email", "sent")
	m.log.Debug().Str("to", logging.Redact(to, false)).Str("subject", subject).Msg("mail sent")
	return nil
}
