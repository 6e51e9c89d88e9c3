package email

import (
	"context"
	"fmt"
	"net/smtp"

	"edu-subscription-platform/internal/config"
)

// Sender delivers one message. Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type smtpSender struct {
	addr string
	from string
	auth smtp.Auth
}

// NewSMTPSender builds a plain SMTP sender; auth is skipped when no username
// is configured (local relay / mailhog in dev).
func NewSMTPSender(cfg config.SMTPConfig) Sender {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &smtpSender{
		addr: cfg.Host + ":" + cfg.Port,
		from: cfg.From,
		auth: auth,
	}
}

func (s *smtpSender) Send(ctx context.Context, to, subject, body string) error {
	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		s.from, to, subject, body))
	return smtp.SendMail(s.addr, s.auth, s.from, []string{to}, msg)
}
