package mailer

import (
	"gopkg.in/gomail.v2"

	"github.com/girishpw/discount-app/pkg/config"
)

// Sender delivers a single HTML email.
type Sender interface {
	Send(to string, cc []string, subject, htmlBody string) error
	Enabled() bool
}

// SMTPSender sends mail through a plain SMTP endpoint with STARTTLS.
type SMTPSender struct {
	dialer *gomail.Dialer
	sender string
}

// New builds an SMTP sender from config. When no username is configured the
// sender reports itself disabled and callers are expected to skip delivery.
func New(cfg config.SMTPConfig) *SMTPSender {
	if cfg.Username == "" {
		return &SMTPSender{}
	}
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		sender: cfg.Sender,
	}
}

// Enabled reports whether credentials were configured.
func (s *SMTPSender) Enabled() bool {
	return s != nil && s.dialer != nil
}

// Send delivers one message. Each call is a single attempt; retry policy is
// the caller's concern.
func (s *SMTPSender) Send(to string, cc []string, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.sender)
	m.SetHeader("To", to)
	if len(cc) > 0 {
		m.SetHeader("Cc", cc...)
	}
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	return s.dialer.DialAndSend(m)
}
