package services

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"
)

// Mailer sends transactional mail. Implementations must be safe for
// concurrent use.
type Mailer interface {
	SendPasswordReset(toEmail, resetLink string) error
}

type smtpMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer creates a Mailer backed by an SMTP server.
func NewSMTPMailer(host string, port int, username, password, from string) Mailer {
	return &smtpMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (m *smtpMailer) SendPasswordReset(toEmail, resetLink string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", toEmail)
	msg.SetHeader("Subject", "Password reset request")
	msg.SetBody("text/html", fmt.Sprintf(
		`<p>A password reset was requested for your account.</p>
<p><a href="%s">Reset your password</a></p>
<p>The link expires in one hour. If you did not request this, ignore this email.</p>`,
		resetLink))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("sending password reset mail: %w", err)
	}
	return nil
}

// noopMailer logs instead of sending. Used when SMTP is not configured.
type noopMailer struct{}

// NewNoopMailer creates a Mailer that only logs.
func NewNoopMailer() Mailer {
	return noopMailer{}
}

func (noopMailer) SendPasswordReset(toEmail, resetLink string) error {
	log.Info().Str("to", toEmail).Str("link", resetLink).Msg("password reset mail suppressed (no SMTP configured)")
	return nil
}
