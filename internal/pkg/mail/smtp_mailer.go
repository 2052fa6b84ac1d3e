package mail

import (
	"fmt"
	"net/smtp"

	"github.com/voyageshield/voyageshield/internal/pkg/env"
	"github.com/voyageshield/voyageshield/internal/pkg/logger"
)

// Mailer delivers HTML emails.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

// SMTPMailer sends emails via SMTP
type SMTPMailer struct {
	Host     string
	Port     string
	Username string
	Password string
	Sender   string
}

// NewSMTPMailerFromEnv reads the SMTP_* settings.
func NewSMTPMailerFromEnv() *SMTPMailer {
	m := &SMTPMailer{
		Host:     env.GetEnv("SMTP_HOST", ""),
		Port:     env.GetEnv("SMTP_PORT", "587"),
		Username: env.GetEnv("SMTP_USERNAME", ""),
		Password: env.GetEnv("SMTP_PASSWORD", ""),
		Sender:   env.GetEnv("SMTP_SENDER", ""),
	}
	if m.Sender == "" {
		m.Sender = "no-reply@voyageshield.local"
		logger.L().Infow("SMTP_SENDER not set, using default sender", "sender", m.Sender)
	}
	return m
}

func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	var auth smtp.Auth
	if m.Username != "" && m.Password != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}

	addr := fmt.Sprintf("%s:%s", m.Host, m.Port)
	msg := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", m.Sender, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			htmlBody,
	)

	if err := smtp.SendMail(addr, auth, m.Sender, []string{to}, msg); err != nil {
		logger.L().Errorw("smtp send failed", "to", to, "addr", addr, "error", err)
		return err
	}
	logger.L().Infow("email sent", "to", to, "addr", addr)
	return nil
}

// LogMailer only logs outgoing mail. Used when no SMTP host is configured.
type LogMailer struct{}

func (LogMailer) Send(to, subject, htmlBody string) error {
	logger.L().Infow("email not sent, no SMTP host configured", "to", to, "subject", subject, "bytes", len(htmlBody))
	return nil
}

// FromEnv returns an SMTP mailer when SMTP_HOST is set, else a LogMailer.
func FromEnv() Mailer {
	if env.GetEnv("SMTP_HOST", "") == "" {
		return LogMailer{}
	}
	return NewSMTPMailerFromEnv()
}
