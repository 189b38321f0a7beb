// Package email sends the onboarding mail: the signed activation key a fresh
// signup follows to prove its address and activate the account.
package email

import (
	"crypto/tls"
	"fmt"

	mail "github.com/go-mail/mail"

	"github.com/dropDatabas3/onboard/internal/observability/logger"
)

// Sender delivers one message with plain-text and HTML alternatives.
type Sender interface {
	Send(to, subject, htmlBody, textBody string) error
}

// SMTPSender sends through a single SMTP relay.
type SMTPSender struct {
	Host               string
	Port               int
	From               string
	User               string
	Pass               string
	TLSMode            string // "auto" | "starttls" | "ssl" | "none"
	InsecureSkipVerify bool
}

// NewSMTPSender builds a sender with TLS negotiation left to the dialer.
func NewSMTPSender(host string, port int, from, user, pass string) *SMTPSender {
	return &SMTPSender{
		Host:    host,
		Port:    port,
		From:    from,
		User:    user,
		Pass:    pass,
		TLSMode: "auto",
	}
}

func (s *SMTPSender) Send(to, subject, htmlBody, textBody string) error {
	m := mail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)

	// multipart/alternative when both bodies are present
	if textBody != "" {
		m.SetBody("text/plain", textBody)
	}
	if htmlBody != "" {
		if textBody == "" {
			m.SetBody("text/html", htmlBody)
		} else {
			m.AddAlternative("text/html", htmlBody)
		}
	}

	d := mail.NewDialer(s.Host, s.Port, s.User, s.Pass)
	d.TLSConfig = &tls.Config{
		ServerName:         s.Host,
		InsecureSkipVerify: s.InsecureSkipVerify, // dev only
	}
	switch s.TLSMode {
	case "ssl":
		d.SSL = true
	case "none":
		d.TLSConfig = &tls.Config{InsecureSkipVerify: s.InsecureSkipVerify}
	default:
		// "auto"/"starttls": the dialer negotiates STARTTLS when offered
	}

	if err := d.DialAndSend(m); err != nil {
		logger.With(logger.Component("email"), logger.Err(err)).Error("smtp send failed")
		return fmt.Errorf("smtp send: %w", err)
	}
	logger.With(logger.Component("email"), logger.String("subject", subject)).Info("smtp send ok")
	return nil
}
