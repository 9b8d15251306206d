package auth

import (
	"fmt"
	"net/smtp"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

// Mailer sends magic link emails.
type Mailer struct {
	config Config
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewMailer creates a mailer with the given config.
func NewMailer(config Config) *Mailer {
	return &Mailer{config: config, send: smtp.SendMail}
}

// LoginLink builds the verification URL for token.
func (m *Mailer) LoginLink(token string) string {
	return fmt.Sprintf("%s/auth/verify?token=%s", m.config.BaseURL, url.QueryEscape(token))
}

// SendLoginLink emails a magic link, or logs it in dev mode.
// Returns the link so callers can surface it in dev mode.
func (m *Mailer) SendLoginLink(email, token string) (string, error) {
	link := m.LoginLink(token)

	if m.config.DevMode {
		log.Info().Str("email", email).Str("link", link).Msg("dev mode login link")
		return link, nil
	}

	body := fmt.Sprintf(
		"Click the link below to sign in and leave comments:\n\n%s\n\nThis link expires in 15 minutes and can only be used once.",
		link,
	)

	msg := buildEmail(m.config.SMTPFrom, email, "Your portfolio login link", body)
	addr := fmt.Sprintf("%s:%s", m.config.SMTPHost, m.config.SMTPPort)
	a := smtp.PlainAuth("", m.config.SMTPUser, m.config.SMTPPass, m.config.SMTPHost)

	if err := m.send(addr, a, m.config.SMTPFrom, []string{email}, msg); err != nil {
		return "", fmt.Errorf("sending email: %w", err)
	}

	return link, nil
}

func buildEmail(from, to, subject, body string) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s\r\n", from)
	fmt.Fprintf(&sb, "To: %s\r\n", to)
	fmt.Fprintf(&sb, "Subject: %s\r\n", subject)
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)
	return []byte(sb.String())
}
