// Package mail delivers contact form submissions.
package mail

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ErrNotConfigured is returned when no SMTP credentials are set.
var ErrNotConfigured = errors.New("SMTP credentials not configured")

// Contact is one submission from the contact form.
type Contact struct {
	Name    string
	Email   string
	Message string
}

// Sender delivers a contact submission.
type Sender interface {
	Send(ctx context.Context, c Contact) error
}

// SMTPConfig holds relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	// To receives the messages; defaults to User.
	To string
	// Timeout bounds one delivery; DefaultTimeout when zero.
	Timeout time.Duration
}

// DefaultTimeout is how long Send waits for the relay.
const DefaultTimeout = 30 * time.Second

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTP sends through an authenticated relay.
type SMTP struct {
	cfg  SMTPConfig
	send sendFunc
}

func NewSMTP(cfg SMTPConfig) *SMTP {
	if cfg.To == "" {
		cfg.To = cfg.User
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &SMTP{cfg: cfg, send: smtp.SendMail}
}

func (s *SMTP) Send(ctx context.Context, c Contact) error {
	if s.cfg.User == "" || s.cfg.Password == "" {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	msg := Compose(s.cfg.User, s.cfg.To, c)

	// smtp.SendMail takes no context; a stalled relay is abandoned, not waited on
	done := make(chan error, 1)
	go func() { done <- s.send(addr, auth, s.cfg.User, []string{s.cfg.To}, msg) }()

	select {
	case err := <-done:
		if err != nil {
			return errors.Wrap(err, "failed to send mail")
		}
	case <-ctx.Done():
		return errors.Wrapf(ctx.Err(), "mail relay %s did not respond", addr)
	}

	zerolog.Ctx(ctx).Info().Str("to", s.cfg.To).Msg("Contact email sent")
	return nil
}

// Compose builds the raw message. Header values are stripped of line breaks
// so a submitted name or address cannot inject headers.
func Compose(from, to string, c Contact) []byte {
	subject := "Portfolio Contact: " + headerSafe(c.Name)
	body := fmt.Sprintf(`New contact form submission from your portfolio:

Name: %s
Email: %s
Message:
%s

---
Sent from your portfolio contact form
`, c.Name, c.Email, c.Message)

	var b strings.Builder
	b.WriteString("To: " + headerSafe(to) + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("From: " + headerSafe(from) + "\r\n")
	b.WriteString("Reply-To: " + headerSafe(c.Email) + "\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}

func headerSafe(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(strings.TrimSpace(s))
}

// Discard drops every message; used when mail is disabled.
type Discard struct{}

func (Discard) Send(ctx context.Context, c Contact) error {
	zerolog.Ctx(ctx).Warn().Str("from", c.Email).Msg("Mail disabled, contact message stored only")
	return nil
}
