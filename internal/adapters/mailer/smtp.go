// Package mailer delivers sign-in links over SMTP.
package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"text/template"
	"time"

	"github.com/boycepro/folio/internal/ports"
)

var _ ports.LinkSender = (*SMTPSender)(nil)

// Config holds SMTP connection and message settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Subject  string
	SiteName string
	Timeout  time.Duration
}

// sendFunc matches smtp.SendMail so tests can capture messages.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender implements ports.LinkSender.
type SMTPSender struct {
	cfg  Config
	auth smtp.Auth
	send sendFunc
}

var bodyTemplate = template.Must(template.New("link").Parse(`Hello,

Use the link below to sign in to {{.Site}}. It expires shortly and works once.

{{.Link}}

If you did not request this email you can ignore it.
`))

// NewSMTPSender validates cfg and builds a sender.
func NewSMTPSender(cfg Config) (*SMTPSender, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, errors.New("smtp host and from address are required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Subject == "" {
		cfg.Subject = "Your sign-in link"
	}
	if cfg.SiteName == "" {
		cfg.SiteName = "Folio"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPSender{cfg: cfg, auth: auth, send: smtp.SendMail}, nil
}

// SendLink mails link to email. The call is abandoned when ctx ends or the
// configured timeout elapses; the underlying SMTP exchange may still finish.
func (s *SMTPSender) SendLink(ctx context.Context, email, link string) error {
	msg, err := s.message(email, link)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	done := make(chan error, 1)
	go func() { done <- s.send(addr, s.auth, s.cfg.From, []string{email}, msg) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send: %w", ctx.Err())
	}
}

func (s *SMTPSender) message(to, link string) ([]byte, error) {
	var body bytes.Buffer
	if err := bodyTemplate.Execute(&body, struct{ Site, Link string }{s.cfg.SiteName, link}); err != nil {
		return nil, fmt.Errorf("render mail body: %w", err)
	}
	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", s.cfg.Subject))
	fmt.Fprintf(&msg, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}
