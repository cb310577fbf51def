package notify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/plantops/maintenance-service/internal/config"
)

// EmailSender delivers one plain-text notification email.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPSender sends mail over a plain SMTP relay. Template rendering is out
// of scope; callers pass ready subject and body text.
type SMTPSender struct {
	host    string
	port    string
	from    string
	timeout time.Duration
}

// NewSMTPSender builds a sender from notification config.
func NewSMTPSender(cfg config.NotificationConfig) *SMTPSender {
	return &SMTPSender{
		host:    cfg.SMTPHost,
		port:    cfg.SMTPPort,
		from:    cfg.EmailFrom,
		timeout: cfg.SendTimeout(),
	}
}

// Send delivers the message, bounded by the configured timeout.
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if s.host == "" {
		return errors.New("smtp host not configured")
	}
	if strings.TrimSpace(to) == "" {
		return errors.New("empty recipient")
	}

	deadline := time.Now().Add(s.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	addr := net.JoinHostPort(s.host, s.port)
	conn, err := net.DialTimeout("tcp", addr, time.Until(deadline))
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	_ = conn.SetDeadline(deadline)

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if err := client.Mail(s.from); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}
	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", s.from, to, subject, body)
	if _, err := writer.Write([]byte(msg)); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("smtp close data: %w", err)
	}
	return client.Quit()
}
