package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type SMTPMailer struct {
	Host     string
	Port     int
	FromName string
	From     string
	User     string
	Pass     string
	UseTLS   bool // implicit TLS, usually port 465
}

func NewSMTPMailer(host string, port int, fromName, from, user, pass string, useTLS bool) *SMTPMailer {
	return &SMTPMailer{
		Host:     strings.TrimSpace(host),
		Port:     port,
		FromName: strings.TrimSpace(fromName),
		From:     strings.TrimSpace(from),
		User:     strings.TrimSpace(user),
		Pass:     strings.TrimSpace(pass),
		UseTLS:   useTLS,
	}
}

func (s *SMTPMailer) Enabled() bool {
	return s.Host != "" && s.From != ""
}

func (s *SMTPMailer) Send(ctx context.Context, msg *Message) (string, error) {
	if !s.Enabled() {
		return "", ErrNotConfigured
	}
	toEmail := strings.TrimSpace(msg.ToEmail)
	if toEmail == "" {
		return "", errors.New("empty recipient email")
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), s.Host)
	body := s.buildMessage(messageID, toEmail, msg)

	conn, err := s.dial(ctx)
	if err != nil {
		return "", err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, s.Host)
	if err != nil {
		conn.Close()
		return "", err
	}
	defer c.Close()

	if !s.UseTLS {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(&tls.Config{ServerName: s.Host}); err != nil {
				return "", fmt.Errorf("starttls: %w", err)
			}
		}
	}

	// Mailpit and similar dev servers accept mail without auth.
	if s.User != "" {
		if err := c.Auth(smtp.PlainAuth("", s.User, s.Pass, s.Host)); err != nil {
			return "", fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := c.Mail(s.From); err != nil {
		return "", err
	}
	if err := c.Rcpt(toEmail); err != nil {
		return "", err
	}

	w, err := c.Data()
	if err != nil {
		return "", err
	}
	if _, err := w.Write(body); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	return messageID, c.Quit()
}

func (s *SMTPMailer) dial(ctx context.Context) (net.Conn, error) {
	addr := net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	if s.UseTLS {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: &tls.Config{ServerName: s.Host}}
		return tlsDialer.DialContext(ctx, "tcp", addr)
	}
	return dialer.DialContext(ctx, "tcp", addr)
}

func (s *SMTPMailer) buildMessage(messageID, toEmail string, msg *Message) []byte {
	var buf bytes.Buffer
	boundary := "alt-" + strings.ReplaceAll(uuid.NewString(), "-", "")

	from := mail.Address{Name: s.FromName, Address: s.From}
	to := mail.Address{Name: msg.ToName, Address: toEmail}

	fmt.Fprintf(&buf, "From: %s\r\n", from.String())
	fmt.Fprintf(&buf, "To: %s\r\n", to.String())
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&buf, "Message-ID: %s\r\n", messageID)
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", boundary)

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	fmt.Fprintf(&buf, "Content-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&buf, "%s\r\n\r\n", msg.Text)

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	fmt.Fprintf(&buf, "Content-Type: text/html; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&buf, "%s\r\n\r\n", msg.HTML)

	fmt.Fprintf(&buf, "--%s--\r\n", boundary)
	return buf.Bytes()
}
