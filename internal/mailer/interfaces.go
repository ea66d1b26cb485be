package mailer

import (
	"context"
	"errors"

	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/pkg/config"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/pkg/logger"
)

var ErrNotConfigured = errors.New("mail transport not configured")

type Message struct {
	ToEmail string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

type Service interface {
	// Send delivers one message and returns the provider's message id when
	// it reports one.
	Send(ctx context.Context, msg *Message) (string, error)
	// Enabled reports whether the transport has the credentials it needs.
	Enabled() bool
}

// New picks a transport from config: dev logging, then MailerSend, then SMTP.
// With none configured the returned service reports Enabled() == false.
func New(cfg config.EmailConfig) Service {
	switch {
	case cfg.DevMode:
		logger.Info("Using dev mailer, emails are written to the log")
		return NewDevMailer()
	case cfg.MailerSendKey != "":
		logger.Info("Using MailerSend mailer", "from", cfg.FromEmail)
		return NewMailerSend(cfg.MailerSendKey, cfg.FromName, cfg.FromEmail)
	case cfg.SMTPHost != "":
		logger.Info("Using SMTP mailer", "host", cfg.SMTPHost, "port", cfg.SMTPPort)
		return NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.FromName, cfg.FromEmail, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPUseTLS)
	default:
		logger.Warn("No mail transport configured, outgoing email is disabled")
		return disabled{}
	}
}

type disabled struct{}

func (disabled) Send(context.Context, *Message) (string, error) { return "", ErrNotConfigured }

func (disabled) Enabled() bool { return false }
