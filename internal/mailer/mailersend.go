package mailer

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mailersend/mailersend-go"
)

type MailerSendClient struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	enabled bool
}

func NewMailerSend(apiKey, fromName, fromEmail string) *MailerSendClient {
	m := &MailerSendClient{
		enabled: apiKey != "" && fromEmail != "",
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
	}

	if m.enabled {
		m.client = mailersend.NewMailersend(apiKey)
	}

	return m
}

func (m *MailerSendClient) Enabled() bool {
	return m.enabled
}

func (m *MailerSendClient) Send(ctx context.Context, msg *Message) (string, error) {
	if !m.enabled {
		return "", ErrNotConfigured
	}

	email := m.client.Email.NewMessage()
	email.SetFrom(m.from)
	email.SetRecipients([]mailersend.Recipient{{Name: msg.ToName, Email: msg.ToEmail}})
	email.SetSubject(msg.Subject)

	if strings.TrimSpace(msg.Text) != "" {
		email.SetText(msg.Text)
	}
	if strings.TrimSpace(msg.HTML) != "" {
		email.SetHTML(msg.HTML)
	}

	res, err := m.client.Email.Send(ctx, email)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(res.Body)
		return "", fmt.Errorf("mailersend error: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	return res.Header.Get("X-Message-Id"), nil
}
