package mail

import (
	"context"
	"fmt"

	"github.com/mailgun/mailgun-go/v4"
)

type MailgunSender struct {
	mg   *mailgun.MailgunImpl
	from string
}

func NewMailgunSender(domain, apiKey, from string) *MailgunSender {
	return &MailgunSender{mg: mailgun.NewMailgun(domain, apiKey), from: from}
}

func (s *MailgunSender) Send(ctx context.Context, msg Message) error {
	m := s.mg.NewMessage(s.from, msg.Subject, msg.Body)
	if err := m.AddRecipient(msg.To); err != nil {
		return fmt.Errorf("mailgun: recipient: %w", err)
	}
	if _, _, err := s.mg.Send(ctx, m); err != nil {
		return fmt.Errorf("mailgun: send: %w", err)
	}
	return nil
}
