package mail

import (
	"context"
	"log/slog"

	"github.com/Skotchmaster/marketplace/pkg/logging"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(ctx context.Context, msg Message) error {
	l := s.Logger
	if l == nil {
		l = logging.FromContext(ctx)
	}
	l.Info("mail_logged", "to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}
