package service

import (
	"context"
	"log/slog"

	"github.com/aussiebroadwan/skygate/pkg/slogx"
)

// Message is an outbound notification email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers notification emails. Delivery failures are logged by the
// callers and never reach the client.
type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// LogMailer stands in for a real delivery backend. It records that a mail
// would have gone out but never the body, which carries one-time links.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, m Message) error {
	slogx.FromContext(ctx).Info("mail queued",
		slog.String("to", m.To),
		slog.String("subject", m.Subject),
	)
	return nil
}

func sendMail(ctx context.Context, mailer Mailer, m Message) {
	if mailer == nil {
		return
	}
	if err := mailer.Send(ctx, m); err != nil {
		slogx.FromContext(ctx).Warn("mail delivery failed", slog.String("subject", m.Subject), slog.Any("error", err))
	}
}
