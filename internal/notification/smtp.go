package notification

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/spec-kit/consulting-service/internal/config"
)

// SMTPTransport sends mail through an SMTP relay.
type SMTPTransport struct {
	from string
	opts []mail.Option
	host string
}

// NewSMTPTransport configures the relay from notification settings.
func NewSMTPTransport(cfg config.NotificationConfig) *SMTPTransport {
	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.SMTPUser != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUser),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}
	return &SMTPTransport{from: cfg.EmailFrom, opts: opts, host: cfg.SMTPHost}
}

func (t *SMTPTransport) Send(ctx context.Context, email Email) error {
	msg := mail.NewMsg()
	if err := msg.From(t.from); err != nil {
		return fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(email.To); err != nil {
		return fmt.Errorf("recipient address: %w", err)
	}
	msg.Subject(email.Subject)
	msg.SetMessageIDWithValue(email.ID)
	msg.SetBodyString(mail.TypeTextHTML, email.HTML)

	client, err := mail.NewClient(t.host, t.opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}
