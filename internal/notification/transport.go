package notification

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/consulting-service/internal/domain"
)

// Email is a fully rendered message ready for delivery.
type Email struct {
	ID       string               `json:"id"`
	To       string               `json:"to"`
	Subject  string               `json:"subject"`
	HTML     string               `json:"html"`
	Category domain.EmailCategory `json:"category"`
}

// Transport delivers one email with a single attempt.
type Transport interface {
	Send(ctx context.Context, email Email) error
}

// LogTransport writes emails to the logger instead of sending them.
type LogTransport struct {
	logger *zap.Logger
}

// NewLogTransport builds a transport for environments without SMTP.
func NewLogTransport(logger *zap.Logger) *LogTransport {
	return &LogTransport{logger: logger}
}

func (t *LogTransport) Send(_ context.Context, email Email) error {
	t.logger.Info("email (log transport)",
		zap.String("message_id", email.ID),
		zap.String("to", email.To),
		zap.String("subject", email.Subject),
		zap.String("category", string(email.Category)))
	return nil
}
