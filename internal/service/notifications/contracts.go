package notifications

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/integrations/postmark"
)

// MailClient интерфейс клиента почтового API
type MailClient interface {
	SendBatch(ctx context.Context, messages []postmark.Message) ([]postmark.SendResult, error)
}

// OutboxRepository интерфейс репозитория журнала уведомлений
type OutboxRepository interface {
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, reason string) error
}

// Metrics интерфейс метрик отправки
type Metrics interface {
	IncNotification(outcome string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
