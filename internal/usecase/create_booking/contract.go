package create_booking

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/notifications"
)

// SlotRepository интерфейс репозитория слотов
type SlotRepository interface {
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Slot, error)
	MarkUnavailable(ctx context.Context, id int64) error
}

// TermRepository интерфейс репозитория периодов записи
type TermRepository interface {
	GetContainingForUpdate(ctx context.Context, at time.Time) ([]*domain.Term, error)
}

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	Create(ctx context.Context, appointment *domain.Appointment) (*domain.Appointment, error)
	CountInWindow(ctx context.Context, start, end time.Time) (int, error)
}

// OutboxRepository интерфейс репозитория журнала уведомлений
type OutboxRepository interface {
	Create(ctx context.Context, entry *domain.OutboxEntry) (*domain.OutboxEntry, error)
}

// Notifier интерфейс отправки подтверждений
type Notifier interface {
	BuildMessages(n notifications.Notification) []domain.MailMessage
	Dispatch(ctx context.Context, outboxID string, messages []domain.MailMessage) error
}

// Metrics интерфейс метрик бронирования
type Metrics interface {
	IncBooking(outcome string)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
