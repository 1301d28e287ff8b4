package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/postmark"
)

// Service сервис отправки подтверждений о записи
type Service struct {
	client   MailClient
	outbox   OutboxRepository
	metrics  Metrics
	logger   Logger
	settings Settings
	timeout  time.Duration
}

// NewService создает новый экземпляр сервиса уведомлений
func NewService(
	client MailClient,
	outbox OutboxRepository,
	metrics Metrics,
	logger Logger,
	settings Settings,
	timeout time.Duration,
) *Service {
	return &Service{
		client:   client,
		outbox:   outbox,
		metrics:  metrics,
		logger:   logger,
		settings: settings,
		timeout:  timeout,
	}
}

// Dispatch отправляет пачку одним запросом и фиксирует результат в outbox.
// Вызывается после коммита бронирования, ошибка отправки не откатывает запись.
func (s *Service) Dispatch(ctx context.Context, outboxID string, messages []domain.MailMessage) error {
	s.logger.Info("Dispatch: sending %d messages, outbox_id=%s", len(messages), outboxID)

	// Запись уже закоммичена: отключение клиента не должно отменять отправку и запись результата
	recordCtx := context.WithoutCancel(ctx)

	sendCtx := recordCtx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(recordCtx, s.timeout)
		defer cancel()
	}

	_, sendErr := s.client.SendBatch(sendCtx, toPostmark(messages))

	if sendErr != nil {
		s.logger.Error("Dispatch: failed to send batch, outbox_id=%s: %v", outboxID, sendErr)
		s.metrics.IncNotification(domain.OutcomeNotificationFail)
		if err := s.outbox.MarkFailed(recordCtx, outboxID, sendErr.Error()); err != nil {
			s.logger.Error("Dispatch: failed to mark outbox_id=%s as failed: %v", outboxID, err)
		}
		return fmt.Errorf("%w: outbox_id=%s: %v", ErrDispatch, outboxID, sendErr)
	}

	s.metrics.IncNotification(domain.OutcomeNotificationSent)
	if err := s.outbox.MarkSent(recordCtx, outboxID); err != nil {
		// Письма ушли, ошибка журнала не делает отправку неудачной
		s.logger.Error("Dispatch: failed to mark outbox_id=%s as sent: %v", outboxID, err)
	}

	s.logger.Info("Dispatch: batch delivered, outbox_id=%s", outboxID)
	return nil
}

func toPostmark(messages []domain.MailMessage) []postmark.Message {
	result := make([]postmark.Message, 0, len(messages))
	for _, m := range messages {
		result = append(result, postmark.Message{
			From:     m.From,
			To:       m.To,
			Subject:  m.Subject,
			TextBody: m.TextBody,
			ReplyTo:  m.ReplyTo,
		})
	}
	return result
}
