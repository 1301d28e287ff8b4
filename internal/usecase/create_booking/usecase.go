package create_booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	slotRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-AppointmentService/internal/service/notifications"
	"github.com/m04kA/SMC-AppointmentService/pkg/timezone"
	"github.com/m04kA/SMC-AppointmentService/pkg/txmanager"
)

// UseCase use case для создания записи на встречу
type UseCase struct {
	slotRepo        SlotRepository
	termRepo        TermRepository
	appointmentRepo AppointmentRepository
	outboxRepo      OutboxRepository
	notifier        Notifier
	txManager       TransactionManager
	metrics         Metrics
	settings        Settings
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	slotRepo SlotRepository,
	termRepo TermRepository,
	appointmentRepo AppointmentRepository,
	outboxRepo OutboxRepository,
	notifier Notifier,
	txManager TransactionManager,
	metrics Metrics,
	settings Settings,
	logger Logger,
) *UseCase {
	return &UseCase{
		slotRepo:        slotRepo,
		termRepo:        termRepo,
		appointmentRepo: appointmentRepo,
		outboxRepo:      outboxRepo,
		notifier:        notifier,
		txManager:       txManager,
		metrics:         metrics,
		settings:        settings,
		logger:          logger,
	}
}

// Execute выполняет use case создания записи.
// Проверка слота, проверка вместимости периода и все записи в БД выполняются
// в одной сериализуемой транзакции. Письма отправляются после коммита,
// ошибка отправки запись не отменяет.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	req = normalizeRequest(req)
	uc.logger.Info("CreateBooking: slot=%d, email=%s", req.SlotID, req.Email)

	// 1. Валидация входных данных, до любых обращений к БД
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		uc.metrics.IncBooking(domain.OutcomeInvalidInput)
		return nil, err
	}

	txCtx := ctx
	if uc.settings.Timeout > 0 {
		var cancel context.CancelFunc
		txCtx, cancel = context.WithTimeout(ctx, uc.settings.Timeout)
		defer cancel()
	}

	var (
		result   *Response
		outboxID string
		messages []domain.MailMessage
	)

	// 2. Выполняем операции с БД в сериализуемой транзакции
	err := uc.txManager.DoSerializable(txCtx, func(txCtx context.Context) error {
		// 2.1. Получаем слот с блокировкой (FOR UPDATE)
		slot, err := uc.slotRepo.GetByIDForUpdate(txCtx, req.SlotID)
		if err != nil {
			if errors.Is(err, slotRepo.ErrSlotNotFound) {
				uc.logger.Warn("CreateBooking: slot id=%d not found", req.SlotID)
				return ErrSlotNotAvailable
			}
			return fmt.Errorf("%w: failed to get slot: %w", ErrBookingFailed, err)
		}

		if !slot.Available {
			uc.logger.Warn("CreateBooking: slot id=%d is already taken", req.SlotID)
			return ErrSlotNotAvailable
		}

		// 2.2. Повторно проверяем вместимость всех периодов, содержащих слот
		if err := uc.checkTermCapacity(txCtx, slot); err != nil {
			return err
		}

		// 2.3. Время слота для обеих аудиторий
		visitorTime, err := timezone.Convert(slot.Time, uc.settings.VisitorZone, timezone.LayoutLong)
		if err != nil {
			return fmt.Errorf("%w: failed to format visitor time: %v", ErrBookingFailed, err)
		}
		adminTime, err := timezone.Convert(slot.Time, uc.settings.AdminZone, timezone.LayoutLong)
		if err != nil {
			return fmt.Errorf("%w: failed to format admin time: %v", ErrBookingFailed, err)
		}

		// 2.4. Создаем запись
		created, err := uc.appointmentRepo.Create(txCtx, &domain.Appointment{
			Name:   req.Name,
			Email:  req.Email,
			TimeID: slot.ID,
		})
		if err != nil {
			if errors.Is(err, appointmentRepo.ErrSlotAlreadyBooked) {
				uc.logger.Warn("CreateBooking: slot id=%d already has an appointment", slot.ID)
				return ErrSlotNotAvailable
			}
			return fmt.Errorf("%w: failed to create appointment: %w", ErrBookingFailed, err)
		}

		// 2.5. Снимаем слот с продажи
		if err := uc.slotRepo.MarkUnavailable(txCtx, slot.ID); err != nil {
			if errors.Is(err, slotRepo.ErrSlotNotAvailable) {
				return ErrSlotNotAvailable
			}
			return fmt.Errorf("%w: failed to mark slot unavailable: %w", ErrBookingFailed, err)
		}

		// 2.6. Письма сохраняем в outbox в той же транзакции
		messages = uc.notifier.BuildMessages(notifications.Notification{
			Name:        created.Name,
			Email:       created.Email,
			VisitorTime: visitorTime,
			AdminTime:   adminTime,
		})

		entry, err := uc.outboxRepo.Create(txCtx, &domain.OutboxEntry{
			AppointmentID: created.ID,
			Messages:      messages,
		})
		if err != nil {
			return fmt.Errorf("%w: failed to store notifications: %w", ErrBookingFailed, err)
		}
		outboxID = entry.ID

		result = &Response{
			AppointmentID: created.ID,
			SlotID:        slot.ID,
			Name:          created.Name,
			Email:         created.Email,
			SlotTime:      slot.Time,
			VisitorTime:   visitorTime,
			AdminTime:     adminTime,
			CreatedAt:     created.CreatedAt,
		}
		return nil
	})

	if err != nil {
		return nil, uc.mapError(req, err)
	}

	uc.metrics.IncBooking(domain.OutcomeCreated)
	uc.logger.Info("CreateBooking: created appointment id=%d for slot id=%d", result.AppointmentID, result.SlotID)

	// 3. Отправка писем после коммита
	if err := uc.notifier.Dispatch(ctx, outboxID, messages); err != nil {
		uc.logger.Warn("CreateBooking: appointment id=%d booked, notifications not delivered: %v", result.AppointmentID, err)
		return result, nil
	}

	result.NotificationSent = true
	return result, nil
}

// checkTermCapacity блокирует периоды слота и проверяет, что в каждом остались места
func (uc *UseCase) checkTermCapacity(ctx context.Context, slot *domain.Slot) error {
	terms, err := uc.termRepo.GetContainingForUpdate(ctx, slot.Time)
	if err != nil {
		return fmt.Errorf("%w: failed to get terms: %w", ErrBookingFailed, err)
	}

	if len(terms) == 0 {
		uc.logger.Warn("CreateBooking: slot id=%d is outside of any term", slot.ID)
		return ErrSlotOutsideTerm
	}

	for _, term := range terms {
		booked, err := uc.appointmentRepo.CountInWindow(ctx, term.Start, term.End)
		if err != nil {
			return fmt.Errorf("%w: failed to count appointments for term id=%d: %w", ErrBookingFailed, term.ID, err)
		}

		usage := domain.TermUsage{Term: *term, Booked: booked}
		if !usage.HasCapacity() {
			uc.logger.Warn("CreateBooking: term id=%d is full, %d/%d booked", term.ID, booked, term.Slots)
			return ErrTermFull
		}
	}

	return nil
}

// mapError приводит ошибку транзакции к ошибкам use case и считает исход
func (uc *UseCase) mapError(req *Request, err error) error {
	switch {
	case errors.Is(err, txmanager.ErrSerializationFailure):
		// Конкурентная транзакция заняла слот или место в периоде раньше нас
		uc.logger.Warn("CreateBooking: serialization failure for slot id=%d: %v", req.SlotID, err)
		uc.metrics.IncBooking(domain.OutcomeSlotUnavailable)
		return fmt.Errorf("%w: concurrent booking", ErrSlotNotAvailable)
	case errors.Is(err, ErrSlotNotAvailable), errors.Is(err, ErrSlotOutsideTerm):
		uc.metrics.IncBooking(domain.OutcomeSlotUnavailable)
		return err
	case errors.Is(err, ErrTermFull):
		uc.metrics.IncBooking(domain.OutcomeTermFull)
		return err
	case errors.Is(err, ErrBookingFailed):
		uc.logger.Error("CreateBooking: transaction failed for slot id=%d: %v", req.SlotID, err)
		uc.metrics.IncBooking(domain.OutcomeFailed)
		return err
	default:
		uc.logger.Error("CreateBooking: transaction failed for slot id=%d: %v", req.SlotID, err)
		uc.metrics.IncBooking(domain.OutcomeFailed)
		return fmt.Errorf("%w: %w", ErrBookingFailed, err)
	}
}
