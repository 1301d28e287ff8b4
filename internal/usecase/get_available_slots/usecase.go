package get_available_slots

import (
	"context"
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/timezone"
)

// UseCase use case для получения доступных слотов для записи
type UseCase struct {
	slotRepo        SlotRepository
	termRepo        TermRepository
	appointmentRepo AppointmentRepository
	txManager       TransactionManager
	timeProvider    TimeProvider
	settings        Settings
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	slotRepo SlotRepository,
	termRepo TermRepository,
	appointmentRepo AppointmentRepository,
	txManager TransactionManager,
	settings Settings,
	logger Logger,
) *UseCase {
	return &UseCase{
		slotRepo:        slotRepo,
		termRepo:        termRepo,
		appointmentRepo: appointmentRepo,
		txManager:       txManager,
		timeProvider:    &RealTimeProvider{},
		settings:        settings,
		logger:          logger,
	}
}

// Execute выполняет use case получения доступных слотов.
// Счетчики записей пересчитываются при каждом вызове, без кеширования.
func (uc *UseCase) Execute(ctx context.Context) (*Response, error) {
	now := uc.timeProvider.Now()

	var (
		slots  []*domain.Slot
		usages []domain.TermUsage
	)

	// Периоды, счетчики и слоты читаем из одного снимка
	err := uc.txManager.DoReadOnly(ctx, func(ctx context.Context) error {
		terms, err := uc.termRepo.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list terms: %w", err)
		}

		usages = make([]domain.TermUsage, 0, len(terms))
		for _, term := range terms {
			booked, err := uc.appointmentRepo.CountInWindow(ctx, term.Start, term.End)
			if err != nil {
				return fmt.Errorf("failed to count appointments for term id=%d: %w", term.ID, err)
			}
			usages = append(usages, domain.TermUsage{Term: *term, Booked: booked})
		}

		slots, err = uc.slotRepo.ListAvailable(ctx)
		if err != nil {
			return fmt.Errorf("failed to list available slots: %w", err)
		}

		return nil
	})
	if err != nil {
		uc.logger.Error("GetAvailableSlots: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	offerable := offerableSlots(slots, usages)

	result := make([]Slot, 0, len(offerable))
	for _, slot := range offerable {
		dateLabel, err := timezone.Convert(slot.Time, uc.settings.VisitorZone, timezone.LayoutDate)
		if err != nil {
			uc.logger.Error("GetAvailableSlots: failed to format slot id=%d: %v", slot.ID, err)
			return nil, fmt.Errorf("%w: %v", ErrInternal, err)
		}
		timeLabel, err := timezone.Convert(slot.Time, uc.settings.VisitorZone, timezone.LayoutTime)
		if err != nil {
			uc.logger.Error("GetAvailableSlots: failed to format slot id=%d: %v", slot.ID, err)
			return nil, fmt.Errorf("%w: %v", ErrInternal, err)
		}

		result = append(result, Slot{
			ID:        slot.ID,
			Time:      slot.Time,
			EndsAt:    slot.EndsAt(uc.settings.SlotDurationMinutes),
			DateLabel: dateLabel,
			TimeLabel: timeLabel,
		})
	}

	response := &Response{
		Slots:               result,
		SlotDurationMinutes: uc.settings.SlotDurationMinutes,
		VisitorZoneLabel:    uc.settings.VisitorZoneLabel,
	}

	if active := activeTerm(usages, now); active != nil {
		response.ActiveTerm = &ActiveTerm{
			ID:        active.Term.ID,
			Name:      active.Term.Name,
			Start:     active.Term.Start,
			End:       active.Term.End,
			Slots:     active.Term.Slots,
			Booked:    active.Booked,
			Remaining: active.Term.Remaining(active.Booked),
		}
	}

	uc.logger.Info("GetAvailableSlots: %d of %d available slots offerable, terms=%d",
		len(result), len(slots), len(usages))

	return response, nil
}
