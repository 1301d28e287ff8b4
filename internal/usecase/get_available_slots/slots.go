package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// offerableSlots отбирает слоты, на которые можно записаться.
// Слот предлагается, если он свободен, попадает хотя бы в один период
// и во всех содержащих его периодах остались места.
// Слоты вне всех периодов не предлагаются.
func offerableSlots(slots []*domain.Slot, usages []domain.TermUsage) []*domain.Slot {
	result := make([]*domain.Slot, 0, len(slots))

	for _, slot := range slots {
		if !slot.Available {
			continue
		}
		if isOfferable(slot.Time, usages) {
			result = append(result, slot)
		}
	}

	return result
}

func isOfferable(at time.Time, usages []domain.TermUsage) bool {
	contained := false
	for _, usage := range usages {
		if !usage.Term.Contains(at) {
			continue
		}
		if !usage.HasCapacity() {
			return false
		}
		contained = true
	}
	return contained
}

// activeTerm возвращает период, содержащий момент now.
// При пересечении периодов выбирается период с самым ранним началом.
func activeTerm(usages []domain.TermUsage, now time.Time) *domain.TermUsage {
	var active *domain.TermUsage
	for i := range usages {
		usage := &usages[i]
		if !usage.Term.Contains(now) {
			continue
		}
		if active == nil || usage.Term.Start.Before(active.Term.Start) {
			active = usage
		}
	}
	return active
}
