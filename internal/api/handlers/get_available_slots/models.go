package get_available_slots

import (
	"time"

	getAvailableSlots "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_available_slots"
)

// AvailableSlotsResponse HTTP response model
type AvailableSlotsResponse struct {
	SlotDurationMinutes int             `json:"slotDurationMinutes"`
	TimeZone            string          `json:"timeZone"`
	ActiveTerm          *ActiveTerm     `json:"activeTerm,omitempty"`
	Slots               []AvailableSlot `json:"slots"`
}

// AvailableSlot модель временного слота
type AvailableSlot struct {
	ID      int64  `json:"id"`
	StartAt string `json:"startAt"`
	EndAt   string `json:"endAt"`
	Date    string `json:"date"`
	Time    string `json:"time"`
}

// ActiveTerm текущий период и остаток мест
type ActiveTerm struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Start          string `json:"start"`
	End            string `json:"end"`
	RemainingSlots int    `json:"remainingSlots"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailableSlots.Response) *AvailableSlotsResponse {
	slots := make([]AvailableSlot, len(resp.Slots))
	for i, slot := range resp.Slots {
		slots[i] = AvailableSlot{
			ID:      slot.ID,
			StartAt: slot.Time.UTC().Format(time.RFC3339),
			EndAt:   slot.EndsAt.UTC().Format(time.RFC3339),
			Date:    slot.DateLabel,
			Time:    slot.TimeLabel,
		}
	}

	result := &AvailableSlotsResponse{
		SlotDurationMinutes: resp.SlotDurationMinutes,
		TimeZone:            resp.VisitorZoneLabel,
		Slots:               slots,
	}

	if resp.ActiveTerm != nil {
		result.ActiveTerm = &ActiveTerm{
			ID:             resp.ActiveTerm.ID,
			Name:           resp.ActiveTerm.Name,
			Start:          resp.ActiveTerm.Start.UTC().Format(time.RFC3339),
			End:            resp.ActiveTerm.End.UTC().Format(time.RFC3339),
			RemainingSlots: resp.ActiveTerm.Remaining,
		}
	}

	return result
}
