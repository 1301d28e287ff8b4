package booking_page

import (
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	getAvailableSlots "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_available_slots"
)

// Settings параметры страницы, не зависящие от состояния слотов
type Settings struct {
	SiteName            string
	SlotDurationMinutes int
	TimeZoneLabel       string
}

// PageData данные шаблона страницы записи
type PageData struct {
	SiteName            string
	SlotDurationMinutes int
	TimeZone            string

	Success           string
	Warning           string
	Error             string
	AvailabilityError string

	ActiveTerm *TermView
	Slots      []SlotView

	Form           FormValues
	MaxNameLength  int
	MaxEmailLength int
}

// FormValues введенные значения, возвращаются в форму при ошибке
type FormValues struct {
	Name  string
	Email string
}

type TermView struct {
	Name      string
	Remaining int
}

type SlotView struct {
	ID   int64
	Date string
	Time string
}

// newPageData собирает данные страницы. availability == nil означает, что список слотов недоступен.
func newPageData(settings Settings, availability *getAvailableSlots.Response) *PageData {
	data := &PageData{
		SiteName:            settings.SiteName,
		SlotDurationMinutes: settings.SlotDurationMinutes,
		TimeZone:            settings.TimeZoneLabel,
		Slots:               make([]SlotView, 0),
		MaxNameLength:       domain.MaxNameLength,
		MaxEmailLength:      domain.MaxEmailLength,
	}

	if availability == nil {
		return data
	}

	if availability.SlotDurationMinutes > 0 {
		data.SlotDurationMinutes = availability.SlotDurationMinutes
	}
	if availability.VisitorZoneLabel != "" {
		data.TimeZone = availability.VisitorZoneLabel
	}

	for _, slot := range availability.Slots {
		data.Slots = append(data.Slots, SlotView{ID: slot.ID, Date: slot.DateLabel, Time: slot.TimeLabel})
	}

	if availability.ActiveTerm != nil {
		data.ActiveTerm = &TermView{
			Name:      availability.ActiveTerm.Name,
			Remaining: availability.ActiveTerm.Remaining,
		}
	}

	return data
}
