package booking_page

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	createBooking "github.com/m04kA/SMC-AppointmentService/internal/usecase/create_booking"
)

//go:embed templates/booking.html
var templatesFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templatesFS, "templates/booking.html"))

const (
	msgBooked            = "Appointment booked successfully! A confirmation email has been sent."
	msgBookedMailFailed  = "Appointment booked successfully, but the confirmation email could not be sent."
	msgSlotNotAvailable  = "Error booking appointment: This time slot is no longer available. Please select another time."
	msgTermFull          = "Error booking appointment: No appointments remain in this term. Please select another time."
	msgBookingFailed     = "Error booking appointment: the booking could not be saved. Please try again."
	msgValidationPrefix  = "Error booking appointment: "
	msgAvailabilityError = "Available times could not be loaded. Please try again later."
)

type Handler struct {
	booking      CreateBookingUseCase
	availability GetAvailableSlotsUseCase
	settings     Settings
	logger       Logger
}

func NewHandler(booking CreateBookingUseCase, availability GetAvailableSlotsUseCase, settings Settings, logger Logger) *Handler {
	return &Handler{
		booking:      booking,
		availability: availability,
		settings:     settings,
		logger:       logger,
	}
}

// Handle GET / и POST /
// Список слотов пересчитывается после любой попытки записи.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var (
		outcome notice
		form    FormValues
		status  = http.StatusOK
	)

	if r.Method == http.MethodPost {
		outcome, form, status = h.book(r)
	}

	// Ошибка пересчета не должна скрывать результат записи: страница рендерится с пустым списком
	availability, err := h.availability.Execute(r.Context())
	if err != nil {
		h.logger.Error("%s / - Failed to get available slots: %v", r.Method, err)
		availability = nil
		if r.Method != http.MethodPost {
			status = http.StatusInternalServerError
		}
	}

	data := newPageData(h.settings, availability)
	if err != nil {
		data.AvailabilityError = msgAvailabilityError
	}
	data.Success = outcome.success
	data.Warning = outcome.warning
	data.Error = outcome.err
	data.Form = form

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		h.logger.Error("%s / - Failed to render page: %v", r.Method, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

type notice struct {
	success string
	warning string
	err     string
}

// book обрабатывает отправку формы и возвращает уведомление для страницы
func (h *Handler) book(r *http.Request) (notice, FormValues, int) {
	if err := r.ParseForm(); err != nil {
		h.logger.Warn("POST / - Invalid form: %v", err)
		return notice{err: msgValidationPrefix + "invalid form data"}, FormValues{}, http.StatusBadRequest
	}

	form := FormValues{
		Name:  r.PostFormValue("name"),
		Email: r.PostFormValue("email"),
	}

	// Некорректный time_id превращается в 0 и отклоняется валидацией use case
	slotID, _ := strconv.ParseInt(strings.TrimSpace(r.PostFormValue("time_id")), 10, 64)

	result, err := h.booking.Execute(r.Context(), &createBooking.Request{
		Name:   form.Name,
		Email:  form.Email,
		SlotID: slotID,
	})
	if err != nil {
		var validationErr *createBooking.ValidationError
		switch {
		case errors.As(err, &validationErr):
			h.logger.Warn("POST / - Validation failed: %v", err)
			return notice{err: msgValidationPrefix + validationErr.Message()}, form, http.StatusBadRequest

		case errors.Is(err, createBooking.ErrSlotNotAvailable),
			errors.Is(err, createBooking.ErrSlotOutsideTerm):
			h.logger.Warn("POST / - Slot not available: time_id=%d", slotID)
			return notice{err: msgSlotNotAvailable}, form, http.StatusConflict

		case errors.Is(err, createBooking.ErrTermFull):
			h.logger.Warn("POST / - Term full: time_id=%d", slotID)
			return notice{err: msgTermFull}, form, http.StatusConflict

		default:
			h.logger.Error("POST / - Failed to book: time_id=%d, error=%v", slotID, err)
			return notice{err: msgBookingFailed}, form, http.StatusInternalServerError
		}
	}

	h.logger.Info("POST / - Appointment booked: id=%d, time_id=%d", result.AppointmentID, result.SlotID)

	if !result.NotificationSent {
		return notice{warning: msgBookedMailFailed}, FormValues{}, http.StatusOK
	}
	return notice{success: msgBooked}, FormValues{}, http.StatusOK
}
