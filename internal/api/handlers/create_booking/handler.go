package create_booking

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	createBooking "github.com/m04kA/SMC-AppointmentService/internal/usecase/create_booking"
)

const (
	msgInvalidRequestBody = "invalid request body"
	msgSlotNotAvailable   = "This time slot is no longer available. Please select another time."
	msgTermFull           = "No appointments remain in this term. Please select another time."
	msgBookingFailed      = "Error booking appointment. Please try again later."
)

type Handler struct {
	useCase CreateBookingUseCase
	logger  Logger
}

func NewHandler(useCase CreateBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/appointments
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req CreateAppointmentRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /appointments - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest())
	if err != nil {
		switch {
		case errors.Is(err, createBooking.ErrInvalidInput):
			h.logger.Warn("POST /appointments - Validation failed: time_id=%d, error=%v", req.TimeID, err)
			handlers.RespondBadRequest(w, ValidationMessage(err))

		case errors.Is(err, createBooking.ErrSlotNotAvailable),
			errors.Is(err, createBooking.ErrSlotOutsideTerm):
			h.logger.Warn("POST /appointments - Slot not available: time_id=%d", req.TimeID)
			handlers.RespondConflict(w, msgSlotNotAvailable)

		case errors.Is(err, createBooking.ErrTermFull):
			h.logger.Warn("POST /appointments - Term full: time_id=%d", req.TimeID)
			handlers.RespondConflict(w, msgTermFull)

		default:
			h.logger.Error("POST /appointments - Failed to create appointment: time_id=%d, error=%v", req.TimeID, err)
			handlers.RespondError(w, http.StatusInternalServerError, msgBookingFailed)
		}
		return
	}

	h.logger.Info("POST /appointments - Appointment created: id=%d, time_id=%d, notification_sent=%t",
		result.AppointmentID, result.SlotID, result.NotificationSent)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}

// ValidationMessage возвращает текст ошибки валидации для пользователя
func ValidationMessage(err error) string {
	var validationErr *createBooking.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Message()
	}
	return "invalid input data"
}
