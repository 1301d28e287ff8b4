package create_booking

import (
	"time"

	createBooking "github.com/m04kA/SMC-AppointmentService/internal/usecase/create_booking"
)

// CreateAppointmentRequest HTTP request model
type CreateAppointmentRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	TimeID int64  `json:"timeId"`
}

// AppointmentResponse HTTP response model
type AppointmentResponse struct {
	ID               int64  `json:"id"`
	TimeID           int64  `json:"timeId"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	Time             string `json:"time"`
	VisitorTime      string `json:"visitorTime"`
	NotificationSent bool   `json:"notificationSent"`
	CreatedAt        string `json:"createdAt"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateAppointmentRequest) ToUseCaseRequest() *createBooking.Request {
	return &createBooking.Request{
		Name:   r.Name,
		Email:  r.Email,
		SlotID: r.TimeID,
	}
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createBooking.Response) *AppointmentResponse {
	return &AppointmentResponse{
		ID:               resp.AppointmentID,
		TimeID:           resp.SlotID,
		Name:             resp.Name,
		Email:            resp.Email,
		Time:             resp.SlotTime.UTC().Format(time.RFC3339),
		VisitorTime:      resp.VisitorTime,
		NotificationSent: resp.NotificationSent,
		CreatedAt:        resp.CreatedAt.UTC().Format(time.RFC3339),
	}
}
