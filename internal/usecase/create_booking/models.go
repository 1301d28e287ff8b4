package create_booking

import "time"

// Settings параметры бронирования
type Settings struct {
	VisitorZone string        // IANA зона посетителя, для письма посетителю
	AdminZone   string        // IANA зона администратора, для письма администратору
	Timeout     time.Duration // ограничение на транзакцию бронирования, 0 = без ограничения
}

// Request модель запроса на создание записи
type Request struct {
	Name   string `validate:"required,max=200"`
	Email  string `validate:"required,max=254,email"`
	SlotID int64  `validate:"gt=0"`
}

// Response модель ответа с созданной записью
type Response struct {
	AppointmentID int64
	SlotID        int64
	Name          string
	Email         string
	SlotTime      time.Time
	VisitorTime   string // Время слота в зоне посетителя
	AdminTime     string // Время слота в зоне администратора
	CreatedAt     time.Time

	// NotificationSent false, если запись создана, но письма не ушли
	NotificationSent bool
}
