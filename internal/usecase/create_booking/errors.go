package create_booking

import "errors"

var (
	// ErrInvalidInput возвращается при некорректных входных данных (имя, email, слот)
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrSlotNotAvailable возвращается, когда слот уже занят или не существует.
	// Так же сообщается проигрыш в гонке за один слот.
	ErrSlotNotAvailable = errors.New("create_booking: slot is not available")

	// ErrTermFull возвращается, когда в периоде слота закончились места
	ErrTermFull = errors.New("create_booking: term is fully booked")

	// ErrSlotOutsideTerm возвращается, когда слот не попадает ни в один период
	ErrSlotOutsideTerm = errors.New("create_booking: slot is outside of any term")

	// ErrBookingFailed возвращается при ошибках хранилища, транзакция откатывается
	ErrBookingFailed = errors.New("create_booking: booking failed")
)
