package postmark

import "errors"

var (
	// ErrInternal возвращается при внутренних ошибках клиента (сеть, таймаут)
	ErrInternal = errors.New("postmark client: internal error")

	// ErrInvalidResponse возвращается при неожиданном статусе или теле ответа
	ErrInvalidResponse = errors.New("postmark client: invalid response")

	// ErrMessageRejected возвращается, если хотя бы одно сообщение пачки отклонено
	ErrMessageRejected = errors.New("postmark client: message rejected")
)
