package outbox

import "errors"

var (
	// ErrEntryNotFound возвращается, когда запись outbox не найдена
	ErrEntryNotFound = errors.New("outbox.repository: entry not found")

	// ErrEncodePayload возвращается, если не удалось сериализовать сообщения
	ErrEncodePayload = errors.New("outbox.repository: failed to encode payload")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("outbox.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("outbox.repository: failed to execute query")
)
