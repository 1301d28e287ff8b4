package notifications

import "errors"

var (
	// ErrDispatch возвращается, если пачку уведомлений не удалось доставить.
	// Бронирование при этом остается в силе.
	ErrDispatch = errors.New("notifications: dispatch failed")
)
