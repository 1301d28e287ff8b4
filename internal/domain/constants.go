package domain

// Default configuration values
const (
	DefaultSlotDurationMinutes = 20
)

// Business validation constants
const (
	MaxNameLength  = 200
	MaxEmailLength = 254
)

// Booking outcomes, used as metric labels
const (
	OutcomeCreated          = "created"
	OutcomeInvalidInput     = "invalid_input"
	OutcomeSlotUnavailable  = "slot_unavailable"
	OutcomeTermFull         = "term_full"
	OutcomeFailed           = "failed"
	OutcomeNotificationSent = "sent"
	OutcomeNotificationFail = "failed"
)
