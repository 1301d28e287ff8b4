package domain

import "time"

// OutboxStatus delivery state of a notification batch
type OutboxStatus string

const (
	OutboxStatusPending OutboxStatus = "pending"
	OutboxStatusSent    OutboxStatus = "sent"
	OutboxStatusFailed  OutboxStatus = "failed"
)

// MailMessage one outgoing message of a batch
type MailMessage struct {
	To       string `json:"to"`
	From     string `json:"from"`
	Subject  string `json:"subject"`
	TextBody string `json:"textBody"`
	ReplyTo  string `json:"replyTo,omitempty"`
}

// OutboxEntry durable record of the confirmation batch of one appointment.
// Written inside the booking transaction, the outcome is recorded after dispatch.
type OutboxEntry struct {
	ID            string
	AppointmentID int64
	Messages      []MailMessage
	Status        OutboxStatus
	Attempts      int
	LastError     *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
