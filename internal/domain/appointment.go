package domain

import "time"

// Appointment a committed booking of one slot. Immutable once created.
type Appointment struct {
	ID        int64
	Name      string
	Email     string
	TimeID    int64
	CreatedAt time.Time
}
