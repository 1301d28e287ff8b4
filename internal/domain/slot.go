package domain

import "time"

// Slot a single bookable calendar instant of fixed duration (table times).
type Slot struct {
	ID        int64
	Time      time.Time
	Available bool
}

// EndsAt returns the end of the slot for the given duration.
func (s *Slot) EndsAt(durationMinutes int) time.Time {
	return s.Time.Add(time.Duration(durationMinutes) * time.Minute)
}
