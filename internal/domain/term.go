package domain

import "time"

// Term a capacity window: at most Slots appointments may exist whose slot time
// falls within [Start, End], both ends inclusive.
type Term struct {
	ID    int64
	Name  string
	Start time.Time
	End   time.Time
	Slots int
}

// Contains reports whether t lies inside the term window.
func (t *Term) Contains(at time.Time) bool {
	return !at.Before(t.Start) && !at.After(t.End)
}

// Remaining returns the capacity left given the number of booked appointments.
func (t *Term) Remaining(booked int) int {
	if left := t.Slots - booked; left > 0 {
		return left
	}
	return 0
}

// TermUsage a term together with the live count of appointments in its window.
type TermUsage struct {
	Term   Term
	Booked int
}

// HasCapacity reports whether one more appointment fits into the term.
func (u TermUsage) HasCapacity() bool {
	return u.Term.Remaining(u.Booked) > 0
}
