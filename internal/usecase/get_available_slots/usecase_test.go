package get_available_slots

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }

type fakeTx struct{ calls int }

func (tx *fakeTx) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	tx.calls++
	return fn(ctx)
}

// store хранилище в памяти, реализующее все репозитории use case
type store struct {
	slots        []*domain.Slot
	terms        []*domain.Term
	appointments map[int64]int64 // time_id -> appointment id
	listErr      error
}

func (s *store) ListAvailable(context.Context) ([]*domain.Slot, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	result := make([]*domain.Slot, 0)
	for _, slot := range s.slots {
		if slot.Available {
			copied := *slot
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (s *store) List(context.Context) ([]*domain.Term, error) {
	return s.terms, nil
}

func (s *store) CountInWindow(_ context.Context, start, end time.Time) (int, error) {
	count := 0
	for timeID := range s.appointments {
		for _, slot := range s.slots {
			if slot.ID == timeID && !slot.Time.Before(start) && !slot.Time.After(end) {
				count++
			}
		}
	}
	return count, nil
}

// book имитирует успешную запись на слот
func (s *store) book(id int64) {
	for _, slot := range s.slots {
		if slot.ID == id {
			slot.Available = false
		}
	}
	s.appointments[id] = int64(len(s.appointments) + 1)
}

var (
	juneStart = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	juneEnd   = time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	slotA     = time.Date(2024, 6, 10, 18, 0, 0, 0, time.UTC)
	slotB     = time.Date(2024, 6, 12, 18, 0, 0, 0, time.UTC)
	now       = time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC)
)

func newStore() *store {
	return &store{
		slots: []*domain.Slot{
			{ID: 1, Time: slotA, Available: true},
			{ID: 2, Time: slotB, Available: true},
		},
		terms: []*domain.Term{
			{ID: 1, Name: "Summer Term", Start: juneStart, End: juneEnd, Slots: 2},
		},
		appointments: map[int64]int64{},
	}
}

func newUseCase(s *store) (*UseCase, *fakeTx) {
	tx := &fakeTx{}
	uc := NewUseCase(s, s, s, tx, Settings{
		SlotDurationMinutes: 20,
		VisitorZone:         "America/Los_Angeles",
		VisitorZoneLabel:    "Pacific Time",
	}, nopLogger{})
	uc.timeProvider = fixedTime{now: now}
	return uc, tx
}

func slotIDs(resp *Response) []int64 {
	ids := make([]int64, 0, len(resp.Slots))
	for _, slot := range resp.Slots {
		ids = append(ids, slot.ID)
	}
	return ids
}

func TestExecute_BothSlotsOfferable(t *testing.T) {
	uc, tx := newUseCase(newStore())

	resp, err := uc.Execute(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, tx.calls, "reads run in one read-only transaction")
	assert.Equal(t, []int64{1, 2}, slotIDs(resp))
	require.NotNil(t, resp.ActiveTerm)
	assert.Equal(t, "Summer Term", resp.ActiveTerm.Name)
	assert.Equal(t, 2, resp.ActiveTerm.Remaining)
	assert.Equal(t, 20, resp.SlotDurationMinutes)
}

func TestExecute_VisitorZoneLabels(t *testing.T) {
	uc, _ := newUseCase(newStore())

	resp, err := uc.Execute(context.Background())

	require.NoError(t, err)
	require.NotEmpty(t, resp.Slots)
	assert.Equal(t, "Jun 10, 2024", resp.Slots[0].DateLabel)
	assert.Equal(t, "11:00 AM", resp.Slots[0].TimeLabel)
	assert.True(t, resp.Slots[0].EndsAt.Equal(slotA.Add(20*time.Minute)))
	assert.Equal(t, "Pacific Time", resp.VisitorZoneLabel)
}

func TestExecute_AfterOneBooking(t *testing.T) {
	s := newStore()
	s.book(1)
	uc, _ := newUseCase(s)

	resp, err := uc.Execute(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []int64{2}, slotIDs(resp))
	require.NotNil(t, resp.ActiveTerm)
	assert.Equal(t, 1, resp.ActiveTerm.Remaining)
}

func TestExecute_FullTermHidesAvailableSlot(t *testing.T) {
	s := newStore()
	s.slots = append(s.slots, &domain.Slot{ID: 3, Time: slotB.Add(time.Hour), Available: true})
	s.book(1)
	s.book(2)
	uc, _ := newUseCase(s)

	resp, err := uc.Execute(context.Background())

	require.NoError(t, err)
	assert.Empty(t, resp.Slots, "slot 3 is available but its term is full")
	require.NotNil(t, resp.ActiveTerm)
	assert.Equal(t, 0, resp.ActiveTerm.Remaining)
}

func TestExecute_SlotOutsideEveryTermNotOffered(t *testing.T) {
	s := newStore()
	s.slots = append(s.slots, &domain.Slot{ID: 3, Time: juneEnd.Add(24 * time.Hour), Available: true})
	uc, _ := newUseCase(s)

	resp, err := uc.Execute(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, slotIDs(resp))
}

func TestExecute_TermBoundariesInclusive(t *testing.T) {
	s := newStore()
	s.slots = []*domain.Slot{
		{ID: 1, Time: juneStart, Available: true},
		{ID: 2, Time: juneEnd, Available: true},
	}
	uc, _ := newUseCase(s)

	resp, err := uc.Execute(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, slotIDs(resp))
}

func TestExecute_NoTermsEmptyResult(t *testing.T) {
	s := newStore()
	s.terms = nil
	uc, _ := newUseCase(s)

	resp, err := uc.Execute(context.Background())

	require.NoError(t, err)
	assert.Empty(t, resp.Slots)
	assert.Nil(t, resp.ActiveTerm)
}

func TestExecute_NoActiveTermOutsideWindow(t *testing.T) {
	uc, _ := newUseCase(newStore())
	uc.timeProvider = fixedTime{now: juneEnd.Add(time.Hour)}

	resp, err := uc.Execute(context.Background())

	require.NoError(t, err)
	assert.Nil(t, resp.ActiveTerm)
	assert.Len(t, resp.Slots, 2, "offerable slots do not depend on the current term")
}

func TestExecute_Idempotent(t *testing.T) {
	uc, _ := newUseCase(newStore())

	first, err := uc.Execute(context.Background())
	require.NoError(t, err)
	second, err := uc.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestExecute_RepositoryError(t *testing.T) {
	s := newStore()
	s.listErr = errors.New("connection refused")
	uc, _ := newUseCase(s)

	_, err := uc.Execute(context.Background())

	assert.ErrorIs(t, err, ErrInternal)
}

func TestActiveTerm_EarliestStartWins(t *testing.T) {
	usages := []domain.TermUsage{
		{Term: domain.Term{ID: 2, Start: juneStart.AddDate(0, 0, 3), End: juneEnd, Slots: 1}},
		{Term: domain.Term{ID: 1, Start: juneStart, End: juneEnd, Slots: 1}},
	}

	active := activeTerm(usages, now)

	require.NotNil(t, active)
	assert.Equal(t, int64(1), active.Term.ID)
}

func TestOfferableSlots_OverlappingTermsAllNeedCapacity(t *testing.T) {
	slots := []*domain.Slot{{ID: 1, Time: slotA, Available: true}}
	usages := []domain.TermUsage{
		{Term: domain.Term{ID: 1, Start: juneStart, End: juneEnd, Slots: 2}, Booked: 0},
		{Term: domain.Term{ID: 2, Start: slotA.Add(-time.Hour), End: slotA.Add(time.Hour), Slots: 1}, Booked: 1},
	}

	assert.Empty(t, offerableSlots(slots, usages))
}
