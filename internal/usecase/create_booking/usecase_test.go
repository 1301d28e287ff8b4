package create_booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	slotRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-AppointmentService/internal/service/notifications"
	"github.com/m04kA/SMC-AppointmentService/pkg/txmanager"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// store хранилище в памяти, реализующее репозитории use case
type store struct {
	mu           sync.Mutex
	slots        map[int64]domain.Slot
	terms        []domain.Term
	appointments []domain.Appointment
	outbox       []domain.OutboxEntry

	outboxErr error
	createErr error
	markErr   error
}

type snapshot struct {
	slots        map[int64]domain.Slot
	appointments []domain.Appointment
	outbox       []domain.OutboxEntry
}

func (s *store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	slots := make(map[int64]domain.Slot, len(s.slots))
	for id, slot := range s.slots {
		slots[id] = slot
	}
	return snapshot{
		slots:        slots,
		appointments: append([]domain.Appointment(nil), s.appointments...),
		outbox:       append([]domain.OutboxEntry(nil), s.outbox...),
	}
}

func (s *store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots = snap.slots
	s.appointments = snap.appointments
	s.outbox = snap.outbox
}

func (s *store) GetByIDForUpdate(_ context.Context, id int64) (*domain.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[id]
	if !ok {
		return nil, slotRepo.ErrSlotNotFound
	}
	return &slot, nil
}

func (s *store) MarkUnavailable(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markErr != nil {
		return s.markErr
	}
	slot, ok := s.slots[id]
	if !ok || !slot.Available {
		return slotRepo.ErrSlotNotAvailable
	}
	slot.Available = false
	s.slots[id] = slot
	return nil
}

func (s *store) GetContainingForUpdate(_ context.Context, at time.Time) ([]*domain.Term, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]*domain.Term, 0)
	for i := range s.terms {
		if s.terms[i].Contains(at) {
			term := s.terms[i]
			result = append(result, &term)
		}
	}
	return result, nil
}

func (s *store) Create(_ context.Context, appointment *domain.Appointment) (*domain.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return nil, s.createErr
	}
	for _, existing := range s.appointments {
		if existing.TimeID == appointment.TimeID {
			return nil, appointmentRepo.ErrSlotAlreadyBooked
		}
	}
	appointment.ID = int64(len(s.appointments) + 1)
	appointment.CreatedAt = time.Now()
	s.appointments = append(s.appointments, *appointment)
	return appointment, nil
}

func (s *store) CountInWindow(_ context.Context, start, end time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, ap := range s.appointments {
		at := s.slots[ap.TimeID].Time
		if !at.Before(start) && !at.After(end) {
			count++
		}
	}
	return count, nil
}

func (s *store) appointmentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.appointments)
}

func (s *store) slotAvailable(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots[id].Available
}

// outboxStore отдельный тип, чтобы Create не конфликтовал с записями
type outboxStore struct{ s *store }

func (o outboxStore) Create(_ context.Context, entry *domain.OutboxEntry) (*domain.OutboxEntry, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	if o.s.outboxErr != nil {
		return nil, o.s.outboxErr
	}
	entry.ID = "outbox-" + time.Now().Format(time.RFC3339Nano)
	entry.Status = domain.OutboxStatusPending
	o.s.outbox = append(o.s.outbox, *entry)
	return entry, nil
}

// fakeTx сериализует транзакции и откатывает изменения store при ошибке
type fakeTx struct {
	mu    sync.Mutex
	store *store
	err   error
}

func (tx *fakeTx) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.err != nil {
		return tx.err
	}
	snap := tx.store.snapshot()
	if err := fn(ctx); err != nil {
		tx.store.restore(snap)
		return err
	}
	return nil
}

type fakeNotifier struct {
	mu         sync.Mutex
	dispatched []string
	err        error
}

func (n *fakeNotifier) BuildMessages(notif notifications.Notification) []domain.MailMessage {
	return []domain.MailMessage{
		{To: notif.Email, Subject: "confirmation", TextBody: notif.VisitorTime},
		{To: "admin@example.com", Subject: "new booking", TextBody: notif.AdminTime},
	}
}

func (n *fakeNotifier) Dispatch(_ context.Context, outboxID string, _ []domain.MailMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dispatched = append(n.dispatched, outboxID)
	return n.err
}

type fakeMetrics struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (m *fakeMetrics) IncBooking(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outcomes == nil {
		m.outcomes = make(map[string]int)
	}
	m.outcomes[outcome]++
}

var (
	juneStart = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	juneEnd   = time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	slotA     = time.Date(2024, 6, 10, 18, 0, 0, 0, time.UTC)
	slotB     = time.Date(2024, 6, 12, 18, 0, 0, 0, time.UTC)
)

func newStore() *store {
	return &store{
		slots: map[int64]domain.Slot{
			1: {ID: 1, Time: slotA, Available: true},
			2: {ID: 2, Time: slotB, Available: true},
			3: {ID: 3, Time: juneEnd.Add(48 * time.Hour), Available: true},
		},
		terms: []domain.Term{
			{ID: 1, Name: "Summer Term", Start: juneStart, End: juneEnd, Slots: 2},
		},
	}
}

type fixture struct {
	uc       *UseCase
	store    *store
	tx       *fakeTx
	notifier *fakeNotifier
	metrics  *fakeMetrics
}

func newFixture() *fixture {
	s := newStore()
	tx := &fakeTx{store: s}
	notifier := &fakeNotifier{}
	m := &fakeMetrics{}
	uc := NewUseCase(s, s, s, outboxStore{s}, notifier, tx, m, Settings{
		VisitorZone: "America/Los_Angeles",
		AdminZone:   "America/New_York",
		Timeout:     time.Second,
	}, nopLogger{})
	return &fixture{uc: uc, store: s, tx: tx, notifier: notifier, metrics: m}
}

func validRequest(slotID int64) *Request {
	return &Request{Name: "Ann", Email: "ann@example.com", SlotID: slotID}
}

func TestExecute_Success(t *testing.T) {
	f := newFixture()

	resp, err := f.uc.Execute(context.Background(), validRequest(1))

	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.AppointmentID)
	assert.Equal(t, "June 10, 2024 11:00 AM", resp.VisitorTime)
	assert.Equal(t, "June 10, 2024 2:00 PM", resp.AdminTime)
	assert.True(t, resp.NotificationSent)
	assert.False(t, f.store.slotAvailable(1))
	assert.Equal(t, 1, f.store.appointmentCount())
	require.Len(t, f.store.outbox, 1)
	assert.Len(t, f.store.outbox[0].Messages, 2)
	assert.Equal(t, []string{f.store.outbox[0].ID}, f.notifier.dispatched)
	assert.Equal(t, 1, f.metrics.outcomes[domain.OutcomeCreated])
}

func TestExecute_TrimsInput(t *testing.T) {
	f := newFixture()

	resp, err := f.uc.Execute(context.Background(), &Request{Name: "  Ann ", Email: " ann@example.com ", SlotID: 1})

	require.NoError(t, err)
	assert.Equal(t, "Ann", resp.Name)
	assert.Equal(t, "ann@example.com", resp.Email)
}

func TestExecute_ValidationError(t *testing.T) {
	tests := []struct {
		name string
		req  *Request
	}{
		{name: "empty name", req: &Request{Name: "", Email: "a@b.com", SlotID: 5}},
		{name: "blank name", req: &Request{Name: "   ", Email: "a@b.com", SlotID: 5}},
		{name: "invalid email", req: &Request{Name: "Ann", Email: "not-an-email", SlotID: 1}},
		{name: "missing slot", req: &Request{Name: "Ann", Email: "a@b.com", SlotID: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			// Любое обращение к транзакции провалит тест
			f.tx.err = errors.New("transaction must not start")

			_, err := f.uc.Execute(context.Background(), tt.req)

			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Equal(t, 0, f.store.appointmentCount())
			assert.Empty(t, f.notifier.dispatched)
		})
	}
}

func TestExecute_SecondBookingOfSameSlot(t *testing.T) {
	f := newFixture()

	_, err := f.uc.Execute(context.Background(), validRequest(1))
	require.NoError(t, err)

	_, err = f.uc.Execute(context.Background(), &Request{Name: "Bob", Email: "bob@example.com", SlotID: 1})

	assert.ErrorIs(t, err, ErrSlotNotAvailable)
	assert.Equal(t, 1, f.store.appointmentCount())
}

func TestExecute_UnknownSlot(t *testing.T) {
	f := newFixture()

	_, err := f.uc.Execute(context.Background(), validRequest(42))

	assert.ErrorIs(t, err, ErrSlotNotAvailable)
}

func TestExecute_SlotOutsideTerm(t *testing.T) {
	f := newFixture()

	_, err := f.uc.Execute(context.Background(), validRequest(3))

	assert.ErrorIs(t, err, ErrSlotOutsideTerm)
	assert.True(t, f.store.slotAvailable(3))
}

func TestExecute_TermFull(t *testing.T) {
	f := newFixture()
	f.store.terms[0].Slots = 1

	_, err := f.uc.Execute(context.Background(), validRequest(1))
	require.NoError(t, err)

	_, err = f.uc.Execute(context.Background(), &Request{Name: "Bob", Email: "bob@example.com", SlotID: 2})

	assert.ErrorIs(t, err, ErrTermFull)
	assert.True(t, f.store.slotAvailable(2))
	assert.Equal(t, 1, f.metrics.outcomes[domain.OutcomeTermFull])
}

func TestExecute_ConcurrentSameSlot(t *testing.T) {
	f := newFixture()
	const attempts = 10

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.Execute(context.Background(), validRequest(1))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrSlotNotAvailable):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)
	assert.Equal(t, 1, f.store.appointmentCount())
}

func TestExecute_ConcurrentCapacityBound(t *testing.T) {
	f := newFixture()
	f.store.terms[0].Slots = 1

	var wg sync.WaitGroup
	for _, id := range []int64{1, 2} {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, _ = f.uc.Execute(context.Background(), validRequest(id))
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 1, f.store.appointmentCount(), "term capacity is never exceeded")
}

func TestExecute_RollbackOnOutboxFailure(t *testing.T) {
	f := newFixture()
	f.store.outboxErr = errors.New("disk full")

	_, err := f.uc.Execute(context.Background(), validRequest(1))

	assert.ErrorIs(t, err, ErrBookingFailed)
	assert.Equal(t, 0, f.store.appointmentCount())
	assert.True(t, f.store.slotAvailable(1))
	assert.Empty(t, f.notifier.dispatched)
}

func TestExecute_RollbackOnMarkUnavailableFailure(t *testing.T) {
	f := newFixture()
	f.store.markErr = errors.New("connection reset")

	_, err := f.uc.Execute(context.Background(), validRequest(1))

	assert.ErrorIs(t, err, ErrBookingFailed)
	assert.Equal(t, 0, f.store.appointmentCount(), "appointment insert is rolled back")
	assert.True(t, f.store.slotAvailable(1))
	assert.Empty(t, f.notifier.dispatched)
	assert.Equal(t, 1, f.metrics.outcomes[domain.OutcomeFailed])
}

func TestExecute_PersistenceError(t *testing.T) {
	f := newFixture()
	f.store.createErr = errors.New("connection reset")

	_, err := f.uc.Execute(context.Background(), validRequest(1))

	assert.ErrorIs(t, err, ErrBookingFailed)
	assert.True(t, f.store.slotAvailable(1))
	assert.Equal(t, 1, f.metrics.outcomes[domain.OutcomeFailed])
}

func TestExecute_SerializationFailureIsSlotUnavailable(t *testing.T) {
	f := newFixture()
	f.tx.err = fmt.Errorf("%w: %w", txmanager.ErrSerializationFailure, &pq.Error{Code: "40001"})

	_, err := f.uc.Execute(context.Background(), validRequest(1))

	assert.ErrorIs(t, err, ErrSlotNotAvailable)
	assert.NotErrorIs(t, err, ErrBookingFailed)
}

func TestExecute_DispatchFailureKeepsBooking(t *testing.T) {
	f := newFixture()
	f.notifier.err = notifications.ErrDispatch

	resp, err := f.uc.Execute(context.Background(), validRequest(1))

	require.NoError(t, err)
	assert.False(t, resp.NotificationSent)
	assert.Equal(t, 1, f.store.appointmentCount())
	assert.False(t, f.store.slotAvailable(1))
}

func TestValidateRequest_Problems(t *testing.T) {
	err := validateRequest(&Request{Name: "", Email: "bad", SlotID: 0})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ElementsMatch(t, []string{
		"name is required",
		"email must be a valid email address",
		"time slot must be selected",
	}, validationErr.Problems)
}
