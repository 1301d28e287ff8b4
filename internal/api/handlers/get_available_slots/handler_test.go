package get_available_slots

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	getAvailableSlots "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_available_slots"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fakeUseCase struct {
	resp *getAvailableSlots.Response
	err  error
}

func (f *fakeUseCase) Execute(context.Context) (*getAvailableSlots.Response, error) {
	return f.resp, f.err
}

func TestHandle_OK(t *testing.T) {
	at := time.Date(2024, 6, 10, 18, 0, 0, 0, time.UTC)
	h := NewHandler(&fakeUseCase{resp: &getAvailableSlots.Response{
		Slots: []getAvailableSlots.Slot{
			{ID: 7, Time: at, EndsAt: at.Add(20 * time.Minute), DateLabel: "Jun 10, 2024", TimeLabel: "11:00 AM"},
		},
		ActiveTerm:          &getAvailableSlots.ActiveTerm{ID: 1, Name: "Summer Term", Remaining: 1},
		SlotDurationMinutes: 20,
		VisitorZoneLabel:    "Pacific Time",
	}}, nopLogger{})

	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/slots/available", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp AvailableSlotsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Slots, 1)
	assert.Equal(t, "2024-06-10T18:20:00Z", resp.Slots[0].EndAt)
	assert.Equal(t, "11:00 AM", resp.Slots[0].Time)
	require.NotNil(t, resp.ActiveTerm)
	assert.Equal(t, 1, resp.ActiveTerm.RemainingSlots)
}

func TestHandle_EmptyIsNotAnError(t *testing.T) {
	h := NewHandler(&fakeUseCase{resp: &getAvailableSlots.Response{SlotDurationMinutes: 20}}, nopLogger{})

	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/slots/available", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"slotDurationMinutes":20,"timeZone":"","slots":[]}`, rec.Body.String())
}

func TestHandle_Error(t *testing.T) {
	h := NewHandler(&fakeUseCase{err: errors.New("db down")}, nopLogger{})

	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/slots/available", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
