package outbox

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
)

func newRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(dbmetrics.Wrap(db, nil)), mock
}

func TestCreate(t *testing.T) {
	repo, mock := newRepository(t)
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`INSERT INTO notification_outbox \(id,appointment_id,payload,status\) VALUES \(\$1,\$2,\$3,\$4\) RETURNING created_at, updated_at`).
		WithArgs(sqlmock.AnyArg(), int64(42), sqlmock.AnyArg(), domain.OutboxStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	entry, err := repo.Create(context.Background(), &domain.OutboxEntry{
		AppointmentID: 42,
		Messages: []domain.MailMessage{
			{To: "ann@example.com", From: "Admin <admin@example.com>", Subject: "Hi", TextBody: "Body"},
		},
	})

	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, domain.OutboxStatusPending, entry.Status)
	assert.True(t, entry.CreatedAt.Equal(now))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_KeepsProvidedID(t *testing.T) {
	repo, mock := newRepository(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO notification_outbox`).
		WithArgs("fixed-id", int64(1), sqlmock.AnyArg(), domain.OutboxStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	entry, err := repo.Create(context.Background(), &domain.OutboxEntry{ID: "fixed-id", AppointmentID: 1})

	require.NoError(t, err)
	assert.Equal(t, "fixed-id", entry.ID)
}

func TestMarkSent(t *testing.T) {
	repo, mock := newRepository(t)

	mock.ExpectExec(`UPDATE notification_outbox SET status = \$1, attempts = attempts \+ 1, last_error = \$2, updated_at = NOW\(\) WHERE id = \$3`).
		WithArgs(domain.OutboxStatusSent, sqlmock.AnyArg(), "abc").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkSent(context.Background(), "abc"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkFailed_NotFound(t *testing.T) {
	repo, mock := newRepository(t)

	mock.ExpectExec(`UPDATE notification_outbox`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkFailed(context.Background(), "missing", "timeout")

	assert.ErrorIs(t, err, ErrEntryNotFound)
}
