package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
)

// Repository репозиторий журнала уведомлений (таблица notification_outbox).
// Запись создается в транзакции бронирования, результат отправки фиксируется после коммита.
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория outbox
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create сохраняет пачку сообщений со статусом pending
func (r *Repository) Create(ctx context.Context, entry *domain.OutboxEntry) (*domain.OutboxEntry, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	payload, err := json.Marshal(entry.Messages)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodePayload, err)
	}

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	entry.Status = domain.OutboxStatusPending

	query, args, err := psqlbuilder.Insert("notification_outbox").
		Columns("id", "appointment_id", "payload", "status").
		Values(entry.ID, entry.AppointmentID, payload, entry.Status).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}

	entry.CreatedAt = createdAt.Time
	entry.UpdatedAt = updatedAt.Time

	return entry, nil
}

// MarkSent отмечает пачку как доставленную
func (r *Repository) MarkSent(ctx context.Context, id string) error {
	return r.updateStatus(ctx, "MarkSent", id, domain.OutboxStatusSent, nil)
}

// MarkFailed отмечает пачку как недоставленную и сохраняет причину
func (r *Repository) MarkFailed(ctx context.Context, id string, reason string) error {
	return r.updateStatus(ctx, "MarkFailed", id, domain.OutboxStatusFailed, &reason)
}

func (r *Repository) updateStatus(ctx context.Context, op string, id string, status domain.OutboxStatus, reason *string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("notification_outbox").
		Set("status", status).
		Set("attempts", squirrel.Expr("attempts + 1")).
		Set("last_error", reason).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %s - build update query: %v", ErrBuildQuery, op, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s - execute update: %w", ErrExecQuery, op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, op, err)
	}

	if rowsAffected == 0 {
		return ErrEntryNotFound
	}

	return nil
}
