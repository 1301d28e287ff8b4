package term

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
)

// end - зарезервированное слово PostgreSQL, колонку нужно экранировать
const columnEnd = `"end"`

// Repository репозиторий для работы с периодами записи (таблица terms)
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория периодов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// List возвращает все периоды по возрастанию начала
func (r *Repository) List(ctx context.Context) ([]*domain.Term, error) {
	query, args, err := psqlbuilder.Select("id", "name", "start", columnEnd, "slots").
		From("terms").
		OrderBy("start ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %v", ErrBuildQuery, err)
	}

	return r.query(ctx, "List", query, args)
}

// GetContainingForUpdate возвращает все периоды, окно которых содержит момент at,
// и блокирует их строки до конца транзакции.
// Блокировка периода сериализует бронирования внутри одного окна,
// чтобы повторная проверка вместимости видела актуальное число записей.
func (r *Repository) GetContainingForUpdate(ctx context.Context, at time.Time) ([]*domain.Term, error) {
	selectBuilder := psqlbuilder.Select("id", "name", "start", columnEnd, "slots").
		From("terms").
		Where(squirrel.LtOrEq{"start": at}).
		Where(squirrel.GtOrEq{columnEnd: at}).
		OrderBy("start ASC", "id ASC")

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetContainingForUpdate - build select query: %v", ErrBuildQuery, err)
	}

	return r.query(ctx, "GetContainingForUpdate", query, args)
}

func (r *Repository) query(ctx context.Context, op string, query string, args []interface{}) ([]*domain.Term, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s - execute query: %w", ErrExecQuery, op, err)
	}
	defer rows.Close()

	return scanTerms(op, rows)
}

// scanTerms сканирует результаты запроса в слайс периодов
func scanTerms(op string, rows *sql.Rows) ([]*domain.Term, error) {
	terms := make([]*domain.Term, 0)

	for rows.Next() {
		var t domain.Term
		if err := rows.Scan(&t.ID, &t.Name, &t.Start, &t.End, &t.Slots); err != nil {
			return nil, fmt.Errorf("%w: %s - scan row: %v", ErrScanRow, op, err)
		}
		terms = append(terms, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s - rows error: %w", ErrScanRow, op, err)
	}

	return terms, nil
}
