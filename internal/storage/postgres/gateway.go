package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/ordersvc/internal/domain"
)

const (
	pgCodeUniqueViolation     = "23505"
	pgCodeForeignKeyViolation = "23503"
	pgCodeCheckViolation      = "23514"
)

// constraintFields сопоставляет имена ограничений из миграций с полем и сущностью,
// о которых сообщается клиенту.
var constraintFields = map[string]domain.ConstraintViolationError{
	"customers_phone_key":       {Entity: domain.EntityCustomer, Field: "phone"},
	"items_name_key":            {Entity: domain.EntityItem, Field: "name"},
	"items_price_check":         {Entity: domain.EntityItem, Field: "price"},
	"orders_customer_id_fkey":   {Entity: domain.EntityCustomer, Field: "customer_id"},
	"order_items_order_id_fkey": {Entity: domain.EntityOrder, Field: "order_id"},
	"order_items_item_id_fkey":  {Entity: domain.EntityItem, Field: "item_id"},
}

// querier — общее подмножество *sql.DB и *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// gateway выполняет параметризованные запросы и переводит ошибки ограничений
// хранилища в доменные. NotFound здесь никогда не возникает: пустой результат
// чтения возвращается как found=false.
type gateway struct {
	q querier
}

// Exec выполняет запрос и возвращает число затронутых строк.
func (g gateway) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := g.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, translateError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return affected, nil
}

// InsertReturningID выполняет INSERT ... RETURNING id.
func (g gateway) InsertReturningID(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	if err := g.q.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, translateError(err)
	}
	return id, nil
}

// QueryRow читает одну строку в dest.
func (g gateway) QueryRow(ctx context.Context, dest []any, query string, args ...any) (bool, error) {
	err := g.q.QueryRowContext(ctx, query, args...).Scan(dest...)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, translateError(err)
}

// Query читает набор строк, вызывая scan для каждой.
func (g gateway) Query(ctx context.Context, scan func(*sql.Rows) error, query string, args ...any) error {
	rows, err := g.q.QueryContext(ctx, query, args...)
	if err != nil {
		return translateError(err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate rows: %w", err)
	}
	return nil
}

// Exists проверяет наличие строки по запросу вида SELECT 1 ... .
func (g gateway) Exists(ctx context.Context, query string, args ...any) (bool, error) {
	var one int
	return g.QueryRow(ctx, []any{&one}, query, args...)
}

func translateError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgCodeUniqueViolation, pgCodeForeignKeyViolation, pgCodeCheckViolation:
		if known, ok := constraintFields[pgErr.ConstraintName]; ok {
			violation := known
			return &violation
		}
		return &domain.ConstraintViolationError{Field: pgErr.ColumnName}
	default:
		return err
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgCodeUniqueViolation
	}
	return false
}
