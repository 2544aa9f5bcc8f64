package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vladislavdragonenkov/ordersvc/internal/domain"
)

// orderRepository работает только внутри транзакции (см. Store.WithinTx).
type orderRepository struct {
	g gateway
}

func (r *orderRepository) Insert(ctx context.Context, order domain.Order) (int64, error) {
	id, err := r.g.InsertReturningID(ctx, `
		INSERT INTO orders (customer_id, notes, "timestamp")
		VALUES ($1, $2, $3)
		RETURNING id
	`, order.CustomerID, order.Notes, order.Timestamp)
	if err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}
	return id, nil
}

func (r *orderRepository) UpdateHeader(ctx context.Context, order domain.Order) (bool, error) {
	affected, err := r.g.Exec(ctx, `
		UPDATE orders
		SET customer_id = $1,
		    notes = $2
		WHERE id = $3
	`, order.CustomerID, order.Notes, order.ID)
	if err != nil {
		return false, fmt.Errorf("update order: %w", err)
	}
	return affected > 0, nil
}

func (r *orderRepository) ReplaceLines(ctx context.Context, orderID int64, itemIDs []int64) error {
	if _, err := r.g.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}

	for _, itemID := range itemIDs {
		if _, err := r.g.Exec(ctx, `
			INSERT INTO order_items (order_id, item_id)
			VALUES ($1, $2)
		`, orderID, itemID); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func (r *orderRepository) View(ctx context.Context, id int64) (domain.OrderView, bool, error) {
	var view domain.OrderView
	found, err := r.g.QueryRow(ctx, []any{&view.ID, &view.CustomerID, &view.Notes, &view.Timestamp}, `
		SELECT id, customer_id, notes, "timestamp"
		FROM orders
		WHERE id = $1
	`, id)
	if err != nil {
		return domain.OrderView{}, false, fmt.Errorf("select order: %w", err)
	}
	if !found {
		return domain.OrderView{}, false, nil
	}

	view.Items = make([]domain.OrderViewItem, 0)
	err = r.g.Query(ctx, func(rows *sql.Rows) error {
		var item domain.OrderViewItem
		if err := rows.Scan(&item.Name, &item.Price); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		view.Items = append(view.Items, item)
		return nil
	}, `
		SELECT i.name, i.price
		FROM order_items oi
		JOIN items i ON oi.item_id = i.id
		WHERE oi.order_id = $1
		ORDER BY oi.id ASC
	`, id)
	if err != nil {
		return domain.OrderView{}, false, fmt.Errorf("load order items: %w", err)
	}

	return view, true, nil
}

func (r *orderRepository) Delete(ctx context.Context, id int64) (bool, error) {
	if _, err := r.g.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
		return false, fmt.Errorf("delete order items: %w", err)
	}

	affected, err := r.g.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete order: %w", err)
	}
	return affected > 0, nil
}

var _ domain.OrderRepository = (*orderRepository)(nil)
