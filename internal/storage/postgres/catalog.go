package postgres

import (
	"context"
	"fmt"

	"github.com/vladislavdragonenkov/ordersvc/internal/domain"
)

type catalogAccessor struct {
	g gateway
}

// NewCatalogAccessor создаёт accessor поверх пула (вне транзакции).
func NewCatalogAccessor(store *Store) domain.CatalogAccessor {
	return &catalogAccessor{g: gateway{q: store.DB()}}
}

func (a *catalogAccessor) FindItemByName(ctx context.Context, name string) (domain.Item, bool, error) {
	var item domain.Item
	found, err := a.g.QueryRow(ctx, []any{&item.ID, &item.Name, &item.Price}, `
		SELECT id, name, price
		FROM items
		WHERE name = $1
	`, name)
	if err != nil {
		return domain.Item{}, false, fmt.Errorf("find item by name: %w", err)
	}
	return item, found, nil
}

func (a *catalogAccessor) CustomerExists(ctx context.Context, id int64) (bool, error) {
	found, err := a.g.Exists(ctx, `SELECT 1 FROM customers WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("check customer exists: %w", err)
	}
	return found, nil
}

func (a *catalogAccessor) OrderExists(ctx context.Context, id int64) (bool, error) {
	found, err := a.g.Exists(ctx, `SELECT 1 FROM orders WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("check order exists: %w", err)
	}
	return found, nil
}

var _ domain.CatalogAccessor = (*catalogAccessor)(nil)
