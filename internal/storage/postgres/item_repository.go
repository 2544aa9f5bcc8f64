package postgres

import (
	"context"
	"fmt"

	"github.com/vladislavdragonenkov/ordersvc/internal/domain"
)

type itemRepository struct {
	g gateway
}

// NewItemRepository создаёт PostgreSQL-реализацию ItemRepository.
func NewItemRepository(store *Store) domain.ItemRepository {
	return &itemRepository{g: gateway{q: store.DB()}}
}

func (r *itemRepository) Create(ctx context.Context, item domain.Item) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	id, err := r.g.InsertReturningID(ctx, `
		INSERT INTO items (name, price)
		VALUES ($1, $2)
		RETURNING id
	`, item.Name, item.Price)
	if err != nil {
		return 0, fmt.Errorf("insert item: %w", err)
	}
	return id, nil
}

func (r *itemRepository) Get(ctx context.Context, id int64) (domain.Item, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var item domain.Item
	found, err := r.g.QueryRow(ctx, []any{&item.ID, &item.Name, &item.Price}, `
		SELECT id, name, price
		FROM items
		WHERE id = $1
	`, id)
	if err != nil {
		return domain.Item{}, false, fmt.Errorf("select item: %w", err)
	}
	return item, found, nil
}

func (r *itemRepository) Update(ctx context.Context, item domain.Item) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	affected, err := r.g.Exec(ctx, `
		UPDATE items
		SET name = $1,
		    price = $2
		WHERE id = $3
	`, item.Name, item.Price, item.ID)
	if err != nil {
		return false, fmt.Errorf("update item: %w", err)
	}
	return affected > 0, nil
}

func (r *itemRepository) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	affected, err := r.g.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete item: %w", err)
	}
	return affected > 0, nil
}

var _ domain.ItemRepository = (*itemRepository)(nil)
