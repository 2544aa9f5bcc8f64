package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/ordersvc/internal/domain"
)

const (
	opTimeout = 5 * time.Second
)

type customerRepository struct {
	g gateway
}

// NewCustomerRepository создаёт PostgreSQL-реализацию CustomerRepository.
func NewCustomerRepository(store *Store) domain.CustomerRepository {
	return &customerRepository{g: gateway{q: store.DB()}}
}

func (r *customerRepository) Create(ctx context.Context, customer domain.Customer) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	id, err := r.g.InsertReturningID(ctx, `
		INSERT INTO customers (name, phone)
		VALUES ($1, $2)
		RETURNING id
	`, customer.Name, customer.Phone)
	if err != nil {
		return 0, fmt.Errorf("insert customer: %w", err)
	}
	return id, nil
}

func (r *customerRepository) Get(ctx context.Context, id int64) (domain.Customer, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var customer domain.Customer
	found, err := r.g.QueryRow(ctx, []any{&customer.ID, &customer.Name, &customer.Phone}, `
		SELECT id, name, phone
		FROM customers
		WHERE id = $1
	`, id)
	if err != nil {
		return domain.Customer{}, false, fmt.Errorf("select customer: %w", err)
	}
	return customer, found, nil
}

func (r *customerRepository) Update(ctx context.Context, customer domain.Customer) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	affected, err := r.g.Exec(ctx, `
		UPDATE customers
		SET name = $1,
		    phone = $2
		WHERE id = $3
	`, customer.Name, customer.Phone, customer.ID)
	if err != nil {
		return false, fmt.Errorf("update customer: %w", err)
	}
	return affected > 0, nil
}

func (r *customerRepository) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	affected, err := r.g.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete customer: %w", err)
	}
	return affected > 0, nil
}

var _ domain.CustomerRepository = (*customerRepository)(nil)
