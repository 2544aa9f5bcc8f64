package catalog_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/ordersvc/internal/domain"
	"github.com/vladislavdragonenkov/ordersvc/internal/service/catalog"
	"github.com/vladislavdragonenkov/ordersvc/internal/storage/memory"
)

func newService() (*catalog.Service, *memory.Store) {
	store := memory.NewStore()
	return catalog.NewService(store.Customers(), store.Items(), nil), store
}

func TestService_CustomersHaveUniqueIDs(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	seen := map[int64]domain.Customer{}
	for _, c := range []domain.Customer{{Name: "A", Phone: "1"}, {Name: "B", Phone: "2"}, {Name: "C", Phone: "3"}} {
		id, err := svc.CreateCustomer(ctx, c)
		require.NoError(t, err)
		_, dup := seen[id]
		require.False(t, dup, "id %d issued twice", id)
		c.ID = id
		seen[id] = c
	}

	for id, want := range seen {
		got, err := svc.GetCustomer(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestService_DuplicatePhoneLeavesCountUnchanged(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	first, err := svc.CreateCustomer(ctx, domain.Customer{Name: "A", Phone: "1"})
	require.NoError(t, err)

	_, err = svc.CreateCustomer(ctx, domain.Customer{Name: "B", Phone: "1"})
	require.True(t, domain.IsConstraintViolation(err))

	next, err := svc.CreateCustomer(ctx, domain.Customer{Name: "C", Phone: "2"})
	require.NoError(t, err)
	assert.Equal(t, first+1, next)

	_, err = svc.GetCustomer(ctx, first+2)
	assert.True(t, domain.IsNotFound(err))
}

func TestService_Validation(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	cases := map[string]error{
		"empty customer name":  func() error { _, err := svc.CreateCustomer(ctx, domain.Customer{Phone: "1"}); return err }(),
		"empty customer phone": func() error { _, err := svc.CreateCustomer(ctx, domain.Customer{Name: "A"}); return err }(),
		"empty item name":      func() error { _, err := svc.CreateItem(ctx, domain.Item{Price: 1}); return err }(),
		"negative price":       func() error { _, err := svc.CreateItem(ctx, domain.Item{Name: "X", Price: -0.01}); return err }(),
		"nan price":            func() error { _, err := svc.CreateItem(ctx, domain.Item{Name: "X", Price: math.NaN()}); return err }(),
		"update blank phone":   svc.UpdateCustomer(ctx, domain.Customer{ID: 1, Name: "A", Phone: "  "}),
	}
	for name, err := range cases {
		var invalid *domain.ValidationError
		assert.ErrorAs(t, err, &invalid, name)
	}
}

func TestService_NotFoundOnMissingRows(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	var notFound *domain.NotFoundError

	require.ErrorAs(t, svc.DeleteCustomer(ctx, 5), &notFound)
	assert.Equal(t, "Customer not found.", notFound.Message())
	require.ErrorAs(t, svc.UpdateCustomer(ctx, domain.Customer{ID: 5, Name: "A", Phone: "1"}), &notFound)

	require.ErrorAs(t, svc.DeleteItem(ctx, 5), &notFound)
	assert.Equal(t, "Item not found.", notFound.Message())
	require.ErrorAs(t, svc.UpdateItem(ctx, domain.Item{ID: 5, Name: "X", Price: 1}), &notFound)
	_, err := svc.GetItem(ctx, 5)
	require.ErrorAs(t, err, &notFound)
}

func TestService_ItemLifecycle(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	id, err := svc.CreateItem(ctx, domain.Item{Name: "X", Price: 10})
	require.NoError(t, err)

	_, err = svc.CreateItem(ctx, domain.Item{Name: "X", Price: 11})
	var violation *domain.ConstraintViolationError
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, "Item with this name already exists.", violation.Message())

	require.NoError(t, svc.UpdateItem(ctx, domain.Item{ID: id, Name: "X", Price: 0}))
	item, err := svc.GetItem(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0.0, item.Price)

	require.NoError(t, svc.DeleteItem(ctx, id))
	_, err = svc.GetItem(ctx, id)
	assert.True(t, domain.IsNotFound(err))
}

func TestService_ReferencedCustomerCannotBeDeleted(t *testing.T) {
	svc, store := newService()
	ctx := context.Background()

	customerID, err := svc.CreateCustomer(ctx, domain.Customer{Name: "A", Phone: "1"})
	require.NoError(t, err)
	err = store.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		_, err := tx.Orders().Insert(ctx, domain.Order{CustomerID: customerID})
		return err
	})
	require.NoError(t, err)

	err = svc.DeleteCustomer(ctx, customerID)
	require.True(t, domain.IsConstraintViolation(err))

	_, err = svc.GetCustomer(ctx, customerID)
	require.NoError(t, err)
}
