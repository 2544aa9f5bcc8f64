package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/ordersvc/internal/domain"
)

type customerRepository struct {
	s *Store
}

func (r customerRepository) Create(_ context.Context, customer domain.Customer) (int64, error) {
	var id int64
	err := r.s.update(func(st *state) error {
		st.customerSeq++
		customer.ID = st.customerSeq
		id = customer.ID
		return st.putCustomer(customer)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r customerRepository) Get(_ context.Context, id int64) (customer domain.Customer, found bool, err error) {
	r.s.read(func(st *state) {
		customer, found = st.customers[id]
	})
	return customer, found, nil
}

func (r customerRepository) Update(_ context.Context, customer domain.Customer) (updated bool, err error) {
	err = r.s.update(func(st *state) error {
		if _, ok := st.customers[customer.ID]; !ok {
			return nil
		}
		updated = true
		return st.putCustomer(customer)
	})
	return updated && err == nil, err
}

func (r customerRepository) Delete(_ context.Context, id int64) (deleted bool, err error) {
	err = r.s.update(func(st *state) error {
		deleted, err = st.deleteCustomer(id)
		return err
	})
	return deleted, err
}

type itemRepository struct {
	s *Store
}

func (r itemRepository) Create(_ context.Context, item domain.Item) (int64, error) {
	var id int64
	err := r.s.update(func(st *state) error {
		st.itemSeq++
		item.ID = st.itemSeq
		id = item.ID
		return st.putItem(item)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r itemRepository) Get(_ context.Context, id int64) (item domain.Item, found bool, err error) {
	r.s.read(func(st *state) {
		item, found = st.items[id]
	})
	return item, found, nil
}

func (r itemRepository) Update(_ context.Context, item domain.Item) (updated bool, err error) {
	err = r.s.update(func(st *state) error {
		if _, ok := st.items[item.ID]; !ok {
			return nil
		}
		updated = true
		return st.putItem(item)
	})
	return updated && err == nil, err
}

func (r itemRepository) Delete(_ context.Context, id int64) (deleted bool, err error) {
	err = r.s.update(func(st *state) error {
		deleted, err = st.deleteItem(id)
		return err
	})
	return deleted, err
}

type catalogAccessor struct {
	s *Store
}

func (a catalogAccessor) FindItemByName(ctx context.Context, name string) (item domain.Item, found bool, err error) {
	a.s.read(func(st *state) {
		item, found, err = stateCatalog{st: st}.FindItemByName(ctx, name)
	})
	return item, found, err
}

func (a catalogAccessor) CustomerExists(ctx context.Context, id int64) (found bool, err error) {
	a.s.read(func(st *state) {
		found, err = stateCatalog{st: st}.CustomerExists(ctx, id)
	})
	return found, err
}

func (a catalogAccessor) OrderExists(ctx context.Context, id int64) (found bool, err error) {
	a.s.read(func(st *state) {
		found, err = stateCatalog{st: st}.OrderExists(ctx, id)
	})
	return found, err
}

type outboxRepository struct {
	s *Store
}

func (r outboxRepository) Enqueue(ctx context.Context, msg domain.OutboxMessage) (stored domain.OutboxMessage, err error) {
	err = r.s.update(func(st *state) error {
		stored, err = stateOutbox{st: st}.Enqueue(ctx, msg)
		return err
	})
	return stored, err
}

func (r outboxRepository) PullPending(ctx context.Context, limit int) (msgs []domain.OutboxMessage, err error) {
	r.s.read(func(st *state) {
		msgs, err = stateOutbox{st: st}.PullPending(ctx, limit)
	})
	return msgs, err
}

func (r outboxRepository) Stats(ctx context.Context) (stats domain.OutboxStats, err error) {
	r.s.read(func(st *state) {
		stats, err = stateOutbox{st: st}.Stats(ctx)
	})
	return stats, err
}

func (r outboxRepository) MarkSent(_ context.Context, id string) error {
	return r.s.update(func(st *state) error {
		return st.markOutbox(id, outboxStatusSent)
	})
}

func (r outboxRepository) MarkFailed(_ context.Context, id string) error {
	return r.s.update(func(st *state) error {
		return st.markOutbox(id, outboxStatusFailed)
	})
}

// stateCatalog, stateOrders и stateOutbox работают над снимком внутри WithinTx.

type stateCatalog struct {
	st *state
}

func (c stateCatalog) FindItemByName(_ context.Context, name string) (domain.Item, bool, error) {
	item, found := c.st.itemByName(name)
	return item, found, nil
}

func (c stateCatalog) CustomerExists(_ context.Context, id int64) (bool, error) {
	_, found := c.st.customers[id]
	return found, nil
}

func (c stateCatalog) OrderExists(_ context.Context, id int64) (bool, error) {
	_, found := c.st.orders[id]
	return found, nil
}

type stateOrders struct {
	st *state
}

func (o stateOrders) Insert(_ context.Context, order domain.Order) (int64, error) {
	o.st.orderSeq++
	order.ID = o.st.orderSeq
	if err := o.st.putOrder(order); err != nil {
		return 0, err
	}
	return order.ID, nil
}

func (o stateOrders) UpdateHeader(_ context.Context, order domain.Order) (bool, error) {
	current, ok := o.st.orders[order.ID]
	if !ok {
		return false, nil
	}
	current.CustomerID = order.CustomerID
	current.Notes = order.Notes
	if err := o.st.putOrder(current); err != nil {
		return false, err
	}
	return true, nil
}

func (o stateOrders) ReplaceLines(_ context.Context, orderID int64, itemIDs []int64) error {
	o.st.dropLines(orderID)
	for _, itemID := range itemIDs {
		if err := o.st.addLine(orderID, itemID); err != nil {
			return err
		}
	}
	return nil
}

func (o stateOrders) View(_ context.Context, id int64) (domain.OrderView, bool, error) {
	view, found := o.st.view(id)
	return view, found, nil
}

func (o stateOrders) Delete(_ context.Context, id int64) (bool, error) {
	if _, ok := o.st.orders[id]; !ok {
		return false, nil
	}
	o.st.dropLines(id)
	delete(o.st.orders, id)
	return true, nil
}

type stateOutbox struct {
	st *state
}

func (b stateOutbox) Enqueue(_ context.Context, msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	b.st.outbox = append(b.st.outbox, outboxRecord{
		msg:       msg,
		status:    outboxStatusPending,
		createdAt: now,
		updatedAt: now,
	})
	return msg, nil
}

func (b stateOutbox) PullPending(_ context.Context, limit int) ([]domain.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	pending := b.st.pendingOutbox()
	if len(pending) > limit {
		pending = pending[:limit]
	}
	result := make([]domain.OutboxMessage, 0, len(pending))
	for _, rec := range pending {
		result = append(result, rec.msg)
	}
	return result, nil
}

func (b stateOutbox) Stats(context.Context) (domain.OutboxStats, error) {
	pending := b.st.pendingOutbox()
	stats := domain.OutboxStats{PendingCount: len(pending)}
	if len(pending) > 0 {
		stats.OldestPendingAt = pending[0].createdAt
	}
	return stats, nil
}

func (b stateOutbox) MarkSent(_ context.Context, id string) error {
	return b.st.markOutbox(id, outboxStatusSent)
}

func (b stateOutbox) MarkFailed(_ context.Context, id string) error {
	return b.st.markOutbox(id, outboxStatusFailed)
}

var (
	_ domain.CustomerRepository = customerRepository{}
	_ domain.ItemRepository     = itemRepository{}
	_ domain.CatalogAccessor    = catalogAccessor{}
	_ domain.OutboxRepository   = outboxRepository{}
	_ domain.CatalogAccessor    = stateCatalog{}
	_ domain.OrderRepository    = stateOrders{}
	_ domain.OutboxRepository   = stateOutbox{}
)
