package memory

import (
	"sort"
	"time"

	"github.com/vladislavdragonenkov/ordersvc/internal/domain"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"
	outboxStatusFailed  = "failed"
)

type outboxRecord struct {
	msg        domain.OutboxMessage
	status     string
	attemptCnt int
	createdAt  time.Time
	updatedAt  time.Time
}

// state — содержимое всех таблиц. Ограничения проверяются так же, как их
// проверяет схема PostgreSQL, и сообщаются теми же ConstraintViolationError.
type state struct {
	customers map[int64]domain.Customer
	items     map[int64]domain.Item
	orders    map[int64]domain.Order
	// lines упорядочены по ID, то есть в порядке вставки.
	lines  []domain.OrderLine
	outbox []outboxRecord

	customerSeq int64
	itemSeq     int64
	orderSeq    int64
	lineSeq     int64
}

func newState() *state {
	return &state{
		customers: make(map[int64]domain.Customer),
		items:     make(map[int64]domain.Item),
		orders:    make(map[int64]domain.Order),
	}
}

func (st *state) clone() *state {
	c := &state{
		customers:   make(map[int64]domain.Customer, len(st.customers)),
		items:       make(map[int64]domain.Item, len(st.items)),
		orders:      make(map[int64]domain.Order, len(st.orders)),
		lines:       append([]domain.OrderLine(nil), st.lines...),
		outbox:      make([]outboxRecord, len(st.outbox)),
		customerSeq: st.customerSeq,
		itemSeq:     st.itemSeq,
		orderSeq:    st.orderSeq,
		lineSeq:     st.lineSeq,
	}
	for id, v := range st.customers {
		c.customers[id] = v
	}
	for id, v := range st.items {
		c.items[id] = v
	}
	for id, v := range st.orders {
		c.orders[id] = v
	}
	for i, rec := range st.outbox {
		rec.msg.Payload = append([]byte(nil), rec.msg.Payload...)
		c.outbox[i] = rec
	}
	return c
}

func (st *state) phoneTaken(phone string, except int64) bool {
	for id, c := range st.customers {
		if id != except && c.Phone == phone {
			return true
		}
	}
	return false
}

func (st *state) itemByName(name string) (domain.Item, bool) {
	for _, it := range st.items {
		if it.Name == name {
			return it, true
		}
	}
	return domain.Item{}, false
}

func (st *state) putCustomer(c domain.Customer) error {
	if st.phoneTaken(c.Phone, c.ID) {
		return &domain.ConstraintViolationError{Entity: domain.EntityCustomer, Field: "phone"}
	}
	st.customers[c.ID] = c
	return nil
}

func (st *state) putItem(it domain.Item) error {
	if existing, ok := st.itemByName(it.Name); ok && existing.ID != it.ID {
		return &domain.ConstraintViolationError{Entity: domain.EntityItem, Field: "name"}
	}
	if it.Price < 0 {
		return &domain.ConstraintViolationError{Entity: domain.EntityItem, Field: "price"}
	}
	st.items[it.ID] = it
	return nil
}

func (st *state) deleteCustomer(id int64) (bool, error) {
	if _, ok := st.customers[id]; !ok {
		return false, nil
	}
	for _, o := range st.orders {
		if o.CustomerID == id {
			return false, &domain.ConstraintViolationError{Entity: domain.EntityCustomer, Field: "customer_id"}
		}
	}
	delete(st.customers, id)
	return true, nil
}

func (st *state) deleteItem(id int64) (bool, error) {
	if _, ok := st.items[id]; !ok {
		return false, nil
	}
	for _, l := range st.lines {
		if l.ItemID == id {
			return false, &domain.ConstraintViolationError{Entity: domain.EntityItem, Field: "item_id"}
		}
	}
	delete(st.items, id)
	return true, nil
}

func (st *state) putOrder(o domain.Order) error {
	if _, ok := st.customers[o.CustomerID]; !ok {
		return &domain.ConstraintViolationError{Entity: domain.EntityCustomer, Field: "customer_id"}
	}
	st.orders[o.ID] = o
	return nil
}

func (st *state) dropLines(orderID int64) {
	kept := st.lines[:0]
	for _, l := range st.lines {
		if l.OrderID != orderID {
			kept = append(kept, l)
		}
	}
	st.lines = kept
}

func (st *state) addLine(orderID, itemID int64) error {
	if _, ok := st.orders[orderID]; !ok {
		return &domain.ConstraintViolationError{Entity: domain.EntityOrder, Field: "order_id"}
	}
	if _, ok := st.items[itemID]; !ok {
		return &domain.ConstraintViolationError{Entity: domain.EntityItem, Field: "item_id"}
	}
	st.lineSeq++
	st.lines = append(st.lines, domain.OrderLine{ID: st.lineSeq, OrderID: orderID, ItemID: itemID})
	return nil
}

func (st *state) view(id int64) (domain.OrderView, bool) {
	o, ok := st.orders[id]
	if !ok {
		return domain.OrderView{}, false
	}

	view := domain.OrderView{
		ID:         o.ID,
		CustomerID: o.CustomerID,
		Notes:      o.Notes,
		Timestamp:  o.Timestamp,
		Items:      []domain.OrderViewItem{},
	}
	for _, l := range st.lines {
		if l.OrderID != id {
			continue
		}
		it := st.items[l.ItemID]
		view.Items = append(view.Items, domain.OrderViewItem{Name: it.Name, Price: it.Price})
	}
	return view, true
}

func (st *state) pendingOutbox() []outboxRecord {
	pending := make([]outboxRecord, 0, len(st.outbox))
	for _, rec := range st.outbox {
		if rec.status == outboxStatusPending {
			pending = append(pending, rec)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].createdAt.Before(pending[j].createdAt)
	})
	return pending
}

func (st *state) markOutbox(id, status string) error {
	for i := range st.outbox {
		if st.outbox[i].msg.ID != id {
			continue
		}
		st.outbox[i].status = status
		st.outbox[i].attemptCnt++
		st.outbox[i].updatedAt = time.Now().UTC()
		return nil
	}
	return domain.ErrOutboxPublish
}
