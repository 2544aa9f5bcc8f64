package orders

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ordersvc/internal/domain"
	"github.com/vladislavdragonenkov/ordersvc/internal/metrics"
)

const (
	MessageCreated = "Order created successfully."
	MessageUpdated = "Order updated successfully."
	MessageDeleted = "Order deleted successfully."
)

const (
	opCreate = "create"
	opUpdate = "update"
	opGet    = "get"
	opDelete = "delete"
)

// OrderCommand — тело запроса на создание или обновление заказа.
// Notes == nil означает пустые заметки.
type OrderCommand struct {
	CustomerID int64
	Notes      *string
	Lines      []domain.RequestedLine
}

func (c OrderCommand) notes() string {
	if c.Notes == nil {
		return ""
	}
	return *c.Notes
}

// Option настраивает Workflow.
type Option func(*Workflow)

// WithLogger задаёт logger.
func WithLogger(logger *log.Entry) Option {
	return func(w *Workflow) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithMetrics задаёт метрики; без опции метрики не пишутся.
func WithMetrics(m *metrics.OrderMetrics) Option {
	return func(w *Workflow) {
		w.metrics = m
	}
}

// WithClock подменяет источник времени для timestamp заказа.
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) {
		if now != nil {
			w.now = now
		}
	}
}

// WithEvents включает запись событий заказа в outbox той же транзакцией.
func WithEvents(enabled bool) Option {
	return func(w *Workflow) {
		w.events = enabled
	}
}

// Workflow реализует создание, обновление, чтение и удаление заказов.
// Каждый вызов — одна транзакция: ошибка на любом шаге откатывает всё.
type Workflow struct {
	tx      domain.TxManager
	logger  *log.Entry
	metrics *metrics.OrderMetrics
	now     func() time.Time
	events  bool
}

// NewWorkflow создаёт Workflow поверх менеджера транзакций.
func NewWorkflow(tx domain.TxManager, opts ...Option) *Workflow {
	w := &Workflow{
		tx:     tx,
		logger: log.WithField("component", "order-workflow"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// CreateOrder проверяет клиента, сверяет строки с каталогом и сохраняет заказ.
func (w *Workflow) CreateOrder(ctx context.Context, cmd OrderCommand) (result domain.OrderResult, err error) {
	defer w.observe(opCreate, w.now(), &err)

	err = w.tx.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		if err := requireCustomer(ctx, tx.Catalog(), cmd.CustomerID); err != nil {
			return err
		}

		resolved, err := w.resolve(ctx, tx.Catalog(), cmd.Lines)
		if err != nil {
			return err
		}

		order := domain.Order{
			CustomerID: cmd.CustomerID,
			Notes:      cmd.notes(),
			Timestamp:  w.now().Unix(),
		}
		order.ID, err = tx.Orders().Insert(ctx, order)
		if err != nil {
			return customerGone(err, cmd.CustomerID)
		}
		if err := tx.Orders().ReplaceLines(ctx, order.ID, resolved.itemIDs); err != nil {
			return err
		}
		if err := w.enqueue(ctx, tx, domain.EventOrderCreated, order, resolved.items); err != nil {
			return err
		}

		result = domain.OrderResult{ID: order.ID, Message: MessageCreated, PriceAdjustments: resolved.notes}
		return nil
	})
	if err != nil {
		return domain.OrderResult{}, err
	}

	w.logger.WithFields(log.Fields{
		"order_id":    result.ID,
		"customer_id": cmd.CustomerID,
		"lines":       len(cmd.Lines),
		"adjustments": len(result.PriceAdjustments),
	}).Info("order created")
	return result, nil
}

// UpdateOrder заменяет клиента, заметки и все строки заказа. Timestamp не меняется.
// Проверки идут в порядке: заказ, клиент, позиции.
func (w *Workflow) UpdateOrder(ctx context.Context, id int64, cmd OrderCommand) (result domain.OrderResult, err error) {
	defer w.observe(opUpdate, w.now(), &err)

	err = w.tx.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		exists, err := tx.Catalog().OrderExists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return domain.OrderNotFound(id)
		}
		if err := requireCustomer(ctx, tx.Catalog(), cmd.CustomerID); err != nil {
			return err
		}

		resolved, err := w.resolve(ctx, tx.Catalog(), cmd.Lines)
		if err != nil {
			return err
		}

		order := domain.Order{ID: id, CustomerID: cmd.CustomerID, Notes: cmd.notes()}
		updated, err := tx.Orders().UpdateHeader(ctx, order)
		if err != nil {
			return customerGone(err, cmd.CustomerID)
		}
		if !updated {
			return domain.OrderNotFound(id)
		}
		if err := tx.Orders().ReplaceLines(ctx, id, resolved.itemIDs); err != nil {
			return err
		}
		if err := w.enqueue(ctx, tx, domain.EventOrderUpdated, order, resolved.items); err != nil {
			return err
		}

		result = domain.OrderResult{ID: id, Message: MessageUpdated, PriceAdjustments: resolved.notes}
		return nil
	})
	if err != nil {
		return domain.OrderResult{}, err
	}

	w.logger.WithFields(log.Fields{
		"order_id":    id,
		"customer_id": cmd.CustomerID,
		"adjustments": len(result.PriceAdjustments),
	}).Info("order updated")
	return result, nil
}

// GetOrder возвращает заказ с текущими ценами каталога.
func (w *Workflow) GetOrder(ctx context.Context, id int64) (view domain.OrderView, err error) {
	defer w.observe(opGet, w.now(), &err)

	err = w.tx.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		v, found, err := tx.Orders().View(ctx, id)
		if err != nil {
			return err
		}
		if !found {
			return domain.OrderNotFound(id)
		}
		view = v
		return nil
	})
	if err != nil {
		return domain.OrderView{}, err
	}
	return view, nil
}

// DeleteOrder удаляет заказ вместе со строками.
func (w *Workflow) DeleteOrder(ctx context.Context, id int64) (err error) {
	defer w.observe(opDelete, w.now(), &err)

	err = w.tx.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		deleted, err := tx.Orders().Delete(ctx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return domain.OrderNotFound(id)
		}
		return w.enqueue(ctx, tx, domain.EventOrderDeleted, domain.Order{ID: id}, nil)
	})
	if err != nil {
		return err
	}

	w.logger.WithField("order_id", id).Info("order deleted")
	return nil
}

func requireCustomer(ctx context.Context, catalog domain.CatalogAccessor, customerID int64) error {
	exists, err := catalog.CustomerExists(ctx, customerID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.CustomerNotFound(customerID)
	}
	return nil
}

// customerGone переводит нарушение внешнего ключа на клиента при записи заказа
// в NotFound: клиента удалили между проверкой и записью.
func customerGone(err error, customerID int64) error {
	var violation *domain.ConstraintViolationError
	if errors.As(err, &violation) && violation.Field == "customer_id" {
		return domain.CustomerNotFound(customerID)
	}
	return err
}

type resolvedLines struct {
	itemIDs []int64
	items   []domain.OrderViewItem
	notes   []string
}

// resolve сопоставляет строки с каталогом по имени. Присланная цена только
// сравнивается с ценой каталога, сохраняется всегда цена каталога.
// Повторяющиеся имена дают отдельную строку и отдельную заметку.
func (w *Workflow) resolve(ctx context.Context, catalog domain.CatalogAccessor, lines []domain.RequestedLine) (resolvedLines, error) {
	out := resolvedLines{
		itemIDs: make([]int64, 0, len(lines)),
		items:   make([]domain.OrderViewItem, 0, len(lines)),
	}

	for _, line := range lines {
		item, found, err := catalog.FindItemByName(ctx, line.Name)
		if err != nil {
			return resolvedLines{}, err
		}
		if !found {
			return resolvedLines{}, domain.ItemNotFound(line.Name)
		}

		if line.Price != item.Price {
			out.notes = append(out.notes, domain.PriceAdjustmentNote(item.Name, line.Price, item.Price))
		}
		out.itemIDs = append(out.itemIDs, item.ID)
		out.items = append(out.items, domain.OrderViewItem{Name: item.Name, Price: item.Price})
	}

	w.metrics.RecordLines(len(out.itemIDs), len(out.notes))
	return out, nil
}

func (w *Workflow) enqueue(ctx context.Context, tx domain.Tx, eventType domain.EventType, order domain.Order, items []domain.OrderViewItem) error {
	if !w.events {
		return nil
	}

	msg, err := domain.OrderEvent{
		EventType:  eventType,
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		Notes:      order.Notes,
		Items:      items,
		OccurredAt: w.now().UTC(),
	}.OutboxMessage()
	if err != nil {
		return err
	}
	if _, err := tx.Outbox().Enqueue(ctx, msg); err != nil {
		return err
	}

	w.metrics.RecordEventEnqueued(string(eventType))
	return nil
}

func (w *Workflow) observe(operation string, started time.Time, errp *error) {
	err := *errp
	result := resultOf(err)
	w.metrics.ObserveOperation(operation, result, w.now().Sub(started))

	switch result {
	case metrics.ResultOK:
	case metrics.ResultError:
		w.logger.WithError(err).WithField("operation", operation).Error("order operation failed")
	default:
		w.logger.WithError(err).WithField("operation", operation).Warn("order operation rejected")
	}
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case domain.IsNotFound(err):
		return metrics.ResultNotFound
	case domain.IsConstraintViolation(err):
		return metrics.ResultConstraint
	case errors.Is(err, domain.ErrValidation):
		return metrics.ResultInvalid
	default:
		return metrics.ResultError
	}
}
