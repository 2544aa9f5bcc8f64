package domain

import (
	"context"
	"time"
)

// CustomerRepository — CRUD по таблице клиентов.
// Отсутствие строки не является ошибкой: методы сообщают его через bool.
type CustomerRepository interface {
	Create(ctx context.Context, customer Customer) (int64, error)
	Get(ctx context.Context, id int64) (Customer, bool, error)
	Update(ctx context.Context, customer Customer) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// ItemRepository — CRUD по каталогу позиций.
type ItemRepository interface {
	Create(ctx context.Context, item Item) (int64, error)
	Get(ctx context.Context, id int64) (Item, bool, error)
	Update(ctx context.Context, item Item) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// CatalogAccessor — чтение каталога для сверки заказа. Кэширование запрещено:
// каждый вызов читает текущее состояние хранилища.
type CatalogAccessor interface {
	FindItemByName(ctx context.Context, name string) (Item, bool, error)
	CustomerExists(ctx context.Context, id int64) (bool, error)
	OrderExists(ctx context.Context, id int64) (bool, error)
}

// OrderRepository — запись и чтение заказов и их строк.
type OrderRepository interface {
	// Insert сохраняет заголовок заказа и возвращает присвоенный ID.
	Insert(ctx context.Context, order Order) (int64, error)
	// UpdateHeader меняет customer_id и notes; timestamp не трогается.
	UpdateHeader(ctx context.Context, order Order) (bool, error)
	// ReplaceLines удаляет все строки заказа и вставляет новые в заданном порядке.
	ReplaceLines(ctx context.Context, orderID int64, itemIDs []int64) error
	// View возвращает заказ со строками и текущими ценами каталога.
	View(ctx context.Context, id int64) (OrderView, bool, error)
	// Delete удаляет заказ вместе со строками.
	Delete(ctx context.Context, id int64) (bool, error)
}

// Tx — набор репозиториев, привязанных к одной транзакции.
type Tx interface {
	Catalog() CatalogAccessor
	Orders() OrderRepository
	Outbox() OutboxRepository
}

// TxManager выполняет fn в одной транзакции: commit при nil, rollback при любой ошибке.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(ctx context.Context, event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(ctx context.Context, msg OutboxMessage) (OutboxMessage, error)
	PullPending(ctx context.Context, limit int) ([]OutboxMessage, error)
	Stats(ctx context.Context) (OutboxStats, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
}

// IdempotencyRepository хранит состояние обработки запросов по idempotency-key.
type IdempotencyRepository interface {
	CreateProcessing(ctx context.Context, key, requestHash string, ttlAt time.Time) (IdempotencyRecord, error)
	Get(ctx context.Context, key string) (IdempotencyRecord, error)
	MarkDone(ctx context.Context, key string, responseBody []byte, httpStatus int) error
	MarkFailed(ctx context.Context, key string, responseBody []byte, httpStatus int) error
	DeleteExpired(ctx context.Context, before time.Time, limit int) (int, error)
}

// Pinger проверяет доступность хранилища для health checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
