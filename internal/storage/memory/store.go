package memory

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/ordersvc/internal/domain"
)

// Store — in-memory хранилище с теми же портами, что и PostgreSQL.
// Транзакция работает над копией состояния и подменяет его только при успехе,
// поэтому откат бесплатный. Транзакции сериализуются мьютексом: внутри fn
// нельзя вызывать нетранзакционные методы Store.
type Store struct {
	mu sync.Mutex
	st *state
}

// NewStore создаёт пустое хранилище.
func NewStore() *Store {
	return &Store{st: newState()}
}

// WithinTx выполняет fn над снимком состояния и применяет его, если fn вернула nil.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.Tx) error) error {
	return s.update(func(st *state) error {
		return fn(ctx, txScope{st: st})
	})
}

// Ping всегда успешен: хранилище живёт в памяти процесса.
func (s *Store) Ping(context.Context) error { return nil }

// Customers возвращает репозиторий клиентов вне транзакции.
func (s *Store) Customers() domain.CustomerRepository { return customerRepository{s: s} }

// Items возвращает репозиторий позиций каталога вне транзакции.
func (s *Store) Items() domain.ItemRepository { return itemRepository{s: s} }

// Catalog возвращает accessor для чтения вне транзакции.
func (s *Store) Catalog() domain.CatalogAccessor { return catalogAccessor{s: s} }

// Outbox возвращает outbox-репозиторий для воркера публикации.
func (s *Store) Outbox() domain.OutboxRepository { return outboxRepository{s: s} }

func (s *Store) update(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(work); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *Store) read(fn func(st *state)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.st)
}

type txScope struct {
	st *state
}

func (t txScope) Catalog() domain.CatalogAccessor { return stateCatalog{st: t.st} }
func (t txScope) Orders() domain.OrderRepository { return stateOrders{st: t.st} }
func (t txScope) Outbox() domain.OutboxRepository { return stateOutbox{st: t.st} }

var (
	_ domain.TxManager = (*Store)(nil)
	_ domain.Pinger    = (*Store)(nil)
	_ domain.Tx        = txScope{}
)
