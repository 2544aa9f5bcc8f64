package postgres

import (
	"database/sql"

	"github.com/vladislavdragonenkov/ordersvc/internal/domain"
)

// txScope привязывает репозитории к одной *sql.Tx.
type txScope struct {
	catalog *catalogAccessor
	orders  *orderRepository
	outbox  *outboxRepository
}

func newTx(tx *sql.Tx) *txScope {
	g := gateway{q: tx}
	return &txScope{
		catalog: &catalogAccessor{g: g},
		orders:  &orderRepository{g: g},
		outbox:  &outboxRepository{g: g},
	}
}

func (t *txScope) Catalog() domain.CatalogAccessor { return t.catalog }
func (t *txScope) Orders() domain.OrderRepository { return t.orders }
func (t *txScope) Outbox() domain.OutboxRepository { return t.outbox }

var _ domain.Tx = (*txScope)(nil)
