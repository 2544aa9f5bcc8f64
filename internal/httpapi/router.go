package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ordersvc/internal/domain"
	"github.com/vladislavdragonenkov/ordersvc/internal/metrics"
	"github.com/vladislavdragonenkov/ordersvc/internal/service/idempotency"
	"github.com/vladislavdragonenkov/ordersvc/internal/service/orders"
)

// CatalogService — CRUD клиентов и позиций.
type CatalogService interface {
	CreateCustomer(ctx context.Context, customer domain.Customer) (int64, error)
	GetCustomer(ctx context.Context, id int64) (domain.Customer, error)
	UpdateCustomer(ctx context.Context, customer domain.Customer) error
	DeleteCustomer(ctx context.Context, id int64) error
	CreateItem(ctx context.Context, item domain.Item) (int64, error)
	GetItem(ctx context.Context, id int64) (domain.Item, error)
	UpdateItem(ctx context.Context, item domain.Item) error
	DeleteItem(ctx context.Context, id int64) error
}

// OrderService — workflow заказов.
type OrderService interface {
	CreateOrder(ctx context.Context, cmd orders.OrderCommand) (domain.OrderResult, error)
	UpdateOrder(ctx context.Context, id int64, cmd orders.OrderCommand) (domain.OrderResult, error)
	GetOrder(ctx context.Context, id int64) (domain.OrderView, error)
	DeleteOrder(ctx context.Context, id int64) error
}

// Dependencies — зависимости HTTP API. Idempotency и Metrics необязательны.
type Dependencies struct {
	Catalog     CatalogService
	Orders      OrderService
	Idempotency *idempotency.Guard
	Metrics     *metrics.HTTPMetrics
	Logger      *log.Entry
}

type handler struct {
	catalog CatalogService
	orders  OrderService
	guard   *idempotency.Guard
	metrics *metrics.HTTPMetrics
	logger  *log.Entry
}

// NewRouter собирает chi-роутер публичного API.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = log.WithField("component", "http")
	}
	h := &handler{
		catalog: deps.Catalog,
		orders:  deps.Orders,
		guard:   deps.Idempotency,
		metrics: deps.Metrics,
		logger:  logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(accessLog(logger, deps.Metrics))
	r.Use(middleware.Recoverer)

	r.Route("/customers", func(r chi.Router) {
		r.Post("/", h.createCustomer)
		r.Get("/{id}", h.getCustomer)
		r.Put("/{id}", h.updateCustomer)
		r.Delete("/{id}", h.deleteCustomer)
	})
	r.Route("/items", func(r chi.Router) {
		r.Post("/", h.createItem)
		r.Get("/{id}", h.getItem)
		r.Put("/{id}", h.updateItem)
		r.Delete("/{id}", h.deleteItem)
	})
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.createOrder)
		r.Get("/{id}", h.getOrder)
		r.Put("/{id}", h.updateOrder)
		r.Delete("/{id}", h.deleteOrder)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Detail: "Not Found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Detail: "Method Not Allowed"})
	})
	return r
}

// fail пишет ошибку клиенту; неожиданные ошибки логируются с исходным текстом.
func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := errorStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.WithError(err).WithField("request_id", middleware.GetReqID(r.Context())).Error("request failed with unexpected error")
	}
	writeJSON(w, status, errorResponse{Detail: detail})
}
