package catalog

import (
	"context"
	"math"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ordersvc/internal/domain"
)

const (
	MessageCustomerCreated = "Customer created successfully."
	MessageCustomerUpdated = "Customer updated successfully."
	MessageCustomerDeleted = "Customer deleted successfully."
	MessageItemCreated     = "Item created successfully."
	MessageItemUpdated     = "Item updated successfully."
	MessageItemDeleted     = "Item deleted successfully."
)

// Service — CRUD клиентов и позиций каталога с проверкой формы данных.
// Уникальность телефона и имени проверяет хранилище.
type Service struct {
	customers domain.CustomerRepository
	items     domain.ItemRepository
	logger    *log.Entry
}

// NewService создаёт сервис каталога.
func NewService(customers domain.CustomerRepository, items domain.ItemRepository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.WithField("component", "catalog")
	}
	return &Service{customers: customers, items: items, logger: logger}
}

func (s *Service) CreateCustomer(ctx context.Context, customer domain.Customer) (int64, error) {
	if err := validateCustomer(customer); err != nil {
		return 0, err
	}
	id, err := s.customers.Create(ctx, customer)
	if err != nil {
		return 0, err
	}
	s.logger.WithField("customer_id", id).Info("customer created")
	return id, nil
}

func (s *Service) GetCustomer(ctx context.Context, id int64) (domain.Customer, error) {
	customer, found, err := s.customers.Get(ctx, id)
	if err != nil {
		return domain.Customer{}, err
	}
	if !found {
		return domain.Customer{}, domain.CustomerNotFound(id)
	}
	return customer, nil
}

func (s *Service) UpdateCustomer(ctx context.Context, customer domain.Customer) error {
	if err := validateCustomer(customer); err != nil {
		return err
	}
	updated, err := s.customers.Update(ctx, customer)
	if err != nil {
		return err
	}
	if !updated {
		return domain.CustomerNotFound(customer.ID)
	}
	return nil
}

func (s *Service) DeleteCustomer(ctx context.Context, id int64) error {
	deleted, err := s.customers.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.CustomerNotFound(id)
	}
	s.logger.WithField("customer_id", id).Info("customer deleted")
	return nil
}

func (s *Service) CreateItem(ctx context.Context, item domain.Item) (int64, error) {
	if err := validateItem(item); err != nil {
		return 0, err
	}
	id, err := s.items.Create(ctx, item)
	if err != nil {
		return 0, err
	}
	s.logger.WithField("item_id", id).Info("item created")
	return id, nil
}

func (s *Service) GetItem(ctx context.Context, id int64) (domain.Item, error) {
	item, found, err := s.items.Get(ctx, id)
	if err != nil {
		return domain.Item{}, err
	}
	if !found {
		return domain.Item{}, domain.ItemNotFoundByID(id)
	}
	return item, nil
}

// UpdateItem меняет имя и цену. Заказы читают цену по live join,
// так что новая цена сразу видна и в уже оформленных заказах.
func (s *Service) UpdateItem(ctx context.Context, item domain.Item) error {
	if err := validateItem(item); err != nil {
		return err
	}
	updated, err := s.items.Update(ctx, item)
	if err != nil {
		return err
	}
	if !updated {
		return domain.ItemNotFoundByID(item.ID)
	}
	return nil
}

func (s *Service) DeleteItem(ctx context.Context, id int64) error {
	deleted, err := s.items.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ItemNotFoundByID(id)
	}
	s.logger.WithField("item_id", id).Info("item deleted")
	return nil
}

func validateCustomer(c domain.Customer) error {
	switch {
	case strings.TrimSpace(c.Name) == "":
		return domain.Invalid("name must not be empty")
	case strings.TrimSpace(c.Phone) == "":
		return domain.Invalid("phone must not be empty")
	}
	return nil
}

func validateItem(it domain.Item) error {
	switch {
	case strings.TrimSpace(it.Name) == "":
		return domain.Invalid("name must not be empty")
	case math.IsNaN(it.Price) || math.IsInf(it.Price, 0):
		return domain.Invalid("price must be a finite number")
	case it.Price < 0:
		return domain.Invalid("price must not be negative")
	}
	return nil
}
