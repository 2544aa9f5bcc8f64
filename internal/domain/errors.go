package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound — базовая ошибка отсутствующей сущности.
	ErrNotFound = errors.New("not found")
	// ErrConstraintViolation — нарушение уникальности или внешнего ключа в хранилище.
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrValidation — некорректная форма запроса.
	ErrValidation = errors.New("validation failure")
	// ErrIdempotencyKeyRequired — пустой idempotency-key.
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	// ErrIdempotencyRequestHashRequired — пустой хэш запроса.
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	// ErrIdempotencyKeyNotFound возвращается, если записи с таким ключом нет.
	ErrIdempotencyKeyNotFound = errors.New("idempotency key not found")
	// ErrIdempotencyKeyAlreadyExists — ключ уже использован тем же запросом.
	ErrIdempotencyKeyAlreadyExists = errors.New("idempotency key already exists")
	// ErrIdempotencyHashMismatch — ключ уже использован с другим телом запроса.
	ErrIdempotencyHashMismatch = errors.New("idempotency key reused with different payload")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// Entity называет тип сущности в ошибках.
type Entity string

const (
	EntityCustomer Entity = "customer"
	EntityItem     Entity = "item"
	EntityOrder    Entity = "order"
)

// NotFoundError сообщает, что сущность не найдена по идентификатору или имени.
type NotFoundError struct {
	Entity Entity
	ID     int64
	Name   string
}

func (e *NotFoundError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s %q not found", e.Entity, e.Name)
	}
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// Message возвращает текст, который можно показать клиенту.
func (e *NotFoundError) Message() string {
	switch e.Entity {
	case EntityCustomer:
		return "Customer not found."
	case EntityItem:
		if e.Name != "" {
			return fmt.Sprintf("Item '%s' not found.", e.Name)
		}
		return "Item not found."
	case EntityOrder:
		return "Order not found."
	default:
		return "Not found."
	}
}

// CustomerNotFound, ItemNotFound, OrderNotFound — конструкторы для workflow.
func CustomerNotFound(id int64) error { return &NotFoundError{Entity: EntityCustomer, ID: id} }

func ItemNotFound(name string) error { return &NotFoundError{Entity: EntityItem, Name: name} }

func ItemNotFoundByID(id int64) error { return &NotFoundError{Entity: EntityItem, ID: id} }

func OrderNotFound(id int64) error { return &NotFoundError{Entity: EntityOrder, ID: id} }

// ConstraintViolationError — нарушение ограничения, обнаруженное самим хранилищем.
type ConstraintViolationError struct {
	Entity Entity
	Field  string
}

func (e *ConstraintViolationError) Error() string {
	return fmt.Sprintf("%s: constraint violation on %s", e.Entity, e.Field)
}

func (e *ConstraintViolationError) Unwrap() error { return ErrConstraintViolation }

// Message возвращает текст для клиента без деталей хранилища.
func (e *ConstraintViolationError) Message() string {
	switch {
	case e.Entity == EntityCustomer && e.Field == "phone":
		return "Customer with this phone already exists."
	case e.Entity == EntityItem && e.Field == "name":
		return "Item with this name already exists."
	case e.Entity == EntityItem && e.Field == "price":
		return "Item price must not be negative."
	case e.Field == "customer_id":
		return "Customer is referenced by existing orders."
	case e.Field == "item_id":
		return "Item is referenced by existing orders."
	default:
		return "Request conflicts with existing data."
	}
}

// ValidationError — запрос некорректной формы.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "validation failure: " + e.Reason }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid создаёт ValidationError с форматированной причиной.
func Invalid(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsNotFound проверяет, является ли ошибка отсутствием сущности.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConstraintViolation проверяет нарушение ограничений хранилища.
func IsConstraintViolation(err error) bool {
	return errors.Is(err, ErrConstraintViolation)
}

// IsIdempotencyConflict проверяет конфликт idempotency-key.
func IsIdempotencyConflict(err error) bool {
	return errors.Is(err, ErrIdempotencyKeyAlreadyExists) || errors.Is(err, ErrIdempotencyHashMismatch)
}
