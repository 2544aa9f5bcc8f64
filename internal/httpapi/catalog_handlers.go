package httpapi

import (
	"net/http"

	"github.com/vladislavdragonenkov/ordersvc/internal/domain"
	"github.com/vladislavdragonenkov/ordersvc/internal/service/catalog"
)

type customerRequest struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

func (req customerRequest) toDomain(id int64) (domain.Customer, error) {
	switch {
	case req.Name == nil:
		return domain.Customer{}, required("name")
	case req.Phone == nil:
		return domain.Customer{}, required("phone")
	}
	return domain.Customer{ID: id, Name: *req.Name, Phone: *req.Phone}, nil
}

type customerResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type itemRequest struct {
	Name  *string  `json:"name"`
	Price *float64 `json:"price"`
}

func (req itemRequest) toDomain(id int64) (domain.Item, error) {
	switch {
	case req.Name == nil:
		return domain.Item{}, required("name")
	case req.Price == nil:
		return domain.Item{}, required("price")
	}
	return domain.Item{ID: id, Name: *req.Name, Price: *req.Price}, nil
}

type itemResponse struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

func (h *handler) decodeCustomer(w http.ResponseWriter, r *http.Request, id int64) (domain.Customer, error) {
	body, err := readBody(w, r)
	if err != nil {
		return domain.Customer{}, err
	}
	var req customerRequest
	if err := decodeJSON(body, &req); err != nil {
		return domain.Customer{}, err
	}
	return req.toDomain(id)
}

func (h *handler) decodeItem(w http.ResponseWriter, r *http.Request, id int64) (domain.Item, error) {
	body, err := readBody(w, r)
	if err != nil {
		return domain.Item{}, err
	}
	var req itemRequest
	if err := decodeJSON(body, &req); err != nil {
		return domain.Item{}, err
	}
	return req.toDomain(id)
}

func (h *handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	customer, err := h.decodeCustomer(w, r, 0)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	id, err := h.catalog.CreateCustomer(r.Context(), customer)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, createdResponse{ID: id, Message: catalog.MessageCustomerCreated})
}

func (h *handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	customer, err := h.catalog.GetCustomer(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customerResponse{ID: customer.ID, Name: customer.Name, Phone: customer.Phone})
}

func (h *handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	customer, err := h.decodeCustomer(w, r, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.catalog.UpdateCustomer(r.Context(), customer); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: catalog.MessageCustomerUpdated})
}

func (h *handler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.catalog.DeleteCustomer(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: catalog.MessageCustomerDeleted})
}

func (h *handler) createItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.decodeItem(w, r, 0)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	id, err := h.catalog.CreateItem(r.Context(), item)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, createdResponse{ID: id, Message: catalog.MessageItemCreated})
}

func (h *handler) getItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	item, err := h.catalog.GetItem(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itemResponse{ID: item.ID, Name: item.Name, Price: item.Price})
}

func (h *handler) updateItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	item, err := h.decodeItem(w, r, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.catalog.UpdateItem(r.Context(), item); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: catalog.MessageItemUpdated})
}

func (h *handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.catalog.DeleteItem(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: catalog.MessageItemDeleted})
}
