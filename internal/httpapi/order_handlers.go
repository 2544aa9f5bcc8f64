package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/vladislavdragonenkov/ordersvc/internal/domain"
	"github.com/vladislavdragonenkov/ordersvc/internal/service/idempotency"
	"github.com/vladislavdragonenkov/ordersvc/internal/service/orders"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	headerReplayed       = "Idempotent-Replayed"

	createOrderScope = "POST /orders"
)

type orderLineRequest struct {
	Name  *string  `json:"name"`
	Price *float64 `json:"price"`
}

type orderRequest struct {
	CustomerID *int64             `json:"customer_id"`
	Notes      *string            `json:"notes"`
	Items      []orderLineRequest `json:"items"`
}

func (req orderRequest) toCommand() (orders.OrderCommand, error) {
	if req.CustomerID == nil {
		return orders.OrderCommand{}, required("customer_id")
	}
	if req.Items == nil {
		return orders.OrderCommand{}, required("items")
	}

	lines := make([]domain.RequestedLine, 0, len(req.Items))
	for i, item := range req.Items {
		switch {
		case item.Name == nil:
			return orders.OrderCommand{}, required(fmt.Sprintf("items[%d].name", i))
		case item.Price == nil:
			return orders.OrderCommand{}, required(fmt.Sprintf("items[%d].price", i))
		}
		lines = append(lines, domain.RequestedLine{Name: *item.Name, Price: *item.Price})
	}
	return orders.OrderCommand{CustomerID: *req.CustomerID, Notes: req.Notes, Lines: lines}, nil
}

type orderResultResponse struct {
	ID               int64    `json:"id"`
	Message          string   `json:"message"`
	PriceAdjustments []string `json:"price_adjustments,omitempty"`
}

type orderViewResponse struct {
	ID         int64                  `json:"id"`
	CustomerID int64                  `json:"customer_id"`
	Notes      string                 `json:"notes"`
	Timestamp  int64                  `json:"timestamp"`
	Items      []domain.OrderViewItem `json:"items"`
}

func (h *handler) decodeOrder(w http.ResponseWriter, r *http.Request) (orderRequest, error) {
	body, err := readBody(w, r)
	if err != nil {
		return orderRequest{}, err
	}
	var req orderRequest
	if err := decodeJSON(body, &req); err != nil {
		return orderRequest{}, err
	}
	return req, nil
}

func (h *handler) createOrder(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeOrder(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	cmd, err := req.toCommand()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	key := strings.TrimSpace(r.Header.Get(headerIdempotencyKey))
	if key == "" || h.guard == nil {
		resp := h.runCreateOrder(r.Context(), cmd)
		writeRaw(w, resp.Status, resp.Body)
		return
	}

	// Хэш считается по нормализованному запросу: пробелы и порядок полей не влияют.
	canonical, err := json.Marshal(req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	outcome, err := h.guard.Execute(r.Context(), key, idempotency.RequestHash(createOrderScope, canonical), func(ctx context.Context) idempotency.Response {
		return h.runCreateOrder(ctx, cmd)
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if outcome.Replayed {
		h.metrics.RecordReplay()
		w.Header().Set(headerReplayed, "true")
	}
	writeRaw(w, outcome.Status, outcome.Body)
}

// runCreateOrder возвращает готовый ответ, чтобы его можно было сохранить для повторов.
func (h *handler) runCreateOrder(ctx context.Context, cmd orders.OrderCommand) idempotency.Response {
	result, err := h.orders.CreateOrder(ctx, cmd)
	if err != nil {
		status, detail := errorStatus(err)
		if status == http.StatusInternalServerError {
			h.logger.WithError(err).Error("create order failed with unexpected error")
		}
		return encodeResponse(status, errorResponse{Detail: detail})
	}
	return encodeResponse(http.StatusOK, newOrderResultResponse(result))
}

func (h *handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	view, err := h.orders.GetOrder(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	items := view.Items
	if items == nil {
		items = []domain.OrderViewItem{}
	}
	writeJSON(w, http.StatusOK, orderViewResponse{
		ID:         view.ID,
		CustomerID: view.CustomerID,
		Notes:      view.Notes,
		Timestamp:  view.Timestamp,
		Items:      items,
	})
}

func (h *handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	req, err := h.decodeOrder(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	cmd, err := req.toCommand()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	result, err := h.orders.UpdateOrder(r.Context(), id, cmd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderResultResponse(result))
}

func (h *handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.orders.DeleteOrder(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: orders.MessageDeleted})
}

func newOrderResultResponse(result domain.OrderResult) orderResultResponse {
	return orderResultResponse{
		ID:               result.ID,
		Message:          result.Message,
		PriceAdjustments: result.PriceAdjustments,
	}
}
