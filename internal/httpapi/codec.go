package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vladislavdragonenkov/ordersvc/internal/domain"
	"github.com/vladislavdragonenkov/ordersvc/internal/service/idempotency"
)

const (
	maxBodyBytes = 1 << 20

	messageInternal = "Internal server error."
)

type errorResponse struct {
	Detail string `json:"detail"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type createdResponse struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

// readBody читает тело целиком: оно нужно и для декодирования, и для хэша идемпотентности.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, domain.Invalid("request body exceeds %d bytes", maxBodyBytes)
		}
		return nil, domain.Invalid("failed to read request body")
	}
	return body, nil
}

func decodeJSON(body []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return domain.Invalid("field '%s' must be %s", typeErr.Field, typeErr.Type)
		}
		return domain.Invalid("malformed JSON body")
	}
	if dec.More() {
		return domain.Invalid("malformed JSON body")
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, domain.Invalid("path parameter 'id' must be an integer")
	}
	return id, nil
}

func required(field string) error {
	return domain.Invalid("field '%s' is required", field)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	resp := encodeResponse(status, payload)
	writeRaw(w, resp.Status, resp.Body)
}

func encodeResponse(status int, payload any) idempotency.Response {
	body, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Detail: messageInternal})
	}
	return idempotency.Response{Status: status, Body: body}
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// errorStatus переводит ошибку в HTTP-статус и сообщение для клиента.
// Текст ошибок хранилища наружу не попадает.
func errorStatus(err error) (int, string) {
	var (
		notFound   *domain.NotFoundError
		constraint *domain.ConstraintViolationError
		invalid    *domain.ValidationError
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound, notFound.Message()
	case errors.As(err, &constraint):
		return http.StatusBadRequest, constraint.Message()
	case errors.As(err, &invalid):
		return http.StatusUnprocessableEntity, fmt.Sprintf("Invalid request: %s.", invalid.Reason)
	case errors.Is(err, idempotency.ErrKeyReused), errors.Is(err, idempotency.ErrInProgress):
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, messageInternal
	}
}
