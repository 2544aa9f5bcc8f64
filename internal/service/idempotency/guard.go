package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ordersvc/internal/domain"
)

const (
	// DefaultTTL — срок хранения ответа на запрос с Idempotency-Key.
	DefaultTTL = 24 * time.Hour

	storeTimeout = 5 * time.Second
)

var (
	// ErrKeyReused — ключ уже использован с другим телом запроса.
	ErrKeyReused = errors.New("idempotency key is already used with different request payload")
	// ErrInProgress — запрос с тем же ключом ещё обрабатывается.
	ErrInProgress = errors.New("request with the same idempotency key is already processing")
)

// Response — сохранённый HTTP-ответ.
type Response struct {
	Status int
	Body   []byte
}

// Outcome — результат Execute.
type Outcome struct {
	Response
	// Replayed выставляется, когда ответ взят из хранилища, а handler не вызывался.
	Replayed bool
}

// GuardOption настраивает Guard.
type GuardOption func(*Guard)

// WithTTL задаёт срок жизни записи.
func WithTTL(ttl time.Duration) GuardOption {
	return func(g *Guard) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

// WithGuardClock подменяет источник текущего времени.
func WithGuardClock(now func() time.Time) GuardOption {
	return func(g *Guard) {
		if now != nil {
			g.now = now
		}
	}
}

// WithGuardLogger задаёт logger.
func WithGuardLogger(logger *log.Entry) GuardOption {
	return func(g *Guard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// Guard выполняет обработчик не более одного раза на ключ и
// воспроизводит сохранённый ответ на повторы.
type Guard struct {
	repo   domain.IdempotencyRepository
	ttl    time.Duration
	now    func() time.Time
	logger *log.Entry
}

// NewGuard создаёт Guard поверх хранилища ключей.
func NewGuard(repo domain.IdempotencyRepository, opts ...GuardOption) *Guard {
	g := &Guard{
		repo:   repo,
		ttl:    DefaultTTL,
		now:    func() time.Time { return time.Now().UTC() },
		logger: log.WithField("component", "idempotency"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// RequestHash связывает ключ с конкретным запросом: scope (метод и маршрут) плюс тело.
func RequestHash(scope string, body []byte) string {
	sum := sha256.New()
	sum.Write([]byte(scope))
	sum.Write([]byte{0})
	sum.Write(body)
	return hex.EncodeToString(sum.Sum(nil))
}

// Execute запускает handler под ключом key. Повтор с тем же хэшем
// возвращает сохранённый ответ, с другим хэшем ErrKeyReused,
// во время обработки ErrInProgress. Запись с истёкшим TTL считается отсутствующей.
func (g *Guard) Execute(ctx context.Context, key, requestHash string, handler func(ctx context.Context) Response) (Outcome, error) {
	key = strings.TrimSpace(key)

	record, err := g.create(ctx, key, requestHash)
	if err != nil {
		return g.replay(err, record)
	}

	resp := handler(ctx)

	// Ответ сохраняется и после отключения клиента, иначе ключ навсегда
	// останется в processing.
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()

	store := g.repo.MarkDone
	if resp.Status >= http.StatusBadRequest {
		store = g.repo.MarkFailed
	}
	if err := store(storeCtx, key, resp.Body, resp.Status); err != nil {
		g.logger.WithError(err).WithField("idempotency_key", key).Warn("failed to store idempotent response")
	}
	return Outcome{Response: resp}, nil
}

func (g *Guard) create(ctx context.Context, key, requestHash string) (domain.IdempotencyRecord, error) {
	now := g.now()
	record, err := g.repo.CreateProcessing(ctx, key, requestHash, now.Add(g.ttl))
	if err == nil || !domain.IsIdempotencyConflict(err) || !record.Expired(now) {
		return record, err
	}

	// Уборщик ещё не дошёл до записи: удаляем просроченные и пробуем один раз заново.
	if _, delErr := g.repo.DeleteExpired(ctx, now, 0); delErr != nil {
		return record, fmt.Errorf("delete expired idempotency records: %w", delErr)
	}
	return g.repo.CreateProcessing(ctx, key, requestHash, now.Add(g.ttl))
}

func (g *Guard) replay(createErr error, record domain.IdempotencyRecord) (Outcome, error) {
	switch {
	case errors.Is(createErr, domain.ErrIdempotencyHashMismatch):
		return Outcome{}, ErrKeyReused
	case errors.Is(createErr, domain.ErrIdempotencyKeyAlreadyExists):
		if !record.Status.Finished() {
			return Outcome{}, ErrInProgress
		}
		status := record.HTTPStatus
		if status == 0 {
			status = http.StatusOK
		}
		return Outcome{Response: Response{Status: status, Body: record.ResponseBody}, Replayed: true}, nil
	default:
		return Outcome{}, fmt.Errorf("create idempotency record: %w", createErr)
	}
}
