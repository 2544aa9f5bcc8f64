package idempotency

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/ordersvc/internal/domain"
	"github.com/vladislavdragonenkov/ordersvc/internal/storage/memory"
)

func TestRequestHash(t *testing.T) {
	t.Parallel()

	a := RequestHash("POST /orders", []byte(`{"customer_id":1}`))
	assert.Equal(t, a, RequestHash("POST /orders", []byte(`{"customer_id":1}`)))
	assert.NotEqual(t, a, RequestHash("POST /orders", []byte(`{"customer_id":2}`)))
	assert.NotEqual(t, a, RequestHash("PUT /orders", []byte(`{"customer_id":1}`)))
	assert.Len(t, a, 64)
}

func TestGuard_ReplaysFinishedResponse(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.NewIdempotencyRepository()
	guard := NewGuard(repo)
	hash := RequestHash("POST /orders", []byte("body"))

	calls := 0
	handler := func(context.Context) Response {
		calls++
		return Response{Status: http.StatusOK, Body: []byte(`{"id":7}`)}
	}

	first, err := guard.Execute(ctx, "key-1", hash, handler)
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	second, err := guard.Execute(ctx, "key-1", hash, handler)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, http.StatusOK, second.Status)
	assert.JSONEq(t, `{"id":7}`, string(second.Body))
	assert.Equal(t, 1, calls)

	record, err := repo.Get(ctx, "key-1")
	require.NoError(t, err)
	assert.Equal(t, domain.IdempotencyStatusDone, record.Status)
}

func TestGuard_StoresFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.NewIdempotencyRepository()
	guard := NewGuard(repo)

	_, err := guard.Execute(ctx, "key-2", "hash", func(context.Context) Response {
		return Response{Status: http.StatusNotFound, Body: []byte(`{"detail":"Customer not found."}`)}
	})
	require.NoError(t, err)

	record, err := repo.Get(ctx, "key-2")
	require.NoError(t, err)
	assert.Equal(t, domain.IdempotencyStatusFailed, record.Status)

	replayed, err := guard.Execute(ctx, "key-2", "hash", func(context.Context) Response {
		t.Fatal("handler must not run on replay")
		return Response{}
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, replayed.Status)
}

func TestGuard_Conflicts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.NewIdempotencyRepository()
	guard := NewGuard(repo)

	_, err := repo.CreateProcessing(ctx, "busy", "hash", time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = guard.Execute(ctx, "busy", "hash", nil)
	require.ErrorIs(t, err, ErrInProgress)

	_, err = guard.Execute(ctx, "busy", "other-hash", nil)
	require.ErrorIs(t, err, ErrKeyReused)
}

func TestGuard_TTL(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.NewIdempotencyRepository()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	guard := NewGuard(repo, WithTTL(time.Hour), WithGuardClock(func() time.Time { return now }))

	_, err := guard.Execute(ctx, "ttl", "hash", func(context.Context) Response {
		return Response{Status: http.StatusOK}
	})
	require.NoError(t, err)

	record, err := repo.Get(ctx, "ttl")
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), record.TTLAt)
}

// ctxBoundRepository отказывает в записи по отменённому контексту, как это делает ExecContext.
type ctxBoundRepository struct {
	*memory.IdempotencyRepository
}

func (r ctxBoundRepository) MarkDone(ctx context.Context, key string, body []byte, status int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.IdempotencyRepository.MarkDone(ctx, key, body, status)
}

func TestGuard_StoresResponseAfterClientDisconnect(t *testing.T) {
	t.Parallel()

	repo := ctxBoundRepository{IdempotencyRepository: memory.NewIdempotencyRepository()}
	guard := NewGuard(repo)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := guard.Execute(ctx, "gone", "hash", func(context.Context) Response {
		cancel()
		return Response{Status: http.StatusCreated, Body: []byte(`{"id":1}`)}
	})
	require.NoError(t, err)

	retry, err := guard.Execute(context.Background(), "gone", "hash", func(context.Context) Response {
		t.Fatal("handler must not run on replay")
		return Response{}
	})
	require.NoError(t, err)
	assert.True(t, retry.Replayed)
	assert.Equal(t, http.StatusCreated, retry.Status)
	assert.JSONEq(t, `{"id":1}`, string(retry.Body))
}

func TestGuard_ExpiredRecordIsTreatedAsAbsent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.NewIdempotencyRepository()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	guard := NewGuard(repo, WithTTL(time.Hour), WithGuardClock(func() time.Time { return now }))

	_, err := guard.Execute(ctx, "old", "hash", func(context.Context) Response {
		return Response{Status: http.StatusOK, Body: []byte(`{"id":1}`)}
	})
	require.NoError(t, err)
	_, err = repo.CreateProcessing(ctx, "stuck", "hash", now.Add(time.Minute))
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)

	calls := 0
	handler := func(context.Context) Response {
		calls++
		return Response{Status: http.StatusOK, Body: []byte(`{"id":2}`)}
	}

	fresh, err := guard.Execute(ctx, "old", "other-hash", handler)
	require.NoError(t, err)
	assert.False(t, fresh.Replayed)
	assert.JSONEq(t, `{"id":2}`, string(fresh.Body))

	unstuck, err := guard.Execute(ctx, "stuck", "hash", handler)
	require.NoError(t, err)
	assert.False(t, unstuck.Replayed)
	assert.Equal(t, 2, calls)

	record, err := repo.Get(ctx, "old")
	require.NoError(t, err)
	assert.Equal(t, "other-hash", record.RequestHash)
	assert.Equal(t, now.Add(time.Hour), record.TTLAt)
}
