package remote

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "parkeaya-panel/internal/errors"
)

type waitRecorder struct {
	delays []time.Duration
}

func (w *waitRecorder) wait(ctx context.Context, d time.Duration) error {
	w.delays = append(w.delays, d)
	return ctx.Err()
}

func unavailable() error {
	return apperrors.New(apperrors.KindRemoteUnavailable, "remote backend error (status 503)")
}

func TestRetrySucceedsOnThirdAttempt(t *testing.T) {
	rec := &waitRecorder{}
	r := NewRetrierWithWait(rec.wait)

	calls := 0
	got, err := Retry(context.Background(), r, "list_parkings", func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", unavailable()
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, rec.delays)
}

func TestRetryStopsOnUnauthorized(t *testing.T) {
	rec := &waitRecorder{}
	r := NewRetrierWithWait(rec.wait)

	calls := 0
	err := r.Do(context.Background(), "list_parkings", func(ctx context.Context) error {
		calls++
		return apperrors.NewHTTPError(http.StatusUnauthorized, "token expired")
	})

	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.Equal(t, 1, calls)
	assert.Empty(t, rec.delays)
}

func TestRetryReturnsTerminalErrorsUnchanged(t *testing.T) {
	for _, terminal := range []error{
		apperrors.New(apperrors.KindBadRequest, `{"nombre":["required"]}`),
		apperrors.New(apperrors.KindForbidden, "denied"),
		apperrors.NotFound("missing"),
		errors.New("plain failure"),
	} {
		calls := 0
		err := NewRetrierWithWait((&waitRecorder{}).wait).Do(context.Background(), "op", func(ctx context.Context) error {
			calls++
			return terminal
		})
		assert.Same(t, terminal, err)
		assert.Equal(t, 1, calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	rec := &waitRecorder{}
	r := NewRetrierWithWait(rec.wait)

	calls := 0
	err := r.Do(context.Background(), "create_approval_request", func(ctx context.Context) error {
		calls++
		return unavailable()
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrExhaustedRetries)
	assert.ErrorIs(t, err, apperrors.ErrRemoteUnavailable)
	assert.Equal(t, MaxAttempts, calls)
	assert.Len(t, rec.delays, MaxAttempts-1)

	var he *apperrors.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, MaxAttempts, he.Attempts)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestRetryCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRetrierWithWait(func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	})

	calls := 0
	err := r.Do(ctx, "list_parkings", func(ctx context.Context) error {
		calls++
		return unavailable()
	})

	assert.ErrorIs(t, err, apperrors.ErrCancelled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetryRealTimerHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var calls atomic.Int32
	start := time.Now()
	err := NewRetrier().Do(ctx, "health", func(ctx context.Context) error {
		calls.Add(1)
		return unavailable()
	})

	assert.ErrorIs(t, err, apperrors.ErrCancelled)
	assert.Equal(t, int32(1), calls.Load())
	assert.Less(t, time.Since(start), time.Second)
}

func TestRetryWithClientAgainstFlakyServer(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[{"id":1,"nombre":"Lot A"}]`))
	})
	rec := &waitRecorder{}

	items, err := Retry(context.Background(), NewRetrierWithWait(rec.wait), "list_parkings",
		func(ctx context.Context) (int, error) {
			parkings, err := c.ListParkings(ctx, "tok")
			return len(parkings), err
		})

	require.NoError(t, err)
	assert.Equal(t, 1, items)
	assert.Equal(t, int32(3), hits.Load())
	assert.Len(t, rec.delays, 2)
}
