package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestMemory(limit int, window time.Duration) (*Memory, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	m := NewMemory(limit, window)
	m.now = clock.Now
	return m, clock
}

func TestMemory_AllowWithinWindow(t *testing.T) {
	m, _ := newTestMemory(3, time.Minute)
	ctx := context.Background()

	for i, wantRemaining := range []int{2, 1, 0} {
		res, err := m.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, res.Allowed, "hit %d", i+1)
		assert.Equal(t, wantRemaining, res.Remaining)
	}

	res, err := m.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)

	other, _ := m.Allow(ctx, "5.6.7.8")
	assert.True(t, other.Allowed, "keys are limited independently")
}

func TestMemory_WindowResetsLazily(t *testing.T) {
	m, clock := newTestMemory(1, time.Minute)
	ctx := context.Background()

	res, _ := m.Allow(ctx, "k")
	assert.True(t, res.Allowed)
	res, _ = m.Allow(ctx, "k")
	assert.False(t, res.Allowed)

	clock.Advance(time.Minute + time.Second)
	res, _ = m.Allow(ctx, "k")
	assert.True(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
}

func TestMemory_Sweep(t *testing.T) {
	m, clock := newTestMemory(5, time.Minute)
	ctx := context.Background()
	_, _ = m.Allow(ctx, "a")
	clock.Advance(30 * time.Second)
	_, _ = m.Allow(ctx, "b")

	clock.Advance(45 * time.Second)
	assert.Equal(t, 1, m.Sweep(clock.Now()))
	assert.Equal(t, 1, m.Len())
}

func TestMemory_RunStopsWithContext(t *testing.T) {
	m := NewMemory(1, time.Millisecond)
	_, _ = m.Allow(context.Background(), "a")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestMemory_ConcurrentHitsNeverExceedLimit(t *testing.T) {
	m := NewMemory(50, time.Hour)
	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, _ := m.Allow(context.Background(), "same")
			if res.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (Result, error) {
	return Result{}, errors.New("redis: connection refused")
}

func TestMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	byHeader := func(r *http.Request) string { return r.Header.Get("X-Caller") }

	t.Run("rejects over limit", func(t *testing.T) {
		m, _ := newTestMemory(1, time.Minute)
		h := Middleware(m, byHeader, nil)(ok)

		req := httptest.NewRequest(http.MethodPost, "/bookings", nil)
		req.Header.Set("X-Caller", "c1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.JSONEq(t, `{"error":"too many requests"}`, rec.Body.String())
		assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	})

	t.Run("fails open on limiter error", func(t *testing.T) {
		var reported error
		h := Middleware(failingLimiter{}, byHeader, func(_ *http.Request, err error) { reported = err })(ok)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/bookings", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Error(t, reported)
	})
}
