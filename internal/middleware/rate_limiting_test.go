package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/2beens/gymtracker/internal/telemetry/metrics"

	"github.com/go-redis/redis_rate/v9"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

type fakeRateLimiter struct {
	remaining map[string]int
	err       error
}

func (f *fakeRateLimiter) Allow(_ context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	left, ok := f.remaining[key]
	if !ok {
		left = limit.Rate
	}
	if left <= 0 {
		return &redis_rate.Result{Limit: limit, RetryAfter: 30 * time.Second}, nil
	}
	f.remaining[key] = left - 1
	return &redis_rate.Result{Limit: limit, Allowed: 1, Remaining: left - 1}, nil
}

func TestRateLimit(t *testing.T) {
	metricsManager := metrics.NewTestManager()
	limiter := &fakeRateLimiter{remaining: map[string]int{}}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	handler := RateLimit(limiter, "login", 2, metricsManager)(next)

	request := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/a/login", nil)
		req.Header.Set("X-Real-Ip", ip)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, request("10.1.1.1"))
	assert.Equal(t, http.StatusOK, request("10.1.1.1"))
	assert.Equal(t, http.StatusTooManyRequests, request("10.1.1.1"))
	// separate budget per client
	assert.Equal(t, http.StatusOK, request("10.1.1.2"))
	assert.Equal(t, float64(1), testutil.ToFloat64(metricsManager.CounterRateLimitedRequests))
	assert.Contains(t, limiter.remaining, "login:10.1.1.1")

	limiter.err = errors.New("redis down")
	assert.Equal(t, http.StatusInternalServerError, request("10.1.1.3"))
}
