package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig keeps retries fast and the rate gate wide open.
func testConfig() Config {
	return Config{
		RequestsPerSecond: 1000,
		BurstSize:         10,
		MaxAttempts:       3,
		Timeout:           5 * time.Second,
		BackoffBase:       time.Millisecond,
		BackoffCap:        5 * time.Millisecond,
	}
}

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "scotustician/1.0", r.Header.Get("User-Agent"))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New(testConfig())
	body, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestFetchRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`"recovered"`))
	}))
	defer srv.Close()

	c := New(testConfig())
	body, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, `"recovered"`, string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchExhaustsBudget(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(testConfig())
	_, err := c.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchNon2xxIsRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(testConfig())
	_, err := c.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.Equal(t, int32(3), calls.Load(), "non-2xx responses consume the full attempt budget")
}

func TestFetchHonorsCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.BackoffBase = time.Minute
	cfg.BackoffCap = time.Minute
	c := New(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := c.Fetch(ctx, srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second, "cancellation must interrupt the backoff wait")
}

func TestDefaultsApplied(t *testing.T) {
	c := New(Config{})
	assert.Equal(t, 3, c.maxAttempts)
	assert.Equal(t, time.Second, c.backoffBase)
	assert.Equal(t, 10*time.Second, c.backoffCap)
}
