package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sj-huang/rdkit-m/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts = append([]Option{WithRetryWait(time.Millisecond, 5*time.Millisecond)}, opts...)
	c, err := NewClient(server.URL, opts...)
	require.NoError(t, err)
	return c
}

func writeData(t *testing.T, w http.ResponseWriter, status int, data interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(common.NewSuccessResponse(data)))
}

func writeFailure(w http.ResponseWriter, status int, code, message string) {
	resp := common.NewErrorResponse(code, message, "")
	resp.RequestID = "req-1"
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

type testLogger struct {
	mu    sync.Mutex
	msgs  []string
	count int32
}

func (l *testLogger) Debugf(format string, args ...interface{}) { l.log(format, args...) }
func (l *testLogger) Infof(format string, args ...interface{})  { l.log(format, args...) }
func (l *testLogger) Errorf(format string, args ...interface{}) { l.log(format, args...) }

func (l *testLogger) log(format string, args ...interface{}) {
	atomic.AddInt32(&l.count, 1)
	l.mu.Lock()
	l.msgs = append(l.msgs, fmt.Sprintf(format, args...))
	l.mu.Unlock()
}

// ─────────────────────────────────────────────────────────────────────────────
// Constructor
// ─────────────────────────────────────────────────────────────────────────────

func TestNewClient_Success(t *testing.T) {
	c, err := NewClient("http://api.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "http://api.example.com", c.baseURL)
	assert.Equal(t, 3, c.retryMax)
	assert.Contains(t, c.userAgent, "simmap-go-client/")
	assert.Empty(t, c.token)
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	for _, u := range []string{"", "ftp://invalid", "invalid-url", "://bad"} {
		_, err := NewClient(u)
		assert.ErrorIs(t, err, ErrInvalidConfig, u)
	}
}

func TestClient_SubClients_ConcurrentAccess(t *testing.T) {
	c, err := NewClient("http://localhost")
	require.NoError(t, err)

	var wg sync.WaitGroup
	maps := make([]*MapsClient, 20)
	for i := range maps {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			maps[i] = c.Maps()
		}(i)
	}
	wg.Wait()
	for _, m := range maps {
		assert.Same(t, maps[0], m)
	}
	assert.Same(t, c.Weights(), c.Weights())
	assert.Same(t, c.Jobs(), c.Jobs())
	assert.Same(t, c.References(), c.References())
}

// ─────────────────────────────────────────────────────────────────────────────
// Transport
// ─────────────────────────────────────────────────────────────────────────────

func TestClient_Do_DecodesEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeData(t, w, http.StatusOK, map[string]string{"hello": "world"})
	})
	var out map[string]string
	require.NoError(t, c.get(context.Background(), "/x", &out))
	assert.Equal(t, "world", out["hello"])
}

func TestClient_Do_NilResult(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	assert.NoError(t, c.delete(context.Background(), "/x"))
}

func TestClient_Do_RequestHeaders(t *testing.T) {
	ids := make(chan string, 2)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "custom/1.0", r.Header.Get("User-Agent"))
		ids <- r.Header.Get("X-Request-ID")
		writeData(t, w, http.StatusOK, nil)
	}, WithToken("secret"), WithUserAgent("custom/1.0"))

	require.NoError(t, c.post(context.Background(), "/x", map[string]int{"a": 1}, nil))
	require.NoError(t, c.post(context.Background(), "/x", map[string]int{"a": 1}, nil))
	first, second := <-ids, <-ids
	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}

func TestClient_Do_4xxNoRetry(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeFailure(w, http.StatusNotFound, "SIMMAP_005", "similarity map not found")
	})

	err := c.get(context.Background(), "/x", nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "SIMMAP_005", apiErr.Code)
	assert.Equal(t, "req-1", apiErr.RequestID)
	assert.True(t, apiErr.IsNotFound())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_Do_5xxRetry(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			writeFailure(w, http.StatusServiceUnavailable, "COMMON_008", "service unavailable")
			return
		}
		writeData(t, w, http.StatusOK, map[string]int{"n": 7})
	})

	var out map[string]int
	require.NoError(t, c.get(context.Background(), "/x", &out))
	assert.Equal(t, 7, out["n"])
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_Do_5xxRetryExhausted(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeFailure(w, http.StatusInternalServerError, "COMMON_001", "internal server error")
	}, WithRetryMax(2))

	err := c.get(context.Background(), "/x", nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsServerError())
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_Do_429RetryAfter(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "1")
			writeFailure(w, http.StatusTooManyRequests, "COMMON_007", "too many requests")
			return
		}
		writeData(t, w, http.StatusOK, nil)
	})

	start := time.Now()
	require.NoError(t, c.get(context.Background(), "/x", nil))
	assert.GreaterOrEqual(t, time.Since(start), time.Second)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_Do_NonEnvelopeError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}, WithRetryMax(0))

	err := c.get(context.Background(), "/x", nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "bad gateway", apiErr.Message)
}

func TestClient_Do_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	logger := &testLogger{}
	c, err := NewClient(url, WithRetryMax(1), WithRetryWait(time.Millisecond, time.Millisecond), WithLogger(logger))
	require.NoError(t, err)

	err = c.get(context.Background(), "/x", nil)
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, asAPIError(err, &apiErr))
	assert.Greater(t, atomic.LoadInt32(&logger.count), int32(0))
}

func TestClient_Do_ContextCanceled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeData(t, w, http.StatusOK, nil)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.get(ctx, "/x", nil), context.Canceled)
}

func TestClient_Do_ContextTimeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.get(ctx, "/x", nil), context.DeadlineExceeded)
}

func TestAPIError_Methods(t *testing.T) {
	e := &APIError{StatusCode: 401, Code: "COMMON_003", Message: "unauthorized", Detail: "expired", RequestID: "r"}
	assert.True(t, e.IsUnauthorized())
	assert.False(t, e.IsNotFound())
	assert.False(t, e.IsRateLimited())
	assert.False(t, e.IsServerError())
	assert.Equal(t, "simmap: COMMON_003 (HTTP 401): unauthorized: expired [request_id=r]", e.Error())
	assert.True(t, (&APIError{StatusCode: 429}).IsRateLimited())
}

func asAPIError(err error, target **APIError) bool {
	e, ok := err.(*APIError)
	if ok {
		*target = e
	}
	return ok
}

//Personal.AI order the ending
