package dune

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"meme-radar/internal/tracker/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sleeps = append(f.sleeps, d)
	f.now = f.now.Add(d)
	return nil
}

func testConfig(baseURL string) config.DuneConfig {
	return config.DuneConfig{
		BaseURL:             baseURL,
		APIKey:              "test-key",
		BuyersQueryID:       5233698,
		InitialDelaySeconds: 60,
		PollIntervalSeconds: 20,
		MaxWaitSeconds:      300,
		Timeout:             5,
	}
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *fakeClock) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	return NewClient(testConfig(srv.URL), zap.NewNop(), WithClock(clock.Now, clock.Sleep)), clock
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestSubmitDropsBlankParameters(t *testing.T) {
	var got map[string]interface{}
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/query/5233698/execute", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Dune-API-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusOK, `{"execution_id":"01HEXEC","state":"QUERY_STATE_PENDING"}`)
	}))

	id, err := c.Submit(context.Background(), 5233698, map[string]string{
		"token_address": "abc",
		"start_time":    "  ",
		"end_time":      "",
	})
	require.NoError(t, err)
	assert.Equal(t, "01HEXEC", id)
	assert.Equal(t, map[string]interface{}{
		"query_parameters": map[string]interface{}{"token_address": "abc"},
	}, got)
}

func TestSubmitWithoutParametersSendsEmptyObject(t *testing.T) {
	var body string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		writeJSON(w, http.StatusOK, `{"execution_id":"x"}`)
	}))

	_, err := c.Submit(context.Background(), 1, map[string]string{"a": ""})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, body)
}

func TestSubmitErrors(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrAuth},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusInternalServerError, ErrService},
		{http.StatusBadRequest, ErrService},
	}
	for _, tc := range cases {
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, tc.status, `{"error":"boom"}`)
		}))
		_, err := c.Submit(context.Background(), 1, nil)
		assert.ErrorIs(t, err, tc.want, "status %d", tc.status)
		assert.Contains(t, err.Error(), "boom")
	}
}

func TestSubmitRequiresKey(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	for _, key := range []string{"", config.PlaceholderAPIKey} {
		cfg := testConfig(srv.URL)
		cfg.APIKey = key
		_, err := NewClient(cfg, zap.NewNop()).Submit(context.Background(), 1, nil)
		assert.ErrorIs(t, err, ErrConfig)
	}
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestAwaitResultCompletesAfterPolling(t *testing.T) {
	var checks int32
	c, clock := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/execution/exec-1/results", r.URL.Path)
		if atomic.AddInt32(&checks, 1) <= 2 {
			writeJSON(w, http.StatusOK, `{"state":"QUERY_STATE_EXECUTING","is_execution_finished":false}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"state":"QUERY_STATE_COMPLETED","is_execution_finished":true,
			"result":{"rows":[{"buyer_address":"0x1"},{"buyer_address":"0x2"},{"buyer_address":"0x3"}]}}`)
	}))

	rows, err := c.AwaitResult(context.Background(), "exec-1", 0)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.EqualValues(t, 3, atomic.LoadInt32(&checks))
	assert.Equal(t, []time.Duration{60 * time.Second, 20 * time.Second, 20 * time.Second}, clock.sleeps)
}

func TestAwaitResultFailedIsNotRetried(t *testing.T) {
	var checks int32
	c, clock := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&checks, 1)
		writeJSON(w, http.StatusOK, `{"state":"FAILED","is_execution_finished":true,"error":"bad sql"}`)
	}))

	_, err := c.AwaitResult(context.Background(), "exec-2", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQueryFailed)
	var qerr *QueryFailedError
	require.ErrorAs(t, err, &qerr)
	assert.Contains(t, qerr.Message, "bad sql")
	assert.EqualValues(t, 1, atomic.LoadInt32(&checks))
	assert.Equal(t, []time.Duration{60 * time.Second}, clock.sleeps)
}

func TestAwaitResultFailedObjectMessage(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"state":"QUERY_STATE_FAILED","is_execution_finished":true,"error":{"type":"FAILED_TYPE_EXECUTION_FAILED","message":"column not found"}}`)
	}))

	_, err := c.AwaitResult(context.Background(), "exec-3", 0)
	assert.ErrorIs(t, err, ErrQueryFailed)
	assert.Contains(t, err.Error(), "column not found")
}

func TestAwaitResultTimesOut(t *testing.T) {
	var checks int32
	c, clock := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&checks, 1)
		writeJSON(w, http.StatusOK, `{"state":"QUERY_STATE_EXECUTING","is_execution_finished":false}`)
	}))

	rows, err := c.AwaitResult(context.Background(), "exec-4", 120*time.Second)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Nil(t, rows)
	assert.EqualValues(t, 3, atomic.LoadInt32(&checks))

	var slept time.Duration
	for _, d := range clock.sleeps {
		slept += d
	}
	assert.Less(t, slept, 120*time.Second)
}

func TestAwaitResultShortMaxWaitCapsInitialDelay(t *testing.T) {
	var checks int32
	c, clock := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&checks, 1)
		writeJSON(w, http.StatusOK, `{"state":"QUERY_STATE_EXECUTING","is_execution_finished":false}`)
	}))

	start := clock.Now()
	_, err := c.AwaitResult(context.Background(), "exec-short", 30*time.Second)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.EqualValues(t, 1, atomic.LoadInt32(&checks))
	assert.Equal(t, []time.Duration{30 * time.Second}, clock.sleeps)
	assert.LessOrEqual(t, clock.Now().Sub(start), 30*time.Second)
}

func TestAwaitResultRetriesTransientErrors(t *testing.T) {
	var checks int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&checks, 1) == 1 {
			writeJSON(w, http.StatusBadGateway, `{"error":"upstream"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"state":"COMPLETED","is_execution_finished":true,"result":{"rows":[{"buyer_address":"0x1"}]}}`)
	}))

	rows, err := c.AwaitResult(context.Background(), "exec-5", 0)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.EqualValues(t, 2, atomic.LoadInt32(&checks))
}

func TestAwaitResultAbortsOnAuthError(t *testing.T) {
	var checks int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&checks, 1)
		writeJSON(w, http.StatusUnauthorized, `{"error":"invalid key"}`)
	}))

	_, err := c.AwaitResult(context.Background(), "exec-6", 0)
	assert.ErrorIs(t, err, ErrAuth)
	assert.EqualValues(t, 1, atomic.LoadInt32(&checks))
}

func TestAwaitResultUnexpectedFinishedState(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"state":"QUERY_STATE_CANCELLED","is_execution_finished":true}`)
	}))

	_, err := c.AwaitResult(context.Background(), "exec-7", 0)
	assert.ErrorIs(t, err, ErrService)
}

func TestAwaitResultHonoursCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"state":"EXECUTING"}`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewClient(testConfig(srv.URL), zap.NewNop())
	_, err := c.AwaitResult(ctx, "exec-8", 0)
	assert.ErrorIs(t, err, context.Canceled)
}
