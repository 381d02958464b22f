package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(key string) *HTTPClient {
	return NewHTTPClient(HTTPClientConfig{
		Timeout:      2 * time.Second,
		APIKey:       key,
		APIKeyHeader: "X-Test-Key",
	}, zap.NewNop())
}

func TestGetDecodesBodyAndSendsKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-Test-Key"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value":42}`))
	}))
	defer srv.Close()

	var out struct {
		Value int `json:"value"`
	}
	err := newTestClient("secret").Get(context.Background(), srv.URL, map[string]string{"limit": "1"}, nil, &out)
	require.NoError(t, err)
	assert.Equal(t, 42, out.Value)
}

func TestErrorStatusMapsToSentinel(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrAuth},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusBadRequest, ErrService},
		{http.StatusBadGateway, ErrService},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(`{"error":"nope"}`))
		}))

		err := newTestClient("").PostJSON(context.Background(), srv.URL, map[string]string{"a": "b"}, nil, nil)
		srv.Close()

		require.Error(t, err)
		assert.ErrorIs(t, err, tc.want)
		var httpErr *HTTPError
		require.True(t, errors.As(err, &httpErr))
		assert.Equal(t, tc.status, httpErr.Code)
		assert.Contains(t, httpErr.Message, "nope")
	}
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(&HTTPError{Code: 503}))
	assert.True(t, IsTransient(&HTTPError{Code: 429}))
	assert.True(t, IsTransient(errors.New("connection reset by peer")))
	assert.False(t, IsTransient(&HTTPError{Code: 401}))
	assert.False(t, IsTransient(&HTTPError{Code: 404}))
	assert.False(t, IsTransient(ErrConfig))
	assert.False(t, IsTransient(context.Canceled))
	assert.False(t, IsTransient(nil))
}
