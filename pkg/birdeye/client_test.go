package birdeye

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"meme-radar/internal/tracker/config"
	"meme-radar/pkg/httpclient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const wif = "EKpQGSJtjMFqKZ9KQanSqYXRcF8fBopzLHYxdM65zcjm"

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.BirdeyeConfig{BaseURL: srv.URL, APIKey: "bk", Timeout: 2}, zap.NewNop())
}

func TestGetTokenPrice(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/defi/price", r.URL.Path)
		assert.Equal(t, wif, r.URL.Query().Get("address"))
		assert.Equal(t, "solana", r.Header.Get("x-chain"))
		assert.Equal(t, "bk", r.Header.Get("X-API-KEY"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"value":2.4513,"updateUnixTime":1710000000,"updateHumanTime":"2024-03-09T16:00:00"}}`))
	})

	price, err := c.GetTokenPrice(context.Background(), wif, "")
	require.NoError(t, err)
	assert.Equal(t, "2.4513", price.Value.String())
	assert.EqualValues(t, 1710000000, price.UpdateUnixTime)
}

func TestGetTokenPriceUnsuccessful(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":false}`))
	})

	_, err := c.GetTokenPrice(context.Background(), wif, "solana")
	assert.ErrorIs(t, err, ErrUnsuccessful)
}

func TestGetTokenPriceRequiresKey(t *testing.T) {
	c := NewClient(config.BirdeyeConfig{}, zap.NewNop())
	_, err := c.GetTokenPrice(context.Background(), wif, "solana")
	assert.ErrorIs(t, err, httpclient.ErrConfig)
}

func TestGetMultipleTokenPricesSkipsFailures(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("address") == "bad" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"success":false,"message":"invalid address"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"value":1}}`))
	})

	prices := c.GetMultipleTokenPrices(context.Background(), []string{wif, "bad", "other"}, "solana")
	assert.Len(t, prices, 2)
	assert.Contains(t, prices, wif)
	assert.NotContains(t, prices, "bad")
}

func TestPingUsesWIF(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, wif, r.URL.Query().Get("address"))
		http.Error(w, `{"success":false,"message":"Unauthorized"}`, http.StatusUnauthorized)
	})
	assert.ErrorIs(t, c.Ping(context.Background()), httpclient.ErrAuth)

	placeholder := NewClient(config.BirdeyeConfig{APIKey: config.PlaceholderAPIKey}, zap.NewNop())
	assert.False(t, placeholder.Configured())
}
