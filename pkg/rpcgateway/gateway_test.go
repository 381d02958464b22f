package rpcgateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"meme-radar/internal/tracker/config"
	"meme-radar/pkg/httpclient"
	"meme-radar/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type rpcRequest struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// jsonRPCServer 按 method 返回固定 result
func jsonRPCServer(t *testing.T, results map[string]string) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		result, ok := results[req.Method]
		if !ok {
			_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":` + string(req.ID) + `,"error":{"code":-32601,"message":"method not found"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":` + string(req.ID) + `,"result":` + result + `}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCallEthereum(t *testing.T) {
	srv := jsonRPCServer(t, map[string]string{"eth_blockNumber": `"0x10"`, "eth_chainId": `"0x1"`})
	g := New(config.QuickNodeConfig{EthereumEndpoint: srv.URL}, zap.NewNop())
	defer g.Close()

	raw, err := g.Call(context.Background(), "ethereum", "eth_chainId", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `"0x1"`, string(raw))

	n, err := g.ProbeEthereum(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 16, n)

	_, err = g.Call(context.Background(), "ethereum", "eth_unknown", nil)
	assert.Error(t, err)
}

func TestCallSolana(t *testing.T) {
	srv := jsonRPCServer(t, map[string]string{"getSlot": `123456`})
	g := New(config.QuickNodeConfig{SolanaEndpoint: srv.URL}, zap.NewNop())
	defer g.Close()

	raw, err := g.Call(context.Background(), "solana", "getSlot", nil)
	require.NoError(t, err)
	assert.Equal(t, "123456", string(raw))

	slot, err := g.ProbeSolana(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 123456, slot)
}

func TestCallUnconfigured(t *testing.T) {
	g := New(config.QuickNodeConfig{}, zap.NewNop())
	_, err := g.Call(context.Background(), "solana", "getSlot", nil)
	assert.ErrorIs(t, err, httpclient.ErrConfig)
	_, err = g.Call(context.Background(), "ethereum", "eth_blockNumber", nil)
	assert.ErrorIs(t, err, httpclient.ErrConfig)
	assert.False(t, g.Configured("ethereum"))
}

func TestCallUnsupportedChain(t *testing.T) {
	g := New(config.QuickNodeConfig{EthereumEndpoint: "http://127.0.0.1:1"}, zap.NewNop())
	_, err := g.Call(context.Background(), "bsc", "eth_blockNumber", nil)
	assert.ErrorIs(t, err, utils.ErrUnsupportedChain)
	assert.NotErrorIs(t, err, httpclient.ErrConfig)
}
