package rpcgateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"meme-radar/internal/tracker/config"
	"meme-radar/pkg/httpclient"
	"meme-radar/pkg/utils"

	"github.com/ethereum/go-ethereum/ethclient"
	solrpc "github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

const dialTimeout = 5 * time.Second

// Gateway QuickNode JSON-RPC，每条链一个 endpoint，客户端懒加载
type Gateway struct {
	cfg    config.QuickNodeConfig
	logger *zap.Logger

	mu        sync.Mutex
	ethClient *ethclient.Client
	solClient *solrpc.Client
}

func New(cfg config.QuickNodeConfig, logger *zap.Logger) *Gateway {
	return &Gateway{
		cfg:    cfg,
		logger: logger.With(zap.String("component", "rpcgateway")),
	}
}

func (g *Gateway) Endpoint(chain string) string {
	switch chain {
	case utils.ChainEthereum:
		return g.cfg.EthereumEndpoint
	case utils.ChainSolana:
		return g.cfg.SolanaEndpoint
	}
	return ""
}

func (g *Gateway) Configured(chain string) bool {
	return g.Endpoint(chain) != ""
}

func (g *Gateway) ethereum(ctx context.Context) (*ethclient.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ethClient != nil {
		return g.ethClient, nil
	}
	if g.cfg.EthereumEndpoint == "" {
		return nil, fmt.Errorf("%w: quicknode ethereum endpoint is missing", httpclient.ErrConfig)
	}
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	client, err := ethclient.DialContext(dialCtx, g.cfg.EthereumEndpoint)
	if err != nil {
		return nil, fmt.Errorf("dial ethereum endpoint: %w", err)
	}
	g.ethClient = client
	return client, nil
}

func (g *Gateway) solana() (*solrpc.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.solClient != nil {
		return g.solClient, nil
	}
	if g.cfg.SolanaEndpoint == "" {
		return nil, fmt.Errorf("%w: quicknode solana endpoint is missing", httpclient.ErrConfig)
	}
	g.solClient = solrpc.New(g.cfg.SolanaEndpoint)
	return g.solClient, nil
}

// Call 透传一个 JSON-RPC 调用，返回原始 result
func (g *Gateway) Call(ctx context.Context, chain, method string, params []interface{}) (json.RawMessage, error) {
	if params == nil {
		params = []interface{}{}
	}
	var result json.RawMessage
	switch chain {
	case utils.ChainEthereum:
		client, err := g.ethereum(ctx)
		if err != nil {
			return nil, err
		}
		if err := client.Client().CallContext(ctx, &result, method, params...); err != nil {
			return nil, fmt.Errorf("ethereum %s: %w", method, err)
		}
	case utils.ChainSolana:
		client, err := g.solana()
		if err != nil {
			return nil, err
		}
		if err := client.RPCCallForInto(ctx, &result, method, params); err != nil {
			return nil, fmt.Errorf("solana %s: %w", method, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", utils.ErrUnsupportedChain, chain)
	}
	g.logger.Debug("rpc call", zap.String("chain", chain), zap.String("method", method), zap.Int("result_bytes", len(result)))
	return result, nil
}

// ProbeSolana getSlot
func (g *Gateway) ProbeSolana(ctx context.Context) (uint64, error) {
	client, err := g.solana()
	if err != nil {
		return 0, err
	}
	return client.GetSlot(ctx, solrpc.CommitmentFinalized)
}

// ProbeEthereum eth_blockNumber
func (g *Gateway) ProbeEthereum(ctx context.Context) (uint64, error) {
	client, err := g.ethereum(ctx)
	if err != nil {
		return 0, err
	}
	return client.BlockNumber(ctx)
}

func (g *Gateway) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ethClient != nil {
		g.ethClient.Close()
		g.ethClient = nil
	}
	if g.solClient != nil {
		_ = g.solClient.Close()
		g.solClient = nil
	}
}
