package birdeye

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"meme-radar/internal/tracker/config"
	"meme-radar/pkg/httpclient"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrUnsuccessful = errors.New("birdeye returned unsuccessful response")

// probeAddress WIF，连通性检查用
const probeAddress = "EKpQGSJtjMFqKZ9KQanSqYXRcF8fBopzLHYxdM65zcjm"

// PriceData /defi/price 返回的 data
type PriceData struct {
	Value           decimal.Decimal `json:"value"`
	UpdateUnixTime  int64           `json:"updateUnixTime"`
	UpdateHumanTime string          `json:"updateHumanTime"`
}

type priceResponse struct {
	Success bool       `json:"success"`
	Data    *PriceData `json:"data"`
}

type Client struct {
	baseURL    string
	apiKey     string
	spacing    time.Duration
	httpClient *httpclient.HTTPClient
	logger     *zap.Logger
}

func NewClient(cfg config.BirdeyeConfig, logger *zap.Logger) *Client {
	httpClient := httpclient.NewHTTPClient(httpclient.HTTPClientConfig{
		Timeout:      time.Duration(cfg.Timeout) * time.Second,
		RateLimit:    cfg.RateLimit,
		MaxRetries:   2,
		APIKey:       cfg.APIKey,
		APIKeyHeader: "X-API-KEY",
	}, logger)

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://public-api.birdeye.so"
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		spacing:    time.Duration(cfg.SpacingMillis) * time.Millisecond,
		httpClient: httpClient,
		logger:     logger.With(zap.String("component", "birdeye")),
	}
}

func (c *Client) Configured() bool {
	return config.IsKeyConfigured(c.apiKey)
}

// Ping 查询一次 WIF 价格确认 key 可用
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.GetTokenPrice(ctx, probeAddress, "solana")
	return err
}

// GetTokenPrice 查询单个 token 的美元价格，chain 为空默认 solana
func (c *Client) GetTokenPrice(ctx context.Context, address, chain string) (*PriceData, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("%w: birdeye api key is missing", httpclient.ErrConfig)
	}
	if chain == "" {
		chain = "solana"
	}

	var resp priceResponse
	err := c.httpClient.Get(ctx, c.baseURL+"/defi/price",
		map[string]string{"address": address},
		map[string]string{"x-chain": chain, "accept": "application/json"},
		&resp,
	)
	if err != nil {
		return nil, fmt.Errorf("get price %s: %w", address, err)
	}
	if !resp.Success || resp.Data == nil {
		return nil, fmt.Errorf("get price %s: %w", address, ErrUnsuccessful)
	}
	return resp.Data, nil
}

// GetMultipleTokenPrices 顺序查询，每次请求间隔 spacing，失败的地址不出现在结果里
func (c *Client) GetMultipleTokenPrices(ctx context.Context, addresses []string, chain string) map[string]*PriceData {
	results := make(map[string]*PriceData, len(addresses))
	for i, addr := range addresses {
		price, err := c.GetTokenPrice(ctx, addr, chain)
		if err != nil {
			c.logger.Warn("price lookup failed", zap.String("address", addr), zap.Error(err))
		} else {
			results[addr] = price
		}
		if i < len(addresses)-1 && c.spacing > 0 {
			select {
			case <-ctx.Done():
				return results
			case <-time.After(c.spacing):
			}
		}
	}
	return results
}
