package job

import (
	"context"
	"fmt"
	"time"

	"meme-radar/internal/tracker/cache"
	"meme-radar/internal/tracker/dao"
	"meme-radar/internal/tracker/model"
	"meme-radar/pkg/birdeye"
	"meme-radar/pkg/httpclient"

	"go.uber.org/zap"
)

const PriceRefreshJobName = "token_price_refresh"

// PriceSource birdeye.Client 实现
type PriceSource interface {
	Configured() bool
	GetMultipleTokenPrices(ctx context.Context, addresses []string, chain string) map[string]*birdeye.PriceData
}

type Notifier interface {
	Notify(ctx context.Context, collection string)
}

// PriceRefresh 定时把所有 token 的价格刷新到缓存
type PriceRefresh struct {
	tokens   dao.TokenDAO
	source   PriceSource
	prices   *cache.PriceCache
	notifier Notifier
	tl       *zap.Logger
}

func NewPriceRefresh(tokens dao.TokenDAO, source PriceSource, prices *cache.PriceCache, notifier Notifier, logger *zap.Logger) *PriceRefresh {
	return &PriceRefresh{
		tokens:   tokens,
		source:   source,
		prices:   prices,
		notifier: notifier,
		tl:       logger.With(zap.String("job", PriceRefreshJobName)),
	}
}

// Run 定时任务入口，未配置 key 时跳过
func (j *PriceRefresh) Run(ctx context.Context) error {
	if !j.source.Configured() {
		j.tl.Debug("birdeye api key not configured, skip price refresh")
		return nil
	}
	_, err := j.Refresh(ctx)
	return err
}

// Refresh 立即刷新一次，返回拿到价格的 token 数
func (j *PriceRefresh) Refresh(ctx context.Context) (int, error) {
	if !j.source.Configured() {
		return 0, fmt.Errorf("%w: birdeye api key is missing", httpclient.ErrConfig)
	}
	tokens, err := j.tokens.List(ctx)
	if err != nil {
		return 0, err
	}

	byChain := make(map[string][]string)
	for _, t := range tokens {
		byChain[t.Chain] = append(byChain[t.Chain], t.Address)
	}

	refreshed := 0
	for chain, addrs := range byChain {
		for addr, p := range j.source.GetMultipleTokenPrices(ctx, addrs, chain) {
			j.prices.Set(ctx, chain, addr, cache.Price{Value: p.Value, UpdatedAt: priceTime(p)})
			refreshed++
		}
		if ctx.Err() != nil {
			return refreshed, ctx.Err()
		}
	}

	j.tl.Info("token prices refreshed", zap.Int("tokens", len(tokens)), zap.Int("refreshed", refreshed))
	if refreshed > 0 && j.notifier != nil {
		j.notifier.Notify(ctx, model.CollectionTokens)
	}
	return refreshed, nil
}

func priceTime(p *birdeye.PriceData) time.Time {
	if p.UpdateUnixTime > 0 {
		return time.Unix(p.UpdateUnixTime, 0).UTC()
	}
	return time.Now().UTC()
}
