package cache

import (
	"context"
	"time"

	"meme-radar/pkg/utils"

	"github.com/bytedance/sonic"
	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	PRICE_CACHE_TTL       = 15 * time.Minute // 本地缓存过期时间
	PRICE_CACHE_REDIS_TTL = time.Hour        // 多实例共享
)

// Price 缓存的 token 价格
type Price struct {
	Value     decimal.Decimal `json:"value"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// PriceCache 本地缓存 + 可选 redis
type PriceCache struct {
	tl         *zap.Logger
	localCache *cache.Cache
	redis      *redis.Client
}

// NewPriceCache rdb 可以为 nil
func NewPriceCache(tl *zap.Logger, rdb *redis.Client) *PriceCache {
	return &PriceCache{
		tl:         tl,
		localCache: cache.New(PRICE_CACHE_TTL, time.Minute),
		redis:      rdb,
	}
}

func (c *PriceCache) Set(ctx context.Context, chain, address string, price Price) {
	key := utils.TokenPriceKey(chain, address)
	c.localCache.Set(key, price, cache.DefaultExpiration)
	if c.redis == nil {
		return
	}
	data, err := sonic.Marshal(price)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, PRICE_CACHE_REDIS_TTL).Err(); err != nil {
		c.tl.Warn("cache price to redis failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *PriceCache) Get(ctx context.Context, chain, address string) (Price, bool) {
	key := utils.TokenPriceKey(chain, address)
	if cached, found := c.localCache.Get(key); found {
		if p, ok := cached.(Price); ok {
			return p, true
		}
	}
	if c.redis == nil {
		return Price{}, false
	}
	raw, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return Price{}, false
	}
	var p Price
	if err := sonic.UnmarshalString(raw, &p); err != nil {
		return Price{}, false
	}
	c.localCache.Set(key, p, cache.DefaultExpiration)
	return p, true
}
