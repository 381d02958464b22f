package service

import (
	"context"
	"strings"
	"time"

	"meme-radar/internal/tracker/cache"
	"meme-radar/internal/tracker/dao"
	"meme-radar/internal/tracker/model"
	"meme-radar/pkg/utils"

	"github.com/segmentio/ksuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TokenInput 新增 token 的参数
type TokenInput struct {
	Symbol         string           `json:"symbol"`
	Address        string           `json:"address"`
	Chain          string           `json:"chain"`
	StartTime      string           `json:"startTime"`
	EndTime        string           `json:"endTime"`
	MarketCapLimit *decimal.Decimal `json:"marketCapLimit"`
}

// BackgroundImporter 新 token 写入后触发的后台导入
type BackgroundImporter interface {
	StartBackground(token model.TokenConfig) bool
}

// AddTokenResult ImportStarted 与 token 是否写入成功无关，导入结果见状态面板
type AddTokenResult struct {
	Token         model.TokenConfig `json:"token"`
	ImportStarted bool              `json:"importStarted"`
}

type TokenService struct {
	tokens   dao.TokenDAO
	notifier Notifier
	prices   *cache.PriceCache
	importer BackgroundImporter
	logger   *zap.Logger
}

func NewTokenService(tokens dao.TokenDAO, notifier Notifier, prices *cache.PriceCache, importer BackgroundImporter, logger *zap.Logger) *TokenService {
	return &TokenService{
		tokens:   tokens,
		notifier: notifier,
		prices:   prices,
		importer: importer,
		logger:   logger.With(zap.String("component", "token_service")),
	}
}

// NormalizeTokenInput 校验并规范化输入，时间转成 YYYY-MM-DD HH:MM:SS
func NormalizeTokenInput(in TokenInput) (TokenInput, error) {
	in.Symbol = strings.TrimSpace(in.Symbol)
	in.Address = strings.TrimSpace(in.Address)
	in.Chain = strings.ToLower(strings.TrimSpace(in.Chain))
	if in.Symbol == "" {
		return in, validationError("symbol is required")
	}
	if in.Address == "" {
		return in, validationError("address is required")
	}
	if !utils.IsSupportedChain(in.Chain) {
		return in, validationError("chain must be ethereum or solana")
	}
	if err := utils.ValidateTokenAddress(in.Chain, in.Address); err != nil {
		return in, validationError("%v", err)
	}

	var err error
	if in.StartTime, err = utils.FormatQueryTime(in.StartTime); err != nil {
		return in, validationError("startTime: %v", err)
	}
	if in.EndTime, err = utils.FormatQueryTime(in.EndTime); err != nil {
		return in, validationError("endTime: %v", err)
	}
	if in.StartTime != "" && in.EndTime != "" && in.StartTime >= in.EndTime {
		return in, validationError("startTime must be before endTime")
	}
	if in.MarketCapLimit != nil && !in.MarketCapLimit.IsPositive() {
		return in, validationError("marketCapLimit must be positive")
	}
	if in.StartTime == "" && in.EndTime == "" && in.MarketCapLimit == nil {
		return in, validationError("either a time window or a market cap limit is required")
	}
	return in, nil
}

// AddToken 写入 token，ethereum token 在 Dune 已配置时触发后台导入
func (s *TokenService) AddToken(ctx context.Context, in TokenInput) (*AddTokenResult, error) {
	in, err := NormalizeTokenInput(in)
	if err != nil {
		return nil, err
	}
	token := model.TokenConfig{
		ID:             ksuid.New().String(),
		Symbol:         in.Symbol,
		Address:        in.Address,
		Chain:          in.Chain,
		StartTime:      in.StartTime,
		EndTime:        in.EndTime,
		MarketCapLimit: in.MarketCapLimit,
	}
	if err := s.tokens.Create(ctx, &token); err != nil {
		return nil, err
	}
	s.logger.Info("token added", zap.String("token_id", token.ID), zap.String("symbol", token.Symbol), zap.String("chain", token.Chain))
	s.notifier.Notify(ctx, model.CollectionTokens)

	res := &AddTokenResult{Token: token}
	if s.importer != nil {
		res.ImportStarted = s.importer.StartBackground(token)
	}
	return res, nil
}

func (s *TokenService) GetToken(ctx context.Context, id string) (*model.TokenConfig, error) {
	return s.tokens.GetByID(ctx, id)
}

// ListTokens 按创建时间倒序，附带缓存价格
func (s *TokenService) ListTokens(ctx context.Context) ([]model.TokenView, error) {
	tokens, err := s.tokens.List(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]model.TokenView, 0, len(tokens))
	for _, t := range tokens {
		v := model.TokenView{TokenConfig: t}
		if s.prices != nil {
			if p, ok := s.prices.Get(ctx, t.Chain, t.Address); ok {
				value, at := p.Value, p.UpdatedAt
				v.PriceUSD = &value
				v.PriceUpdatedAt = &at
			}
		}
		views = append(views, v)
	}
	return views, nil
}

// DeleteToken 只删除 token，地址上的 tokenId / relatedTokens 保留
func (s *TokenService) DeleteToken(ctx context.Context, id string) error {
	if err := s.tokens.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("token deleted", zap.String("token_id", id))
	s.notifier.Notify(ctx, model.CollectionTokens)
	return nil
}

func (s *TokenService) UpdateBuyerStats(ctx context.Context, id string, count int, at time.Time) error {
	if count < 0 {
		return validationError("buyer count must not be negative")
	}
	if err := s.tokens.UpdateBuyerStats(ctx, id, count, at); err != nil {
		return err
	}
	s.notifier.Notify(ctx, model.CollectionTokens)
	return nil
}
