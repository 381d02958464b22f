package service

import (
	"context"
	"slices"
	"sync"
	"time"

	"meme-radar/internal/tracker/dao"
	"meme-radar/internal/tracker/model"
	"meme-radar/pkg/utils"

	"github.com/bytedance/sonic"
	"github.com/lib/pq"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"
)

// LegacyBlob 浏览器本地存储的导出格式
type LegacyBlob struct {
	Tokens             []model.TokenConfig      `json:"tokens"`
	PromisingAddresses []model.PromisingAddress `json:"promisingAddresses"`
	ExportedAt         time.Time                `json:"exportedAt"`
}

// legacyWallet 旧版 store 里的 wallets
type legacyWallet struct {
	ID            string   `json:"id"`
	Address       string   `json:"address"`
	TokenID       string   `json:"tokenId"`
	PurchaseTime  string   `json:"purchaseTime"`
	RelatedTokens []string `json:"relatedTokens"`
	IsPromising   *bool    `json:"isPromising"`
	BlockNumber   *int64   `json:"blockNumber"`
	TxHash        string   `json:"txHash"`
}

type legacyConfig struct {
	Tokens  []model.TokenConfig `json:"tokens"`
	Wallets []legacyWallet      `json:"wallets"`
}

type blobEnvelope struct {
	LegacyBlob
	Wallets []legacyWallet `json:"wallets"` // exportConfig 直接导出 config，没有外层
	Config  *legacyConfig  `json:"config"`
	State  *struct {
		Config *legacyConfig `json:"config"`
	} `json:"state"` // persist 中间件包了一层 {state, version}
}

// ParseLegacyBlob 解析导出的 blob，兼容旧版 {config:{tokens,wallets}} 结构
func ParseLegacyBlob(data []byte) (*LegacyBlob, error) {
	var env blobEnvelope
	if err := sonic.Unmarshal(data, &env); err != nil {
		return nil, validationError("invalid blob: %v", err)
	}
	blob := env.LegacyBlob
	for _, w := range env.Wallets {
		blob.PromisingAddresses = append(blob.PromisingAddresses, w.toAddress())
	}
	cfg := env.Config
	if cfg == nil && env.State != nil {
		cfg = env.State.Config
	}
	if cfg != nil {
		blob.Tokens = append(blob.Tokens, cfg.Tokens...)
		for _, w := range cfg.Wallets {
			blob.PromisingAddresses = append(blob.PromisingAddresses, w.toAddress())
		}
	}
	return &blob, nil
}

func (w legacyWallet) toAddress() model.PromisingAddress {
	marked := false
	if w.IsPromising != nil {
		marked = *w.IsPromising
	}
	return model.PromisingAddress{
		ID:                w.ID,
		Address:           w.Address,
		TokenID:           w.TokenID,
		PurchaseTime:      w.PurchaseTime,
		BlockNumber:       w.BlockNumber,
		TxHash:            w.TxHash,
		RelatedTokens:     pq.StringArray(w.RelatedTokens),
		IsMarkedPromising: marked,
	}
}

// PortabilityResult 导入统计
type PortabilityResult struct {
	Tokens           int `json:"tokens"`
	TokensSkipped    int `json:"tokensSkipped"`
	AddressesCreated int `json:"addressesCreated"`
	AddressesUpdated int `json:"addressesUpdated"`
	AddressesSkipped int `json:"addressesSkipped"`
}

type PortabilityService struct {
	tokens    dao.TokenDAO
	addrs     dao.AddressDAO
	notifier  Notifier
	writeLock *sync.Mutex
	batchSize int
	logger    *zap.Logger
}

func NewPortabilityService(tokens dao.TokenDAO, addrs dao.AddressDAO, notifier Notifier, writeLock *sync.Mutex, batchSize int, logger *zap.Logger) *PortabilityService {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &PortabilityService{
		tokens:    tokens,
		addrs:     addrs,
		notifier:  notifier,
		writeLock: writeLock,
		batchSize: batchSize,
		logger:    logger.With(zap.String("component", "portability")),
	}
}

func (s *PortabilityService) Export(ctx context.Context) (*LegacyBlob, error) {
	tokens, err := s.tokens.List(ctx)
	if err != nil {
		return nil, err
	}
	addrs, err := s.addrs.List(ctx)
	if err != nil {
		return nil, err
	}
	return &LegacyBlob{Tokens: tokens, PromisingAddresses: addrs, ExportedAt: time.Now().UTC()}, nil
}

// ExportJSON 带缩进，方便人看
func (s *PortabilityService) ExportJSON(ctx context.Context) ([]byte, error) {
	blob, err := s.Export(ctx)
	if err != nil {
		return nil, err
	}
	return sonic.ConfigStd.MarshalIndent(blob, "", "  ")
}

// Import token 按 id upsert；地址按 AddressKey 去重，已存在的合并 relatedTokens
func (s *PortabilityService) Import(ctx context.Context, blob *LegacyBlob) (*PortabilityResult, error) {
	res := &PortabilityResult{}
	for i := range blob.Tokens {
		t, err := normalizeImportedToken(blob.Tokens[i])
		if err != nil {
			s.logger.Warn("skip invalid token", zap.String("token_id", blob.Tokens[i].ID), zap.String("symbol", blob.Tokens[i].Symbol), zap.Error(err))
			res.TokensSkipped++
			continue
		}
		if err := s.tokens.Upsert(ctx, &t); err != nil {
			return res, err
		}
		res.Tokens++
	}

	s.writeLock.Lock()
	defer s.writeLock.Unlock()

	existing, err := s.addrs.List(ctx)
	if err != nil {
		return res, err
	}
	index := make(map[string]*model.PromisingAddress, len(existing))
	changed := make(map[string]bool)
	for i := range existing {
		index[existing[i].AddressKey] = &existing[i]
	}
	usedIDs := make(map[string]bool, len(existing))
	for _, e := range existing {
		usedIDs[e.ID] = true
	}

	var created []*model.PromisingAddress
	for _, in := range blob.PromisingAddresses {
		key := utils.AddressKey(in.Address)
		if key == "" {
			res.AddressesSkipped++
			continue
		}
		incoming := append([]string{in.TokenID}, in.RelatedTokens...)
		if cur, ok := index[key]; ok {
			if addRelated(cur, incoming) {
				changed[cur.ID] = true
			}
			continue
		}
		rec := in.Clone()
		rec.AddressKey = key
		if rec.ID == "" || usedIDs[rec.ID] {
			rec.ID = ksuid.New().String()
		}
		rec.RelatedTokens = pq.StringArray{}
		addRelated(&rec, in.RelatedTokens)
		rec.CreatedAt, rec.UpdatedAt = time.Time{}, time.Time{}
		usedIDs[rec.ID] = true
		index[key] = &rec
		created = append(created, &rec)
	}

	if len(created) > 0 {
		batch := make([]model.PromisingAddress, len(created))
		for i, rec := range created {
			batch[i] = *rec
		}
		n, err := s.addrs.CreateBatch(ctx, batch, s.batchSize)
		res.AddressesCreated = n
		if err != nil {
			return res, err
		}
	}
	for i := range existing {
		rec := &existing[i]
		if !changed[rec.ID] {
			continue
		}
		if err := s.addrs.UpdateRelatedTokens(ctx, rec.ID, rec.RelatedTokens); err != nil {
			return res, err
		}
		res.AddressesUpdated++
	}

	s.logger.Info("legacy blob imported",
		zap.Int("tokens", res.Tokens),
		zap.Int("tokens_skipped", res.TokensSkipped),
		zap.Int("created", res.AddressesCreated),
		zap.Int("updated", res.AddressesUpdated),
		zap.Int("skipped", res.AddressesSkipped),
	)
	s.notifier.Notify(ctx, model.CollectionTokens)
	s.notifier.Notify(ctx, model.CollectionAddresses)
	return res, nil
}

// normalizeImportedToken 与新增 token 走同一套校验，id 为空时生成
func normalizeImportedToken(t model.TokenConfig) (model.TokenConfig, error) {
	in, err := NormalizeTokenInput(TokenInput{
		Symbol:         t.Symbol,
		Address:        t.Address,
		Chain:          t.Chain,
		StartTime:      t.StartTime,
		EndTime:        t.EndTime,
		MarketCapLimit: t.MarketCapLimit,
	})
	if err != nil {
		return t, err
	}
	t.Symbol, t.Address, t.Chain = in.Symbol, in.Address, in.Chain
	t.StartTime, t.EndTime, t.MarketCapLimit = in.StartTime, in.EndTime, in.MarketCapLimit
	if t.ID == "" {
		t.ID = ksuid.New().String()
	}
	return t, nil
}

// addRelated 追加 relatedTokens，跳过空值、来源 token 和已有项
func addRelated(rec *model.PromisingAddress, tokenIDs []string) bool {
	changed := false
	for _, id := range tokenIDs {
		if id == "" || id == rec.TokenID || slices.Contains(rec.RelatedTokens, id) {
			continue
		}
		rec.RelatedTokens = append(rec.RelatedTokens, id)
		changed = true
	}
	return changed
}
