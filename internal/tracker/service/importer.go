package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"meme-radar/internal/tracker/cache"
	"meme-radar/internal/tracker/dao"
	"meme-radar/internal/tracker/model"
	"meme-radar/internal/tracker/monitor"
	"meme-radar/pkg/dune"
	"meme-radar/pkg/utils"

	"github.com/cenkalti/backoff/v4"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

const (
	defaultBatchSize     = 50
	defaultMaxWrites     = 10000
	defaultImportTimeout = 10 * time.Minute
	persistRetries       = 3
	persistRetryInterval = 200 * time.Millisecond
)

// BuyerSource 早期买家数据源，*dune.Client 满足
type BuyerSource interface {
	Configured() bool
	GetEthereumTokenBuyers(ctx context.Context, tokenAddress, startTime, endTime string) (*dune.BuyersResult, error)
}

// EventSink 导入事件投递，*writer.AsyncBatchWriter[model.ImportEvent] 满足
type EventSink interface {
	Submit(event model.ImportEvent)
}

// Notifier 集合变更通知，*notify.Hub 满足
type Notifier interface {
	Notify(ctx context.Context, collection string)
}

type ImportOptions struct {
	BatchSize int
	MaxWrites int
	Timeout   time.Duration // 后台导入的超时
}

// ImportResult 一次导入的统计
type ImportResult struct {
	TokenID string `json:"tokenId"`
	Fetched int    `json:"fetched"`
	Skipped int    `json:"skipped"`
	Created int    `json:"created"`
	Updated int    `json:"updated"`
}

// Importer 拉取买家并合并进地址集合
// 合并到写入之间持有 writeLock，多个导入串行执行
type Importer struct {
	source    BuyerSource
	tokens    dao.TokenDAO
	addrs     dao.AddressDAO
	notifier  Notifier
	board     *cache.ImportStatusBoard
	events    EventSink
	opts      ImportOptions
	writeLock *sync.Mutex
	logger    *zap.Logger

	wg  conc.WaitGroup
	now func() time.Time
}

func NewImporter(source BuyerSource, tokens dao.TokenDAO, addrs dao.AddressDAO, notifier Notifier,
	board *cache.ImportStatusBoard, events EventSink, writeLock *sync.Mutex, opts ImportOptions, logger *zap.Logger) *Importer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.MaxWrites <= 0 {
		opts.MaxWrites = defaultMaxWrites
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultImportTimeout
	}
	return &Importer{
		source:    source,
		tokens:    tokens,
		addrs:     addrs,
		notifier:  notifier,
		board:     board,
		events:    events,
		opts:      opts,
		writeLock: writeLock,
		logger:    logger.With(zap.String("component", "importer")),
		now:       time.Now,
	}
}

// ImportTokenBuyers 手动导入，token 必须是 ethereum 且设置了完整的时间窗口
func (im *Importer) ImportTokenBuyers(ctx context.Context, tokenID string) (*ImportResult, error) {
	token, err := im.tokens.GetByID(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	if token.StartTime == "" || token.EndTime == "" {
		return nil, validationError("token %s has no start/end time window", token.Symbol)
	}
	return im.run(ctx, *token)
}

// ImportTokenBuyersAsync 校验同 ImportTokenBuyers，通过后转后台执行，结果见状态面板
func (im *Importer) ImportTokenBuyersAsync(ctx context.Context, tokenID string) error {
	token, err := im.tokens.GetByID(ctx, tokenID)
	if err != nil {
		return err
	}
	if token.StartTime == "" || token.EndTime == "" {
		return validationError("token %s has no start/end time window", token.Symbol)
	}
	if token.Chain != utils.ChainEthereum {
		return validationError("buyer import supports ethereum tokens only, got %s", token.Chain)
	}
	if !im.StartBackground(*token) {
		return fmt.Errorf("%w: dune api key not configured", dune.ErrConfig)
	}
	return nil
}

// StartBackground 新增 token 后的后台导入，窗口缺失时用默认范围
// 返回 false 表示没有启动（非 ethereum 或 Dune 未配置）
func (im *Importer) StartBackground(token model.TokenConfig) bool {
	if token.Chain != utils.ChainEthereum || !im.source.Configured() {
		return false
	}
	im.wg.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), im.opts.Timeout)
		defer cancel()
		if _, err := im.run(ctx, token); err != nil {
			im.logger.Warn("background import failed", zap.String("token_id", token.ID), zap.String("symbol", token.Symbol), zap.Error(err))
		}
	})
	return true
}

// Status 最近一次导入状态
func (im *Importer) Status(tokenID string) (model.ImportStatus, bool) {
	return im.board.Get(tokenID)
}

// Wait 等待后台导入结束
func (im *Importer) Wait() {
	im.wg.Wait()
}

func (im *Importer) run(ctx context.Context, token model.TokenConfig) (*ImportResult, error) {
	if token.Chain != utils.ChainEthereum {
		return nil, validationError("buyer import supports ethereum tokens only, got %s", token.Chain)
	}
	started := im.now()
	status := model.ImportStatus{TokenID: token.ID, State: model.ImportRunning, StartedAt: started}
	im.board.Set(status)
	log := im.logger.With(zap.String("token_id", token.ID), zap.String("symbol", token.Symbol))
	log.Info("buyer import started", zap.String("start", token.StartTime), zap.String("end", token.EndTime))

	result, err := im.fetchAndMerge(ctx, token)

	status.EndedAt = im.now()
	label := "ok"
	if err != nil {
		label = "error"
		status.State = model.ImportFailed
		status.Message = err.Error()
	} else {
		status.State = model.ImportSucceeded
	}
	if result != nil {
		status.Fetched, status.Skipped, status.Created, status.Updated = result.Fetched, result.Skipped, result.Created, result.Updated
	}
	im.board.Set(status)
	monitor.ImportDuration.WithLabelValues(label).Observe(status.EndedAt.Sub(started).Seconds())
	im.emit(token, status, err)

	if err != nil {
		log.Warn("buyer import failed", zap.Error(err))
		return nil, err
	}
	log.Info("buyer import finished",
		zap.Int("fetched", result.Fetched),
		zap.Int("skipped", result.Skipped),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
	)
	return result, nil
}

func (im *Importer) fetchAndMerge(ctx context.Context, token model.TokenConfig) (*ImportResult, error) {
	fetched, err := im.source.GetEthereumTokenBuyers(ctx, token.Address, token.StartTime, token.EndTime)
	if err != nil {
		return nil, err
	}
	result := &ImportResult{TokenID: token.ID, Fetched: len(fetched.Buyers), Skipped: fetched.Skipped}

	im.writeLock.Lock()
	defer im.writeLock.Unlock()

	existing, err := im.addrs.List(ctx)
	if err != nil {
		return result, fmt.Errorf("list addresses: %w", err)
	}
	merged := Merge(existing, fetched.Buyers, token.ID, token.Symbol)
	created, updated := Diff(existing, merged)

	if len(created) > im.opts.MaxWrites {
		im.logger.Warn("import exceeds write cap, truncating",
			zap.String("token_id", token.ID), zap.Int("created", len(created)), zap.Int("cap", im.opts.MaxWrites))
		created = created[:im.opts.MaxWrites]
	}

	if len(created) > 0 {
		inserted := 0
		err := im.retry(ctx, "create addresses", func() error {
			n, err := im.addrs.CreateBatch(ctx, created, im.opts.BatchSize)
			inserted += n
			return err
		})
		result.Created = inserted
		monitor.ImportAddresses.WithLabelValues("created").Add(float64(inserted))
		if err != nil {
			return result, err
		}
	}
	for _, rec := range updated {
		err := im.retry(ctx, "update related tokens", func() error {
			return im.addrs.UpdateRelatedTokens(ctx, rec.ID, rec.RelatedTokens)
		})
		if err != nil {
			return result, err
		}
		result.Updated++
	}
	monitor.ImportAddresses.WithLabelValues("updated").Add(float64(result.Updated))

	if err := im.tokens.UpdateBuyerStats(ctx, token.ID, result.Fetched, im.now()); err != nil && !errors.Is(err, dao.ErrNotFound) {
		im.logger.Warn("update buyer stats failed", zap.String("token_id", token.ID), zap.Error(err))
	}
	im.notifier.Notify(ctx, model.CollectionAddresses)
	im.notifier.Notify(ctx, model.CollectionTokens)
	return result, nil
}

// retry 存储写入失败时固定间隔重试，参数错误不重试
func (im *Importer) retry(ctx context.Context, what string, op func() error) error {
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(persistRetryInterval), persistRetries), ctx)
	return backoff.RetryNotify(func() error {
		err := op()
		if errors.Is(err, dao.ErrInvalidInput) || errors.Is(err, dao.ErrNotFound) {
			return backoff.Permanent(err)
		}
		return err
	}, b, func(err error, next time.Duration) {
		im.logger.Warn(what+" failed, retrying", zap.Duration("next", next), zap.Error(err))
	})
}

func (im *Importer) emit(token model.TokenConfig, status model.ImportStatus, err error) {
	if im.events == nil {
		return
	}
	ev := model.ImportEvent{
		TokenID:     token.ID,
		TokenSymbol: token.Symbol,
		Chain:       token.Chain,
		Fetched:     status.Fetched,
		Skipped:     status.Skipped,
		Created:     status.Created,
		Updated:     status.Updated,
		Succeeded:   err == nil,
		FinishedAt:  status.EndedAt,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	im.events.Submit(ev)
}
