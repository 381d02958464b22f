package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"meme-radar/internal/tracker/dao"
	"meme-radar/internal/tracker/model"

	"go.uber.org/zap"
)

var ErrUnknownCollection = errors.New("unknown collection")

// Hub 把 Broker 的通知变成集合快照
type Hub struct {
	broker Broker
	tokens dao.TokenDAO
	addrs  dao.AddressDAO
	logger *zap.Logger
}

func NewHub(broker Broker, tokens dao.TokenDAO, addrs dao.AddressDAO, logger *zap.Logger) *Hub {
	return &Hub{
		broker: broker,
		tokens: tokens,
		addrs:  addrs,
		logger: logger.With(zap.String("component", "notify_hub")),
	}
}

// Notify 发布变更，失败只记日志，写操作本身已经成功
func (h *Hub) Notify(ctx context.Context, collection string) {
	if err := h.broker.Publish(ctx, collection); err != nil {
		h.logger.Warn("publish change failed", zap.String("collection", collection), zap.Error(err))
	}
}

// Load 读取集合当前快照，按创建时间倒序
func (h *Hub) Load(ctx context.Context, collection string) (model.Snapshot, error) {
	snap := model.Snapshot{Collection: collection, At: time.Now().UTC()}
	switch collection {
	case model.CollectionTokens:
		tokens, err := h.tokens.List(ctx)
		if err != nil {
			return snap, err
		}
		snap.Tokens = tokens
	case model.CollectionAddresses:
		addrs, err := h.addrs.List(ctx)
		if err != nil {
			return snap, err
		}
		snap.Addresses = addrs
	default:
		return snap, fmt.Errorf("%w: %q", ErrUnknownCollection, collection)
	}
	return snap, nil
}

// Subscribe 先推送一次当前快照，之后每次变更重新加载推送
// cancel 之后 channel 关闭
func (h *Hub) Subscribe(ctx context.Context, collection string) (func(), <-chan model.Snapshot, error) {
	if collection != model.CollectionTokens && collection != model.CollectionAddresses {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownCollection, collection)
	}
	ctx, cancel := context.WithCancel(ctx)
	changes, err := h.broker.Listen(ctx, collection)
	if err != nil {
		cancel()
		return nil, nil, err
	}

	out := make(chan model.Snapshot, 1)
	go func() {
		defer close(out)
		if !h.emit(ctx, collection, out) {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				if !h.emit(ctx, collection, out) {
					return
				}
			}
		}
	}()
	return cancel, out, nil
}

func (h *Hub) emit(ctx context.Context, collection string, out chan<- model.Snapshot) bool {
	snap, err := h.Load(ctx, collection)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		h.logger.Warn("reload snapshot failed", zap.String("collection", collection), zap.Error(err))
		return true
	}
	select {
	case out <- snap:
		return true
	case <-ctx.Done():
		return false
	}
}
