package notify

import (
	"context"
	"sync"
	"time"

	"meme-radar/pkg/utils"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Broker 集合变更通知的传输层，通知本身不带数据，订阅方自己重新加载
type Broker interface {
	Publish(ctx context.Context, collection string) error
	// Listen 返回的 channel 在 ctx 结束后关闭，连续的通知可能被合并成一次
	Listen(ctx context.Context, collection string) (<-chan struct{}, error)
}

type changeMessage struct {
	Collection string    `json:"collection"`
	At         time.Time `json:"at"`
}

// LocalBroker 进程内实现，没有 redis 时和测试里使用
type LocalBroker struct {
	mu        sync.Mutex
	listeners map[string]map[chan struct{}]struct{}
}

var _ Broker = (*LocalBroker)(nil)

func NewLocalBroker() *LocalBroker {
	return &LocalBroker{listeners: make(map[string]map[chan struct{}]struct{})}
}

func (b *LocalBroker) Publish(_ context.Context, collection string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.listeners[collection] {
		signal(ch)
	}
	return nil
}

func (b *LocalBroker) Listen(ctx context.Context, collection string) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)
	b.mu.Lock()
	if b.listeners[collection] == nil {
		b.listeners[collection] = make(map[chan struct{}]struct{})
	}
	b.listeners[collection][ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.listeners[collection], ch)
		close(ch)
		b.mu.Unlock()
	}()
	return ch, nil
}

// RedisBroker 基于 redis pub/sub，多实例之间共享变更
type RedisBroker struct {
	rdb    *redis.Client
	logger *zap.Logger
}

var _ Broker = (*RedisBroker)(nil)

func NewRedisBroker(rdb *redis.Client, logger *zap.Logger) *RedisBroker {
	return &RedisBroker{rdb: rdb, logger: logger.With(zap.String("component", "redis_broker"))}
}

func (b *RedisBroker) Publish(ctx context.Context, collection string) error {
	data, err := sonic.Marshal(changeMessage{Collection: collection, At: time.Now().UTC()})
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, utils.ChangeChannel(collection), data).Err()
}

func (b *RedisBroker) Listen(ctx context.Context, collection string) (<-chan struct{}, error) {
	ps := b.rdb.Subscribe(ctx, utils.ChangeChannel(collection))
	// 等订阅确认，连接失败时直接返回错误
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer ps.Close()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var change changeMessage
				if err := sonic.UnmarshalString(msg.Payload, &change); err != nil {
					b.logger.Warn("bad change message", zap.String("channel", msg.Channel), zap.Error(err))
					continue
				}
				signal(out)
			}
		}
	}()
	return out, nil
}

// signal 非阻塞发送，已有未消费的通知时直接合并
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
