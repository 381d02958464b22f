package dao

import (
	"context"
	"time"

	"meme-radar/internal/tracker/model"
)

// TokenDAO tokens 集合
type TokenDAO interface {
	// Create 新建 token，ID 由调用方生成
	Create(ctx context.Context, token *model.TokenConfig) error

	// Upsert 按 ID 写入，导入旧配置用
	Upsert(ctx context.Context, token *model.TokenConfig) error

	GetByID(ctx context.Context, id string) (*model.TokenConfig, error)

	// List 按创建时间倒序
	List(ctx context.Context) ([]model.TokenConfig, error)

	// UpdateBuyerStats 记录最近一次拉取的买家数量
	UpdateBuyerStats(ctx context.Context, id string, count int, at time.Time) error

	// Delete 只删 token，不级联地址
	Delete(ctx context.Context, id string) error
}
