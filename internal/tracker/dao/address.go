package dao

import (
	"context"

	"meme-radar/internal/tracker/model"
)

// AddressDAO promising-addresses 集合，address_key 全局唯一
type AddressDAO interface {
	// CreateBatch 分批写入新地址，address_key 冲突的记录跳过，返回实际写入条数
	CreateBatch(ctx context.Context, addrs []model.PromisingAddress, batchSize int) (int, error)

	// UpdateRelatedTokens 覆盖 relatedTokens
	UpdateRelatedTokens(ctx context.Context, id string, related []string) error

	SetPromising(ctx context.Context, id string, marked bool) error

	GetByID(ctx context.Context, id string) (*model.PromisingAddress, error)

	// List 按创建时间倒序
	List(ctx context.Context) ([]model.PromisingAddress, error)

	Delete(ctx context.Context, id string) error
}
