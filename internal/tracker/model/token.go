package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TokenConfig 跟踪中的 token
type TokenConfig struct {
	ID                string           `gorm:"column:id;type:varchar(32);primaryKey" json:"id"`
	Symbol            string           `gorm:"column:symbol;type:varchar(64);not null" json:"symbol"`
	Address           string           `gorm:"column:address;type:varchar(128);not null" json:"address"`
	Chain             string           `gorm:"column:chain;type:varchar(16);not null" json:"chain"` // ethereum / solana
	StartTime         string           `gorm:"column:start_time;type:varchar(19)" json:"startTime,omitempty"` // YYYY-MM-DD HH:MM:SS
	EndTime           string           `gorm:"column:end_time;type:varchar(19)" json:"endTime,omitempty"`
	MarketCapLimit    *decimal.Decimal `gorm:"column:market_cap_limit;type:decimal(30,2)" json:"marketCapLimit,omitempty"`
	BuyersCount       *int             `gorm:"column:buyers_count" json:"buyersCount,omitempty"`
	BuyersLastUpdated *time.Time       `gorm:"column:buyers_last_updated" json:"buyersLastUpdated,omitempty"`
	CreatedAt         time.Time        `gorm:"column:created_at;autoCreateTime;index" json:"createdAt"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (TokenConfig) TableName() string {
	return "tokens"
}

// HasWindow 是否设置了时间窗口
func (t *TokenConfig) HasWindow() bool {
	return t.StartTime != "" || t.EndTime != ""
}

// Clone 深拷贝，内存存储返回副本用
func (t TokenConfig) Clone() TokenConfig {
	if t.MarketCapLimit != nil {
		v := *t.MarketCapLimit
		t.MarketCapLimit = &v
	}
	if t.BuyersCount != nil {
		v := *t.BuyersCount
		t.BuyersCount = &v
	}
	if t.BuyersLastUpdated != nil {
		v := *t.BuyersLastUpdated
		t.BuyersLastUpdated = &v
	}
	return t
}

// TokenView token 列表返回，附带缓存的价格
type TokenView struct {
	TokenConfig
	PriceUSD       *decimal.Decimal `json:"priceUsd,omitempty"`
	PriceUpdatedAt *time.Time       `json:"priceUpdatedAt,omitempty"`
}
