package model

import (
	"time"

	"github.com/lib/pq"
)

// PromisingAddress 早期买入某个 token 的钱包，全局按地址(大小写不敏感)唯一
type PromisingAddress struct {
	ID                string         `gorm:"column:id;type:varchar(32);primaryKey" json:"id"`
	Address           string         `gorm:"column:address;type:varchar(128);not null" json:"address"`
	AddressKey        string         `gorm:"column:address_key;type:varchar(128);not null;uniqueIndex" json:"-"`
	TokenID           string         `gorm:"column:token_id;type:varchar(32);not null;index" json:"tokenId"` // 首次发现的 token
	TokenSymbol       string         `gorm:"column:token_symbol;type:varchar(64)" json:"tokenSymbol"`
	PurchaseTime      string         `gorm:"column:purchase_time;type:varchar(64)" json:"purchaseTime"`
	BlockNumber       *int64         `gorm:"column:block_number" json:"blockNumber,omitempty"`
	TxHash            string         `gorm:"column:tx_hash;type:varchar(128)" json:"txHash,omitempty"`
	RelatedTokens     pq.StringArray `gorm:"column:related_tokens;type:text[]" json:"relatedTokens"` // 同时买过的其他 token，不含 TokenID
	IsMarkedPromising bool           `gorm:"column:is_marked_promising" json:"isMarkedPromising"`
	CreatedAt         time.Time      `gorm:"column:created_at;autoCreateTime;index" json:"createdAt"`
	UpdatedAt         time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (PromisingAddress) TableName() string {
	return "promising_addresses"
}

// HasToken 地址是否买过 tokenID（首次 token 或 relatedTokens）
func (p *PromisingAddress) HasToken(tokenID string) bool {
	if p.TokenID == tokenID {
		return true
	}
	for _, id := range p.RelatedTokens {
		if id == tokenID {
			return true
		}
	}
	return false
}

// Clone 深拷贝
func (p PromisingAddress) Clone() PromisingAddress {
	related := make(pq.StringArray, len(p.RelatedTokens))
	copy(related, p.RelatedTokens)
	p.RelatedTokens = related
	if p.BlockNumber != nil {
		v := *p.BlockNumber
		p.BlockNumber = &v
	}
	return p
}

// AddressStats 页面上的计数
type AddressStats struct {
	Total      int `json:"total"`
	Marked     int `json:"marked"`
	MultiToken int `json:"multiToken"`
}
