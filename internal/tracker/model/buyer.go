package model

import "github.com/shopspring/decimal"

// Buyer 查询返回的一个早期买家，只在拉取和合并之间存在
type Buyer struct {
	WalletAddress string
	TxHash        string
	BlockTime     string
	BlockNumber   *int64
	Amount        *decimal.Decimal // nil 表示未知
	PriceUSD      *decimal.Decimal
}
