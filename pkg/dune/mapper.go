package dune

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"meme-radar/internal/tracker/model"

	"github.com/shopspring/decimal"
)

// 买家查询的列名
const (
	colBuyerAddress = "buyer_address"
	colTx           = "first_purchase_tx"
	colTime         = "first_purchase_time"
	colBlock        = "first_purchase_block"
	colAmount       = "amount"
	colPriceUSD     = "price_usd"
)

// MapRows 把结果行转成 Buyer，缺少钱包地址的行跳过并计数
func MapRows(rows []Row) ([]model.Buyer, int) {
	buyers := make([]model.Buyer, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		addr := strings.TrimSpace(stringField(row, colBuyerAddress))
		if addr == "" {
			skipped++
			continue
		}
		buyers = append(buyers, model.Buyer{
			WalletAddress: addr,
			TxHash:        stringField(row, colTx),
			BlockTime:     stringField(row, colTime),
			BlockNumber:   intField(row, colBlock),
			Amount:        decimalField(row, colAmount),
			PriceUSD:      decimalField(row, colPriceUSD),
		})
	}
	return buyers, skipped
}

func stringField(row Row, key string) string {
	switch v := row[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// intField 区块号可能是数字也可能是数字字符串
func intField(row Row, key string) *int64 {
	var n int64
	switch v := row[key].(type) {
	case float64:
		n = int64(v)
	case int64:
		n = v
	case int:
		n = int64(v)
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return nil
		}
		n = i
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil
		}
		n = i
	default:
		return nil
	}
	return &n
}

func decimalField(row Row, key string) *decimal.Decimal {
	var d decimal.Decimal
	switch v := row[key].(type) {
	case float64:
		d = decimal.NewFromFloat(v)
	case string:
		parsed, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return nil
		}
		d = parsed
	case json.Number:
		parsed, err := decimal.NewFromString(v.String())
		if err != nil {
			return nil
		}
		d = parsed
	default:
		return nil
	}
	return &d
}
