package dune

import (
	"context"
	"fmt"

	"meme-radar/internal/tracker/model"
	"meme-radar/pkg/utils"

	"go.uber.org/zap"
)

// 未指定窗口时的默认范围
const (
	DefaultStartTime = "2020-01-01 00:00:00"
	DefaultEndTime   = "2030-12-31 23:59:59"
)

// BuyersResult 一次买家查询的结果
type BuyersResult struct {
	Buyers  []model.Buyer
	Skipped int
}

// GetEthereumTokenBuyers 查询 ethereum token 在时间窗口内的早期买家
func (c *Client) GetEthereumTokenBuyers(ctx context.Context, tokenAddress, startTime, endTime string) (*BuyersResult, error) {
	addr, err := utils.NormalizeEVMAddress(tokenAddress)
	if err != nil {
		return nil, err
	}
	start, err := windowBound(startTime, DefaultStartTime)
	if err != nil {
		return nil, err
	}
	end, err := windowBound(endTime, DefaultEndTime)
	if err != nil {
		return nil, err
	}

	queryID := c.cfg.BuyersQueryID
	if queryID == 0 {
		return nil, fmt.Errorf("%w: buyers query id is not set", ErrConfig)
	}

	rows, err := c.ExecuteAndWait(ctx, queryID, map[string]string{
		"token_address": addr,
		"start_time":    start,
		"end_time":      end,
	}, 0)
	if err != nil {
		return nil, err
	}

	buyers, skipped := MapRows(rows)
	if skipped > 0 {
		c.logger.Warn("rows without buyer address skipped", zap.Int("skipped", skipped), zap.String("token", addr))
	}
	return &BuyersResult{Buyers: buyers, Skipped: skipped}, nil
}

func windowBound(value, fallback string) (string, error) {
	formatted, err := utils.FormatQueryTime(value)
	if err != nil {
		return "", err
	}
	if formatted == "" {
		return fallback, nil
	}
	return formatted, nil
}
