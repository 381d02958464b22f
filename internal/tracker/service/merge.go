package service

import (
	"slices"

	"meme-radar/internal/tracker/model"
	"meme-radar/pkg/utils"

	"github.com/lib/pq"
	"github.com/segmentio/ksuid"
)

// Merge 把一次导入的买家合并进已有地址集合
//
// 地址按 AddressKey 去重。新地址以 tokenID 为来源创建，默认标记为 promising；
// 已有地址如果来源不是 tokenID 且 relatedTokens 里还没有，就追加 tokenID。
// 返回完整集合：已有记录（副本，可能被更新）在前，新记录在后。输入不会被修改。
// 同一个 token 重复合并结果不变。
func Merge(existing []model.PromisingAddress, incoming []model.Buyer, tokenID, tokenSymbol string) []model.PromisingAddress {
	out := make([]model.PromisingAddress, 0, len(existing)+len(incoming))
	index := make(map[string]int, len(existing)+len(incoming))
	for _, rec := range existing {
		key := rec.AddressKey
		if key == "" {
			key = utils.AddressKey(rec.Address)
		}
		if _, dup := index[key]; dup {
			continue
		}
		c := rec.Clone()
		c.AddressKey = key
		index[key] = len(out)
		out = append(out, c)
	}

	for _, b := range incoming {
		key := utils.AddressKey(b.WalletAddress)
		if key == "" {
			continue
		}
		if i, ok := index[key]; ok {
			rec := &out[i]
			if rec.TokenID != tokenID && !slices.Contains(rec.RelatedTokens, tokenID) {
				rec.RelatedTokens = append(rec.RelatedTokens, tokenID)
			}
			continue
		}
		index[key] = len(out)
		out = append(out, newPromisingAddress(b, key, tokenID, tokenSymbol))
	}
	return out
}

func newPromisingAddress(b model.Buyer, key, tokenID, tokenSymbol string) model.PromisingAddress {
	rec := model.PromisingAddress{
		ID:                ksuid.New().String(),
		Address:           b.WalletAddress,
		AddressKey:        key,
		TokenID:           tokenID,
		TokenSymbol:       tokenSymbol,
		PurchaseTime:      b.BlockTime,
		TxHash:            b.TxHash,
		RelatedTokens:     pq.StringArray{},
		IsMarkedPromising: true,
	}
	if b.BlockNumber != nil {
		n := *b.BlockNumber
		rec.BlockNumber = &n
	}
	return rec
}

// Diff 对比 Merge 前后，返回需要新建和需要更新 relatedTokens 的记录
func Diff(existing, merged []model.PromisingAddress) (created, updated []model.PromisingAddress) {
	before := make(map[string]model.PromisingAddress, len(existing))
	for _, rec := range existing {
		before[rec.ID] = rec
	}
	for _, rec := range merged {
		old, ok := before[rec.ID]
		switch {
		case !ok:
			created = append(created, rec)
		case !slices.Equal(old.RelatedTokens, rec.RelatedTokens):
			updated = append(updated, rec)
		}
	}
	return created, updated
}
