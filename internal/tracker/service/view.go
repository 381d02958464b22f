package service

import (
	"sort"
	"strings"

	"meme-radar/internal/tracker/model"
)

const (
	PromisingMarked   = "marked"
	PromisingUnmarked = "unmarked"
)

// ViewQuery 地址列表的过滤和分页条件
type ViewQuery struct {
	TokenIDs  []string
	Search    string
	Promising string // marked / unmarked，空表示不过滤
	Limit     int    // <=0 表示不限
	Offset    int
}

// View 过滤、排序、分页
//
// 选了多个 token 时取交集：地址必须买过所有选中的 token。
// 按 relatedTokens 数量倒序，稳定排序保持输入顺序。
func View(all []model.PromisingAddress, q ViewQuery) []model.PromisingAddress {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	filtered := make([]model.PromisingAddress, 0, len(all))
	for _, rec := range all {
		if !hasAllTokens(&rec, q.TokenIDs) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(rec.Address), search) {
			continue
		}
		switch q.Promising {
		case PromisingMarked:
			if !rec.IsMarkedPromising {
				continue
			}
		case PromisingUnmarked:
			if rec.IsMarkedPromising {
				continue
			}
		}
		filtered = append(filtered, rec)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return len(filtered[i].RelatedTokens) > len(filtered[j].RelatedTokens)
	})

	offset := max(q.Offset, 0)
	if offset >= len(filtered) {
		return []model.PromisingAddress{}
	}
	end := len(filtered)
	if q.Limit > 0 && offset+q.Limit < end {
		end = offset + q.Limit
	}
	return filtered[offset:end]
}

func hasAllTokens(rec *model.PromisingAddress, tokenIDs []string) bool {
	for _, id := range tokenIDs {
		if !rec.HasToken(id) {
			return false
		}
	}
	return true
}

// Stats 总数、已标记数、买过多个 token 的地址数
func Stats(all []model.PromisingAddress) model.AddressStats {
	stats := model.AddressStats{Total: len(all)}
	for _, rec := range all {
		if rec.IsMarkedPromising {
			stats.Marked++
		}
		if len(rec.RelatedTokens) > 0 {
			stats.MultiToken++
		}
	}
	return stats
}

// ValidPromisingFilter 校验 promising 参数
func ValidPromisingFilter(p string) bool {
	return p == "" || p == PromisingMarked || p == PromisingUnmarked
}
