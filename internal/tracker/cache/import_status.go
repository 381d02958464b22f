package cache

import (
	"time"

	"meme-radar/internal/tracker/model"
	"meme-radar/pkg/utils"

	"github.com/patrickmn/go-cache"
)

const IMPORT_STATUS_TTL = 24 * time.Hour

// ImportStatusBoard 每个 token 最近一次导入的状态
type ImportStatusBoard struct {
	localCache *cache.Cache
}

func NewImportStatusBoard() *ImportStatusBoard {
	return &ImportStatusBoard{localCache: cache.New(IMPORT_STATUS_TTL, 10*time.Minute)}
}

func (b *ImportStatusBoard) Set(status model.ImportStatus) {
	b.localCache.Set(utils.ImportStatusKey(status.TokenID), status, cache.DefaultExpiration)
}

func (b *ImportStatusBoard) Get(tokenID string) (model.ImportStatus, bool) {
	cached, found := b.localCache.Get(utils.ImportStatusKey(tokenID))
	if !found {
		return model.ImportStatus{}, false
	}
	status, ok := cached.(model.ImportStatus)
	return status, ok
}
