package cache

import (
	"context"
	"testing"
	"time"

	"meme-radar/internal/tracker/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPriceCacheLocal(t *testing.T) {
	c := NewPriceCache(zap.NewNop(), nil)
	ctx := context.Background()

	_, ok := c.Get(ctx, "solana", "So1")
	assert.False(t, ok)

	c.Set(ctx, "solana", "So1", Price{Value: decimal.RequireFromString("1.25"), UpdatedAt: time.Now()})
	p, ok := c.Get(ctx, "SOLANA", "So1")
	require.True(t, ok)
	assert.Equal(t, "1.25", p.Value.String())

	_, ok = c.Get(ctx, "solana", "so1")
	assert.False(t, ok)

	c.Set(ctx, "ethereum", "0xABC", Price{Value: decimal.NewFromInt(2)})
	_, ok = c.Get(ctx, "ethereum", "0xabc")
	assert.True(t, ok)
}

func TestImportStatusBoard(t *testing.T) {
	b := NewImportStatusBoard()
	_, ok := b.Get("t1")
	assert.False(t, ok)

	b.Set(model.ImportStatus{TokenID: "t1", State: model.ImportFailed, Message: "timeout"})
	s, ok := b.Get("t1")
	require.True(t, ok)
	assert.Equal(t, model.ImportFailed, s.State)
	assert.Equal(t, "timeout", s.Message)
}
