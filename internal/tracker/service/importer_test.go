package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"meme-radar/internal/tracker/dao/memory"
	"meme-radar/internal/tracker/model"
	"meme-radar/pkg/dune"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestImportTokenBuyersCreatesAndRelates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(ImportOptions{})
	pepe := f.addToken("t1", "PEPE", "ethereum", "2024-01-01 00:00:00", "2024-01-02 00:00:00")
	wojak := f.addToken("t2", "WOJAK", "ethereum", "2024-02-01 00:00:00", "2024-02-02 00:00:00")

	f.source.buyers = []model.Buyer{buyer("0xAAA"), buyer("0xBBB")}
	f.source.skipped = 1
	res, err := f.importer.ImportTokenBuyers(ctx, pepe.ID)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{TokenID: "t1", Fetched: 2, Skipped: 1, Created: 2}, *res)

	f.source.buyers = []model.Buyer{buyer("0xaaa"), buyer("0xCCC")}
	res, err = f.importer.ImportTokenBuyers(ctx, wojak.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Updated)

	all, err := f.addrs.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	stats := Stats(all)
	assert.Equal(t, 1, stats.MultiToken)

	multi := View(all, ViewQuery{TokenIDs: []string{"t1", "t2"}})
	require.Len(t, multi, 1)
	assert.Equal(t, "0xAAA", multi[0].Address)

	got, err := f.tokens.GetByID(ctx, "t2")
	require.NoError(t, err)
	require.NotNil(t, got.BuyersCount)
	assert.Equal(t, 2, *got.BuyersCount)
	assert.NotNil(t, got.BuyersLastUpdated)

	status, ok := f.importer.Status("t2")
	require.True(t, ok)
	assert.Equal(t, model.ImportSucceeded, status.State)
	assert.Equal(t, 2, f.notifier.count(model.CollectionAddresses))
	require.Len(t, f.sink.events, 2)
	assert.True(t, f.sink.events[1].Succeeded)

	// 同一个 token 再导一次不产生变化
	res, err = f.importer.ImportTokenBuyers(ctx, wojak.ID)
	require.NoError(t, err)
	assert.Zero(t, res.Created)
	assert.Zero(t, res.Updated)
}

// racingAddresses 模拟另一个进程在 List 和 CreateBatch 之间写入同一地址
type racingAddresses struct {
	*memory.AddressStore
	once sync.Once
}

func (r *racingAddresses) CreateBatch(ctx context.Context, addrs []model.PromisingAddress, batchSize int) (int, error) {
	r.once.Do(func() {
		_, _ = r.AddressStore.CreateBatch(ctx, []model.PromisingAddress{{ID: "other", Address: "0xBBB", AddressKey: "0xbbb", TokenID: "t9"}}, 1)
	})
	return r.AddressStore.CreateBatch(ctx, addrs, batchSize)
}

func TestImportCountsOnlyInsertedRows(t *testing.T) {
	ctx := context.Background()
	f := newFixture(ImportOptions{})
	pepe := f.addToken("t1", "PEPE", "ethereum", "2024-01-01 00:00:00", "2024-01-02 00:00:00")
	addrs := &racingAddresses{AddressStore: f.addrs}
	im := NewImporter(f.source, f.tokens, addrs, f.notifier, f.board, f.sink, f.lock, ImportOptions{}, zap.NewNop())

	f.source.buyers = []model.Buyer{buyer("0xAAA"), buyer("0xBBB")}
	res, err := im.ImportTokenBuyers(ctx, pepe.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)

	status, ok := im.Status(pepe.ID)
	require.True(t, ok)
	assert.Equal(t, 1, status.Created)
	all, err := f.addrs.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestImportTokenBuyersValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(ImportOptions{})
	sol := f.addToken("s1", "WIF", "solana", "2024-01-01 00:00:00", "2024-01-02 00:00:00")
	noWindow := f.addToken("e1", "PEPE", "ethereum", "", "")

	_, err := f.importer.ImportTokenBuyers(ctx, sol.ID)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.importer.ImportTokenBuyers(ctx, noWindow.ID)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.importer.ImportTokenBuyers(ctx, "missing")
	assert.Error(t, err)
	assert.Empty(t, f.source.calls)
}

func TestImportTokenBuyersFailureRecorded(t *testing.T) {
	ctx := context.Background()
	f := newFixture(ImportOptions{})
	tok := f.addToken("t1", "PEPE", "ethereum", "2024-01-01 00:00:00", "2024-01-02 00:00:00")
	f.source.err = fmt.Errorf("wait: %w", dune.ErrTimeout)

	_, err := f.importer.ImportTokenBuyers(ctx, tok.ID)
	assert.ErrorIs(t, err, dune.ErrTimeout)

	status, ok := f.importer.Status(tok.ID)
	require.True(t, ok)
	assert.Equal(t, model.ImportFailed, status.State)
	assert.Contains(t, status.Message, "timed out")
	require.Len(t, f.sink.events, 1)
	assert.False(t, f.sink.events[0].Succeeded)

	all, _ := f.addrs.List(ctx)
	assert.Empty(t, all)
}

func TestImportRespectsBatchSizeAndWriteCap(t *testing.T) {
	ctx := context.Background()
	f := newFixture(ImportOptions{BatchSize: 2, MaxWrites: 5})
	tok := f.addToken("t1", "PEPE", "ethereum", "2024-01-01 00:00:00", "2024-01-02 00:00:00")
	for i := 0; i < 7; i++ {
		f.source.buyers = append(f.source.buyers, buyer(fmt.Sprintf("0x%040d", i)))
	}

	res, err := f.importer.ImportTokenBuyers(ctx, tok.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, res.Fetched)
	assert.Equal(t, 5, res.Created)
	assert.Equal(t, []int{2, 2, 1}, f.addrs.BatchSizes)
}

func TestBackgroundImportUsesDefaultWindow(t *testing.T) {
	f := newFixture(ImportOptions{Timeout: time.Second})
	tok := f.addToken("t1", "PEPE", "ethereum", "", "")
	f.source.buyers = []model.Buyer{buyer("0xAAA")}

	assert.True(t, f.importer.StartBackground(tok))
	f.importer.Wait()

	require.Len(t, f.source.calls, 1)
	assert.Equal(t, tok.Address+"||", f.source.calls[0])
	status, ok := f.importer.Status("t1")
	require.True(t, ok)
	assert.Equal(t, model.ImportSucceeded, status.State)

	sol := f.addToken("s1", "WIF", "solana", "", "")
	assert.False(t, f.importer.StartBackground(sol))
	f.source.configured = false
	assert.False(t, f.importer.StartBackground(tok))
}

func TestConcurrentImportsDoNotClobber(t *testing.T) {
	ctx := context.Background()
	f := newFixture(ImportOptions{})
	a := f.addToken("t1", "A", "ethereum", "2024-01-01 00:00:00", "2024-01-02 00:00:00")
	b := f.addToken("t2", "B", "ethereum", "2024-01-01 00:00:00", "2024-01-02 00:00:00")
	f.source.buyers = []model.Buyer{buyer("0xshared")}

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, tok := range []model.TokenConfig{a, b} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.importer.ImportTokenBuyers(ctx, tok.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	all, err := f.addrs.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Len(t, all[0].RelatedTokens, 1)
	assert.True(t, all[0].HasToken("t1"))
	assert.True(t, all[0].HasToken("t2"))
}

func TestImportCancelled(t *testing.T) {
	f := newFixture(ImportOptions{})
	tok := f.addToken("t1", "PEPE", "ethereum", "2024-01-01 00:00:00", "2024-01-02 00:00:00")
	f.source.block = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.importer.ImportTokenBuyers(ctx, tok.ID)
	assert.True(t, errors.Is(err, context.Canceled))
}
