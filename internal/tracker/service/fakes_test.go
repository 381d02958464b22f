package service

import (
	"context"
	"sync"

	"meme-radar/internal/tracker/cache"
	"meme-radar/internal/tracker/dao/memory"
	"meme-radar/internal/tracker/model"
	"meme-radar/pkg/dune"

	"go.uber.org/zap"
)

type fakeSource struct {
	mu         sync.Mutex
	configured bool
	buyers     []model.Buyer
	skipped    int
	err        error
	calls      []string // "address|start|end"
	block      chan struct{}
}

func (f *fakeSource) Configured() bool { return f.configured }

func (f *fakeSource) GetEthereumTokenBuyers(ctx context.Context, tokenAddress, startTime, endTime string) (*dune.BuyersResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, tokenAddress+"|"+startTime+"|"+endTime)
	block := f.block
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &dune.BuyersResult{Buyers: append([]model.Buyer(nil), f.buyers...), Skipped: f.skipped}, nil
}

type recordingNotifier struct {
	mu      sync.Mutex
	changes []string
}

func (n *recordingNotifier) Notify(_ context.Context, collection string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, collection)
}

func (n *recordingNotifier) count(collection string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, ch := range n.changes {
		if ch == collection {
			c++
		}
	}
	return c
}

type recordingSink struct {
	mu     sync.Mutex
	events []model.ImportEvent
}

func (s *recordingSink) Submit(ev model.ImportEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

type fixture struct {
	tokens   *memory.TokenStore
	addrs    *memory.AddressStore
	notifier *recordingNotifier
	sink     *recordingSink
	source   *fakeSource
	board    *cache.ImportStatusBoard
	lock     *sync.Mutex
	importer *Importer
}

func newFixture(opts ImportOptions) *fixture {
	f := &fixture{
		tokens:   memory.NewTokenStore(),
		addrs:    memory.NewAddressStore(),
		notifier: &recordingNotifier{},
		sink:     &recordingSink{},
		source:   &fakeSource{configured: true},
		board:    cache.NewImportStatusBoard(),
		lock:     &sync.Mutex{},
	}
	f.importer = NewImporter(f.source, f.tokens, f.addrs, f.notifier, f.board, f.sink, f.lock, opts, zap.NewNop())
	return f
}

func (f *fixture) addToken(id, symbol, chain, start, end string) model.TokenConfig {
	addr := "0x6982508145454Ce325dDbE47a25d4ec3d2311933"
	if chain == "solana" {
		addr = "EKpQGSJtjMFqKZ9KQanSqYXRcF8fBopzLHYxdM65zcjm"
	}
	t := model.TokenConfig{ID: id, Symbol: symbol, Address: addr, Chain: chain, StartTime: start, EndTime: end}
	if err := f.tokens.Create(context.Background(), &t); err != nil {
		panic(err)
	}
	return t
}
