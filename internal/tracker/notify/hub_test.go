package notify

import (
	"context"
	"testing"
	"time"

	"meme-radar/internal/tracker/dao/memory"
	"meme-radar/internal/tracker/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func receive(t *testing.T, ch <-chan model.Snapshot) model.Snapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		require.True(t, ok, "channel closed")
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return model.Snapshot{}
}

func TestHubSubscribeEmitsSnapshots(t *testing.T) {
	ctx := context.Background()
	tokens := memory.NewTokenStore()
	addrs := memory.NewAddressStore()
	hub := NewHub(NewLocalBroker(), tokens, addrs, zap.NewNop())

	cancel, ch, err := hub.Subscribe(ctx, model.CollectionAddresses)
	require.NoError(t, err)
	defer cancel()

	first := receive(t, ch)
	assert.Equal(t, model.CollectionAddresses, first.Collection)
	assert.Empty(t, first.Addresses)

	_, err = addrs.CreateBatch(ctx, []model.PromisingAddress{{ID: "1", Address: "0xA", AddressKey: "0xa"}}, 10)
	require.NoError(t, err)
	hub.Notify(ctx, model.CollectionAddresses)

	second := receive(t, ch)
	require.Len(t, second.Addresses, 1)
	assert.Equal(t, "0xA", second.Addresses[0].Address)
}

func TestHubCancelClosesChannel(t *testing.T) {
	hub := NewHub(NewLocalBroker(), memory.NewTokenStore(), memory.NewAddressStore(), zap.NewNop())
	cancel, ch, err := hub.Subscribe(context.Background(), model.CollectionTokens)
	require.NoError(t, err)
	receive(t, ch)

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestHubUnknownCollection(t *testing.T) {
	hub := NewHub(NewLocalBroker(), memory.NewTokenStore(), memory.NewAddressStore(), zap.NewNop())
	_, _, err := hub.Subscribe(context.Background(), "wallets")
	assert.ErrorIs(t, err, ErrUnknownCollection)
}

func TestLocalBrokerCoalesces(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b := NewLocalBroker()
	ch, err := b.Listen(ctx, "tokens")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, b.Publish(ctx, "tokens"))
	}
	<-ch
	select {
	case <-ch:
		t.Fatal("expected notifications to be coalesced")
	default:
	}
}
