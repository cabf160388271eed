package broadcast

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floroz/bidhub/internal/domain/auction"
	"github.com/floroz/bidhub/internal/domain/chat"
)

func newTestHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHub_ProductFanOut(t *testing.T) {
	h := newTestHub()

	var first, second []int64
	h.SubscribeProducts(func(p auction.Product) { first = append(first, p.ID) })
	h.SubscribeProducts(func(p auction.Product) { second = append(second, p.ID) })

	h.BroadcastProduct(auction.Product{ID: 1})
	h.BroadcastProduct(auction.Product{ID: 2})

	assert.Equal(t, []int64{1, 2}, first)
	assert.Equal(t, []int64{1, 2}, second)
}

func TestHub_Unsubscribe(t *testing.T) {
	h := newTestHub()

	var got []int64
	sub := h.SubscribeProducts(func(p auction.Product) { got = append(got, p.ID) })

	h.BroadcastProduct(auction.Product{ID: 1})
	sub.Unsubscribe()
	sub.Unsubscribe() // idempotent
	h.BroadcastProduct(auction.Product{ID: 2})

	assert.Equal(t, []int64{1}, got)
}

func TestHub_ConversationTopicsAreIndependent(t *testing.T) {
	h := newTestHub()

	var a, b int
	h.SubscribeConversation("10-2", func(chat.Conversation) { a++ })
	h.SubscribeConversation("10-3", func(chat.Conversation) { b++ })

	h.BroadcastConversation(chat.Conversation{ID: "10-2"})
	h.BroadcastConversation(chat.Conversation{ID: "10-2"})
	h.BroadcastConversation(chat.Conversation{ID: "10-3"})

	assert.Equal(t, 2, a)
	assert.Equal(t, 1, b)
}

func TestHub_PanickingListenerDoesNotSuppressDelivery(t *testing.T) {
	h := newTestHub()

	var delivered bool
	h.SubscribeProducts(func(auction.Product) { panic("boom") })
	h.SubscribeProducts(func(auction.Product) { delivered = true })

	h.BroadcastProduct(auction.Product{ID: 1})

	assert.True(t, delivered)
}

func TestHub_ListenersReceiveIndependentCopies(t *testing.T) {
	h := newTestHub()

	bidder := auction.User{ID: 2, Name: "Bob"}
	source := auction.Product{
		ID:   1,
		Bids: []auction.Bid{{ID: 1, Amount: 100, Bidder: bidder}},
	}

	var seen auction.Product
	h.SubscribeProducts(func(p auction.Product) {
		p.Bids[0].Amount = 1 // a misbehaving listener mutating its copy
	})
	h.SubscribeProducts(func(p auction.Product) { seen = p })

	h.BroadcastProduct(source)

	require.Len(t, seen.Bids, 1)
	assert.Equal(t, int64(100), seen.Bids[0].Amount)
	assert.Equal(t, int64(100), source.Bids[0].Amount)
}

func TestHub_RegistrationOrderPreserved(t *testing.T) {
	h := newTestHub()

	var order []string
	h.SubscribeProducts(func(auction.Product) { order = append(order, "a") })
	h.SubscribeProducts(func(auction.Product) { order = append(order, "b") })
	h.SubscribeProducts(func(auction.Product) { order = append(order, "c") })

	h.BroadcastProduct(auction.Product{ID: 1})

	assert.Equal(t, []string{"a", "b", "c"}, order)
}
