package broadcast

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/floroz/bidhub/internal/domain/auction"
	"github.com/floroz/bidhub/internal/domain/chat"
)

// Hub is the in-process fan-out for store updates: one global product feed
// and one feed per conversation id.
//
// Delivery is synchronous and in registration order; each listener receives
// its own deep copy. A panicking listener is recovered and logged so it
// cannot suppress delivery to the listeners behind it. Listeners run inside
// the store's critical section and must not call back into a store;
// follow-up mutations have to be deferred to another goroutine.
//
// Subscriptions live until explicitly cancelled. A consumer that forgets to
// unsubscribe keeps receiving broadcasts; there is no garbage collection of
// stale listeners.
type Hub struct {
	mu     sync.RWMutex
	logger *slog.Logger

	productSubs []productSub
	convSubs    map[string][]conversationSub
}

type productSub struct {
	id uuid.UUID
	fn func(auction.Product)
}

type conversationSub struct {
	id uuid.UUID
	fn func(chat.Conversation)
}

// Subscription is a handle on a registered listener. Unsubscribe is
// idempotent; cancelling twice is a no-op.
type Subscription struct {
	cancel func()
	once   sync.Once
}

// Unsubscribe removes the listener from the hub.
func (s *Subscription) Unsubscribe() {
	s.once.Do(s.cancel)
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:   logger,
		convSubs: make(map[string][]conversationSub),
	}
}

// SubscribeProducts registers a listener on the global product feed.
func (h *Hub) SubscribeProducts(fn func(auction.Product)) *Subscription {
	id := uuid.New()

	h.mu.Lock()
	h.productSubs = append(h.productSubs, productSub{id: id, fn: fn})
	h.mu.Unlock()

	return &Subscription{cancel: func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		for i, sub := range h.productSubs {
			if sub.id == id {
				h.productSubs = append(h.productSubs[:i], h.productSubs[i+1:]...)
				return
			}
		}
	}}
}

// SubscribeConversation registers a listener on one conversation's feed.
func (h *Hub) SubscribeConversation(conversationID string, fn func(chat.Conversation)) *Subscription {
	id := uuid.New()

	h.mu.Lock()
	h.convSubs[conversationID] = append(h.convSubs[conversationID], conversationSub{id: id, fn: fn})
	h.mu.Unlock()

	return &Subscription{cancel: func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		subs := h.convSubs[conversationID]
		for i, sub := range subs {
			if sub.id == id {
				h.convSubs[conversationID] = append(subs[:i], subs[i+1:]...)
				return
			}
		}
	}}
}

// BroadcastProduct implements auction.Broadcaster.
func (h *Hub) BroadcastProduct(p auction.Product) {
	h.mu.RLock()
	subs := append([]productSub(nil), h.productSubs...)
	h.mu.RUnlock()

	for _, sub := range subs {
		h.deliverProduct(sub, p.Clone())
	}
}

// BroadcastConversation implements chat.Broadcaster.
func (h *Hub) BroadcastConversation(c chat.Conversation) {
	h.mu.RLock()
	subs := append([]conversationSub(nil), h.convSubs[c.ID]...)
	h.mu.RUnlock()

	for _, sub := range subs {
		h.deliverConversation(sub, c.Clone())
	}
}

func (h *Hub) deliverProduct(sub productSub, p auction.Product) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("product listener panicked", "subscription", sub.id, "panic", r)
		}
	}()
	sub.fn(p)
}

func (h *Hub) deliverConversation(sub conversationSub, c chat.Conversation) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("conversation listener panicked", "subscription", sub.id, "conversation", c.ID, "panic", r)
		}
	}()
	sub.fn(c)
}
