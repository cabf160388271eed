package chat

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/floroz/bidhub/internal/domain/auction"
	"github.com/floroz/bidhub/internal/ident"
)

// Validation errors
var (
	ErrConversationNotFound = fmt.Errorf("conversation not found")
	ErrSelfChat             = fmt.Errorf("cannot start a chat about your own item")
	ErrNotSeller            = fmt.Errorf("only the seller can toggle the assistant")
)

// Store is the authoritative in-memory table of conversations, keyed by the
// composite (product, buyer) id. Same single-writer discipline as the auction
// store: mutations and their broadcasts run under one mutex.
type Store struct {
	mu          sync.Mutex
	ids         *ident.Generator
	catalog     ProductCatalog
	broadcaster Broadcaster
	replies     ReplyScheduler
	now         func() time.Time

	conversations map[string]*Conversation
	order         []string // creation order, for stable listings
}

// NewStore creates an empty conversation store.
func NewStore(ids *ident.Generator, catalog ProductCatalog, broadcaster Broadcaster) *Store {
	return &Store{
		ids:           ids,
		catalog:       catalog,
		broadcaster:   broadcaster,
		now:           time.Now,
		conversations: make(map[string]*Conversation),
	}
}

// AttachResponder wires the automated-reply scheduler. Kept out of the
// constructor because the responder itself needs a handle on the store.
func (s *Store) AttachResponder(r ReplyScheduler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = r
}

// GetOrCreate returns the conversation for (productID, buyer), creating it on
// first use. Creation snapshots the product at this instant; the snapshot is
// never refreshed. Repeated calls for the same pair return the same
// conversation, never a duplicate.
func (s *Store) GetOrCreate(productID int64, buyer auction.User) (Conversation, error) {
	product, err := s.catalog.Get(productID)
	if err != nil {
		if errors.Is(err, auction.ErrProductNotFound) {
			return Conversation{}, err
		}
		return Conversation{}, fmt.Errorf("resolve product %d: %w", productID, err)
	}
	if product.Seller.ID == buyer.ID {
		return Conversation{}, ErrSelfChat
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := ConversationID(productID, buyer.ID)
	if c, ok := s.conversations[id]; ok {
		return c.Clone(), nil
	}

	c := &Conversation{
		ID:           id,
		Product:      product,
		Buyer:        buyer,
		Seller:       product.Seller,
		Messages:     []Message{},
		IsBotEnabled: false,
	}
	s.conversations[id] = c
	s.order = append(s.order, id)

	return c.Clone(), nil
}

// Get returns a deep copy of a conversation. The responder uses this to
// re-read current state before appending its reply.
func (s *Store) Get(conversationID string) (Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[conversationID]
	if !ok {
		return Conversation{}, ErrConversationNotFound
	}
	return c.Clone(), nil
}

// SendMessage appends a message and broadcasts the updated conversation.
//
// When the assistant is enabled and the sender is not the seller, an
// automated reply is scheduled after the broadcast, outside the critical
// section. SendMessage never waits for the reply.
func (s *Store) SendMessage(conversationID, text string, sender auction.User) error {
	s.mu.Lock()

	c, ok := s.conversations[conversationID]
	if !ok {
		s.mu.Unlock()
		return ErrConversationNotFound
	}

	c.Messages = append(c.Messages, Message{
		ID:        s.ids.Next(),
		Text:      text,
		Sender:    sender,
		Timestamp: s.now(),
	})
	s.broadcast(*c)

	trigger := c.IsBotEnabled && sender.ID != c.Seller.ID
	replies := s.replies
	s.mu.Unlock()

	if trigger && replies != nil {
		replies.ScheduleReply(conversationID, text)
	}
	return nil
}

// ListForUser returns deep copies of every conversation in which the user is
// buyer or seller, in creation order.
func (s *Store) ListForUser(userID int64) []Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Conversation
	for _, id := range s.order {
		c := s.conversations[id]
		if c.Buyer.ID == userID || c.Seller.ID == userID {
			out = append(out, c.Clone())
		}
	}
	return out
}

// ToggleBot sets the assistant flag. Only the conversation's seller may
// toggle it; the flag is enforced here rather than in the UI layer.
func (s *Store) ToggleBot(conversationID string, enabled bool, actor auction.User) (Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[conversationID]
	if !ok {
		return Conversation{}, ErrConversationNotFound
	}
	if c.Seller.ID != actor.ID {
		return Conversation{}, ErrNotSeller
	}

	c.IsBotEnabled = enabled
	s.broadcast(*c)
	return c.Clone(), nil
}

func (s *Store) broadcast(c Conversation) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastConversation(c.Clone())
	}
}
