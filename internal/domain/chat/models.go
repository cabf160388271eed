package chat

import (
	"fmt"
	"time"

	"github.com/floroz/bidhub/internal/domain/auction"
)

// Message is a single chat message. Immutable once created, append-only
// within a conversation.
type Message struct {
	ID        int64
	Text      string
	Sender    auction.User
	Timestamp time.Time
}

// Conversation is a buyer/seller thread about one product.
//
// Product is a snapshot taken when the conversation was created; it is not
// refreshed as bids arrive. The chat is about the item as listed, so later
// bid activity is deliberately invisible here.
type Conversation struct {
	ID           string
	Product      auction.Product
	Buyer        auction.User
	Seller       auction.User
	Messages     []Message
	IsBotEnabled bool
}

// ConversationID derives the deterministic composite key for a
// (product, buyer) pair. One conversation exists per pair.
func ConversationID(productID, buyerID int64) string {
	return fmt.Sprintf("%d-%d", productID, buyerID)
}

// Clone returns a deep copy of the conversation.
func (c Conversation) Clone() Conversation {
	out := c
	out.Product = c.Product.Clone()
	out.Messages = make([]Message, len(c.Messages))
	copy(out.Messages, c.Messages)
	return out
}
