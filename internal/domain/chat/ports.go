package chat

import "github.com/floroz/bidhub/internal/domain/auction"

// ProductCatalog is the slice of the auction store the conversation store
// needs: resolving the product a conversation is about.
type ProductCatalog interface {
	Get(productID int64) (auction.Product, error)
}

// Broadcaster receives every conversation mutation. Called synchronously from
// inside the store's critical section; implementations must never call back
// into the store.
type Broadcaster interface {
	BroadcastConversation(Conversation)
}

// BroadcasterFunc adapts a function to the Broadcaster interface.
type BroadcasterFunc func(Conversation)

func (f BroadcasterFunc) BroadcastConversation(c Conversation) { f(c) }

// ReplyScheduler queues an automated seller reply to a buyer message. The
// call must not block: the reply arrives later through the store's normal
// SendMessage path.
type ReplyScheduler interface {
	ScheduleReply(conversationID, question string)
}
