package bot

import (
	"context"
	"log/slog"
	"time"

	"github.com/floroz/bidhub/internal/domain/auction"
	"github.com/floroz/bidhub/internal/domain/chat"
)

// DefaultReplyDelay approximates the assistant's "thinking time" before a
// reply is posted.
const DefaultReplyDelay = 1500 * time.Millisecond

// FallbackReply is posted when text generation fails; the conversation always
// eventually gets a reply.
const FallbackReply = "🤖 Bot: I encountered an error. Please ask the seller directly."

// ReplyRequest carries the context handed to the text-generation
// collaborator.
type ReplyRequest struct {
	Product       auction.Product
	OtherListings []auction.Product
	Question      string
}

// TextGenerator produces the assistant's reply text. Implementations must
// absorb their own failures: the returned string is posted verbatim, so on
// error they return a human-readable fallback instead of propagating.
type TextGenerator interface {
	GenerateReply(ctx context.Context, req ReplyRequest) string
}

// ConversationStore is the slice of the chat store the responder needs.
type ConversationStore interface {
	Get(conversationID string) (chat.Conversation, error)
	SendMessage(conversationID, text string, sender auction.User) error
}

// SellerCatalog resolves a seller's full listing set for prompt context.
type SellerCatalog interface {
	ListBySeller(sellerID int64) []auction.Product
}

// Responder schedules and posts automated seller replies. It implements
// chat.ReplyScheduler.
//
// Tasks are fire-and-forget: no cancellation, no ordering relative to
// messages sent in the interim. The conversation is re-read when the timer
// fires so replies land on current state rather than the state at trigger
// time. A burst of buyer messages produces one in-flight task each.
type Responder struct {
	conversations ConversationStore
	catalog       SellerCatalog
	gen           TextGenerator
	delay         time.Duration
	logger        *slog.Logger
}

// NewResponder creates a responder. A non-positive delay falls back to
// DefaultReplyDelay.
func NewResponder(
	conversations ConversationStore,
	catalog SellerCatalog,
	gen TextGenerator,
	delay time.Duration,
	logger *slog.Logger,
) *Responder {
	if delay <= 0 {
		delay = DefaultReplyDelay
	}
	return &Responder{
		conversations: conversations,
		catalog:       catalog,
		gen:           gen,
		delay:         delay,
		logger:        logger,
	}
}

// ScheduleReply implements chat.ReplyScheduler. Returns immediately; the
// reply is produced on a timer goroutine.
func (r *Responder) ScheduleReply(conversationID, question string) {
	time.AfterFunc(r.delay, func() {
		r.reply(conversationID, question)
	})
}

func (r *Responder) reply(conversationID, question string) {
	// Re-read current state: messages may have arrived since the trigger.
	conv, err := r.conversations.Get(conversationID)
	if err != nil {
		r.logger.Error("responder: conversation vanished before reply", "conversation", conversationID, "error", err)
		return
	}

	others := make([]auction.Product, 0)
	for _, p := range r.catalog.ListBySeller(conv.Seller.ID) {
		if p.ID != conv.Product.ID {
			others = append(others, p)
		}
	}

	text := r.gen.GenerateReply(context.Background(), ReplyRequest{
		Product:       conv.Product,
		OtherListings: others,
		Question:      question,
	})
	if text == "" {
		text = FallbackReply
	}

	// Post through the normal append+broadcast path. The reply is authored
	// by the seller identity and, since the sender is the seller, it cannot
	// re-trigger the responder.
	if err := r.conversations.SendMessage(conversationID, text, conv.Seller); err != nil {
		r.logger.Error("responder: failed to post reply", "conversation", conversationID, "error", err)
	}
}
