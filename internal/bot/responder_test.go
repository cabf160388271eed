package bot_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floroz/bidhub/internal/bot"
	"github.com/floroz/bidhub/internal/broadcast"
	"github.com/floroz/bidhub/internal/domain/auction"
	"github.com/floroz/bidhub/internal/domain/chat"
	"github.com/floroz/bidhub/internal/ident"
)

// stubGenerator records requests and returns a canned reply.
type stubGenerator struct {
	mu       sync.Mutex
	requests []bot.ReplyRequest
	reply    string
}

func (g *stubGenerator) GenerateReply(_ context.Context, req bot.ReplyRequest) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	return g.reply
}

func (g *stubGenerator) all() []bot.ReplyRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]bot.ReplyRequest(nil), g.requests...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupMarketplace wires real stores, a real hub and the responder with a
// short delay, mirroring the production composition.
func setupMarketplace(t *testing.T, gen bot.TextGenerator) (*auction.Store, *chat.Store, *broadcast.Hub, auction.User, auction.User, chat.Conversation) {
	t.Helper()

	logger := testLogger()
	hub := broadcast.NewHub(logger)
	ids := ident.NewGeneratorAt(1000)

	products := auction.NewStore(ids, hub)
	conversations := chat.NewStore(ids, products, hub)

	responder := bot.NewResponder(conversations, products, gen, 10*time.Millisecond, logger)
	conversations.AttachResponder(responder)

	seller := auction.User{ID: 1, Name: "Alice"}
	buyer := auction.User{ID: 2, Name: "Bob"}

	jacket := products.Add(auction.Draft{
		Name:          "Vintage Leather Jacket",
		Description:   "A classic vintage leather jacket from the 1980s.",
		StartingPrice: 75,
		EndDate:       time.Now().Add(48 * time.Hour),
		Seller:        seller,
	})
	products.Add(auction.Draft{
		Name:          "Antique World Map",
		StartingPrice: 120,
		EndDate:       time.Now().Add(5 * time.Hour),
		Seller:        seller,
	})

	conv, err := conversations.GetOrCreate(jacket.ID, buyer)
	require.NoError(t, err)
	_, err = conversations.ToggleBot(conv.ID, true, seller)
	require.NoError(t, err)

	return products, conversations, hub, seller, buyer, conv
}

func TestResponder_RepliesAsSeller(t *testing.T) {
	gen := &stubGenerator{reply: "🤖 Bot: Yes, the jacket is still available."}
	_, conversations, hub, seller, buyer, conv := setupMarketplace(t, gen)

	var mu sync.Mutex
	var broadcasts []chat.Conversation
	sub := hub.SubscribeConversation(conv.ID, func(c chat.Conversation) {
		mu.Lock()
		defer mu.Unlock()
		broadcasts = append(broadcasts, c)
	})
	defer sub.Unsubscribe()

	require.NoError(t, conversations.SendMessage(conv.ID, "do you have other jackets?", buyer))

	// One broadcast for the buyer message, one for the bot reply.
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(broadcasts) == 2
	}, 2*time.Second, 5*time.Millisecond)

	got, err := conversations.Get(conv.ID)
	require.NoError(t, err)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, buyer, got.Messages[0].Sender)
	assert.Equal(t, seller, got.Messages[1].Sender, "bot replies as the seller identity")
	assert.Equal(t, gen.reply, got.Messages[1].Text)
}

func TestResponder_PromptContext(t *testing.T) {
	gen := &stubGenerator{reply: "🤖 Bot: I also have an Antique World Map listed."}
	_, conversations, _, _, buyer, conv := setupMarketplace(t, gen)

	require.NoError(t, conversations.SendMessage(conv.ID, "what else are you selling?", buyer))

	require.Eventually(t, func() bool {
		return len(gen.all()) == 1
	}, 2*time.Second, 5*time.Millisecond)

	req := gen.all()[0]
	assert.Equal(t, "Vintage Leather Jacket", req.Product.Name)
	assert.Equal(t, "what else are you selling?", req.Question)
	require.Len(t, req.OtherListings, 1, "the product under discussion is excluded from the catalog context")
	assert.Equal(t, "Antique World Map", req.OtherListings[0].Name)
}

func TestResponder_SeesMessagesArrivedDuringDelay(t *testing.T) {
	gen := &stubGenerator{reply: "🤖 Bot: Answering your first question."}
	_, conversations, _, _, buyer, conv := setupMarketplace(t, gen)

	require.NoError(t, conversations.SendMessage(conv.ID, "first question", buyer))
	// A second message lands while the responder timer for the first is
	// pending. Both messages must survive; nothing may be clobbered.
	require.NoError(t, conversations.SendMessage(conv.ID, "second question", buyer))

	require.Eventually(t, func() bool {
		got, err := conversations.Get(conv.ID)
		return err == nil && len(got.Messages) == 4
	}, 2*time.Second, 5*time.Millisecond, "two buyer messages and two bot replies")
}

func TestResponder_EmptyGenerationFallsBack(t *testing.T) {
	gen := &stubGenerator{reply: ""}
	_, conversations, _, _, buyer, conv := setupMarketplace(t, gen)

	require.NoError(t, conversations.SendMessage(conv.ID, "hello?", buyer))

	require.Eventually(t, func() bool {
		got, err := conversations.Get(conv.ID)
		return err == nil && len(got.Messages) == 2
	}, 2*time.Second, 5*time.Millisecond)

	got, err := conversations.Get(conv.ID)
	require.NoError(t, err)
	assert.Equal(t, bot.FallbackReply, got.Messages[1].Text)
}
