//go:build integration

package broadcast_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"

	"github.com/floroz/bidhub/internal/broadcast"
	"github.com/floroz/bidhub/internal/domain/auction"
	"github.com/floroz/bidhub/internal/domain/chat"
)

// TestPublisherBridgeRoundTrip verifies the cross-process broadcast path with
// a real RabbitMQ container: updates published in one "process" are replayed
// into another process's local hub.
func TestPublisherBridgeRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	rabbitmqContainer, err := rabbitmq.Run(ctx,
		"rabbitmq:3.12-management-alpine",
		rabbitmq.WithAdminPassword("password"),
	)
	require.NoError(t, err)
	defer func() {
		if termErr := rabbitmqContainer.Terminate(ctx); termErr != nil {
			t.Fatalf("failed to terminate container: %s", termErr)
		}
	}()

	amqpURL, err := rabbitmqContainer.AmqpURL(ctx)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Publishing side.
	pubConn, err := amqp091.Dial(amqpURL)
	require.NoError(t, err)
	defer pubConn.Close()

	publisher, err := broadcast.NewPublisher(pubConn, logger)
	require.NoError(t, err)
	defer publisher.Close()

	// Consuming side: a bridge feeding a fresh local hub.
	conConn, err := amqp091.Dial(amqpURL)
	require.NoError(t, err)
	defer conConn.Close()

	remoteHub := broadcast.NewHub(logger)
	bridge := broadcast.NewBridge(conConn, remoteHub, "bidhub-test-bridge", logger)

	bridgeCtx, cancelBridge := context.WithCancel(ctx)
	defer cancelBridge()
	go func() {
		_ = bridge.Run(bridgeCtx)
	}()

	productUpdates := make(chan auction.Product, 1)
	remoteHub.SubscribeProducts(func(p auction.Product) {
		productUpdates <- p
	})

	conversationUpdates := make(chan chat.Conversation, 1)
	remoteHub.SubscribeConversation("10-2", func(c chat.Conversation) {
		conversationUpdates <- c
	})

	// The bridge's queue binding has to be in place before publishing; give
	// the consume loop a moment to set up.
	time.Sleep(2 * time.Second)

	publisher.BroadcastProduct(auction.Product{
		ID:            10,
		Name:          "Vintage Leather Jacket",
		StartingPrice: 120,
		Bids: []auction.Bid{
			{ID: 20, Amount: 150, Bidder: auction.User{ID: 2, Name: "Bob"}},
		},
		Seller: auction.User{ID: 1, Name: "Alice"},
	})

	select {
	case p := <-productUpdates:
		assert.Equal(t, int64(10), p.ID)
		assert.Equal(t, "Vintage Leather Jacket", p.Name)
		require.Len(t, p.Bids, 1)
		assert.Equal(t, int64(150), p.Bids[0].Amount)
	case <-time.After(10 * time.Second):
		t.Fatal("Timeout waiting for product update via RabbitMQ")
	}

	publisher.BroadcastConversation(chat.Conversation{
		ID:     "10-2",
		Buyer:  auction.User{ID: 2, Name: "Bob"},
		Seller: auction.User{ID: 1, Name: "Alice"},
		Messages: []chat.Message{
			{ID: 30, Text: "Is it genuine leather?", Sender: auction.User{ID: 2, Name: "Bob"}},
		},
	})

	select {
	case c := <-conversationUpdates:
		assert.Equal(t, "10-2", c.ID)
		require.Len(t, c.Messages, 1)
		assert.Equal(t, "Is it genuine leather?", c.Messages[0].Text)
	case <-time.After(10 * time.Second):
		t.Fatal("Timeout waiting for conversation update via RabbitMQ")
	}
}
