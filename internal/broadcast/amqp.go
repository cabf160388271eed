package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/floroz/bidhub/internal/domain/auction"
	"github.com/floroz/bidhub/internal/domain/chat"
)

const (
	// Exchange is the topic exchange carrying all marketplace updates.
	Exchange = "auction.events"

	productRoutingKey     = "product.updated"
	conversationKeyPrefix = "conversation.updated."
)

// envelope is the wire format for updates crossing process boundaries.
type envelope struct {
	ID           uuid.UUID          `json:"id"`
	Kind         string             `json:"kind"`
	PublishedAt  time.Time          `json:"published_at"`
	Product      *auction.Product   `json:"product,omitempty"`
	Conversation *chat.Conversation `json:"conversation,omitempty"`
}

// Publisher is the network-backed broadcaster: it forwards product and
// conversation updates to a RabbitMQ topic exchange so that other processes
// can replay them into their own local Hub through a Bridge.
//
// Publishing is best effort. Store mutations must not fail because the broker
// is unreachable, so errors are logged and swallowed.
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *slog.Logger
}

// NewPublisher opens a channel and declares the exchange.
func NewPublisher(conn *amqp.Connection, logger *slog.Logger) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		Exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &Publisher{conn: conn, channel: ch, logger: logger}, nil
}

// Close closes the channel.
func (p *Publisher) Close() error {
	return p.channel.Close()
}

// BroadcastProduct implements auction.Broadcaster.
func (p *Publisher) BroadcastProduct(product auction.Product) {
	p.publish(productRoutingKey, envelope{
		ID:          uuid.New(),
		Kind:        productRoutingKey,
		PublishedAt: time.Now(),
		Product:     &product,
	})
}

// BroadcastConversation implements chat.Broadcaster.
func (p *Publisher) BroadcastConversation(c chat.Conversation) {
	p.publish(conversationKeyPrefix+c.ID, envelope{
		ID:           uuid.New(),
		Kind:         "conversation.updated",
		PublishedAt:  time.Now(),
		Conversation: &c,
	})
}

func (p *Publisher) publish(routingKey string, env envelope) {
	body, err := json.Marshal(env)
	if err != nil {
		p.logger.Error("failed to marshal broadcast envelope", "routing_key", routingKey, "error", err)
		return
	}

	err = p.channel.PublishWithContext(context.Background(),
		Exchange,   // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		p.logger.Error("failed to publish broadcast", "routing_key", routingKey, "error", err)
	}
}

// Bridge consumes marketplace updates from the exchange and replays them into
// a local Hub, giving remote subscribers the same fan-out semantics as
// in-process ones.
type Bridge struct {
	conn   *amqp.Connection
	hub    *Hub
	queue  string
	logger *slog.Logger
}

// NewBridge creates a bridge feeding the given hub. The queue name should be
// unique per consuming process.
func NewBridge(conn *amqp.Connection, hub *Hub, queue string, logger *slog.Logger) *Bridge {
	return &Bridge{conn: conn, hub: hub, queue: queue, logger: logger}
}

// Run starts the consume loop and blocks until the context is cancelled or
// the channel closes.
func (b *Bridge) Run(ctx context.Context) error {
	ch, err := b.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if setupErr := b.setup(ch); setupErr != nil {
		return fmt.Errorf("failed to setup rabbitmq: %w", setupErr)
	}

	msgs, err := ch.Consume(
		b.queue, // queue
		"",      // consumer tag
		false,   // auto-ack
		false,   // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // args
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	b.logger.Info("Bridge consuming marketplace updates", "queue", b.queue)

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("channel closed")
			}

			var env envelope
			if err := json.Unmarshal(d.Body, &env); err != nil {
				b.logger.Error("Failed to unmarshal envelope", "error", err)
				// Unparseable now means unparseable forever; drop it.
				if nackErr := d.Nack(false, false); nackErr != nil {
					b.logger.Error("Failed to Nack message", "error", nackErr)
				}
				continue
			}

			switch {
			case env.Product != nil:
				b.hub.BroadcastProduct(*env.Product)
			case env.Conversation != nil:
				b.hub.BroadcastConversation(*env.Conversation)
			default:
				b.logger.Warn("Envelope carries no payload", "kind", env.Kind, "event_id", env.ID)
			}

			if ackErr := d.Ack(false); ackErr != nil {
				b.logger.Error("Failed to Ack message", "error", ackErr)
			}
		}
	}
}

func (b *Bridge) setup(ch *amqp.Channel) error {
	err := ch.ExchangeDeclare(
		Exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // args
	)
	if err != nil {
		return err
	}

	q, err := ch.QueueDeclare(
		b.queue, // name
		true,    // durable
		false,   // delete when unused
		false,   // exclusive
		false,   // no-wait
		nil,     // args
	)
	if err != nil {
		return err
	}

	for _, key := range []string{productRoutingKey, conversationKeyPrefix + "#"} {
		if err := ch.QueueBind(q.Name, key, Exchange, false, nil); err != nil {
			return err
		}
	}
	return nil
}
