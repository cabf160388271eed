package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/floroz/bidhub/internal/adapters/api"
	"github.com/floroz/bidhub/internal/adapters/gemini"
	"github.com/floroz/bidhub/internal/adapters/redisstore"
	"github.com/floroz/bidhub/internal/bot"
	"github.com/floroz/bidhub/internal/broadcast"
	"github.com/floroz/bidhub/internal/domain/auction"
	"github.com/floroz/bidhub/internal/domain/chat"
	"github.com/floroz/bidhub/internal/domain/session"
	"github.com/floroz/bidhub/internal/ident"
	"github.com/floroz/bidhub/pkg/auth"
)

const winCheckInterval = 10 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// Local overrides first, shared defaults second. Both files are optional.
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	signer, err := auth.NewSigner([]byte(secret), "bidhub", 24*time.Hour)
	if err != nil {
		return err
	}

	hub := broadcast.NewHub(logger)
	sinks := fanout{hub}

	// The AMQP forwarder is optional: without a broker every update still
	// reaches in-process subscribers through the hub.
	if url := os.Getenv("RABBITMQ_URL"); url != "" {
		conn, err := amqp.Dial(url)
		if err != nil {
			return err
		}
		defer conn.Close()

		publisher, err := broadcast.NewPublisher(conn, logger)
		if err != nil {
			return err
		}
		defer publisher.Close()
		sinks = append(sinks, publisher)
		logger.Info("RabbitMQ connected, forwarding updates", "exchange", broadcast.Exchange)
	}

	ids := ident.NewGenerator()
	products := auction.NewStore(ids, sinks)
	conversations := chat.NewStore(ids, products, sinks)

	generator, err := gemini.NewClient(ctx, os.Getenv("GEMINI_API_KEY"), os.Getenv("GEMINI_MODEL"), logger)
	if err != nil {
		return err
	}

	replyDelay := bot.DefaultReplyDelay
	if v := os.Getenv("BOT_REPLY_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		replyDelay = d
	}
	responder := bot.NewResponder(conversations, products, generator, replyDelay, logger)
	conversations.AttachResponder(responder)

	var favorites session.FavoritesStore
	if url := os.Getenv("REDIS_URL"); url != "" {
		opts, err := redis.ParseURL(url)
		if err != nil {
			return err
		}
		rdb := redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		defer rdb.Close()
		favorites = redisstore.NewFavoritesStore(rdb)
		logger.Info("Redis connected, favorites enabled")
	}

	users := api.NewUserDirectory()
	demoUsers, err := seed(users, products, conversations)
	if err != nil {
		return err
	}
	logger.Info("Demo data seeded", "users", len(demoUsers), "products", len(products.List()))

	router := gin.New()
	router.Use(gin.Recovery())
	api.NewHandler(logger, signer, users, products, conversations, hub, generator, favorites).Register(router)

	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":8080"
	}
	server := &http.Server{
		Addr:    addr,
		Handler: h2c.NewHandler(router, &http2.Server{}),
	}

	g, ctx := errgroup.WithContext(ctx)

	// Server-side trackers for the demo users: outbid and win events show up
	// in the logs without a connected client.
	for _, user := range demoUsers {
		tracker := session.NewTracker(user, logNotifier(logger, user), logger)
		tracker.Load(products.List())
		sub := hub.SubscribeProducts(tracker.HandleProductUpdate)
		g.Go(func() error {
			defer sub.Unsubscribe()
			return tracker.Run(ctx, winCheckInterval)
		})
	}

	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// fanout delivers every update to all sinks in order. The hub always comes
// first so in-process subscribers never wait on the network path.
type fanout []interface {
	BroadcastProduct(auction.Product)
	BroadcastConversation(chat.Conversation)
}

func (f fanout) BroadcastProduct(p auction.Product) {
	for _, s := range f {
		s.BroadcastProduct(p)
	}
}

func (f fanout) BroadcastConversation(c chat.Conversation) {
	for _, s := range f {
		s.BroadcastConversation(c)
	}
}

func logNotifier(logger *slog.Logger, user auction.User) session.NotifierFunc {
	return func(title string, n session.Notification) {
		logger.Info("notification", "user", user.Name, "title", title, "body", n.Body, "tag", n.Tag)
	}
}

// seed provisions the demo marketplace: three users, a few listings, one
// opening bid.
func seed(users *api.UserDirectory, products *auction.Store, conversations *chat.Store) ([]auction.User, error) {
	alice := auction.User{ID: 1, Name: "Alice"}
	bob := auction.User{ID: 2, Name: "Bob"}
	charlie := auction.User{ID: 3, Name: "Charlie"}

	for _, u := range []auction.User{alice, bob, charlie} {
		if err := users.Register(u, "password"); err != nil {
			return nil, err
		}
	}

	chair := products.Add(auction.Draft{
		Name:          "Modern Ergonomic Chair",
		Description:   "A comfortable and stylish chair for your home office.",
		ImageURL:      "https://picsum.photos/seed/chair/600/400",
		StartingPrice: 250,
		EndDate:       time.Now().Add(72 * time.Hour),
		Seller:        bob,
	})
	products.Add(auction.Draft{
		Name:          "Antique World Map",
		Description:   "A beautifully preserved map from the 18th century.",
		ImageURL:      "https://picsum.photos/seed/map/600/400",
		StartingPrice: 300,
		EndDate:       time.Now().Add(48 * time.Hour),
		Seller:        alice,
	})
	jacket := products.Add(auction.Draft{
		Name:          "Vintage Leather Jacket",
		Description:   "A classic vintage leather jacket from the 1980s.",
		ImageURL:      "https://picsum.photos/seed/jacket/600/400",
		StartingPrice: 120,
		EndDate:       time.Now().Add(24 * time.Hour),
		Seller:        alice,
	})

	if _, err := products.PlaceBid(jacket.ID, 150, bob); err != nil {
		return nil, err
	}

	// An opening conversation so the chat surface is populated on first login.
	conversation, err := conversations.GetOrCreate(chair.ID, charlie)
	if err != nil {
		return nil, err
	}
	if err := conversations.SendMessage(conversation.ID, "Hi! Is the chair still available?", charlie); err != nil {
		return nil, err
	}

	return []auction.User{alice, bob, charlie}, nil
}
