package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/floroz/bidhub/internal/domain/auction"
)

// Notification mirrors the payload handed to the external notification
// collaborator. Tag lets the collaborator collapse repeats of the same
// logical event.
type Notification struct {
	Body string
	Icon string
	Tag  string
}

// Notifier delivers a notification to the viewer. Fire-and-forget; the
// tracker never consumes a result.
type Notifier interface {
	Notify(title string, n Notification)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(title string, n Notification)

func (f NotifierFunc) Notify(title string, n Notification) { f(title, n) }

// Tracker derives per-viewer state from the product broadcast stream:
// outbid events on each update, win events on a recurring check. It only
// consumes broadcasts and never mutates store state.
type Tracker struct {
	mu       sync.Mutex
	viewer   auction.User
	notifier Notifier
	logger   *slog.Logger

	known       map[int64]auction.Product
	notifiedWin map[int64]struct{} // grow-only; a win is flagged at most once
}

// NewTracker creates a tracker for one viewer.
func NewTracker(viewer auction.User, notifier Notifier, logger *slog.Logger) *Tracker {
	return &Tracker{
		viewer:      viewer,
		notifier:    notifier,
		logger:      logger,
		known:       make(map[int64]auction.Product),
		notifiedWin: make(map[int64]struct{}),
	}
}

// Load seeds the tracker with the initial product snapshot, before
// subscribing to live updates.
func (t *Tracker) Load(products []auction.Product) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, p := range products {
		t.known[p.ID] = p.Clone()
	}
}

// HandleProductUpdate consumes one product broadcast. Subscribe this method
// on the hub's product feed. It must not call back into a store.
func (t *Tracker) HandleProductUpdate(p auction.Product) {
	t.mu.Lock()

	var outbid bool
	if prev, ok := t.known[p.ID]; ok {
		prevBidder, hadBidder := prev.HighestBidder()
		newBidder, hasBidder := p.HighestBidder()
		outbid = hadBidder && prevBidder.ID == t.viewer.ID &&
			(!hasBidder || newBidder.ID != t.viewer.ID)
	}
	t.known[p.ID] = p.Clone()
	t.mu.Unlock()

	if outbid {
		t.logger.Debug("viewer outbid", "viewer", t.viewer.ID, "product", p.ID)
		t.notifier.Notify("You have been outbid!", Notification{
			Body: fmt.Sprintf("Someone placed a higher bid on %q.", p.Name),
			Icon: p.ImageURL,
			Tag:  fmt.Sprintf("outbid-%d", p.ID),
		})
	}
}

// CheckWins evaluates every known product: ended, viewer holds the current
// bid, not yet flagged. Each win is notified exactly once no matter how many
// times the check runs.
func (t *Tracker) CheckWins(now time.Time) {
	t.mu.Lock()
	var wins []auction.Product
	for id, p := range t.known {
		if _, done := t.notifiedWin[id]; done {
			continue
		}
		winner, ok := p.Winner(now)
		if ok && winner.ID == t.viewer.ID {
			t.notifiedWin[id] = struct{}{}
			wins = append(wins, p)
		}
	}
	t.mu.Unlock()

	for _, p := range wins {
		t.logger.Debug("viewer won auction", "viewer", t.viewer.ID, "product", p.ID)
		t.notifier.Notify("Congratulations, you won!", Notification{
			Body: fmt.Sprintf("You won the auction for %q.", p.Name),
			Icon: p.ImageURL,
			Tag:  fmt.Sprintf("win-%d", p.ID),
		})
	}
}

// Run drives the recurring win check until the context is cancelled.
func (t *Tracker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			t.CheckWins(time.Now())
		}
	}
}
