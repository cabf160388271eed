package auction

import (
	"fmt"
	"sync"
	"time"

	"github.com/floroz/bidhub/internal/ident"
)

// Validation errors
var (
	ErrProductNotFound = fmt.Errorf("product not found")
	ErrSellerCannotBid = fmt.Errorf("seller cannot bid on their own item")
	ErrBidTooLow       = fmt.Errorf("bid amount must be higher than current bid")
)

// Store is the authoritative in-memory table of products.
//
// All mutations run under a single mutex, so a bid validated against the
// current bid always sees the effect of every previously accepted bid, and no
// reader ever observes a partially applied update. Broadcasts happen inside
// the critical section: accept-and-broadcast is atomic from the perspective
// of subscribers.
type Store struct {
	mu          sync.Mutex
	ids         *ident.Generator
	broadcaster Broadcaster
	now         func() time.Time

	// newest-first; ids are monotonic so this is also id-descending
	products []*Product
	byID     map[int64]*Product
}

// NewStore creates an empty product store.
func NewStore(ids *ident.Generator, broadcaster Broadcaster) *Store {
	return &Store{
		ids:         ids,
		broadcaster: broadcaster,
		now:         time.Now,
		products:    []*Product{},
		byID:        make(map[int64]*Product),
	}
}

// List returns a deep snapshot of all products, newest first.
func (s *Store) List() []Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Product, len(s.products))
	for i, p := range s.products {
		out[i] = p.Clone()
	}
	return out
}

// Get returns a deep copy of a single product.
func (s *Store) Get(productID int64) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[productID]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return p.Clone(), nil
}

// ListBySeller returns deep copies of every product listed by the given
// seller, newest first.
func (s *Store) ListBySeller(sellerID int64) []Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Product
	for _, p := range s.products {
		if p.Seller.ID == sellerID {
			out = append(out, p.Clone())
		}
	}
	return out
}

// PlaceBid validates and applies a bid, broadcasts the updated product and
// returns a deep copy of it.
//
// The amount must be strictly greater than the current bid. Accepted bids are
// never re-validated afterwards.
func (s *Store) PlaceBid(productID int64, amount int64, bidder User) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[productID]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	if p.Seller.ID == bidder.ID {
		return Product{}, ErrSellerCannotBid
	}
	if amount <= p.CurrentBidAmount() {
		return Product{}, ErrBidTooLow
	}

	p.Bids = append(p.Bids, Bid{
		ID:        s.ids.Next(),
		Amount:    amount,
		Timestamp: s.now(),
		Bidder:    bidder,
	})

	s.broadcast(*p)
	return p.Clone(), nil
}

// Add creates a listing from a draft, prepends it to the table, broadcasts it
// and returns a deep copy. The store imposes no validation beyond what the
// caller already enforced.
func (s *Store) Add(draft Draft) Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := &Product{
		ID:            s.ids.Next(),
		Name:          draft.Name,
		Description:   draft.Description,
		ImageURL:      draft.ImageURL,
		StartingPrice: draft.StartingPrice,
		Bids:          []Bid{},
		EndDate:       draft.EndDate,
		Seller:        draft.Seller,
	}

	s.products = append([]*Product{p}, s.products...)
	s.byID[p.ID] = p

	s.broadcast(*p)
	return p.Clone()
}

func (s *Store) broadcast(p Product) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastProduct(p.Clone())
	}
}
