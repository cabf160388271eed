package auction

import "time"

// User identifies a participant. Created once at login and never mutated.
type User struct {
	ID   int64
	Name string
}

// Bid is a single accepted bid on a product. Immutable once created.
type Bid struct {
	ID        int64
	Amount    int64
	Timestamp time.Time
	Bidder    User
}

// Product is an auction listing together with its full bid history.
//
// EndDate is fixed at creation. The auction is over strictly after EndDate
// has passed.
type Product struct {
	ID            int64
	Name          string
	Description   string
	ImageURL      string
	StartingPrice int64
	Bids          []Bid
	EndDate       time.Time
	Seller        User
}

// Draft carries the caller-supplied fields for a new listing. The store
// assigns the id and the empty bid list.
type Draft struct {
	Name          string
	Description   string
	ImageURL      string
	StartingPrice int64
	EndDate       time.Time
	Seller        User
}

// Clone returns a deep copy of the product. The bid list is copied so the
// caller cannot reach store-internal state through the returned value.
func (p Product) Clone() Product {
	out := p
	out.Bids = make([]Bid, len(p.Bids))
	copy(out.Bids, p.Bids)
	return out
}

// HighestBid returns the bid with the maximum amount, or false when the
// product has no bids. Ties are resolved in favour of the earliest bid.
func (p Product) HighestBid() (Bid, bool) {
	if len(p.Bids) == 0 {
		return Bid{}, false
	}
	best := p.Bids[0]
	for _, b := range p.Bids[1:] {
		if b.Amount > best.Amount {
			best = b
		}
	}
	return best, true
}

// HighestBidder returns the bidder holding the current bid, or false when
// the product is unbid.
func (p Product) HighestBidder() (User, bool) {
	bid, ok := p.HighestBid()
	if !ok {
		return User{}, false
	}
	return bid.Bidder, true
}

// CurrentBidAmount is the effective current bid: the maximum bid amount, or
// the starting price when the product is unbid.
func (p Product) CurrentBidAmount() int64 {
	if bid, ok := p.HighestBid(); ok {
		return bid.Amount
	}
	return p.StartingPrice
}

// IsOver reports whether the auction has ended at the given instant.
// The comparison is strict: the auction is still live at exactly EndDate.
func (p Product) IsOver(now time.Time) bool {
	return now.After(p.EndDate)
}

// Winner returns the winning bidder. It is defined only when the auction is
// over and at least one bid was placed.
func (p Product) Winner(now time.Time) (User, bool) {
	if !p.IsOver(now) {
		return User{}, false
	}
	return p.HighestBidder()
}
