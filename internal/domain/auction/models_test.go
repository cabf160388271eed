package auction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProduct_CurrentBidAmount(t *testing.T) {
	alice := User{ID: 1, Name: "Alice"}
	bob := User{ID: 2, Name: "Bob"}

	tests := []struct {
		name    string
		product Product
		want    int64
	}{
		{
			name:    "starting price when unbid",
			product: Product{StartingPrice: 120},
			want:    120,
		},
		{
			name: "maximum bid amount",
			product: Product{
				StartingPrice: 75,
				Bids: []Bid{
					{ID: 1, Amount: 80, Bidder: bob},
					{ID: 2, Amount: 95, Bidder: alice},
					{ID: 3, Amount: 90, Bidder: bob},
				},
			},
			want: 95,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.product.CurrentBidAmount())
		})
	}
}

func TestProduct_HighestBid_TieGoesToEarliest(t *testing.T) {
	alice := User{ID: 1, Name: "Alice"}
	bob := User{ID: 2, Name: "Bob"}

	p := Product{
		StartingPrice: 50,
		Bids: []Bid{
			{ID: 10, Amount: 100, Bidder: alice},
			{ID: 11, Amount: 100, Bidder: bob},
		},
	}

	bid, ok := p.HighestBid()
	assert.True(t, ok)
	assert.Equal(t, int64(10), bid.ID)
	assert.Equal(t, alice, bid.Bidder)
}

func TestProduct_HighestBidder_Unbid(t *testing.T) {
	p := Product{StartingPrice: 50}

	_, ok := p.HighestBidder()
	assert.False(t, ok)
}

func TestProduct_IsOver(t *testing.T) {
	end := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	p := Product{EndDate: end}

	assert.False(t, p.IsOver(end.Add(-time.Second)))
	assert.False(t, p.IsOver(end), "auction is still live at exactly the end date")
	assert.True(t, p.IsOver(end.Add(time.Second)))
}

func TestProduct_Winner(t *testing.T) {
	alice := User{ID: 1, Name: "Alice"}
	end := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("defined when over and bid upon", func(t *testing.T) {
		p := Product{
			EndDate: end,
			Bids:    []Bid{{ID: 1, Amount: 80, Bidder: alice}},
		}
		winner, ok := p.Winner(end.Add(time.Hour))
		assert.True(t, ok)
		assert.Equal(t, alice, winner)
	})

	t.Run("undefined while live", func(t *testing.T) {
		p := Product{
			EndDate: end,
			Bids:    []Bid{{ID: 1, Amount: 80, Bidder: alice}},
		}
		_, ok := p.Winner(end.Add(-time.Hour))
		assert.False(t, ok)
	})

	t.Run("undefined when unbid", func(t *testing.T) {
		p := Product{EndDate: end}
		_, ok := p.Winner(end.Add(time.Hour))
		assert.False(t, ok)
	})
}

func TestProduct_Clone_Isolation(t *testing.T) {
	alice := User{ID: 1, Name: "Alice"}
	p := Product{
		ID:            7,
		StartingPrice: 50,
		Bids:          []Bid{{ID: 1, Amount: 80, Bidder: alice}},
	}

	clone := p.Clone()
	clone.Bids[0].Amount = 9999
	clone.Bids = append(clone.Bids, Bid{ID: 2, Amount: 10000})

	assert.Equal(t, int64(80), p.Bids[0].Amount)
	assert.Len(t, p.Bids, 1)
}
