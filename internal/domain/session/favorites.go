package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// FavoritesStore is the external blob store holding a user's favorite
// product ids. The session layer does not validate the ids it stores.
type FavoritesStore interface {
	Save(ctx context.Context, userID int64, productIDs []int64) error
	Load(ctx context.Context, userID int64) ([]int64, error)
}

// Favorites is a per-user favorite set, persisted through the blob store on
// every change and loaded once at construction.
type Favorites struct {
	mu     sync.Mutex
	userID int64
	store  FavoritesStore
	ids    map[int64]struct{}
}

// LoadFavorites builds the favorite set for a user from the blob store.
func LoadFavorites(ctx context.Context, store FavoritesStore, userID int64) (*Favorites, error) {
	saved, err := store.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load favorites for user %d: %w", userID, err)
	}

	ids := make(map[int64]struct{}, len(saved))
	for _, id := range saved {
		ids[id] = struct{}{}
	}

	return &Favorites{userID: userID, store: store, ids: ids}, nil
}

// Toggle flips a product in or out of the set and persists the result.
// Returns whether the product is favorited after the call.
func (f *Favorites) Toggle(ctx context.Context, productID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, favorited := f.ids[productID]
	if favorited {
		delete(f.ids, productID)
	} else {
		f.ids[productID] = struct{}{}
	}

	if err := f.store.Save(ctx, f.userID, f.snapshot()); err != nil {
		// Roll back so in-memory state keeps matching what was persisted.
		if favorited {
			f.ids[productID] = struct{}{}
		} else {
			delete(f.ids, productID)
		}
		return favorited, fmt.Errorf("persist favorites for user %d: %w", f.userID, err)
	}

	return !favorited, nil
}

// Contains reports whether a product is favorited.
func (f *Favorites) Contains(productID int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.ids[productID]
	return ok
}

// IDs returns the favorite product ids in ascending order.
func (f *Favorites) IDs() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot()
}

func (f *Favorites) snapshot() []int64 {
	out := make([]int64, 0, len(f.ids))
	for id := range f.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
