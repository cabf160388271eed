package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// FavoritesStore persists per-user favorite product ids as a JSON blob in
// Redis. It implements session.FavoritesStore.
type FavoritesStore struct {
	client *redis.Client
}

// NewFavoritesStore wraps an existing Redis client.
func NewFavoritesStore(client *redis.Client) *FavoritesStore {
	return &FavoritesStore{client: client}
}

func favoritesKey(userID int64) string {
	return fmt.Sprintf("favorites:%d", userID)
}

// Save overwrites the user's favorite set.
func (s *FavoritesStore) Save(ctx context.Context, userID int64, productIDs []int64) error {
	if productIDs == nil {
		productIDs = []int64{}
	}
	blob, err := json.Marshal(productIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal favorites: %w", err)
	}

	if err := s.client.Set(ctx, favoritesKey(userID), blob, 0).Err(); err != nil {
		return fmt.Errorf("failed to save favorites: %w", err)
	}
	return nil
}

// Load returns the user's favorite set; an absent key is an empty set.
func (s *FavoritesStore) Load(ctx context.Context, userID int64) ([]int64, error) {
	blob, err := s.client.Get(ctx, favoritesKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []int64{}, nil
		}
		return nil, fmt.Errorf("failed to load favorites: %w", err)
	}

	var ids []int64
	if err := json.Unmarshal(blob, &ids); err != nil {
		return nil, fmt.Errorf("failed to unmarshal favorites: %w", err)
	}
	return ids, nil
}
