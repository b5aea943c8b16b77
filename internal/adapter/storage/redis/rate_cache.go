package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RateSnapshot is a normalized oracle reading served to public readers.
type RateSnapshot struct {
	Rate      *big.Int `json:"rate"`
	UpdatedAt int64    `json:"updated_at"`
}

// RateCache keeps the last peeked oracle rate for a short TTL so public
// rate reads across replicas do not each hit the feed.
type RateCache struct {
	client goredis.UniversalClient
	key    string
	ttl    time.Duration
}

// NewRateCache creates a rate cache. A non-positive ttl disables caching.
func NewRateCache(client goredis.UniversalClient, ttl time.Duration) *RateCache {
	return &RateCache{client: client, key: "schnl:oracle:rate", ttl: ttl}
}

// Get returns the cached snapshot, or nil if none is cached.
func (c *RateCache) Get(ctx context.Context) (*RateSnapshot, error) {
	if c.ttl <= 0 {
		return nil, nil
	}
	raw, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis rate cache get: %w", err)
	}
	var snap RateSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode cached rate: %w", err)
	}
	return &snap, nil
}

// Set stores snap for the configured TTL.
func (c *RateCache) Set(ctx context.Context, snap RateSnapshot) error {
	if c.ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode rate snapshot: %w", err)
	}
	if err := c.client.Set(ctx, c.key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis rate cache set: %w", err)
	}
	return nil
}
