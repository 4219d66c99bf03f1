// Package cache is a small read-through cache for public business lookups,
// which every storefront request hits.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/waconnect/storefront-backend/models"
)

const businessTTL = 5 * time.Minute

// BusinessCache caches business records by subdomain. A nil *BusinessCache
// is valid and always misses.
type BusinessCache struct {
	client *redis.Client
}

func NewBusinessCache(addr string) *BusinessCache {
	return &BusinessCache{client: redis.NewClient(&redis.Options{Addr: addr})}
}

func key(subdomain string) string { return "business:subdomain:" + subdomain }

func (c *BusinessCache) Get(ctx context.Context, subdomain string) (*models.Business, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, key(subdomain)).Bytes()
	if err != nil {
		return nil, false
	}
	var b models.Business
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, false
	}
	return &b, true
}

func (c *BusinessCache) Set(ctx context.Context, b *models.Business) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(b)
	if err != nil {
		return
	}
	c.client.Set(ctx, key(b.Subdomain), raw, businessTTL)
}
