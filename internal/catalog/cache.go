package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisclient "github.com/angelmondragon/storefront/pkg/redis"
	"github.com/angelmondragon/storefront/pkg/types"
	"go.uber.org/multierr"
)

// Cache is a read-through store for catalog reads. A miss is reported with ok=false
// and a nil error.
type Cache interface {
	GetListing(ctx context.Context, filter types.ProductFilter) ([]types.Product, bool, error)
	SetListing(ctx context.Context, filter types.ProductFilter, products []types.Product) error
	GetProduct(ctx context.Context, productID string) (*types.Product, bool, error)
	SetProduct(ctx context.Context, product types.Product) error
	Invalidate(ctx context.Context, productIDs ...string) error
}

// NoopCache is used when no Redis URL is configured.
type NoopCache struct{}

func (NoopCache) GetListing(context.Context, types.ProductFilter) ([]types.Product, bool, error) {
	return nil, false, nil
}

func (NoopCache) SetListing(context.Context, types.ProductFilter, []types.Product) error {
	return nil
}

func (NoopCache) GetProduct(context.Context, string) (*types.Product, bool, error) {
	return nil, false, nil
}

func (NoopCache) SetProduct(context.Context, types.Product) error {
	return nil
}

func (NoopCache) Invalidate(context.Context, ...string) error {
	return nil
}

type redisStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Generation(ctx context.Context) (int64, error)
	BumpGeneration(ctx context.Context) (int64, error)
	ListingKey(generation int64, category, search string) string
	ProductKey(productID string) string
}

// RedisCache stores JSON-encoded catalog reads. Listings are keyed by a generation
// counter so one increment orphans every cached filter combination.
type RedisCache struct {
	store redisStore
	ttl   time.Duration
}

var _ redisStore = (*redisclient.Client)(nil)

func NewRedisCache(store redisStore, ttl time.Duration) (*RedisCache, error) {
	if store == nil {
		return nil, fmt.Errorf("redis store is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("catalog cache ttl must be positive")
	}
	return &RedisCache{store: store, ttl: ttl}, nil
}

func (c *RedisCache) GetListing(ctx context.Context, filter types.ProductFilter) ([]types.Product, bool, error) {
	key, err := c.listingKey(ctx, filter)
	if err != nil {
		return nil, false, err
	}
	var products []types.Product
	ok, err := c.read(ctx, key, &products)
	return products, ok, err
}

func (c *RedisCache) SetListing(ctx context.Context, filter types.ProductFilter, products []types.Product) error {
	key, err := c.listingKey(ctx, filter)
	if err != nil {
		return err
	}
	return c.write(ctx, key, products)
}

func (c *RedisCache) GetProduct(ctx context.Context, productID string) (*types.Product, bool, error) {
	var product types.Product
	ok, err := c.read(ctx, c.store.ProductKey(productID), &product)
	if !ok || err != nil {
		return nil, ok, err
	}
	return &product, true, nil
}

func (c *RedisCache) SetProduct(ctx context.Context, product types.Product) error {
	return c.write(ctx, c.store.ProductKey(product.ID), product)
}

// Invalidate orphans every listing and drops the named product entries.
func (c *RedisCache) Invalidate(ctx context.Context, productIDs ...string) error {
	_, err := c.store.BumpGeneration(ctx)
	if len(productIDs) == 0 {
		return err
	}
	keys := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		if id != "" {
			keys = append(keys, c.store.ProductKey(id))
		}
	}
	if len(keys) > 0 {
		err = multierr.Append(err, c.store.Del(ctx, keys...))
	}
	return err
}

func (c *RedisCache) listingKey(ctx context.Context, filter types.ProductFilter) (string, error) {
	gen, err := c.store.Generation(ctx)
	if err != nil {
		return "", err
	}
	return c.store.ListingKey(gen, filter.Category, filter.Search), nil
}

func (c *RedisCache) read(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := c.store.Get(ctx, key)
	if errors.Is(err, redisclient.ErrMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, fmt.Errorf("decoding cached %s: %w", key, err)
	}
	return true, nil
}

func (c *RedisCache) write(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return c.store.Set(ctx, key, string(payload), c.ttl)
}
