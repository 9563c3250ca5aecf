package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront-service/internal/models"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// GetProduct retrieves a cached product. Returns redis.Nil on miss.
func (c *Client) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	data, err := c.rdb.Get(ctx, productKey(id)).Bytes()
	if err != nil {
		return nil, err
	}

	var product models.Product
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, fmt.Errorf("failed to decode cached product: %w", err)
	}
	return &product, nil
}

// SetProduct caches a product with a TTL
func (c *Client) SetProduct(ctx context.Context, product *models.Product, ttl time.Duration) error {
	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("failed to encode product: %w", err)
	}
	return c.rdb.Set(ctx, productKey(product.ID), data, ttl).Err()
}

// GetAddonGroup retrieves a cached addon group. Returns redis.Nil on miss.
func (c *Client) GetAddonGroup(ctx context.Context, id int64) (*models.AddonGroup, error) {
	data, err := c.rdb.Get(ctx, groupKey(id)).Bytes()
	if err != nil {
		return nil, err
	}

	var group models.AddonGroup
	if err := json.Unmarshal(data, &group); err != nil {
		return nil, fmt.Errorf("failed to decode cached addon group: %w", err)
	}
	return &group, nil
}

// SetAddonGroup caches an addon group with a TTL
func (c *Client) SetAddonGroup(ctx context.Context, group *models.AddonGroup, ttl time.Duration) error {
	data, err := json.Marshal(group)
	if err != nil {
		return fmt.Errorf("failed to encode addon group: %w", err)
	}
	return c.rdb.Set(ctx, groupKey(group.ID), data, ttl).Err()
}

// InvalidateProduct drops a product and nothing else from the cache
func (c *Client) InvalidateProduct(ctx context.Context, id int64) error {
	return c.rdb.Del(ctx, productKey(id)).Err()
}

func productKey(id int64) string {
	return fmt.Sprintf("catalog:product:%d", id)
}

func groupKey(id int64) string {
	return fmt.Sprintf("catalog:group:%d", id)
}
