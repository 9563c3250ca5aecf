package service

import (
	"context"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/redisclient"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Catalog is a read-through cache over the Postgres catalog. It satisfies
// checkout.CatalogReader. Cache failures fall back to the database.
type Catalog struct {
	store  *store.Store
	redis  *redisclient.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCatalog creates a cached catalog reader. redisClient may be nil, in
// which case every read goes to the database.
func NewCatalog(st *store.Store, redisClient *redisclient.Client, ttl time.Duration) *Catalog {
	return &Catalog{
		store:  st,
		redis:  redisClient,
		ttl:    ttl,
		logger: util.GetLogger(),
	}
}

// GetProduct resolves a product, preferring the cache.
func (c *Catalog) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	if c.redis != nil {
		product, err := c.redis.GetProduct(ctx, id)
		if err == nil {
			util.CatalogCacheHitsTotal.WithLabelValues("hit").Inc()
			return product, nil
		}
		if err != redis.Nil {
			c.logger.Warn("Catalog cache read failed, falling back to DB",
				zap.Int64("product_id", id), zap.Error(err))
		}
		util.CatalogCacheHitsTotal.WithLabelValues("miss").Inc()
	}

	product, err := c.store.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if c.redis != nil {
		if err := c.redis.SetProduct(ctx, product, c.ttl); err != nil {
			c.logger.Warn("Failed to cache product",
				zap.Int64("product_id", id), zap.Error(err))
		}
	}

	return product, nil
}

// GetAddonGroups resolves addon groups in the order of the requested ids,
// mixing cache hits with a single database fetch for the misses.
func (c *Catalog) GetAddonGroups(ctx context.Context, ids []int64) ([]models.AddonGroup, error) {
	cached := make(map[int64]models.AddonGroup, len(ids))
	var missing []int64

	if c.redis != nil {
		for _, id := range ids {
			group, err := c.redis.GetAddonGroup(ctx, id)
			if err == nil {
				util.CatalogCacheHitsTotal.WithLabelValues("hit").Inc()
				cached[id] = *group
				continue
			}
			if err != redis.Nil {
				c.logger.Warn("Catalog cache read failed, falling back to DB",
					zap.Int64("group_id", id), zap.Error(err))
			}
			util.CatalogCacheHitsTotal.WithLabelValues("miss").Inc()
			missing = append(missing, id)
		}
	} else {
		missing = ids
	}

	if len(missing) > 0 {
		groups, err := c.store.GetAddonGroupsByIDs(ctx, missing)
		if err != nil {
			return nil, err
		}
		for _, group := range groups {
			cached[group.ID] = group
			if c.redis != nil {
				g := group
				if err := c.redis.SetAddonGroup(ctx, &g, c.ttl); err != nil {
					c.logger.Warn("Failed to cache addon group",
						zap.Int64("group_id", group.ID), zap.Error(err))
				}
			}
		}
	}

	ordered := make([]models.AddonGroup, 0, len(ids))
	for _, id := range ids {
		if group, ok := cached[id]; ok {
			ordered = append(ordered, group)
		}
	}
	return ordered, nil
}
