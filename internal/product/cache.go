package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const notFoundMarker = "notfound"

// CachedRepo is a cache-aside decorator over a Repository. Single products and
// list pages are cached; every write invalidates what it may have touched.
type CachedRepo struct {
	Repository
	redis *redis.Client
	ttl   time.Duration
}

func NewCachedRepo(backing Repository, rdb *redis.Client) *CachedRepo {
	return &CachedRepo{Repository: backing, redis: rdb, ttl: 5 * time.Minute}
}

func productKey(id string) string { return "product:" + id }

func listKey(q Query) string {
	return fmt.Sprintf("products:list:%s:%s:%d:%d", q.Category, q.Q, q.Limit, q.Offset)
}

func (c *CachedRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	key := productKey(id)
	data, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if string(data) == notFoundMarker {
			return nil, ErrNotFound
		}
		var p Product
		if err := json.Unmarshal(data, &p); err == nil {
			return &p, nil
		}
		log.Printf("[cache] failed to unmarshal %s (continuing with DB): %v", key, err)
	case errors.Is(err, redis.Nil):
	default:
		log.Printf("[cache] redis error (continuing with DB): %v", err)
	}

	p, err := c.Repository.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			if setErr := c.redis.Set(ctx, key, notFoundMarker, time.Minute).Err(); setErr != nil {
				log.Printf("[cache] failed to cache notfound: %v", setErr)
			}
		}
		return nil, err
	}
	c.store(ctx, key, p)
	return p, nil
}

func (c *CachedRepo) List(ctx context.Context, q Query) ([]Product, error) {
	q = q.Normalize()
	key := listKey(q)
	data, err := c.redis.Get(ctx, key).Bytes()
	if err == nil {
		var out []Product
		if err := json.Unmarshal(data, &out); err == nil {
			return out, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		log.Printf("[cache] redis error: %v (continuing with DB)", err)
	}

	out, err := c.Repository.List(ctx, q)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, out)
	return out, nil
}

func (c *CachedRepo) Create(ctx context.Context, p *Product) error {
	if err := c.Repository.Create(ctx, p); err != nil {
		return err
	}
	c.invalidate(ctx, p.ID)
	return nil
}

func (c *CachedRepo) Update(ctx context.Context, p *Product) error {
	err := c.Repository.Update(ctx, p)
	c.invalidate(ctx, p.ID)
	return err
}

func (c *CachedRepo) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := c.Repository.Delete(ctx, id)
	c.invalidate(ctx, id)
	return ok, err
}

func (c *CachedRepo) store(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("[cache] failed to marshal %s: %v", key, err)
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		log.Printf("[cache] failed to cache %s: %v", key, err)
	}
}

func (c *CachedRepo) invalidate(ctx context.Context, id string) {
	if err := c.redis.Del(ctx, productKey(id)).Err(); err != nil {
		log.Printf("[cache] failed to delete %s: %v", productKey(id), err)
	}
	iter := c.redis.Scan(ctx, 0, "products:list:*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.redis.Del(ctx, iter.Val()).Err(); err != nil {
			log.Printf("[cache] failed to delete %s: %v", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		log.Printf("[cache] failed to scan list keys: %v", err)
	}
}
