package geolib

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"
)

type cachingBackend struct {
	Backend

	cache *ristretto.Cache
	ttl   time.Duration
}

func (c cachingBackend) Lookup(ctx context.Context, ip string) (Location, error) {
	value, ok := c.cache.Get(ip)
	if ok {
		return value.(Location).Clone(), nil
	}

	result, err := c.Backend.Lookup(ctx, ip)
	if err != nil {
		return result, err
	}

	c.cache.SetWithTTL(ip, result.Clone(), 1, c.ttl)

	return result, nil
}

// NewCachingBackend wraps a backend with a cache of successful lookups.
// It makes sense for paid web services: a same address is not requested
// twice within ttl.
//
// This cache is unrelated to a client location which is remembered by
// GeoResolver.
func NewCachingBackend(backend Backend, itemsCount uint, ttl time.Duration) Backend {
	cacheConfig := &ristretto.Config{
		MaxCost:     int64(itemsCount),
		NumCounters: 10 * int64(itemsCount),
		Metrics:     false,
		BufferItems: 64,
	}

	cache, err := ristretto.NewCache(cacheConfig)
	if err != nil {
		panic(err)
	}

	return cachingBackend{
		Backend: backend,
		cache:   cache,
		ttl:     ttl,
	}
}
