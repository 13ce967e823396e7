// Package cache provides a Redis-backed cache for rendered listing pages.
//
// Only cursor-less requests (first pages) are cached: they are by far the
// hottest pages, and keying them needs no cursor in the key. Entries carry a
// short TTL and every order write invalidates the whole resource, so a stale
// first page can only be observed within the TTL window after an external
// writer touches the database directly.
//
// Example usage:
//
//	manager := cache.NewManager(redisClient, 30*time.Second)
//
//	key := cache.Key{Resource: "orders", Limit: 20}
//	entry, err := manager.Get(ctx, key)
//	if err == cache.ErrCacheMiss {
//		// render from the database, then:
//		_ = manager.Set(ctx, key, &cache.Entry{Payload: body})
//	}
//
// Cache failures must never fail a request: callers fall back to the
// database and the error is only counted and logged.
package cache
