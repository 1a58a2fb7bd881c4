// Package cache provides an optional redis-backed response cache for Merit
// Aktiva master data endpoints.
//
// Merit sends no cache headers and every endpoint is a POST, so entries are
// keyed on the request path plus canonicalized parameters and expire after a
// fixed TTL chosen by the caller. The cache is only suitable for master data
// (accounts, items, units, ...); transactional endpoints extracted in date
// windows must never be served from cache.
//
// # Basic Usage
//
//	manager := cache.NewManager(redisClient)
//
//	key := cache.Key{Path: "v1/getcustomers"}
//	entry, err := manager.Get(ctx, key)
//	if err == cache.ErrCacheMiss {
//		data := fetchFromAPI()
//		_ = manager.Set(ctx, key, cache.NewEntry(data, 15*time.Minute))
//	}
//
// # Metrics
//
// The cache manager exports Prometheus metrics:
//
//   - aktiva_cache_hits_total - Cache hits
//   - aktiva_cache_misses_total - Cache misses
//   - aktiva_cache_errors_total{operation} - Cache operation errors
package cache
