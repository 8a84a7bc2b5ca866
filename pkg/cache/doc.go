// Package cache stores backend list responses in Redis so that repeated page
// requests can be revalidated with conditional requests.
//
// Features:
//
// - Deterministic keys from resource path and query parameters
// - TTL from the Expires or Cache-Control: max-age response headers
// - ETag (If-None-Match) and Last-Modified (If-Modified-Since) revalidation
// - Purge of every cached page of a resource after a write
// - Prometheus metrics
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	manager := cache.NewManager(redisClient)
//
//	key := cache.Key{
//		Resource: "/v1/admissions/cohort",
//		Query:    url.Values{"limit": {"10"}, "offset": {"0"}},
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if err == cache.ErrCacheMiss {
//		// fetch from the backend
//	}
//
// # HTTP Response Caching
//
//	entry, err := cache.ResponseToEntry(resp)
//	if err != nil {
//		return err
//	}
//	if err := manager.Set(ctx, key, entry); err != nil {
//		return err
//	}
//
// # Conditional Requests
//
//	if cache.ShouldMakeConditionalRequest(entry) {
//		cache.AddConditionalHeaders(req, entry)
//		// a 304 answer means entry is still current
//	}
//
// # Metrics
//
//   - admin_cache_hits_total{layer="redis"} - Cache hits
//   - admin_cache_misses_total - Cache misses
//   - admin_cache_size_bytes{layer="redis"} - Bytes written
//   - admin_304_responses_total - Conditional request successes
//   - admin_conditional_requests_total - Conditional requests sent
//   - admin_cache_errors_total{operation} - Cache operation errors
//
// Responses carrying Cache-Control: no-store are never cached.
package cache
