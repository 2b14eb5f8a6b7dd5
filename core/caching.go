package core

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/flowmosaic/mosaic/internal/contract"
	"github.com/flowmosaic/mosaic/schema"
)

// currentCacheVersion defines the version of the cached ticket encoding
const currentCacheVersion = 1

// cachedSearch serves a completed-ticket search from the cache when a fresh entry exists.
// Windows reaching today bypass the cache, since tickets may still resolve inside them.
func cachedSearch(ctx context.Context, cfg *contract.Config, client contract.TrackerClient, mgr contract.CacheManager, obs contract.Observer, query, expr string) ([]schema.Ticket, error) {
	if windowStillOpen(cfg.Request) {
		return search(ctx, client, obs, query, expr)
	}
	var store contract.CacheStore
	if mgr != nil {
		store = mgr.GetSearchStore()
	}
	if store == nil {
		return search(ctx, client, obs, query, expr)
	}

	key := generateCacheKey(cfg.Server, expr)
	if tickets, ok := checkCacheHit(store, key, cfg.CacheTTL); ok {
		obs.Observe(schema.Event{Kind: schema.CacheHitEvent, Query: query, Count: len(tickets), Detail: expr})
		return tickets, nil
	}
	return searchAndStore(ctx, client, obs, store, query, expr, key)
}

// windowStillOpen reports whether the request window ends today or later.
func windowStillOpen(req schema.Request) bool {
	return !schema.TruncateDate(req.EndDate).Before(schema.TruncateDate(req.Now))
}

// checkCacheHit attempts to retrieve and validate a cached result.
// A non-positive ttl never expires entries.
func checkCacheHit(store contract.CacheStore, key string, ttl time.Duration) ([]schema.Ticket, bool) {
	data, version, ts, err := store.Get(key)
	if err != nil {
		return nil, false // Cache miss
	}

	// Validate version and staleness
	if version != currentCacheVersion {
		return nil, false
	}
	if ttl > 0 && time.Since(time.Unix(ts, 0)) > ttl {
		return nil, false
	}
	var tickets []schema.Ticket
	if err := json.Unmarshal(data, &tickets); err != nil {
		return nil, false
	}
	return tickets, true
}

// searchAndStore runs the search and stores the result in cache
func searchAndStore(ctx context.Context, client contract.TrackerClient, obs contract.Observer, store contract.CacheStore, query, expr, key string) ([]schema.Ticket, error) {
	tickets, err := search(ctx, client, obs, query, expr)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(tickets); err == nil {
		if err := store.Set(key, data, currentCacheVersion, time.Now().Unix()); err != nil {
			contract.LogWarn("Cannot store search result", err)
		}
	}
	return tickets, nil
}

// search runs one tracker search, bracketed by events.
func search(ctx context.Context, client contract.TrackerClient, obs contract.Observer, query, expr string) ([]schema.Ticket, error) {
	obs.Observe(schema.Event{Kind: schema.SearchStartedEvent, Query: query, Detail: expr})
	tickets, err := client.Search(ctx, expr)
	if err != nil {
		return nil, err
	}
	obs.Observe(schema.Event{Kind: schema.SearchFinishedEvent, Query: query, Count: len(tickets)})
	return tickets, nil
}

// generateCacheKey creates a unique key for a search on one tracker
func generateCacheKey(server, expr string) string {
	key := fmt.Sprintf("%s:%s", server, expr)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}
