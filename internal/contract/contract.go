// Package contract provides interfaces and shared utilities for mosaic's internal architecture.
package contract

import (
	"context"

	"github.com/flowmosaic/mosaic/schema"
)

// TrackerClient runs a search against the issue tracker.
// Implementations return every matching ticket with its full changelog;
// result order carries no meaning.
type TrackerClient interface {
	Search(ctx context.Context, expr string) ([]schema.Ticket, error)
}

// Observer receives the structured events emitted by the metrics engine.
type Observer interface {
	Observe(ev schema.Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ev schema.Event)

// Observe implements Observer.
func (f ObserverFunc) Observe(ev schema.Event) { f(ev) }

// NopObserver discards every event.
var NopObserver Observer = ObserverFunc(func(schema.Event) {})

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetSearchStore() CacheStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}
