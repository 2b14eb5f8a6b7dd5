// Package iocache is for caching tracker searches.
package iocache

import (
	"sync"

	"github.com/flowmosaic/mosaic/internal/contract"
)

// CacheStoreManager manages the CacheStore instances of a run.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointer during initialization
	search       contract.CacheStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// GetSearchStore returns the store holding cached search results.
func (mgr *CacheStoreManager) GetSearchStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.search
}
