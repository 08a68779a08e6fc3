package engine

import (
	"time"

	"github.com/DanieLevy/eyetask-sub000/expiration"
	"github.com/DanieLevy/eyetask-sub000/refresh"
	"github.com/DanieLevy/eyetask-sub000/stats"
	"github.com/DanieLevy/eyetask-sub000/types"
)

/*
CacheEngine is the "brain" of the cache system.
It is responsible for the "behavior" of the cache, NOT storage.
This acts as the policy layer.

It decides:
- When data is expired
- How TTL is applied on writes (and, for sliding strategies, on reads)
- When refresh hooks are triggered
- How lifecycle events are counted

It does NOT:
- Store data
- Handle sharding
- Handle locking
- Talk to the network
*/
type CacheEngine struct {

	// Expiration controls when a cache entry should be considered "too old".
	// If this is nil, entries only expire through their own explicit TTLs.
	Expiration expiration.Strategy

	// Refresh is an optional hook that runs when data is read.
	// This is used when we want to refresh data in the background
	// without blocking the current request.
	// If nil, no refresh logic is executed.
	Refresh refresh.Hook

	// Stats counts hits, misses and expirations. Always non-nil.
	Stats *stats.Collector
}

/*
NewCacheEngine creates a CacheEngine.
*/
func NewCacheEngine(
	exp expiration.Strategy,
	hook refresh.Hook,
	collector *stats.Collector,
) *CacheEngine {

	// Ensure the collector is always non-nil
	// This avoids defensive nil checks throughout the codebase
	if collector == nil {
		collector = stats.NewCollector()
	}

	return &CacheEngine{
		Expiration: exp,
		Refresh:    hook,
		Stats:      collector,
	}
}

/*
IsExpired checks whether a cache entry is expired.

BEHAVIOR:
---------
- Delegates the decision to the configured Expiration strategy
- Uses current wall-clock time
- Falls back to the entry's own TTL if no strategy is configured
*/
func (e *CacheEngine) IsExpired(ent *types.CacheEntry) bool {
	now := time.Now()
	if e.Expiration != nil {
		return e.Expiration.IsExpired(ent, now)
	}
	return ent.Expired(now)
}

/*
OnRead is called every time the cache successfully returns a value.

Typical things that happen here:
- Push TTL forward for expire-after-access strategies
- Trigger a background refresh
*/
func (e *CacheEngine) OnRead(key string, ent *types.CacheEntry) {
	now := time.Now()

	// Some expiration strategies (like sliding TTL) care about reads
	if e.Expiration != nil {
		e.Expiration.OnAccess(ent, now)
	}

	// Refresh is optional and best-effort.
	// It should never slow down the read path.
	if e.Refresh != nil {
		e.Refresh.OnRead(key, ent)
	}
}

/*
OnWrite is called whenever something is written to the cache.

This is where expiration rules related to writes are applied:
the strategy may fill in a default TTL for entries written without one.
*/
func (e *CacheEngine) OnWrite(ent *types.CacheEntry) {
	if e.Expiration != nil {
		e.Expiration.OnWrite(ent, time.Now())
	}
}
