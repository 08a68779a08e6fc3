package cache

import (
	"context"

	"github.com/DanieLevy/eyetask-sub000/stats"
	"github.com/DanieLevy/eyetask-sub000/types"
)

/*
Cache defines the PUBLIC API of the caching subsystem.
This is a contract that guarantees certain behaviors, without exposing internals.
All of the details like (sharding, expiration, namespace tracking, concurrency, and statistics)
are hidden behind this interface.
*/
type Cache interface {

	/*
		Get retrieves the value associated with the given key.

		BEHAVIOR:
		---------
		1. If the key exists in cache and is NOT expired:
		   - Return (value, true) immediately (cache hit)

		2. If the key is expired:
		   - Remove it, count a miss, return (nil, false)

		3. If the key does not exist:
		   - Count a miss, return (nil, false)

		Get never performs I/O; use GetOrSet for read-through behavior.
	*/
	Get(key string, opts ...Option) (any, bool)

	/*
		Set stores a key-value pair in the cache.

		BEHAVIOR:
		---------
		- Overwrites any previous entry for the key unconditionally
		- WithTTL controls the entry lifetime (absent => indefinite)
		- WithNamespace registers the entry under a partition label
	*/
	Set(key string, value any, opts ...Option)

	/*
		GetOrSet returns the cached value, or produces and caches it.

		BEHAVIOR:
		---------
		- On hit the producer is never invoked
		- On miss the producer runs once per miss burst (concurrent misses
		  on the same key are collapsed) and its result is cached
		- A producer failure is returned unchanged and nothing is cached
	*/
	GetOrSet(ctx context.Context, key string, producer types.Producer, opts ...Option) (any, error)

	/*
		Delete removes a key from the cache immediately.

		BEHAVIOR:
		---------
		- Reports whether an entry was actually removed
		- Removing a non-existing key is safe

		USE CASES:
		----------
		- Manual invalidation
		- Data consistency after updates
	*/
	Delete(key string, opts ...Option) bool

	/*
		Clear removes entries in bulk.

		BEHAVIOR:
		---------
		- Clear("") empties the whole cache
		- Clear(ns) removes only that namespace's entries, matched by the
		  stored namespace field or the "{ns}:" key prefix
		- Returns the number of entries removed
	*/
	Clear(namespace string) int

	/*
		Stats returns a non-mutating snapshot of cache state:
		size, hit/miss counters, hit ratio, per-namespace counts, and an
		age distribution over <1min / <5min / <1hr / >1hr buckets.
	*/
	Stats() stats.Snapshot

	/*
		Namespaces lists every namespace with at least one live entry
		tracked in the index.
	*/
	Namespaces() []string

	/*
		Close gracefully shuts down the cache.

		BEHAVIOR:
		---------
		- Stops the background sweep goroutine
		- Safe to call more than once

		WHEN TO CALL:
		-------------
		- Application shutdown
		- Tests cleanup
	*/
	Close()
}

// TTLCache is the canonical implementation.
var _ Cache = (*TTLCache)(nil)
