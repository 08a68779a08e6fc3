package cache

import (
	"context"
	"strings"
	"time"

	"github.com/DanieLevy/eyetask-sub000/engine"
	"github.com/DanieLevy/eyetask-sub000/namespace"
	"github.com/DanieLevy/eyetask-sub000/shard"
	"github.com/DanieLevy/eyetask-sub000/stats"
	"github.com/DanieLevy/eyetask-sub000/types"
	"golang.org/x/sync/singleflight"
)

// DefaultSweepInterval is how often the background sweep removes expired
// entries when the caller does not choose an interval.
const DefaultSweepInterval = 60 * time.Second

/*
TTLCache is the main cache implementation.
This struct is the orchestrator that connects:
- shards
- expiration
- the namespace index
- statistics
- the background sweep

One instance is created at process start and handed to consumers; there is no
package-level singleton on purpose.
*/
type TTLCache struct {
	// shards are the actual storage units. Each shard is an independent mini-cache.
	shards []*shard.Shard

	// engine contains the "rules" of the cache: TTL strategy, refresh hook, stats.
	engine *engine.CacheEngine

	// selector decides which shard a key should go to.
	selector shard.Selector

	// names tracks which namespaces currently hold live entries.
	names *namespace.Index

	// singleflight collapses concurrent GetOrSet misses on the same key so the
	// producer runs once per miss burst instead of once per caller.
	sf singleflight.Group

	// Sweep goroutine ownership. Close cancels ctx and waits for the loop.
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
	sweepEvery time.Duration
}

/*
NewTTLCache creates the cache and starts its background sweep.

sweepEvery <= 0 disables the sweep (lazy expiration on read still works).
eng may be nil, in which case a plain engine with no strategy and fresh
counters is used.
*/
func NewTTLCache(shards int, sweepEvery time.Duration, eng *engine.CacheEngine) *TTLCache {
	if shards < 1 {
		shards = 1
	}
	if eng == nil {
		eng = engine.NewCacheEngine(nil, nil, nil)
	}

	// Create shards
	s := make([]*shard.Shard, shards)
	for i := range s {
		s[i] = shard.NewShard()
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &TTLCache{
		shards:     s,
		engine:     eng,
		selector:   &shard.HashSelector{},
		names:      namespace.NewIndex(),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		sweepEvery: sweepEvery,
	}

	go c.sweepLoop()

	return c
}

/*
Get retrieves a value from the cache.

BEHAVIOR:
---------
1. Present and live  → hit, value returned
2. Present but expired → entry removed, counted as a miss
3. Absent → miss

Expired entries are removed HERE, on read. This is the "lazy" half of expiry;
the background sweep is the other half. Either may fire first, both are
idempotent.
*/
func (c *TTLCache) Get(key string, opts ...Option) (any, bool) {
	o := applyOptions(opts)
	ck := compositeKey(o.namespace, key)

	sh := c.selector.Select(ck, c.shards)

	if ent, ok := sh.Store.Get(ck); ok {
		if c.engine.IsExpired(ent) {
			c.engine.Stats.Expire()
			c.removeEntry(sh, ck)
		} else {
			// Cache hit
			c.engine.Stats.Hit()

			// Sliding-TTL / refresh logic
			c.engine.OnRead(ck, ent)

			return ent.Value, true
		}
	}

	// Cache miss
	c.engine.Stats.Miss()
	return nil, false
}

/*
Set stores a value in the cache.

The entry is replaced wholesale: any previous value, TTL, or namespace binding
for the key is overwritten unconditionally. Concurrent writers to the same key
are last-write-wins.
*/
func (c *TTLCache) Set(key string, value any, opts ...Option) {
	o := applyOptions(opts)
	ck := compositeKey(o.namespace, key)

	sh := c.selector.Select(ck, c.shards)

	// Lock shard for safe writes
	sh.WriteMu.Lock()
	defer sh.WriteMu.Unlock()

	now := time.Now()
	ent := &types.CacheEntry{
		Key:       ck,
		Value:     value,
		Namespace: o.namespace,
		CreatedAt: now,
	}

	// If TTL is provided, set expiration time. A negative TTL lands in the
	// past, which makes the entry expired from birth.
	if o.ttl != 0 {
		ent.ExpireAt = now.Add(o.ttl)
	}

	// Let the strategy fill in a default TTL
	c.engine.OnWrite(ent)

	// Keep the namespace index balanced across overwrites
	if prev, ok := sh.Store.Get(ck); ok {
		c.names.Remove(prev.Namespace)
	}
	sh.Store.Put(ck, ent)
	c.names.Add(o.namespace)
}

/*
Delete removes a key from the cache immediately.
It reports whether anything was actually removed.
*/
func (c *TTLCache) Delete(key string, opts ...Option) bool {
	o := applyOptions(opts)
	ck := compositeKey(o.namespace, key)

	sh := c.selector.Select(ck, c.shards)

	sh.WriteMu.Lock()
	defer sh.WriteMu.Unlock()

	ent, ok := sh.Store.Get(ck)
	if !ok {
		return false
	}
	sh.Store.Delete(ck)
	c.names.Remove(ent.Namespace)
	return true
}

/*
Clear removes entries in bulk and returns how many were removed.

With an empty namespace, everything goes. With a namespace, an entry is removed
when its stored namespace matches OR its key carries the "{ns}:" prefix. The
prefix check is the defensive half: callers sometimes hand over keys that were
pre-composed elsewhere, so the stored field alone cannot be trusted.

Once a namespace has no entries left, it disappears from the index.
*/
func (c *TTLCache) Clear(ns string) int {
	prefix := ns + ":"
	removed := 0

	for _, sh := range c.shards {
		sh.WriteMu.Lock()
		removed += sh.Store.DeleteFunc(func(ent *types.CacheEntry) bool {
			match := ns == "" ||
				ent.Namespace == ns ||
				strings.HasPrefix(ent.Key, prefix)
			if match {
				c.names.Remove(ent.Namespace)
			}
			return match
		})
		sh.WriteMu.Unlock()
	}

	return removed
}

/*
GetOrSet is the read-through path: return the cached value, or produce and
cache it.

BEHAVIOR:
---------
1. On hit, the value is returned and the producer is NEVER invoked.
2. On miss, the producer runs, its result is stored, and the result is returned.
3. On producer failure, NOTHING is cached and the failure is returned to the
   caller unchanged. The next call tries again.

Concurrent misses on the same key are collapsed through singleflight:
only ONE caller runs the producer, the rest wait for and share its result.

The producer is the only operation here that may block. No shard lock is held
while it runs.
*/
func (c *TTLCache) GetOrSet(ctx context.Context, key string, producer types.Producer, opts ...Option) (any, error) {
	if v, ok := c.Get(key, opts...); ok {
		return v, nil
	}

	o := applyOptions(opts)
	ck := compositeKey(o.namespace, key)

	/*
		singleflight ensures that:
		- If 100 goroutines miss on the same key,
		  only ONE of them invokes the producer.
		- Others wait for the result.
	*/
	val, err, _ := c.sf.Do(ck, func() (any, error) {
		return producer(ctx)
	})
	if err != nil {
		return nil, err
	}

	c.Set(key, val, opts...)
	return val, nil
}

/*
Stats assembles a point-in-time snapshot: physical size, hit/miss counters,
hit ratio, per-namespace counts, and an age distribution bucketed from each
entry's CreatedAt.

Stats never mutates the cache and never blocks writers (it walks copy-on-write
snapshots). A Get/Set racing with Stats simply lands in the next snapshot.
*/
func (c *TTLCache) Stats() stats.Snapshot {
	now := time.Now()

	snap := stats.Snapshot{
		HitCount:        c.engine.Stats.Hits(),
		MissCount:       c.engine.Stats.Misses(),
		HitRatio:        c.engine.Stats.HitRatio(),
		Namespaces:      c.names.Counts(),
		AgeDistribution: make(map[string]int),
	}

	for _, sh := range c.shards {
		snap.Size += int(sh.Store.Size())
		sh.Store.Range(func(ent *types.CacheEntry) bool {
			snap.AgeDistribution[stats.AgeBucket(now.Sub(ent.CreatedAt))]++
			return true
		})
	}

	return snap
}

// Namespaces lists every namespace with at least one tracked entry. Between
// expiry events the index may briefly lag actual contents; that is accepted.
func (c *TTLCache) Namespaces() []string {
	return c.names.List()
}

/*
Close stops the background sweep and waits for it to exit.
Safe to call more than once.
*/
func (c *TTLCache) Close() {
	c.cancel()
	<-c.done
}

// removeEntry deletes one expired entry found on the read path.
// Takes the shard write lock itself; callers must not hold it.
func (c *TTLCache) removeEntry(sh *shard.Shard, ck string) {
	sh.WriteMu.Lock()
	defer sh.WriteMu.Unlock()

	// Re-check under the lock: a concurrent Set may have replaced the entry
	// with a live one since we looked.
	ent, ok := sh.Store.Get(ck)
	if !ok || !c.engine.IsExpired(ent) {
		return
	}
	sh.Store.Delete(ck)
	c.names.Remove(ent.Namespace)
}
