// This file defines how the cache reports what it is doing.

package stats

import (
	"sync/atomic"
	"time"
)

/*
Collector counts cache lifecycle events.

Unlike a fire-and-forget metrics sink, these counters must be readable back:
the surrounding application exposes them on an admin page to judge cache
effectiveness (hit ratio, expiry churn).

Counters are monotonically increasing for the lifetime of the process. They are
never reset; only a process restart starts them over.

All counters are atomics, so recording an event never takes a lock and never
slows down the read path.
*/
type Collector struct {
	hits    atomic.Uint64
	misses  atomic.Uint64
	expired atomic.Uint64
}

func NewCollector() *Collector {
	return &Collector{}
}

// Hit is called when the cache successfully returns a value.
func (c *Collector) Hit() { c.hits.Add(1) }

// Miss is called when the cache does NOT find a live value for a key.
func (c *Collector) Miss() { c.misses.Add(1) }

// Expire is called when a key is removed because it has passed its TTL.
func (c *Collector) Expire() { c.expired.Add(1) }

func (c *Collector) Hits() uint64    { return c.hits.Load() }
func (c *Collector) Misses() uint64  { return c.misses.Load() }
func (c *Collector) Expired() uint64 { return c.expired.Load() }

// HitRatio returns hits / (hits + misses), or 0 when nothing has been asked yet.
func (c *Collector) HitRatio() float64 {
	h := c.hits.Load()
	m := c.misses.Load()
	if h+m == 0 {
		return 0
	}
	return float64(h) / float64(h+m)
}

/*
Snapshot is a point-in-time view of the cache assembled for introspection.

Size counts entries physically present, which may include expired entries the
sweep has not reached yet. That is intentional: Size answers "how much memory
is this holding", not "how many keys would a Get find".
*/
type Snapshot struct {
	Size            int
	HitCount        uint64
	MissCount       uint64
	HitRatio        float64
	Namespaces      map[string]int
	AgeDistribution map[string]int
}

// Age-distribution buckets, measured from an entry's CreatedAt.
const (
	BucketUnderMinute = "<1min"
	BucketUnderFive   = "<5min"
	BucketUnderHour   = "<1hr"
	BucketOverHour    = ">1hr"
)

// AgeBucket sorts an entry age into its distribution bucket.
func AgeBucket(age time.Duration) string {
	switch {
	case age < time.Minute:
		return BucketUnderMinute
	case age < 5*time.Minute:
		return BucketUnderFive
	case age < time.Hour:
		return BucketUnderHour
	default:
		return BucketOverHour
	}
}
