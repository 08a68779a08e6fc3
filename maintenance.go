package cache

import (
	"time"

	"github.com/DanieLevy/eyetask-sub000/types"
)

/*
This file is the "active" half of expiry.

Lazy expiration on Get only removes entries somebody still reads. Keys that are
set once and never read again would sit in memory forever, so a background
sweep walks the shards on a fixed interval and removes everything whose TTL has
passed. Both halves are independent and idempotent; either may fire first.
*/

// sweepLoop runs until Close. With a non-positive interval it only waits for
// shutdown, leaving expiry entirely to the lazy path.
func (c *TTLCache) sweepLoop() {
	defer close(c.done)

	if c.sweepEvery <= 0 {
		<-c.ctx.Done()
		return
	}

	ticker := time.NewTicker(c.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case now := <-ticker.C:
			c.sweep(now)
		}
	}
}

// sweep removes every entry expired at the given instant and returns how many
// were removed. It checks the entry's own TTL directly, deliberately not the
// engine's strategy: the two expiry paths must not depend on each other.
func (c *TTLCache) sweep(now time.Time) int {
	removed := 0

	for _, sh := range c.shards {
		sh.WriteMu.Lock()
		removed += sh.Store.DeleteFunc(func(ent *types.CacheEntry) bool {
			if !ent.Expired(now) {
				return false
			}
			c.engine.Stats.Expire()
			c.names.Remove(ent.Namespace)
			return true
		})
		sh.WriteMu.Unlock()
	}

	return removed
}
