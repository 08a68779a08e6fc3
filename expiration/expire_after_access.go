package expiration

import (
	"time"

	"github.com/DanieLevy/eyetask-sub000/types"
)

/*
ExpireAfterAccess implements a very common cache behavior called "expire after access" or "sliding TTL".
Every time someone reads the data, the expiration timer is pushed forward. As long as the data keeps
getting used, it stays alive. If nobody touches it for a while, it expires.
*/
type ExpireAfterAccess struct {

	// TTL (Time-To-Live) defines how long the entry should remain valid AFTER it is accessed.
	TTL time.Duration
}

// IsExpired checks whether the entry is expired at this moment.
func (e *ExpireAfterAccess) IsExpired(ent *types.CacheEntry, now time.Time) bool {
	return ent.Expired(now)
}

/*
OnAccess is called every time the cache successfully returns a value. This is the key part of "expire after access":
the expiry is pushed forward by TTL on every read.
*/
func (e *ExpireAfterAccess) OnAccess(ent *types.CacheEntry, now time.Time) {
	ent.ExpireAt = now.Add(e.TTL)
}

/*
OnWrite is called when the entry is first written or replaced in the cache.
We only set ExpireAt if it is currently zero, so an explicit per-entry TTL wins.
*/
func (e *ExpireAfterAccess) OnWrite(ent *types.CacheEntry, now time.Time) {
	if ent.ExpireAt.IsZero() && e.TTL > 0 {
		ent.ExpireAt = now.Add(e.TTL)
	}
}
