package expiration

import (
	"time"

	"github.com/DanieLevy/eyetask-sub000/types"
)

/*
ExpireAfterWrite is the classic fixed-TTL behavior: the expiry clock starts when
the entry is written and is never pushed forward by reads.

This is the default for the subsystem. Each entry may carry its own explicit TTL
(set by the caller at write time); the strategy's TTL only fills in a default for
entries written without one.
*/
type ExpireAfterWrite struct {

	// TTL is the default lifetime applied to entries written without an
	// explicit TTL. Zero means such entries never expire.
	TTL time.Duration
}

// IsExpired checks whether the entry is expired at this moment.
func (e *ExpireAfterWrite) IsExpired(ent *types.CacheEntry, now time.Time) bool {
	return ent.Expired(now)
}

// OnAccess does nothing: reads never extend a fixed TTL.
func (e *ExpireAfterWrite) OnAccess(ent *types.CacheEntry, now time.Time) {}

/*
OnWrite is called when the entry is first written or replaced in the cache.

We only set ExpireAt if it is currently zero. Because the caller might have explicitly set a TTL.
We do NOT want to overwrite an explicit TTL.
*/
func (e *ExpireAfterWrite) OnWrite(ent *types.CacheEntry, now time.Time) {
	if ent.ExpireAt.IsZero() && e.TTL > 0 {
		ent.ExpireAt = now.Add(e.TTL)
	}
}
