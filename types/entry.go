package types

import "time"

// CacheEntry is intentionally mutable for timestamps.
// Timestamp races are acceptable.
type CacheEntry struct {
	Key       string
	Value     any
	Namespace string // logical partition label; "" => none
	CreatedAt time.Time
	ExpireAt  time.Time // zero => no TTL
}

// Expired reports whether the entry's TTL has passed at the given instant.
// Entries without a TTL never expire.
func (e *CacheEntry) Expired(now time.Time) bool {
	return !e.ExpireAt.IsZero() && now.After(e.ExpireAt)
}
