package shard

import "sync"

/*
This file defines what a "Shard" is. A shard is a small, independent piece of the cache.
Instead of having: One big cache and one big lock
We split the cache into many shards. Each shard:
- Holds some portion of the data
- Has its own lock for writes

This dramatically improves concurrency and scalability.
*/

type Shard struct {

	// Store holds the actual key → value data for this shard. This is NOT a regular map.
	// It is a copy-on-write store that allows lock-free reads.
	Store ShardStore

	// WriteMu is a mutex used to protect write operations on this shard.
	// - Reads are lock-free
	// - Writes (and multi-step read-modify-write sequences like the expiry
	//   sweep) are protected by this mutex
	//
	// This is a deliberate design choice: reads are much more frequent than writes.
	WriteMu sync.Mutex
}

func NewShard() *Shard {
	return &Shard{
		Store: NewCOWStore(),
	}
}
