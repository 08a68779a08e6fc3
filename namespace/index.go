package namespace

import (
	"sort"
	"sync"
)

/*
This file tracks which namespaces currently have live entries.

A namespace is a logical partition label. Callers tag related entries with one
so the whole group can be invalidated in a single Clear, without touching
anything else.

The index is bookkeeping, not the source of truth: entries can expire without
being read, so between lazy-expiry events the counts here may briefly exceed
what is actually stored. That lag is accepted; the sweep reconciles it.
*/

// Index maintains a namespace → live entry count mapping.
// It has its own mutex because it is updated from every shard.
type Index struct {
	mu     sync.Mutex
	counts map[string]int
}

func NewIndex() *Index {
	return &Index{counts: make(map[string]int)}
}

// Add registers one entry under a namespace. Entries without a namespace are not tracked.
func (i *Index) Add(ns string) {
	if ns == "" {
		return
	}
	i.mu.Lock()
	i.counts[ns]++
	i.mu.Unlock()
}

// Remove unregisters one entry. When the last entry of a namespace goes away,
// the namespace itself is dropped from the index.
func (i *Index) Remove(ns string) {
	if ns == "" {
		return
	}
	i.mu.Lock()
	if n, ok := i.counts[ns]; ok {
		if n <= 1 {
			delete(i.counts, ns)
		} else {
			i.counts[ns] = n - 1
		}
	}
	i.mu.Unlock()
}

// List returns every namespace with at least one tracked entry, sorted for stable output.
func (i *Index) List() []string {
	i.mu.Lock()
	out := make([]string, 0, len(i.counts))
	for ns := range i.counts {
		out = append(out, ns)
	}
	i.mu.Unlock()
	sort.Strings(out)
	return out
}

// Counts returns a copy of the namespace → count mapping.
func (i *Index) Counts() map[string]int {
	i.mu.Lock()
	out := make(map[string]int, len(i.counts))
	for ns, n := range i.counts {
		out[ns] = n
	}
	i.mu.Unlock()
	return out
}
