package main

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	cache "github.com/DanieLevy/eyetask-sub000"
	"github.com/DanieLevy/eyetask-sub000/engine"
	"github.com/DanieLevy/eyetask-sub000/expiration"
	"github.com/DanieLevy/eyetask-sub000/stats"
)

// ================= BENCHMARK =================

func main() {
	fmt.Println("\n================ CACHE LOAD BENCHMARK =================")

	// ---------------- Cache Config ----------------
	const (
		shards      = 8
		preloadKeys = 100000
		goroutines  = 200
		opsPerG     = 5000
		writeEvery  = 10 // one write per N ops
	)

	fmt.Println("CONFIG")
	fmt.Println("---------------------------------")
	fmt.Println("Shards       :", shards)
	fmt.Println("Preload Keys :", preloadKeys)
	fmt.Println("Goroutines   :", goroutines)
	fmt.Println("Ops/Goroutine:", opsPerG)
	fmt.Println("---------------------------------")

	// ---------------- Cache Engine ----------------
	collector := stats.NewCollector()
	eng := engine.NewCacheEngine(
		&expiration.ExpireAfterWrite{TTL: 60 * time.Second},
		nil,
		collector,
	)

	c := cache.NewTTLCache(shards, cache.DefaultSweepInterval, eng)
	defer c.Close()

	// ---------------- Preload ----------------
	keys := make([]string, preloadKeys)
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%d", i)
		c.Set(keys[i], i)
	}

	// ---------------- Load ----------------
	start := time.Now()

	wg := sync.WaitGroup{}
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for op := 0; op < opsPerG; op++ {
				k := keys[rng.Intn(len(keys))]
				if op%writeEvery == 0 {
					c.Set(k, op)
				} else {
					c.Get(k)
				}
			}
		}(int64(g))
	}
	wg.Wait()

	elapsed := time.Since(start)
	totalOps := goroutines * opsPerG

	// ---------------- Results ----------------
	fmt.Println("\nRESULTS")
	fmt.Println("---------------------------------")
	fmt.Printf("Total Ops    : %d\n", totalOps)
	fmt.Printf("Elapsed      : %s\n", elapsed)
	fmt.Printf("Ops/sec      : %.0f\n", float64(totalOps)/elapsed.Seconds())
	fmt.Printf("Hits         : %d\n", collector.Hits())
	fmt.Printf("Misses       : %d\n", collector.Misses())
	fmt.Printf("Hit Ratio    : %.4f\n", collector.HitRatio())
}
