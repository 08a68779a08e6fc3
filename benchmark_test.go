package cache_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	cache "github.com/DanieLevy/eyetask-sub000"
	"github.com/DanieLevy/eyetask-sub000/engine"
	"github.com/DanieLevy/eyetask-sub000/expiration"
)

func newBenchmarkCache() *cache.TTLCache {
	eng := engine.NewCacheEngine(
		&expiration.ExpireAfterWrite{},
		nil,
		nil,
	)

	return cache.NewTTLCache(
		8, // shards
		0, // no sweep during benchmarks
		eng,
	)
}

//
// ================= SINGLE THREAD BENCH =================
//

func BenchmarkCacheGetHit(b *testing.B) {
	c := newBenchmarkCache()
	defer c.Close()

	c.Set("key", "value")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get("key")
	}
}

func BenchmarkCacheGetMiss(b *testing.B) {
	c := newBenchmarkCache()
	defer c.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := fmt.Sprintf("miss-%d", i)
		c.Get(key)
	}
}

//
// ================= PARALLEL BENCH =================
//

func BenchmarkCacheParallelGet(b *testing.B) {
	c := newBenchmarkCache()
	defer c.Close()

	for i := 0; i < 1000; i++ {
		c.Set(fmt.Sprintf("key-%d", i), i, cache.WithTTL(time.Minute))
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			c.Get("key-42")
		}
	})
}

//
// ================= WRITE BENCH =================
//

func BenchmarkCacheSet(b *testing.B) {
	c := newBenchmarkCache()
	defer c.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Set(fmt.Sprintf("key-%d", i), i)
	}
}

//
// ================= READ-THROUGH BENCH =================
//

func BenchmarkGetOrSetHitPath(b *testing.B) {
	ctx := context.Background()
	c := newBenchmarkCache()
	defer c.Close()

	producer := func(ctx context.Context) (any, error) { return "value", nil }
	c.GetOrSet(ctx, "key", producer)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.GetOrSet(ctx, "key", producer)
	}
}

//
// ================= HIGH CONCURRENCY TEST =================
//

func BenchmarkCacheHighConcurrency(b *testing.B) {
	c := newBenchmarkCache()
	defer c.Close()

	keys := make([]string, 10000)
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%d", i)
		c.Set(keys[i], i)
	}

	b.ResetTimer()

	wg := sync.WaitGroup{}
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < b.N/100; j++ {
				c.Get(keys[j%len(keys)])
			}
		}(i)
	}
	wg.Wait()
}
