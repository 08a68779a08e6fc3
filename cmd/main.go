package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	cache "github.com/DanieLevy/eyetask-sub000"
	"github.com/DanieLevy/eyetask-sub000/dedupe"
	"github.com/DanieLevy/eyetask-sub000/engine"
	"github.com/DanieLevy/eyetask-sub000/expiration"
	"github.com/DanieLevy/eyetask-sub000/stats"
	"github.com/DanieLevy/eyetask-sub000/types"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

// nearExpiryLogger is a refresh hook that flags reads of entries close to
// their expiry, so operators can spot TTLs tuned too tight. It only logs; a
// real deployment could kick off a background re-fetch here instead.
type nearExpiryLogger struct {
	logger    *slog.Logger
	threshold time.Duration
}

func (h *nearExpiryLogger) OnRead(key string, ent *types.CacheEntry) {
	if ent.ExpireAt.IsZero() {
		return
	}
	if remaining := time.Until(ent.ExpireAt); remaining < h.threshold {
		h.logger.Warn("entry read close to expiry", "key", key, "remaining", remaining)
	}
}

// envOr grabs an environment variable, or returns a fallback if it's not set.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envSeconds reads a duration-in-seconds env var with bounds checking.
func envSeconds(key string, fallback time.Duration) time.Duration {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 3600 {
			return time.Duration(n) * time.Second
		}
	}
	return fallback
}

func main() {
	// .env is optional; defaults cover local runs.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	ctx := context.Background()

	// ---------------- Fake upstream API ----------------
	// Stands in for the real backend the data layer fetches from. It is slow
	// on purpose so concurrent demo calls overlap inside the dedupe window.
	var upstreamHits atomic.Int64
	r := chi.NewRouter()
	r.Get("/api/homepage", func(w http.ResponseWriter, req *http.Request) {
		upstreamHits.Add(1)
		time.Sleep(80 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"sections":3,"served_at":%q}`, time.Now().Format(time.RFC3339Nano))
	})

	ln, err := net.Listen("tcp", "127.0.0.1:"+envOr("DEMO_UPSTREAM_PORT", "0"))
	if err != nil {
		logger.Error("upstream listen failed", "err", err)
		os.Exit(1)
	}
	upstream := &http.Server{Handler: r}
	go upstream.Serve(ln)
	base := "http://" + ln.Addr().String()
	logger.Info("demo upstream listening", "addr", ln.Addr().String())

	// ---------------- Subsystem under demo ----------------
	collapser := dedupe.NewCollapser(
		&http.Client{Timeout: 3 * time.Second},
		dedupe.DefaultWindow,
		dedupe.DefaultGrace,
	)

	eng := engine.NewCacheEngine(
		&expiration.ExpireAfterWrite{},
		&nearExpiryLogger{logger: logger, threshold: 10 * time.Second},
		stats.NewCollector(),
	)
	c := cache.NewTTLCache(4, envSeconds("SWEEP_INTERVAL_SECONDS", cache.DefaultSweepInterval), eng)

	// The data layer's fetch function: deduped network call behind the cache.
	homepage := func(ctx context.Context) (any, error) {
		resp, err := collapser.Get(ctx, base+"/api/homepage")
		if err != nil {
			return nil, err
		}
		return string(resp.Body), nil
	}

	// ---------------- 1) Miss fills from upstream ----------------
	v, err := c.GetOrSet(ctx, "homepage_data_v2", homepage,
		cache.WithTTL(2*time.Minute), cache.WithNamespace("api_data"))
	if err != nil {
		logger.Error("initial fetch failed", "err", err)
		os.Exit(1)
	}
	logger.Info("cache miss filled from upstream", "value", v, "upstream_hits", upstreamHits.Load())

	// ---------------- 2) Hit skips the producer ----------------
	v, _ = c.GetOrSet(ctx, "homepage_data_v2", homepage,
		cache.WithTTL(2*time.Minute), cache.WithNamespace("api_data"))
	logger.Info("cache hit served from memory", "value", v, "upstream_hits", upstreamHits.Load())

	// ---------------- 3) Concurrent misses collapse ----------------
	g := errgroup.Group{}
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			_, err := c.GetOrSet(ctx, "sidebar", homepage, cache.WithNamespace("api_data"))
			return err
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("concurrent getOrSet failed", "err", err)
	}
	logger.Info("8 concurrent misses collapsed", "upstream_hits", upstreamHits.Load())

	// ---------------- 4) Deduped fetch, no cache in front ----------------
	var fetchers errgroup.Group
	for i := 0; i < 5; i++ {
		fetchers.Go(func() error {
			resp, err := collapser.Get(ctx, base+"/api/homepage")
			if err == nil {
				logger.Info("deduped caller got response", "bytes", len(resp.Body))
			}
			return err
		})
	}
	if err := fetchers.Wait(); err != nil {
		logger.Error("deduped fetch failed", "err", err)
	}
	logger.Info("5 concurrent fetches deduped", "upstream_hits", upstreamHits.Load())

	// ---------------- 5) Namespace invalidation ----------------
	removed := c.Clear("api_data")
	logger.Info("namespace cleared", "namespace", "api_data", "removed", removed)

	// ---------------- 6) Statistics ----------------
	s := c.Stats()
	logger.Info("cache statistics",
		"size", s.Size,
		"hits", s.HitCount,
		"misses", s.MissCount,
		"hit_ratio", fmt.Sprintf("%.2f", s.HitRatio),
		"namespaces", s.Namespaces,
		"ages", s.AgeDistribution,
	)

	// ---------------- Shutdown ----------------
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	upstream.Shutdown(shutdownCtx)
	collapser.Close()
	c.Close()
	logger.Info("demo shut down cleanly")
}
