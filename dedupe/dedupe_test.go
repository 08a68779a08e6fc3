package dedupe_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DanieLevy/eyetask-sub000/dedupe"
	"golang.org/x/sync/errgroup"
)

// slowUpstream counts hits and answers after the given delay, so concurrent
// callers overlap inside the dedupe window.
func slowUpstream(t *testing.T, delay time.Duration, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		time.Sleep(delay)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestConcurrentCallsCollapse(t *testing.T) {
	var hits atomic.Int64
	srv := slowUpstream(t, 50*time.Millisecond, &hits)

	c := dedupe.NewCollapser(srv.Client(), time.Second, 100*time.Millisecond)
	defer c.Close()

	ctx := context.Background()
	responses := make([]*dedupe.Response, 5)

	g := errgroup.Group{}
	for i := 0; i < 5; i++ {
		i := i
		g.Go(func() error {
			resp, err := c.Get(ctx, srv.URL)
			if err != nil {
				return err
			}
			responses[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n := hits.Load(); n != 1 {
		t.Fatalf("expected 1 upstream call for 5 callers, got %d", n)
	}

	for i, resp := range responses {
		if string(resp.Body) != `{"ok":true}` {
			t.Fatalf("caller %d got body %q", i, resp.Body)
		}
	}

	// Each caller owns its bytes: trashing one copy must not leak into another.
	responses[0].Body[0] = 'X'
	if string(responses[1].Body) != `{"ok":true}` {
		t.Fatalf("response clones share a body buffer")
	}
}

func TestCallsOutsideWindowAreSeparate(t *testing.T) {
	var hits atomic.Int64
	srv := slowUpstream(t, 0, &hits)

	c := dedupe.NewCollapser(srv.Client(), 50*time.Millisecond, 10*time.Millisecond)
	defer c.Close()

	ctx := context.Background()
	if _, err := c.Get(ctx, srv.URL); err != nil {
		t.Fatalf("first call: %v", err)
	}

	time.Sleep(80 * time.Millisecond)

	if _, err := c.Get(ctx, srv.URL); err != nil {
		t.Fatalf("second call: %v", err)
	}

	if n := hits.Load(); n != 2 {
		t.Fatalf("expected 2 upstream calls outside the window, got %d", n)
	}
}

func TestDifferentBodiesAreSeparateCalls(t *testing.T) {
	var hits atomic.Int64
	srv := slowUpstream(t, 20*time.Millisecond, &hits)

	c := dedupe.NewCollapser(srv.Client(), time.Second, 10*time.Millisecond)
	defer c.Close()

	ctx := context.Background()
	g := errgroup.Group{}
	g.Go(func() error {
		_, err := c.Fetch(ctx, http.MethodPost, srv.URL, []byte(`{"id":1}`), nil)
		return err
	})
	g.Go(func() error {
		_, err := c.Fetch(ctx, http.MethodPost, srv.URL, []byte(`{"id":2}`), nil)
		return err
	})
	if err := g.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n := hits.Load(); n != 2 {
		t.Fatalf("expected distinct bodies to dodge dedupe, got %d calls", n)
	}
}

// failingDoer counts attempts and always fails.
type failingDoer struct {
	attempts atomic.Int64
	delay    time.Duration
}

func (d *failingDoer) Do(req *http.Request) (*http.Response, error) {
	d.attempts.Add(1)
	time.Sleep(d.delay)
	return nil, errors.New("connection refused")
}

func TestSharedFailureFanOut(t *testing.T) {
	doer := &failingDoer{delay: 50 * time.Millisecond}

	c := dedupe.NewCollapser(doer, time.Second, 10*time.Millisecond)
	defer c.Close()

	ctx := context.Background()
	errs := make([]error, 5)

	g := errgroup.Group{}
	for i := 0; i < 5; i++ {
		i := i
		g.Go(func() error {
			_, errs[i] = c.Get(ctx, "http://backend.invalid/data")
			return nil
		})
	}
	g.Wait()

	for i, err := range errs {
		if err == nil {
			t.Fatalf("caller %d expected the shared failure", i)
		}
	}
	if n := doer.attempts.Load(); n != 1 {
		t.Fatalf("expected the failure to be attempted once, got %d", n)
	}

	// The failed entry drains out after the grace delay; a fresh call gets a
	// fresh (non-deduped) attempt instead of a replayed error.
	time.Sleep(80 * time.Millisecond)
	c.Get(ctx, "http://backend.invalid/data")
	if n := doer.attempts.Load(); n != 2 {
		t.Fatalf("expected a fresh attempt after the grace delay, got %d", n)
	}
}

// blockingDoer parks every request until released.
type blockingDoer struct {
	attempts atomic.Int64
	release  chan struct{}
}

func (d *blockingDoer) Do(req *http.Request) (*http.Response, error) {
	d.attempts.Add(1)
	<-d.release
	return nil, errors.New("released")
}

func TestStalePendingCallIsEvicted(t *testing.T) {
	doer := &blockingDoer{release: make(chan struct{})}
	defer close(doer.release)

	c := dedupe.NewCollapser(doer, 20*time.Millisecond, 10*time.Millisecond)
	defer c.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Get(context.Background(), "http://backend.invalid/slow")
	}()

	// Let the first call outlive the window, then ask again: the stale entry
	// must be discarded and a second real call issued.
	time.Sleep(50 * time.Millisecond)

	go c.Get(context.Background(), "http://backend.invalid/slow")

	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if doer.attempts.Load() == 2 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected 2 attempts after staleness, got %d", doer.attempts.Load())
}

func TestCleanupSweepsAbandonedEntries(t *testing.T) {
	doer := &blockingDoer{release: make(chan struct{})}
	defer close(doer.release)

	c := dedupe.NewCollapser(doer, 20*time.Millisecond, 10*time.Millisecond)
	defer c.Close()

	go c.Get(context.Background(), "http://backend.invalid/hang")

	// The call never completes, so the grace timer never runs. Only the
	// safety-net sweep (entries older than 2x window) can clear the registry.
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if c.InFlight() == 0 && doer.attempts.Load() == 1 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected the sweep to clear the hung entry, in flight: %d", c.InFlight())
}

func TestWaiterCancellationLeavesCallRunning(t *testing.T) {
	var hits atomic.Int64
	srv := slowUpstream(t, 100*time.Millisecond, &hits)

	c := dedupe.NewCollapser(srv.Client(), time.Second, 10*time.Millisecond)
	defer c.Close()

	// First caller starts the real call.
	first := make(chan error, 1)
	go func() {
		_, err := c.Get(context.Background(), srv.URL)
		first <- err
	}()
	time.Sleep(20 * time.Millisecond)

	// Second caller joins, then gives up early. Only its own wait ends.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := c.Get(ctx, srv.URL); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected the waiter's own deadline, got %v", err)
	}

	if err := <-first; err != nil {
		t.Fatalf("the shared call must complete for the first caller: %v", err)
	}
	if n := hits.Load(); n != 1 {
		t.Fatalf("expected the abandoned wait not to spawn a new call, got %d", n)
	}
}
