package dedupe

import (
	"bytes"
	"context"
	"hash/fnv"
	"net/http"
	"strconv"
	"sync"
	"time"
)

/*
This file suppresses duplicate outbound HTTP calls.

The surrounding application routinely fires the same request from several
places at once (a page render and two widgets all wanting /api/homepage).
Instead of three network round trips, callers that ask for the same
(method, URL, body) within a short window share ONE in-flight call and each
receive their own copy of its response.

This is deliberately a separate component from the cache: the cache remembers
results, the collapser only collapses calls that are in flight right now.
The two are composed by calling code.
*/

const (
	// DefaultWindow is how long after a call starts that identical callers
	// still join it instead of issuing their own.
	DefaultWindow = 1000 * time.Millisecond

	// DefaultGrace is how long a completed call lingers in the registry.
	// Near-simultaneous joiners that arrive just after completion still find
	// it and reuse the buffered result instead of re-fetching.
	DefaultGrace = 100 * time.Millisecond
)

// Doer issues HTTP requests. *http.Client satisfies it; tests inject fakes.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// call is one in-flight (or just-completed) outbound request.
// resp and err are written once, before done is closed.
type call struct {
	done    chan struct{}
	resp    *Response
	err     error
	started time.Time
}

/*
Collapser is the in-flight call registry.

Lifecycle of an entry:
- created when no live entry exists for the composite key
- shared by every caller with the same key inside the window
- removed after completion + grace delay, or immediately when a lookup finds
  it older than the window
- swept by a periodic safety net if its completion callback never fired
*/
type Collapser struct {
	mu       sync.Mutex
	inflight map[string]*call

	client Doer
	window time.Duration
	grace  time.Duration

	// Cleanup goroutine ownership. Close cancels ctx and waits for the loop.
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

/*
NewCollapser creates a collapser and starts its safety-net cleanup loop.

client may be nil (http.DefaultClient is used). Non-positive window/grace fall
back to the defaults.
*/
func NewCollapser(client Doer, window, grace time.Duration) *Collapser {
	if client == nil {
		client = http.DefaultClient
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if grace <= 0 {
		grace = DefaultGrace
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &Collapser{
		inflight: make(map[string]*call),
		client:   client,
		window:   window,
		grace:    grace,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go c.cleanupLoop()

	return c
}

// Get collapses a body-less GET, the overwhelmingly common case.
func (c *Collapser) Get(ctx context.Context, url string) (*Response, error) {
	return c.Fetch(ctx, http.MethodGet, url, nil, nil)
}

/*
Fetch issues the request, or joins an identical one already in flight.

BEHAVIOR:
---------
1. Compute the composite key from method, URL and body.
2. A live entry younger than the window → wait for it and return a CLONE of
   its response. No network call.
3. A live entry older than the window → discard it, fall through.
4. Otherwise register a new entry BEFORE doing the network round trip, so
   concurrent callers arriving a moment later observe it.
5. On completion (success or failure) schedule removal after the grace delay.

Failure semantics: every caller sharing the entry receives the same error.
Nothing is retried automatically; once the entry is gone, the next call starts
fresh.

A caller whose ctx is canceled while waiting abandons only its OWN wait. The
underlying call keeps running, because other callers may still depend on it.
*/
func (c *Collapser) Fetch(ctx context.Context, method, url string, body []byte, header http.Header) (*Response, error) {
	key := compositeKey(method, url, body)
	now := time.Now()

	c.mu.Lock()
	if cl, ok := c.inflight[key]; ok {
		if now.Sub(cl.started) < c.window {
			c.mu.Unlock()
			return c.wait(ctx, cl)
		}
		// Too old to join. Evict before starting fresh.
		delete(c.inflight, key)
	}

	cl := &call{
		done:    make(chan struct{}),
		started: now,
	}
	c.inflight[key] = cl
	c.mu.Unlock()

	cl.resp, cl.err = c.roundTrip(ctx, method, url, body, header)
	close(cl.done)

	// Linger for the grace period, then remove — but only this exact entry.
	// A fresh call registered under the same key must not be torn down.
	time.AfterFunc(c.grace, func() {
		c.mu.Lock()
		if cur, ok := c.inflight[key]; ok && cur == cl {
			delete(c.inflight, key)
		}
		c.mu.Unlock()
	})

	if cl.err != nil {
		return nil, cl.err
	}
	return cl.resp.Clone(), nil
}

// InFlight returns the number of registered calls. Used by tests and introspection.
func (c *Collapser) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inflight)
}

/*
Close stops the cleanup loop and waits for it to exit.
Safe to call more than once. In-flight calls are not interrupted.
*/
func (c *Collapser) Close() {
	c.cancel()
	<-c.done
}

// wait blocks until the shared call completes or the caller's own ctx gives up.
func (c *Collapser) wait(ctx context.Context, cl *call) (*Response, error) {
	select {
	case <-cl.done:
		if cl.err != nil {
			return nil, cl.err
		}
		return cl.resp.Clone(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// roundTrip performs the real network call and buffers the response.
func (c *Collapser) roundTrip(ctx context.Context, method, url string, body []byte, header http.Header) (*Response, error) {
	// The initiating caller's cancellation must not abort the call:
	// other callers may be waiting on it. Only values (deadlines aside,
	// trace metadata etc.) are carried over.
	req, err := http.NewRequestWithContext(context.WithoutCancel(ctx), method, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	hr, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	return readResponse(hr)
}

/*
cleanupLoop is a safety net, not the primary removal path.

Entries normally disappear via the post-completion grace timer. If that
callback never fires (a transport that hangs forever, a crashed goroutine),
this sweep removes anything older than twice the window so the registry cannot
grow without bound.
*/
func (c *Collapser) cleanupLoop() {
	defer close(c.done)

	ticker := time.NewTicker(c.window)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case now := <-ticker.C:
			c.mu.Lock()
			for key, cl := range c.inflight {
				if now.Sub(cl.started) > 2*c.window {
					delete(c.inflight, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// compositeKey identifies a call by method, URL and body. The body is hashed
// (FNV, fast and non-cryptographic) so large payloads don't balloon the key.
func compositeKey(method, url string, body []byte) string {
	h := fnv.New64a()
	h.Write(body)
	return method + " " + url + " " + strconv.FormatUint(h.Sum64(), 16)
}
