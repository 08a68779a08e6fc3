package cache

import "time"

/*
Options carried by individual cache calls.

Every operation accepts the same two optional knobs:
- a TTL, so each entry decides its own lifetime
- a namespace, so entries can be grouped for bulk invalidation

They are functional options so the common case stays short:

	c.Set("user:42", u)
	c.Set("homepage", data, cache.WithTTL(2*time.Minute), cache.WithNamespace("api_data"))
	v, ok := c.Get("homepage", cache.WithNamespace("api_data"))
*/
type Option func(*callOptions)

type callOptions struct {
	ttl       time.Duration
	namespace string
}

// WithTTL sets how long the entry should live.
//
// TTL semantics:
//   - d > 0: entry expires at now + d
//   - d == 0 (or option absent): entry never expires
//   - d < 0: entry is already expired when written. Deliberately permissive:
//     a bogus TTL behaves like "expire immediately" instead of erroring.
func WithTTL(d time.Duration) Option {
	return func(o *callOptions) {
		o.ttl = d
	}
}

// WithNamespace tags the entry with a partition label. The label becomes a
// "{namespace}:" key prefix AND is stored on the entry itself, so namespace
// membership survives even for keys that already contain a colon.
func WithNamespace(ns string) Option {
	return func(o *callOptions) {
		o.namespace = ns
	}
}

func applyOptions(opts []Option) callOptions {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// compositeKey builds the stored key from a caller key and its namespace.
func compositeKey(ns, key string) string {
	if ns == "" {
		return key
	}
	return ns + ":" + key
}
