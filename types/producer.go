package types

import "context"

/*
Producer is the contract between the cache and the outside world on a miss.

It is supplied per call rather than configured once, because different keys in
the surrounding application are backed by different data-access functions.

	1. Cache checks memory → key not found
	2. Cache invokes the producer
	3. Producer fetches from DB/API
	4. Cache stores the result in memory
	5. Cache returns the value

A producer failure is propagated to the caller unchanged and nothing is cached,
so the next lookup tries again.
*/
type Producer func(ctx context.Context) (any, error)
