// Package idgenerator hands out identifiers: small sequential ids for
// connection bookkeeping and unguessable string tokens for anything a client
// presents back to the server as a credential or resource id.
package idgenerator

import "sync/atomic"

// IdGenerator generates monotonically increasing uint32 ids in a concurrency-safe
// manner. The first Id() returns startValue+1, so 0 can be reserved as "no id".
// These ids are sequential and must never be exposed as credentials.
type IdGenerator struct {
	start uint32
	id    atomic.Uint32
}

// NewIdGenerator creates an IdGenerator whose first id is startValue+1.
//
// Parameters:
//   - startValue: The value to initialize the counter to
//
// Returns:
//   - A new IdGenerator instance
func NewIdGenerator(startValue uint32) *IdGenerator {
	gen := &IdGenerator{
		start: startValue,
	}
	gen.id.Store(startValue)
	return gen
}

// Id returns the next id by atomically incrementing the internal counter.
func (l *IdGenerator) Id() uint32 {
	return l.id.Add(1)
}

// Issued returns how many ids have been handed out since construction.
func (l *IdGenerator) Issued() uint32 {
	return l.id.Load() - l.start
}
