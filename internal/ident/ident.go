package ident

import (
	"sync/atomic"
	"time"
)

// Generator hands out unique, monotonically increasing int64 ids.
//
// The sequence is seeded from wall-clock milliseconds so that ids from
// successive process runs do not collide with previously issued ones under
// normal operation. Within a single process lifetime uniqueness is guaranteed
// by the atomic increment regardless of clock behaviour.
//
// Products, bids and messages share one id space: a single Generator is
// expected to be passed to every store.
type Generator struct {
	last atomic.Int64
}

// NewGenerator creates a generator seeded from the current wall clock.
func NewGenerator() *Generator {
	g := &Generator{}
	g.last.Store(time.Now().UnixMilli())
	return g
}

// NewGeneratorAt creates a generator starting from a specific value.
// Used by tests that need predictable ids.
func NewGeneratorAt(start int64) *Generator {
	g := &Generator{}
	g.last.Store(start)
	return g
}

// Next returns the next id. Safe for concurrent use.
func (g *Generator) Next() int64 {
	return g.last.Add(1)
}
