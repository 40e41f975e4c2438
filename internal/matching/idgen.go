package matching

import "sync/atomic"

// IDGenerator assigns Order.ID values. Injected rather than a process-wide
// singleton so tests can reset state and two engines can coexist with
// disjoint id spaces.
type IDGenerator interface {
	NextID() uint64
}

// AtomicIDGenerator hands out a strictly increasing sequence starting at 1.
type AtomicIDGenerator struct {
	counter uint64
}

func NewAtomicIDGenerator() *AtomicIDGenerator {
	return &AtomicIDGenerator{}
}

func (g *AtomicIDGenerator) NextID() uint64 {
	return atomic.AddUint64(&g.counter, 1)
}
