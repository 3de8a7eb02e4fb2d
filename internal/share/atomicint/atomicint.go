// Package atomicint provides a 64-bit integer cell that many isolates can
// update concurrently.
//
// Every operation is a single atomic instruction, so all operations are
// linearizable and none of them blocks or fails. Arithmetic wraps around on
// overflow using two's complement, the same as Go integer arithmetic.
//
// Example:
//
//	hits := atomicint.New(0)
//	var wg sync.WaitGroup
//	for i := 0; i < 8; i++ {
//	    wg.Add(1)
//	    go func() {
//	        defer wg.Done()
//	        hits.Increment()
//	    }()
//	}
//	wg.Wait()
//	fmt.Println(hits.Get()) // 8
package atomicint

import (
	"strconv"
	"sync/atomic"

	"github.com/maruel/ksid"

	"github.com/kolkov/isoshare/internal/share/value"
)

// Cell holds exactly one int64.
//
// The zero Cell holds 0 and is ready to use. A Cell must not be copied after
// first use.
//
// Thread Safety: All methods are safe for concurrent calls.
type Cell struct {
	value.Vended

	v  atomic.Int64
	id atomic.Uint64 // ksid.ID, assigned on first SharedID call
}

func init() { value.RegisterShared((*Cell)(nil)) }

// New returns a cell holding initial.
func New(initial int64) *Cell {
	c := &Cell{}
	c.v.Store(initial)
	c.id.Store(uint64(ksid.NewID()))
	return c
}

// Get returns the current value.
func (c *Cell) Get() int64 { return c.v.Load() }

// Set replaces the current value.
func (c *Cell) Set(v int64) { c.v.Store(v) }

// Increment adds one and returns the new value.
//
//go:nosplit
func (c *Cell) Increment() int64 { return c.v.Add(1) }

// Decrement subtracts one and returns the new value.
//
//go:nosplit
func (c *Cell) Decrement() int64 { return c.v.Add(-1) }

// Add adds delta and returns the new value.
func (c *Cell) Add(delta int64) int64 { return c.v.Add(delta) }

// Subtract subtracts delta and returns the new value.
//
// Negating math.MinInt64 overflows back to itself, and in two's complement
// x - MinInt64 == x + MinInt64, so the single atomic add is exact for every
// delta.
func (c *Cell) Subtract(delta int64) int64 { return c.v.Add(-delta) }

// CompareAndSet sets the value to next iff it currently equals expected.
//
// Among racers attempting the same expected → next transition, exactly one
// observes true.
func (c *Cell) CompareAndSet(expected, next int64) bool {
	return c.v.CompareAndSwap(expected, next)
}

// Swap stores v and returns the previous value.
func (c *Cell) Swap(v int64) int64 { return c.v.Swap(v) }

// String returns the decimal form of the current value.
func (c *Cell) String() string { return strconv.FormatInt(c.Get(), 10) }

// SharedID returns the identity of the cell. It implements value.Shared.
func (c *Cell) SharedID() ksid.ID {
	if id := c.id.Load(); id != 0 {
		return ksid.ID(id)
	}
	c.id.CompareAndSwap(0, uint64(ksid.NewID()))
	return ksid.ID(c.id.Load())
}

// SharedKind returns "atomic_integer". It implements value.Shared.
func (c *Cell) SharedKind() string { return "atomic_integer" }
