package atomicint

import (
	"math"
	"sync"
	"testing"

	"github.com/kolkov/isoshare/internal/share/value"
)

var _ value.Shared = (*Cell)(nil)

// ========================================
// Basic Functionality Tests
// ========================================

// TestCell_ZeroValue verifies the zero Cell is usable and holds 0.
func TestCell_ZeroValue(t *testing.T) {
	var c Cell
	if c.Get() != 0 {
		t.Fatalf("zero Cell = %d, want 0", c.Get())
	}
	if c.Increment() != 1 {
		t.Error("Increment on zero Cell did not return 1")
	}
	if c.SharedID().IsZero() {
		t.Error("zero Cell has no identity")
	}
	if c.SharedID() != c.SharedID() {
		t.Error("SharedID is not stable")
	}
}

// TestCell_Arithmetic verifies every operation returns the post-update value.
func TestCell_Arithmetic(t *testing.T) {
	c := New(10)

	steps := []struct {
		name string
		op   func() int64
		want int64
	}{
		{"Increment", c.Increment, 11},
		{"Decrement", c.Decrement, 10},
		{"Add(5)", func() int64 { return c.Add(5) }, 15},
		{"Subtract(20)", func() int64 { return c.Subtract(20) }, -5},
		{"Add(-3)", func() int64 { return c.Add(-3) }, -8},
	}
	for _, s := range steps {
		if got := s.op(); got != s.want {
			t.Fatalf("%s = %d, want %d", s.name, got, s.want)
		}
	}

	c.Set(42)
	if c.Get() != 42 || c.String() != "42" {
		t.Errorf("after Set(42): Get=%d String=%q", c.Get(), c.String())
	}
	if prev := c.Swap(7); prev != 42 || c.Get() != 7 {
		t.Errorf("Swap(7) = %d, value %d", prev, c.Get())
	}
}

// TestCell_CompareAndSet verifies CAS succeeds only on a match.
func TestCell_CompareAndSet(t *testing.T) {
	c := New(5)
	if c.CompareAndSet(4, 9) {
		t.Error("CompareAndSet(4, 9) succeeded on 5")
	}
	if !c.CompareAndSet(5, 9) {
		t.Error("CompareAndSet(5, 9) failed on 5")
	}
	if c.Get() != 9 {
		t.Errorf("value = %d, want 9", c.Get())
	}
}

// TestCell_Wraparound verifies two's complement overflow.
func TestCell_Wraparound(t *testing.T) {
	c := New(math.MaxInt64)
	if got := c.Increment(); got != math.MinInt64 {
		t.Errorf("MaxInt64+1 = %d, want MinInt64", got)
	}
	if got := c.Decrement(); got != math.MaxInt64 {
		t.Errorf("MinInt64-1 = %d, want MaxInt64", got)
	}

	c.Set(0)
	if got := c.Subtract(math.MinInt64); got != math.MinInt64 {
		t.Errorf("0 - MinInt64 = %d, want MinInt64", got)
	}
	c.Set(1)
	if got := c.Subtract(math.MinInt64); got != math.MinInt64+1 {
		t.Errorf("1 - MinInt64 = %d, want MinInt64+1", got)
	}
}

// ========================================
// Concurrency Tests
// ========================================

// TestCell_ConcurrentIncrement runs 10 workers doing 100 increments each on a
// cell created with 10; no update may be lost.
func TestCell_ConcurrentIncrement(t *testing.T) {
	c := New(10)

	var wg sync.WaitGroup
	for w := 0; w < 10; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				c.Increment()
			}
		}()
	}
	wg.Wait()

	if got := c.Get(); got != 1010 {
		t.Errorf("Get() = %d, want 1010", got)
	}
	t.Logf("10 workers x 100 increments: %d", c.Get())
}

// TestCell_CASExclusive verifies exactly one of many racers wins a transition.
func TestCell_CASExclusive(t *testing.T) {
	const racers = 64
	for round := 0; round < 20; round++ {
		c := New(0)
		var wins atomicCounter
		var start sync.WaitGroup
		var done sync.WaitGroup
		start.Add(1)
		for i := 0; i < racers; i++ {
			done.Add(1)
			go func() {
				defer done.Done()
				start.Wait()
				if c.CompareAndSet(0, 1) {
					wins.inc()
				}
			}()
		}
		start.Done()
		done.Wait()

		if wins.get() != 1 {
			t.Fatalf("round %d: %d racers won CompareAndSet(0, 1), want 1", round, wins.get())
		}
	}
}

// TestCell_CASCounter verifies a CAS retry loop loses no updates.
func TestCell_CASCounter(t *testing.T) {
	c := New(0)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				for {
					old := c.Get()
					if c.CompareAndSet(old, old+2) {
						break
					}
				}
			}
		}()
	}
	wg.Wait()

	if got := c.Get(); got != 8*500*2 {
		t.Errorf("Get() = %d, want %d", got, 8*500*2)
	}
}

// TestCell_MixedNegative verifies adds and subtracts cancel out under
// contention.
func TestCell_MixedNegative(t *testing.T) {
	c := New(-100)
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				c.Add(3)
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				c.Subtract(3)
			}
		}()
	}
	wg.Wait()

	if got := c.Get(); got != -100 {
		t.Errorf("Get() = %d, want -100", got)
	}
}

// TestCell_Shareable verifies a cell passes the validator as a shared value.
func TestCell_Shareable(t *testing.T) {
	c := New(1)
	v := value.SharedOf(c)
	if v.Kind() != value.KindShared || v.AsShared().SharedKind() != "atomic_integer" {
		t.Errorf("SharedOf(cell) = %v", v)
	}
	if !value.Equal(v, value.SharedOf(c), nil) {
		t.Error("cell not equal to itself")
	}
	if value.Equal(v, value.SharedOf(New(1)), nil) {
		t.Error("distinct cells compare equal")
	}
}

type atomicCounter struct {
	mu sync.Mutex
	n  int
}

func (a *atomicCounter) inc() {
	a.mu.Lock()
	a.n++
	a.mu.Unlock()
}

func (a *atomicCounter) get() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.n
}

// ========================================
// Benchmarks
// ========================================

func BenchmarkCell_Increment(b *testing.B) {
	c := New(0)
	for i := 0; i < b.N; i++ {
		c.Increment()
	}
}

func BenchmarkCell_IncrementParallel(b *testing.B) {
	c := New(0)
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			c.Increment()
		}
	})
}
