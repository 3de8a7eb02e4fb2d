package share_test

import (
	"errors"
	"fmt"
	"sync"

	"github.com/kolkov/isoshare/share"
)

// Example counts with an atomic integer from ten goroutines.
func Example() {
	counter := share.NewAtomicInteger(10)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				counter.Increment()
			}
		}()
	}
	wg.Wait()

	fmt.Println(counter.Get())

	// Output:
	// 1010
}

// Example_structuralKeys shows that equal frozen lists are one key.
func Example_structuralKeys() {
	m := share.NewHashMap()
	k1 := share.Frozen(share.Int(1), share.Int(2), share.Int(3))
	k2 := share.Frozen(share.Int(1), share.Int(2), share.Int(3))

	_ = m.Set(k1, share.Symbol("first"))
	_ = m.Set(k2, share.Symbol("second"))

	v, _ := m.Get(k1)
	fmt.Println(v, m.Size())

	// Output:
	// :second 1
}

// Example_rejection shows a mutable value being refused.
func Example_rejection() {
	m := share.NewHashMap()
	list := share.NewList(share.Int(1))

	err := m.Set(share.Symbol("key"), share.ListOf(list))
	fmt.Println(err)
	fmt.Println(errors.Is(err, share.ErrNotShareable), m.Size())

	list.Freeze()
	fmt.Println(m.Set(share.Symbol("key"), share.ListOf(list)), m.Size())

	// Output:
	// isoshare: value is not shareable: mutable list
	// true 0
	// <nil> 1
}

// Example_closeDrain shows items surviving Close.
func Example_closeDrain() {
	q := share.NewQueue()
	_ = q.Push(share.Symbol("a"))
	q.Close()

	v, ok := q.Pop()
	fmt.Println(v, ok)
	v, ok = q.Pop()
	fmt.Println(v, ok)
	fmt.Println(q.Push(share.Int(1)))

	// Output:
	// :a true
	// null false
	// isoshare: queue is closed
}
