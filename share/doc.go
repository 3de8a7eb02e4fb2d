// Package share provides concurrency-safe containers that independently
// running isolates can hold by reference: an atomic integer cell, a
// concurrent hash map and a closable blocking queue.
//
// An isolate here is any goroutine, or group of goroutines, that keeps its
// mutable state to itself and talks to other isolates only through values it
// explicitly shares. The containers are the explicitly shared part. Each one
// is internally synchronized and safe under true parallelism.
//
// # Quick Start
//
//	counter := share.NewAtomicInteger(0)
//	jobs := share.NewQueue()
//	results := share.NewHashMap()
//
//	go func() {
//		for {
//			job, ok := jobs.Pop()
//			if !ok {
//				return // closed and drained
//			}
//			_ = results.Set(job, share.Int(counter.Increment()))
//		}
//	}()
//
//	_ = jobs.Push(share.Str("resize"))
//	jobs.Close()
//
// # Shareable Values
//
// Containers store [Value]s. Before anything is stored it is checked by a
// [Validator]; only values that can never change again are accepted:
//
//   - Primitives: [Null], [Bool], [Int], [Float], [Symbol]
//   - Frozen composites: text, lists and tables after Freeze, whose elements
//     are themselves shareable ([Str] and [Frozen] build frozen values)
//   - The containers themselves, wrapped with [SharedOf]
//   - Host objects ([HostOf]) that the configured [Host] proves immutable
//
// A rejected value yields a *[Violation]; errors.Is(err, [ErrNotShareable])
// holds and the container is left untouched:
//
//	list := share.NewList(share.Int(1))
//	err := results.Set(share.Symbol("k"), share.ListOf(list))
//	// isoshare: value is not shareable: mutable list
//	list.Freeze()
//	err = results.Set(share.Symbol("k"), share.ListOf(list)) // ok
//
// # Key Identity
//
// Map keys are compared structurally: two lists built separately with equal
// elements are the same key. Int(1) and Float(1) are different keys, and
// every NaN is the same key.
//
// # Blocking
//
// [Queue.Pop] is the only operation that can block, and only while the queue
// is open and empty. [Queue.PopContext] adds cancellation. After
// [Queue.Close], remaining items are still delivered in order and then every
// pop returns ok == false immediately.
//
// # Version Information
//
// [GetInfo] and [Version] describe the library; [CheckCompatible] lets a
// caller assert a minimum version.
package share
