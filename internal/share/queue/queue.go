// Package queue implements a closable FIFO queue of shareable values with a
// blocking pop.
//
// States: Open (initial) → Closed (terminal). Push succeeds only while Open.
// Items already in the queue when it closes stay retrievable until drained;
// after that every pop returns the empty-sentinel (ok == false) at once.
//
// Pop is the only operation that blocks, and only while the queue is Open and
// empty. Blocked poppers are served in arrival order: a push hands its item
// straight to the longest-waiting popper, and Close releases all of them.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	list "github.com/bahlo/generic-list-go"
	"github.com/emirpasic/gods/queues/linkedlistqueue"
	"github.com/maruel/ksid"

	"github.com/kolkov/isoshare/internal/share/validate"
	"github.com/kolkov/isoshare/internal/share/value"
)

// ErrClosed is returned by Push after Close.
var ErrClosed = errors.New("isoshare: queue is closed")

// Options configures a Queue. The zero value is valid.
type Options struct {
	// Validator gates every pushed item. Default: validate.Default().
	Validator *validate.Validator

	// Logger receives Debug records for rejected pushes and Close.
	// Default: discard.
	Logger *slog.Logger
}

// waiter is a popper blocked on an empty open queue.
//
// A push sends the item on ch (buffered, so the sender never blocks) and
// Close closes ch. Either way the waiter is unlinked from the list by the
// goroutine that signals it, under the queue lock.
type waiter struct {
	ch chan value.Value
}

// Queue is a FIFO of shareable values shared between isolates.
//
// Invariant: waiters is non-empty only while items is empty. A popper waits
// only after finding no item, and a push with waiters present bypasses items.
//
// Thread Safety: All methods are safe for concurrent calls.
type Queue struct {
	value.Vended

	mu      sync.Mutex
	items   *linkedlistqueue.Queue
	waiters *list.List[*waiter]
	closed  bool

	v   *validate.Validator
	log *slog.Logger
	id  ksid.ID
}

func init() { value.RegisterShared((*Queue)(nil)) }

// New returns an empty open queue configured by opts.
func New(opts Options) *Queue {
	if opts.Validator == nil {
		opts.Validator = validate.Default()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Queue{
		items:   linkedlistqueue.New(),
		waiters: list.New[*waiter](),
		v:       opts.Validator,
		log:     opts.Logger,
		id:      ksid.NewID(),
	}
}

// Push appends item to the tail.
//
// It returns a *validate.Violation with Role "item" if item is not
// shareable, and ErrClosed once the queue is closed. In both cases the queue
// is unchanged.
func (q *Queue) Push(item value.Value) error {
	if err := q.v.CheckRole(item, validate.RoleItem); err != nil {
		q.log.Debug("queue: rejected push", "queue", q.id, "err", err)
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	if front := q.waiters.Front(); front != nil {
		w := q.waiters.Remove(front)
		w.ch <- item
		return nil
	}
	q.items.Enqueue(item)
	return nil
}

// TryPop removes and returns the head without blocking. ok is false when the
// queue is empty, whether open or closed.
func (q *Queue) TryPop() (item value.Value, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dequeueLocked()
}

func (q *Queue) dequeueLocked() (value.Value, bool) {
	x, ok := q.items.Dequeue()
	if !ok {
		return value.Null(), false
	}
	return x.(value.Value), true
}

// Pop removes and returns the head, blocking while the queue is open and
// empty. ok is false only once the queue is closed and drained.
func (q *Queue) Pop() (item value.Value, ok bool) {
	item, ok, _ = q.PopContext(context.Background())
	return item, ok
}

// PopContext is Pop with cancellation.
//
// If ctx ends while the call is blocked it returns ctx.Err(). An item handed
// to the popper before it gave up is returned rather than dropped, so
// cancellation never loses an item.
func (q *Queue) PopContext(ctx context.Context) (item value.Value, ok bool, err error) {
	q.mu.Lock()
	if item, ok := q.dequeueLocked(); ok {
		q.mu.Unlock()
		return item, true, nil
	}
	if q.closed {
		q.mu.Unlock()
		return value.Null(), false, nil
	}
	w := &waiter{ch: make(chan value.Value, 1)}
	el := q.waiters.PushBack(w)
	q.mu.Unlock()

	select {
	case item, ok := <-w.ch:
		return item, ok, nil
	case <-ctx.Done():
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	select {
	case item, ok := <-w.ch:
		// Signalled between ctx.Done and taking the lock.
		return item, ok, nil
	default:
		q.waiters.Remove(el)
		return value.Null(), false, ctx.Err()
	}
}

// Close moves the queue to Closed and releases every blocked popper with the
// empty-sentinel. It is idempotent.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	released := q.waiters.Len()
	for e := q.waiters.Front(); e != nil; e = q.waiters.Front() {
		close(q.waiters.Remove(e).ch)
	}
	q.log.Debug("queue: closed", "queue", q.id, "remaining", q.items.Size(), "released", released)
}

// Clear removes every item. Blocked poppers keep waiting.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items.Clear()
}

// Size returns the number of items.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Size()
}

// Empty reports whether the queue holds no items.
func (q *Queue) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Empty()
}

// Closed reports whether Close has been called.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Waiting returns the number of poppers currently blocked.
func (q *Queue) Waiting() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.waiters.Len()
}

// MemSize returns an approximation of the memory held by the queue in bytes,
// not counting the items' own storage.
func (q *Queue) MemSize() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	const (
		nodeSize   = 24 // linked list node: interface value and next pointer
		waiterSize = 96 // list element, waiter and channel
	)
	return int(unsafe.Sizeof(*q)) +
		q.items.Size()*(nodeSize+int(unsafe.Sizeof(value.Value{}))) +
		q.waiters.Len()*waiterSize
}

// String returns a short description for diagnostics.
func (q *Queue) String() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	state := "open"
	if q.closed {
		state = "closed"
	}
	return fmt.Sprintf("#<queue %s %s size=%d>", q.id, state, q.items.Size())
}

// SharedID returns the identity of the queue. It implements value.Shared.
func (q *Queue) SharedID() ksid.ID { return q.id }

// SharedKind returns "queue". It implements value.Shared.
func (q *Queue) SharedKind() string { return "queue" }
