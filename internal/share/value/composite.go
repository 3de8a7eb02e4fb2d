package value

import (
	"sync"
	"sync/atomic"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// seal is the one-way mutable → frozen switch shared by every composite.
//
// Mutators hold mu and check frozen under it, so no mutation can land after
// Freeze returns. Readers of a frozen composite skip mu entirely: the atomic
// store in freeze happens after the last mutation, and a reader that loads
// frozen == true observes the final contents.
type seal struct {
	mu     sync.Mutex
	frozen atomic.Bool
}

// Frozen reports whether the composite has been frozen.
func (s *seal) Frozen() bool { return s.frozen.Load() }

func (s *seal) freeze() {
	s.mu.Lock()
	s.frozen.Store(true)
	s.mu.Unlock()
}

// lockIfMutable takes mu unless the composite is frozen and returns the
// matching unlock.
func (s *seal) lockIfMutable() func() {
	if s.frozen.Load() {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// ========================================
// Text
// ========================================

// Text is a string buffer that can be frozen.
type Text struct {
	seal
	s string
}

// NewText returns a mutable text holding s.
func NewText(s string) *Text { return &Text{s: s} }

// Freeze makes t immutable. It is idempotent.
func (t *Text) Freeze() { t.freeze() }

// Append appends s.
func (t *Text) Append(s string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.frozen.Load() {
		return ErrFrozen
	}
	t.s += s
	return nil
}

// Set replaces the contents with s.
func (t *Text) Set(s string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.frozen.Load() {
		return ErrFrozen
	}
	t.s = s
	return nil
}

// String returns the current contents.
func (t *Text) String() string {
	defer t.lockIfMutable()()
	return t.s
}

// Len returns the length in bytes.
func (t *Text) Len() int {
	defer t.lockIfMutable()()
	return len(t.s)
}

// ========================================
// List
// ========================================

// List is an ordered sequence of values that can be frozen.
type List struct {
	seal
	elems []Value
}

// NewList returns a mutable list holding a copy of elems.
func NewList(elems ...Value) *List {
	return &List{elems: append([]Value(nil), elems...)}
}

// Freeze makes l immutable. It does not freeze the elements; the validator
// still requires every element to be shareable on its own.
func (l *List) Freeze() { l.freeze() }

// Append appends values to the end of l.
func (l *List) Append(vs ...Value) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.frozen.Load() {
		return ErrFrozen
	}
	l.elems = append(l.elems, vs...)
	return nil
}

// Set replaces the element at index i.
func (l *List) Set(i int, v Value) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.frozen.Load() {
		return ErrFrozen
	}
	if i < 0 || i >= len(l.elems) {
		return ErrIndex
	}
	l.elems[i] = v
	return nil
}

// At returns the element at index i. It panics if i is out of range, like
// slice indexing.
func (l *List) At(i int) Value {
	defer l.lockIfMutable()()
	return l.elems[i]
}

// Len returns the number of elements.
func (l *List) Len() int {
	defer l.lockIfMutable()()
	return len(l.elems)
}

// Elems returns a copy of the elements.
func (l *List) Elems() []Value {
	defer l.lockIfMutable()()
	return append([]Value(nil), l.elems...)
}

// view returns the elements without copying when l is frozen.
func (l *List) view() []Value {
	if l.frozen.Load() {
		return l.elems
	}
	return l.Elems()
}

// ========================================
// Table
// ========================================

// Table is a string-keyed record that preserves insertion order and can be
// frozen. Equality between tables ignores order.
type Table struct {
	seal
	m *orderedmap.OrderedMap[string, Value]
}

// NewTable returns an empty mutable table.
func NewTable() *Table {
	return &Table{m: orderedmap.New[string, Value]()}
}

// Freeze makes t immutable. Like List.Freeze it is shallow.
func (t *Table) Freeze() { t.freeze() }

// Set inserts or replaces the entry for k. Replacing keeps the original
// insertion position.
func (t *Table) Set(k string, v Value) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.frozen.Load() {
		return ErrFrozen
	}
	t.m.Set(k, v)
	return nil
}

// Delete removes the entry for k, if any.
func (t *Table) Delete(k string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.frozen.Load() {
		return ErrFrozen
	}
	t.m.Delete(k)
	return nil
}

// Get returns the value for k.
func (t *Table) Get(k string) (Value, bool) {
	defer t.lockIfMutable()()
	return t.m.Get(k)
}

// Len returns the number of entries.
func (t *Table) Len() int {
	defer t.lockIfMutable()()
	return t.m.Len()
}

// Keys returns the keys in insertion order.
func (t *Table) Keys() []string {
	defer t.lockIfMutable()()
	keys := make([]string, 0, t.m.Len())
	for pair := t.m.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Range calls fn for each entry in insertion order until fn returns false.
// For a mutable table fn sees a snapshot taken before the first call, so fn
// may itself mutate the table.
func (t *Table) Range(fn func(k string, v Value) bool) {
	if t.frozen.Load() {
		for pair := t.m.Oldest(); pair != nil; pair = pair.Next() {
			if !fn(pair.Key, pair.Value) {
				return
			}
		}
		return
	}
	type kv struct {
		k string
		v Value
	}
	t.mu.Lock()
	snap := make([]kv, 0, t.m.Len())
	for pair := t.m.Oldest(); pair != nil; pair = pair.Next() {
		snap = append(snap, kv{pair.Key, pair.Value})
	}
	t.mu.Unlock()
	for _, e := range snap {
		if !fn(e.k, e.v) {
			return
		}
	}
}
