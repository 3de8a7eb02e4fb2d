package value

import "fmt"

// FNV-1a parameters, applied a byte at a time to 64-bit words.
const (
	fnvOffset uint64 = 14695981039346656037
	fnvPrime  uint64 = 1099511628211
)

// Per-kind seeds keep equal payloads of different kinds apart,
// e.g. Int(1) and Bool(true), or Str("a") and Symbol("a").
const (
	seedNull uint64 = iota + 0x51
	seedBool
	seedInt
	seedFloat
	seedSymbol
	seedText
	seedList
	seedTable
	seedTableKey
	seedShared
	seedHost
	seedCycle
)

//go:nosplit
func mixWord(h, x uint64) uint64 {
	for i := 0; i < 8; i++ {
		h ^= x & 0xFF
		h *= fnvPrime
		x >>= 8
	}
	return h
}

func hashString(seed uint64, s string) uint64 {
	h := mixWord(fnvOffset, seed)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= fnvPrime
	}
	return mixWord(h, uint64(len(s)))
}

func typeName(obj any) string { return fmt.Sprintf("%T", obj) }

// Hash returns the structural hash of v.
//
// Values that are Equal under the same host hash the same. Host objects are
// hashed by host; a nil host behaves as StrictHost.
//
// Thread Safety: Safe for concurrent calls on frozen values.
func Hash(v Value, host Host) uint64 {
	if host == nil {
		host = StrictHost{}
	}
	h := hasher{host: host}
	return h.hash(v)
}

type hasher struct {
	host Host
	path []any
}

func (h *hasher) enter(ref any) bool {
	for _, r := range h.path {
		if r == ref {
			return false
		}
	}
	h.path = append(h.path, ref)
	return true
}

func (h *hasher) leave() { h.path = h.path[:len(h.path)-1] }

func (h *hasher) hash(v Value) uint64 {
	switch v.kind {
	case KindNull:
		return mixWord(fnvOffset, seedNull)
	case KindBool:
		return mixWord(mixWord(fnvOffset, seedBool), v.bits)
	case KindInt:
		return mixWord(mixWord(fnvOffset, seedInt), v.bits)
	case KindFloat:
		return mixWord(mixWord(fnvOffset, seedFloat), canonicalFloatBits(v.bits))
	case KindSymbol:
		return v.ref.(*symEntry).hash
	case KindText:
		return hashString(seedText, v.ref.(*Text).String())
	case KindList:
		l := v.ref.(*List)
		if !h.enter(l) {
			return mixWord(fnvOffset, seedCycle)
		}
		defer h.leave()
		elems := l.view()
		acc := mixWord(fnvOffset, seedList)
		for _, e := range elems {
			acc = mixWord(acc, h.hash(e))
		}
		return mixWord(acc, uint64(len(elems)))
	case KindTable:
		t := v.ref.(*Table)
		if !h.enter(t) {
			return mixWord(fnvOffset, seedCycle)
		}
		defer h.leave()
		// Entries are combined with a commutative sum so insertion order
		// does not affect the hash.
		var sum uint64
		n := 0
		t.Range(func(k string, e Value) bool {
			sum += mixWord(hashString(seedTableKey, k), h.hash(e))
			n++
			return true
		})
		return mixWord(mixWord(mixWord(fnvOffset, seedTable), sum), uint64(n))
	case KindShared:
		return mixWord(mixWord(fnvOffset, seedShared), uint64(v.ref.(Shared).SharedID()))
	case KindHost:
		return mixWord(mixWord(fnvOffset, seedHost), h.host.Hash(v.ref))
	}
	return 0
}

// Equal reports whether a and b are structurally equal.
//
// Two composites are equal when they have the same kind and equal contents,
// regardless of whether either is frozen. Shared objects are equal only to
// themselves. Host objects are compared by host; a nil host behaves as
// StrictHost.
func Equal(a, b Value, host Host) bool {
	if host == nil {
		host = StrictHost{}
	}
	e := equaler{host: host}
	return e.equal(a, b)
}

type equaler struct {
	host Host
	path [][2]any
}

func (e *equaler) enter(a, b any) bool {
	for _, p := range e.path {
		if p[0] == a && p[1] == b {
			return false
		}
	}
	e.path = append(e.path, [2]any{a, b})
	return true
}

func (e *equaler) leave() { e.path = e.path[:len(e.path)-1] }

func (e *equaler) equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool, KindInt:
		return a.bits == b.bits
	case KindFloat:
		return canonicalFloatBits(a.bits) == canonicalFloatBits(b.bits)
	case KindSymbol:
		return a.ref == b.ref
	case KindText:
		ta, tb := a.ref.(*Text), b.ref.(*Text)
		return ta == tb || ta.String() == tb.String()
	case KindList:
		la, lb := a.ref.(*List), b.ref.(*List)
		if la == lb {
			return true
		}
		// A pair already being compared higher up is assumed equal; any
		// real difference is found on the other branches.
		if !e.enter(la, lb) {
			return true
		}
		defer e.leave()
		ea, eb := la.view(), lb.view()
		if len(ea) != len(eb) {
			return false
		}
		for i := range ea {
			if !e.equal(ea[i], eb[i]) {
				return false
			}
		}
		return true
	case KindTable:
		ta, tb := a.ref.(*Table), b.ref.(*Table)
		if ta == tb {
			return true
		}
		if !e.enter(ta, tb) {
			return true
		}
		defer e.leave()
		if ta.Len() != tb.Len() {
			return false
		}
		eq := true
		ta.Range(func(k string, va Value) bool {
			vb, ok := tb.Get(k)
			eq = ok && e.equal(va, vb)
			return eq
		})
		return eq
	case KindShared:
		return a.ref.(Shared).SharedID() == b.ref.(Shared).SharedID()
	case KindHost:
		return e.host.Equal(a.ref, b.ref)
	}
	return false
}
