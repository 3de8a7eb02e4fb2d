package value

import (
	"sync"
)

// Sym is an interned symbolic identifier.
//
// Two symbols with the same name are the same Sym, so symbol equality is a
// pointer comparison and the hash is computed once at interning time.
// The zero Sym is invalid; use [Intern].
type Sym struct {
	e *symEntry
}

type symEntry struct {
	name string
	hash uint64
}

// symbolDepot is the process-wide symbol table.
//
// Key: symbol name (string)
// Value: *symEntry
//
// Entries are never removed; symbols live for the lifetime of the process,
// the same way the host interns them.
var symbolDepot sync.Map

// Intern returns the unique Sym for name.
//
// Thread Safety: Safe for concurrent calls. Racing callers interning the same
// new name all receive the entry that won LoadOrStore.
func Intern(name string) Sym {
	if e, ok := symbolDepot.Load(name); ok {
		return Sym{e: e.(*symEntry)}
	}
	e := &symEntry{name: name, hash: hashString(seedSymbol, name)}
	actual, _ := symbolDepot.LoadOrStore(name, e)
	return Sym{e: actual.(*symEntry)}
}

// Name returns the symbol's name, or "" for the zero Sym.
func (s Sym) Name() string {
	if s.e == nil {
		return ""
	}
	return s.e.name
}

// Valid reports whether s was produced by Intern.
func (s Sym) Valid() bool { return s.e != nil }

// String returns the name prefixed with a colon.
func (s Sym) String() string { return ":" + s.Name() }

// SymbolCount returns the number of interned symbols. O(N); for diagnostics.
func SymbolCount() int {
	n := 0
	symbolDepot.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
