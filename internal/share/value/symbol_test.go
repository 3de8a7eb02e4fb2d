package value

import (
	"sync"
	"testing"
)

// TestIntern_Deduplicates verifies the same name yields the same Sym.
func TestIntern_Deduplicates(t *testing.T) {
	a := Intern("symbol-test-a")
	b := Intern("symbol-test-a")
	c := Intern("symbol-test-c")

	if a != b {
		t.Error("Intern returned different Syms for the same name")
	}
	if a == c {
		t.Error("Intern returned the same Sym for different names")
	}
	if a.String() != ":symbol-test-a" {
		t.Errorf("String() = %q", a.String())
	}
}

// TestIntern_ZeroSym verifies the zero Sym is invalid and maps to null.
func TestIntern_ZeroSym(t *testing.T) {
	var s Sym
	if s.Valid() || s.Name() != "" {
		t.Error("zero Sym reports as valid")
	}
	if !SymbolOf(s).IsNull() {
		t.Error("SymbolOf(zero) is not null")
	}
}

// TestIntern_Concurrent verifies racing interns agree on one entry.
func TestIntern_Concurrent(t *testing.T) {
	const goroutines = 64
	before := SymbolCount()

	syms := make([]Sym, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			syms[i] = Intern("symbol-test-race")
		}(i)
	}
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		if syms[i] != syms[0] {
			t.Fatalf("goroutine %d got a different Sym", i)
		}
	}
	if got := SymbolCount() - before; got > 1 {
		t.Errorf("SymbolCount grew by %d, want at most 1", got)
	}
}
