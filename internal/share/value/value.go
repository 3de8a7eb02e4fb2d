package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	// KindNull is the zero Kind; the zero Value is null.
	KindNull Kind = iota
	// KindBool is a boolean.
	KindBool
	// KindInt is a signed 64-bit integer.
	KindInt
	// KindFloat is a 64-bit IEEE 754 float.
	KindFloat
	// KindSymbol is an interned symbolic identifier.
	KindSymbol
	// KindText is a *Text composite.
	KindText
	// KindList is a *List composite.
	KindList
	// KindTable is a *Table composite.
	KindTable
	// KindShared is an object vended by one of the containers.
	KindShared
	// KindHost is an arbitrary host object.
	KindHost
)

var kindNames = [...]string{
	KindNull:   "null",
	KindBool:   "bool",
	KindInt:    "int",
	KindFloat:  "float",
	KindSymbol: "symbol",
	KindText:   "text",
	KindList:   "list",
	KindTable:  "table",
	KindShared: "shared",
	KindHost:   "host",
}

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Composite reports whether values of this kind own nested storage that may
// be mutable.
func (k Kind) Composite() bool {
	return k == KindText || k == KindList || k == KindTable
}

// Value is a tagged variant over every kind a container can hold.
//
// The zero Value is null. Values are small and meant to be passed by value;
// composites, shared objects and host objects are held by reference.
type Value struct {
	kind Kind
	bits uint64 // bool, int64 or float64 bits
	ref  any    // *symEntry, *Text, *List, *Table, Shared or host object
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool returns a boolean value.
func Bool(b bool) Value {
	v := Value{kind: KindBool}
	if b {
		v.bits = 1
	}
	return v
}

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: KindInt, bits: uint64(i)} }

// Float returns a float value.
func Float(f float64) Value { return Value{kind: KindFloat, bits: math.Float64bits(f)} }

// Symbol returns the interned symbol with the given name.
func Symbol(name string) Value { return SymbolOf(Intern(name)) }

// SymbolOf wraps an already interned symbol.
func SymbolOf(s Sym) Value {
	if s.e == nil {
		return Null()
	}
	return Value{kind: KindSymbol, ref: s.e}
}

// Str returns a frozen text value holding s.
func Str(s string) Value {
	t := NewText(s)
	t.Freeze()
	return TextOf(t)
}

// TextOf wraps a text composite. A nil text yields null.
func TextOf(t *Text) Value {
	if t == nil {
		return Null()
	}
	return Value{kind: KindText, ref: t}
}

// ListOf wraps a list composite. A nil list yields null.
func ListOf(l *List) Value {
	if l == nil {
		return Null()
	}
	return Value{kind: KindList, ref: l}
}

// TableOf wraps a table composite. A nil table yields null.
func TableOf(t *Table) Value {
	if t == nil {
		return Null()
	}
	return Value{kind: KindTable, ref: t}
}

// SharedOf wraps a container so it can be stored in another container.
func SharedOf(s Shared) Value {
	if s == nil {
		return Null()
	}
	return Value{kind: KindShared, ref: s}
}

// HostOf wraps an arbitrary host object. Whether it may be shared is decided
// by the Host given to the validator.
func HostOf(obj any) Value {
	if obj == nil {
		return Null()
	}
	return Value{kind: KindHost, ref: obj}
}

// Frozen returns a frozen list of the given elements.
func Frozen(elems ...Value) Value {
	l := NewList(elems...)
	l.Freeze()
	return ListOf(l)
}

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean held by v. It panics if v is not a bool.
func (v Value) AsBool() bool {
	v.must(KindBool)
	return v.bits != 0
}

// AsInt returns the integer held by v. It panics if v is not an int.
func (v Value) AsInt() int64 {
	v.must(KindInt)
	return int64(v.bits)
}

// AsFloat returns the float held by v. It panics if v is not a float.
func (v Value) AsFloat() float64 {
	v.must(KindFloat)
	return math.Float64frombits(v.bits)
}

// AsSymbol returns the symbol held by v. It panics if v is not a symbol.
func (v Value) AsSymbol() Sym {
	v.must(KindSymbol)
	return Sym{e: v.ref.(*symEntry)}
}

// AsText returns the text held by v. It panics if v is not text.
func (v Value) AsText() *Text {
	v.must(KindText)
	return v.ref.(*Text)
}

// AsList returns the list held by v. It panics if v is not a list.
func (v Value) AsList() *List {
	v.must(KindList)
	return v.ref.(*List)
}

// AsTable returns the table held by v. It panics if v is not a table.
func (v Value) AsTable() *Table {
	v.must(KindTable)
	return v.ref.(*Table)
}

// AsShared returns the container held by v. It panics if v is not shared.
func (v Value) AsShared() Shared {
	v.must(KindShared)
	return v.ref.(Shared)
}

// AsHost returns the host object held by v. It panics if v is not a host value.
func (v Value) AsHost() any {
	v.must(KindHost)
	return v.ref
}

func (v Value) must(k Kind) {
	if v.kind != k {
		panic(fmt.Sprintf("value: %s accessor called on %s", k, v.kind))
	}
}

// canonicalFloatBits folds -0.0 onto 0.0 and every NaN onto one NaN so that
// bit equality matches key identity.
func canonicalFloatBits(bits uint64) uint64 {
	f := math.Float64frombits(bits)
	switch {
	case f == 0:
		return 0
	case math.IsNaN(f):
		return 0x7FF8000000000001
	}
	return bits
}

// String renders v for diagnostics. Symbols print as :name, text is quoted,
// and composites already being printed are shown as [...] or {...}.
func (v Value) String() string {
	var b strings.Builder
	p := printer{b: &b}
	p.print(v)
	return b.String()
}

type printer struct {
	b    *strings.Builder
	path []any
}

func (p *printer) onPath(ref any) bool {
	for _, r := range p.path {
		if r == ref {
			return true
		}
	}
	return false
}

func (p *printer) print(v Value) {
	switch v.kind {
	case KindNull:
		p.b.WriteString("null")
	case KindBool:
		p.b.WriteString(strconv.FormatBool(v.bits != 0))
	case KindInt:
		p.b.WriteString(strconv.FormatInt(int64(v.bits), 10))
	case KindFloat:
		p.b.WriteString(strconv.FormatFloat(math.Float64frombits(v.bits), 'g', -1, 64))
	case KindSymbol:
		p.b.WriteByte(':')
		p.b.WriteString(v.ref.(*symEntry).name)
	case KindText:
		p.b.WriteString(strconv.Quote(v.ref.(*Text).String()))
	case KindList:
		l := v.ref.(*List)
		if p.onPath(l) {
			p.b.WriteString("[...]")
			return
		}
		p.path = append(p.path, l)
		p.b.WriteByte('[')
		for i, e := range l.view() {
			if i > 0 {
				p.b.WriteString(", ")
			}
			p.print(e)
		}
		p.b.WriteByte(']')
		p.path = p.path[:len(p.path)-1]
	case KindTable:
		t := v.ref.(*Table)
		if p.onPath(t) {
			p.b.WriteString("{...}")
			return
		}
		p.path = append(p.path, t)
		p.b.WriteByte('{')
		i := 0
		t.Range(func(k string, e Value) bool {
			if i > 0 {
				p.b.WriteString(", ")
			}
			i++
			p.b.WriteString(k)
			p.b.WriteString(": ")
			p.print(e)
			return true
		})
		p.b.WriteByte('}')
		p.path = p.path[:len(p.path)-1]
	case KindShared:
		s := v.ref.(Shared)
		fmt.Fprintf(p.b, "#<%s %s>", s.SharedKind(), s.SharedID())
	case KindHost:
		fmt.Fprintf(p.b, "#<host %T %v>", v.ref, v.ref)
	}
}
