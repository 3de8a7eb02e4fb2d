// Package validate decides whether a value may cross an isolate boundary
// without being copied.
//
// A value is shareable when nothing reachable from it can ever be mutated
// again:
//
//   - Primitives (null, bool, int, float, symbol) are always shareable.
//   - Text, lists and tables are shareable iff they are frozen and every
//     element is shareable in turn. The descent is full and recursive.
//   - Containers vended by this module are shareable as they are; they are
//     not inspected. Any other implementation of [value.Shared], including a
//     struct embedding a container, is rejected.
//   - Host objects are shareable only if the injected [value.Host] proves
//     them immutable.
//
// Everything else is rejected with a [*Violation] that names the offending
// kind and where it sits inside the value.
//
// Check is pure. It does not freeze, copy or log anything, and it never
// modifies the value it inspects.
package validate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kolkov/isoshare/internal/share/value"
)

// ErrNotShareable is matched by every *Violation via errors.Is.
var ErrNotShareable = errors.New("value is not shareable")

// DefaultMaxDepth bounds the nesting depth the validator descends into.
const DefaultMaxDepth = 512

// Roles a container assigns to a rejected value.
const (
	RoleKey   = "key"
	RoleValue = "value"
	RoleItem  = "item"
)

// Violation reports why a value was rejected.
//
// Fields:
//   - Kind: description of the offending element, e.g. "mutable list",
//     "host object *bytes.Buffer", "cyclic table" or "nesting too deep"
//   - Path: location of the offending element relative to the checked value,
//     e.g. "[2].name"; empty when the value itself is at fault
//   - Role: what the value was for the caller ("key", "value", "item");
//     empty when Check was called directly
//
// Example output:
//
//	isoshare: value is not shareable: mutable list at [2].tags
//
// Thread Safety: Immutable after creation, safe for concurrent use.
type Violation struct {
	Kind string
	Path string
	Role string
}

// Error implements the error interface.
func (v *Violation) Error() string {
	var b strings.Builder
	b.WriteString("isoshare: ")
	if v.Role != "" {
		b.WriteString(v.Role)
	} else {
		b.WriteString("value")
	}
	b.WriteString(" is not shareable: ")
	b.WriteString(v.Kind)
	if v.Path != "" {
		b.WriteString(" at ")
		b.WriteString(v.Path)
	}
	return b.String()
}

// Unwrap returns ErrNotShareable.
func (v *Violation) Unwrap() error { return ErrNotShareable }

// Options configures a Validator. The zero value is valid.
type Options struct {
	// Host proves host objects immutable. Defaults to value.StrictHost,
	// which rejects every host object.
	Host value.Host

	// MaxDepth is the deepest nesting accepted. Defaults to DefaultMaxDepth.
	MaxDepth int
}

// Validator checks values for shareability.
//
// Thread Safety: Immutable after creation, safe for concurrent use.
type Validator struct {
	host     value.Host
	maxDepth int
}

// New returns a Validator configured by opts.
func New(opts Options) *Validator {
	if opts.Host == nil {
		opts.Host = value.StrictHost{}
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	return &Validator{host: opts.Host, maxDepth: opts.MaxDepth}
}

var defaultValidator = New(Options{})

// Default returns the validator used when a container is given none.
func Default() *Validator { return defaultValidator }

// Host returns the host capability the validator was configured with.
// Containers use it for structural hashing and equality too, so that what
// the validator accepts and how keys are identified agree.
func (v *Validator) Host() value.Host { return v.host }

// Check returns nil if x is shareable and a *Violation otherwise.
func (v *Validator) Check(x value.Value) error {
	return v.CheckRole(x, "")
}

// CheckRole is Check with the Role of a resulting violation set to role.
func (v *Validator) CheckRole(x value.Value, role string) error {
	w := walker{v: v, onPath: map[any]struct{}{}}
	if kind := w.walk(x, 0); kind != "" {
		return &Violation{Kind: kind, Path: w.pathString(), Role: role}
	}
	return nil
}

// Shareable reports whether x passes Check.
func (v *Validator) Shareable(x value.Value) bool {
	return v.Check(x) == nil
}

// walker carries the state of one Check call.
//
// onPath holds the composites on the current descent; meeting one again is a
// cycle. proven maps frozen composites already accepted to the deepest depth
// they were accepted at, so shared substructure is not inspected again unless
// it shows up deeper. Frozen contents never change, which keeps the memo
// valid for the whole walk.
type walker struct {
	v      *Validator
	onPath map[any]struct{}
	proven map[any]int
	path   []string // segments of the offending element, innermost last
}

// walk returns "" when x is shareable and the violation kind otherwise. On
// failure path holds the segments leading to the offending element.
func (w *walker) walk(x value.Value, depth int) string {
	if depth > w.v.maxDepth {
		return "nesting too deep"
	}
	switch x.Kind() {
	case value.KindNull, value.KindBool, value.KindInt, value.KindFloat, value.KindSymbol:
		return ""
	case value.KindShared:
		if s := x.AsShared(); !value.IsVended(s) {
			return fmt.Sprintf("shared object %T not vended by a container", s)
		}
		return ""
	case value.KindHost:
		obj := x.AsHost()
		if w.v.host.Immutable(obj) {
			return ""
		}
		return fmt.Sprintf("host object %T", obj)
	case value.KindText:
		if !x.AsText().Frozen() {
			return "mutable text"
		}
		return ""
	case value.KindList:
		l := x.AsList()
		if kind, done := w.enter(l, l.Frozen(), "list", depth); done {
			return kind
		}
		for i := 0; i < l.Len(); i++ {
			if kind := w.walk(l.At(i), depth+1); kind != "" {
				w.path = append(w.path, "["+strconv.Itoa(i)+"]")
				return kind
			}
		}
		w.leave(l, depth)
		return ""
	case value.KindTable:
		t := x.AsTable()
		if kind, done := w.enter(t, t.Frozen(), "table", depth); done {
			return kind
		}
		kind := ""
		t.Range(func(k string, e value.Value) bool {
			if kind = w.walk(e, depth+1); kind != "" {
				w.path = append(w.path, keySegment(k))
				return false
			}
			return true
		})
		if kind != "" {
			return kind
		}
		w.leave(t, depth)
		return ""
	}
	return "unknown kind " + x.Kind().String()
}

// enter handles the checks common to lists and tables. done is true when the
// composite needs no descent, with kind set if it was rejected.
//
// A composite proven at some depth also fits at any shallower depth, so the
// memo only short-circuits visits no deeper than the deepest proof.
func (w *walker) enter(ref any, frozen bool, name string, depth int) (kind string, done bool) {
	if !frozen {
		return "mutable " + name, true
	}
	if d, ok := w.proven[ref]; ok && depth <= d {
		return "", true
	}
	if _, ok := w.onPath[ref]; ok {
		return "cyclic " + name, true
	}
	w.onPath[ref] = struct{}{}
	return "", false
}

func (w *walker) leave(ref any, depth int) {
	delete(w.onPath, ref)
	if w.proven == nil {
		w.proven = map[any]int{}
	}
	if d, ok := w.proven[ref]; !ok || depth > d {
		w.proven[ref] = depth
	}
}

func (w *walker) pathString() string {
	var b strings.Builder
	for i := len(w.path) - 1; i >= 0; i-- {
		seg := w.path[i]
		if b.Len() > 0 && seg[0] != '[' {
			b.WriteByte('.')
		}
		b.WriteString(seg)
	}
	return b.String()
}

// keySegment renders a table key as a path segment. Keys that would make the
// path ambiguous are quoted.
func keySegment(k string) string {
	if k == "" || strings.ContainsAny(k, ".[] \t\n\"") {
		return "[" + strconv.Quote(k) + "]"
	}
	return k
}
