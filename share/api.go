package share

import (
	"github.com/kolkov/isoshare/internal/share/atomicint"
	"github.com/kolkov/isoshare/internal/share/hashmap"
	"github.com/kolkov/isoshare/internal/share/queue"
	"github.com/kolkov/isoshare/internal/share/validate"
	"github.com/kolkov/isoshare/internal/share/value"
)

// Value model.
type (
	// Value is a tagged variant over every kind a container can hold.
	Value = value.Value
	// Kind identifies the variant held by a Value.
	Kind = value.Kind
	// Sym is an interned symbol.
	Sym = value.Sym
	// Text is a freezable string buffer.
	Text = value.Text
	// List is a freezable ordered sequence.
	List = value.List
	// Table is a freezable insertion-ordered string-keyed record.
	Table = value.Table
	// Host decides immutability, hashing and equality of host objects.
	Host = value.Host
	// StrictHost rejects every host object.
	StrictHost = value.StrictHost
	// Shared is implemented by every container.
	Shared = value.Shared
)

// Kinds of Value.
const (
	KindNull   = value.KindNull
	KindBool   = value.KindBool
	KindInt    = value.KindInt
	KindFloat  = value.KindFloat
	KindSymbol = value.KindSymbol
	KindText   = value.KindText
	KindList   = value.KindList
	KindTable  = value.KindTable
	KindShared = value.KindShared
	KindHost   = value.KindHost
)

// Containers and validation.
type (
	// AtomicInteger is a 64-bit integer cell with linearizable operations.
	AtomicInteger = atomicint.Cell
	// HashMap is a concurrent map with structural key identity.
	HashMap = hashmap.Map
	// HashMapOptions configures a HashMap.
	HashMapOptions = hashmap.Options
	// Queue is a closable FIFO with a blocking pop.
	Queue = queue.Queue
	// QueueOptions configures a Queue.
	QueueOptions = queue.Options
	// Validator decides whether a value may be shared.
	Validator = validate.Validator
	// ValidatorOptions configures a Validator.
	ValidatorOptions = validate.Options
	// Violation describes a rejected value.
	Violation = validate.Violation
)

// Errors.
var (
	// ErrNotShareable is matched by every *Violation.
	ErrNotShareable = validate.ErrNotShareable
	// ErrClosed is returned by Queue.Push after Close.
	ErrClosed = queue.ErrClosed
	// ErrFrozen is returned by mutators of frozen composites.
	ErrFrozen = value.ErrFrozen
	// ErrIndex is returned for an out-of-range list index.
	ErrIndex = value.ErrIndex
)

// Null returns the null value.
func Null() Value { return value.Null() }

// Bool returns a boolean value.
func Bool(b bool) Value { return value.Bool(b) }

// Int returns an integer value.
func Int(i int64) Value { return value.Int(i) }

// Float returns a float value.
func Float(f float64) Value { return value.Float(f) }

// Symbol returns the interned symbol called name.
func Symbol(name string) Value { return value.Symbol(name) }

// Str returns frozen text.
func Str(s string) Value { return value.Str(s) }

// Frozen returns a frozen list of elems.
func Frozen(elems ...Value) Value { return value.Frozen(elems...) }

// NewText returns mutable text.
func NewText(s string) *Text { return value.NewText(s) }

// NewList returns a mutable list.
func NewList(elems ...Value) *List { return value.NewList(elems...) }

// NewTable returns an empty mutable table.
func NewTable() *Table { return value.NewTable() }

// TextOf wraps text as a Value.
func TextOf(t *Text) Value { return value.TextOf(t) }

// ListOf wraps a list as a Value.
func ListOf(l *List) Value { return value.ListOf(l) }

// TableOf wraps a table as a Value.
func TableOf(t *Table) Value { return value.TableOf(t) }

// SharedOf wraps a container so it can be stored in another container.
func SharedOf(s Shared) Value { return value.SharedOf(s) }

// HostOf wraps a host object.
func HostOf(obj any) Value { return value.HostOf(obj) }

// Equal reports structural equality using StrictHost for host objects.
func Equal(a, b Value) bool { return value.Equal(a, b, nil) }

// NewAtomicInteger returns a cell holding initial.
func NewAtomicInteger(initial int64) *AtomicInteger { return atomicint.New(initial) }

// NewHashMap returns an empty map with default options.
func NewHashMap() *HashMap { return hashmap.New(hashmap.Options{}) }

// NewHashMapWithOptions returns an empty map configured by opts.
func NewHashMapWithOptions(opts HashMapOptions) *HashMap { return hashmap.New(opts) }

// NewQueue returns an empty open queue with default options.
func NewQueue() *Queue { return queue.New(queue.Options{}) }

// NewQueueWithOptions returns an empty open queue configured by opts.
func NewQueueWithOptions(opts QueueOptions) *Queue { return queue.New(opts) }

// NewValidator returns a validator configured by opts.
func NewValidator(opts ValidatorOptions) *Validator { return validate.New(opts) }

// Check validates v with the default validator.
func Check(v Value) error { return validate.Default().Check(v) }

// IsShareable reports whether v passes the default validator.
func IsShareable(v Value) bool { return validate.Default().Shareable(v) }
