package value

import (
	"reflect"
	"sync"

	"github.com/maruel/ksid"
)

// Host supplies the rules for host objects wrapped with [HostOf].
//
// It is the capability through which the embedding environment answers the
// two questions the package cannot answer itself: whether an opaque object is
// deeply immutable, and what its structural hash and equality are. Hash and
// Equal must agree: Equal(a, b) implies Hash(a) == Hash(b).
//
// Implementations must be safe for concurrent use.
type Host interface {
	// Immutable reports whether obj can never be mutated again.
	Immutable(obj any) bool
	// Hash returns a structural hash of obj.
	Hash(obj any) uint64
	// Equal reports whether a and b are structurally equal.
	Equal(a, b any) bool
}

// StrictHost proves nothing immutable. Host objects are rejected by the
// validator and only ever equal to themselves when comparable.
type StrictHost struct{}

// Immutable always returns false.
func (StrictHost) Immutable(any) bool { return false }

// Hash returns a hash of the dynamic type name only.
func (StrictHost) Hash(obj any) uint64 { return hashString(seedHost, typeName(obj)) }

// Equal reports identity for comparable objects and false otherwise.
func (StrictHost) Equal(a, b any) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}

// Shared is implemented by objects vended by the containers. They are
// concurrency-safe by construction and may cross an isolate boundary as they
// are; their identity is the ID assigned at creation.
//
// The interface is sealed: only types embedding [Vended] satisfy it, and the
// validator additionally requires the dynamic type to be registered with
// [RegisterShared]. A struct that merely embeds a container is therefore not
// itself shareable.
type Shared interface {
	// SharedID returns the identity of the object, unique per process.
	SharedID() ksid.ID
	// SharedKind returns a short type name for diagnostics, e.g. "queue".
	SharedKind() string

	vended()
}

// Vended seals [Shared]. Every container type embeds it.
type Vended struct{}

func (Vended) vended() {}

// vendedTypes holds the dynamic types registered by the container packages.
//
// Key: reflect.Type of the container pointer
// Value: struct{}
var vendedTypes sync.Map

// RegisterShared records the dynamic type of s as a container type. Container
// packages call it from init with a typed nil pointer.
func RegisterShared(s Shared) {
	vendedTypes.Store(reflect.TypeOf(s), struct{}{})
}

// IsVended reports whether s has a registered container type.
func IsVended(s Shared) bool {
	if s == nil {
		return false
	}
	_, ok := vendedTypes.Load(reflect.TypeOf(s))
	return ok
}
