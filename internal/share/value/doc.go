// Package value implements the value model shared between isolates.
//
// A [Value] is a small tagged variant. Its kind decides how it is hashed,
// compared and whether it can ever be proven immutable:
//
//   - Primitives: null, bool, int64, float64 and interned symbols. Always
//     immutable.
//   - Composites: [Text], [List] and [Table]. They start out mutable and are
//     sealed with Freeze. Freezing is one-way; every mutator of a frozen
//     composite returns [ErrFrozen].
//   - Shared: an object vended by one of the containers (atomic cell, map,
//     queue). It is a concurrency primitive itself, so it is passed around by
//     reference and compared by identity. [Shared] is sealed; only the
//     registered container types count.
//   - Host: the single open case. It wraps an arbitrary host object whose
//     immutability, hash and equality rules are supplied by an injected [Host].
//
// # Identity
//
// [Hash] and [Equal] implement deep structural identity: two lists built
// independently with the same elements hash the same and compare equal.
// Lists are order-sensitive, tables are not. Integers and floats are distinct
// kinds, so Int(1) and Float(1) are different keys. Floats are compared by a
// canonical bit pattern: -0.0 equals 0.0 and NaN equals NaN, which makes every
// float usable as a map key.
//
// Hash and Equal terminate on cyclic values. A composite that is reached again
// while it is still on the current descent path is treated as a fixed point.
//
// # Thread Safety
//
// Primitives, symbols and frozen composites are safe for concurrent reads
// without locking: Freeze publishes the final contents with an atomic store
// and nothing can change them afterwards. Mutable composites serialize their
// own mutators and readers with a mutex, but a mutable composite is by
// definition owned by one isolate and is never admitted into a container.
package value
