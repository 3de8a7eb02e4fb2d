// Package hashmap implements a concurrent key/value map whose keys and values
// are shareable values.
//
// Keys are identified structurally: two independently built frozen lists
// [1, 2, 3] are the same key. Every key and value is run through the
// shareability validator before it is stored, so nothing held by the map can
// be mutated behind its back.
package hashmap

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/maruel/ksid"

	"github.com/kolkov/isoshare/internal/share/validate"
	"github.com/kolkov/isoshare/internal/share/value"
)

// maxShards caps the default shard count.
const maxShards = 256

// Options configures a Map. The zero value is valid.
type Options struct {
	// Shards is the number of independently locked shards. It is rounded up
	// to a power of two. Default: 4 × GOMAXPROCS, at most 256.
	Shards int

	// Validator gates every key and value. Its Host also supplies hashing and
	// equality for host objects. Default: validate.Default().
	Validator *validate.Validator

	// Logger receives Debug records for rejected writes and clears.
	// Default: discard.
	Logger *slog.Logger
}

type entry struct {
	key value.Value
	val value.Value
}

// shardStride is the size of one shard in the shard array. Two 64-byte cache
// lines: a lock sits at the start of its shard, so neighbouring locks are
// always more than a line apart.
const shardStride = 128

// shardState is one lock stripe.
//
// buckets maps the structural hash of a key to every entry whose key has that
// hash; entries in one chain are told apart with value.Equal.
type shardState struct {
	mu      sync.RWMutex
	buckets map[uint64][]entry
	n       atomic.Int64
}

type shard struct {
	shardState
	_ [shardStride - unsafe.Sizeof(shardState{})]byte
}

// Map is a concurrent map from shareable keys to shareable values.
//
// Architecture:
//   - A power-of-two array of shards, each guarded by its own RWMutex
//   - A key's shard is picked by a multiplicative golden-ratio mix of its
//     structural hash, so similar hashes still spread across shards
//   - Inside a shard, hash-keyed collision chains compared by structural
//     equality
//
// Operations on the same key serialize on one shard lock and are mutually
// atomic. Operations on keys in different shards proceed in parallel.
//
// Thread Safety: All methods are safe for concurrent calls.
type Map struct {
	value.Vended

	shards []shard
	shift  uint
	v      *validate.Validator
	host   value.Host
	log    *slog.Logger
	id     ksid.ID
}

func init() { value.RegisterShared((*Map)(nil)) }

// New returns an empty map configured by opts.
func New(opts Options) *Map {
	n := opts.Shards
	if n <= 0 {
		n = min(4*runtime.GOMAXPROCS(0), maxShards)
	}
	size, bits := 1, uint(0)
	for size < n {
		size <<= 1
		bits++
	}
	if opts.Validator == nil {
		opts.Validator = validate.Default()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	m := &Map{
		shards: make([]shard, size),
		shift:  64 - bits,
		v:      opts.Validator,
		host:   opts.Validator.Host(),
		log:    opts.Logger,
		id:     ksid.NewID(),
	}
	for i := range m.shards {
		m.shards[i].buckets = make(map[uint64][]entry)
	}
	return m
}

// shardFor picks the shard for a structural hash.
//
// Multiplying by the golden ratio and keeping the top bits spreads hashes
// that differ only in low bits. With a single shard shift is 64 and the
// result is always 0.
//
//go:nosplit
func (m *Map) shardFor(h uint64) *shard {
	const goldenRatio = 0x9E3779B97F4A7C15
	return &m.shards[(h*goldenRatio)>>m.shift]
}

// lookup returns the index of key in chain, or -1.
func (m *Map) lookup(chain []entry, key value.Value) int {
	for i := range chain {
		if value.Equal(chain[i].key, key, m.host) {
			return i
		}
	}
	return -1
}

// Get returns the value stored for key.
func (m *Map) Get(key value.Value) (value.Value, bool) {
	h := value.Hash(key, m.host)
	s := m.shardFor(h)
	s.mu.RLock()
	defer s.mu.RUnlock()
	chain := s.buckets[h]
	if i := m.lookup(chain, key); i >= 0 {
		return chain[i].val, true
	}
	return value.Null(), false
}

// HasKey reports whether key is present.
func (m *Map) HasKey(key value.Value) bool {
	_, ok := m.Get(key)
	return ok
}

// Set stores val under key, replacing the value of an equal key.
//
// The key is validated first, then the value. If either is not shareable the
// returned error is a *validate.Violation with Role "key" or "value", and the
// map is left exactly as it was.
func (m *Map) Set(key, val value.Value) error {
	if err := m.v.CheckRole(key, validate.RoleKey); err != nil {
		m.log.Debug("hashmap: rejected set", "map", m.id, "err", err)
		return err
	}
	if err := m.v.CheckRole(val, validate.RoleValue); err != nil {
		m.log.Debug("hashmap: rejected set", "map", m.id, "err", err)
		return err
	}

	h := value.Hash(key, m.host)
	s := m.shardFor(h)
	s.mu.Lock()
	defer s.mu.Unlock()
	chain := s.buckets[h]
	if i := m.lookup(chain, key); i >= 0 {
		chain[i].val = val
		return nil
	}
	s.buckets[h] = append(chain, entry{key: key, val: val})
	s.n.Add(1)
	return nil
}

// Delete removes key and returns the value it held.
func (m *Map) Delete(key value.Value) (value.Value, bool) {
	h := value.Hash(key, m.host)
	s := m.shardFor(h)
	s.mu.Lock()
	defer s.mu.Unlock()
	chain := s.buckets[h]
	i := m.lookup(chain, key)
	if i < 0 {
		return value.Null(), false
	}
	old := chain[i].val
	if len(chain) == 1 {
		delete(s.buckets, h)
	} else {
		last := len(chain) - 1
		chain[i] = chain[last]
		chain[last] = entry{}
		s.buckets[h] = chain[:last]
	}
	s.n.Add(-1)
	return old, true
}

// Size returns the number of entries.
//
// It is exact when no mutation is in flight and may be momentarily off by the
// number of concurrent Set and Delete calls otherwise.
func (m *Map) Size() int {
	var n int64
	for i := range m.shards {
		n += m.shards[i].n.Load()
	}
	return int(n)
}

// Clear removes every entry.
//
// All shard locks are taken in index order before anything is removed, so
// Clear is atomic with respect to every other operation.
func (m *Map) Clear() {
	for i := range m.shards {
		m.shards[i].mu.Lock()
	}
	for i := range m.shards {
		s := &m.shards[i]
		clear(s.buckets)
		s.n.Store(0)
	}
	for i := len(m.shards) - 1; i >= 0; i-- {
		m.shards[i].mu.Unlock()
	}
	m.log.Debug("hashmap: cleared", "map", m.id)
}

// Range calls fn for entries until fn returns false.
//
// Range is weakly consistent: it visits one shard at a time from a copy taken
// under that shard's read lock. An entry present for the whole call is
// visited exactly once; entries added or removed concurrently may or may not
// be. There is no ordering. fn may call any method of the map.
func (m *Map) Range(fn func(key, val value.Value) bool) {
	var snap []entry
	for i := range m.shards {
		s := &m.shards[i]
		snap = snap[:0]
		s.mu.RLock()
		for _, chain := range s.buckets {
			snap = append(snap, chain...)
		}
		s.mu.RUnlock()
		for _, e := range snap {
			if !fn(e.key, e.val) {
				return
			}
		}
	}
}

// MemSize returns an approximation of the memory held by the map in bytes.
// Keys and values are frozen and may be shared with other owners, so only
// the map's own storage is counted.
func (m *Map) MemSize() int {
	const bucketOverhead = 48 // map slot plus slice header
	total := int(unsafe.Sizeof(*m)) + len(m.shards)*int(unsafe.Sizeof(shard{}))
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.RLock()
		for _, chain := range s.buckets {
			total += bucketOverhead + cap(chain)*int(unsafe.Sizeof(entry{}))
		}
		s.mu.RUnlock()
	}
	return total
}

// Shards returns the number of shards.
func (m *Map) Shards() int { return len(m.shards) }

// String returns a short description for diagnostics.
func (m *Map) String() string {
	return fmt.Sprintf("#<hash_map %s size=%d>", m.id, m.Size())
}

// SharedID returns the identity of the map. It implements value.Shared.
func (m *Map) SharedID() ksid.ID { return m.id }

// SharedKind returns "hash_map". It implements value.Shared.
func (m *Map) SharedKind() string { return "hash_map" }
