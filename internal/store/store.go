// Package store implements the sharded, TTL-expiring key-value store
// described in §3/§4.4/§4.5: a fixed array of shards, each independently
// guarded and carrying its own eviction heap, with cleanup performed
// lazily on the write path.
package store

import (
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
)

// DefaultShards is used when Options.Shards is not positive.
const DefaultShards = 8

// Options configures a new Store.
type Options struct {
	// Shards is the number of shards N. Must be a power of two in the
	// original sharded-map reference this is derived from, but this
	// implementation places no such restriction on N: shardIndex uses a
	// modulo, not a mask, so any positive N partitions the key space
	// correctly.
	Shards int
	// Capacity is a hint for the total number of keys expected across
	// all shards; it is divided evenly and used to pre-size each
	// shard's map (§4.5 "Capacity"). It bounds nothing: growth beyond
	// Capacity is unrestricted.
	Capacity int
	// Logger receives store diagnostics (a debug line when the store is
	// initialized; evictions are not logged). A nil Logger is replaced
	// with hclog's null logger.
	Logger hclog.Logger
}

// guardedShard pairs one shard with the single mutex that protects it.
// Store never holds two of these locks at once, so deadlock is impossible
// by construction (§5 "Shared resource policy").
type guardedShard struct {
	mu sync.Mutex
	s  *shard
}

// Store is a fixed array of N shards, routed by shardIndex (§3 Store).
type Store struct {
	shards []*guardedShard
	log    hclog.Logger
}

// New constructs a Store with the given options. Shards are created here
// and live for the lifetime of the process; there is no resize operation.
func New(opts Options) *Store {
	n := opts.Shards
	if n <= 0 {
		n = DefaultShards
	}
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	perShard := 0
	if opts.Capacity > 0 {
		perShard = opts.Capacity / n
	}

	shards := make([]*guardedShard, n)
	for i := range shards {
		shards[i] = &guardedShard{s: newShard(perShard)}
	}

	logger.Debug("store initialized", "shards", n, "capacity_hint", opts.Capacity)
	return &Store{shards: shards, log: logger}
}

// NumShards reports N.
func (st *Store) NumShards() int { return len(st.shards) }

// ShardIndex reports which shard key routes to. It is exported so the
// sharding-invariant property in §8 can be tested directly against the
// routing function rather than inferred from behavior.
func (st *Store) ShardIndex(key []byte) int {
	return shardIndex(key, len(st.shards))
}

func (st *Store) shardFor(key []byte) *guardedShard {
	return st.shards[st.ShardIndex(key)]
}

// Set implements §4.5 SET: runs the lazy eviction pass on key's shard,
// then inserts or overwrites key, bumping its generation. When hasTTL is
// false the entry never expires and contributes nothing to the heap.
func (st *Store) Set(key, value []byte, ttl time.Duration, hasTTL bool) {
	gs := st.shardFor(key)
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.s.set(string(key), value, time.Now(), ttl, hasTTL)
}

// Get implements §4.5 GET: a present, unexpired entry returns its value
// and true; an absent or expired entry returns (nil, false). An expired
// entry is removed as a side effect (opportunistic read-path eviction,
// Open Question (b)).
func (st *Store) Get(key []byte) ([]byte, bool) {
	gs := st.shardFor(key)
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return gs.s.get(string(key), time.Now())
}

// Del implements §4.5 DEL, generalized to accept any number of keys in one
// call (§4.6): each key is routed to its own shard independently and the
// per-key removal counts are summed.
func (st *Store) Del(keys ...[]byte) int {
	count := 0
	for _, key := range keys {
		gs := st.shardFor(key)
		gs.mu.Lock()
		count += gs.s.del(string(key))
		gs.mu.Unlock()
	}
	return count
}
