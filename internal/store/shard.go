package store

import (
	"container/heap"
	"time"
)

// entry is one stored value (§3 Entry). A zero generation never appears on
// a live entry: the first write to a key produces generation 1, so a
// heapNode left over from before a key ever existed can never be mistaken
// for live.
type entry struct {
	value       []byte
	generation  uint64
	hasDeadline bool
	deadline    time.Time
}

// expired reports whether e's deadline, if any, has passed as of now.
func (e entry) expired(now time.Time) bool {
	return e.hasDeadline && !e.deadline.After(now)
}

// heapNode is one (deadline, key, generation) entry in a shard's eviction
// heap (§4.4). It is considered live only while the generation field here
// still matches the generation the map currently holds for key.
type heapNode struct {
	deadline   time.Time
	key        string
	generation uint64
}

// minHeap orders heapNodes by ascending deadline and implements
// container/heap.Interface. There is no third-party priority-queue library
// among this module's dependencies that improves on the standard library
// here, so the shard's eviction heap is built directly on container/heap.
type minHeap []heapNode

func (h minHeap) Len() int            { return len(h) }
func (h minHeap) Less(i, j int) bool  { return h[i].deadline.Before(h[j].deadline) }
func (h minHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x interface{}) { *h = append(*h, x.(heapNode)) }
func (h *minHeap) Pop() interface{} {
	old := *h
	n := len(old)
	node := old[n-1]
	*h = old[:n-1]
	return node
}

// shard is one partition of the Store: a map guarded by a single mutex,
// plus the auxiliary eviction heap described in §4.4. All shard methods
// assume the caller already holds mu; Store is the only caller and always
// takes the lock immediately before delegating.
type shard struct {
	data map[string]entry
	heap minHeap
}

func newShard(capacityHint int) *shard {
	if capacityHint < 0 {
		capacityHint = 0
	}
	return &shard{
		data: make(map[string]entry, capacityHint),
		heap: make(minHeap, 0),
	}
}

// evictExpired runs the lazy eviction pass of §4.5: pop heap nodes whose
// deadline has passed, removing the corresponding map entry only when the
// node is still live, and stop at the first node whose deadline is still
// in the future.
func (s *shard) evictExpired(now time.Time) {
	for len(s.heap) > 0 {
		top := s.heap[0]
		if top.deadline.After(now) {
			return
		}
		heap.Pop(&s.heap)
		cur, exists := s.data[top.key]
		if exists && cur.hasDeadline && cur.deadline.Equal(top.deadline) && cur.generation == top.generation {
			delete(s.data, top.key)
		}
	}
}

// set runs the lazy eviction pass, then inserts or overwrites key, bumping
// its generation. With hasTTL it also pushes a heap node carrying the new
// generation.
func (s *shard) set(key string, value []byte, now time.Time, ttl time.Duration, hasTTL bool) {
	s.evictExpired(now)

	gen := uint64(1)
	if cur, exists := s.data[key]; exists {
		gen = cur.generation + 1
	}

	e := entry{value: value, generation: gen}
	if hasTTL {
		e.hasDeadline = true
		e.deadline = now.Add(ttl)
		heap.Push(&s.heap, heapNode{deadline: e.deadline, key: key, generation: gen})
	}
	s.data[key] = e
}

// get looks up key, opportunistically expiring it if its deadline has
// passed (§4.5 GET, resolving Open Question (b) in favor of opportunistic
// read-path expiry). The returned slice is a copy so callers can never
// mutate shard-owned storage.
func (s *shard) get(key string, now time.Time) ([]byte, bool) {
	cur, exists := s.data[key]
	if !exists {
		return nil, false
	}
	if cur.expired(now) {
		delete(s.data, key)
		return nil, false
	}
	out := make([]byte, len(cur.value))
	copy(out, cur.value)
	return out, true
}

// del removes key unconditionally and reports whether it was present. The
// heap is left untouched, per §4.5: any surviving node for key is now
// stale and will be discarded the next time evictExpired pops it.
func (s *shard) del(key string) int {
	if _, exists := s.data[key]; exists {
		delete(s.data, key)
		return 1
	}
	return 0
}
