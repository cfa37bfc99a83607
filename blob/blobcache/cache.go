// Package blobcache keeps recently retrieved blobs in memory, bounded by both
// entry count and bytes, with least-recently-used eviction and optional
// reverification on read.
package blobcache

import (
	"context"
	"math"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/sync/semaphore"
)

const (
	nilIdx   int32 = -1
	maxNodes       = math.MaxInt32
)

// node is a slot of the dense node array. prev and next are indices into the
// same array, so the recency list holds no pointers between nodes.
type node struct {
	key        common.Hash
	entry      *Entry
	prev, next int32
}

// keyLock serializes reverification of one key. refs counts the callers
// holding or waiting for it; the lock is dropped from the map at zero.
type keyLock struct {
	sem  *semaphore.Weighted
	refs int
}

// Stats is a point-in-time view of a cache.
type Stats struct {
	Entries          int
	UsedBytes        uint64
	Hits             uint64
	Misses           uint64
	Evictions        uint64
	ReverifyFailures uint64
}

// Cache is an LRU cache of blob entries keyed by versioned hash. It is safe
// for concurrent use; every mutation happens under a single lock.
type Cache struct {
	cfg Config

	mu    sync.Mutex
	nodes []node
	free  []int32
	index map[common.Hash]int32
	head  int32 // most recently used
	tail  int32 // least recently used
	used  uint64

	keyLocks map[common.Hash]*keyLock // guarded by mu

	hits, misses, evictions, reverifyFailures atomic.Uint64
}

// New creates a cache. Zero fields of cfg take their defaults.
func New(cfg Config) *Cache {
	cfg = cfg.normalize()
	return &Cache{
		cfg:   cfg,
		index:    make(map[common.Hash]int32),
		keyLocks: make(map[common.Hash]*keyLock),
		head:     nilIdx,
		tail:     nilIdx,
	}
}

// Config returns the effective configuration.
func (c *Cache) Config() Config {
	return c.cfg
}

// Put inserts entry under key as the most recently used entry, replacing any
// entry already stored there. Least recently used entries are evicted until
// the new one fits. Put reports false, leaving the cache untouched, if a
// single entry exceeds the byte budget.
func (c *Cache) Put(key common.Hash, entry *Entry) bool {
	if entry == nil || EntrySize > c.cfg.MaxBytes {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if idx, ok := c.index[key]; ok {
		c.removeLocked(idx)
	}
	for c.tail != nilIdx && (len(c.index) >= c.cfg.MaxEntries || c.used+EntrySize > c.cfg.MaxBytes) {
		c.evictLocked()
	}

	idx := c.alloc()
	c.nodes[idx] = node{key: key, entry: entry, prev: nilIdx, next: nilIdx}
	c.pushFront(idx)
	c.index[key] = idx
	c.used += EntrySize
	c.updateGauges()
	return true
}

// Get returns the entry for key and marks it most recently used.
func (c *Cache) Get(key common.Hash) (*Entry, bool) {
	entry, ok := c.lookup(key)
	if ok {
		c.countHit()
	} else {
		c.countMiss()
	}
	return entry, ok
}

// lookup is Get without hit and miss accounting.
func (c *Cache) lookup(key common.Hash) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, ok := c.index[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(idx)
	return c.nodes[idx].entry, true
}

func (c *Cache) countHit() {
	c.hits.Add(1)
	hitCounter.Inc(1)
}

func (c *Cache) countMiss() {
	c.misses.Add(1)
	missCounter.Inc(1)
}

// Peek returns the entry for key without touching its recency.
func (c *Cache) Peek(key common.Hash) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, ok := c.index[key]
	if !ok {
		return nil, false
	}
	return c.nodes[idx].entry, true
}

// Contains reports whether key is cached without touching its recency.
func (c *Cache) Contains(key common.Hash) bool {
	_, ok := c.Peek(key)
	return ok
}

// GetWithReverify is Get, except that in strict mode a hit is handed to v
// first. An entry v rejects is removed and reported as a miss. Calls for the
// same key run one at a time, each with its own verifier.
func (c *Cache) GetWithReverify(key common.Hash, v Verifier) (*Entry, bool) {
	if !c.cfg.StrictReverify || v == nil {
		return c.Get(key)
	}
	unlock := c.lockKey(key)
	defer unlock()

	entry, ok := c.lookup(key)
	if !ok {
		c.countMiss()
		return nil, false
	}
	if v.VerifyBlob(entry) {
		c.countHit()
		return entry, true
	}
	c.countMiss()
	c.reverifyFailures.Add(1)
	reverifyFailedCounter.Inc(1)
	log.Warn("Cached blob failed reverification", "versionedHash", key)
	c.removeEntry(key, entry)
	return nil, false
}

// lockKey blocks until the caller holds the reverification lock of key and
// returns the function releasing it.
func (c *Cache) lockKey(key common.Hash) func() {
	c.mu.Lock()
	kl, ok := c.keyLocks[key]
	if !ok {
		kl = &keyLock{sem: semaphore.NewWeighted(1)}
		c.keyLocks[key] = kl
	}
	kl.refs++
	c.mu.Unlock()

	// Acquire only fails on a cancelled context.
	_ = kl.sem.Acquire(context.Background(), 1)
	return func() {
		kl.sem.Release(1)
		c.mu.Lock()
		if kl.refs--; kl.refs == 0 {
			delete(c.keyLocks, key)
		}
		c.mu.Unlock()
	}
}

// Remove deletes key and reports whether it was present.
func (c *Cache) Remove(key common.Hash) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, ok := c.index[key]
	if !ok {
		return false
	}
	c.removeLocked(idx)
	c.updateGauges()
	return true
}

// removeEntry deletes key only while it still maps to entry, so a fresh Put
// racing with a failed reverification survives.
func (c *Cache) removeEntry(key common.Hash, entry *Entry) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, ok := c.index[key]
	if !ok || c.nodes[idx].entry != entry {
		return false
	}
	c.removeLocked(idx)
	c.updateGauges()
	return true
}

// Clear drops every entry and resets the accounting.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nodes = nil
	c.free = nil
	c.index = make(map[common.Hash]int32)
	c.head, c.tail = nilIdx, nilIdx
	c.used = 0
	c.updateGauges()
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

// UsedBytes returns the accounted size of the cached entries.
func (c *Cache) UsedBytes() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.used
}

// Keys returns the cached keys from most to least recently used.
func (c *Cache) Keys() []common.Hash {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]common.Hash, 0, len(c.index))
	for idx := c.head; idx != nilIdx; idx = c.nodes[idx].next {
		keys = append(keys, c.nodes[idx].key)
	}
	return keys
}

// Stats returns the current size and the counters accumulated since New.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	entries, used := len(c.index), c.used
	c.mu.Unlock()
	return Stats{
		Entries:          entries,
		UsedBytes:        used,
		Hits:             c.hits.Load(),
		Misses:           c.misses.Load(),
		Evictions:        c.evictions.Load(),
		ReverifyFailures: c.reverifyFailures.Load(),
	}
}

// --- recency list, caller holds c.mu ---

func (c *Cache) alloc() int32 {
	if n := len(c.free); n > 0 {
		idx := c.free[n-1]
		c.free = c.free[:n-1]
		return idx
	}
	c.nodes = append(c.nodes, node{})
	return int32(len(c.nodes) - 1)
}

func (c *Cache) pushFront(idx int32) {
	n := &c.nodes[idx]
	n.prev = nilIdx
	n.next = c.head
	if c.head != nilIdx {
		c.nodes[c.head].prev = idx
	}
	c.head = idx
	if c.tail == nilIdx {
		c.tail = idx
	}
}

func (c *Cache) unlink(idx int32) {
	n := &c.nodes[idx]
	if n.prev != nilIdx {
		c.nodes[n.prev].next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nilIdx {
		c.nodes[n.next].prev = n.prev
	} else {
		c.tail = n.prev
	}
	n.prev, n.next = nilIdx, nilIdx
}

func (c *Cache) moveToFront(idx int32) {
	if c.head == idx {
		return
	}
	c.unlink(idx)
	c.pushFront(idx)
}

func (c *Cache) removeLocked(idx int32) {
	c.unlink(idx)
	delete(c.index, c.nodes[idx].key)
	c.nodes[idx] = node{prev: nilIdx, next: nilIdx}
	c.free = append(c.free, idx)
	c.used -= EntrySize
}

func (c *Cache) evictLocked() {
	idx := c.tail
	key := c.nodes[idx].key
	c.removeLocked(idx)
	c.evictions.Add(1)
	evictionCounter.Inc(1)
	log.Debug("Evicted blob from cache", "versionedHash", key)
}

func (c *Cache) updateGauges() {
	entriesGauge.Update(int64(len(c.index)))
	bytesGauge.Update(int64(c.used))
}
