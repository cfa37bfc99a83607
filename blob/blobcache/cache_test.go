package blobcache

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ETHCF/blobkit-sub002/crypto/kzg"
)

func key(i int) common.Hash {
	return common.Hash{0x01, byte(i >> 8), byte(i)}
}

func newEntry(i int) *Entry {
	blob := new(kzg.Blob)
	blob[31] = byte(i)
	return &Entry{VersionedHash: key(i), Slot: uint64(i), Blob: blob}
}

func TestNewNormalizesConfig(t *testing.T) {
	c := New(Config{})
	require.Equal(t, DefaultConfig.MaxEntries, c.Config().MaxEntries)
	require.Equal(t, DefaultConfig.MaxBytes, c.Config().MaxBytes)

	c = New(Config{MaxEntries: 3})
	require.Equal(t, uint64(3*EntrySize), c.Config().MaxBytes)
	require.Equal(t, 131072+48+48, EntrySize)
}

func TestEvictsLeastRecentlyInserted(t *testing.T) {
	c := New(Config{MaxEntries: 3})
	for _, i := range []int{0, 1, 2, 3} {
		require.True(t, c.Put(key(i), newEntry(i)))
	}

	_, ok := c.Get(key(0))
	require.False(t, ok)
	for _, i := range []int{1, 2, 3} {
		_, ok := c.Get(key(i))
		require.True(t, ok, "key %d", i)
	}
	require.Equal(t, 3, c.Len())
	require.EqualValues(t, 1, c.Stats().Evictions)
}

func TestGetProtectsFromEviction(t *testing.T) {
	c := New(Config{MaxEntries: 3})
	for _, i := range []int{0, 1, 2} {
		c.Put(key(i), newEntry(i))
	}
	_, ok := c.Get(key(0))
	require.True(t, ok)

	c.Put(key(3), newEntry(3))

	_, ok = c.Get(key(0))
	require.True(t, ok)
	_, ok = c.Get(key(1))
	require.False(t, ok)
}

func TestPeekDoesNotPromote(t *testing.T) {
	c := New(Config{MaxEntries: 2})
	c.Put(key(0), newEntry(0))
	c.Put(key(1), newEntry(1))

	e, ok := c.Peek(key(0))
	require.True(t, ok)
	require.Equal(t, uint64(0), e.Slot)
	require.True(t, c.Contains(key(0)))

	c.Put(key(2), newEntry(2))
	require.False(t, c.Contains(key(0)))
	require.Equal(t, []common.Hash{key(2), key(1)}, c.Keys())
}

func TestReinsertMovesToFront(t *testing.T) {
	c := New(Config{MaxEntries: 3})
	for _, i := range []int{0, 1, 2} {
		c.Put(key(i), newEntry(i))
	}
	replacement := newEntry(0)
	replacement.Slot = 99
	require.True(t, c.Put(key(0), replacement))
	require.Equal(t, 3, c.Len())
	require.Equal(t, uint64(3*EntrySize), c.UsedBytes())
	require.Equal(t, []common.Hash{key(0), key(2), key(1)}, c.Keys())

	e, ok := c.Get(key(0))
	require.True(t, ok)
	require.Equal(t, uint64(99), e.Slot)

	c.Put(key(3), newEntry(3))
	require.False(t, c.Contains(key(1)))
}

func TestByteBudget(t *testing.T) {
	c := New(Config{MaxEntries: 100, MaxBytes: 2*EntrySize + EntrySize/2})
	for i := 0; i < 5; i++ {
		require.True(t, c.Put(key(i), newEntry(i)))
		require.LessOrEqual(t, c.UsedBytes(), c.Config().MaxBytes)
	}
	require.Equal(t, 2, c.Len())
	require.Equal(t, []common.Hash{key(4), key(3)}, c.Keys())
	require.EqualValues(t, 3, c.Stats().Evictions)
}

func TestOversizeEntryRejected(t *testing.T) {
	c := New(Config{MaxEntries: 10, MaxBytes: EntrySize - 1})
	require.False(t, c.Put(key(0), newEntry(0)))
	require.Equal(t, 0, c.Len())
	require.Zero(t, c.UsedBytes())

	require.False(t, New(Config{}).Put(key(0), nil))
}

func TestRemoveAndClear(t *testing.T) {
	c := New(Config{MaxEntries: 4})
	for i := 0; i < 4; i++ {
		c.Put(key(i), newEntry(i))
	}
	require.True(t, c.Remove(key(1)))
	require.False(t, c.Remove(key(1)))
	require.Equal(t, 3, c.Len())
	require.Equal(t, uint64(3*EntrySize), c.UsedBytes())
	require.Equal(t, []common.Hash{key(3), key(2), key(0)}, c.Keys())

	// The freed slot is reused.
	c.Put(key(5), newEntry(5))
	require.Len(t, c.nodes, 4)

	c.Clear()
	require.Equal(t, 0, c.Len())
	require.Zero(t, c.UsedBytes())
	require.Empty(t, c.Keys())
	_, ok := c.Get(key(0))
	require.False(t, ok)

	// Still usable after clearing.
	require.True(t, c.Put(key(7), newEntry(7)))
	require.Equal(t, []common.Hash{key(7)}, c.Keys())
}

func TestStats(t *testing.T) {
	c := New(Config{MaxEntries: 2})
	c.Put(key(0), newEntry(0))
	c.Get(key(0))
	c.Get(key(1))

	s := c.Stats()
	require.Equal(t, 1, s.Entries)
	require.Equal(t, uint64(EntrySize), s.UsedBytes)
	require.EqualValues(t, 1, s.Hits)
	require.EqualValues(t, 1, s.Misses)
}

func TestGetWithReverifyNonStrict(t *testing.T) {
	c := New(Config{MaxEntries: 2})
	c.Put(key(0), newEntry(0))

	var calls atomic.Int32
	reject := VerifierFunc(func(*Entry) bool {
		calls.Add(1)
		return false
	})
	_, ok := c.GetWithReverify(key(0), reject)
	require.True(t, ok)
	require.Zero(t, calls.Load())
}

func TestGetWithReverifyStrict(t *testing.T) {
	c := New(Config{MaxEntries: 2, StrictReverify: true})
	c.Put(key(0), newEntry(0))
	c.Put(key(1), newEntry(1))

	accept := VerifierFunc(func(*Entry) bool { return true })
	reject := VerifierFunc(func(*Entry) bool { return false })

	e, ok := c.GetWithReverify(key(0), accept)
	require.True(t, ok)
	require.Equal(t, key(0), e.VersionedHash)

	_, ok = c.GetWithReverify(key(1), reject)
	require.False(t, ok)
	_, ok = c.Get(key(1))
	require.False(t, ok)
	require.EqualValues(t, 1, c.Stats().ReverifyFailures)

	_, ok = c.GetWithReverify(key(9), accept)
	require.False(t, ok)
}

func TestConcurrentReverifyRemovesOnce(t *testing.T) {
	c := New(Config{MaxEntries: 4, StrictReverify: true})
	c.Put(key(0), newEntry(0))

	release := make(chan struct{})
	var calls atomic.Int32
	slowReject := VerifierFunc(func(*Entry) bool {
		calls.Add(1)
		<-release
		return false
	})

	const callers = 8
	var (
		wg      sync.WaitGroup
		started sync.WaitGroup
	)
	results := make([]bool, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		started.Add(1)
		go func(i int) {
			defer wg.Done()
			started.Done()
			_, results[i] = c.GetWithReverify(key(0), slowReject)
		}(i)
	}
	started.Wait()
	close(release)
	wg.Wait()

	for _, ok := range results {
		assert.False(t, ok)
	}
	require.False(t, c.Contains(key(0)))
	// The first caller removes the entry; the rest see a plain miss.
	require.EqualValues(t, 1, calls.Load())
	require.EqualValues(t, 1, c.Stats().ReverifyFailures)
	require.EqualValues(t, callers, c.Stats().Misses)
}

func TestConcurrentReverifyRunsEachVerifier(t *testing.T) {
	c := New(Config{MaxEntries: 4, StrictReverify: true})
	c.Put(key(0), newEntry(0))

	entered := make(chan struct{})
	release := make(chan struct{})
	slowAccept := VerifierFunc(func(*Entry) bool {
		close(entered)
		<-release
		return true
	})
	var rejectCalled atomic.Bool
	reject := VerifierFunc(func(*Entry) bool {
		rejectCalled.Store(true)
		return false
	})

	var (
		wg             sync.WaitGroup
		firstOK, secOK bool
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, firstOK = c.GetWithReverify(key(0), slowAccept)
	}()
	<-entered
	go func() {
		defer wg.Done()
		_, secOK = c.GetWithReverify(key(0), reject)
	}()
	close(release)
	wg.Wait()

	require.True(t, firstOK)
	require.False(t, secOK)
	require.True(t, rejectCalled.Load())
	require.False(t, c.Contains(key(0)))
}

func TestFailedReverifyCountsMiss(t *testing.T) {
	c := New(Config{MaxEntries: 2, StrictReverify: true})
	c.Put(key(0), newEntry(0))

	_, ok := c.GetWithReverify(key(0), VerifierFunc(func(*Entry) bool { return false }))
	require.False(t, ok)
	s := c.Stats()
	require.EqualValues(t, 0, s.Hits)
	require.EqualValues(t, 1, s.Misses)
	require.EqualValues(t, 1, s.ReverifyFailures)

	c.Put(key(1), newEntry(1))
	_, ok = c.GetWithReverify(key(1), VerifierFunc(func(*Entry) bool { return true }))
	require.True(t, ok)
	require.EqualValues(t, 1, c.Stats().Hits)
}

func TestFailedReverifyKeepsNewerEntry(t *testing.T) {
	c := New(Config{MaxEntries: 4, StrictReverify: true})
	c.Put(key(0), newEntry(0))

	fresh := newEntry(0)
	fresh.Slot = 42
	replaceThenReject := VerifierFunc(func(*Entry) bool {
		c.Put(key(0), fresh)
		return false
	})
	_, ok := c.GetWithReverify(key(0), replaceThenReject)
	require.False(t, ok)

	e, ok := c.Peek(key(0))
	require.True(t, ok)
	require.Same(t, fresh, e)
}

func TestConcurrentPutGet(t *testing.T) {
	c := New(Config{MaxEntries: 16})
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				k := (w*31 + i) % 40
				if i%3 == 0 {
					c.Put(key(k), newEntry(k))
				} else if i%7 == 0 {
					c.Remove(key(k))
				} else {
					c.Get(key(k))
				}
			}
		}(w)
	}
	wg.Wait()

	require.LessOrEqual(t, c.Len(), 16)
	require.Equal(t, uint64(c.Len())*EntrySize, c.UsedBytes())
	require.Len(t, c.Keys(), c.Len())
}
