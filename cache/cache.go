// Package cache implements the direct-mapped block cache used by report readers.
//
// A BlockCache holds a fixed number of slots. Block id i always lands in slot
// i mod capacity, so lookups are O(1) and two ids congruent modulo the capacity
// evict each other. Callers that want collision-free access must size the
// capacity to cover the distinct block id range of their working set; anything
// smaller only costs re-fetches, never correctness, because containers are
// read-only and a cached block can not go stale.
//
// A BlockCache is not safe for concurrent use. Wrap it with NewLocked when one
// cache is shared by several goroutines.
package cache

import (
	"fmt"
	"sync"

	"github.com/arloliu/cellreport/errs"
)

// DefaultCapacity is the slot count used when no capacity is given.
//
// It is prime so that strided block id sequences spread across slots.
const DefaultCapacity = 5471

// BlockStore is a random-access store of decoded blocks keyed by block id.
type BlockStore interface {
	// ReadBlock returns the full block with the given id.
	ReadBlock(id int) ([]float32, error)
}

// Loader loads a sequence of blocks, preserving the order of ids.
type Loader interface {
	LoadBlocks(ids []int) ([][]float32, error)
}

// Stats counts cache activity since creation.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

type slot struct {
	id    int
	block []float32
}

// BlockCache is a fixed-capacity direct-mapped cache in front of a BlockStore.
//
// Returned blocks are shared with the cache and must be treated as read-only.
type BlockCache struct {
	store BlockStore
	slots []slot
	stats Stats
}

var _ Loader = (*BlockCache)(nil)

// NewBlockCache creates a cache with capacity slots backed by store.
// A non-positive capacity selects DefaultCapacity.
func NewBlockCache(store BlockStore, capacity int) *BlockCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	slots := make([]slot, capacity)
	for i := range slots {
		slots[i].id = -1
	}

	return &BlockCache{store: store, slots: slots}
}

// Capacity returns the number of slots.
func (c *BlockCache) Capacity() int {
	return len(c.slots)
}

// Stats returns a snapshot of the hit and miss counters.
func (c *BlockCache) Stats() Stats {
	return c.stats
}

// LoadBlock returns the block with the given id, fetching it on a miss.
func (c *BlockCache) LoadBlock(id int) ([]float32, error) {
	if id < 0 {
		return nil, errs.StorageFault("load block", fmt.Errorf("negative block id %d", id))
	}

	s := &c.slots[id%len(c.slots)]
	if s.id == id {
		c.stats.Hits++
		return s.block, nil
	}

	block, err := c.store.ReadBlock(id)
	if err != nil {
		return nil, err
	}

	c.stats.Misses++
	if s.id >= 0 {
		c.stats.Evictions++
	}
	s.id = id
	s.block = block

	return block, nil
}

// LoadBlocks returns the blocks for ids in the same order.
//
// Repeated ids resolve to the cached block as long as no id in between
// evicted it. The first store failure aborts the call.
func (c *BlockCache) LoadBlocks(ids []int) ([][]float32, error) {
	blocks := make([][]float32, len(ids))
	for i, id := range ids {
		block, err := c.LoadBlock(id)
		if err != nil {
			return nil, err
		}
		blocks[i] = block
	}

	return blocks, nil
}

// Locked serializes access to a Loader shared across goroutines.
type Locked struct {
	mu     sync.Mutex
	loader Loader
}

var _ Loader = (*Locked)(nil)

// NewLocked wraps loader with a mutex.
func NewLocked(loader Loader) *Locked {
	return &Locked{loader: loader}
}

// LoadBlocks holds the lock for the whole call.
func (l *Locked) LoadBlocks(ids []int) ([][]float32, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.loader.LoadBlocks(ids)
}
