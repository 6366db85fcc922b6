package chunkpool

import (
	"sync"

	"voxelcore/internal/memarena"
)

// Concurrent wraps a Pool with a mutex, giving Reserve/Release/Iterate
// safe-for-concurrent-use semantics at the cost of serializing them. Get and
// IDFromPointer remain lock-free: callers are expected to synchronize their
// own access to the slot data they reserved, the pool only arbitrates which
// slots are whose.
type Concurrent struct {
	mu sync.Mutex
	p  *Pool
}

// NewConcurrent builds a Concurrent pool with the same layout as New.
func NewConcurrent(arena *memarena.Arena, count, chunkSize, alignment int) (*Concurrent, error) {
	p, err := New(arena, count, chunkSize, alignment)
	if err != nil {
		return nil, err
	}
	return &Concurrent{p: p}, nil
}

func (c *Concurrent) Count() int          { return c.p.Count() }
func (c *Concurrent) ChunkSize() int      { return c.p.ChunkSize() }
func (c *Concurrent) Get(slot int) []byte { return c.p.Get(slot) }

func (c *Concurrent) IDFromPointer(ptr []byte) int {
	return c.p.IDFromPointer(ptr)
}

func (c *Concurrent) IsSet(slot int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.p.IsSet(slot)
}

func (c *Concurrent) Reserve(n int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.p.Reserve(n)
}

func (c *Concurrent) Release(slot, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.p.Release(slot, n)
}

func (c *Concurrent) Iterate(cb func(slot int) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.p.Iterate(cb)
}

func (c *Concurrent) LiveCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.p.LiveCount()
}
