package voxel

import (
	"fmt"

	"voxelcore/internal/chunkpool"
	"voxelcore/internal/memarena"
)

// Store is a fixed-count chunk slot allocator. The *Chunk payload (a dense
// array plus growable mesh slices the arena cannot safely own across GC)
// lives in Store's own Go-native slice, indexed by the same slot number
// chunkpool hands out; only its bitmap-scan reservation algorithm is
// reused here, not its byte storage.: chunkpool provides the free
// bitmap and O(1) amortized reserve/release, while chunks themselves are
// ordinary heap objects referenced by slot index.
type Store struct {
	pool   *chunkpool.Pool
	chunks []*Chunk
}

// NewStore reserves a slot bitmap for capacity chunks out of arena.
func NewStore(arena *memarena.Arena, capacity int) (*Store, error) {
	pool, err := chunkpool.New(arena, capacity, 1, 1)
	if err != nil {
		return nil, fmt.Errorf("voxel: reserving chunk slot bitmap: %w", err)
	}
	return &Store{pool: pool, chunks: make([]*Chunk, capacity)}, nil
}

// Capacity returns the maximum number of live chunks the store can hold.
func (s *Store) Capacity() int { return s.pool.Count() }

// LiveCount returns the number of currently reserved slots.
func (s *Store) LiveCount() int { return s.pool.LiveCount() }

// Reserve claims one slot and stores chunk at it, returning the slot index.
// Returns chunkpool.ErrPoolFull if the store is at capacity.
func (s *Store) Reserve(chunk *Chunk) (int, error) {
	slot, err := s.pool.Reserve(1)
	if err != nil {
		return -1, err
	}
	s.chunks[slot] = chunk
	return slot, nil
}

// Release frees slot for reuse and drops its chunk reference.
func (s *Store) Release(slot int) {
	s.pool.Release(slot, 1)
	s.chunks[slot] = nil
}

// Get returns the chunk stored at slot, or nil if the slot is not
// currently reserved.
func (s *Store) Get(slot int) *Chunk {
	if !s.pool.IsSet(slot) {
		return nil
	}
	return s.chunks[slot]
}

// Iterate visits every live chunk in ascending slot order. If cb returns
// false, iteration stops early.
func (s *Store) Iterate(cb func(slot int, chunk *Chunk) bool) {
	s.pool.Iterate(func(slot int) bool {
		return cb(slot, s.chunks[slot])
	})
}
