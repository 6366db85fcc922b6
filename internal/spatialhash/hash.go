// Package spatialhash implements a hash map whose entries live inside a
// chunkpool rather than behind a separate allocator. The table is a parallel
// array of 1-based slot indices; chains are linked through each entry's own
// next field, so walking a chain never touches memory outside the pool.
//
// Ported from the original engine's HashMap (stdlib/HashMap.h): djb2 by
// default, a function-pointer hash override, and int64-keyed insert/get/
// remove specialized for the voxel world's packed chunk coordinate.
package spatialhash

import (
	"errors"
	"fmt"

	"voxelcore/internal/chunkpool"
	"voxelcore/internal/memarena"
)

// ErrCapacityExhausted is returned by Insert when the embedded entry pool
// has no free slot left; the table's capacity equals the pool's, so load
// factor never exceeds 1.
var ErrCapacityExhausted = errors.New("spatialhash: capacity exhausted")

// HashFunc computes a 64-bit hash of key. The default is djb2.
type HashFunc func(key uint64) uint64

// entry mirrors HashEntryVoidPKeyInt64: a key, a 1-based next index (0 =
// chain terminator) and a value. Stored inline in the entry pool's slots.
type entry struct {
	key   uint64
	next  uint16
	value uint64
}

const entrySize = 24 // key(8) + next(2, padded to 8) + value(8), arena-aligned to 8

// Map is a chain-via-pool hash map keyed by packed 64-bit coordinates.
// Not safe for concurrent use.
type Map struct {
	table []uint16 // 1-based slot index, 0 = empty bucket
	pool  *chunkpool.Pool
	hash  HashFunc
}

// New builds a Map with capacity buckets and an entry pool of the same
// capacity (load factor <= 1 by construction), carving both out of arena.
func New(arena *memarena.Arena, capacity int) (*Map, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("spatialhash: capacity must be positive, got %d", capacity)
	}

	tableBytes, err := arena.Take(capacity*2, 8)
	if err != nil {
		return nil, fmt.Errorf("spatialhash: reserving table for %d buckets: %w", capacity, err)
	}
	table := tableOverlay(tableBytes, capacity)

	pool, err := chunkpool.New(arena, capacity, entrySize, 8)
	if err != nil {
		return nil, fmt.Errorf("spatialhash: reserving entry pool: %w", err)
	}

	return &Map{table: table, pool: pool, hash: djb2}, nil
}

// SetHashFunc overrides the hash function used to bucket keys. Must be
// called before any Insert if the table already holds entries, since
// changing it mid-lifetime desyncs bucket assignment from chain walks.
func (m *Map) SetHashFunc(h HashFunc) {
	if h == nil {
		h = djb2
	}
	m.hash = h
}

func (m *Map) bucket(key uint64) int {
	return int(m.hash(key) % uint64(len(m.table)))
}

// Insert adds key/value, returning ErrCapacityExhausted if the entry pool
// is full. A key already present gets a second entry behind it at the
// chain's tail, so Get keeps returning the earlier value; callers that want
// replace semantics should Remove first.
func (m *Map) Insert(key, value uint64) error {
	slot, err := m.pool.Reserve(1)
	if err != nil {
		return fmt.Errorf("spatialhash: %w: %v", ErrCapacityExhausted, err)
	}

	writeEntry(m.pool.Get(slot), entry{key: key, next: 0, value: value})
	m.linkTail(m.bucket(key), uint16(slot+1))
	return nil
}

// linkTail walks the chain at bucket b and sets the last entry's next (or
// the table slot itself, if the chain is empty) to point at slotPlusOne.
func (m *Map) linkTail(b int, slotPlusOne uint16) {
	head := &m.table[b]
	if *head == 0 {
		*head = slotPlusOne
		return
	}
	cur := *head
	for {
		data := m.pool.Get(int(cur - 1))
		e := readEntry(data)
		if e.next == 0 {
			e.next = slotPlusOne
			writeEntry(data, e)
			return
		}
		cur = e.next
	}
}

// Get walks the chain at key's bucket and returns (value, true) on the
// first match, or (0, false) if key is absent.
func (m *Map) Get(key uint64) (uint64, bool) {
	cur := m.table[m.bucket(key)]
	for cur != 0 {
		e := readEntry(m.pool.Get(int(cur - 1)))
		if e.key == key {
			return e.value, true
		}
		cur = e.next
	}
	return 0, false
}

// Remove unlinks key's entry from its chain and releases its pool slot. A
// no-op if key is absent.
func (m *Map) Remove(key uint64) {
	b := m.bucket(key)
	cur := m.table[b]
	var prevSlot uint16 // 1-based slot of the previous entry, 0 = none yet

	for cur != 0 {
		data := m.pool.Get(int(cur - 1))
		e := readEntry(data)
		if e.key == key {
			if prevSlot == 0 {
				m.table[b] = e.next
			} else {
				prevData := m.pool.Get(int(prevSlot - 1))
				prev := readEntry(prevData)
				prev.next = e.next
				writeEntry(prevData, prev)
			}
			m.pool.Release(int(cur-1), 1)
			return
		}
		prevSlot = cur
		cur = e.next
	}
}

// GetOrReserve returns the existing value for key if present; otherwise it
// inserts a fresh entry with the given zero value and returns it, along
// with created=true. On a miss the chain is walked twice: once by the
// lookup and once to link the new entry at its tail.
func (m *Map) GetOrReserve(key uint64, zero uint64) (value uint64, created bool, err error) {
	if v, ok := m.Get(key); ok {
		return v, false, nil
	}
	if err := m.Insert(key, zero); err != nil {
		return 0, false, err
	}
	return zero, true, nil
}

// Capacity returns the table/pool capacity (the maximum live entry count).
func (m *Map) Capacity() int { return len(m.table) }

// Len returns the number of live entries.
func (m *Map) Len() int { return m.pool.LiveCount() }

// PackCoord packs three chunk-space axis coordinates into a 64-bit key: 21
// bits X, 21 bits Y, 21 bits Z. Values must fit in 21 signed bits
// (+/-1,048,575); callers exceeding this get silently wrapped bits, per the
// original engine's undefined-on-overflow contract.
func PackCoord(x, y, z int32) uint64 {
	ux := uint64(uint32(x)) & 0x1FFFFF
	uy := uint64(uint32(y)) & 0x1FFFFF
	uz := uint64(uint32(z)) & 0x1FFFFF
	return ux | (uy << 21) | (uz << 42)
}

// djb2 is the default hash: Bernstein's djb2 applied to the 8 bytes of key.
func djb2(key uint64) uint64 {
	var h uint64 = 5381
	for i := 0; i < 8; i++ {
		b := byte(key >> (8 * i))
		h = h*33 + uint64(b)
	}
	return h
}

func readEntry(b []byte) entry {
	return entry{
		key:   leUint64(b[0:8]),
		next:  leUint16(b[8:10]),
		value: leUint64(b[16:24]),
	}
}

func writeEntry(b []byte, e entry) {
	putLeUint64(b[0:8], e.key)
	putLeUint16(b[8:10], e.next)
	putLeUint64(b[16:24], e.value)
}
