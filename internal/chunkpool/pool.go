// Package chunkpool implements a fixed-count, equal-size slot allocator
// carved out of a memarena.Arena. Reservation and release are O(1)
// amortized operations over a free bitmap; the pool never grows.
//
// The bitmap-scan algorithm is ported from the original engine's
// ChunkMemory (chunk_reserve / chunk_element_free): a rotating cursor,
// word-at-a-time skipping of fully-occupied words, and a same-word or
// cross-word scan for a run of n consecutive clear bits.
package chunkpool

import (
	"errors"
	"fmt"
	"math/bits"

	"voxelcore/internal/memarena"
)

// ErrPoolFull is returned by Reserve when no run of n free slots exists.
var ErrPoolFull = errors.New("chunkpool: pool full")

const wordBits = 64

// Pool partitions a byte range into count slots of size chunkSize bytes,
// aligned to alignment. Reserve/Release are not safe for concurrent use;
// see Concurrent for a locking variant with the same external API.
type Pool struct {
	storage   []byte
	free      []uint64 // bit set  == slot reserved
	count     int
	chunkSize int
	lastPos   int // rotating cursor; -1 before the first reservation
}

// New carves count slots of chunkSize bytes (aligned to alignment) out of
// arena, plus the bookkeeping bitmap (also carved from the arena so a
// single arena release frees everything).
func New(arena *memarena.Arena, count, chunkSize, alignment int) (*Pool, error) {
	if count <= 0 || chunkSize <= 0 {
		return nil, fmt.Errorf("chunkpool: count and chunkSize must be positive, got count=%d chunkSize=%d", count, chunkSize)
	}

	storage, err := arena.Take(count*chunkSize, alignment)
	if err != nil {
		return nil, fmt.Errorf("chunkpool: reserving storage for %d slots of %d bytes: %w", count, chunkSize, err)
	}

	words := (count + wordBits - 1) / wordBits
	freeBytes, err := arena.Take(words*8, 8)
	if err != nil {
		return nil, fmt.Errorf("chunkpool: reserving free bitmap for %d slots: %w", count, err)
	}

	p := &Pool{
		storage:   storage,
		free:      wordsOverlay(freeBytes, words),
		count:     count,
		chunkSize: chunkSize,
		lastPos:   -1,
	}
	return p, nil
}

// Count returns the total number of slots in the pool.
func (p *Pool) Count() int { return p.count }

// ChunkSize returns the byte size of one slot.
func (p *Pool) ChunkSize() int { return p.chunkSize }

// Get returns the byte slice backing the given slot. It does not check
// whether the slot is reserved.
func (p *Pool) Get(slot int) []byte {
	off := slot * p.chunkSize
	return p.storage[off : off+p.chunkSize : off+p.chunkSize]
}

// IDFromPointer returns the slot index owning ptr, the inverse of Get. It
// panics if ptr does not point into this pool's storage.
func (p *Pool) IDFromPointer(ptr []byte) int {
	off := offsetWithin(p.storage, ptr)
	if off < 0 {
		panic("chunkpool: pointer does not belong to this pool")
	}
	return off / p.chunkSize
}

// IsSet reports whether slot is currently reserved.
func (p *Pool) IsSet(slot int) bool {
	word, bit := slot/wordBits, uint(slot%wordBits)
	return p.free[word]&(1<<bit) != 0
}

// Reserve finds the first run of n clear bits starting just after the
// rotating cursor, wrapping once around the bitmap, marks them reserved,
// and returns the starting slot index. It returns ErrPoolFull if no such
// run exists.
func (p *Pool) Reserve(n int) (int, error) {
	if n <= 0 {
		n = 1
	}
	if n > p.count {
		return -1, fmt.Errorf("chunkpool: run of %d exceeds pool capacity %d: %w", n, p.count, ErrPoolFull)
	}

	start := (p.lastPos + 1) % p.count
	if found, ok := p.scanFrom(start, n); ok {
		p.markRange(found, n, true)
		p.lastPos = (found + n - 1) % p.count
		return found, nil
	}
	return -1, fmt.Errorf("chunkpool: no run of %d free slots: %w", n, ErrPoolFull)
}

// scanFrom looks for a run of n consecutive clear bits, starting the scan
// at slot start and wrapping once around the full [0,count) range.
func (p *Pool) scanFrom(start, n int) (int, bool) {
	word := start / wordBits
	totalWords := len(p.free)

	// The starting word is visited twice: from start's bit first, and again
	// after the wrap for the bits below start.
	for i := 0; i <= totalWords; i++ {
		w := (word + i) % totalWords
		if p.free[w] == ^uint64(0) {
			continue
		}

		bitStart, bitEnd := 0, wordBits
		if i == 0 {
			bitStart = start % wordBits
		}
		if i == totalWords {
			bitEnd = start % wordBits
		}
		for b := bitStart; b < bitEnd; b++ {
			slot := w*wordBits + b
			if slot >= p.count {
				break
			}
			if p.runIsFree(slot, n) {
				return slot, true
			}
		}
	}
	return 0, false
}

// runIsFree reports whether the n slots starting at slot are all clear
// and fit within [0, count).
func (p *Pool) runIsFree(slot, n int) bool {
	if slot+n > p.count {
		return false
	}
	for j := 0; j < n; j++ {
		s := slot + j
		word, bit := s/wordBits, uint(s%wordBits)
		if p.free[word]&(1<<bit) != 0 {
			return false
		}
	}
	return true
}

// markRange sets (value=true) or clears (value=false) exactly n bits
// starting at slot, crossing word boundaries as needed.
func (p *Pool) markRange(slot, n int, value bool) {
	for j := 0; j < n; j++ {
		s := slot + j
		word, bit := s/wordBits, uint(s%wordBits)
		if value {
			p.free[word] |= 1 << bit
		} else {
			p.free[word] &^= 1 << bit
		}
	}
}

// Release clears the n bits starting at slot, freeing that run for reuse.
func (p *Pool) Release(slot, n int) {
	if n <= 0 {
		n = 1
	}
	p.markRange(slot, n, false)
}

// Iterate visits every reserved slot in ascending order. If cb returns
// false, iteration stops early.
func (p *Pool) Iterate(cb func(slot int) bool) {
	for w, word := range p.free {
		if word == 0 {
			continue
		}
		rem := word
		for rem != 0 {
			bit := bits.TrailingZeros64(rem)
			slot := w*wordBits + bit
			if slot >= p.count {
				return
			}
			if !cb(slot) {
				return
			}
			rem &^= 1 << uint(bit)
		}
	}
}

// LiveCount returns the number of currently reserved slots.
func (p *Pool) LiveCount() int {
	n := 0
	for _, w := range p.free {
		n += bits.OnesCount64(w)
	}
	return n
}

