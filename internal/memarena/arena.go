// Package memarena implements a one-shot bump allocator over a single
// pre-reserved byte region. A World carves the storage for its chunk store's
// slot bitmap and its spatial hash out of one Arena, so releasing the arena
// at teardown frees both regions at once. The World's octree node arrays and
// draw list are not carved from the arena; they are ordinary Go slices.
package memarena

import (
	"errors"
	"fmt"
)

// ErrArenaExhausted is returned by Take when the remaining space cannot
// satisfy the requested (possibly aligned) size.
var ErrArenaExhausted = errors.New("memarena: arena exhausted")

// Arena is a deterministic, thread-unsafe bump allocator. Callers are
// expected to serialize access (a World does this by construction: all
// sub-component storage is carved out once, up front, before any
// concurrent reads begin).
type Arena struct {
	buf  []byte
	head int
}

// New reserves total bytes once. The arena never grows or remaps; a second
// call to Alloc on an already-initialized Arena replaces the region and
// invalidates every slice previously handed out by Take.
func New(total int) *Arena {
	if total < 0 {
		total = 0
	}
	return &Arena{buf: make([]byte, total)}
}

// Alloc re-reserves the arena with a fresh region of the given size,
// discarding any previous allocation. Present for parity with the
// spec's alloc(total_size, alignment) entry point; alignment of the
// region itself is irrelevant since Go's allocator already aligns
// make([]byte, n) to the platform's maximum alignment.
func (a *Arena) Alloc(total int, _ int) {
	if total < 0 {
		total = 0
	}
	a.buf = make([]byte, total)
	a.head = 0
}

// Take advances the head cursor, aligned up to alignment, and returns a
// slice of size bytes backed by the arena. It fails with ErrArenaExhausted
// if the remaining space cannot satisfy the (aligned) request.
func (a *Arena) Take(size int, alignment int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("memarena: negative size %d: %w", size, ErrArenaExhausted)
	}
	if alignment <= 0 {
		alignment = 1
	}

	aligned := alignUp(a.head, alignment)
	end := aligned + size
	if end > len(a.buf) || end < aligned {
		return nil, fmt.Errorf("memarena: need %d bytes (aligned from head %d), have %d: %w",
			size, a.head, len(a.buf)-aligned, ErrArenaExhausted)
	}

	a.head = end
	return a.buf[aligned:end:end], nil
}

// Reset rewinds the head cursor to zero without zeroing memory. Every
// slice previously returned by Take becomes invalid to reuse as fresh
// storage once new Take calls overlap it.
func (a *Arena) Reset() {
	a.head = 0
}

// Len returns the total capacity of the arena in bytes.
func (a *Arena) Len() int { return len(a.buf) }

// Remaining returns the number of bytes left before the next Take fails,
// ignoring alignment padding.
func (a *Arena) Remaining() int { return len(a.buf) - a.head }

func alignUp(n, alignment int) int {
	mask := alignment - 1
	return (n + mask) &^ mask
}
