package world

import "voxelcore/internal/registry"

// defaultChunkCapacity bounds how many chunks a world can hold live at
// once; it sizes both the voxel store's slot bitmap and the spatial hash's
// entry pool (load factor <= 1 by construction, per spatialhash.New).
const defaultChunkCapacity = 4096

// defaultNodeCapacity bounds the octree's node array, per tree (the world
// keeps two: Old and New, swapped on UpdatePosition).
const defaultNodeCapacity = 16384

// defaultDrawListCapacity bounds the number of entries build_draw_list can
// return in one call (spec.md §3: "capacity fixed at world creation").
// The collection pass may grow the list past it; the list is then truncated
// before sorting, so the kept entries follow octree traversal order.
const defaultDrawListCapacity = 4096

// Config carries the construction-time knobs for a World. Unlike the
// teacher's package-level, mutex-guarded render settings (internal/config),
// this is instance-scoped: spec.md §5 requires per-World isolation ("the
// buffer arena is not shared across worlds"), so a process-global config
// would violate the spec's own resource-sharing model.
type Config struct {
	// ChunkCapacity is the maximum number of chunks live at once.
	ChunkCapacity int
	// NodeCapacity is the octree node array size, per buffer (Old/New).
	NodeCapacity int
	// DrawListCapacity bounds one build_draw_list call's output.
	DrawListCapacity int
	// Solid decides which voxel types occupy space for meshing. Defaults
	// to registry.DefaultSolidPredicate (every non-zero type is solid).
	Solid registry.SolidPredicate
}

// clamp rejects invalid knobs by flooring them to their defaults, matching
// the teacher's config.go clamp-on-set idiom.
func (c Config) clamp() Config {
	if c.ChunkCapacity <= 0 {
		c.ChunkCapacity = defaultChunkCapacity
	}
	if c.NodeCapacity <= 0 {
		c.NodeCapacity = defaultNodeCapacity
	}
	if c.DrawListCapacity <= 0 {
		c.DrawListCapacity = defaultDrawListCapacity
	}
	if c.Solid == nil {
		c.Solid = registry.DefaultSolidPredicate
	}
	return c
}
