// Package world ties the buffer arena, chunk pool, spatial hash, greedy
// mesher and loose octree into the single façade external callers use:
// set_voxel, update_position, update_state and build_draw_list. Ported
// from the original engine's entity/voxel/VoxelWorldMap.h
// (voxel_world_voxel_set / voxel_world_update_pos / voxel_world_chunk_update
// / voxel_draw_array_build), in the shape of the teacher's World struct
// (internal/world/world.go): a thin struct composing sub-component
// pointers plus floorDiv/mod coordinate helpers.
package world

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"voxelcore/internal/frustum"
	"voxelcore/internal/memarena"
	"voxelcore/internal/meshing"
	"voxelcore/internal/octree"
	"voxelcore/internal/profiling"
	"voxelcore/internal/spatialhash"
	"voxelcore/internal/voxel"
	"voxelcore/internal/vxlog"
)

// ErrVoxelDropped reports that a write or insert was lost to resource
// exhaustion (spec.md §7): the world continues running, but the affected
// voxel write or octree insert did not take effect.
var ErrVoxelDropped = errors.New("world: voxel write dropped")

// Camera is the external input to BuildDrawList: a position for distance
// sorting and a six-plane frustum for culling (spec.md §6).
type Camera struct {
	Position mgl32.Vec3
	Frustum  frustum.Frustum
}

// Visible is one entry of a built draw list: a chunk and its squared
// distance from the camera, ascending-sorted.
type Visible = octree.Visible

// World composes the arena-backed storage and spatial structures described
// in spec.md §4: one arena backs the chunk store and spatial hash, and an
// octree pair drives visibility. World holds no lock of its own: callers
// must serialize all mutating operations on a given World (spec.md §5).
type World struct {
	cfg   Config
	arena *memarena.Arena

	store *voxel.Store
	hash  *spatialhash.Map
	src   meshing.ChunkSource

	octrees  [2]*octree.Tree
	curTree  int // index into octrees of the currently active ("new") tree
	rootEdge int32

	drawList []Visible
}

// New builds a World with the given configuration, carving its chunk
// store and spatial hash out of a single arena (spec.md §4.A: "a free at
// world teardown releases one region"). The octree's root half-size is
// derived from the configured chunk capacity per VoxelWorldMap.h's
// voxel_world_alloc, not a fixed constant (SPEC_FULL.md §3).
func New(cfg Config) (*World, error) {
	cfg = cfg.clamp()

	arena := memarena.New(arenaBytes(cfg.ChunkCapacity))

	store, err := voxel.NewStore(arena, cfg.ChunkCapacity)
	if err != nil {
		return nil, fmt.Errorf("world: building chunk store: %w", err)
	}

	hash, err := spatialhash.New(arena, cfg.ChunkCapacity)
	if err != nil {
		return nil, fmt.Errorf("world: building spatial hash: %w", err)
	}

	rootEdge := int32(cfg.ChunkCapacity) * voxel.ChunkSize / 2
	if rootEdge < voxel.ChunkSize {
		rootEdge = voxel.ChunkSize
	}

	var octrees [2]*octree.Tree
	for i := range octrees {
		t, err := octree.Create(cfg.NodeCapacity, [3]int32{}, rootEdge, voxel.ChunkSize)
		if err != nil {
			return nil, fmt.Errorf("world: building octree %d: %w", i, err)
		}
		octrees[i] = t
	}

	w := &World{
		cfg:      cfg,
		arena:    arena,
		store:    store,
		hash:     hash,
		octrees:  octrees,
		rootEdge: rootEdge,
		drawList: make([]Visible, 0, cfg.DrawListCapacity),
	}
	w.src = meshing.NewHashSource(hash, store)
	return w, nil
}

// arenaBytes sums what voxel.NewStore and spatialhash.New will Take for a
// store of the given chunk capacity, plus slack for each Take's alignment
// rounding (at most the alignment size per call).
func arenaBytes(capacity int) int {
	words := (capacity + 63) / 64
	storeBytes := capacity*1 + words*8
	hashBytes := capacity*2 + capacity*24 + words*8
	const slack = 256
	return storeBytes + hashBytes + slack
}

// activeTree returns the octree currently used for insert/remove/collect.
func (w *World) activeTree() *octree.Tree { return w.octrees[w.curTree] }

func (w *World) chunkKey(coord [3]int32) uint64 {
	return spatialhash.PackCoord(coord[0], coord[1], coord[2])
}

// chunkAt resolves coord through the spatial hash into the voxel store, the
// same lookup the mesher's ChunkSource (built by meshing.NewHashSource)
// performs.
func (w *World) chunkAt(coord [3]int32) *voxel.Chunk {
	slot, ok := w.hash.Get(w.chunkKey(coord))
	if !ok {
		return nil
	}
	return w.store.Get(int(slot))
}

// getOrCreateChunk resolves coord to its chunk, creating and registering a
// fresh one (flagged IsNew) if absent. Returns ErrVoxelDropped wrapping the
// underlying pool/hash error if the world is out of capacity.
func (w *World) getOrCreateChunk(coord [3]int32) (*voxel.Chunk, error) {
	if c := w.chunkAt(coord); c != nil {
		return c, nil
	}

	chunk := voxel.New(coord[0], coord[1], coord[2])
	slot, err := w.store.Reserve(chunk)
	if err != nil {
		vxlog.L().Warnw("world: chunk store exhausted, dropping voxel write",
			"coord", coord, "err", err)
		return nil, fmt.Errorf("%w: %v", ErrVoxelDropped, err)
	}

	if err := w.hash.Insert(w.chunkKey(coord), uint64(slot)); err != nil {
		w.store.Release(slot)
		vxlog.L().Warnw("world: spatial hash exhausted, dropping voxel write",
			"coord", coord, "err", err)
		return nil, fmt.Errorf("%w: %v", ErrVoxelDropped, err)
	}

	return chunk, nil
}

// floorDiv performs integer division that rounds down for negative
// numbers, matching the teacher's world.go helper.
func floorDiv(a, b int32) int32 {
	if a < 0 {
		return (a - b + 1) / b
	}
	return a / b
}

// mod returns the remainder of a/b, always non-negative.
func mod(a, b int32) int32 {
	r := a % b
	if r < 0 {
		r += b
	}
	return r
}

// SetVoxel writes v at world coordinate (x,y,z), creating the owning
// chunk lazily if needed, and marks it IsChanged per spec.md §4.F. Returns
// ErrVoxelDropped if the chunk store or spatial hash is at capacity.
func (w *World) SetVoxel(x, y, z int32, v voxel.Voxel) error {
	cx, cy, cz := floorDiv(x, voxel.ChunkSize), floorDiv(y, voxel.ChunkSize), floorDiv(z, voxel.ChunkSize)
	lx, ly, lz := mod(x, voxel.ChunkSize), mod(y, voxel.ChunkSize), mod(z, voxel.ChunkSize)

	chunk, err := w.getOrCreateChunk([3]int32{cx, cy, cz})
	if err != nil {
		return err
	}
	chunk.Set(int(lx), int(ly), int(lz), v)
	return nil
}

// VoxelAt returns the voxel at world coordinate (x,y,z), or voxel.Air if
// its chunk has never been created.
func (w *World) VoxelAt(x, y, z int32) voxel.Voxel {
	cx, cy, cz := floorDiv(x, voxel.ChunkSize), floorDiv(y, voxel.ChunkSize), floorDiv(z, voxel.ChunkSize)
	lx, ly, lz := mod(x, voxel.ChunkSize), mod(y, voxel.ChunkSize), mod(z, voxel.ChunkSize)

	chunk := w.chunkAt([3]int32{cx, cy, cz})
	if chunk == nil {
		return voxel.Air
	}
	return chunk.Get(int(lx), int(ly), int(lz))
}

// rootAnchorFor centers a cube of side rootEdge on worldPos, snapped to
// chunk-coordinate granularity so the root's bounds always align to chunk
// boundaries.
func rootAnchorFor(worldPos mgl32.Vec3, rootEdge int32) [3]int32 {
	half := rootEdge / 2
	center := [3]int32{
		int32(worldPos.X()) / voxel.ChunkSize * voxel.ChunkSize,
		int32(worldPos.Y()) / voxel.ChunkSize * voxel.ChunkSize,
		int32(worldPos.Z()) / voxel.ChunkSize * voxel.ChunkSize,
	}
	return [3]int32{center[0] - half, center[1] - half, center[2] - half}
}

// UpdatePosition rebuilds the octree into its alternate buffer, anchored
// near worldPos, and swaps it in. Every chunk in the spatial hash whose
// bounds overlaps the new root is inserted into the fresh tree; chunks
// outside are flagged ShouldRemove (spec.md §4.F, with the corrected
// predicate from SPEC_FULL.md §12: ShouldRemove iff NOT overlapping,
// since the original's own branch is inverted relative to its comment).
// Chunks inserted this pass that are still IsChanged get their mesh
// rebuilt immediately, per spec.md §4.F "Rebuild meshes of IS_CHANGED
// chunks during this pass."
func (w *World) UpdatePosition(worldPos mgl32.Vec3) {
	defer profiling.Track("world.UpdatePosition")()

	next := 1 - w.curTree
	tree := w.octrees[next]
	anchor := rootAnchorFor(worldPos, w.rootEdge)
	tree.Reset(anchor, w.rootEdge)
	rootBounds := tree.RootBounds()

	w.store.Iterate(func(_ int, chunk *voxel.Chunk) bool {
		if chunk == nil {
			return true
		}
		// The store still holds chunks UpdateState dropped from the hash.
		if _, ok := w.hash.Get(w.chunkKey(chunk.Coord)); !ok {
			return true
		}
		if chunk.Bounds.Intersects(rootBounds) {
			chunk.Flag &^= voxel.ShouldRemove
			if chunk.Flag.Has(voxel.IsChanged) {
				meshing.Build(w.src, chunk, w.cfg.Solid)
			}
			if err := tree.Insert(chunk, chunk.Coord); err != nil {
				vxlog.L().Warnw("world: octree exhausted during position update, chunk invisible",
					"coord", chunk.Coord, "err", err)
			}
		} else {
			chunk.Flag |= voxel.ShouldRemove
		}
		return true
	})

	w.curTree = next
}

// UpdateState visits every live chunk in the pool (not the hash, so order
// is slot order rather than bucket order) and applies its pending flags,
// per spec.md §4.F: removal first, then IsNew insertion, then IsChanged
// remeshing. A chunk with no flags set costs one Iterate visit and no
// writes, satisfying the idempotence property in spec.md §8.
func (w *World) UpdateState() {
	defer profiling.Track("world.UpdateState")()

	var toRelease []int

	w.store.Iterate(func(slot int, chunk *voxel.Chunk) bool {
		if chunk == nil {
			return true
		}

		if chunk.Flag.Has(voxel.ShouldRemove) || chunk.Flag.Has(voxel.IsInactive) {
			w.activeTree().Remove(chunk.Coord)
			w.hash.Remove(w.chunkKey(chunk.Coord))
			if chunk.Flag.Has(voxel.ShouldRemove) {
				toRelease = append(toRelease, slot)
			}
			return true
		}

		if chunk.Flag.Has(voxel.IsNew) {
			if err := w.activeTree().Insert(chunk, chunk.Coord); err != nil {
				vxlog.L().Warnw("world: octree exhausted inserting new chunk",
					"coord", chunk.Coord, "err", err)
			}
			chunk.Flag &^= voxel.IsNew
			chunk.Flag |= voxel.IsChanged
		}

		if chunk.Flag.Has(voxel.IsChanged) {
			meshing.Build(w.src, chunk, w.cfg.Solid)
		}

		return true
	})

	for _, slot := range toRelease {
		w.store.Release(slot)
	}
}

// BuildDrawList zeroes the draw list, collects every octree leaf visible
// in camera's frustum, computes each candidate's squared distance from
// camera.Position, and sorts the result ascending by distance (spec.md
// §4.F: "front-to-back for opaque overdraw reduction").
func (w *World) BuildDrawList(camera Camera) []Visible {
	defer profiling.Track("world.BuildDrawList")()

	w.drawList = w.drawList[:0]
	pos := [3]float32{camera.Position.X(), camera.Position.Y(), camera.Position.Z()}
	w.drawList = w.activeTree().CollectVisible(camera.Frustum, pos, w.drawList)

	if len(w.drawList) > w.cfg.DrawListCapacity {
		w.drawList = w.drawList[:w.cfg.DrawListCapacity]
	}

	sort.Slice(w.drawList, func(i, j int) bool {
		return w.drawList[i].Dist2 < w.drawList[j].Dist2
	})
	return w.drawList
}

// ChunkCount returns the number of chunks currently live in the store.
func (w *World) ChunkCount() int { return w.store.LiveCount() }

// NodeCount returns the number of nodes allocated in the currently active
// octree buffer.
func (w *World) NodeCount() int { return w.activeTree().NodeCount() }
