package voxel

// Flag is a bitfield over a chunk's lifecycle state, mirroring the original
// engine's VoxelChunkFlag.
type Flag uint8

const (
	FlagNone Flag = 0
	// IsNew marks a chunk inserted into the hash but not yet the octree.
	IsNew Flag = 1 << 0
	// IsChanged marks a chunk whose mesh is stale relative to its voxels.
	IsChanged Flag = 1 << 1
	// ShouldRemove marks a chunk to be evicted on the next state update.
	ShouldRemove Flag = 1 << 2
	// IsInactive marks a chunk to be dropped from the octree/hash but whose
	// pool slots are kept (e.g. paused simulation far from the camera).
	IsInactive Flag = 1 << 3
)

// Has reports whether every bit in want is set in f.
func (f Flag) Has(want Flag) bool { return f&want == want }

// AABB is an axis-aligned box in chunk-local integer world coordinates.
type AABB struct {
	Min, Max [3]int32
}

// Intersects reports whether a and b overlap on every axis, touching edges
// counting as overlap (closed intervals), matching the original engine's
// aabb_overlap.
func (a AABB) Intersects(b AABB) bool {
	for i := 0; i < 3; i++ {
		if a.Max[i] < b.Min[i] || a.Min[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Center returns the box's geometric center.
func (a AABB) Center() [3]float32 {
	return [3]float32{
		float32(a.Min[0]+a.Max[0]) / 2,
		float32(a.Min[1]+a.Max[1]) / 2,
		float32(a.Min[2]+a.Max[2]) / 2,
	}
}

// Chunk is a 32-cube block of voxels: the atomic unit of spatial indexing
// and meshing. Each chunk is an ordinary heap object (see New); it is not
// stored inside chunk-pool slot bytes. A fixed-count Store tracks live
// chunks by slot index, so a world's working set is bounded by its
// configured chunk capacity.
type Chunk struct {
	Coord        [3]int32
	Bounds       AABB
	Vox          [ChunkSize * ChunkSize * ChunkSize]Voxel
	Flag         Flag
	ElementCount int32
	Mesh         *Mesh
}

// New builds a chunk anchored at chunk-space coordinate (x,y,z); its bounds
// span world-space [coord*32, (coord+1)*32) on every axis.
func New(x, y, z int32) *Chunk {
	return &Chunk{
		Coord: [3]int32{x, y, z},
		Bounds: AABB{
			Min: [3]int32{x * ChunkSize, y * ChunkSize, z * ChunkSize},
			Max: [3]int32{(x + 1) * ChunkSize, (y + 1) * ChunkSize, (z + 1) * ChunkSize},
		},
		ElementCount: 1,
		Flag:         IsNew,
		Mesh:         NewMesh(),
	}
}

// Get returns the voxel at local coordinate (x,y,z), or Air if any
// component is out of [0, ChunkSize).
func (c *Chunk) Get(x, y, z int) Voxel {
	if !InBounds(x, y, z) {
		return Air
	}
	return c.Vox[index(x, y, z)]
}

// Set writes the voxel at local coordinate (x,y,z) and marks the chunk
// changed. Out-of-bounds writes are silently ignored, matching the
// original engine's bounds-checked voxel_chunk_set.
func (c *Chunk) Set(x, y, z int, v Voxel) {
	if !InBounds(x, y, z) {
		return
	}
	c.Vox[index(x, y, z)] = v
	c.Flag |= IsChanged
}

// WorldOrigin returns the world-space coordinate of local voxel (0,0,0).
func (c *Chunk) WorldOrigin() [3]int32 {
	return c.Bounds.Min
}
