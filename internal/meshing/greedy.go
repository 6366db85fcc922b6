// Package meshing implements the greedy mesher: per-chunk generation of a
// minimal triangle mesh from per-voxel occupancy, reading across chunk
// boundaries through the spatial hash so only solid/air interface faces
// are emitted, and merging coplanar same-attribute quads. Ported from the
// original engine's voxel_chunk_mesh_build (entity/voxel/VoxelWorldMap.h).
package meshing

import (
	"voxelcore/internal/profiling"
	"voxelcore/internal/registry"
	"voxelcore/internal/spatialhash"
	"voxelcore/internal/voxel"
)

// maskCell is one cell of the 32x32 scratch mask built per slab. Grounded
// in the original engine's VoxelMaskCell; allocated on the caller's stack
// per the design notes ("never in the chunk itself") by living as a local
// array value inside Build rather than a chunk field.
type maskCell struct {
	face           voxel.Face
	positiveNormal bool
	filled         bool
}

func (a maskCell) mergeableWith(b maskCell) bool {
	return a.filled && b.filled && a.face == b.face && a.positiveNormal == b.positiveNormal
}

// ChunkSource resolves a chunk coordinate to its chunk, or nil if absent.
// World builds one with NewHashSource over its voxel.Store and
// spatialhash.Map; tests can fake it directly.
type ChunkSource interface {
	ChunkAt(coord [3]int32) *voxel.Chunk
}

// hashSource looks up a chunk by its spatial-hash slot, given the packed
// coordinate key and the store backing the hash's values.
type hashSource struct {
	hash  *spatialhash.Map
	store *voxel.Store
}

// NewHashSource builds a ChunkSource backed by a spatial hash whose values
// are voxel.Store slot indices, matching the world façade's wiring.
func NewHashSource(hash *spatialhash.Map, store *voxel.Store) ChunkSource {
	return hashSource{hash: hash, store: store}
}

func (s hashSource) ChunkAt(coord [3]int32) *voxel.Chunk {
	slot, ok := s.hash.Get(spatialhash.PackCoord(coord[0], coord[1], coord[2]))
	if !ok {
		return nil
	}
	return s.store.Get(int(slot))
}

// axisUnit returns the unit vector along axis (0=X,1=Y,2=Z).
func axisUnit(axis int) [3]float32 {
	var v [3]float32
	v[axis] = 1
	return v
}

// voxelAt resolves the voxel at chunk-local coordinate local, relative to
// baseCoord, crossing into neighbor chunks via src as needed. Out-of-range
// reads whose neighbor chunk is absent return air, per spec.
func voxelAt(src ChunkSource, baseCoord [3]int32, local [3]int32) voxel.Voxel {
	coord := baseCoord
	x, y, z := local[0], local[1], local[2]
	coord[0], x = wrapAxis(coord[0], x)
	coord[1], y = wrapAxis(coord[1], y)
	coord[2], z = wrapAxis(coord[2], z)

	c := src.ChunkAt(coord)
	if c == nil {
		return voxel.Air
	}
	return c.Get(int(x), int(y), int(z))
}

// wrapAxis normalizes a possibly out-of-[0,ChunkSize) local coordinate,
// adjusting the chunk coordinate on that axis to compensate. Mirrors the
// original engine's voxel_world_map_get wraparound loop.
func wrapAxis(chunkCoord int32, local int32) (int32, int32) {
	for local < 0 {
		local += voxel.ChunkSize
		chunkCoord--
	}
	for local >= voxel.ChunkSize {
		local -= voxel.ChunkSize
		chunkCoord++
	}
	return chunkCoord, local
}

// Build rebuilds chunk's mesh from its own voxels and its six neighbors
// (queried through src), clearing IsChanged iff the rebuild completes. The
// mesher performs no I/O and cannot fail; an undersized mesh buffer would
// be a configuration bug caught by Mesh's own capacity panics.
func Build(src ChunkSource, chunk *voxel.Chunk, solid registry.SolidPredicate) {
	defer profiling.Track("meshing.Build")()

	chunk.Mesh.Reset()

	var mask [voxel.ChunkSize * voxel.ChunkSize]maskCell

	for axis := 0; axis < 3; axis++ {
		u := (axis + 1) % 3
		v := (axis + 2) % 3
		uUnit := axisUnit(u)
		vUnit := axisUnit(v)
		aUnit := axisUnit(axis)

		for d := -1; d < voxel.ChunkSize; d++ {
			buildMask(src, chunk, solid, axis, u, v, d, mask[:])
			mergeMask(mask[:], func(i, j, width, height int, cell maskCell) {
				emitQuad(chunk, aUnit, uUnit, vUnit, d, i, j, width, height, cell)
			})
		}
	}

	chunk.Flag &^= voxel.IsChanged
}

func buildMask(src ChunkSource, chunk *voxel.Chunk, solid registry.SolidPredicate, axis, u, v, d int, mask []maskCell) {
	for j := 0; j < voxel.ChunkSize; j++ {
		for i := 0; i < voxel.ChunkSize; i++ {
			var localA, localB [3]int32
			localA[u], localB[u] = int32(i), int32(i)
			localA[v], localB[v] = int32(j), int32(j)
			localA[axis] = int32(d)
			localB[axis] = int32(d + 1)

			a := voxelAt(src, chunk.Coord, localA)
			b := voxelAt(src, chunk.Coord, localB)
			solidA, solidB := solid(a.Type), solid(b.Type)

			cell := &mask[j*voxel.ChunkSize+i]
			if solidA == solidB {
				*cell = maskCell{}
				continue
			}
			if solidB {
				cell.face = voxel.Face{Type: b.Type, Rotation: b.Rotation}
			} else {
				cell.face = voxel.Face{Type: a.Type, Rotation: a.Rotation}
			}
			cell.positiveNormal = solidB
			cell.filled = true
		}
	}
}

// mergeMask scans mask greedily, invoking emit once per merged rectangle
// and clearing the covered cells.
func mergeMask(mask []maskCell, emit func(i, j, width, height int, cell maskCell)) {
	const n = voxel.ChunkSize
	for j := 0; j < n; j++ {
		for i := 0; i < n; {
			cell := mask[j*n+i]
			if !cell.filled {
				i++
				continue
			}

			width := 1
			for i+width < n && mask[j*n+i+width].mergeableWith(cell) {
				width++
			}

			height := 1
		heightLoop:
			for j+height < n {
				for k := 0; k < width; k++ {
					if !mask[(j+height)*n+i+k].mergeableWith(cell) {
						break heightLoop
					}
				}
				height++
			}

			for hh := 0; hh < height; hh++ {
				for ww := 0; ww < width; ww++ {
					mask[(j+hh)*n+i+ww] = maskCell{}
				}
			}

			emit(i, j, width, height, cell)
			i += width
		}
	}
}

func emitQuad(chunk *voxel.Chunk, aUnit, uUnit, vUnit [3]float32, d, i, j, width, height int, cell maskCell) {
	// The mask at slab d compares cells d and d+1, so the face between them
	// lies at d+1 whichever side is solid.
	slabOffset := float32(d + 1)

	origin := chunk.Bounds.Min
	var originF [3]float32
	for k := 0; k < 3; k++ {
		originF[k] = float32(origin[k]) + aUnit[k]*slabOffset + uUnit[k]*float32(i) + vUnit[k]*float32(j)
	}

	uVec := scale(uUnit, float32(width))
	vVec := scale(vUnit, float32(height))

	p0 := originF
	p1 := add(originF, uVec)
	p2 := add(add(originF, uVec), vVec)
	p3 := add(originF, vVec)

	var normal [3]int8
	sign := int8(-1)
	if cell.positiveNormal {
		sign = 1
	}
	normal[indexOfUnit(aUnit)] = sign

	v0 := chunk.Mesh.PushVertex(p0, normal, cell.face)
	v1 := chunk.Mesh.PushVertex(p1, normal, cell.face)
	v2 := chunk.Mesh.PushVertex(p2, normal, cell.face)
	v3 := chunk.Mesh.PushVertex(p3, normal, cell.face)

	if cell.positiveNormal {
		chunk.Mesh.PushQuad(v0, v1, v2, v3)
	} else {
		chunk.Mesh.PushQuad(v0, v3, v2, v1)
	}
}

func indexOfUnit(u [3]float32) int {
	for i, c := range u {
		if c != 0 {
			return i
		}
	}
	return 0
}

func scale(v [3]float32, s float32) [3]float32 {
	return [3]float32{v[0] * s, v[1] * s, v[2] * s}
}

func add(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}
