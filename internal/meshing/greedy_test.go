package meshing

import (
	"testing"

	"voxelcore/internal/registry"
	"voxelcore/internal/voxel"
)

// fakeSource is an in-memory ChunkSource for tests that don't need the
// full arena/pool/hash stack.
type fakeSource struct {
	chunks map[[3]int32]*voxel.Chunk
}

func newFakeSource() *fakeSource {
	return &fakeSource{chunks: make(map[[3]int32]*voxel.Chunk)}
}

func (s *fakeSource) ChunkAt(coord [3]int32) *voxel.Chunk {
	return s.chunks[coord]
}

func (s *fakeSource) put(c *voxel.Chunk) {
	s.chunks[c.Coord] = c
}

// setVoxel mirrors the world façade's set_voxel: resolve (cx,cy,cz) and
// local coords from a world position, creating the chunk lazily.
func setVoxel(src *fakeSource, wx, wy, wz int32, v voxel.Voxel) *voxel.Chunk {
	cx, lx := floorDivMod(wx)
	cy, ly := floorDivMod(wy)
	cz, lz := floorDivMod(wz)

	c := src.chunks[[3]int32{cx, cy, cz}]
	if c == nil {
		c = voxel.New(cx, cy, cz)
		src.put(c)
	}
	c.Set(int(lx), int(ly), int(lz), v)
	return c
}

func floorDivMod(w int32) (int32, int32) {
	c := w / voxel.ChunkSize
	l := w % voxel.ChunkSize
	if l < 0 {
		l += voxel.ChunkSize
		c--
	}
	return c, l
}

func TestSingleVoxelSingleChunkProducesSixQuads(t *testing.T) {
	src := newFakeSource()
	c := setVoxel(src, 1, 1, 1, voxel.Voxel{Type: 1})

	Build(src, c, registry.DefaultSolidPredicate)

	if got := c.Mesh.NumVertices(); got != 24 {
		t.Fatalf("NumVertices() = %d, want 24", got)
	}
	if got := c.Mesh.NumIndices(); got != 36 {
		t.Fatalf("NumIndices() = %d, want 36 (12 triangles)", got)
	}
	if c.Coord != [3]int32{0, 0, 0} {
		t.Fatalf("chunk coord = %v, want (0,0,0)", c.Coord)
	}
}

func TestTwoAdjacentSolidsMergeOuterFaces(t *testing.T) {
	src := newFakeSource()
	setVoxel(src, 0, 0, 0, voxel.Voxel{Type: 1})
	c := setVoxel(src, 1, 0, 0, voxel.Voxel{Type: 1})

	Build(src, c, registry.DefaultSolidPredicate)

	// 6 quads total: 4 of area 2 (the merged +-Y and +-Z faces) and 2 of
	// area 1 (the +-X ends).
	if got := c.Mesh.NumIndices(); got != 36 {
		t.Fatalf("NumIndices() = %d, want 36 (6 quads)", got)
	}
	if got := c.Mesh.NumVertices(); got != 24 {
		t.Fatalf("NumVertices() = %d, want 24 (6 quads * 4 verts)", got)
	}
}

func TestCrossChunkBoundaryHidesSharedFace(t *testing.T) {
	src := newFakeSource()
	chunkA := setVoxel(src, 31, 0, 0, voxel.Voxel{Type: 1})
	chunkB := setVoxel(src, 32, 0, 0, voxel.Voxel{Type: 1})

	if chunkA.Coord != [3]int32{0, 0, 0} {
		t.Fatalf("chunkA coord = %v, want (0,0,0)", chunkA.Coord)
	}
	if chunkB.Coord != [3]int32{1, 0, 0} {
		t.Fatalf("chunkB coord = %v, want (1,0,0)", chunkB.Coord)
	}

	Build(src, chunkA, registry.DefaultSolidPredicate)
	Build(src, chunkB, registry.DefaultSolidPredicate)

	// Neither chunk's mesh may contain a face exactly at world x=32: both
	// voxels are solid of the same type so the mask cell there is empty.
	// Only X-facing quads can lie in that plane; the Y and Z faces of both
	// voxels have an edge on it, so their vertices are not counted.
	for _, c := range []*voxel.Chunk{chunkA, chunkB} {
		for k, vert := range c.Mesh.Vertices {
			if c.Mesh.Normals[k][0] != voxel.PackNormal(0) && vert[0] == 32 {
				t.Fatalf("found a vertex at the shared boundary x=32 in chunk %v", c.Coord)
			}
		}
	}
}

func TestNegativeCoordinateMapsToExpectedLocalIndex(t *testing.T) {
	src := newFakeSource()
	c := setVoxel(src, -42, -42, -42, voxel.Voxel{Type: 1})

	if c.Coord != [3]int32{-2, -2, -2} {
		t.Fatalf("chunk coord = %v, want (-2,-2,-2)", c.Coord)
	}
	got := c.Get(22, 22, 22)
	if got.Type != 1 {
		t.Fatalf("Get(22,22,22) = %+v, want type 1", got)
	}
}

func TestGreedyMergeMaximalityForSolidBox(t *testing.T) {
	src := newFakeSource()
	var c *voxel.Chunk
	const w, h, d = 4, 3, 2
	for x := int32(0); x < w; x++ {
		for y := int32(0); y < h; y++ {
			for z := int32(0); z < d; z++ {
				c = setVoxel(src, x+8, y+8, z+8, voxel.Voxel{Type: 1})
			}
		}
	}

	Build(src, c, registry.DefaultSolidPredicate)

	if got := c.Mesh.NumIndices(); got != 36 {
		t.Fatalf("NumIndices() = %d, want 36 (exactly 6 quads for a solid box)", got)
	}
	if got := c.Mesh.NumVertices(); got != 24 {
		t.Fatalf("NumVertices() = %d, want 24", got)
	}
}

func TestInvertingSolidVoxelFlipsWinding(t *testing.T) {
	chunk := voxel.New(0, 0, 0)
	face := voxel.Face{Type: 1}

	emitQuad(chunk, axisUnit(0), axisUnit(1), axisUnit(2), 5, 0, 0, 1, 1, maskCell{face: face, positiveNormal: true, filled: true})
	posTri := [3]uint32{chunk.Mesh.Indices[0], chunk.Mesh.Indices[1], chunk.Mesh.Indices[2]}

	chunk2 := voxel.New(0, 0, 0)
	emitQuad(chunk2, axisUnit(0), axisUnit(1), axisUnit(2), 5, 0, 0, 1, 1, maskCell{face: face, positiveNormal: false, filled: true})
	negTri := [3]uint32{chunk2.Mesh.Indices[0], chunk2.Mesh.Indices[1], chunk2.Mesh.Indices[2]}

	// Both quads share the same four corner positions; only the winding
	// (vertex visitation order) should differ between the two triangles.
	if posTri == negTri {
		t.Fatalf("flipping positiveNormal did not change triangle winding")
	}
	if chunk.Mesh.Normals[0][0] == chunk2.Mesh.Normals[0][0] {
		t.Fatalf("flipping positiveNormal did not flip the packed normal's X component")
	}
}

func TestBuildClearsIsChangedFlag(t *testing.T) {
	src := newFakeSource()
	c := setVoxel(src, 0, 0, 0, voxel.Voxel{Type: 1})
	if !c.Flag.Has(voxel.IsChanged) {
		t.Fatalf("freshly set voxel should mark IsChanged")
	}

	Build(src, c, registry.DefaultSolidPredicate)
	if c.Flag.Has(voxel.IsChanged) {
		t.Fatalf("Build did not clear IsChanged")
	}
}
