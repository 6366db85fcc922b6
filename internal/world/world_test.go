package world

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"voxelcore/internal/frustum"
	"voxelcore/internal/voxel"
)

func newTestWorld(t *testing.T) *World {
	t.Helper()
	w, err := New(Config{ChunkCapacity: 64, NodeCapacity: 512, DrawListCapacity: 64})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return w
}

func wideFrustum() frustum.Frustum {
	const far = 100000.0
	return frustum.Frustum{Planes: [6]frustum.Plane{
		{A: 1, B: 0, C: 0, D: far}, {A: -1, B: 0, C: 0, D: far},
		{A: 0, B: 1, C: 0, D: far}, {A: 0, B: -1, C: 0, D: far},
		{A: 0, B: 0, C: 1, D: far}, {A: 0, B: 0, C: -1, D: far},
	}}
}

// Scenario 1: single voxel, single chunk -> exactly 6 quads (36 indices).
func TestSetVoxelSingleChunkMeshesSixFaces(t *testing.T) {
	w := newTestWorld(t)

	if err := w.SetVoxel(1, 1, 1, voxel.Voxel{Type: 1}); err != nil {
		t.Fatalf("SetVoxel: %v", err)
	}
	w.UpdateState()

	chunk := w.chunkAt([3]int32{0, 0, 0})
	if chunk == nil {
		t.Fatalf("expected chunk (0,0,0) to exist")
	}
	if got := chunk.Mesh.NumIndices(); got != 36 {
		t.Fatalf("NumIndices = %d, want 36 (12 triangles)", got)
	}
	if got := chunk.Mesh.NumVertices(); got != 24 {
		t.Fatalf("NumVertices = %d, want 24", got)
	}
}

// Scenario 2: two adjacent solids of the same type merge into 6 quads
// total, not 12.
func TestTwoAdjacentVoxelsMergeSharedFaceAway(t *testing.T) {
	w := newTestWorld(t)

	if err := w.SetVoxel(0, 0, 0, voxel.Voxel{Type: 1}); err != nil {
		t.Fatalf("SetVoxel: %v", err)
	}
	if err := w.SetVoxel(1, 0, 0, voxel.Voxel{Type: 1}); err != nil {
		t.Fatalf("SetVoxel: %v", err)
	}
	w.UpdateState()

	chunk := w.chunkAt([3]int32{0, 0, 0})
	if chunk == nil {
		t.Fatalf("expected chunk (0,0,0) to exist")
	}
	// 6 quads = 12 triangles = 36 indices, regardless of whether individual
	// quads cover area 1 or 2.
	if got := chunk.Mesh.NumIndices(); got != 36 {
		t.Fatalf("NumIndices = %d, want 36 (6 merged quads)", got)
	}
}

// Scenario 3: a solid voxel at the +X edge of chunk (0,0,0) and one at the
// -X edge of chunk (1,0,0) must not emit a face at the shared boundary.
func TestCrossChunkNeighborSuppressesSharedBoundaryFace(t *testing.T) {
	w := newTestWorld(t)

	if err := w.SetVoxel(31, 0, 0, voxel.Voxel{Type: 1}); err != nil {
		t.Fatalf("SetVoxel: %v", err)
	}
	if err := w.SetVoxel(32, 0, 0, voxel.Voxel{Type: 1}); err != nil {
		t.Fatalf("SetVoxel: %v", err)
	}
	w.UpdateState()

	left := w.chunkAt([3]int32{0, 0, 0})
	right := w.chunkAt([3]int32{1, 0, 0})
	if left == nil || right == nil {
		t.Fatalf("expected both chunks to exist: left=%v right=%v", left, right)
	}

	// Each isolated voxel would emit 6 faces if unmeshed against its
	// neighbor; the shared x=32 boundary face must be absent from both.
	if got := left.Mesh.NumIndices(); got != 30 {
		t.Fatalf("left chunk NumIndices = %d, want 30 (5 faces, boundary suppressed)", got)
	}
	if got := right.Mesh.NumIndices(); got != 30 {
		t.Fatalf("right chunk NumIndices = %d, want 30 (5 faces, boundary suppressed)", got)
	}
}

// Scenario 4: negative-coordinate mapping. set_voxel(-42,-42,-42) lands in
// chunk (-2,-2,-2) at local (22,22,22).
func TestNegativeCoordinateMapsToExpectedChunkAndLocal(t *testing.T) {
	w := newTestWorld(t)

	if err := w.SetVoxel(-42, -42, -42, voxel.Voxel{Type: 1}); err != nil {
		t.Fatalf("SetVoxel: %v", err)
	}

	chunk := w.chunkAt([3]int32{-2, -2, -2})
	if chunk == nil {
		t.Fatalf("expected chunk (-2,-2,-2) to exist")
	}
	got := chunk.Get(22, 22, 22)
	if got.Type != 1 {
		t.Fatalf("chunk(-2,-2,-2).Get(22,22,22) = %+v, want Type=1", got)
	}
}

// Scenario 5: a chunk far outside the frustum's far plane must not appear
// in the draw list.
func TestBuildDrawListExcludesChunksOutsideFrustum(t *testing.T) {
	w := newTestWorld(t)

	if err := w.SetVoxel(0, 0, 0, voxel.Voxel{Type: 1}); err != nil {
		t.Fatalf("SetVoxel: %v", err)
	}
	if err := w.SetVoxel(0, 0, 210, voxel.Voxel{Type: 1}); err != nil {
		t.Fatalf("SetVoxel: %v", err)
	}
	w.UpdateState()

	near := frustum.Frustum{Planes: [6]frustum.Plane{
		{A: 1, B: 0, C: 0, D: 100000}, {A: -1, B: 0, C: 0, D: 100000},
		{A: 0, B: 1, C: 0, D: 100000}, {A: 0, B: -1, C: 0, D: 100000},
		{A: 0, B: 0, C: 1, D: 0}, {A: 0, B: 0, C: -1, D: 100},
	}}

	list := w.BuildDrawList(Camera{Position: mgl32.Vec3{0, 0, 0}, Frustum: near})
	for _, v := range list {
		if v.Chunk.Coord[2] == 6 {
			t.Fatalf("draw list included the far chunk at z-chunk 6, should have been culled")
		}
	}
}

// Scenario 6: update_position rebuilds the octree so it contains exactly
// the chunks overlapping its new root bounds, and build_draw_list
// immediately afterward is a subset of those chunks.
func TestUpdatePositionKeepsOverlappingChunks(t *testing.T) {
	w := newTestWorld(t)

	if err := w.SetVoxel(0, 0, 0, voxel.Voxel{Type: 1}); err != nil {
		t.Fatalf("SetVoxel: %v", err)
	}
	if err := w.SetVoxel(0, 0, 0+int32(w.rootEdge)*10, voxel.Voxel{Type: 1}); err != nil {
		t.Fatalf("SetVoxel: %v", err)
	}
	w.UpdateState()
	w.UpdatePosition(mgl32.Vec3{0, 0, 0})

	near := w.chunkAt([3]int32{0, 0, 0})
	if near == nil {
		t.Fatalf("expected near chunk to exist")
	}
	if near.Flag.Has(voxel.ShouldRemove) {
		t.Fatalf("chunk overlapping the new root bounds must not be flagged ShouldRemove")
	}

	list := w.BuildDrawList(Camera{Position: mgl32.Vec3{0, 0, 0}, Frustum: wideFrustum()})
	for _, v := range list {
		if v.Chunk.Flag.Has(voxel.ShouldRemove) {
			t.Fatalf("draw list contains a chunk flagged ShouldRemove")
		}
	}
}

// Idempotence: update_state on a world with no flags set performs no
// mesh rebuilds (mesh identity/content is unchanged across the call).
func TestUpdateStateNoFlagsIsNoOp(t *testing.T) {
	w := newTestWorld(t)

	if err := w.SetVoxel(5, 5, 5, voxel.Voxel{Type: 1}); err != nil {
		t.Fatalf("SetVoxel: %v", err)
	}
	w.UpdateState()

	chunk := w.chunkAt([3]int32{0, 0, 0})
	before := chunk.Mesh.NumIndices()
	if chunk.Flag != voxel.FlagNone {
		t.Fatalf("expected no flags set after first UpdateState, got %v", chunk.Flag)
	}

	w.UpdateState()
	if after := chunk.Mesh.NumIndices(); after != before {
		t.Fatalf("UpdateState on a clean world changed mesh index count: %d -> %d", before, after)
	}
}

func TestSetVoxelReturnsDroppedErrorWhenChunkStoreFull(t *testing.T) {
	w, err := New(Config{ChunkCapacity: 1, NodeCapacity: 64, DrawListCapacity: 16})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := w.SetVoxel(0, 0, 0, voxel.Voxel{Type: 1}); err != nil {
		t.Fatalf("first SetVoxel: %v", err)
	}
	err = w.SetVoxel(100, 0, 0, voxel.Voxel{Type: 1})
	if err == nil {
		t.Fatalf("expected ErrVoxelDropped when chunk store is at capacity")
	}
}

func TestVoxelAtReturnsAirForUnknownChunk(t *testing.T) {
	w := newTestWorld(t)
	if got := w.VoxelAt(0, 0, 0); got != voxel.Air {
		t.Fatalf("VoxelAt on empty world = %+v, want Air", got)
	}
}
