package voxel

// capVertices and capIndices are the per-chunk mesh sizes the original
// engine pre-sizes its buffers to (32²·3 vertices, 32²·2 indices). The
// index buffer fills first, at 341 quads; a mesh that needs more (a dense
// checkerboard of 1x1 quads does) makes PushQuad panic.
const (
	capVertices = ChunkSize * ChunkSize * 3
	capIndices  = ChunkSize * ChunkSize * 2
)

// Mesh is the CPU-side triangle buffer produced by the greedy mesher. It is
// owned by its chunk and rebuilt in place; growth beyond the pre-sized
// capacity is a configuration bug, not a runtime error, so Push* panics
// rather than returning one.
type Mesh struct {
	Vertices  [][3]float32
	Normals   [][3]uint8
	Types     []uint16
	Rotations []uint8
	Indices   []uint32
}

// NewMesh preallocates backing arrays at the worst-case capacity so a
// rebuild never reallocates mid-mesh.
func NewMesh() *Mesh {
	return &Mesh{
		Vertices:  make([][3]float32, 0, capVertices),
		Normals:   make([][3]uint8, 0, capVertices),
		Types:     make([]uint16, 0, capVertices),
		Rotations: make([]uint8, 0, capVertices),
		Indices:   make([]uint32, 0, capIndices),
	}
}

// Reset truncates the mesh to zero length without releasing its backing
// arrays, so a re-mesh reuses the same capacity.
func (m *Mesh) Reset() {
	m.Vertices = m.Vertices[:0]
	m.Normals = m.Normals[:0]
	m.Types = m.Types[:0]
	m.Rotations = m.Rotations[:0]
	m.Indices = m.Indices[:0]
}

// NumVertices returns the current vertex count.
func (m *Mesh) NumVertices() int { return len(m.Vertices) }

// NumIndices returns the current index count.
func (m *Mesh) NumIndices() int { return len(m.Indices) }

// PackNormal maps a signed unit-axis component (-1, 0, +1) to the packed
// byte range the renderer expects: n*127+127 so (-1,0,+1) -> (0,127,254).
func PackNormal(n int8) uint8 {
	return uint8(int16(n)*127 + 127)
}

// PushVertex appends one vertex and its per-vertex attributes, returning
// its index for use in a subsequent PushQuad/PushTriangle call. Panics if
// the mesh's pre-sized capacity is exceeded.
func (m *Mesh) PushVertex(pos [3]float32, normal [3]int8, face Face) uint32 {
	if len(m.Vertices) >= capVertices {
		panic("voxel: mesh vertex capacity exceeded")
	}
	idx := uint32(len(m.Vertices))
	m.Vertices = append(m.Vertices, pos)
	m.Normals = append(m.Normals, [3]uint8{
		PackNormal(normal[0]), PackNormal(normal[1]), PackNormal(normal[2]),
	})
	m.Types = append(m.Types, uint16(face.Type))
	m.Rotations = append(m.Rotations, uint8(face.Rotation))
	return idx
}

// PushQuad appends two triangles covering the quad v0,v1,v2,v3 in the
// caller-supplied order; winding is entirely up to vertex order, so callers
// pass (v0,v1,v2,v3) for a positive-facing quad and (v0,v3,v2,v1) to flip it.
func (m *Mesh) PushQuad(v0, v1, v2, v3 uint32) {
	if len(m.Indices)+6 > capIndices {
		panic("voxel: mesh index capacity exceeded")
	}
	m.Indices = append(m.Indices, v0, v1, v2, v0, v2, v3)
}
