package voxel

import "testing"

func TestPushVertexAndQuad(t *testing.T) {
	m := NewMesh()
	v0 := m.PushVertex([3]float32{0, 0, 0}, [3]int8{1, 0, 0}, Face{Type: 1})
	v1 := m.PushVertex([3]float32{0, 1, 0}, [3]int8{1, 0, 0}, Face{Type: 1})
	v2 := m.PushVertex([3]float32{0, 1, 1}, [3]int8{1, 0, 0}, Face{Type: 1})
	v3 := m.PushVertex([3]float32{0, 0, 1}, [3]int8{1, 0, 0}, Face{Type: 1})
	m.PushQuad(v0, v1, v2, v3)

	if m.NumVertices() != 4 {
		t.Fatalf("NumVertices() = %d, want 4", m.NumVertices())
	}
	if m.NumIndices() != 6 {
		t.Fatalf("NumIndices() = %d, want 6", m.NumIndices())
	}
	if m.Normals[0] != [3]uint8{254, 127, 127} {
		t.Fatalf("Normals[0] = %v, want packed (+1,0,0)", m.Normals[0])
	}
}

func TestResetReusesCapacity(t *testing.T) {
	m := NewMesh()
	v0 := m.PushVertex([3]float32{}, [3]int8{}, Face{})
	m.PushQuad(v0, v0, v0, v0)
	capBefore := cap(m.Vertices)

	m.Reset()
	if m.NumVertices() != 0 || m.NumIndices() != 0 {
		t.Fatalf("Reset left nonzero counts")
	}
	if cap(m.Vertices) != capBefore {
		t.Fatalf("Reset shrank capacity: %d -> %d", capBefore, cap(m.Vertices))
	}
}

func TestPushVertexPanicsOverCapacity(t *testing.T) {
	m := NewMesh()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic when exceeding vertex capacity")
		}
	}()
	for i := 0; i <= capVertices; i++ {
		m.PushVertex([3]float32{}, [3]int8{}, Face{})
	}
}
