// Package frustum implements the 6-plane view-volume test the octree uses
// to cull chunks before they reach the draw list. Grounded in the
// teacher's graphics/renderables/blocks frustum code for the positive-vertex
// AABB test; unlike the teacher, this package never extracts planes from a
// projection matrix itself — the core receives the six planes directly
// (spec.md §6), since matrix/camera setup is the renderer's concern.
package frustum

import (
	"voxelcore/internal/voxel"
)

// Plane is a half-space a*x + b*y + c*z + d >= 0.
type Plane struct {
	A, B, C, D float32
}

// Frustum is the six planes bounding a camera's view volume, in
// left, right, bottom, top, near, far order.
type Frustum struct {
	Planes [6]Plane
}

// IntersectsAABB reports whether box is not fully outside any single
// plane, per the positive-vertex test: for each plane, pick whichever box
// corner has the largest dot product with the plane normal and reject if
// even that corner is behind the plane.
func (f Frustum) IntersectsAABB(box voxel.AABB) bool {
	minX, minY, minZ := float32(box.Min[0]), float32(box.Min[1]), float32(box.Min[2])
	maxX, maxY, maxZ := float32(box.Max[0]), float32(box.Max[1]), float32(box.Max[2])

	for _, p := range f.Planes {
		px := maxX
		if p.A < 0 {
			px = minX
		}
		py := maxY
		if p.B < 0 {
			py = minY
		}
		pz := maxZ
		if p.C < 0 {
			pz = minZ
		}
		if p.A*px+p.B*py+p.C*pz+p.D < 0 {
			return false
		}
	}
	return true
}
