// Package registry holds the pluggable policy the voxel core consults to
// decide which voxel types are solid. Kept separate from internal/voxel so a
// host can register translucent/fluid types without editing chunk or mesher
// code, per the callback the original engine hard-coded as "type != 0".
package registry

// VoxelType identifies a material. 0 is reserved for air by convention; the
// meaning of every other value is owned by the host application.
type VoxelType uint16

// SolidPredicate decides whether a voxel type occupies space for meshing
// and occlusion purposes. Types that return false are treated as air by the
// greedy mesher even if non-zero (e.g. water, glass in a future extension).
type SolidPredicate func(VoxelType) bool

// DefaultSolidPredicate treats every non-zero type as solid, matching the
// original engine's voxel_is_solid.
func DefaultSolidPredicate(t VoxelType) bool {
	return t != 0
}
