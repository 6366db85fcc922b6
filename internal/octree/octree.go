// Package octree implements the loose octree used for frustum-culled
// visibility: a bump-allocated, index-addressed node array subdividing
// world space down to chunk-sized leaves. Ported from the original
// engine's stdlib/Octree.h, with Node* children replaced by u32 indices
// into the node array (0 = null, matching the spec's redesign guidance)
// and the tree double-buffered (Old/New) instead of individually freed.
package octree

import (
	"errors"
	"fmt"

	"voxelcore/internal/frustum"
	"voxelcore/internal/voxel"
)

// ErrNodeArrayExhausted is returned by Insert when the node array has no
// room left for a new child node.
var ErrNodeArrayExhausted = errors.New("octree: node array exhausted")

// noChild is the sentinel "null" child index; node 0 is always the root,
// so it can never be a valid child reference.
const noChild = 0

// Node is one octree node. Children are indices into Tree.nodes (0 = null)
// rather than pointers, so the whole array is relocatable and trivially
// reset between frames.
type Node struct {
	Coord     [3]int32
	Bounds    voxel.AABB
	IsLeaf    bool
	HasData   bool
	Child     [8]uint32
	Data      *voxel.Chunk
	DataCoord [3]int32
}

// Tree is a pre-allocated, bump-assigned octree. Insert/Remove/CollectVisible
// are not safe for concurrent use; the spec's concurrency model treats
// traversal as safe to overlap with other traversals but not with a mutation.
type Tree struct {
	nodes    []Node
	last     int // index of the most recently allocated node; root is 0
	leafSize int32
}

// Create allocates a node array of the given capacity and initializes the
// root as a cube of side rootEdge anchored at rootAnchor. leafSize is the
// edge length at which a node is considered a leaf (32 for chunk-sized
// leaves in the voxel world).
func Create(capacity int, rootAnchor [3]int32, rootEdge int32, leafSize int32) (*Tree, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("octree: capacity must be positive, got %d", capacity)
	}
	if leafSize <= 0 {
		leafSize = voxel.ChunkSize
	}

	t := &Tree{nodes: make([]Node, capacity), leafSize: leafSize}
	t.resetRoot(rootAnchor, rootEdge)
	return t, nil
}

// resetRoot reinitializes node 0 as the root cube and rewinds the bump
// cursor, discarding every other node in the array.
func (t *Tree) resetRoot(rootAnchor [3]int32, rootEdge int32) {
	for i := range t.nodes {
		t.nodes[i] = Node{}
	}
	t.nodes[0] = Node{
		Coord: rootAnchor,
		Bounds: voxel.AABB{
			Min: rootAnchor,
			Max: [3]int32{rootAnchor[0] + rootEdge, rootAnchor[1] + rootEdge, rootAnchor[2] + rootEdge},
		},
		IsLeaf: rootEdge <= t.leafSize,
	}
	t.last = 0
}

// Reset rebuilds this tree's root at a new anchor/edge, discarding all
// prior nodes. Used to rebuild the "new" side of a double-buffered pair
// during World.UpdatePosition.
func (t *Tree) Reset(rootAnchor [3]int32, rootEdge int32) {
	t.resetRoot(rootAnchor, rootEdge)
}

// RootBounds returns the current root node's bounds.
func (t *Tree) RootBounds() voxel.AABB { return t.nodes[0].Bounds }

// childIndex picks the octant of n holding the chunk at chunkCoord: a bit
// is set when the chunk's world-space origin lies in the upper half of n's
// bounds on that axis, matching childBounds' split at the center.
func childIndex(n *Node, chunkCoord [3]int32) int {
	center := aabbCenter(n.Bounds)
	idx := 0
	if chunkCoord[0]*voxel.ChunkSize >= center[0] {
		idx |= 1
	}
	if chunkCoord[1]*voxel.ChunkSize >= center[1] {
		idx |= 2
	}
	if chunkCoord[2]*voxel.ChunkSize >= center[2] {
		idx |= 4
	}
	return idx
}

func childBounds(parent voxel.AABB, center [3]int32, idx int) voxel.AABB {
	out := parent
	if idx&1 != 0 {
		out.Min[0] = center[0]
	} else {
		out.Max[0] = center[0]
	}
	if idx&2 != 0 {
		out.Min[1] = center[1]
	} else {
		out.Max[1] = center[1]
	}
	if idx&4 != 0 {
		out.Min[2] = center[2]
	} else {
		out.Max[2] = center[2]
	}
	return out
}

func childAnchor(parentMin, center [3]int32, idx int) [3]int32 {
	var a [3]int32
	if idx&1 != 0 {
		a[0] = center[0]
	} else {
		a[0] = parentMin[0]
	}
	if idx&2 != 0 {
		a[1] = center[1]
	} else {
		a[1] = parentMin[1]
	}
	if idx&4 != 0 {
		a[2] = center[2]
	} else {
		a[2] = parentMin[2]
	}
	return a
}

// Insert walks from the root toward the leaf containing chunkCoord,
// allocating child nodes as needed, and attaches chunk at the leaf. Every
// node traversed has HasData set to true. Returns ErrNodeArrayExhausted if
// the node array runs out mid-walk; the chunk stays reachable via the
// spatial hash even though it is now invisible.
func (t *Tree) Insert(chunk *voxel.Chunk, chunkCoord [3]int32) error {
	nodeIdx := 0
	for !t.nodes[nodeIdx].IsLeaf {
		t.nodes[nodeIdx].HasData = true

		ci := childIndex(&t.nodes[nodeIdx], chunkCoord)
		if t.nodes[nodeIdx].Child[ci] == noChild {
			if t.last+1 >= len(t.nodes) {
				return ErrNodeArrayExhausted
			}
			parent := t.nodes[nodeIdx]
			center := aabbCenter(parent.Bounds)

			t.last++
			childIdx := t.last
			t.nodes[childIdx] = Node{
				Coord:  childAnchor(parent.Bounds.Min, center, ci),
				Bounds: childBounds(parent.Bounds, center, ci),
			}
			edge := t.nodes[childIdx].Bounds.Max[0] - t.nodes[childIdx].Bounds.Min[0]
			t.nodes[childIdx].IsLeaf = edge <= t.leafSize
			t.nodes[childIdx].HasData = true

			t.nodes[nodeIdx].Child[ci] = uint32(childIdx)
		}
		nodeIdx = int(t.nodes[nodeIdx].Child[ci])
	}

	t.nodes[nodeIdx].Data = chunk
	t.nodes[nodeIdx].DataCoord = chunkCoord
	t.nodes[nodeIdx].HasData = true
	return nil
}

// aabbCenter returns the integer midpoint of a box (floor division, as the
// original engine's aabb_center does for power-of-two edges).
func aabbCenter(b voxel.AABB) [3]int32 {
	return [3]int32{
		(b.Min[0] + b.Max[0]) / 2,
		(b.Min[1] + b.Max[1]) / 2,
		(b.Min[2] + b.Max[2]) / 2,
	}
}

// Remove clears the data at the leaf matching chunkCoord and recomputes
// HasData bottom-up along the path back to the root.
func (t *Tree) Remove(chunkCoord [3]int32) bool {
	return t.removeRec(0, chunkCoord)
}

func (t *Tree) removeRec(nodeIdx int, coord [3]int32) bool {
	n := &t.nodes[nodeIdx]
	if n.IsLeaf {
		if n.Data == nil {
			return false
		}
		n.Data = nil
		n.HasData = false
		return true
	}

	ci := childIndex(n, coord)
	childIdx := n.Child[ci]
	if childIdx == noChild {
		return false
	}
	if !t.removeRec(int(childIdx), coord) {
		return false
	}

	n.HasData = t.recomputeHasData(nodeIdx)
	return true
}

func (t *Tree) recomputeHasData(nodeIdx int) bool {
	n := &t.nodes[nodeIdx]
	if n.Data != nil {
		return true
	}
	for _, c := range n.Child {
		if c != noChild && t.nodes[c].HasData {
			return true
		}
	}
	return false
}

// Visible is one entry in the collected draw candidate set: a chunk and
// the squared distance from the collecting camera position.
type Visible struct {
	Chunk *voxel.Chunk
	Dist2 float32
}

// CollectVisible depth-first traverses the tree, appending every leaf with
// data whose bounds intersect f to out, and returns the extended slice.
// cameraPos is used to compute each candidate's squared distance.
func (t *Tree) CollectVisible(f frustum.Frustum, cameraPos [3]float32, out []Visible) []Visible {
	return t.collectRec(0, f, cameraPos, out)
}

func (t *Tree) collectRec(nodeIdx int, f frustum.Frustum, cameraPos [3]float32, out []Visible) []Visible {
	n := &t.nodes[nodeIdx]
	if !n.HasData && n.Data == nil {
		return out
	}
	if !f.IntersectsAABB(n.Bounds) {
		return out
	}

	if n.IsLeaf {
		if n.Data != nil {
			out = append(out, Visible{Chunk: n.Data, Dist2: dist2(n.Bounds, cameraPos)})
		}
		return out
	}

	for _, c := range n.Child {
		if c != noChild {
			out = t.collectRec(int(c), f, cameraPos, out)
		}
	}
	return out
}

func dist2(b voxel.AABB, p [3]float32) float32 {
	center := b.Center()
	dx := center[0] - p[0]
	dy := center[1] - p[1]
	dz := center[2] - p[2]
	return dx*dx + dy*dy + dz*dz
}

// NodeCount returns the number of nodes currently allocated (including the
// root), for tests and capacity diagnostics.
func (t *Tree) NodeCount() int { return t.last + 1 }

// Capacity returns the total size of the backing node array.
func (t *Tree) Capacity() int { return len(t.nodes) }
