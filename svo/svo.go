// Package svo implements the sparse voxel octree (C6): a spatial index of
// loaded chunks that drives radius-based loading with distance-prioritized
// LOD, per SPEC_FULL.md §4.5. Generalized from this codebase's world/tree
// quadtree (4-ary, entity-indexed) to an 8-ary octree indexed by chunk
// coordinate, with the on-demand-subdivision and AABB-pruned-iteration idiom
// kept intact.
package svo

import (
	"voxelterrain/coord"
)

// LoadStatus is the LOD tier of a resident chunk (§3): 0 is the highest
// fidelity (mesh + collider), higher numbers progressively coarser.
type LoadStatus uint8

const (
	StatusHydrated LoadStatus = 0
	StatusMeshOnly LoadStatus = 1
	StatusCoarse   LoadStatus = 2
)

// Leaf is the payload stored at an occupied chunk coordinate.
type Leaf struct {
	HasEntity bool
	Status    LoadStatus
}

// Priority band radii, in world units (§4.5 reference values).
const (
	Z0 = 80
	Z1 = 100
	Z2 = 2600
)

// MaxRadius is the outer loading radius; chunks beyond it are never
// requested and are evicted once they cross back out of it.
const MaxRadius = Z2

// Priority returns the desired LoadStatus for a squared distance, per the
// nested-shell bands of §4.5.
func Priority(distSquared float32) LoadStatus {
	switch {
	case distSquared <= Z0*Z0:
		return StatusHydrated
	case distSquared <= Z1*Z1:
		return StatusMeshOnly
	case distSquared <= Z2*Z2:
		return StatusCoarse
	default:
		return 3
	}
}

// Request describes a chunk the SVO wants (re)loaded, to be handed to the
// pipeline (C7).
type Request struct {
	Coord         coord.Chunk
	DesiredStatus LoadStatus
	IsUpgrade     bool
	DistSquared   float32
}

// Tree is the sparse voxel octree. Root spans 2*halfSize chunks on each
// axis, centered on the origin (§4.5; reference halfSize = 512). It is a
// pure tree: child slots are exclusively owned by their parent (§9), and it
// is single-threaded — only the main/viewer goroutine touches it (§5).
type Tree struct {
	root     *node
	halfSize int32 // chunks from center to edge; size must be a power of two
}

type node struct {
	lower    coord.Chunk // lower-corner chunk coordinate
	size     int32       // edge length in chunks, power of two
	aabb     coord.AABB
	children *[8]*node
	leaf     *Leaf
}

// New constructs a Tree whose root spans [-halfSize, halfSize) chunks on
// each axis. halfSize must be a power of two.
func New(halfSize int32) *Tree {
	lower := coord.Chunk{X: int16(-halfSize), Y: int16(-halfSize), Z: int16(-halfSize)}
	size := halfSize * 2
	return &Tree{
		root:     newNode(lower, size),
		halfSize: halfSize,
	}
}

func newNode(lower coord.Chunk, size int32) *node {
	return &node{
		lower: lower,
		size:  size,
		aabb:  coord.ChunkAABB(lower, size),
	}
}

// octantOf returns which of the 8 child octants c falls in, given the
// parent's lower corner and half-size.
func octantOf(lower coord.Chunk, half int32, c coord.Chunk) int {
	idx := 0
	if int32(c.X-lower.X) >= half {
		idx |= 1
	}
	if int32(c.Y-lower.Y) >= half {
		idx |= 2
	}
	if int32(c.Z-lower.Z) >= half {
		idx |= 4
	}
	return idx
}

func octantLower(lower coord.Chunk, half int32, octant int) coord.Chunk {
	c := lower
	if octant&1 != 0 {
		c.X += int16(half)
	}
	if octant&2 != 0 {
		c.Y += int16(half)
	}
	if octant&4 != 0 {
		c.Z += int16(half)
	}
	return c
}

// Get returns the leaf at coord c, or nil if absent.
func (t *Tree) Get(c coord.Chunk) *Leaf {
	n := t.root
	for n.size > 1 {
		if n.children == nil {
			return nil
		}
		half := n.size / 2
		child := n.children[octantOf(n.lower, half, c)]
		if child == nil {
			return nil
		}
		n = child
	}
	return n.leaf
}

// Contains reports whether coord c has a leaf.
func (t *Tree) Contains(c coord.Chunk) bool {
	return t.Get(c) != nil
}

// Insert writes payload at coord c, creating intermediate nodes on demand.
// Overwriting an existing leaf is a programmer error (§3 invariant iii: each
// chunk coordinate occupies at most one leaf) and panics, mirroring the
// teacher's debug-assert-no-overwrite convention.
func (t *Tree) Insert(c coord.Chunk, payload Leaf) {
	n := t.root
	for n.size > 1 {
		half := n.size / 2
		if n.children == nil {
			n.children = &[8]*node{}
		}
		octant := octantOf(n.lower, half, c)
		child := n.children[octant]
		if child == nil {
			child = newNode(octantLower(n.lower, half, octant), half)
			n.children[octant] = child
		}
		n = child
	}
	if n.leaf != nil {
		panic("svo: insert would overwrite an existing leaf")
	}
	n.leaf = &payload
}

// Upsert writes or overwrites the leaf at c, for callers that intentionally
// update an existing chunk's payload (e.g. a load-status upgrade) rather
// than inserting a fresh one.
func (t *Tree) Upsert(c coord.Chunk, payload Leaf) {
	n := t.root
	for n.size > 1 {
		half := n.size / 2
		if n.children == nil {
			n.children = &[8]*node{}
		}
		octant := octantOf(n.lower, half, c)
		child := n.children[octant]
		if child == nil {
			child = newNode(octantLower(n.lower, half, octant), half)
			n.children[octant] = child
		}
		n = child
	}
	n.leaf = &payload
}

// Delete removes the leaf at c, collapsing empty child arrays on the way
// back up (§3 invariant ii). Returns whether a leaf was actually removed.
func (t *Tree) Delete(c coord.Chunk) bool {
	return deleteAt(t.root, c)
}

func deleteAt(n *node, c coord.Chunk) bool {
	if n.size == 1 {
		if n.leaf == nil {
			return false
		}
		n.leaf = nil
		return true
	}
	if n.children == nil {
		return false
	}
	half := n.size / 2
	octant := octantOf(n.lower, half, c)
	child := n.children[octant]
	if child == nil {
		return false
	}
	removed := deleteAt(child, c)
	if removed && childIsEmpty(child) {
		n.children[octant] = nil
		if allChildrenAbsent(n.children) {
			n.children = nil
		}
	}
	return removed
}

func childIsEmpty(n *node) bool {
	if n.size == 1 {
		return n.leaf == nil
	}
	return n.children == nil
}

func allChildrenAbsent(children *[8]*node) bool {
	for _, c := range children {
		if c != nil {
			return false
		}
	}
	return true
}
