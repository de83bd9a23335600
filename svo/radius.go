package svo

import (
	"voxelterrain/coord"
)

// FillMissingChunksInRadius recurses the tree from the root, pruning any
// subtree whose AABB doesn't intersect the query sphere, and only
// materializing (visiting) the octants that do — per §4.5/§1: "the SVO must
// enumerate only chunks the viewer can see without materializing absent
// subtrees." Grounded on this codebase's world/tree quadtree traversal
// (forSectorsInRadius's node-bounds-vs-circle prune before descending into
// children), generalized from a 4-ary quadtree to this package's 8-ary
// octree and from "already-present entities" to "coordinates worth
// requesting." beingLoaded is the pipeline's (C7) set of coords with an
// outstanding request; passing nil treats nothing as in-flight.
// FillMissingChunksInRadius never mutates the tree or beingLoaded; callers
// hand the returned requests to the pipeline and admit each accepted coord
// into beingLoaded themselves.
func (t *Tree) FillMissingChunksInRadius(center coord.Vec3, radius float32, beingLoaded map[coord.Chunk]bool) []Request {
	if radius <= 0 {
		return nil
	}
	var reqs []Request
	fillRadius(t.root, center, radius*radius, beingLoaded, &reqs)
	return reqs
}

func fillRadius(n *node, center coord.Vec3, r2 float32, beingLoaded map[coord.Chunk]bool, reqs *[]Request) {
	if !n.aabb.IntersectsSphere(center, r2) {
		return
	}

	if n.size == 1 {
		c := n.lower
		if beingLoaded[c] {
			return
		}
		d2 := c.Center().DistanceSquared(center)
		if d2 > r2 {
			return
		}
		desired := Priority(d2)
		switch {
		case n.leaf == nil:
			*reqs = append(*reqs, Request{Coord: c, DesiredStatus: desired, DistSquared: d2})
		case n.leaf.Status > desired:
			*reqs = append(*reqs, Request{Coord: c, DesiredStatus: desired, IsUpgrade: true, DistSquared: d2})
		}
		return
	}

	half := n.size / 2
	for octant := 0; octant < 8; octant++ {
		var child *node
		if n.children != nil {
			child = n.children[octant]
		}
		if child == nil {
			// Absent subtree: every coordinate in it is unloaded, but we
			// must not materialize it just to enumerate candidates. Walk
			// its coordinate space directly, still pruned by the child's
			// would-be AABB, without ever allocating a node.
			lower := octantLower(n.lower, half, octant)
			fillAbsentRadius(lower, half, center, r2, beingLoaded, reqs)
			continue
		}
		fillRadius(child, center, r2, beingLoaded, reqs)
	}
}

// fillAbsentRadius enumerates candidate coordinates inside an unmaterialized
// subtree's coordinate range, pruned first by the subtree's AABB (cheap,
// whole-subtree reject) and then leaf-by-leaf against the sphere. It never
// touches the tree (there is nothing to touch), so it carries no allocation
// cost beyond the requests it actually emits.
func fillAbsentRadius(lower coord.Chunk, size int32, center coord.Vec3, r2 float32, beingLoaded map[coord.Chunk]bool, reqs *[]Request) {
	aabb := coord.ChunkAABB(lower, size)
	if !aabb.IntersectsSphere(center, r2) {
		return
	}
	if size == 1 {
		c := lower
		if beingLoaded[c] {
			return
		}
		d2 := c.Center().DistanceSquared(center)
		if d2 > r2 {
			return
		}
		*reqs = append(*reqs, Request{Coord: c, DesiredStatus: Priority(d2), DistSquared: d2})
		return
	}
	half := size / 2
	for octant := 0; octant < 8; octant++ {
		fillAbsentRadius(octantLower(lower, half, octant), half, center, r2, beingLoaded, reqs)
	}
}

// QueryChunksOutsideSphere returns every resident chunk coordinate whose
// center lies strictly beyond radius of center, for eviction once a viewer
// moves away (the complement of FillMissingChunksInRadius). Fast path
// (§4.5): if a node's nearest point to center already exceeds radius², the
// entire subtree is outside the sphere, so every descendant is collected
// without further per-leaf distance tests; only subtrees whose AABB still
// reaches into the sphere need per-leaf checks.
func (t *Tree) QueryChunksOutsideSphere(center coord.Vec3, radius float32) []coord.Chunk {
	r2 := radius * radius
	var out []coord.Chunk
	queryOutside(t.root, center, r2, &out)
	return out
}

func queryOutside(n *node, center coord.Vec3, r2 float32, out *[]coord.Chunk) {
	if n.size == 1 {
		if n.leaf != nil && n.lower.Center().DistanceSquared(center) > r2 {
			*out = append(*out, n.lower)
		}
		return
	}
	if n.children == nil {
		return
	}
	if n.aabb.NearestPointDistanceSquared(center) > r2 {
		// Every point in this subtree is already outside the sphere: collect
		// every resident leaf without any further distance test.
		walk(n, func(c coord.Chunk, _ *Leaf) { *out = append(*out, c) })
		return
	}
	for _, child := range n.children {
		if child != nil {
			queryOutside(child, center, r2, out)
		}
	}
}

// walk visits every occupied leaf under n.
func walk(n *node, visit func(coord.Chunk, *Leaf)) {
	if n.size == 1 {
		if n.leaf != nil {
			visit(n.lower, n.leaf)
		}
		return
	}
	if n.children == nil {
		return
	}
	for _, child := range n.children {
		if child != nil {
			walk(child, visit)
		}
	}
}
