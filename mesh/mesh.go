// Package mesh implements the marching-cubes mesher (C5): density+material
// grid to indexed triangle mesh, with shared edge vertices and deferred
// (accumulated, un-normalized) normal computation, per SPEC_FULL.md §4.4.
package mesh

import (
	"sync"

	"voxelterrain/coord"
	"voxelterrain/density"
)

// Mesh is the mesher's output: four parallel arrays per §6.3.
type Mesh struct {
	Positions  []coord.Vec3
	Normals    []coord.Vec3
	MaterialUV [][2]float32
	Indices    []uint32
}

// Empty reports whether the mesh has no vertices (legal for uniform chunks).
func (m *Mesh) Empty() bool { return len(m.Positions) == 0 }

// Release returns the mesh's backing slices to the scratch pool. Callers
// must not use m after calling Release.
func (m *Mesh) Release() {
	meshPool.Put(m)
}

var meshPool = sync.Pool{
	New: func() interface{} {
		return &Mesh{
			Positions:  make([]coord.Vec3, 0, 4096),
			Normals:    make([]coord.Vec3, 0, 4096),
			MaterialUV: make([][2]float32, 0, 4096),
			Indices:    make([]uint32, 0, 8192),
		}
	},
}

func newMesh() *Mesh {
	m := meshPool.Get().(*Mesh)
	m.Positions = m.Positions[:0]
	m.Normals = m.Normals[:0]
	m.MaterialUV = m.MaterialUV[:0]
	m.Indices = m.Indices[:0]
	return m
}

type edgeKey struct {
	x, y, z int32
	dir     int32
}

const epsilon = 1e-5

// Generate runs marching cubes over an N^3 density/material grid and
// returns the resulting mesh, drawn from a sync.Pool scratch buffer (§4.4,
// "Object pooling"). N is coord.GridSize. Positions are chunk-local and
// centered on the chunk (§6.3): grid sample (0,0,0) maps to
// -(N-1)*Spacing/2 on each axis.
func Generate(densities *[coord.GridSize * coord.GridSize * coord.GridSize]int16, materials *[coord.GridSize * coord.GridSize * coord.GridSize]byte) *Mesh {
	const n = coord.GridSize
	m := newMesh()

	edgeVertex := make(map[edgeKey]uint32, 1024)

	dq := func(x, y, z int) float32 {
		return coord.DequantizeSDF(densities[coord.SampleIndex(x, y, z)])
	}
	mat := func(x, y, z int) byte {
		return materials[coord.SampleIndex(x, y, z)]
	}

	center := float32(n-1) * coord.Spacing * 0.5

	for z := 0; z < n-1; z++ {
		for y := 0; y < n-1; y++ {
			for x := 0; x < n-1; x++ {
				var cubeIdx int
				var vals [8]float32
				var mats [8]byte
				for i, off := range cornerOffset {
					cx, cy, cz := x+off[0], y+off[1], z+off[2]
					v := dq(cx, cy, cz)
					vals[i] = v
					mats[i] = mat(cx, cy, cz)
					if v < 0 {
						// Negative density is below ground (solid); triTable's
						// convention is bit=1 for an inside/solid corner.
						cubeIdx |= 1 << uint(i)
					}
				}

				if cubeIdx == 0 || cubeIdx == 255 {
					continue
				}

				edges := triTable[cubeIdx]
				for i := 0; i+2 < len(edges); i += 3 {
					var tri [3]uint32
					for k := 0; k < 3; k++ {
						e := edges[i+k]
						tri[k] = vertexForEdge(m, edgeVertex, x, y, z, e, vals, mats, center)
					}
					if tri[0] == tri[1] || tri[1] == tri[2] || tri[0] == tri[2] {
						continue // shared-edge cache collapsed this triangle to a point; skip
					}
					m.Indices = append(m.Indices, tri[0], tri[1], tri[2])
					accumulateNormal(m, tri)
				}
			}
		}
	}

	return m
}

// vertexForEdge returns the shared vertex index for the crossing on edge e
// of the cube at grid-local (x,y,z), creating it on first reference via the
// canonical edge key so the up-to-four cubes meeting at that edge share one
// vertex (§4.4 step 4).
func vertexForEdge(m *Mesh, cache map[edgeKey]uint32, x, y, z, e int, vals [8]float32, mats [8]byte, center float32) uint32 {
	c0, c1 := edgeCorners[e][0], edgeCorners[e][1]
	o0, o1 := cornerOffset[c0], cornerOffset[c1]

	// Canonical key: always the lower-offset corner plus the edge direction,
	// so both cubes sharing this edge compute the same key.
	kx, ky, kz := x+o0[0], y+o0[1], z+o0[2]
	dir := edgeDir[e]
	key := edgeKey{x: int32(kx), y: int32(ky), z: int32(kz), dir: int32(dir)}

	if idx, ok := cache[key]; ok {
		return idx
	}

	v1, v2 := vals[c0], vals[c1]
	t := float32(0.5)
	if d := v2 - v1; d > epsilon || d < -epsilon {
		t = -v1 / d
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
	}

	p0 := gridPos(x+o0[0], y+o0[1], z+o0[2], center)
	p1 := gridPos(x+o1[0], y+o1[1], z+o1[2], center)
	pos := p0.Lerp(p1, t)

	uv := materialUV(mats[c0], mats[c1])

	idx := uint32(len(m.Positions))
	m.Positions = append(m.Positions, pos)
	m.Normals = append(m.Normals, coord.Vec3{})
	m.MaterialUV = append(m.MaterialUV, uv)
	cache[key] = idx
	return idx
}

func gridPos(x, y, z int, center float32) coord.Vec3 {
	return coord.Vec3{
		X: float32(x)*coord.Spacing - center,
		Y: float32(y)*coord.Spacing - center,
		Z: float32(z)*coord.Spacing - center,
	}
}

// materialUV picks the new vertex's material per §4.4 step 5: grass wins if
// either endpoint is grass, else the nonzero endpoint material, else zero.
func materialUV(m0, m1 byte) [2]float32 {
	pick := func() byte {
		if m0 == density.MaterialGrass || m1 == density.MaterialGrass {
			return density.MaterialGrass
		}
		if m0 != 0 {
			return m0
		}
		return m1
	}()
	return [2]float32{float32(pick), 0}
}

// accumulateNormal computes the un-normalized face normal of triangle tri
// and accumulates it into each vertex slot (§4.4 step 6). The consumer
// normalizes before rendering (§6.3).
func accumulateNormal(m *Mesh, tri [3]uint32) {
	p0, p1, p2 := m.Positions[tri[0]], m.Positions[tri[1]], m.Positions[tri[2]]
	n := p1.Sub(p0).Cross(p2.Sub(p0))
	for _, idx := range tri {
		m.Normals[idx] = m.Normals[idx].Add(n)
	}
}
