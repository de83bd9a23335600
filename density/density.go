// Package density implements the procedural density generator (C2): turning
// a chunk coordinate into a quantized SDF + material grid via a cached 2D
// height field, per SPEC_FULL.md §4.1. Grounded on this codebase's
// terrain/noise height-combination idiom, generalized from a 2D heightmap
// byte grid to a full 3D density+material sample grid.
package density

import (
	"voxelterrain/coord"
	"voxelterrain/noise"
)

// HeightSource produces a combined heightfield sample at world (x, z).
// noise.Perlin satisfies this; tests use a deterministic stub.
type HeightSource interface {
	Height(x, z float32) float32
}

const (
	MaterialAir   byte = 0
	MaterialDirt  byte = 1
	MaterialGrass byte = 2
	MaterialSand  byte = 3
)

// Uniformity classifies a chunk's sample-wide homogeneity (§3).
type Uniformity int

const (
	NonUniform Uniformity = iota
	UniformAir
	UniformDirt
)

func (u Uniformity) String() string {
	switch u {
	case UniformAir:
		return "Air"
	case UniformDirt:
		return "Dirt"
	default:
		return "NonUniform"
	}
}

// stride is the sub-grid spacing for dense noise sampling (§4.1 step 1).
const stride = 4

// Generate produces the density+material grid for chunk c by sampling the
// height field densely on a stride-4 sub-grid (plus the full border) and
// bilinearly interpolating the interior, per SPEC_FULL.md §4.1.
func Generate(c coord.Chunk, h HeightSource) (densities [coord.GridSize * coord.GridSize * coord.GridSize]int16, materials [coord.GridSize * coord.GridSize * coord.GridSize]byte, uniformity Uniformity) {
	const n = coord.GridSize
	origin := c.Origin()

	heights := buildHeightmap(origin, h)

	first := true
	var firstDensity int16
	var firstMaterial byte
	nonUniform := false

	for z := 0; z < n; z++ {
		for y := 0; y < n; y++ {
			worldY := origin.Y + float32(y)*coord.Spacing
			for x := 0; x < n; x++ {
				worldX := origin.X + float32(x)*coord.Spacing
				ht := heights[x+z*n]
				d := clampSDF(worldY - ht)
				q := coord.QuantizeSDF(d)

				var m byte
				switch {
				case q < coord.QuantizeSDF(-1.0):
					m = MaterialDirt
				case q < 0 && worldY < 0:
					m = MaterialSand
				case q < 0:
					m = MaterialGrass
				default:
					m = MaterialAir
				}

				idx := coord.SampleIndex(x, y, z)
				densities[idx] = q
				materials[idx] = m

				if first {
					firstDensity, firstMaterial = q, m
					first = false
				} else if !nonUniform && (q != firstDensity || m != firstMaterial) {
					nonUniform = true
				}
			}
		}
	}

	switch {
	case nonUniform:
		uniformity = NonUniform
	case firstMaterial == MaterialAir && firstDensity > 0:
		uniformity = UniformAir
	case firstMaterial == MaterialDirt && firstDensity < 0:
		uniformity = UniformDirt
	default:
		// A fully-uniform grid that isn't classic air/dirt (e.g. all-sand or
		// all-grass) still counts as non-uniform for storage purposes: only
		// Air/Dirt get a storage-free representation (§3).
		uniformity = NonUniform
	}
	return
}

func clampSDF(d float32) float32 {
	if d > coord.SDFMax {
		return coord.SDFMax
	}
	if d < -coord.SDFMax {
		return -coord.SDFMax
	}
	return d
}

// buildHeightmap samples the height field densely on a stride-aligned
// sub-grid plus the full border, then bilinearly fills the interior.
func buildHeightmap(origin coord.Vec3, h HeightSource) [coord.GridSize * coord.GridSize]float32 {
	const n = coord.GridSize
	var heights [n * n]float32
	var known [n * n]bool

	sampleAt := func(x, z int) float32 {
		wx := origin.X + float32(x)*coord.Spacing
		wz := origin.Z + float32(z)*coord.Spacing
		return h.Height(wx, wz)
	}

	set := func(x, z int, v float32) {
		heights[x+z*n] = v
		known[x+z*n] = true
	}

	// Dense anchors: stride-aligned interior grid plus the full border.
	for z := 0; z < n; z++ {
		for x := 0; x < n; x++ {
			onBorder := x == 0 || z == 0 || x == n-1 || z == n-1
			onStride := x%stride == 0 && z%stride == 0
			if onBorder || onStride {
				set(x, z, sampleAt(x, z))
			}
		}
	}

	// Interior bilinear fill between stride-aligned anchors.
	for z := 0; z < n; z++ {
		for x := 0; x < n; x++ {
			if known[x+z*n] {
				continue
			}
			x0 := (x / stride) * stride
			x1 := x0 + stride
			if x1 > n-1 {
				x1 = n - 1
			}
			z0 := (z / stride) * stride
			z1 := z0 + stride
			if z1 > n-1 {
				z1 = n - 1
			}

			h00 := anchor(&heights, &known, x0, z0, sampleAt)
			h10 := anchor(&heights, &known, x1, z0, sampleAt)
			h01 := anchor(&heights, &known, x0, z1, sampleAt)
			h11 := anchor(&heights, &known, x1, z1, sampleAt)

			var tx, tz float32
			if x1 != x0 {
				tx = float32(x-x0) / float32(x1-x0)
			}
			if z1 != z0 {
				tz = float32(z-z0) / float32(z1-z0)
			}

			top := lerp(h00, h10, tx)
			bot := lerp(h01, h11, tx)
			set(x, z, lerp(top, bot, tz))
		}
	}

	return heights
}

// anchor returns a known heightmap sample, lazily sampling it if the stride
// grid didn't already cover it (e.g. the last partial stride cell near N-1).
func anchor(heights *[coord.GridSize * coord.GridSize]float32, known *[coord.GridSize * coord.GridSize]bool, x, z int, sampleAt func(x, z int) float32) float32 {
	const n = coord.GridSize
	i := x + z*n
	if known[i] {
		return heights[i]
	}
	v := sampleAt(x, z)
	heights[i] = v
	known[i] = true
	return v
}

func lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}
