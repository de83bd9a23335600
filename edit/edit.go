// Package edit implements the edit engine (C8): sphere-carve mutation of
// resident chunks, re-meshing, and re-persisting, per SPEC_FULL.md §4.8.
// Grounded on this codebase's terrain/compressed Terrain.Sculpt: a falloff-
// weighted, clamped height adjustment applied to the grid points nearest an
// edit point, generalized here from a 2D heightmap nudge (4 neighboring
// grid points, bilinear falloff weights) to a 3D per-voxel SDF carve
// (every voxel within the sphere, quadratic falloff).
package edit

import (
	"fmt"

	"voxelterrain/coord"
	"voxelterrain/density"
	"voxelterrain/mesh"
	"voxelterrain/store"
	"voxelterrain/svo"
	"voxelterrain/writer"
)

// Resident is the in-memory state the edit engine needs for one chunk:
// its current density/material grid and uniformity tag. Callers (the
// engine) own the grid storage; Engine only mutates what it's handed.
type Resident struct {
	Densities  *[coord.GridSize * coord.GridSize * coord.GridSize]int16
	Materials  *[coord.GridSize * coord.GridSize * coord.GridSize]byte
	Uniformity density.Uniformity
}

// ChunkStore is the narrow slice of engine state Engine needs: lookup of a
// resident chunk's grid, and the SVO leaf carrying its current load status.
type ChunkStore interface {
	Resident(c coord.Chunk) (*Resident, bool)
	Leaf(c coord.Chunk) *svo.Leaf
}

// Engine carves spheres into resident chunks and produces the follow-up
// work (re-mesh, re-persist) each carve implies.
type Engine struct {
	chunks ChunkStore
	w      *writer.Writer
}

// New constructs an Engine writing through w.
func New(chunks ChunkStore, w *writer.Writer) *Engine {
	return &Engine{chunks: chunks, w: w}
}

// CarveResult reports what Sphere did for one touched chunk.
type CarveResult struct {
	Coord   coord.Chunk
	Changed bool
	Mesh    *mesh.Mesh // nil if Changed is false, or the chunk remained uniform
}

// Sphere carves a sphere of the given world-space center/radius/strength
// across every chunk whose AABB intersects the sphere (§4.8). Strength is
// world units of SDF added (positive values excavate, since only voxels
// that start solid — SDF < 0 — are affected). Editing a coordinate that
// isn't resident is a programmer error (§4.8 failure mode: callers must
// confirm residency via the SVO first) and panics rather than silently
// skipping the chunk.
func (e *Engine) Sphere(center coord.Vec3, radius, strength float32) []CarveResult {
	lo := coord.ChunkAt(coord.Vec3{X: center.X - radius, Y: center.Y - radius, Z: center.Z - radius})
	hi := coord.ChunkAt(coord.Vec3{X: center.X + radius, Y: center.Y + radius, Z: center.Z + radius})

	var results []CarveResult
	for z := lo.Z; z <= hi.Z; z++ {
		for y := lo.Y; y <= hi.Y; y++ {
			for x := lo.X; x <= hi.X; x++ {
				c := coord.Chunk{X: x, Y: y, Z: z}
				aabb := coord.ChunkAABB(c, 1)
				if !aabb.IntersectsSphere(center, radius*radius) {
					continue
				}
				results = append(results, e.carveChunk(c, center, radius, strength))
			}
		}
	}
	return results
}

func (e *Engine) carveChunk(c coord.Chunk, center coord.Vec3, radius, strength float32) CarveResult {
	res, ok := e.chunks.Resident(c)
	if !ok {
		panic(fmt.Sprintf("edit: chunk %+v is not resident; caller must confirm residency via the SVO before carving", c))
	}

	priorUniformity := res.Uniformity
	if priorUniformity != density.NonUniform {
		materializeUniform(res)
	}

	origin := c.Origin()
	r2 := radius * radius
	changed := false

	for gz := 0; gz < coord.GridSize; gz++ {
		for gy := 0; gy < coord.GridSize; gy++ {
			for gx := 0; gx < coord.GridSize; gx++ {
				idx := coord.SampleIndex(gx, gy, gz)
				cur := coord.DequantizeSDF(res.Densities[idx])
				if cur >= 0 {
					continue // only carving (removing solid), never building
				}

				p := coord.Vec3{
					X: origin.X + float32(gx)*coord.Spacing,
					Y: origin.Y + float32(gy)*coord.Spacing,
					Z: origin.Z + float32(gz)*coord.Spacing,
				}
				d2 := p.DistanceSquared(center)
				if d2 > r2 {
					continue
				}

				falloff := 1 - d2/r2
				next := cur + strength*falloff
				if next > coord.SDFMax {
					next = coord.SDFMax
				} else if next < -coord.SDFMax {
					next = -coord.SDFMax
				}
				q := coord.QuantizeSDF(next)
				if q != res.Densities[idx] {
					res.Densities[idx] = q
					changed = true
				}
			}
		}
	}

	if !changed {
		res.Uniformity = priorUniformity
		return CarveResult{Coord: c, Changed: false}
	}

	res.Uniformity = density.NonUniform
	m := mesh.Generate(res.Densities, res.Materials)

	if e.w != nil {
		// The uniform purge goes first: the writer turns RemoveUniform* into a
		// KV delete, so sending it after the update would erase the new bytes.
		switch priorUniformity {
		case density.UniformAir:
			e.w.Submit(writer.Command{Coord: c, Kind: writer.RemoveUniformAir})
		case density.UniformDirt:
			e.w.Submit(writer.Command{Coord: c, Kind: writer.RemoveUniformDirt})
		}
		e.w.Submit(writer.Command{
			Coord: c,
			Kind:  writer.UpdateNonUniform,
			Data:  store.Encode(res.Densities, res.Materials),
		})
	}

	return CarveResult{Coord: c, Changed: true, Mesh: m}
}

// materializeUniform expands a uniform chunk's implicit grid into explicit
// samples before carving (§4.8 step 2): air becomes all +MAX SDF, dirt
// becomes all -MAX SDF tagged dirt.
func materializeUniform(res *Resident) {
	var sdf int16
	var mat byte
	if res.Uniformity == density.UniformDirt {
		sdf = coord.QuantizeSDF(-coord.SDFMax)
		mat = density.MaterialDirt
	} else {
		sdf = coord.QuantizeSDF(coord.SDFMax)
		mat = density.MaterialAir
	}
	for i := range res.Densities {
		res.Densities[i] = sdf
		res.Materials[i] = mat
	}
}
