// Package coord implements chunk/voxel coordinate math and SDF quantization (C1).
package coord

import "github.com/chewxy/math32"

// GridSize is the number of samples along each axis of a chunk's voxel grid.
const GridSize = 32

// ChunkSize is the world-space edge length of a chunk, in meters.
const ChunkSize = 32

// Spacing is the world-space distance between adjacent samples.
const Spacing = float32(ChunkSize) / (GridSize - 1)

// SDFMax is the clamp bound of a dequantized SDF sample, in world units.
const SDFMax = 10

// quantScale converts a world-unit SDF in [-SDFMax, SDFMax] to/from int16.
const quantScale = 32767.0 / SDFMax

// Chunk is a signed chunk-grid coordinate triple, clamped to int16 range.
type Chunk struct {
	X, Y, Z int16
}

// Add returns the componentwise sum of two chunk coordinates.
func (c Chunk) Add(d Chunk) Chunk {
	return Chunk{X: c.X + d.X, Y: c.Y + d.Y, Z: c.Z + d.Z}
}

// Center returns the world-space center of the chunk.
func (c Chunk) Center() Vec3 {
	h := float32(ChunkSize) * 0.5
	return Vec3{
		X: float32(c.X)*ChunkSize + h,
		Y: float32(c.Y)*ChunkSize + h,
		Z: float32(c.Z)*ChunkSize + h,
	}
}

// Origin returns the world-space lower corner of the chunk.
func (c Chunk) Origin() Vec3 {
	return Vec3{X: float32(c.X) * ChunkSize, Y: float32(c.Y) * ChunkSize, Z: float32(c.Z) * ChunkSize}
}

// ChunkAt returns the chunk coordinate containing the given world position.
func ChunkAt(p Vec3) Chunk {
	return Chunk{
		X: int16(math32.Floor(p.X / ChunkSize)),
		Y: int16(math32.Floor(p.Y / ChunkSize)),
		Z: int16(math32.Floor(p.Z / ChunkSize)),
	}
}

// SampleIndex returns the flat index of grid sample (x,y,z) within an N^3 grid.
func SampleIndex(x, y, z int) int {
	return x + GridSize*y + GridSize*GridSize*z
}

// QuantizeSDF converts a world-unit signed distance (clamped to [-SDFMax, SDFMax])
// into its lossy, monotonic int16 representation.
func QuantizeSDF(s float32) int16 {
	if math32.IsNaN(s) {
		s = 0
	}
	if s > SDFMax {
		s = SDFMax
	} else if s < -SDFMax {
		s = -SDFMax
	}
	return int16(math32.Round(s * quantScale))
}

// DequantizeSDF reverses QuantizeSDF.
func DequantizeSDF(q int16) float32 {
	return float32(q) / quantScale
}

// Vec3 is a 3D float32 vector used throughout the terrain core.
type Vec3 struct {
	X, Y, Z float32
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Mul(f float32) Vec3 {
	return Vec3{v.X * f, v.Y * f, v.Z * f}
}

func (v Vec3) AddScaled(o Vec3, f float32) Vec3 {
	return Vec3{v.X + o.X*f, v.Y + o.Y*f, v.Z + o.Z*f}
}

func (v Vec3) Dot(o Vec3) float32 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3) LengthSquared() float32 {
	return v.Dot(v)
}

func (v Vec3) Length() float32 {
	return math32.Sqrt(v.LengthSquared())
}

func (v Vec3) DistanceSquared(o Vec3) float32 {
	return v.Sub(o).LengthSquared()
}

// Norm returns v scaled to unit length, or the zero vector if v is degenerate.
func (v Vec3) Norm() Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	return v.Mul(1.0 / l)
}

func (v Vec3) Lerp(o Vec3, t float32) Vec3 {
	return Vec3{
		X: v.X + (o.X-v.X)*t,
		Y: v.Y + (o.Y-v.Y)*t,
		Z: v.Z + (o.Z-v.Z)*t,
	}
}

// AABB is an axis-aligned bounding box, stored as a lower corner plus size.
type AABB struct {
	Min  Vec3
	Size Vec3
}

// ChunkAABB returns the world-space AABB of a cubic block of chunks.
func ChunkAABB(lower Chunk, sizeInChunks int32) AABB {
	s := float32(sizeInChunks) * ChunkSize
	return AABB{Min: lower.Origin(), Size: Vec3{s, s, s}}
}

// Intersects reports whether a and b overlap (touching counts as overlap).
func (a AABB) Intersects(b AABB) bool {
	aMax := a.Min.Add(a.Size)
	bMax := b.Min.Add(b.Size)
	return a.Min.X <= bMax.X && aMax.X >= b.Min.X &&
		a.Min.Y <= bMax.Y && aMax.Y >= b.Min.Y &&
		a.Min.Z <= bMax.Z && aMax.Z >= b.Min.Z
}

// IntersectsSphere reports whether the AABB intersects a sphere.
func (a AABB) IntersectsSphere(center Vec3, radiusSquared float32) bool {
	return a.NearestPointDistanceSquared(center) <= radiusSquared
}

// NearestPointDistanceSquared returns the squared distance from p to the closest
// point on (or inside) the AABB.
func (a AABB) NearestPointDistanceSquared(p Vec3) float32 {
	max := a.Min.Add(a.Size)
	clamp := func(v, lo, hi float32) float32 {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	}
	nearest := Vec3{
		X: clamp(p.X, a.Min.X, max.X),
		Y: clamp(p.Y, a.Min.Y, max.Y),
		Z: clamp(p.Z, a.Min.Z, max.Z),
	}
	return p.DistanceSquared(nearest)
}
