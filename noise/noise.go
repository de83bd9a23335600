// Package noise defines the external noise-function seam the density
// generator depends on (§6.1), plus a default Perlin-backed implementation.
package noise

import "github.com/aquilax/go-perlin"

// Source samples 2D noise in [-1, 1]. The core requires seed stability
// across calls: a given (x, z, seed) must always produce the same value.
type Source interface {
	Sample2D(x, z float32, seed int64) float32
}

// Perlin is the default noise.Source, combining three heightfield octaves
// plus a continentality mask, each its own independently-seeded generator
// so re-seeding the world is a single integer change (mirrors terrain/noise.
// Generator's landHi/landLo/waterLo split in the teacher codebase, extended
// with a fourth octave for the mountain mask required by §4.1).
type Perlin struct {
	octaves [3]*perlin.Perlin
	mask    *perlin.Perlin
}

// Frequencies and weights for the three height octaves, per §4.1.
var (
	octaveFrequencies = [3]float32{1e-4, 3e-3, 8e-3}
	octaveWeights     = [3]float32{100, 40, 15}
)

const (
	maskFrequency  = 3e-4
	mountainBoost  = 150
)

// NewPerlin constructs the default generator for a given world seed.
func NewPerlin(seed int64) *Perlin {
	p := &Perlin{}
	for i := range p.octaves {
		// alpha, beta, octaves, seed match the shape used by terrain/noise.New:
		// distinct seeds per sub-generator so layers don't correlate.
		p.octaves[i] = perlin.NewPerlin(2.0, 2.0, 3, seed+int64(i))
	}
	p.mask = perlin.NewPerlin(2.0, 2.0, 2, seed+3)
	return p
}

// Height returns the combined heightfield sample (in world Y units) at (x, z).
func (p *Perlin) Height(x, z float32) float32 {
	var h float32
	for i, gen := range p.octaves {
		h += float32(gen.Noise2D(float64(x*octaveFrequencies[i]), float64(z*octaveFrequencies[i]))) * octaveWeights[i]
	}
	mask := float32(p.mask.Noise2D(float64(x*maskFrequency), float64(z*maskFrequency)))
	if mask < 0 {
		mask = 0
	}
	h += mask * mask * mountainBoost
	return h
}

// Sample2D implements Source by returning the raw first octave, clamped to
// [-1, 1]; used where a caller genuinely wants a bare noise value rather than
// the combined heightfield (e.g. tests, or alternate consumers of §6.1).
func (p *Perlin) Sample2D(x, z float32, seed int64) float32 {
	v := float32(p.octaves[0].Noise2D(float64(x), float64(z)))
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return v
}
