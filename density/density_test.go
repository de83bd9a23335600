package density

import (
	"testing"

	"voxelterrain/coord"
)

// flatHeight is a deterministic stub HeightSource: a flat plane at height y0.
type flatHeight struct{ y0 float32 }

func (f flatHeight) Height(x, z float32) float32 { return f.y0 }

func TestGenerateUniformAir(t *testing.T) {
	// Chunk entirely above the flat plane.
	c := coord.Chunk{X: 0, Y: 10, Z: 0}
	_, materials, u := Generate(c, flatHeight{y0: -1000})
	if u != UniformAir {
		t.Fatalf("expected UniformAir, got %v", u)
	}
	for _, m := range materials {
		if m != MaterialAir {
			t.Fatalf("expected all-air materials, found %v", m)
		}
	}
}

func TestGenerateUniformDirt(t *testing.T) {
	c := coord.Chunk{X: 0, Y: -10, Z: 0}
	densities, materials, u := Generate(c, flatHeight{y0: 1000})
	if u != UniformDirt {
		t.Fatalf("expected UniformDirt, got %v", u)
	}
	for _, d := range densities {
		if d >= 0 {
			t.Fatalf("expected all-negative densities, found %v", d)
		}
	}
	for _, m := range materials {
		if m != MaterialDirt {
			t.Fatalf("expected all-dirt materials, found %v", m)
		}
	}
}

func TestGenerateNonUniformAtSurface(t *testing.T) {
	// Flat plane right through the middle of the chunk: surface crossing.
	c := coord.Chunk{X: 0, Y: 0, Z: 0}
	_, _, u := Generate(c, flatHeight{y0: 16})
	if u != NonUniform {
		t.Fatalf("expected NonUniform chunk straddling the surface, got %v", u)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	c := coord.Chunk{X: 3, Y: 0, Z: -2}
	h := flatHeight{y0: 5}
	d1, m1, u1 := Generate(c, h)
	d2, m2, u2 := Generate(c, h)
	if u1 != u2 || d1 != d2 || m1 != m2 {
		t.Fatalf("expected deterministic output for identical inputs")
	}
}

func TestClampSDF(t *testing.T) {
	if got := clampSDF(1000); got != coord.SDFMax {
		t.Errorf("clampSDF(1000) = %v, want %v", got, coord.SDFMax)
	}
	if got := clampSDF(-1000); got != -coord.SDFMax {
		t.Errorf("clampSDF(-1000) = %v, want %v", got, -coord.SDFMax)
	}
}
