package coord

import "testing"

func TestQuantizeRoundTrip(t *testing.T) {
	cases := []float32{-10, -3.5, -0.001, 0, 0.001, 4.2, 10}
	for _, s := range cases {
		q := QuantizeSDF(s)
		got := DequantizeSDF(q)
		diff := got - s
		if diff < 0 {
			diff = -diff
		}
		const tolerance = 10.0 / 32767.0
		if diff > tolerance+1e-6 {
			t.Errorf("QuantizeSDF(%v) round-trip = %v, diff %v exceeds tolerance %v", s, got, diff, tolerance)
		}
	}
}

func TestQuantizeClamps(t *testing.T) {
	if QuantizeSDF(100) != QuantizeSDF(SDFMax) {
		t.Errorf("expected clamp at +SDFMax")
	}
	if QuantizeSDF(-100) != QuantizeSDF(-SDFMax) {
		t.Errorf("expected clamp at -SDFMax")
	}
}

func TestQuantizeNaN(t *testing.T) {
	nan := float32(0)
	nan = nan / nan
	if q := QuantizeSDF(nan); q != 0 {
		t.Errorf("expected NaN to quantize to 0, got %v", q)
	}
}

func TestChunkAt(t *testing.T) {
	c := ChunkAt(Vec3{X: 33, Y: -1, Z: 0})
	want := Chunk{X: 1, Y: -1, Z: 0}
	if c != want {
		t.Errorf("ChunkAt = %+v, want %+v", c, want)
	}
}

func TestSampleIndex(t *testing.T) {
	if got := SampleIndex(1, 2, 3); got != 1+GridSize*2+GridSize*GridSize*3 {
		t.Errorf("unexpected sample index %d", got)
	}
}

func TestAABBIntersects(t *testing.T) {
	a := AABB{Min: Vec3{0, 0, 0}, Size: Vec3{10, 10, 10}}
	b := AABB{Min: Vec3{5, 5, 5}, Size: Vec3{10, 10, 10}}
	c := AABB{Min: Vec3{20, 20, 20}, Size: Vec3{5, 5, 5}}
	if !a.Intersects(b) {
		t.Errorf("expected a, b to intersect")
	}
	if a.Intersects(c) {
		t.Errorf("expected a, c to not intersect")
	}
}

func TestAABBNearestPointDistanceSquared(t *testing.T) {
	a := AABB{Min: Vec3{0, 0, 0}, Size: Vec3{10, 10, 10}}
	if d := a.NearestPointDistanceSquared(Vec3{5, 5, 5}); d != 0 {
		t.Errorf("expected 0 distance for interior point, got %v", d)
	}
	if d := a.NearestPointDistanceSquared(Vec3{15, 0, 0}); d != 25 {
		t.Errorf("expected distance^2 25, got %v", d)
	}
}
