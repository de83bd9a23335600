package columnrange

import (
	"testing"

	"voxelterrain/density"
)

func TestInsertContains(t *testing.T) {
	m := New()
	m.Insert(0, 5, 0, density.UniformAir)
	if u, ok := m.Contains(0, 5, 0); !ok || u != density.UniformAir {
		t.Fatalf("expected Some(Air), got %v, %v", u, ok)
	}
	if _, ok := m.Contains(0, 6, 0); ok {
		t.Fatalf("expected None at unrelated coordinate")
	}
}

// Column-range merge scenario (§8 scenario 2): interleaved inserts expanding
// outward from y=0 must leave a single merged [-12, 12] Air range.
func TestColumnRangeMergeScenario(t *testing.T) {
	m := New()
	ys := []int16{10, -10, 0, 5, -5, 9, -9, 1, -1, 8, -8, 2, -2, 7, -7, 3, -3, 6, -6, 4, -4, 11, -11, 12, -12}
	for _, y := range ys {
		m.Insert(0, y, 0, density.UniformAir)
	}
	for y := int16(-12); y <= 12; y++ {
		u, ok := m.Contains(0, y, 0)
		if !ok || u != density.UniformAir {
			t.Fatalf("expected Some(Air) at y=%d, got %v, %v", y, u, ok)
		}
	}
	if _, ok := m.Contains(0, 13, 0); ok {
		t.Fatalf("expected None at y=13")
	}
	if _, ok := m.Contains(0, -13, 0); ok {
		t.Fatalf("expected None at y=-13")
	}
	ranges := m.Ranges(0, 0)
	if len(ranges) != 1 || ranges[0].Lo != -12 || ranges[0].Hi != 12 {
		t.Fatalf("expected a single merged [-12,12] range, got %+v", ranges)
	}
}

// Mixed-uniformity bridging scenario (§8 scenario 3): Dirt below, Air above,
// interleaved inserts, with the origin left uncovered (never inserted).
func TestMixedUniformityBridging(t *testing.T) {
	m := New()
	dirtYs := []int16{-10, -1, -9, -2, -8, -3, -7, -4, -6, -5}
	airYs := []int16{1, 10, 2, 9, 3, 8, 4, 7, 5, 6}
	for i := range dirtYs {
		m.Insert(0, dirtYs[i], 0, density.UniformDirt)
		m.Insert(0, airYs[i], 0, density.UniformAir)
	}
	if _, ok := m.Contains(0, 0, 0); ok {
		t.Fatalf("expected None at origin")
	}
	if u, ok := m.Contains(0, -5, 0); !ok || u != density.UniformDirt {
		t.Fatalf("expected Some(Dirt) at y=-5, got %v, %v", u, ok)
	}
	if u, ok := m.Contains(0, 5, 0); !ok || u != density.UniformAir {
		t.Fatalf("expected Some(Air) at y=5, got %v, %v", u, ok)
	}
}

func TestRemove(t *testing.T) {
	m := New()
	m.Insert(0, 0, 0, density.UniformAir)
	m.Insert(0, 1, 0, density.UniformAir)
	m.Insert(0, 2, 0, density.UniformAir)
	m.Remove(0, 1, 0, density.UniformAir)

	if _, ok := m.Contains(0, 1, 0); ok {
		t.Fatalf("expected y=1 removed")
	}
	if u, ok := m.Contains(0, 0, 0); !ok || u != density.UniformAir {
		t.Fatalf("expected y=0 to remain")
	}
	if u, ok := m.Contains(0, 2, 0); !ok || u != density.UniformAir {
		t.Fatalf("expected y=2 to remain")
	}

	m.Remove(0, 0, 0, density.UniformAir)
	m.Remove(0, 2, 0, density.UniformAir)
	if ranges := m.Ranges(0, 0); len(ranges) != 0 {
		t.Fatalf("expected empty column list after removing all ranges, got %+v", ranges)
	}
}

func TestRemoveWrongUniformityPanics(t *testing.T) {
	m := New()
	m.Insert(0, 0, 0, density.UniformAir)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on uniformity mismatch")
		}
	}()
	m.Remove(0, 0, 0, density.UniformDirt)
}

// Invariant test (§8): after any sequence of inserts, no two ranges with
// equal uniformity are adjacent in any column.
func TestNoAdjacentSameUniformityRanges(t *testing.T) {
	m := New()
	seq := []struct {
		y int16
		u density.Uniformity
	}{
		{0, density.UniformAir}, {2, density.UniformDirt}, {1, density.UniformDirt},
		{-1, density.UniformAir}, {5, density.UniformAir}, {4, density.UniformAir},
		{3, density.UniformDirt},
	}
	for _, s := range seq {
		m.Insert(0, s.y, 0, s.u)
	}
	ranges := m.Ranges(0, 0)
	for i := range ranges {
		for j := range ranges {
			if i == j {
				continue
			}
			a, b := ranges[i], ranges[j]
			if a.U == b.U && (a.Hi+1 == b.Lo || b.Hi+1 == a.Lo) {
				t.Fatalf("found adjacent same-uniformity ranges: %+v, %+v", a, b)
			}
		}
	}
}
