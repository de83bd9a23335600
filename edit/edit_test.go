package edit

import (
	"testing"

	"voxelterrain/columnrange"
	"voxelterrain/coord"
	"voxelterrain/density"
	"voxelterrain/store"
	"voxelterrain/svo"
	"voxelterrain/writer"
)

type fakeChunks struct {
	residents map[coord.Chunk]*Resident
	leaves    map[coord.Chunk]*svo.Leaf
}

func newFakeChunks() *fakeChunks {
	return &fakeChunks{residents: map[coord.Chunk]*Resident{}, leaves: map[coord.Chunk]*svo.Leaf{}}
}

func (f *fakeChunks) Resident(c coord.Chunk) (*Resident, bool) {
	r, ok := f.residents[c]
	return r, ok
}

func (f *fakeChunks) Leaf(c coord.Chunk) *svo.Leaf { return f.leaves[c] }

func (f *fakeChunks) putUniform(c coord.Chunk, u density.Uniformity) {
	var d [coord.GridSize * coord.GridSize * coord.GridSize]int16
	var m [coord.GridSize * coord.GridSize * coord.GridSize]byte
	f.residents[c] = &Resident{Densities: &d, Materials: &m, Uniformity: u}
	f.leaves[c] = &svo.Leaf{Status: svo.StatusHydrated}
}

func TestSphereCarveMaterializesUniformDirtAndFlipsNonUniform(t *testing.T) {
	chunks := newFakeChunks()
	c := coord.Chunk{X: 0, Y: 0, Z: 0}
	chunks.putUniform(c, density.UniformDirt)

	e := New(chunks, nil)
	center := c.Center()
	results := e.Sphere(center, coord.ChunkSize*0.4, 20)

	var got *CarveResult
	for i := range results {
		if results[i].Coord == c {
			got = &results[i]
		}
	}
	if got == nil {
		t.Fatalf("expected a carve result for the center chunk")
	}
	if !got.Changed {
		t.Fatalf("expected carving a solid uniform-dirt chunk to change it")
	}
	if got.Mesh == nil || got.Mesh.Empty() {
		t.Fatalf("expected a non-empty mesh after carving through a solid chunk")
	}
	res := chunks.residents[c]
	if res.Uniformity != density.NonUniform {
		t.Fatalf("expected chunk to become NonUniform after carving")
	}
}

func TestSphereCarveLeavesUniformAirUnchanged(t *testing.T) {
	chunks := newFakeChunks()
	c := coord.Chunk{X: 0, Y: 0, Z: 0}
	chunks.putUniform(c, density.UniformAir)

	e := New(chunks, nil)
	results := e.Sphere(c.Center(), coord.ChunkSize*0.4, 20)

	for _, r := range results {
		if r.Coord == c && r.Changed {
			t.Fatalf("expected carving air (nothing solid to remove) to leave the chunk unchanged")
		}
	}
}

func TestSphereCarveOnNonResidentChunkPanics(t *testing.T) {
	chunks := newFakeChunks()
	e := New(chunks, nil)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected carving a non-resident chunk to panic")
		}
	}()
	e.Sphere(coord.Vec3{X: 0, Y: 0, Z: 0}, coord.ChunkSize*0.5, 5)
}

func TestSphereCarveEmitsWriterCommandsOnMaterialization(t *testing.T) {
	chunks := newFakeChunks()
	c := coord.Chunk{X: 0, Y: 0, Z: 0}
	chunks.putUniform(c, density.UniformDirt)

	kv := store.NewMemKV()
	ranges := columnrange.New()
	ranges.Insert(c.X, c.Y, c.Z, density.UniformDirt)

	w := writer.New(kv, ranges, func(err error) { t.Fatalf("unexpected writer error: %v", err) })
	go w.Run()

	e := New(chunks, w)
	e.Sphere(c.Center(), coord.ChunkSize*0.4, 20)

	w.Close()
	<-w.Done()

	if _, ok, _ := kv.Get(c); !ok {
		t.Fatalf("expected the carved chunk's new bytes to reach the store")
	}
	if _, ok := ranges.Contains(c.X, c.Y, c.Z); ok {
		t.Fatalf("expected the uniform-dirt range entry to be cleared once the chunk materializes")
	}
}
