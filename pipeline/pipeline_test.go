package pipeline

import (
	"sync/atomic"
	"testing"

	"voxelterrain/coord"
	"voxelterrain/density"
	"voxelterrain/store"
	"voxelterrain/svo"
)

// flatHeight is a deterministic HeightSource stub, mirroring density's own
// test stub: a flat surface at the given height, solid below it and air above.
type flatHeight float32

func (h flatHeight) Height(x, z float32) float32 { return float32(h) }

func newTestPipeline(t *testing.T, h density.HeightSource) (*Pipeline, chan store.WriteOp) {
	t.Helper()
	writes := make(chan store.WriteOp, 16)
	p, err := New(store.NewMemKV(), h, writes)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p, writes
}

func TestServiceUniformChunkHasNoMesh(t *testing.T) {
	p, _ := newTestPipeline(t, flatHeight(-1000)) // surface far below the chunk: air
	req := Request{Coord: coord.Chunk{X: 0, Y: 1000, Z: 0}, DesiredStatus: svo.StatusHydrated}
	res := p.service(req)
	if res.Mesh != nil {
		t.Fatalf("expected no mesh for a uniform chunk")
	}
	if res.Uniformity == density.NonUniform {
		t.Fatalf("expected chunk far above a flat surface to be uniform")
	}
}

func TestServiceNonUniformChunkProducesMeshAndWrite(t *testing.T) {
	p, writes := newTestPipeline(t, flatHeight(0)) // surface crosses chunk at origin
	req := Request{Coord: coord.Chunk{X: 0, Y: 0, Z: 0}, DesiredStatus: svo.StatusHydrated}
	res := p.service(req)
	if res.Uniformity != density.NonUniform {
		t.Fatalf("expected a surface-crossing chunk to be non-uniform")
	}
	if res.Mesh == nil {
		t.Fatalf("expected a mesh for a non-uniform chunk")
	}
	if !res.NeedsCollider {
		t.Fatalf("expected a hydrated non-uniform chunk to request a collider")
	}

	select {
	case op := <-writes:
		if op.Coord != req.Coord || op.Delete {
			t.Fatalf("unexpected write op: %+v", op)
		}
	default:
		t.Fatalf("expected a write to be enqueued for a freshly generated non-uniform chunk")
	}
}

func TestServiceCoarseStatusSkipsCollider(t *testing.T) {
	p, _ := newTestPipeline(t, flatHeight(0))
	req := Request{Coord: coord.Chunk{X: 0, Y: 0, Z: 0}, DesiredStatus: svo.StatusCoarse}
	res := p.service(req)
	if res.NeedsCollider {
		t.Fatalf("expected coarse status to skip collider request")
	}
}

func TestServiceDecodesFromKnownStore(t *testing.T) {
	kv := store.NewMemKV()
	var dens [coord.GridSize * coord.GridSize * coord.GridSize]int16
	var mats [coord.GridSize * coord.GridSize * coord.GridSize]byte
	dens[0] = coord.QuantizeSDF(-1)
	c := coord.Chunk{X: 3, Y: 3, Z: 3}
	if err := kv.Commit([]store.WriteOp{{Coord: c, Data: store.Encode(&dens, &mats)}}); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	writes := make(chan store.WriteOp, 4)
	p, err := New(kv, flatHeight(-1000), writes) // generator would say uniform; store must win
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res := p.service(Request{Coord: c, DesiredStatus: svo.StatusHydrated})
	if res.Uniformity != density.NonUniform {
		t.Fatalf("expected the persisted record to be treated as non-uniform regardless of the generator")
	}
	select {
	case <-writes:
		t.Fatalf("expected no new write when the chunk was already known")
	default:
	}
}

func TestRunSkipsCanceledRequest(t *testing.T) {
	p, _ := newTestPipeline(t, flatHeight(-1000))

	var canceled atomic.Bool
	canceled.Store(true)
	p.Submit(Request{Coord: coord.Chunk{X: 1, Y: 1, Z: 1}, Canceled: &canceled})
	p.Submit(Request{Coord: coord.Chunk{X: 2, Y: 2, Z: 2}})
	close(p.requests)

	go p.Run()

	res := <-p.results
	if res.Coord != (coord.Chunk{X: 2, Y: 2, Z: 2}) {
		t.Fatalf("expected the canceled request to be skipped, got result for %+v", res.Coord)
	}
}

func TestRunOrdersByDistanceNearestFirst(t *testing.T) {
	p, _ := newTestPipeline(t, flatHeight(-1000))

	far := Request{Coord: coord.Chunk{X: 9, Y: 9, Z: 9}, DistSquared: 900}
	near := Request{Coord: coord.Chunk{X: 1, Y: 1, Z: 1}, DistSquared: 1}
	p.Submit(far)
	p.Submit(near)
	close(p.requests)

	go p.Run()

	first := <-p.results
	second := <-p.results
	if first.Coord != near.Coord {
		t.Fatalf("expected nearer request serviced first, got %+v then %+v", first.Coord, second.Coord)
	}
}
