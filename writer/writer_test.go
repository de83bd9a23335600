package writer

import (
	"errors"
	"testing"

	"voxelterrain/columnrange"
	"voxelterrain/coord"
	"voxelterrain/density"
	"voxelterrain/store"
)

func TestUpdateNonUniformPersistsAndClearsRange(t *testing.T) {
	kv := store.NewMemKV()
	ranges := columnrange.New()
	ranges.Insert(0, 5, 0, density.UniformAir)

	w := New(kv, ranges, func(err error) { t.Fatalf("unexpected commit error: %v", err) })
	go w.Run()

	c := coord.Chunk{X: 0, Y: 5, Z: 0}
	var dens [coord.GridSize * coord.GridSize * coord.GridSize]int16
	var mats [coord.GridSize * coord.GridSize * coord.GridSize]byte
	data := store.Encode(&dens, &mats)

	w.Submit(Command{Coord: c, Kind: UpdateNonUniform, Data: data})
	w.Close()
	<-w.Done()

	got, ok, err := kv.Get(c)
	if err != nil || !ok {
		t.Fatalf("expected persisted record, ok=%v err=%v", ok, err)
	}
	if len(got) != len(data) {
		t.Fatalf("unexpected persisted length")
	}
	if _, ok := ranges.Contains(0, 5, 0); ok {
		t.Fatalf("expected the uniform range entry to be cleared on materialization")
	}
}

func TestRemoveUniformAirDeletesAndUpdatesRange(t *testing.T) {
	kv := store.NewMemKV()
	c := coord.Chunk{X: 1, Y: 2, Z: 1}
	var dens [coord.GridSize * coord.GridSize * coord.GridSize]int16
	var mats [coord.GridSize * coord.GridSize * coord.GridSize]byte
	if err := kv.Commit([]store.WriteOp{{Coord: c, Data: store.Encode(&dens, &mats)}}); err != nil {
		t.Fatalf("seed commit: %v", err)
	}

	ranges := columnrange.New()
	ranges.Insert(1, 2, 1, density.UniformAir)

	w := New(kv, ranges, func(err error) { t.Fatalf("unexpected commit error: %v", err) })
	go w.Run()

	w.Submit(Command{Coord: c, Kind: RemoveUniformAir})
	w.Close()
	<-w.Done()

	if _, ok, _ := kv.Get(c); ok {
		t.Fatalf("expected chunk to be deleted from the store")
	}
	if _, ok := ranges.Contains(1, 2, 1); ok {
		t.Fatalf("expected the range entry to be removed")
	}
}

func TestCommitFailureSkipsRangeMutation(t *testing.T) {
	kv := &failingKV{}
	ranges := columnrange.New()
	ranges.Insert(0, 0, 0, density.UniformDirt)

	var sawErr bool
	w := New(kv, ranges, func(err error) { sawErr = true })
	go w.Run()

	w.Submit(Command{Coord: coord.Chunk{X: 0, Y: 0, Z: 0}, Kind: RemoveUniformDirt})
	w.Close()
	<-w.Done()

	if !sawErr {
		t.Fatalf("expected onError to be invoked for a failed commit")
	}
	// §4.3: a failed commit leaves in-memory state untouched, to be retried.
	if _, ok := ranges.Contains(0, 0, 0); !ok {
		t.Fatalf("expected the range entry to survive a failed commit")
	}
}

func TestBatchesMultiplePendingCommandsIntoOneCommit(t *testing.T) {
	kv := &countingKV{MemKV: *store.NewMemKV()}
	ranges := columnrange.New()
	w := New(kv, ranges, func(err error) { t.Fatalf("unexpected error: %v", err) })

	var dens [coord.GridSize * coord.GridSize * coord.GridSize]int16
	var mats [coord.GridSize * coord.GridSize * coord.GridSize]byte
	data := store.Encode(&dens, &mats)

	// Submit before Run starts, so both land in the channel buffer together
	// and must be drained into a single transaction.
	w.Submit(Command{Coord: coord.Chunk{X: 0, Y: 0, Z: 0}, Kind: UpdateNonUniform, Data: data})
	w.Submit(Command{Coord: coord.Chunk{X: 1, Y: 0, Z: 0}, Kind: UpdateNonUniform, Data: data})
	w.Close()

	go w.Run()
	<-w.Done()

	if kv.commits != 1 {
		t.Fatalf("expected exactly one Commit call for a drained batch, got %d", kv.commits)
	}
}

type failingKV struct{}

func (f *failingKV) Get(coord.Chunk) ([]byte, bool, error)     { return nil, false, nil }
func (f *failingKV) IterKeys(func(coord.Chunk)) error          { return nil }
func (f *failingKV) Commit([]store.WriteOp) error              { return errors.New("disk full") }
func (f *failingKV) Close() error                              { return nil }

type countingKV struct {
	store.MemKV
	commits int
}

func (c *countingKV) Commit(batch []store.WriteOp) error {
	c.commits++
	return c.MemKV.Commit(batch)
}
