// Package engine assembles the terrain core's components (C2-C8) behind
// one constructor and drives the single-consumer main-thread loop (§4.9,
// §5), grounded on this codebase's Hub.run(): one goroutine owns all
// shared mutable state except the worker/writer-local pieces, and advances
// by draining channels each tick rather than blocking indefinitely.
package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/uuid"
	jsoniter "github.com/json-iterator/go"

	"voxelterrain/columnrange"
	"voxelterrain/config"
	"voxelterrain/coord"
	"voxelterrain/density"
	"voxelterrain/edit"
	"voxelterrain/log"
	"voxelterrain/mesh"
	"voxelterrain/noise"
	"voxelterrain/pipeline"
	"voxelterrain/store"
	"voxelterrain/svo"
	"voxelterrain/writer"
)

type chunkGrids = [coord.GridSize * coord.GridSize * coord.GridSize]int16
type chunkMats = [coord.GridSize * coord.GridSize * coord.GridSize]byte

// entry is a resident chunk's in-memory state: its grid, its uniformity and
// its current mesh. Its load status is kept only in the chunk's SVO leaf.
type entry struct {
	densities  chunkGrids
	materials  chunkMats
	uniformity density.Uniformity
	mesh       *mesh.Mesh
}

// Viewer is the top-level engine type a host constructs once and ticks
// repeatedly (§4.9 "Engine/viewer wiring").
type Viewer struct {
	cfg    config.Config
	kv     *store.BoltKV
	ranges *columnrange.Map
	tree   *svo.Tree
	pipe   *pipeline.Pipeline
	wr     *writer.Writer
	editor *edit.Engine

	mu          sync.RWMutex
	residents   map[coord.Chunk]*entry
	beingLoaded map[coord.Chunk]uuid.UUID

	ticks uint64
}

// New opens the KV store file terrain.db inside cfg.DataDir (creating the
// directory if needed), wires pipeline/writer/svo/edit together, and starts
// the writer and one pipeline worker goroutine (or cfg.WorkerCount of them
// per §5).
func New(cfg config.Config) (*Viewer, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("engine: creating data dir: %w", err)
	}
	kv, err := store.Open(filepath.Join(cfg.DataDir, "terrain.db"))
	if err != nil {
		return nil, fmt.Errorf("engine: opening store: %w", err)
	}

	ranges := columnrange.New()
	wr := writer.New(kv, ranges, func(err error) {
		log.Error("writer: commit failed, will retry next drain: %v", err)
	})

	height := noise.NewPerlin(cfg.Seed)
	pipe, err := pipeline.New(kv, height, forwardTo(wr))
	if err != nil {
		kv.Close()
		return nil, fmt.Errorf("engine: building pipeline: %w", err)
	}

	v := &Viewer{
		cfg:         cfg,
		kv:          kv,
		ranges:      ranges,
		tree:        svo.New(cfg.Radius),
		pipe:        pipe,
		wr:          wr,
		residents:   make(map[coord.Chunk]*entry),
		beingLoaded: make(map[coord.Chunk]uuid.UUID),
	}
	v.editor = edit.New(v, wr)

	go wr.Run()
	workers := cfg.WorkerCount
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		go pipe.Run()
	}

	return v, nil
}

// forwardTo adapts writer.Writer.Submit to the chan<- store.WriteOp shape
// pipeline.New expects, since the writer goroutine (not the KV directly)
// owns commits (§4.7). The pipeline only ever enqueues fresh non-uniform
// writes (§4.6 step 3), never deletes, so every forwarded op is
// UpdateNonUniform.
func forwardTo(w *writer.Writer) chan<- store.WriteOp {
	ch := make(chan store.WriteOp, 256)
	go func() {
		for op := range ch {
			w.Submit(writer.Command{Coord: op.Coord, Kind: writer.UpdateNonUniform, Data: op.Data})
		}
	}()
	return ch
}

// Close closes the writer's command channel, waits for the writer goroutine
// to drain it, and closes the store. The pipeline worker goroutines and the
// goroutine forwarding pipeline writes are not stopped. Resident chunk state
// is dropped; it is assumed already persisted.
func (v *Viewer) Close() error {
	v.wr.Close()
	<-v.wr.Done()
	return v.kv.Close()
}

// Resident implements edit.ChunkStore.
func (v *Viewer) Resident(c coord.Chunk) (*edit.Resident, bool) {
	v.mu.RLock()
	e, ok := v.residents[c]
	v.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return &edit.Resident{Densities: &e.densities, Materials: &e.materials, Uniformity: e.uniformity}, true
}

// Leaf implements edit.ChunkStore.
func (v *Viewer) Leaf(c coord.Chunk) *svo.Leaf { return v.tree.Get(c) }

// Edit carves a sphere through resident chunks and refreshes their meshes
// in place (§4.8). Panics if any touched chunk isn't resident, per the
// edit engine's fatal-precondition contract.
func (v *Viewer) Edit(center coord.Vec3, radius, strength float32) []edit.CarveResult {
	results := v.editor.Sphere(center, radius, strength)
	v.mu.Lock()
	for _, r := range results {
		if !r.Changed {
			continue
		}
		if e, ok := v.residents[r.Coord]; ok {
			e.uniformity = density.NonUniform
			e.mesh = r.Mesh
		}
	}
	v.mu.Unlock()
	return results
}

// Tick runs one iteration of the main-thread loop (§4.9/§5): drain results,
// insert/upgrade the SVO, walk the SVO for new work around center, submit
// it to the pipeline. It never blocks on worker or writer I/O.
func (v *Viewer) Tick(center coord.Vec3) {
	v.ticks++
	v.drainResults()

	v.mu.RLock()
	beingLoadedCoords := make(map[coord.Chunk]bool, len(v.beingLoaded))
	for c := range v.beingLoaded {
		beingLoadedCoords[c] = true
	}
	v.mu.RUnlock()

	reqs := v.tree.FillMissingChunksInRadius(center, v.cfg.Z2, beingLoadedCoords)
	for _, r := range reqs {
		id := pipeline.NewRequestID()
		v.mu.Lock()
		v.beingLoaded[r.Coord] = id
		v.mu.Unlock()
		v.pipe.Submit(pipeline.Request{
			Coord:         r.Coord,
			DesiredStatus: r.DesiredStatus,
			IsUpgrade:     r.IsUpgrade,
			DistSquared:   r.DistSquared,
			RequestID:     id,
		})
	}

	for _, c := range v.tree.QueryChunksOutsideSphere(center, v.cfg.Z2) {
		v.evict(c)
	}
}

// drainResults applies every result currently buffered on the pipeline's
// result channel without blocking, discarding stale ones by request id
// (§4.6 "Request id / deduplication").
func (v *Viewer) drainResults() {
	for {
		select {
		case res, ok := <-v.pipe.Results():
			if !ok {
				return
			}
			v.applyResult(res)
		default:
			return
		}
	}
}

func (v *Viewer) applyResult(res pipeline.Result) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if current, ok := v.beingLoaded[res.Coord]; !ok || current != res.RequestID {
		log.Debug("dropping stale result for %+v (request id mismatch)", res.Coord)
		return
	}
	delete(v.beingLoaded, res.Coord)

	v.residents[res.Coord] = &entry{
		densities:  res.Densities,
		materials:  res.Materials,
		uniformity: res.Uniformity,
		mesh:       res.Mesh,
	}
	if res.Uniformity != density.NonUniform {
		// Record the column-range entry as soon as a uniform chunk becomes
		// resident, not just on eviction: a carve can reach it before it is
		// ever evicted, and the writer's RemoveUniform* path (§4.7) asserts
		// the range map already knows about the chunk being removed.
		v.ranges.Insert(res.Coord.X, res.Coord.Y, res.Coord.Z, res.Uniformity)
	}

	status := res.DesiredStatus
	if v.tree.Contains(res.Coord) {
		v.tree.Upsert(res.Coord, svo.Leaf{HasEntity: true, Status: status})
	} else {
		v.tree.Insert(res.Coord, svo.Leaf{HasEntity: true, Status: status})
	}
}

// evict drops a chunk's in-memory state once it leaves the viewer's radius.
// A uniform chunk's residency is the sole in-memory record of its
// uniformity; before dropping it, record it in the column-range map (§3
// "evicted ... uniform chunks recorded in the column-range map") so a later
// load/carve cycle can still find it without materializing the chunk.
func (v *Viewer) evict(c coord.Chunk) {
	v.mu.Lock()
	if e, ok := v.residents[c]; ok && e.uniformity != density.NonUniform {
		v.ranges.Insert(c.X, c.Y, c.Z, e.uniformity)
	}
	delete(v.residents, c)
	v.mu.Unlock()
	v.tree.Delete(c)
}

// Stats is a snapshot of engine activity for the debug dump below.
type Stats struct {
	Ticks          uint64 `json:"ticks"`
	ResidentChunks int    `json:"resident_chunks"`
	BeingLoaded    int    `json:"being_loaded"`
}

func (v *Viewer) Stats() Stats {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return Stats{
		Ticks:          v.ticks,
		ResidentChunks: len(v.residents),
		BeingLoaded:    len(v.beingLoaded),
	}
}

// DebugJSON renders Stats via json-iterator, matching this codebase's use
// of jsoniter for debug/status payloads rather than encoding/json.
func (v *Viewer) DebugJSON() (string, error) {
	b, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(v.Stats())
	if err != nil {
		return "", err
	}
	return string(b), nil
}
