// Package pipeline implements the asynchronous chunk pipeline (C7):
// load requests flow in on a priority queue, are generated/decoded/meshed by
// worker goroutines, and results flow back to the viewer goroutine, per
// SPEC_FULL.md §4.6. Grounded on this codebase's hub.go run() select loop:
// channel-based inbound queues drained in a batch per wakeup, with the same
// "read everything currently buffered, then process" shape, generalized from
// a single-goroutine game loop to a requester/worker split connected by
// channels.
package pipeline

import (
	"container/heap"
	"sync"
	"sync/atomic"

	"github.com/gofrs/uuid"

	"voxelterrain/coord"
	"voxelterrain/density"
	"voxelterrain/mesh"
	"voxelterrain/store"
	"voxelterrain/svo"
)

// Request is one admitted load/upgrade for a chunk coordinate (§4.6).
type Request struct {
	Coord         coord.Chunk
	DesiredStatus svo.LoadStatus
	IsUpgrade     bool
	DistSquared   float32
	RequestID     uuid.UUID
	Canceled      *atomic.Bool
}

// Result is what a worker sends back once a request has been serviced.
type Result struct {
	Coord         coord.Chunk
	Uniformity    density.Uniformity
	Densities     [coord.GridSize * coord.GridSize * coord.GridSize]int16
	Materials     [coord.GridSize * coord.GridSize * coord.GridSize]byte
	Mesh          *mesh.Mesh // nil for uniform chunks
	NeedsCollider bool       // true when DesiredStatus == svo.StatusHydrated and the chunk is non-uniform
	RequestID     uuid.UUID
	DesiredStatus svo.LoadStatus
	IsUpgrade     bool
}

// NewRequestID mints a fresh v4 UUID for a newly admitted coord. Using a
// UUID rather than a shared counter means the id space survives pipeline
// restarts and workers never contend on a sequence counter (§4.6).
func NewRequestID() uuid.UUID {
	id, err := uuid.NewV4()
	if err != nil {
		// crypto/rand failure; extremely unlikely, and a zero UUID is still
		// a valid (if non-unique) sentinel rather than a crash.
		return uuid.UUID{}
	}
	return id
}

// Pipeline owns the request/result channels and the known-keys set that
// distinguishes "decode from the store" from "regenerate" (§4.3/§4.6 step 3).
type Pipeline struct {
	kv     store.KV
	height density.HeightSource
	writes chan<- store.WriteOp

	requests chan Request
	results  chan Result

	knownMu sync.RWMutex
	known   map[coord.Chunk]bool
}

// New constructs a Pipeline. writes is the channel the persistence writer
// (C4.7) drains; kv is queried for already-persisted (non-uniform) chunks.
func New(kv store.KV, height density.HeightSource, writes chan<- store.WriteOp) (*Pipeline, error) {
	p := &Pipeline{
		kv:       kv,
		height:   height,
		writes:   writes,
		requests: make(chan Request, 256),
		results:  make(chan Result, 256),
		known:    make(map[coord.Chunk]bool),
	}
	if err := kv.IterKeys(func(c coord.Chunk) { p.known[c] = true }); err != nil {
		return nil, err
	}
	return p, nil
}

// Results returns the channel workers publish completed chunks on.
func (p *Pipeline) Results() <-chan Result { return p.results }

// Submit enqueues a request. Safe to call from the viewer goroutine only
// (single requester per §4.6 topology).
func (p *Pipeline) Submit(r Request) { p.requests <- r }

// Run drains requests into a local priority queue and services them
// nearest-first until requests is closed. Intended to run on its own
// goroutine (or several, for a worker pool); each call is one worker.
func (p *Pipeline) Run() {
	var pq priorityQueue

	for {
		if pq.Len() == 0 {
			// Step 6: block on the channel when no requests remain.
			r, ok := <-p.requests
			if !ok {
				return
			}
			heap.Push(&pq, r)
		}

		// Step 1: drain everything currently buffered without blocking.
		for drained := false; !drained; {
			select {
			case r, ok := <-p.requests:
				if !ok {
					drained = true
					break
				}
				heap.Push(&pq, r)
			default:
				drained = true
			}
		}

		req := heap.Pop(&pq).(Request)
		if req.Canceled != nil && req.Canceled.Load() {
			continue // step 2: skip canceled work without servicing it
		}

		result := p.service(req)
		p.results <- result
	}
}

// service executes steps 3-5 of §4.6 for a single request.
func (p *Pipeline) service(req Request) Result {
	p.knownMu.RLock()
	isKnown := p.known[req.Coord]
	p.knownMu.RUnlock()

	var densities [coord.GridSize * coord.GridSize * coord.GridSize]int16
	var materials [coord.GridSize * coord.GridSize * coord.GridSize]byte
	var uniformity density.Uniformity

	if isKnown {
		data, ok, err := p.kv.Get(req.Coord)
		if err == nil && ok {
			if d, m, decErr := store.Decode(data); decErr == nil {
				densities, materials = d, m
				uniformity = density.NonUniform
			} else {
				ok = false
			}
			if !ok {
				isKnown = false
			}
		} else {
			isKnown = false
		}
	}

	if !isKnown {
		densities, materials, uniformity = density.Generate(req.Coord, p.height)
		if uniformity == density.NonUniform {
			p.knownMu.Lock()
			p.known[req.Coord] = true
			p.knownMu.Unlock()
			if p.writes != nil {
				p.writes <- store.WriteOp{Coord: req.Coord, Data: store.Encode(&densities, &materials)}
			}
		}
	}

	result := Result{
		Coord:         req.Coord,
		Uniformity:    uniformity,
		Densities:     densities,
		Materials:     materials,
		RequestID:     req.RequestID,
		DesiredStatus: req.DesiredStatus,
		IsUpgrade:     req.IsUpgrade,
	}

	if uniformity == density.NonUniform {
		result.Mesh = mesh.Generate(&densities, &materials)
		if req.DesiredStatus == svo.StatusHydrated {
			result.NeedsCollider = true
		}
	}

	return result
}
