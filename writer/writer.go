// Package writer implements the dedicated persistence writer goroutine
// (C4.7): the single owner of KV commits and column-range map mutations,
// per SPEC_FULL.md §4.7. Grounded on this codebase's cloud/db persistence
// shape for the command vocabulary and hub.go's drain-then-commit loop for
// the goroutine body.
package writer

import (
	"voxelterrain/columnrange"
	"voxelterrain/coord"
	"voxelterrain/density"
	"voxelterrain/store"
)

// Command is one of the three writer operations named in §4.7.
type Command struct {
	Coord coord.Chunk
	Kind  Kind
	Data  []byte // set only for UpdateNonUniform
}

// Kind discriminates Command variants.
type Kind int

const (
	UpdateNonUniform Kind = iota
	RemoveUniformAir
	RemoveUniformDirt
)

// Writer owns the KV and the column-range map; both are mutated only from
// the goroutine running Writer.Run, so neither needs its own lock.
type Writer struct {
	kv      store.KV
	ranges  *columnrange.Map
	cmds    chan Command
	done    chan struct{}
	onError func(error)
}

// New constructs a Writer. onError is invoked (on the writer's own
// goroutine) whenever a commit fails; the failed batch is kept and retried
// with the next drain (§7: a commit failure is transient). The default
// wiring in engine logs the error and keeps running.
func New(kv store.KV, ranges *columnrange.Map, onError func(error)) *Writer {
	return &Writer{
		kv:      kv,
		ranges:  ranges,
		cmds:    make(chan Command, 256),
		done:    make(chan struct{}),
		onError: onError,
	}
}

// Submit enqueues a command. Safe to call from any goroutine.
func (w *Writer) Submit(c Command) { w.cmds <- c }

// Close signals Run to drain remaining commands and return.
func (w *Writer) Close() { close(w.cmds) }

// Done reports completion of Run, for callers awaiting graceful shutdown.
func (w *Writer) Done() <-chan struct{} { return w.done }

// Run drains cmds into one KV transaction per wakeup and applies the
// matching column-range mutation in the same critical section (§4.7: "The
// column-range map is updated in the same critical section"). Intended to
// run on its own goroutine; returns once cmds is closed and drained.
func (w *Writer) Run() {
	defer close(w.done)

	var pending []Command // commands of a failed commit, retried with the next drain
	for cmd := range w.cmds {
		n := len(w.cmds)
		cmds := make([]Command, 0, len(pending)+n+1)
		cmds = append(append(cmds, pending...), cmd)
		for ; n > 0; n-- {
			cmds = append(cmds, <-w.cmds)
		}
		batch := make([]store.WriteOp, 0, len(cmds))
		for _, c := range cmds {
			batch = append(batch, toWriteOp(c))
		}

		if err := w.kv.Commit(batch); err != nil {
			if w.onError != nil {
				w.onError(err)
			}
			pending = cmds
			continue // §4.3: a failed commit is retried on next drain, not applied
		}
		pending = nil

		for _, c := range cmds {
			w.applyRange(c)
		}
	}
}

func toWriteOp(c Command) store.WriteOp {
	switch c.Kind {
	case UpdateNonUniform:
		return store.WriteOp{Coord: c.Coord, Data: c.Data}
	default:
		return store.WriteOp{Coord: c.Coord, Delete: true}
	}
}

func (w *Writer) applyRange(c Command) {
	switch c.Kind {
	case UpdateNonUniform:
		if u, ok := w.ranges.Contains(c.Coord.X, c.Coord.Y, c.Coord.Z); ok {
			w.ranges.Remove(c.Coord.X, c.Coord.Y, c.Coord.Z, u)
		}
	case RemoveUniformAir:
		w.ranges.Remove(c.Coord.X, c.Coord.Y, c.Coord.Z, density.UniformAir)
	case RemoveUniformDirt:
		w.ranges.Remove(c.Coord.X, c.Coord.Y, c.Coord.Z, density.UniformDirt)
	}
}
