package store

import "voxelterrain/coord"

// MemKV is an in-memory KV used by tests that exercise the store/writer
// contract without touching disk. It preserves the same all-or-nothing
// Commit semantics as BoltKV.
type MemKV struct {
	data map[coord.Chunk][]byte
}

func NewMemKV() *MemKV {
	return &MemKV{data: make(map[coord.Chunk][]byte)}
}

func (m *MemKV) Get(c coord.Chunk) ([]byte, bool, error) {
	v, ok := m.data[c]
	return v, ok, nil
}

func (m *MemKV) IterKeys(visit func(coord.Chunk)) error {
	for c := range m.data {
		visit(c)
	}
	return nil
}

func (m *MemKV) Commit(batch []WriteOp) error {
	for _, op := range batch {
		if op.Delete {
			delete(m.data, op.Coord)
		} else {
			m.data[op.Coord] = op.Data
		}
	}
	return nil
}

func (m *MemKV) Close() error { return nil }
