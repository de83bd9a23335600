package store

import (
	"voxelterrain/coord"

	bolt "go.etcd.io/bbolt"
)

var chunksBucket = []byte("chunks")

// KV is the narrow persistence contract the rest of the terrain core
// depends on, mirroring cloud/db.Database's shape (a small interface over a
// concrete handle) rather than exposing bbolt types directly — §4.3.
type KV interface {
	// Get returns a snapshot read of coord's bytes, or ok=false if absent.
	// Never blocks writers (bbolt read transactions are MVCC snapshots).
	Get(c coord.Chunk) (data []byte, ok bool, err error)
	// IterKeys walks every stored key once; used at startup to populate a
	// resident known-keys set (§4.3).
	IterKeys(func(coord.Chunk)) error
	// Commit applies a batch of writes/deletes in one transaction.
	Commit(batch []WriteOp) error
	Close() error
}

// WriteOp is one mutation applied within a single writer transaction (§4.7).
type WriteOp struct {
	Coord  coord.Chunk
	Delete bool
	Data   []byte // ignored when Delete is true
}

// BoltKV is the default KV backed by an embedded, memory-mapped bbolt
// database file: single-writer transactions, unlimited concurrent readers,
// exactly the contract §4.3 specifies.
type BoltKV struct {
	db *bolt.DB
}

// Open opens (creating if necessary) the bbolt database at path and ensures
// the chunks bucket exists.
func Open(path string) (*BoltKV, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(chunksBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltKV{db: db}, nil
}

func (s *BoltKV) Get(c coord.Chunk) (data []byte, ok bool, err error) {
	key := EncodeKey(c)
	err = s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(chunksBucket).Get(key[:])
		if v != nil {
			ok = true
			data = append([]byte(nil), v...) // copy: v is only valid within the transaction
		}
		return nil
	})
	return
}

func (s *BoltKV) IterKeys(visit func(coord.Chunk)) error {
	return s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(chunksBucket).Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			visit(DecodeKey(k))
		}
		return nil
	})
}

// Commit applies batch in a single write transaction, per the coalescing
// contract in §4.3/§4.7: the store never returns a partial write, and a
// failed commit leaves the prior on-disk state untouched (bbolt transactions
// are all-or-nothing).
func (s *BoltKV) Commit(batch []WriteOp) error {
	if len(batch) == 0 {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(chunksBucket)
		for _, op := range batch {
			key := EncodeKey(op.Coord)
			if op.Delete {
				if err := b.Delete(key[:]); err != nil {
					return err
				}
				continue
			}
			if err := b.Put(key[:], op.Data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltKV) Close() error {
	return s.db.Close()
}
