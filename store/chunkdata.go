// Package store implements the persistence layer (C4): an embedded,
// memory-mapped key-value store holding serialized non-uniform chunks.
// Grounded on this codebase's cloud/db.Database interface shape; backed by
// go.etcd.io/bbolt rather than the teacher's DynamoDB client, because §4.3
// requires an embedded, single-writer/multi-reader store and bbolt is the
// idiomatic Go library for exactly that contract (see DESIGN.md).
package store

import (
	"encoding/binary"
	"fmt"

	"voxelterrain/coord"
)

// EncodeKey packs a chunk coordinate into the fixed 6-byte big-endian key
// described in §4.3.
func EncodeKey(c coord.Chunk) [6]byte {
	var key [6]byte
	binary.BigEndian.PutUint16(key[0:2], uint16(c.X))
	binary.BigEndian.PutUint16(key[2:4], uint16(c.Y))
	binary.BigEndian.PutUint16(key[4:6], uint16(c.Z))
	return key
}

// DecodeKey reverses EncodeKey.
func DecodeKey(key []byte) coord.Chunk {
	return coord.Chunk{
		X: int16(binary.BigEndian.Uint16(key[0:2])),
		Y: int16(binary.BigEndian.Uint16(key[2:4])),
		Z: int16(binary.BigEndian.Uint16(key[4:6])),
	}
}

// chunkSamples is N^3, the sample count of one chunk's grid.
const chunkSamples = coord.GridSize * coord.GridSize * coord.GridSize

// byteLayoutLen is 5*N^3: 4 bytes/sample for densities plus 1 byte/sample
// for materials, per §6.2.
const byteLayoutLen = 5 * chunkSamples

// Encode serializes a non-uniform chunk's grids into the canonical §6.2 byte
// layout: densities as 4-byte-aligned little-endian int16 pairs (high bytes
// zero), followed by one material byte per sample.
func Encode(densities *[chunkSamples]int16, materials *[chunkSamples]byte) []byte {
	buf := make([]byte, byteLayoutLen)
	for i, d := range densities {
		binary.LittleEndian.PutUint16(buf[i*4:i*4+2], uint16(d))
		// buf[i*4+2 : i*4+4] left zero, matching the reference's 4-byte-per-sample layout.
	}
	copy(buf[4*chunkSamples:], materials[:])
	return buf
}

// Decode reverses Encode. It returns an error rather than panicking on a
// malformed length and leaves the handling to the caller; the pipeline
// regenerates the chunk when decoding fails.
func Decode(buf []byte) (densities [chunkSamples]int16, materials [chunkSamples]byte, err error) {
	if len(buf) != byteLayoutLen {
		err = fmt.Errorf("store: chunk record has length %d, want %d", len(buf), byteLayoutLen)
		return
	}
	for i := range densities {
		densities[i] = int16(binary.LittleEndian.Uint16(buf[i*4 : i*4+2]))
	}
	copy(materials[:], buf[4*chunkSamples:])
	return
}
