package store

import (
	"testing"

	"voxelterrain/coord"
)

func TestEncodeDecodeKey(t *testing.T) {
	c := coord.Chunk{X: -5, Y: 1000, Z: 32767}
	key := EncodeKey(c)
	got := DecodeKey(key[:])
	if got != c {
		t.Fatalf("DecodeKey(EncodeKey(%+v)) = %+v", c, got)
	}
}

// Round-trip property (§8): deserialize(serialize(chunk)) == chunk bit-for-bit.
func TestEncodeDecodeRoundTrip(t *testing.T) {
	var densities [chunkSamples]int16
	var materials [chunkSamples]byte
	for i := range densities {
		densities[i] = int16(i*7 - 12345)
		materials[i] = byte(i % 4)
	}

	buf := Encode(&densities, &materials)
	if len(buf) != byteLayoutLen {
		t.Fatalf("Encode length = %d, want %d", len(buf), byteLayoutLen)
	}

	gotDensities, gotMaterials, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if gotDensities != densities {
		t.Fatalf("densities mismatch after round-trip")
	}
	if gotMaterials != materials {
		t.Fatalf("materials mismatch after round-trip")
	}
}

func TestDecodeMalformedLength(t *testing.T) {
	if _, _, err := Decode([]byte{1, 2, 3}); err == nil {
		t.Fatalf("expected error decoding malformed buffer")
	}
}

func TestMemKVCommitAndGet(t *testing.T) {
	kv := NewMemKV()
	c := coord.Chunk{X: 1, Y: 2, Z: 3}
	var densities [chunkSamples]int16
	var materials [chunkSamples]byte
	data := Encode(&densities, &materials)

	if err := kv.Commit([]WriteOp{{Coord: c, Data: data}}); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	got, ok, err := kv.Get(c)
	if err != nil || !ok {
		t.Fatalf("Get after commit: ok=%v err=%v", ok, err)
	}
	if len(got) != len(data) {
		t.Fatalf("unexpected data length")
	}

	if err := kv.Commit([]WriteOp{{Coord: c, Delete: true}}); err != nil {
		t.Fatalf("Commit delete: %v", err)
	}
	if _, ok, _ := kv.Get(c); ok {
		t.Fatalf("expected coord to be gone after delete")
	}
}

func TestMemKVIterKeys(t *testing.T) {
	kv := NewMemKV()
	coords := []coord.Chunk{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 1}}
	for _, c := range coords {
		var densities [chunkSamples]int16
		var materials [chunkSamples]byte
		_ = kv.Commit([]WriteOp{{Coord: c, Data: Encode(&densities, &materials)}})
	}
	seen := map[coord.Chunk]bool{}
	_ = kv.IterKeys(func(c coord.Chunk) { seen[c] = true })
	for _, c := range coords {
		if !seen[c] {
			t.Fatalf("expected IterKeys to visit %+v", c)
		}
	}
}
