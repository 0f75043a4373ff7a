// Package codec supplies the key and value strategies that parameterize
// the public engine over arbitrary Go types. The core storage packages
// under internal/ stay byte-oriented; codecs are the one place a user's
// type meets the engine's on-disk representation.
package codec

import "github.com/cespare/xxhash/v2"

// KeyCodec converts between a user's key type and the deterministic byte
// form the engine persists. The same logical key must always produce the
// same encoded bytes, across processes and across engine builds — the
// MemTable's hash index and the SSTable index both key off Encode's
// output, not off K itself.
type KeyCodec[K any] interface {
	Encode(K) []byte
	Decode([]byte) (K, error)
	// Compare returns <0, 0, or >0 as a sorts before, equals, or sorts
	// after b, establishing the total order the MemTable's sorted index
	// and the SSTable's ascending data section rely on.
	Compare(a, b K) int
}

// ValueCodec converts between a user's value type and its serialized
// byte form.
type ValueCodec[V any] interface {
	Encode(V) []byte
	Decode([]byte) (V, error)
}

// HashKey returns xxhash.Sum64 of a key's encoded bytes — the same hash
// internal/memtable's hash index computes (it calls xxhash.Sum64
// directly rather than this function). No KeyCodec has to implement a
// hash itself: two equal encoded forms are always the same logical key,
// so hashing the bytes is sufficient.
func HashKey(encoded []byte) uint64 {
	return xxhash.Sum64(encoded)
}
