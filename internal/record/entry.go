package record

import (
	"encoding/binary"

	"github.com/arclsm/lsmkv/internal/dberr"
)

// Entry is the durable record payload stored in an SSTable data section.
//
// Invariant: Tombstone == true implies Value is absent (nil/empty);
// Tombstone == false implies Value is present. Seq is a monotonically
// increasing sequence number assigned at write time, used to break ties
// when the same key appears more than once within a single merge (flush
// or out-of-core compaction) — it never changes the spec's "newest
// SSTable / freshest MemTable entry wins" read order across files.
type Entry struct {
	Value     []byte
	Tombstone bool
	Seq       uint64
}

// EncodeEntry serializes e as [tombstone u8][seq u64 LE][vallen u32 LE][value].
func EncodeEntry(e Entry) []byte {
	buf := make([]byte, 1+8+4+len(e.Value))
	if e.Tombstone {
		buf[0] = 1
	}
	binary.LittleEndian.PutUint64(buf[1:9], e.Seq)
	binary.LittleEndian.PutUint32(buf[9:13], uint32(len(e.Value)))
	copy(buf[13:], e.Value)
	return buf
}

// DecodeEntry is the inverse of EncodeEntry.
func DecodeEntry(b []byte) (Entry, error) {
	if len(b) < 1+8+4 {
		return Entry{}, dberr.WrapCorruptRecord(nil, "record: entry payload too short (%d bytes)", len(b))
	}
	tomb := b[0] != 0
	seq := binary.LittleEndian.Uint64(b[1:9])
	vlen := binary.LittleEndian.Uint32(b[9:13])
	rest := b[13:]
	if uint64(len(rest)) != uint64(vlen) {
		return Entry{}, dberr.WrapCorruptRecord(nil, "record: entry value length mismatch (want %d, have %d)", vlen, len(rest))
	}
	var value []byte
	if vlen > 0 {
		value = make([]byte, vlen)
		copy(value, rest)
	}
	return Entry{Value: value, Tombstone: tomb, Seq: seq}, nil
}
