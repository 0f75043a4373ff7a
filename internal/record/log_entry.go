package record

import (
	"encoding/binary"

	"github.com/arclsm/lsmkv/internal/dberr"
)

// Op tags a LogEntry variant.
type Op uint8

const (
	// OpPut carries a key and a value.
	OpPut Op = 1
	// OpDelete carries a key only; it produces a tombstone on replay.
	OpDelete Op = 2
)

// LogEntry is the WAL record union: Put(Key, Value) or Delete(Key).
type LogEntry struct {
	Op    Op
	Seq   uint64
	Key   []byte
	Value []byte
}

// EncodeLogEntry serializes e as
// [op u8][seq u64 LE][keylen u32 LE][key][vallen u32 LE][value].
func EncodeLogEntry(e LogEntry) []byte {
	buf := make([]byte, 1+8+4+len(e.Key)+4+len(e.Value))
	buf[0] = byte(e.Op)
	binary.LittleEndian.PutUint64(buf[1:9], e.Seq)
	binary.LittleEndian.PutUint32(buf[9:13], uint32(len(e.Key)))
	off := 13
	copy(buf[off:], e.Key)
	off += len(e.Key)
	binary.LittleEndian.PutUint32(buf[off:off+4], uint32(len(e.Value)))
	off += 4
	copy(buf[off:], e.Value)
	return buf
}

// DecodeLogEntry is the inverse of EncodeLogEntry.
func DecodeLogEntry(b []byte) (LogEntry, error) {
	if len(b) < 1+8+4 {
		return LogEntry{}, dberr.WrapCorruptRecord(nil, "record: log entry payload too short (%d bytes)", len(b))
	}
	op := Op(b[0])
	if op != OpPut && op != OpDelete {
		return LogEntry{}, dberr.WrapCorruptRecord(nil, "record: unknown log entry op %d", b[0])
	}
	seq := binary.LittleEndian.Uint64(b[1:9])
	klen := binary.LittleEndian.Uint32(b[9:13])
	off := 13
	if uint64(len(b)) < uint64(off)+uint64(klen)+4 {
		return LogEntry{}, dberr.WrapCorruptRecord(nil, "record: log entry key/length mismatch")
	}
	key := make([]byte, klen)
	copy(key, b[off:off+int(klen)])
	off += int(klen)
	vlen := binary.LittleEndian.Uint32(b[off : off+4])
	off += 4
	if uint64(len(b)-off) != uint64(vlen) {
		return LogEntry{}, dberr.WrapCorruptRecord(nil, "record: log entry value length mismatch")
	}
	var value []byte
	if vlen > 0 {
		value = make([]byte, vlen)
		copy(value, b[off:])
	}
	return LogEntry{Op: op, Seq: seq, Key: key, Value: value}, nil
}
