package sstable

import (
	"encoding/binary"

	"github.com/arclsm/lsmkv/internal/dberr"
)

// encodeIndex serializes a sequence of index entries (already in
// ascending key order) as a flat run of
// [keylen u32 LE][key][offset u64 LE] records. This is the "serialized
// key→offset index" the SSTable footer points at.
func encodeIndex(entries []indexEntry) []byte {
	size := 0
	for _, e := range entries {
		size += 4 + len(e.key) + 8
	}
	buf := make([]byte, size)
	off := 0
	for _, e := range entries {
		binary.LittleEndian.PutUint32(buf[off:off+4], uint32(len(e.key)))
		off += 4
		copy(buf[off:], e.key)
		off += len(e.key)
		binary.LittleEndian.PutUint64(buf[off:off+8], e.offset)
		off += 8
	}
	return buf
}

// decodeIndex is the inverse of encodeIndex.
func decodeIndex(b []byte) ([]indexEntry, error) {
	var entries []indexEntry
	off := 0
	for off < len(b) {
		if len(b)-off < 4 {
			return nil, dberr.WrapCorruptSSTable(nil, "sstable: truncated index entry header")
		}
		klen := binary.LittleEndian.Uint32(b[off : off+4])
		off += 4
		if uint64(len(b)-off) < uint64(klen)+8 {
			return nil, dberr.WrapCorruptSSTable(nil, "sstable: truncated index entry body")
		}
		key := make([]byte, klen)
		copy(key, b[off:off+int(klen)])
		off += int(klen)
		offset := binary.LittleEndian.Uint64(b[off : off+8])
		off += 8
		entries = append(entries, indexEntry{key: key, offset: offset})
	}
	return entries, nil
}

// lookup returns the offset recorded for key, or (0, false) if key is not
// present in the index. The index is sorted ascending by order (it was
// built from an ascending MemTable iteration using the same order), so
// this is a binary search. order must be the comparator the table was
// written under — see Reader.order.
func lookup(entries []indexEntry, key []byte, order func(a, b []byte) int) (uint64, bool) {
	lo, hi := 0, len(entries)
	for lo < hi {
		mid := (lo + hi) / 2
		switch c := order(entries[mid].key, key); {
		case c == 0:
			return entries[mid].offset, true
		case c < 0:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return 0, false
}
