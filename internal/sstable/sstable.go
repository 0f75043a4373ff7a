// Package sstable implements the immutable, sorted, on-disk table: a data
// section of CRC-framed Entry records in ascending key order, a serialized
// key→offset index, and a fixed 24-byte footer.
package sstable

import "encoding/binary"

// Magic distinguishes a valid SSTable file from an arbitrary one and
// versions the layout.
const Magic uint64 = 0xDEADC0DEBEEFCAFE

// FooterSize is the fixed size, in bytes, of the trailing footer:
// [index_offset u64 LE][index_size u64 LE][magic u64 LE].
const FooterSize = 8 + 8 + 8

type footer struct {
	indexOffset uint64
	indexSize   uint64
	magic       uint64
}

func encodeFooter(f footer) []byte {
	buf := make([]byte, FooterSize)
	binary.LittleEndian.PutUint64(buf[0:8], f.indexOffset)
	binary.LittleEndian.PutUint64(buf[8:16], f.indexSize)
	binary.LittleEndian.PutUint64(buf[16:24], f.magic)
	return buf
}

func decodeFooter(b []byte) footer {
	return footer{
		indexOffset: binary.LittleEndian.Uint64(b[0:8]),
		indexSize:   binary.LittleEndian.Uint64(b[8:16]),
		magic:       binary.LittleEndian.Uint64(b[16:24]),
	}
}

// indexEntry maps a key to the byte offset of its frame in the data
// section (the offset of the frame's CRC prefix).
type indexEntry struct {
	key    []byte
	offset uint64
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
