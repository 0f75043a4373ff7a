// Package record implements the frame codec shared by the write-ahead log
// and the SSTable data section: [crc32 LE : 4][length LE : 8][payload].
// The CRC is CRC-32 IEEE computed over the payload only.
package record

import (
	"encoding/binary"
	"hash/crc32"
	"io"

	"github.com/cockroachdb/errors"

	"github.com/arclsm/lsmkv/internal/dberr"
)

const headerSize = 4 + 8

// WriteFrame writes one framed record (crc + length + payload) to w.
func WriteFrame(w io.Writer, payload []byte) error {
	var hdr [headerSize]byte
	binary.LittleEndian.PutUint32(hdr[0:4], crc32.ChecksumIEEE(payload))
	binary.LittleEndian.PutUint64(hdr[4:12], uint64(len(payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return dberr.WrapIO(err, "record: write frame header")
	}
	if len(payload) > 0 {
		if _, err := w.Write(payload); err != nil {
			return dberr.WrapIO(err, "record: write frame payload")
		}
	}
	return nil
}

// ReadFrame reads one framed record from r.
//
// A clean end-of-file while reading the first byte of the CRC header is
// reported as io.EOF (the normal end of a well-formed stream). Any other
// short read — inside the header, or inside the payload — or a CRC
// mismatch is reported as a dberr-wrapped CorruptRecord error.
func ReadFrame(r io.Reader) ([]byte, error) {
	var hdr [headerSize]byte
	n, err := io.ReadFull(r, hdr[:])
	if err != nil {
		if n == 0 && errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, dberr.WrapTornRecord(err, "record: short frame header (%d/%d bytes)", n, headerSize)
	}

	wantCRC := binary.LittleEndian.Uint32(hdr[0:4])
	length := binary.LittleEndian.Uint64(hdr[4:12])

	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, dberr.WrapTornRecord(err, "record: short frame payload (want %d bytes)", length)
		}
	}

	if gotCRC := crc32.ChecksumIEEE(payload); gotCRC != wantCRC {
		return nil, dberr.WrapCorruptRecord(nil, "record: crc mismatch (want %#x, got %#x)", wantCRC, gotCRC)
	}
	return payload, nil
}
