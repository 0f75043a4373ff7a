package sstable

import (
	"bytes"
	"io"
	"os"

	"github.com/arclsm/lsmkv/internal/dberr"
	"github.com/arclsm/lsmkv/internal/record"
)

// Reader is an opened, read-only handle onto an immutable SSTable file.
// Its in-memory index never changes after NewReader returns — the file
// content is frozen the moment the Writer that produced it closed.
//
// Get opens a fresh file descriptor per call rather than holding and
// seeking a shared one, so concurrent Get calls on the same Reader never
// race on seek position (spec §4.4.4's permitted alternative to
// serializing access).
type Reader struct {
	path  string
	index []indexEntry
	// order is the comparator the table's index is sorted under. Binary
	// search in Get must use the same order the table was written with,
	// or a key whose encoded form is not byte-order-isomorphic with its
	// codec's Compare would silently resolve to the wrong offset (or
	// "not found").
	order func(a, b []byte) int
}

// NewReader opens path read-only, validates its footer, and loads its
// index into memory, assuming the table's keys are ordered by raw byte
// comparison. Use NewReaderWithOrder for a table written under a
// different KeyOrder.
func NewReader(path string) (*Reader, error) {
	return NewReaderWithOrder(path, bytes.Compare)
}

// NewReaderWithOrder is NewReader with an explicit comparator, matching
// whichever order (internal/lsm.Options.KeyOrder, ultimately
// pkg/codec.KeyCodec.Compare on the encoded key bytes) the table was
// written under.
func NewReaderWithOrder(path string, order func(a, b []byte) int) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, dberr.WrapIO(err, "sstable: open %s", path)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, dberr.WrapIO(err, "sstable: stat %s", path)
	}
	if st.Size() < FooterSize {
		return nil, dberr.WrapCorruptSSTable(nil, "sstable: %s shorter than footer (%d bytes)", path, st.Size())
	}

	footerBuf := make([]byte, FooterSize)
	if _, err := f.ReadAt(footerBuf, st.Size()-FooterSize); err != nil {
		return nil, dberr.WrapIO(err, "sstable: read footer %s", path)
	}
	ft := decodeFooter(footerBuf)
	if ft.magic != Magic {
		return nil, dberr.WrapCorruptSSTable(nil, "sstable: %s bad magic %#x", path, ft.magic)
	}
	if ft.indexOffset > uint64(st.Size())-FooterSize {
		return nil, dberr.WrapCorruptSSTable(nil, "sstable: %s index offset out of range", path)
	}
	wantIndexEnd := ft.indexOffset + ft.indexSize
	if wantIndexEnd > uint64(st.Size())-FooterSize {
		return nil, dberr.WrapCorruptSSTable(nil, "sstable: %s index extends past footer", path)
	}

	indexBuf := make([]byte, ft.indexSize)
	if ft.indexSize > 0 {
		if _, err := f.ReadAt(indexBuf, int64(ft.indexOffset)); err != nil {
			return nil, dberr.WrapIO(err, "sstable: read index %s", path)
		}
	}
	entries, err := decodeIndex(indexBuf)
	if err != nil {
		return nil, dberr.WrapCorruptSSTable(err, "sstable: decode index %s", path)
	}

	return &Reader{path: path, index: entries, order: order}, nil
}

// Path returns the file path this reader was opened from.
func (r *Reader) Path() string { return r.path }

// Len reports the number of keys indexed in this table.
func (r *Reader) Len() int { return len(r.index) }

// Get looks up key against the in-memory index. If absent, it returns
// (Entry{}, false, nil). If present, it opens a fresh file descriptor,
// seeks to the recorded offset, reads a single framed record, verifies
// its CRC, and deserializes it as an Entry — tombstone entries are
// returned as-is, since they shadow older SSTables at the DB layer.
func (r *Reader) Get(key []byte) (record.Entry, bool, error) {
	offset, ok := lookup(r.index, key, r.order)
	if !ok {
		return record.Entry{}, false, nil
	}

	f, err := os.Open(r.path)
	if err != nil {
		return record.Entry{}, false, dberr.WrapIO(err, "sstable: open for get %s", r.path)
	}
	defer f.Close()

	if _, err := f.Seek(int64(offset), io.SeekStart); err != nil {
		return record.Entry{}, false, dberr.WrapIO(err, "sstable: seek %s", r.path)
	}
	payload, err := record.ReadFrame(f)
	if err != nil {
		return record.Entry{}, false, err
	}
	entry, err := record.DecodeEntry(payload)
	if err != nil {
		return record.Entry{}, false, err
	}
	return entry, true, nil
}

// Close is a no-op: Reader holds no persistent file handle between calls.
func (r *Reader) Close() error { return nil }

// Keys returns every indexed key in ascending order — the same order the
// data section itself is written in (spec §8 invariant 5). A standalone
// compactor uses this to stream a table's entries via Get without needing
// access to the Reader's internal index.
func (r *Reader) Keys() [][]byte {
	keys := make([][]byte, len(r.index))
	for i, e := range r.index {
		keys[i] = cloneBytes(e.key)
	}
	return keys
}

// MaxSeq returns the highest Seq carried by any entry in the table. Seq
// is not part of the index itself, so this reads every record once via
// Get. Open uses it to reconstruct the sequence counter from SSTables
// already flushed out of the WAL.
func (r *Reader) MaxSeq() (uint64, error) {
	var max uint64
	for _, key := range r.Keys() {
		e, ok, err := r.Get(key)
		if err != nil {
			return 0, err
		}
		if ok && e.Seq > max {
			max = e.Seq
		}
	}
	return max, nil
}
